package client

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/menta2k/mudrik/pkg/types"
)

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLine     = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
)

// transcriptionAnswer distinguishes a missing "lines" field from an empty one
type transcriptionAnswer struct {
	Lines    *[]types.TranscribedLine `json:"lines"`
	Language string                   `json:"language"`
}

// ParseTranscription turns a model answer into a Transcription. A JSON object
// with a "lines" field is used as is, even when the list is empty, since that
// is how the model reports an image without text. Any other answer is
// treated as plain text with one line per text line.
func ParseTranscription(raw string) *types.Transcription {
	cleaned := SanitizeModelJSON(raw)
	if strings.HasPrefix(cleaned, "{") {
		var answer transcriptionAnswer
		if err := json.Unmarshal([]byte(cleaned), &answer); err == nil && answer.Lines != nil {
			return &types.Transcription{Lines: *answer.Lines, Language: answer.Language, Raw: raw}
		}
	}

	result := &types.Transcription{Raw: raw}
	for _, line := range strings.Split(StripFences(raw), "\n") {
		result.Lines = append(result.Lines, types.TranscribedLine{Text: line})
	}
	return result
}

// StripFences removes a surrounding markdown code fence
func StripFences(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		} else {
			raw = strings.TrimPrefix(raw, "```")
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	return strings.TrimSpace(raw)
}

// SanitizeModelJSON removes code fences, comments, and trailing commas from JSON response
func SanitizeModelJSON(raw string) string {
	raw = StripFences(raw)
	raw = strings.Trim(raw, "`")

	// Remove /* ... */ block comments
	raw = reBlock.ReplaceAllString(raw, "")

	// Remove whole-line // comments. Inline ones are kept since transcribed
	// text may contain "//".
	raw = reLine.ReplaceAllString(raw, "")

	// Remove trailing commas before } or ]
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
