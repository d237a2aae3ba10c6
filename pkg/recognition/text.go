package recognition

import (
	"strings"

	"github.com/go-text/typesetting/language"
)

// ContainsArabic reports whether s has at least one character of the Arabic
// script. Mixed Arabic and Latin text qualifies.
func ContainsArabic(s string) bool {
	for _, r := range s {
		if language.LookupScript(r) == language.Arabic {
			return true
		}
	}
	return false
}

// ArabicShare returns the fraction of letters in s that belong to the Arabic
// script, ignoring spaces, digits and punctuation shared between scripts.
func ArabicShare(s string) float64 {
	var arabic, total int
	for _, r := range s {
		script := language.LookupScript(r)
		if script == language.Common || script == language.Inherited || script == language.Unknown {
			continue
		}
		total++
		if script == language.Arabic {
			arabic++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(arabic) / float64(total)
}

// CleanLines trims every line and drops empty lines and lines scored below
// minConfidence. Lines without a score are kept.
func CleanLines(lines []Line, minConfidence float64) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		text := strings.TrimSpace(l.Text)
		if text == "" {
			continue
		}
		if l.Confidence > 0 && l.Confidence < minConfidence {
			continue
		}
		out = append(out, text)
	}
	return out
}

// JoinLines joins cleaned lines with newlines in reading order
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// Text returns the cleaned, joined text of a result
func (r Result) Text(minConfidence float64) string {
	return JoinLines(CleanLines(r.Lines, minConfidence))
}
