package recognition

import (
	"context"
	"fmt"
	"strings"

	"github.com/menta2k/mudrik/pkg/client"
	"github.com/menta2k/mudrik/pkg/processing"
)

// TranscriptionPrompt asks a vision model to copy the text of an image
const TranscriptionPrompt = `You are a text recognition engine.

Read every line of text in the image, top to bottom. %s

Return JSON only:
{
  "lines": [
    {"text": "first line exactly as written", "confidence": 0.0}
  ],
  "language": "ar"
}

HARD RULES
- Copy the text exactly. Do not translate, correct, or summarize.
- Keep right-to-left lines in their natural reading order.
- confidence is your certainty for the line in [0,1].
- If there is no readable text, return {"lines": [], "language": ""}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// accurateHint is appended for Accurate requests
const accurateHint = "Preserve diacritics (tashkeel), punctuation and digits."

var languageNames = map[string]string{
	"ar": "Arabic",
	"en": "English",
	"fa": "Persian",
	"ur": "Urdu",
}

// VisionEngine recognizes text by prompting a vision language model
type VisionEngine struct {
	client  client.VisionClient
	model   string
	proc    *processing.Processor
	format  string
	maxDim  int
	quality int
}

// VisionOption configures a VisionEngine
type VisionOption func(*VisionEngine)

// WithImageEncoding sets how crops are encoded before they are sent
func WithImageEncoding(format string, maxDim, quality int) VisionOption {
	return func(e *VisionEngine) {
		e.format = format
		e.maxDim = maxDim
		e.quality = quality
	}
}

// NewVisionEngine creates an engine that sends crops to model through c
func NewVisionEngine(c client.VisionClient, model string, opts ...VisionOption) *VisionEngine {
	e := &VisionEngine{
		client:  c,
		model:   model,
		proc:    processing.NewProcessor(),
		format:  "png",
		maxDim:  1600,
		quality: 90,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *VisionEngine) Name() string { return "vision:" + e.model }

// Recognize implements Engine
func (e *VisionEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	if in.Image == nil {
		return Result{}, fmt.Errorf("no image to recognize")
	}
	imgB64, err := e.proc.PrepareImageForModel(in.Image, e.format, e.maxDim, e.quality)
	if err != nil {
		return Result{}, fmt.Errorf("encode image: %w", err)
	}

	tr, err := e.client.Transcribe(ctx, e.model, BuildPrompt(in.Languages, in.Accuracy), imgB64)
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: %w", err)
	}

	res := Result{InputID: in.ID, Engine: e.Name(), Lines: make([]Line, 0, len(tr.Lines))}
	for _, l := range tr.Lines {
		res.Lines = append(res.Lines, Line{Text: l.Text, Confidence: clampUnit(l.Confidence)})
	}
	return res, nil
}

// BuildPrompt fills TranscriptionPrompt for the given language hints
func BuildPrompt(languages []string, accuracy Accuracy) string {
	var names []string
	for _, code := range languages {
		if name, ok := languageNames[strings.ToLower(code)]; ok {
			names = append(names, name)
		} else if code != "" {
			names = append(names, code)
		}
	}
	hint := ""
	if len(names) > 0 {
		hint = "The text is written in " + strings.Join(names, " and ") + "."
	}
	if accuracy == Accurate {
		hint = strings.TrimSpace(hint + " " + accurateHint)
	}
	return fmt.Sprintf(TranscriptionPrompt, hint)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
