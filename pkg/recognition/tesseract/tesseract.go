// Package tesseract implements recognition.Engine with the Tesseract OCR
// library through gosseract.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/menta2k/mudrik/pkg/processing"
	"github.com/menta2k/mudrik/pkg/recognition"
)

// languageCodes maps BCP-47 hints to Tesseract traineddata names
var languageCodes = map[string]string{
	"ar": "ara",
	"en": "eng",
	"fa": "fas",
	"ur": "urd",
}

// Engine runs Tesseract on each input. A fresh client is created per call,
// so an Engine may be shared between goroutines.
type Engine struct {
	clientFactory func() *gosseract.Client
	proc          *processing.Processor
	minLineHeight int
}

// New constructs a Tesseract-backed engine
func New() *Engine {
	return &Engine{
		clientFactory: gosseract.NewClient,
		proc:          processing.NewProcessor(),
		minLineHeight: 64,
	}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize implements recognition.Engine. Tesseract calls cannot be
// interrupted, so ctx is only checked before and after the call.
func (e *Engine) Recognize(ctx context.Context, in recognition.Input) (recognition.Result, error) {
	if in.Image == nil {
		return recognition.Result{}, fmt.Errorf("no image to recognize")
	}
	if err := ctx.Err(); err != nil {
		return recognition.Result{}, err
	}

	img := in.Image
	if in.Accuracy == recognition.Accurate {
		img = e.proc.EnhanceForOCR(img, e.minLineHeight)
	}
	data, err := e.proc.Encode(img, "png", 0, 0)
	if err != nil {
		return recognition.Result{}, fmt.Errorf("encode image: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(data); err != nil {
		return recognition.Result{}, fmt.Errorf("set image: %w", err)
	}
	if langs := Languages(in.Languages); len(langs) > 0 {
		if err := c.SetLanguage(langs...); err != nil {
			return recognition.Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetVariable("preserve_interword_spaces", "1"); err != nil {
		return recognition.Result{}, fmt.Errorf("set variable: %w", err)
	}

	lines, err := readLines(c)
	if err != nil {
		return recognition.Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return recognition.Result{}, err
	}

	return recognition.Result{InputID: in.ID, Engine: e.Name(), Lines: lines}, nil
}

// readLines prefers per-line boxes with confidences and falls back to the
// plain text when Tesseract reports no layout.
func readLines(c *gosseract.Client) ([]recognition.Line, error) {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err == nil && len(boxes) > 0 {
		lines := make([]recognition.Line, 0, len(boxes))
		for _, b := range boxes {
			lines = append(lines, recognition.Line{
				Text:       b.Word,
				Confidence: b.Confidence / 100.0,
				Bounds:     b.Box,
			})
		}
		return lines, nil
	}

	text, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	var lines []recognition.Line
	for _, l := range strings.Split(text, "\n") {
		lines = append(lines, recognition.Line{Text: l})
	}
	return lines, nil
}

// Languages converts BCP-47 hints to Tesseract language names, dropping
// duplicates. Unknown codes are passed through unchanged.
func Languages(hints []string) []string {
	seen := make(map[string]bool, len(hints))
	out := make([]string, 0, len(hints))
	for _, h := range hints {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if code, ok := languageCodes[h]; ok {
			h = code
		}
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}
