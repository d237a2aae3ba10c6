// Package recognition defines the text recognition contract used by the
// capture pipeline and the helpers that turn raw engine output into accepted
// text. Engines can be backed by a local library (see the tesseract
// subpackage) or by a vision model behind a VisionClient.
package recognition

import (
	"context"
	"image"
)

// Accuracy selects the trade-off between speed and recognition quality
type Accuracy int

const (
	Fast Accuracy = iota
	Accurate
)

func (a Accuracy) String() string {
	if a == Accurate {
		return "accurate"
	}
	return "fast"
}

// DefaultLanguages are the hints used for capture: Arabic first, with Latin
// text allowed alongside it
var DefaultLanguages = []string{"ar", "en"}

// Input is a single image region submitted for recognition
type Input struct {
	// ID is echoed back in the Result
	ID string
	// Image is the already cropped, upright region to read
	Image image.Image
	// Languages are BCP-47 hints ("ar", "en") in priority order
	Languages []string
	Accuracy  Accuracy
}

// Line is one recognized line of text in reading order
type Line struct {
	Text string
	// Confidence is in [0,1]. Zero means the engine gave no score.
	Confidence float64
	// Bounds is the line's box in the input image, empty when unknown
	Bounds image.Rectangle
}

// Result is the output of one recognition call
type Result struct {
	InputID string
	Engine  string
	Lines   []Line
}

// Engine recognizes text in an image
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}

// EngineFunc adapts a function to the Engine interface
type EngineFunc func(ctx context.Context, in Input) (Result, error)

func (f EngineFunc) Name() string { return "func" }

func (f EngineFunc) Recognize(ctx context.Context, in Input) (Result, error) {
	return f(ctx, in)
}
