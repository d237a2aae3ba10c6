package vision

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"
)

// createTextImage draws a white page with a block of vertical strokes in
// block, which the detector treats like a line of text
func createTextImage(width, height int, block image.Rectangle, stroke int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	for y := block.Min.Y; y < block.Max.Y; y++ {
		for x := block.Min.X; x < block.Max.X; x++ {
			if (x-block.Min.X)%(2*stroke) < stroke {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func TestNew(t *testing.T) {
	detector := New()
	if detector == nil {
		t.Fatal("New() returned nil")
	}
	if detector.config.EdgeThreshold != 0.08 {
		t.Errorf("Expected edge threshold 0.08, got %f", detector.config.EdgeThreshold)
	}
}

func TestNewWithConfig(t *testing.T) {
	cfg := DetectionConfig{EdgeThreshold: 0.2, MinDensity: 0.1, PaddingRatio: 0, MaxDim: 100}
	detector := NewWithConfig(cfg)
	if detector.config != cfg {
		t.Errorf("Expected config %+v, got %+v", cfg, detector.config)
	}
}

func TestSuggestFindsTextBlock(t *testing.T) {
	block := image.Rect(50, 40, 150, 60)
	img := createTextImage(200, 100, block, 2)

	got, err := New().Suggest(img)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if !block.In(got) {
		t.Errorf("Expected %v to contain the text block %v", got, block)
	}
	if !got.In(img.Bounds()) {
		t.Errorf("Expected %v inside image bounds", got)
	}
	if got.Dx() >= 150 || got.Dy() >= 50 {
		t.Errorf("Expected a tight region, got %v", got)
	}
}

func TestSuggestBlankImage(t *testing.T) {
	img := createTextImage(120, 80, image.Rectangle{}, 2)
	got, err := New().Suggest(img)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if got != img.Bounds() {
		t.Errorf("Expected whole image for blank page, got %v", got)
	}
}

func TestSuggestDownscalesLargeImages(t *testing.T) {
	block := image.Rect(500, 400, 1500, 600)
	img := createTextImage(2000, 1000, block, 8)

	got, err := New().Suggest(img)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	center := image.Pt(1000, 500)
	if !center.In(got) {
		t.Errorf("Expected %v to cover the block center", got)
	}
	if got == img.Bounds() {
		t.Error("Expected a region smaller than the whole image")
	}
	if !got.In(img.Bounds()) {
		t.Errorf("Expected %v inside image bounds", got)
	}
}

func TestSuggestOffsetBounds(t *testing.T) {
	full := createTextImage(200, 100, image.Rect(50, 40, 150, 60), 2)
	sub := full.SubImage(image.Rect(20, 10, 180, 90))

	got, err := New().Suggest(sub)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if !got.In(sub.Bounds()) {
		t.Errorf("Expected %v inside %v", got, sub.Bounds())
	}
	if !image.Rect(50, 40, 150, 60).In(got) {
		t.Errorf("Expected region in parent coordinates, got %v", got)
	}
}

func TestSuggestEmptyImage(t *testing.T) {
	if _, err := New().Suggest(image.NewRGBA(image.Rectangle{})); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage, got %v", err)
	}
	if _, err := New().Suggest(nil); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage for nil, got %v", err)
	}
}
