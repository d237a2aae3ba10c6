// Package cropper resolves a crop selection against a captured image and
// cuts it out, falling back to the whole image when the selection cannot be
// used.
package cropper

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/menta2k/mudrik/pkg/geometry"
	"github.com/menta2k/mudrik/pkg/processing"
	"github.com/menta2k/mudrik/pkg/vision"
)

// ErrNoImage is returned when there is nothing to crop
var ErrNoImage = errors.New("cropper: no image")

// ErrNoSelection is the fallback reason when no crop was chosen
var ErrNoSelection = errors.New("cropper: no selection")

// Cropper cuts selections out of images
type Cropper struct {
	detector *vision.TextRegionDetector
	proc     *processing.Processor
	logger   *slog.Logger
}

// Option configures a Cropper
type Option func(*Cropper)

// WithLogger sets the logger used for fallback events
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cropper) { c.logger = logger }
}

// WithDetector sets the detector used by Suggest
func WithDetector(detector *vision.TextRegionDetector) Option {
	return func(c *Cropper) { c.detector = detector }
}

// New creates a new Cropper
func New(opts ...Option) *Cropper {
	c := &Cropper{
		detector: vision.New(),
		proc:     processing.NewProcessor(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result contains the result of a cropping operation
type Result struct {
	Image image.Image
	// Region is the cropped area relative to the source image's top-left
	// corner
	Region image.Rectangle
	// FullImage reports that the whole image was used
	FullImage bool
	// Reason explains a fallback to the full image
	Reason error
}

// Crop cuts sel out of img. A nil selection, an unready or degenerate
// geometry, or a selection outside the image yields the whole image with
// FullImage set. Only a missing image is an error.
func (c *Cropper) Crop(img image.Image, sel *geometry.Selection) (Result, error) {
	if img == nil || img.Bounds().Empty() {
		return Result{}, ErrNoImage
	}
	if sel == nil {
		return c.full(img, ErrNoSelection), nil
	}

	size := img.Bounds().Size()
	rect, err := sel.PixelRect(size)
	if err != nil {
		return c.full(img, err), nil
	}
	cropped, err := c.proc.Crop(img, rect)
	if err != nil {
		return c.full(img, fmt.Errorf("%w: %w", geometry.ErrNoIntersection, err)), nil
	}

	c.logger.Debug("crop_event", "event", "cropped", "region", rect.String(), "image", fmt.Sprintf("%dx%d", size.X, size.Y))
	return Result{Image: cropped, Region: rect}, nil
}

// Suggest proposes a crop of the text in img using the detector
func (c *Cropper) Suggest(img image.Image) (Result, error) {
	if img == nil || img.Bounds().Empty() {
		return Result{}, ErrNoImage
	}
	region, err := c.detector.Suggest(img)
	if err != nil {
		return Result{}, fmt.Errorf("failed to suggest crop region: %w", err)
	}
	bounds := img.Bounds()
	if region == bounds {
		return Result{Image: img, Region: image.Rectangle{Max: bounds.Size()}, FullImage: true}, nil
	}
	rel := region.Sub(bounds.Min)
	cropped, err := c.proc.Crop(img, rel)
	if err != nil {
		return Result{}, err
	}
	return Result{Image: cropped, Region: rel}, nil
}

// SuggestSelection converts the suggested region into view coordinates of
// a container showing img with mode, ready to seed the crop editor
func (c *Cropper) SuggestSelection(img image.Image, container geometry.Size, mode geometry.Mode) (geometry.Selection, error) {
	res, err := c.Suggest(img)
	if err != nil {
		return geometry.Selection{}, err
	}
	size := img.Bounds().Size()
	p, err := geometry.Place(mode, geometry.Size{W: float64(size.X), H: float64(size.Y)}, container)
	if err != nil {
		return geometry.Selection{}, err
	}
	r := res.Region
	view := p.ImageToView(geometry.Rect{
		X: float64(r.Min.X),
		Y: float64(r.Min.Y),
		W: float64(r.Dx()),
		H: float64(r.Dy()),
	})
	view = geometry.ClampRect(view, p.VisibleFrame())
	return geometry.Selection{Rect: view, Container: container, Mode: mode}, nil
}

func (c *Cropper) full(img image.Image, reason error) Result {
	c.logger.Info("crop_event", "event", "full_image_fallback", "reason", reason.Error())
	return Result{
		Image:     img,
		Region:    image.Rectangle{Max: img.Bounds().Size()},
		FullImage: true,
		Reason:    reason,
	}
}
