package geometry

import (
	"fmt"
	"image"
	"math"
)

// Mode selects how an image is scaled into its container
type Mode int

const (
	// Fit shows the whole image, letterboxed inside the container
	Fit Mode = iota
	// Fill covers the whole container, overflowing on one axis
	Fill
)

func (m Mode) String() string {
	switch m {
	case Fit:
		return "fit"
	case Fill:
		return "fill"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "fit" or "fill" to a Mode
func ParseMode(s string) (Mode, error) {
	switch s {
	case "fit", "":
		return Fit, nil
	case "fill":
		return Fill, nil
	default:
		return Fit, fmt.Errorf("unknown placement mode %q", s)
	}
}

// Placement describes where an image is drawn inside a container
type Placement struct {
	Image     Size
	Container Size
	// Frame is the displayed image rectangle in container coordinates. With
	// Fill its origin is negative on the overflowing axis.
	Frame Rect
	Scale float64
	Mode  Mode
}

// AspectFit places img inside container so that it is fully visible
func AspectFit(img, container Size) (Placement, error) {
	return Place(Fit, img, container)
}

// AspectFill places img so that it covers container completely
func AspectFill(img, container Size) (Placement, error) {
	return Place(Fill, img, container)
}

// Place computes the placement of img inside container for mode
func Place(mode Mode, img, container Size) (Placement, error) {
	if !container.Valid() {
		return Placement{}, ErrNotReady
	}
	if !img.Valid() {
		return Placement{}, ErrInvalidImage
	}

	sx := container.W / img.W
	sy := container.H / img.H
	var scale float64
	switch mode {
	case Fill:
		scale = math.Max(sx, sy)
	default:
		scale = math.Min(sx, sy)
	}
	if scale <= 0 || !isFinite(scale) {
		return Placement{}, ErrInvalidScale
	}

	w := img.W * scale
	h := img.H * scale
	return Placement{
		Image:     img,
		Container: container,
		Frame: Rect{
			X: (container.W - w) / 2,
			Y: (container.H - h) / 2,
			W: w,
			H: h,
		},
		Scale: scale,
		Mode:  mode,
	}, nil
}

// ViewToImage maps a rectangle in container coordinates to image pixel
// coordinates. The result is not clamped.
func (p Placement) ViewToImage(r Rect) Rect {
	return Rect{
		X: (r.X - p.Frame.X) / p.Scale,
		Y: (r.Y - p.Frame.Y) / p.Scale,
		W: r.W / p.Scale,
		H: r.H / p.Scale,
	}
}

// ImageToView maps a rectangle in image pixels to container coordinates
func (p Placement) ImageToView(r Rect) Rect {
	return Rect{
		X: r.X*p.Scale + p.Frame.X,
		Y: r.Y*p.Scale + p.Frame.Y,
		W: r.W * p.Scale,
		H: r.H * p.Scale,
	}
}

// VisibleFrame is the part of the displayed image inside the container. It
// equals Frame for Fit and the container bounds for Fill.
func (p Placement) VisibleFrame() Rect {
	return p.Frame.Intersect(RectFromSize(p.Container))
}

// PixelRect maps a view rectangle to the pixel rectangle to crop. Edges are
// expanded to whole pixels and the result is clipped to the image bounds.
// A rectangle that misses the image entirely yields ErrNoIntersection.
func (p Placement) PixelRect(r Rect) (image.Rectangle, error) {
	if p.Scale <= 0 || !isFinite(p.Scale) {
		return image.Rectangle{}, ErrInvalidScale
	}
	if !isFinite(r.X) || !isFinite(r.Y) || !isFinite(r.W) || !isFinite(r.H) {
		return image.Rectangle{}, ErrNoIntersection
	}

	mapped := p.ViewToImage(r).Integral()
	clipped := mapped.Intersect(RectFromSize(p.Image))
	if clipped.Empty() {
		return image.Rectangle{}, ErrNoIntersection
	}

	x0 := int(clipped.MinX())
	y0 := int(clipped.MinY())
	x1 := int(math.Ceil(clipped.MaxX()))
	y1 := int(math.Ceil(clipped.MaxY()))
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return image.Rect(x0, y0, x1, y1), nil
}
