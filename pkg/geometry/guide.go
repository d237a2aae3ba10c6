package geometry

import "image"

// Guide describes the fixed capture box drawn over the live preview
type Guide struct {
	// Margin is the horizontal gap between the box and each view edge
	Margin float64
	// Height of the box, capped to the view height
	Height float64
	// OffsetY moves the box down from the vertical center
	OffsetY float64
}

// DefaultGuide is the capture box used by the camera screen
var DefaultGuide = Guide{Margin: 30, Height: 350, OffsetY: 50}

// GuideRect returns the capture box for a preview of size view
func GuideRect(view Size, g Guide) (Rect, error) {
	if !view.Valid() {
		return Rect{}, ErrNotReady
	}
	w := view.W - 2*g.Margin
	if w <= 0 {
		w = view.W
	}
	h := g.Height
	if h <= 0 || h > view.H {
		h = view.H
	}
	r := Rect{
		X: (view.W - w) / 2,
		Y: (view.H-h)/2 + g.OffsetY,
		W: w,
		H: h,
	}
	return ClampRect(r, RectFromSize(view)), nil
}

// Selection is a crop chosen on screen: a rectangle in the coordinates of a
// container showing the image with Mode.
type Selection struct {
	Rect      Rect
	Container Size
	Mode      Mode
}

// PixelRect resolves the selection against an image of the given pixel size
func (s Selection) PixelRect(imageSize image.Point) (image.Rectangle, error) {
	p, err := Place(s.Mode, Size{W: float64(imageSize.X), H: float64(imageSize.Y)}, s.Container)
	if err != nil {
		return image.Rectangle{}, err
	}
	return p.PixelRect(s.Rect)
}
