package processing

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

var (
	cropColor       = color.NRGBA{255, 204, 0, 255} // crop box
	suggestionColor = color.NRGBA{0, 255, 0, 255}   // suggested text region
	centerColor     = color.NRGBA{0, 170, 255, 255} // image center
)

// CreateDebugOverlay returns a copy of img with the crop rectangle and the
// suggested text region outlined. Empty rectangles are skipped. Both
// rectangles are relative to the image's top-left corner.
func (p *Processor) CreateDebugOverlay(img image.Image, crop, suggestion image.Rectangle) image.Image {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()
	stroke := int(math.Max(2, 0.004*float64(min(w, h)))) // ~0.4% of min side

	if !suggestion.Empty() {
		drawRect(nrgba, suggestion, suggestionColor, stroke)
	}
	if !crop.Empty() {
		drawRect(nrgba, crop, cropColor, stroke)
	}

	ix, iy := w/2, h/2
	drawHLine(nrgba, iy, ix-6, ix+6, centerColor)
	drawVLine(nrgba, ix, iy-6, iy+6, centerColor)

	return nrgba
}

func drawRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA, stroke int) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for s := 0; s < stroke; s++ {
		drawHLine(img, r.Min.Y+s, r.Min.X, r.Max.X, c)
		drawHLine(img, r.Max.Y-1-s, r.Min.X, r.Max.X, c)
		drawVLine(img, r.Min.X+s, r.Min.Y, r.Max.Y, c)
		drawVLine(img, r.Max.X-1-s, r.Min.Y, r.Max.Y, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0 = max(x0, 0)
	x1 = min(x1, img.Bounds().Dx())
	for x := x0; x < x1; x++ {
		img.SetNRGBA(x, y, c)
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0 = max(y0, 0)
	y1 = min(y1, img.Bounds().Dy())
	for y := y0; y < y1; y++ {
		img.SetNRGBA(x, y, c)
	}
}
