package vision

import (
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ErrEmptyImage is returned for images without pixels
var ErrEmptyImage = errors.New("vision: empty image")

// TextRegionDetector suggests the part of an image that carries text, used
// to seed the crop editor before the user adjusts it
type TextRegionDetector struct {
	config DetectionConfig
}

// DetectionConfig holds configuration for text region detection
type DetectionConfig struct {
	// EdgeThreshold is the minimum luminance difference (0..1) to a
	// neighbor for a pixel to count as an edge
	EdgeThreshold float64
	// MinDensity is the share of edge pixels a row or column needs to be
	// part of the region
	MinDensity float64
	// PaddingRatio grows the region by this share of its size on each side
	PaddingRatio float64
	// MaxDim bounds the resolution the analysis runs at
	MaxDim int
}

// New creates a new TextRegionDetector with default configuration
func New() *TextRegionDetector {
	return &TextRegionDetector{
		config: DetectionConfig{
			EdgeThreshold: 0.08,
			MinDensity:    0.02,
			PaddingRatio:  0.05,
			MaxDim:        512,
		},
	}
}

// NewWithConfig creates a new TextRegionDetector with custom configuration
func NewWithConfig(config DetectionConfig) *TextRegionDetector {
	return &TextRegionDetector{config: config}
}

// Suggest returns the bounding box of the rows and columns dense in edges,
// in img's coordinates. Images without such structure yield their bounds.
func (d *TextRegionDetector) Suggest(img image.Image) (image.Rectangle, error) {
	if img == nil || img.Bounds().Empty() {
		return image.Rectangle{}, ErrEmptyImage
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	work := img
	if d.config.MaxDim > 0 && (width > d.config.MaxDim || height > d.config.MaxDim) {
		work = imaging.Fit(img, d.config.MaxDim, d.config.MaxDim, imaging.Box)
	}
	wb := work.Bounds()
	sx := float64(width) / float64(wb.Dx())
	sy := float64(height) / float64(wb.Dy())

	edges := d.edgeMap(work)
	rows, cols := densityProfiles(edges)

	y0, y1, okY := span(rows, d.config.MinDensity)
	x0, x1, okX := span(cols, d.config.MinDensity)
	if !okY || !okX {
		return bounds, nil
	}

	// Back to full resolution, far edges exclusive
	fx0 := float64(x0) * sx
	fy0 := float64(y0) * sy
	fx1 := float64(x1+1) * sx
	fy1 := float64(y1+1) * sy

	padX := (fx1 - fx0) * d.config.PaddingRatio
	padY := (fy1 - fy0) * d.config.PaddingRatio

	region := image.Rect(
		int(math.Floor(fx0-padX)),
		int(math.Floor(fy0-padY)),
		int(math.Ceil(fx1+padX)),
		int(math.Ceil(fy1+padY)),
	).Add(bounds.Min).Intersect(bounds)
	if region.Empty() {
		return bounds, nil
	}
	return region, nil
}

// edgeMap marks pixels whose luminance differs from any of the 8 neighbors
// by more than the edge threshold
func (d *TextRegionDetector) edgeMap(img image.Image) [][]bool {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	lum := make([][]float64, height)
	for y := 0; y < height; y++ {
		lum[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			lum[y][x] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535.0
		}
	}

	neighbors := [][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}

	edges := make([][]bool, height)
	for y := 0; y < height; y++ {
		edges[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			for _, off := range neighbors {
				nx, ny := x+off[0], y+off[1]
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				if math.Abs(lum[y][x]-lum[ny][nx]) > d.config.EdgeThreshold {
					edges[y][x] = true
					break
				}
			}
		}
	}
	return edges
}

// densityProfiles returns the share of edge pixels per row and per column
func densityProfiles(edges [][]bool) (rows, cols []float64) {
	height := len(edges)
	if height == 0 {
		return nil, nil
	}
	width := len(edges[0])
	rows = make([]float64, height)
	cols = make([]float64, width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if edges[y][x] {
				rows[y]++
				cols[x]++
			}
		}
	}
	for y := range rows {
		rows[y] /= float64(width)
	}
	for x := range cols {
		cols[x] /= float64(height)
	}
	return rows, cols
}

// span returns the first and last index whose value reaches threshold
func span(profile []float64, threshold float64) (int, int, bool) {
	first, last := -1, -1
	for i, v := range profile {
		if v >= threshold && v > 0 {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	return first, last, first >= 0
}
