// Package geometry maps crop rectangles between on-screen view coordinates and
// source image pixels.
//
// A displayed image is placed inside its container either aspect-fit (fully
// visible, letterboxed) or aspect-fill (covering the container, overflowing on
// one axis). A Placement captures the resulting scale and frame and converts
// rectangles in both directions.
package geometry

import (
	"errors"
	"math"
)

var (
	// ErrNotReady is returned while the container has no usable size yet
	ErrNotReady = errors.New("geometry: container size not known")
	// ErrInvalidImage is returned for images without positive dimensions
	ErrInvalidImage = errors.New("geometry: invalid image size")
	// ErrInvalidScale is returned when the computed scale is zero or not finite
	ErrInvalidScale = errors.New("geometry: invalid scale")
	// ErrNoIntersection is returned when a crop lies entirely outside the image
	ErrNoIntersection = errors.New("geometry: crop does not intersect image")
)

// Size is a width and height in points or pixels
type Size struct {
	W, H float64
}

// Valid reports whether both dimensions are positive and finite
func (s Size) Valid() bool {
	return s.W > 0 && s.H > 0 && isFinite(s.W) && isFinite(s.H)
}

// Point is a location in a coordinate space
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner
type Rect struct {
	X, Y, W, H float64
}

// RectFromSize returns a rectangle at the origin with the given size
func RectFromSize(s Size) Rect {
	return Rect{W: s.W, H: s.H}
}

func (r Rect) MinX() float64 { return r.X }
func (r Rect) MinY() float64 { return r.Y }
func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Size returns the rectangle's dimensions
func (r Rect) Size() Size {
	return Size{W: r.W, H: r.H}
}

// Center returns the midpoint of the rectangle
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Empty reports whether the rectangle has no area
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Inset shrinks the rectangle by dx on the left and right and dy on the top
// and bottom. Insets larger than half the size collapse to the center.
func (r Rect) Inset(dx, dy float64) Rect {
	out := Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
	if out.W < 0 {
		out.X = r.X + r.W/2
		out.W = 0
	}
	if out.H < 0 {
		out.Y = r.Y + r.H/2
		out.H = 0
	}
	return out
}

// Intersect returns the overlap of r and o. The result is empty when they
// do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x0 := math.Max(r.MinX(), o.MinX())
	y0 := math.Max(r.MinY(), o.MinY())
	x1 := math.Min(r.MaxX(), o.MaxX())
	y1 := math.Min(r.MaxY(), o.MaxY())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// ContainsRect reports whether o lies entirely inside r
func (r Rect) ContainsRect(o Rect) bool {
	return o.MinX() >= r.MinX() && o.MinY() >= r.MinY() &&
		o.MaxX() <= r.MaxX() && o.MaxY() <= r.MaxY()
}

// Integral expands the rectangle outward to whole-number edges
func (r Rect) Integral() Rect {
	x0 := math.Floor(r.MinX())
	y0 := math.Floor(r.MinY())
	x1 := math.Ceil(r.MaxX())
	y1 := math.Ceil(r.MaxY())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// ClampRect returns r moved and, if necessary, shrunk so that it lies
// entirely inside bounds. The size is capped to the bounds first and the
// origin is then shifted back inside.
func ClampRect(r, bounds Rect) Rect {
	out := r
	if out.W > bounds.W {
		out.W = bounds.W
	}
	if out.H > bounds.H {
		out.H = bounds.H
	}
	if out.W < 0 {
		out.W = 0
	}
	if out.H < 0 {
		out.H = 0
	}
	out.X = clamp(out.X, bounds.MinX(), bounds.MaxX()-out.W)
	out.Y = clamp(out.Y, bounds.MinY(), bounds.MaxY()-out.H)
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
