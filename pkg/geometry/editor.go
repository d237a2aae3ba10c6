package geometry

import "math"

// Corner identifies one of the four resize handles of a crop rectangle
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

// Editor holds an interactively edited crop rectangle. The rectangle always
// stays inside the displayed image frame and never shrinks below the minimum
// edge length, capped to the frame size.
//
// Drags follow gesture semantics: BeginDrag records the starting rectangle
// and every DragBy or DragCorner call passes the total translation since
// then.
type Editor struct {
	frame   Rect
	rect    Rect
	minEdge float64
	inset   float64

	start    Rect
	dragging bool
}

// NewEditor starts with the frame inset by inset on every side
func NewEditor(frame Rect, minEdge, inset float64) *Editor {
	e := &Editor{frame: frame, minEdge: minEdge, inset: inset}
	e.reset()
	return e
}

func (e *Editor) reset() {
	r := e.frame.Inset(e.inset, e.inset)
	if r.Empty() {
		r = e.frame
	}
	e.rect = e.enforce(r)
}

// Rect returns the current crop rectangle in view coordinates
func (e *Editor) Rect() Rect {
	return e.rect
}

// Frame returns the displayed image frame the rectangle is confined to
func (e *Editor) Frame() Rect {
	return e.frame
}

// SetRect replaces the crop rectangle, clamped into the frame
func (e *Editor) SetRect(r Rect) {
	e.rect = e.enforce(r)
	e.dragging = false
}

// BeginDrag records the rectangle a drag gesture starts from
func (e *Editor) BeginDrag() {
	e.start = e.rect
	e.dragging = true
}

// EndDrag finishes the current gesture
func (e *Editor) EndDrag() {
	e.dragging = false
}

// DragBy moves the whole rectangle by the translation since BeginDrag
func (e *Editor) DragBy(dx, dy float64) {
	if !e.dragging {
		e.BeginDrag()
	}
	r := e.start
	r.X += dx
	r.Y += dy
	e.rect = ClampRect(r, e.frame)
}

// DragCorner moves one corner by the translation since BeginDrag while the
// opposite corner stays put. Width and height change independently.
func (e *Editor) DragCorner(c Corner, dx, dy float64) {
	if !e.dragging {
		e.BeginDrag()
	}
	minW, minH := e.minSize()
	s := e.start
	left, top, right, bottom := s.MinX(), s.MinY(), s.MaxX(), s.MaxY()

	switch c {
	case TopLeft:
		left = clamp(left+dx, e.frame.MinX(), right-minW)
		top = clamp(top+dy, e.frame.MinY(), bottom-minH)
	case TopRight:
		right = clamp(right+dx, left+minW, e.frame.MaxX())
		top = clamp(top+dy, e.frame.MinY(), bottom-minH)
	case BottomLeft:
		left = clamp(left+dx, e.frame.MinX(), right-minW)
		bottom = clamp(bottom+dy, top+minH, e.frame.MaxY())
	case BottomRight:
		right = clamp(right+dx, left+minW, e.frame.MaxX())
		bottom = clamp(bottom+dy, top+minH, e.frame.MaxY())
	}

	e.rect = ClampRect(Rect{X: left, Y: top, W: right - left, H: bottom - top}, e.frame)
}

// Relayout moves the editor to a new image frame, keeping the rectangle at
// the same position and size relative to the frame. On a smaller frame the
// rectangle still keeps the minimum edge.
func (e *Editor) Relayout(frame Rect) {
	old := e.frame
	e.frame = frame
	if old.Empty() {
		e.reset()
		return
	}
	e.rect = e.enforce(reproject(e.rect, old, frame))
	if e.dragging {
		e.start = e.enforce(reproject(e.start, old, frame))
	}
}

func reproject(r, from, to Rect) Rect {
	sx := to.W / from.W
	sy := to.H / from.H
	return Rect{
		X: to.X + (r.X-from.X)*sx,
		Y: to.Y + (r.Y-from.Y)*sy,
		W: r.W * sx,
		H: r.H * sy,
	}
}

// enforce grows r to the minimum edge and clamps it into the frame
func (e *Editor) enforce(r Rect) Rect {
	minW, minH := e.minSize()
	r.W = math.Max(r.W, minW)
	r.H = math.Max(r.H, minH)
	return ClampRect(r, e.frame)
}

// minSize is the minimum edge capped to the frame size
func (e *Editor) minSize() (float64, float64) {
	return math.Min(e.minEdge, math.Max(e.frame.W, 0)), math.Min(e.minEdge, math.Max(e.frame.H, 0))
}
