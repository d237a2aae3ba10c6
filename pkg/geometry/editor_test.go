package geometry

import (
	"math/rand"
	"testing"
)

func newTestEditor() *Editor {
	return NewEditor(Rect{0, 0, 300, 400}, 60, 24)
}

func TestNewEditorInset(t *testing.T) {
	e := newTestEditor()
	if want := (Rect{24, 24, 252, 352}); !rectsEqual(e.Rect(), want) {
		t.Errorf("Expected %+v, got %+v", want, e.Rect())
	}
}

func TestEditorDragBy(t *testing.T) {
	e := newTestEditor()

	e.BeginDrag()
	e.DragBy(-100, 0)
	if want := (Rect{0, 24, 252, 352}); !rectsEqual(e.Rect(), want) {
		t.Errorf("Expected clamp at left edge %+v, got %+v", want, e.Rect())
	}

	// translation is cumulative from the start of the gesture
	e.DragBy(1000, 1000)
	if want := (Rect{48, 48, 252, 352}); !rectsEqual(e.Rect(), want) {
		t.Errorf("Expected clamp at bottom right %+v, got %+v", want, e.Rect())
	}
	e.EndDrag()

	e.DragBy(-10, -10)
	if want := (Rect{38, 38, 252, 352}); !rectsEqual(e.Rect(), want) {
		t.Errorf("Expected implicit gesture start, got %+v", e.Rect())
	}
}

func TestEditorDragCorner(t *testing.T) {
	tests := []struct {
		name   string
		corner Corner
		dx, dy float64
		want   Rect
	}{
		{"top left hits minimum width", TopLeft, 300, 0, Rect{216, 24, 60, 352}},
		{"bottom right collapses to minimum", BottomRight, -1000, -1000, Rect{24, 24, 60, 60}},
		{"top right grows to frame", TopRight, 100, -100, Rect{24, 0, 276, 376}},
		{"bottom left grows to frame", BottomLeft, -100, 100, Rect{0, 24, 276, 376}},
		{"free form resize", BottomRight, -50, 10, Rect{24, 24, 202, 362}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEditor()
			e.BeginDrag()
			e.DragCorner(tt.corner, tt.dx, tt.dy)
			e.EndDrag()
			if !rectsEqual(e.Rect(), tt.want) {
				t.Errorf("Expected %+v, got %+v", tt.want, e.Rect())
			}
		})
	}
}

func TestEditorOppositeCornerAnchored(t *testing.T) {
	e := newTestEditor()
	before := e.Rect()

	e.BeginDrag()
	e.DragCorner(TopLeft, 40, 70)
	r := e.Rect()
	if r.MaxX() != before.MaxX() || r.MaxY() != before.MaxY() {
		t.Errorf("Bottom right corner moved: %+v -> %+v", before, r)
	}
}

func TestEditorInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	e := newTestEditor()
	frame := e.Frame()

	for i := 0; i < 1000; i++ {
		e.BeginDrag()
		dx := rng.Float64()*600 - 300
		dy := rng.Float64()*800 - 400
		if rng.Intn(3) == 0 {
			e.DragBy(dx, dy)
		} else {
			e.DragCorner(Corner(rng.Intn(4)), dx, dy)
		}
		e.EndDrag()

		r := e.Rect()
		if !insideWithin(r, frame) {
			t.Fatalf("step %d: %+v escaped frame %+v", i, r, frame)
		}
		if r.W < 60-tolerance || r.H < 60-tolerance {
			t.Fatalf("step %d: %+v below minimum edge", i, r)
		}
	}
}

func TestEditorRelayout(t *testing.T) {
	e := newTestEditor()
	e.Relayout(Rect{10, 20, 150, 200})
	if want := (Rect{22, 32, 126, 176}); !rectsEqual(e.Rect(), want) {
		t.Errorf("Expected proportional rect %+v, got %+v", want, e.Rect())
	}

	e.Relayout(Rect{0, 0, 300, 400})
	if want := (Rect{24, 24, 252, 352}); !rectsEqual(e.Rect(), want) {
		t.Errorf("Expected original rect restored, got %+v", e.Rect())
	}
}

func TestEditorRelayoutKeepsMinimumEdge(t *testing.T) {
	e := newTestEditor()
	e.SetRect(Rect{100, 100, 60, 60})

	e.Relayout(Rect{0, 0, 150, 200})
	if want := (Rect{50, 50, 60, 60}); !rectsEqual(e.Rect(), want) {
		t.Errorf("Expected minimum edge kept after shrink, got %+v", e.Rect())
	}

	// A frame smaller than the minimum edge caps it
	e.Relayout(Rect{0, 0, 40, 40})
	if want := (Rect{0, 0, 40, 40}); !rectsEqual(e.Rect(), want) {
		t.Errorf("Expected rect capped to frame, got %+v", e.Rect())
	}
}

func TestEditorRelayoutFromEmptyFrame(t *testing.T) {
	e := NewEditor(Rect{}, 60, 24)
	e.Relayout(Rect{0, 0, 300, 400})
	if want := (Rect{24, 24, 252, 352}); !rectsEqual(e.Rect(), want) {
		t.Errorf("Expected fresh inset rect %+v, got %+v", want, e.Rect())
	}
}

func TestEditorSetRect(t *testing.T) {
	e := newTestEditor()
	e.SetRect(Rect{100, 100, 10, 10})
	if want := (Rect{100, 100, 60, 60}); !rectsEqual(e.Rect(), want) {
		t.Errorf("Expected minimum size applied, got %+v", e.Rect())
	}
	e.SetRect(Rect{280, 390, 100, 100})
	if want := (Rect{200, 300, 100, 100}); !rectsEqual(e.Rect(), want) {
		t.Errorf("Expected rect clamped into frame, got %+v", e.Rect())
	}
}
