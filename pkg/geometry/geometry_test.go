package geometry

import (
	"errors"
	"image"
	"math"
	"math/rand"
	"testing"
)

const tolerance = 1e-9

func rectsEqual(a, b Rect) bool {
	return math.Abs(a.X-b.X) < tolerance && math.Abs(a.Y-b.Y) < tolerance &&
		math.Abs(a.W-b.W) < tolerance && math.Abs(a.H-b.H) < tolerance
}

// insideWithin is ContainsRect with floating point slack
func insideWithin(r, bounds Rect) bool {
	return r.MinX() >= bounds.MinX()-tolerance && r.MinY() >= bounds.MinY()-tolerance &&
		r.MaxX() <= bounds.MaxX()+tolerance && r.MaxY() <= bounds.MaxY()+tolerance
}

func TestPlace(t *testing.T) {
	tests := []struct {
		name      string
		mode      Mode
		image     Size
		container Size
		scale     float64
		frame     Rect
	}{
		{"fit wide image", Fit, Size{400, 200}, Size{200, 200}, 0.5, Rect{0, 50, 200, 100}},
		{"fill wide image", Fill, Size{400, 200}, Size{200, 200}, 1, Rect{-100, 0, 400, 200}},
		{"fit tall image", Fit, Size{100, 400}, Size{200, 200}, 0.5, Rect{75, 0, 50, 200}},
		{"fill tall image", Fill, Size{100, 400}, Size{200, 200}, 2, Rect{0, -300, 200, 800}},
		{"fit upscale", Fit, Size{50, 50}, Size{200, 100}, 2, Rect{50, 0, 100, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Place(tt.mode, tt.image, tt.container)
			if err != nil {
				t.Fatalf("Place failed: %v", err)
			}
			if math.Abs(p.Scale-tt.scale) > tolerance {
				t.Errorf("Expected scale %v, got %v", tt.scale, p.Scale)
			}
			if !rectsEqual(p.Frame, tt.frame) {
				t.Errorf("Expected frame %+v, got %+v", tt.frame, p.Frame)
			}
		})
	}
}

func TestPlaceErrors(t *testing.T) {
	tests := []struct {
		name      string
		image     Size
		container Size
		want      error
	}{
		{"zero container", Size{100, 100}, Size{0, 200}, ErrNotReady},
		{"negative container", Size{100, 100}, Size{200, -1}, ErrNotReady},
		{"NaN container", Size{100, 100}, Size{math.NaN(), 200}, ErrNotReady},
		{"zero image", Size{0, 100}, Size{200, 200}, ErrInvalidImage},
		{"infinite image", Size{math.Inf(1), 100}, Size{200, 200}, ErrInvalidImage},
		{"scale underflow", Size{math.MaxFloat64, math.MaxFloat64}, Size{math.SmallestNonzeroFloat64, math.SmallestNonzeroFloat64}, ErrInvalidScale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, mode := range []Mode{Fit, Fill} {
				if _, err := Place(mode, tt.image, tt.container); !errors.Is(err, tt.want) {
					t.Errorf("%v: expected %v, got %v", mode, tt.want, err)
				}
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		image     Size
		container Size
	}{
		{Size{400, 200}, Size{200, 200}},
		{Size{3024, 4032}, Size{390, 844}},
		{Size{4032, 3024}, Size{390, 360}},
		{Size{1, 1}, Size{375, 667}},
	}

	for _, c := range cases {
		for _, mode := range []Mode{Fit, Fill} {
			p, err := Place(mode, c.image, c.container)
			if err != nil {
				t.Fatalf("Place failed: %v", err)
			}
			visible := p.VisibleFrame()
			r := Rect{
				X: visible.X + visible.W*0.1,
				Y: visible.Y + visible.H*0.2,
				W: visible.W * 0.5,
				H: visible.H * 0.3,
			}
			back := p.ImageToView(p.ViewToImage(r))
			if !rectsEqual(r, back) {
				t.Errorf("%v %v in %v: round trip %+v -> %+v", mode, c.image, c.container, r, back)
			}
		}
	}
}

func TestViewToImage(t *testing.T) {
	p, _ := AspectFit(Size{400, 200}, Size{200, 200})
	got := p.ViewToImage(Rect{10, 60, 50, 30})
	want := Rect{20, 20, 100, 60}
	if !rectsEqual(got, want) {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestPixelRect(t *testing.T) {
	p, err := AspectFit(Size{400, 200}, Size{200, 200})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		view Rect
		want image.Rectangle
		err  error
	}{
		{"inside", Rect{10, 60, 50, 30}, image.Rect(20, 20, 120, 80), nil},
		{"fractional edges expand", Rect{10.3, 60, 50, 30}, image.Rect(20, 20, 121, 80), nil},
		{"partially outside is clipped", Rect{-20, 40, 60, 40}, image.Rect(0, 0, 80, 60), nil},
		{"sub-pixel becomes one pixel", Rect{10, 60, 0.1, 0.1}, image.Rect(20, 20, 21, 21), nil},
		{"whole frame", Rect{0, 50, 200, 100}, image.Rect(0, 0, 400, 200), nil},
		{"outside", Rect{0, 0, 200, 40}, image.Rectangle{}, ErrNoIntersection},
		{"zero area", Rect{10, 60, 0, 30}, image.Rectangle{}, ErrNoIntersection},
		{"NaN", Rect{math.NaN(), 60, 10, 10}, image.Rectangle{}, ErrNoIntersection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.PixelRect(tt.view)
			if !errors.Is(err, tt.err) {
				t.Fatalf("Expected error %v, got %v", tt.err, err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPixelRectInvalidPlacement(t *testing.T) {
	var p Placement
	if _, err := p.PixelRect(Rect{0, 0, 10, 10}); !errors.Is(err, ErrInvalidScale) {
		t.Errorf("Expected ErrInvalidScale, got %v", err)
	}
}

func TestClampRect(t *testing.T) {
	bounds := Rect{0, 0, 100, 100}
	tests := []struct {
		name string
		in   Rect
		want Rect
	}{
		{"inside unchanged", Rect{10, 10, 20, 20}, Rect{10, 10, 20, 20}},
		{"top left overflow", Rect{-10, -10, 50, 50}, Rect{0, 0, 50, 50}},
		{"bottom right overflow", Rect{80, 80, 50, 50}, Rect{50, 50, 50, 50}},
		{"too wide", Rect{-5, 0, 200, 50}, Rect{0, 0, 100, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampRect(tt.in, bounds); !rectsEqual(got, tt.want) {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}

	offset := Rect{50, 50, 100, 100}
	if got := ClampRect(Rect{0, 0, 10, 10}, offset); !rectsEqual(got, Rect{50, 50, 10, 10}) {
		t.Errorf("Expected rect moved into offset bounds, got %+v", got)
	}
}

func TestClampedCropStaysInImage(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	imageSize := Size{3024, 4032}

	for _, mode := range []Mode{Fit, Fill} {
		p, err := Place(mode, imageSize, Size{390, 600})
		if err != nil {
			t.Fatal(err)
		}
		visible := p.VisibleFrame()
		for i := 0; i < 500; i++ {
			r := Rect{
				X: rng.Float64()*800 - 200,
				Y: rng.Float64()*1000 - 200,
				W: rng.Float64()*500 + 1,
				H: rng.Float64()*700 + 1,
			}
			clamped := ClampRect(r, visible)
			if !insideWithin(clamped, visible) {
				t.Fatalf("%v: clamped %+v outside %+v", mode, clamped, visible)
			}
			px, err := p.PixelRect(clamped)
			if err != nil {
				t.Fatalf("%v: PixelRect(%+v) failed: %v", mode, clamped, err)
			}
			if px.Min.X < 0 || px.Min.Y < 0 || px.Max.X > 3024 || px.Max.Y > 4032 {
				t.Fatalf("%v: pixel rect %v outside image", mode, px)
			}
			if px.Dx() <= 0 || px.Dy() <= 0 {
				t.Fatalf("%v: pixel rect %v has no area", mode, px)
			}
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("fill"); err != nil || m != Fill {
		t.Errorf("Expected Fill, got %v (%v)", m, err)
	}
	if m, err := ParseMode(""); err != nil || m != Fit {
		t.Errorf("Expected Fit default, got %v (%v)", m, err)
	}
	if _, err := ParseMode("stretch"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestGuideRect(t *testing.T) {
	r, err := GuideRect(Size{390, 844}, DefaultGuide)
	if err != nil {
		t.Fatal(err)
	}
	if want := (Rect{30, 297, 330, 350}); !rectsEqual(r, want) {
		t.Errorf("Expected %+v, got %+v", want, r)
	}

	r, _ = GuideRect(Size{390, 300}, DefaultGuide)
	if want := (Rect{30, 0, 330, 300}); !rectsEqual(r, want) {
		t.Errorf("Expected guide clamped into short view, got %+v", r)
	}

	if _, err := GuideRect(Size{0, 844}, DefaultGuide); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected ErrNotReady, got %v", err)
	}
}

func TestSelectionPixelRect(t *testing.T) {
	sel := Selection{Rect: Rect{10, 60, 50, 30}, Container: Size{200, 200}, Mode: Fit}
	got, err := sel.PixelRect(image.Pt(400, 200))
	if err != nil {
		t.Fatal(err)
	}
	if want := image.Rect(20, 20, 120, 80); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}

	sel.Container = Size{}
	if _, err := sel.PixelRect(image.Pt(400, 200)); !errors.Is(err, ErrNotReady) {
		t.Errorf("Expected ErrNotReady, got %v", err)
	}
}
