package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/menta2k/mudrik/pkg/processing"
)

const waitTimeout = 5 * time.Second

type fakeCamera struct {
	authErr  error
	startErr error

	startGate   chan struct{}
	captureGate chan struct{}
	stopGate    chan struct{}
	stopped     chan struct{}
	nilImage    bool
}

func newFakeCamera() *fakeCamera {
	return &fakeCamera{stopped: make(chan struct{}, 4)}
}

func (f *fakeCamera) Authorize(ctx context.Context) error { return f.authErr }

func (f *fakeCamera) Start(ctx context.Context) error {
	if f.startGate != nil {
		<-f.startGate
	}
	return f.startErr
}

func (f *fakeCamera) Stop() error {
	if f.stopGate != nil {
		<-f.stopGate
	}
	f.stopped <- struct{}{}
	return nil
}

func (f *fakeCamera) CaptureStill(ctx context.Context) (Frame, error) {
	if f.captureGate != nil {
		select {
		case <-f.captureGate:
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		}
	}
	if f.nilImage {
		return Frame{}, nil
	}
	return Frame{Image: createTestImage(8, 4), Orientation: processing.OrientationRight}, nil
}

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 20), uint8(y * 20), 128, 255})
		}
	}
	return img
}

func waitErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for session start")
		return nil
	}
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestSessionStartAndCapture(t *testing.T) {
	s := NewSession(newFakeCamera())
	if s.State() != Stopped {
		t.Fatalf("Expected new session to be stopped, got %s", s.State())
	}
	if err := waitErr(t, s.Start(context.Background())); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if s.State() != Running {
		t.Fatalf("Expected running, got %s", s.State())
	}

	req, err := s.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	waitSignal(t, req.Done(), "capture")
	if req.Err() != nil {
		t.Fatalf("Capture returned error: %v", req.Err())
	}
	frame := req.Frame()
	if frame.Image == nil || frame.Image.Bounds().Dx() != 8 {
		t.Errorf("Unexpected frame %+v", frame)
	}
	if frame.Orientation != processing.OrientationRight {
		t.Errorf("Expected orientation to be carried, got %s", frame.Orientation)
	}

	// Starting again is a no-op
	if err := waitErr(t, s.Start(context.Background())); err != nil {
		t.Errorf("Second start should succeed, got %v", err)
	}
}

func TestCaptureNotRunning(t *testing.T) {
	s := NewSession(newFakeCamera())
	if _, err := s.Capture(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Expected ErrNotRunning, got %v", err)
	}
}

func TestCaptureInFlight(t *testing.T) {
	cam := newFakeCamera()
	cam.captureGate = make(chan struct{})
	s := NewSession(cam)
	if err := waitErr(t, s.Start(context.Background())); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	first, err := s.Capture(context.Background())
	if err != nil {
		t.Fatalf("First capture failed: %v", err)
	}
	if _, err := s.Capture(context.Background()); !errors.Is(err, ErrCaptureInFlight) {
		t.Errorf("Expected ErrCaptureInFlight, got %v", err)
	}

	close(cam.captureGate)
	if _, err := first.Wait(context.Background()); err != nil {
		t.Fatalf("First capture returned error: %v", err)
	}

	second, err := s.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture after completion failed: %v", err)
	}
	if _, err := second.Wait(context.Background()); err != nil {
		t.Errorf("Second capture returned error: %v", err)
	}
}

func TestCaptureWithoutImage(t *testing.T) {
	cam := newFakeCamera()
	cam.nilImage = true
	s := NewSession(cam)
	if err := waitErr(t, s.Start(context.Background())); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	req, err := s.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if err := req.Err(); !errors.Is(err, ErrNoImage) {
		t.Errorf("Expected ErrNoImage, got %v", err)
	}
}

func TestStartNotAuthorized(t *testing.T) {
	cam := newFakeCamera()
	cam.authErr = errors.New("denied by user")
	s := NewSession(cam)

	err := waitErr(t, s.Start(context.Background()))
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("Expected ErrNotAuthorized, got %v", err)
	}
	if s.State() != Stopped {
		t.Errorf("Expected stopped after denial, got %s", s.State())
	}
	if _, err := s.Capture(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Expected ErrNotRunning, got %v", err)
	}
}

func TestStopDoesNotBlock(t *testing.T) {
	cam := newFakeCamera()
	cam.stopGate = make(chan struct{})
	s := NewSession(cam)
	if err := waitErr(t, s.Start(context.Background())); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	returned := make(chan struct{})
	go func() {
		s.Stop()
		close(returned)
	}()
	waitSignal(t, returned, "Stop to return")

	if s.State() != Stopped {
		t.Errorf("Expected stopped, got %s", s.State())
	}
	close(cam.stopGate)
	waitSignal(t, cam.stopped, "camera stop")

	// Stopping twice is harmless
	s.Stop()
}

func TestStopCancelsPendingCapture(t *testing.T) {
	cam := newFakeCamera()
	cam.captureGate = make(chan struct{})
	s := NewSession(cam)
	if err := waitErr(t, s.Start(context.Background())); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	req, err := s.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	s.Stop()
	if err := req.Err(); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestStopWhileStarting(t *testing.T) {
	cam := newFakeCamera()
	cam.startGate = make(chan struct{})
	s := NewSession(cam)

	started := s.Start(context.Background())
	s.Stop()
	close(cam.startGate)

	if err := waitErr(t, started); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	waitSignal(t, cam.stopped, "camera stop after late start")
	if s.State() != Stopped {
		t.Errorf("Expected stopped, got %s", s.State())
	}
}

func TestFileCamera(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.png")
	if err := processing.NewProcessor().SaveImage(createTestImage(12, 6), path, "png", 0, false); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}

	s := NewSession(NewFileCamera(path))
	if err := waitErr(t, s.Start(context.Background())); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	req, err := s.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	frame, err := req.Wait(context.Background())
	if err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	if frame.Image.Bounds().Dx() != 12 || frame.Source != path {
		t.Errorf("Unexpected frame %+v", frame)
	}

	missing := NewSession(NewFileCamera(filepath.Join(dir, "missing.png")))
	if err := waitErr(t, missing.Start(context.Background())); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("Expected ErrNotAuthorized for missing file, got %v", err)
	}
}

func TestInboxEmitsNewImages(t *testing.T) {
	dir := t.TempDir()
	proc := processing.NewProcessor()
	if err := proc.SaveImage(createTestImage(5, 5), filepath.Join(dir, "old.png"), "png", 0, false); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	imports, err := NewInbox(dir, WithSettle(20*time.Millisecond), WithExisting()).Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	next := func() Import {
		t.Helper()
		select {
		case imp := <-imports:
			return imp
		case <-time.After(waitTimeout):
			t.Fatal("timed out waiting for import")
			return Import{}
		}
	}

	if imp := next(); filepath.Base(imp.Path) != "old.png" || imp.Err != nil {
		t.Fatalf("Expected existing image first, got %+v", imp)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".hidden.png"), []byte("skip"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := proc.SaveImage(createTestImage(9, 3), filepath.Join(dir, "new.png"), "png", 0, false); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}

	imp := next()
	if filepath.Base(imp.Path) != "new.png" {
		t.Fatalf("Expected new.png, got %s", imp.Path)
	}
	if imp.Err != nil || imp.Frame.Image.Bounds().Dx() != 9 {
		t.Errorf("Unexpected import %+v", imp)
	}

	cancel()
	deadline := time.After(waitTimeout)
	for {
		select {
		case _, ok := <-imports:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("inbox did not close after cancel")
		}
	}
}

func TestInboxMissingDir(t *testing.T) {
	if _, err := NewInbox(filepath.Join(t.TempDir(), "nope")).Watch(context.Background()); err == nil {
		t.Error("Expected error for missing directory")
	}
}
