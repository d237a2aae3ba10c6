// Package capture acquires still images for recognition: from a camera
// session, from an image file, or from files dropped into a watched inbox
// directory.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/menta2k/mudrik/pkg/processing"
)

var (
	// ErrNotAuthorized is returned when camera access is denied or unavailable
	ErrNotAuthorized = errors.New("capture: camera not authorized")
	// ErrNotRunning is returned when capturing on a session that is not running
	ErrNotRunning = errors.New("capture: session not running")
	// ErrCaptureInFlight is returned when a capture is requested while another
	// one has not completed
	ErrCaptureInFlight = errors.New("capture: capture already in progress")
	// ErrNoImage is returned when a capture completes without pixel data
	ErrNoImage = errors.New("capture: frame has no image")
)

// Frame is a captured still image. Orientation tells how the pixels must be
// turned to appear upright; see processing.Normalize.
type Frame struct {
	Image       image.Image
	Orientation processing.Orientation
	// Source names where the frame came from, such as a file path
	Source string
}

// Camera is a device that produces still images
type Camera interface {
	// Authorize asks for access to the device. It may block until the user
	// answers.
	Authorize(ctx context.Context) error
	Start(ctx context.Context) error
	Stop() error
	CaptureStill(ctx context.Context) (Frame, error)
}

// FileCamera is a Camera whose every capture reads the same image file. EXIF
// orientation is applied while decoding, so frames are always upright.
type FileCamera struct {
	path string
	proc *processing.Processor

	mu      sync.Mutex
	running bool
}

// NewFileCamera creates a camera reading path
func NewFileCamera(path string) *FileCamera {
	return &FileCamera{path: path, proc: processing.NewProcessor()}
}

// Authorize succeeds when the file can be read
func (c *FileCamera) Authorize(ctx context.Context) error {
	f, err := os.Open(c.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotAuthorized, err)
	}
	return f.Close()
}

func (c *FileCamera) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	return nil
}

func (c *FileCamera) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

// CaptureStill decodes the file
func (c *FileCamera) CaptureStill(ctx context.Context) (Frame, error) {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	if !running {
		return Frame{}, ErrNotRunning
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	img, err := c.proc.LoadImage(c.path)
	if err != nil {
		return Frame{}, fmt.Errorf("load %s: %w", c.path, err)
	}
	return Frame{Image: img, Orientation: processing.OrientationUp, Source: c.path}, nil
}
