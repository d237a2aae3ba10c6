package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// State is the lifecycle state of a Session
type State int

const (
	Stopped State = iota
	Starting
	Running
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	default:
		return "stopped"
	}
}

// Session drives a Camera. Starting is asynchronous and waits for
// authorization, stopping never blocks the caller, and at most one capture
// is outstanding at a time.
type Session struct {
	cam    Camera
	logger *slog.Logger

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
	// runCtx is canceled when the session stops
	runCtx context.Context

	inFlight atomic.Bool
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithSessionLogger sets the logger for session events
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// NewSession creates a stopped session for cam
func NewSession(cam Camera, opts ...SessionOption) *Session {
	s := &Session{
		cam:    cam,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start authorizes and starts the camera in the background. The returned
// channel receives the outcome once and is then closed. Starting a session
// that is already starting or running reports success immediately.
func (s *Session) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	s.mu.Lock()
	if s.state != Stopped {
		s.mu.Unlock()
		done <- nil
		close(done)
		return done
	}
	s.gen++
	gen := s.gen
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.runCtx = runCtx
	s.cancel = cancel
	s.state = Starting
	s.mu.Unlock()

	startCtx, stopStart := context.WithCancel(ctx)
	stopOnRunEnd := context.AfterFunc(runCtx, stopStart)

	go func() {
		defer close(done)
		defer stopOnRunEnd()
		defer stopStart()

		err := s.cam.Authorize(startCtx)
		if err != nil && !errors.Is(err, ErrNotAuthorized) {
			err = fmt.Errorf("%w: %w", ErrNotAuthorized, err)
		}
		if err == nil {
			err = s.cam.Start(startCtx)
		}

		s.mu.Lock()
		if s.gen != gen {
			// Stop was called while starting
			s.mu.Unlock()
			if err == nil {
				s.stopCamera()
			}
			done <- context.Canceled
			return
		}
		if err != nil {
			s.state = Stopped
			s.cancel()
			s.mu.Unlock()
			s.logger.Warn("capture_event", "event", "start_failed", "error", err)
			done <- err
			return
		}
		s.state = Running
		s.mu.Unlock()
		s.logger.Info("capture_event", "event", "session_started")
		done <- nil
	}()
	return done
}

// Stop stops the session without waiting for the camera to shut down.
// Stopping a stopped session does nothing.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state == Stopped {
		s.mu.Unlock()
		return
	}
	wasRunning := s.state == Running
	s.gen++
	s.state = Stopped
	s.cancel()
	s.mu.Unlock()

	if wasRunning {
		go s.stopCamera()
	}
}

func (s *Session) stopCamera() {
	if err := s.cam.Stop(); err != nil {
		s.logger.Warn("capture_event", "event", "stop_failed", "error", err)
		return
	}
	s.logger.Info("capture_event", "event", "session_stopped")
}

// Capture requests one still image. It fails with ErrNotRunning unless the
// session is running and with ErrCaptureInFlight while a previous request
// is outstanding. Stopping the session cancels the request.
func (s *Session) Capture(ctx context.Context) (*Request, error) {
	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return nil, ErrNotRunning
	}
	runCtx := s.runCtx
	s.mu.Unlock()

	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrCaptureInFlight
	}

	req := &Request{done: make(chan struct{})}
	captureCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(runCtx, cancel)

	go func() {
		defer cancel()
		defer stop()

		frame, err := s.cam.CaptureStill(captureCtx)
		if err == nil && frame.Image == nil {
			err = ErrNoImage
		}
		if err != nil {
			s.logger.Warn("capture_event", "event", "capture_failed", "error", err)
		}
		s.inFlight.Store(false)
		req.finish(frame, err)
	}()
	return req, nil
}

// Request is an outstanding capture
type Request struct {
	done  chan struct{}
	frame Frame
	err   error
}

func (r *Request) finish(frame Frame, err error) {
	r.frame = frame
	r.err = err
	close(r.done)
}

// Done is closed when the capture completes
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Frame returns the captured frame. It is only valid after Done is closed.
func (r *Request) Frame() Frame {
	<-r.done
	return r.frame
}

// Err returns the capture error, blocking until the capture completes
func (r *Request) Err() error {
	<-r.done
	return r.err
}

// Wait blocks until the capture completes or ctx ends
func (r *Request) Wait(ctx context.Context) (Frame, error) {
	select {
	case <-r.done:
		return r.frame, r.err
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}
