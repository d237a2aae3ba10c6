// Package pipeline runs one capture through orientation, cropping and
// recognition and decides whether the recognized text is accepted.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/menta2k/mudrik/pkg/cropper"
	"github.com/menta2k/mudrik/pkg/geometry"
	"github.com/menta2k/mudrik/pkg/processing"
	"github.com/menta2k/mudrik/pkg/recognition"
)

// DefaultTimeout bounds a single recognition call
const DefaultTimeout = 60 * time.Second

var (
	// ErrBusy is returned when an attempt is already running
	ErrBusy = errors.New("pipeline: recognition already in progress")
	// ErrAcquisition marks a missing or unusable image
	ErrAcquisition = errors.New("pipeline: image acquisition failed")
	// ErrRecognition marks engine failures and empty results
	ErrRecognition = errors.New("pipeline: text recognition failed")
	// ErrNotArabic marks recognized text without Arabic characters
	ErrNotArabic = errors.New("pipeline: recognized text is not Arabic")
)

// State is the stage an attempt has reached
type State int

const (
	Idle State = iota
	ImageAcquired
	CropConfirmed
	Recognizing
	TextAccepted
	TextRejected
	RecognitionFailed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ImageAcquired:
		return "image_acquired"
	case CropConfirmed:
		return "crop_confirmed"
	case Recognizing:
		return "recognizing"
	case TextAccepted:
		return "text_accepted"
	case TextRejected:
		return "text_rejected"
	case RecognitionFailed:
		return "recognition_failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether s ends an attempt
func (s State) Terminal() bool {
	return s == TextAccepted || s == TextRejected || s == RecognitionFailed
}

// Request is one captured image and the crop chosen for it
type Request struct {
	Image image.Image
	// Orientation is the EXIF orientation of Image
	Orientation processing.Orientation
	// Crop is the on-screen selection. Nil recognizes the whole image.
	Crop *geometry.Selection
}

// Result is the outcome of an attempt
type Result struct {
	AttemptID string
	State     State
	// Text is the cleaned text, set for accepted and rejected attempts
	Text   string
	Lines  []string
	Engine string
	// FullImage reports that the crop fell back to the whole image
	FullImage bool
	// Region is the cropped area of the upright image
	Region   image.Rectangle
	Err      error
	Duration time.Duration
}

// Accepted reports whether the text passed every check
func (r Result) Accepted() bool {
	return r.State == TextAccepted
}

// Pipeline runs at most one attempt at a time
type Pipeline struct {
	engine        recognition.Engine
	cropper       *cropper.Cropper
	logger        *slog.Logger
	timeout       time.Duration
	languages     []string
	accuracy      recognition.Accuracy
	minConfidence float64
	onState       func(id string, s State)

	mu     sync.Mutex
	active *Attempt
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger for pipeline events
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithTimeout bounds each recognition call. Non-positive values keep the
// default.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLanguages sets the recognition language hints
func WithLanguages(languages []string) Option {
	return func(p *Pipeline) {
		if len(languages) > 0 {
			p.languages = append([]string(nil), languages...)
		}
	}
}

// WithAccuracy sets the recognition accuracy level
func WithAccuracy(a recognition.Accuracy) Option {
	return func(p *Pipeline) { p.accuracy = a }
}

// WithMinConfidence drops scored lines below threshold
func WithMinConfidence(threshold float64) Option {
	return func(p *Pipeline) { p.minConfidence = threshold }
}

// WithCropper replaces the cropper
func WithCropper(c *cropper.Cropper) Option {
	return func(p *Pipeline) { p.cropper = c }
}

// WithStateHook registers fn to be called on every state change. It runs
// on the attempt's goroutine.
func WithStateHook(fn func(id string, s State)) Option {
	return func(p *Pipeline) { p.onState = fn }
}

// New creates a pipeline recognizing with engine
func New(engine recognition.Engine, opts ...Option) *Pipeline {
	p := &Pipeline{
		engine:    engine,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout:   DefaultTimeout,
		languages: append([]string(nil), recognition.DefaultLanguages...),
		accuracy:  recognition.Accurate,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cropper == nil {
		p.cropper = cropper.New(cropper.WithLogger(p.logger))
	}
	return p
}

// Busy reports whether an attempt is running
func (p *Pipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != nil
}

// Start begins an attempt in the background. It fails with ErrBusy while a
// previous attempt has not finished.
func (p *Pipeline) Start(ctx context.Context, req Request) (*Attempt, error) {
	p.mu.Lock()
	if p.active != nil {
		p.mu.Unlock()
		return nil, ErrBusy
	}
	actx, cancel := context.WithCancel(ctx)
	a := &Attempt{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	p.active = a
	p.mu.Unlock()

	go p.run(actx, a, req)
	return a, nil
}

// Run performs an attempt and waits for its result
func (p *Pipeline) Run(ctx context.Context, req Request) Result {
	a, err := p.Start(ctx, req)
	if err != nil {
		return Result{State: Idle, Err: err}
	}
	return a.Result()
}

func (p *Pipeline) run(ctx context.Context, a *Attempt, req Request) {
	defer a.cancel()

	started := time.Now()
	res := p.process(ctx, a, req)
	res.AttemptID = a.id
	res.Duration = time.Since(started)

	p.logger.Info("pipeline_event",
		"event", "attempt_finished",
		"attempt", a.id,
		"state", res.State.String(),
		"full_image", res.FullImage,
		"duration", res.Duration,
		"error", errString(res.Err))

	p.mu.Lock()
	if p.active == a {
		p.active = nil
	}
	p.mu.Unlock()

	p.setState(a, res.State)
	a.finish(res)
}

func (p *Pipeline) process(ctx context.Context, a *Attempt, req Request) Result {
	if req.Image == nil || req.Image.Bounds().Empty() {
		return failed(fmt.Errorf("%w: no image", ErrAcquisition))
	}
	img := processing.Normalize(req.Image, req.Orientation)
	p.setState(a, ImageAcquired)

	if err := ctx.Err(); err != nil {
		return failed(err)
	}
	crop, err := p.cropper.Crop(img, req.Crop)
	if err != nil {
		return failed(fmt.Errorf("%w: %w", ErrAcquisition, err))
	}
	if crop.FullImage && req.Crop != nil {
		p.logger.Warn("pipeline_event", "event", "crop_fallback", "attempt", a.id, "reason", errString(crop.Reason))
	}
	p.setState(a, CropConfirmed)

	base := Result{FullImage: crop.FullImage, Region: crop.Region, Engine: p.engine.Name()}

	if err := ctx.Err(); err != nil {
		return base.fail(err)
	}
	p.setState(a, Recognizing)

	out, err := p.recognize(ctx, recognition.Input{
		ID:        a.id,
		Image:     crop.Image,
		Languages: p.languages,
		Accuracy:  p.accuracy,
	})
	if err != nil {
		return base.fail(err)
	}

	lines := recognition.CleanLines(out.Lines, p.minConfidence)
	text := recognition.JoinLines(lines)
	if text == "" {
		return base.fail(fmt.Errorf("%w: no text found", ErrRecognition))
	}

	base.Lines = lines
	base.Text = text
	if !recognition.ContainsArabic(text) {
		base.State = TextRejected
		base.Err = ErrNotArabic
		return base
	}
	base.State = TextAccepted
	return base
}

// recognize calls the engine on its own goroutine so that cancellation and
// the timeout take effect even when the engine ignores ctx. A result that
// arrives after ctx ended is discarded.
func (p *Pipeline) recognize(ctx context.Context, in recognition.Input) (recognition.Result, error) {
	rctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type outcome struct {
		res recognition.Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := p.engine.Recognize(rctx, in)
		ch <- outcome{res, err}
	}()

	select {
	case <-rctx.Done():
		if err := ctx.Err(); err != nil {
			return recognition.Result{}, err
		}
		return recognition.Result{}, fmt.Errorf("%w: %w", ErrRecognition, rctx.Err())
	case o := <-ch:
		if err := ctx.Err(); err != nil {
			return recognition.Result{}, err
		}
		if o.err != nil {
			return recognition.Result{}, fmt.Errorf("%w: %w", ErrRecognition, o.err)
		}
		return o.res, nil
	}
}

func (p *Pipeline) setState(a *Attempt, s State) {
	a.setState(s)
	p.logger.Debug("pipeline_event", "event", "state", "attempt", a.id, "state", s.String())
	if p.onState != nil {
		p.onState(a.id, s)
	}
}

func failed(err error) Result {
	return Result{State: RecognitionFailed, Err: err}
}

func (r Result) fail(err error) Result {
	r.State = RecognitionFailed
	r.Err = err
	return r
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
