package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/menta2k/mudrik/internal/utils"
	"github.com/menta2k/mudrik/pkg/processing"
)

// Import is an image picked up by an Inbox. Err is set when the file could
// not be decoded.
type Import struct {
	Path  string
	Frame Frame
	Err   error
}

// Inbox watches a directory and decodes image files as they appear in it
type Inbox struct {
	dir      string
	proc     *processing.Processor
	logger   *slog.Logger
	settle   time.Duration
	existing bool
}

// InboxOption configures an Inbox
type InboxOption func(*Inbox)

// WithInboxLogger sets the logger for inbox events
func WithInboxLogger(logger *slog.Logger) InboxOption {
	return func(in *Inbox) { in.logger = logger }
}

// WithSettle sets how long a file must stay unchanged before it is read
func WithSettle(d time.Duration) InboxOption {
	return func(in *Inbox) { in.settle = d }
}

// WithExisting makes Watch emit the images already in the directory first
func WithExisting() InboxOption {
	return func(in *Inbox) { in.existing = true }
}

// NewInbox creates an inbox for dir
func NewInbox(dir string, opts ...InboxOption) *Inbox {
	in := &Inbox{
		dir:    dir,
		proc:   processing.NewProcessor(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		settle: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Watch starts watching the directory. Imports are delivered on the
// returned channel, which is closed once ctx ends.
func (in *Inbox) Watch(ctx context.Context) (<-chan Import, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(in.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", in.dir, err)
	}

	var initial []string
	if in.existing {
		initial, err = utils.ListImageFiles(in.dir)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("list %s: %w", in.dir, err)
		}
	}

	out := make(chan Import)
	go in.loop(ctx, watcher, initial, out)
	in.logger.Info("capture_event", "event", "inbox_watching", "dir", in.dir)
	return out, nil
}

func (in *Inbox) loop(ctx context.Context, watcher *fsnotify.Watcher, initial []string, out chan<- Import) {
	defer close(out)
	defer watcher.Close()

	// A file is read once no event touched it for the settle period, so
	// writers have time to finish.
	ready := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()
	schedule := func(path string) {
		if t, ok := timers[path]; ok {
			t.Reset(in.settle)
			return
		}
		timers[path] = time.AfterFunc(in.settle, func() {
			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})
	}

	for _, path := range initial {
		if !in.emit(ctx, path, out) {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if utils.IsHiddenFile(event.Name) || !utils.IsImageFile(event.Name) {
				continue
			}
			schedule(event.Name)
		case path := <-ready:
			delete(timers, path)
			if !utils.FileExists(path) {
				continue
			}
			if !in.emit(ctx, path, out) {
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			in.logger.Warn("capture_event", "event", "inbox_error", "error", err)
		}
	}
}

// emit decodes path and delivers it, reporting false when ctx ended first
func (in *Inbox) emit(ctx context.Context, path string, out chan<- Import) bool {
	imp := Import{Path: path}
	img, err := in.proc.LoadImage(path)
	if err != nil {
		imp.Err = fmt.Errorf("load %s: %w", path, err)
		in.logger.Warn("capture_event", "event", "inbox_decode_failed", "path", path, "error", err)
	} else {
		imp.Frame = Frame{Image: img, Orientation: processing.OrientationUp, Source: path}
		in.logger.Info("capture_event", "event", "inbox_image", "path", path)
	}

	select {
	case out <- imp:
		return true
	case <-ctx.Done():
		return false
	}
}
