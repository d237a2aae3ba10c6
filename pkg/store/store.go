// Package store owns the in-memory clip library.
//
// ClipStore is the aggregate root for clips and categories: it is the single
// writer, it keeps every clip pointing at an existing category, and it writes
// through to the persistence gateway on every mutation. Readers either query
// it directly or subscribe to the immutable snapshots it publishes after each
// committed change.
package store

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/menta2k/mudrik/pkg/types"
)

// Gateway is the persistence contract the store writes through to.
// *storage.Gateway satisfies it.
type Gateway interface {
	LoadClips(ctx context.Context) ([]types.Clip, error)
	LoadCategories(ctx context.Context) ([]string, error)
	SaveClips(ctx context.Context, clips []types.Clip) error
	SaveCategories(ctx context.Context, categories []string) error
	SaveAll(ctx context.Context, clips []types.Clip, categories []string) error
}

// Snapshot is an immutable copy of the library at one version
type Snapshot struct {
	Version    uint64
	Clips      []types.Clip
	Categories []string
}

// Option configures a ClipStore
type Option func(*ClipStore)

// WithLogger sets the structured logger used for store events
func WithLogger(logger *slog.Logger) Option {
	return func(s *ClipStore) { s.logger = logger }
}

// WithIDGenerator replaces the UUID generator used for new clips
func WithIDGenerator(gen func() string) Option {
	return func(s *ClipStore) { s.newID = gen }
}

// ClipStore is the single source of truth for clips and categories.
// All methods are safe for concurrent use; mutations are applied one at a
// time in call order.
type ClipStore struct {
	mu         sync.Mutex
	gateway    Gateway
	clips      []types.Clip
	categories []string
	version    uint64

	logger *slog.Logger
	newID  func() string

	subs    map[int]chan Snapshot
	nextSub int
}

// New creates a store backed by gateway holding only the default category.
// Call Load to read the persisted library.
func New(gateway Gateway, opts ...Option) *ClipStore {
	s := &ClipStore{
		gateway:    gateway,
		categories: []string{types.DefaultCategory},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:      uuid.NewString,
		subs:       make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory library with the persisted one. Unreadable
// storage is treated as an empty library. The default category is inserted at
// the front when missing and categories referenced by clips but absent from
// the list are appended; either repair is written back, and only that write
// can produce an error.
func (s *ClipStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clips, err := s.gateway.LoadClips(ctx)
	if err != nil {
		s.logger.Warn("store_event", "event", "load_clips_failed", "error", err)
		clips = nil
	}
	categories, err := s.gateway.LoadCategories(ctx)
	if err != nil {
		s.logger.Warn("store_event", "event", "load_categories_failed", "error", err)
		categories = nil
	}

	repaired := false
	if !contains(categories, types.DefaultCategory) {
		categories = append([]string{types.DefaultCategory}, categories...)
		repaired = true
	}
	for _, c := range clips {
		if !contains(categories, c.Category) {
			categories = append(categories, c.Category)
			repaired = true
		}
	}

	s.clips = clips
	s.categories = categories
	s.publishLocked()

	s.logger.Info("store_event", "event", "loaded", "clips", len(clips), "categories", len(categories))

	if repaired {
		if err := s.gateway.SaveCategories(ctx, s.categories); err != nil {
			s.logger.Warn("store_event", "event", "persist_repair_failed", "error", err)
			return err
		}
	}
	return nil
}

// Clips returns a copy of all clips in storage order
func (s *ClipStore) Clips() []types.Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneClips(s.clips)
}

// Categories returns a copy of the category names in order
func (s *ClipStore) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneStrings(s.categories)
}

// Clip looks up a clip by id
func (s *ClipStore) Clip(id string) (types.Clip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOfClip(s.clips, id); i >= 0 {
		return s.clips[i], true
	}
	return types.Clip{}, false
}

// Snapshot returns the current library state
func (s *ClipStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel that receives a snapshot after every committed
// mutation, starting with the current state. A slow reader only ever sees the
// newest snapshot. The returned function unsubscribes and closes the channel.
func (s *ClipStore) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Snapshot, 1)
	ch <- s.snapshotLocked()
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
}

func (s *ClipStore) snapshotLocked() Snapshot {
	return Snapshot{
		Version:    s.version,
		Clips:      cloneClips(s.clips),
		Categories: cloneStrings(s.categories),
	}
}

func (s *ClipStore) publishLocked() {
	s.version++
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// commitLocked persists the proposed state and, only if that succeeds, makes
// it the current state.
func (s *ClipStore) commitLocked(ctx context.Context, clips []types.Clip, categories []string, clipsChanged, categoriesChanged bool) error {
	var err error
	switch {
	case clipsChanged && categoriesChanged:
		err = s.gateway.SaveAll(ctx, clips, categories)
	case clipsChanged:
		err = s.gateway.SaveClips(ctx, clips)
	case categoriesChanged:
		err = s.gateway.SaveCategories(ctx, categories)
	default:
		return nil
	}
	if err != nil {
		s.logger.Error("store_event", "event", "persist_failed", "error", err)
		return err
	}
	s.clips = clips
	s.categories = categories
	s.publishLocked()
	return nil
}

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

func containsFolded(list []string, name string) bool {
	folded := types.FoldName(name)
	for _, v := range list {
		if types.FoldName(v) == folded {
			return true
		}
	}
	return false
}

func indexOfClip(clips []types.Clip, id string) int {
	for i, c := range clips {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func cloneClips(clips []types.Clip) []types.Clip {
	out := make([]types.Clip, len(clips))
	copy(out, clips)
	return out
}

func cloneStrings(list []string) []string {
	out := make([]string, len(list))
	copy(out, list)
	return out
}
