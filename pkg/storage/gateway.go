package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/menta2k/mudrik/pkg/types"
)

// Gateway serializes the clip library to and from a KV store. It holds no
// business rules.
type Gateway struct {
	kv KV
}

// NewGateway creates a gateway over kv
func NewGateway(kv KV) *Gateway {
	return &Gateway{kv: kv}
}

// LoadClips returns the saved clips in storage order. A missing key yields an
// empty slice.
func (g *Gateway) LoadClips(ctx context.Context) ([]types.Clip, error) {
	data, ok, err := g.kv.Get(ctx, ClipsKey)
	if err != nil || !ok {
		return nil, err
	}
	var clips []types.Clip
	if err := json.Unmarshal(data, &clips); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", ClipsKey, err)
	}
	for i := range clips {
		clips[i] = clips[i].WithDefaults()
	}
	return clips, nil
}

// LoadCategories returns the saved category names in storage order
func (g *Gateway) LoadCategories(ctx context.Context) ([]string, error) {
	data, ok, err := g.kv.Get(ctx, CategoriesKey)
	if err != nil || !ok {
		return nil, err
	}
	var categories []string
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", CategoriesKey, err)
	}
	return categories, nil
}

// SaveClips writes the clip list
func (g *Gateway) SaveClips(ctx context.Context, clips []types.Clip) error {
	data, err := encodeClips(clips)
	if err != nil {
		return err
	}
	return g.kv.Set(ctx, ClipsKey, data)
}

// SaveCategories writes the category list
func (g *Gateway) SaveCategories(ctx context.Context, categories []string) error {
	data, err := encodeCategories(categories)
	if err != nil {
		return err
	}
	return g.kv.Set(ctx, CategoriesKey, data)
}

// SaveAll writes both collections. When the underlying store implements
// Batcher the two writes are committed together.
func (g *Gateway) SaveAll(ctx context.Context, clips []types.Clip, categories []string) error {
	clipData, err := encodeClips(clips)
	if err != nil {
		return err
	}
	catData, err := encodeCategories(categories)
	if err != nil {
		return err
	}
	if b, ok := g.kv.(Batcher); ok {
		return b.SetMany(ctx, map[string][]byte{
			CategoriesKey: catData,
			ClipsKey:      clipData,
		})
	}
	if err := g.kv.Set(ctx, CategoriesKey, catData); err != nil {
		return err
	}
	return g.kv.Set(ctx, ClipsKey, clipData)
}

func encodeClips(clips []types.Clip) ([]byte, error) {
	if clips == nil {
		clips = []types.Clip{}
	}
	data, err := json.Marshal(clips)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", ClipsKey, err)
	}
	return data, nil
}

func encodeCategories(categories []string) ([]byte, error) {
	if categories == nil {
		categories = []string{}
	}
	data, err := json.Marshal(categories)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", CategoriesKey, err)
	}
	return data, nil
}
