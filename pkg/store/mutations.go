package store

import (
	"context"

	"github.com/menta2k/mudrik/pkg/types"
)

// AddClip appends a new clip under category, creating the category when it
// does not exist yet. An empty category files the clip under the default
// category, and an empty video name uses the default demonstration clip.
// If a category differing only in case already exists the clip joins it
// instead of creating a near-duplicate.
func (s *ClipStore) AddClip(ctx context.Context, name, category, videoFileName string) (types.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories := cloneStrings(s.categories)
	category = types.NormalizeName(category)
	if category == "" {
		category = types.DefaultCategory
	}
	categoriesChanged := false
	if existing, ok := s.resolveCategoryLocked(category); ok {
		category = existing
	} else {
		categories = append(categories, category)
		categoriesChanged = true
	}

	clip := types.Clip{
		ID:            s.newID(),
		Name:          name,
		Category:      category,
		VideoFileName: videoFileName,
	}.WithDefaults()
	clips := append(cloneClips(s.clips), clip)

	if err := s.commitLocked(ctx, clips, categories, true, categoriesChanged); err != nil {
		return types.Clip{}, err
	}
	s.logger.Info("store_event", "event", "clip_added", "id", clip.ID, "category", clip.Category)
	return clip, nil
}

// UpdateClipTitle renames a clip. Unknown ids are ignored.
func (s *ClipStore) UpdateClipTitle(ctx context.Context, id, newTitle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOfClip(s.clips, id)
	if i < 0 || s.clips[i].Name == newTitle {
		return nil
	}
	clips := cloneClips(s.clips)
	clips[i].Name = newTitle
	return s.commitLocked(ctx, clips, s.categories, true, false)
}

// DeleteClip removes a clip. Deleting an unknown id is a no-op.
func (s *ClipStore) DeleteClip(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOfClip(s.clips, id)
	if i < 0 {
		return nil
	}
	clips := make([]types.Clip, 0, len(s.clips)-1)
	clips = append(clips, s.clips[:i]...)
	clips = append(clips, s.clips[i+1:]...)
	if err := s.commitLocked(ctx, clips, s.categories, true, false); err != nil {
		return err
	}
	s.logger.Info("store_event", "event", "clip_deleted", "id", id)
	return nil
}

// CanAddCategory reports whether AddCategory would accept name
func (s *ClipStore) CanAddCategory(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = types.NormalizeName(name)
	return name != "" && !containsFolded(s.categories, name)
}

// AddCategory appends a category. Empty names and names already present
// under case-insensitive comparison are ignored.
func (s *ClipStore) AddCategory(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = types.NormalizeName(name)
	if name == "" || containsFolded(s.categories, name) {
		return nil
	}
	categories := append(cloneStrings(s.categories), name)
	if err := s.commitLocked(ctx, s.clips, categories, false, true); err != nil {
		return err
	}
	s.logger.Info("store_event", "event", "category_added", "name", name)
	return nil
}

// CanRenameOrDelete is false only for the default category
func (s *ClipStore) CanRenameOrDelete(name string) bool {
	return !types.IsDefaultCategory(name)
}

// CanRenameCategory reports whether RenameCategory would apply
func (s *ClipStore) CanRenameCategory(oldName, newName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renameAllowedLocked(oldName, types.NormalizeName(newName))
}

func (s *ClipStore) renameAllowedLocked(oldName, newName string) bool {
	if newName == "" || newName == oldName || types.IsDefaultCategory(oldName) {
		return false
	}
	if !contains(s.categories, oldName) {
		return false
	}
	return !containsFolded(s.categories, newName)
}

// RenameCategory renames a category and moves its clips along with it.
// Both collections are written as one batch. Empty names, unknown or
// default sources, and names colliding case-insensitively with an existing
// category are ignored.
func (s *ClipStore) RenameCategory(ctx context.Context, oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newName = types.NormalizeName(newName)
	if !s.renameAllowedLocked(oldName, newName) {
		return nil
	}

	categories := cloneStrings(s.categories)
	for i, c := range categories {
		if c == oldName {
			categories[i] = newName
		}
	}
	clips := cloneClips(s.clips)
	moved := 0
	for i := range clips {
		if clips[i].Category == oldName {
			clips[i].Category = newName
			moved++
		}
	}

	if err := s.commitLocked(ctx, clips, categories, true, true); err != nil {
		return err
	}
	s.logger.Info("store_event", "event", "category_renamed", "from", oldName, "to", newName, "clips", moved)
	return nil
}

// DeleteCategory removes name after reassigning its clips to fallback. An
// empty fallback means the default category; a fallback matching an existing
// category case-insensitively uses that category, and any other fallback is
// created. The default category itself is never deleted.
func (s *ClipStore) DeleteCategory(ctx context.Context, name, fallback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fallback = types.NormalizeName(fallback)
	if fallback == "" {
		fallback = types.DefaultCategory
	}
	if existing, ok := s.resolveCategoryLocked(fallback); ok {
		fallback = existing
	}
	if types.IsDefaultCategory(name) || name == fallback {
		return nil
	}

	categories := make([]string, 0, len(s.categories)+1)
	removed := false
	for _, c := range s.categories {
		if c == name {
			removed = true
			continue
		}
		categories = append(categories, c)
	}
	if !contains(categories, fallback) {
		categories = append(categories, fallback)
	}

	clips := cloneClips(s.clips)
	moved := 0
	for i := range clips {
		if clips[i].Category == name {
			clips[i].Category = fallback
			moved++
		}
	}
	if !removed && moved == 0 && len(categories) == len(s.categories) {
		return nil
	}

	if err := s.commitLocked(ctx, clips, categories, true, true); err != nil {
		return err
	}
	s.logger.Info("store_event", "event", "category_deleted", "name", name, "fallback", fallback, "clips", moved)
	return nil
}

// resolveCategoryLocked finds the stored spelling of a category, matching
// exactly first and then case-insensitively.
func (s *ClipStore) resolveCategoryLocked(name string) (string, bool) {
	if contains(s.categories, name) {
		return name, true
	}
	folded := types.FoldName(name)
	for _, c := range s.categories {
		if types.FoldName(c) == folded {
			return c, true
		}
	}
	return "", false
}
