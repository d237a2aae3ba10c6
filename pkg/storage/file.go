package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/menta2k/mudrik/internal/utils"
)

// FileKV stores every key as a JSON file inside a directory. Writes go to a
// temporary file first and are renamed into place.
type FileKV struct {
	dir string
	mu  sync.Mutex
}

// NewFileKV creates a file-backed store rooted at dir, creating it if needed
func NewFileKV(dir string) (*FileKV, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

// Dir returns the directory the store writes to
func (f *FileKV) Dir() string {
	return f.dir
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, utils.SanitizeFilename(key)+".json")
}

func (f *FileKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, true, nil
}

func (f *FileKV) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeLocked(key, value)
}

// SetMany stages every value in a temporary file before renaming any of them,
// so a failed write leaves all keys untouched.
func (f *FileKV) SetMany(ctx context.Context, values map[string][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	staged := make(map[string]string, len(values))
	cleanup := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}
	for key, value := range values {
		tmp, err := f.stage(key, value)
		if err != nil {
			cleanup()
			return err
		}
		staged[key] = tmp
	}
	for key, tmp := range staged {
		if err := os.Rename(tmp, f.path(key)); err != nil {
			cleanup()
			return fmt.Errorf("failed to commit %s: %w", key, err)
		}
		delete(staged, key)
	}
	return nil
}

func (f *FileKV) writeLocked(key string, value []byte) error {
	tmp, err := f.stage(key, value)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, f.path(key)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit %s: %w", key, err)
	}
	return nil
}

func (f *FileKV) stage(key string, value []byte) (string, error) {
	tmp, err := os.CreateTemp(f.dir, utils.SanitizeFilename(key)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close %s: %w", key, err)
	}
	return tmp.Name(), nil
}
