package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/menta2k/mudrik/pkg/geometry"
	"github.com/menta2k/mudrik/pkg/recognition"
	"github.com/menta2k/mudrik/pkg/types"
)

// Environment variables read by LoadEnv
const (
	EnvStorageBackend = "MUDRIK_STORAGE_BACKEND"
	EnvStoragePath    = "MUDRIK_STORAGE_PATH"
	EnvOCRBackend     = "MUDRIK_OCR_BACKEND"
	EnvOCRURL         = "MUDRIK_OCR_URL"
	EnvOCRModel       = "MUDRIK_OCR_MODEL"
)

// Config holds the application configuration
type Config struct {
	Storage     StorageConfig     `json:"storage"`
	Recognition RecognitionConfig `json:"recognition"`
	Crop        CropConfig        `json:"crop"`
	Library     LibraryConfig     `json:"library"`
}

// StorageConfig selects where the library is persisted
type StorageConfig struct {
	// Backend is memory, file or sqlite
	Backend string `json:"backend"`
	// Path is a directory for file and a database file for sqlite
	Path string `json:"path"`
}

// RecognitionConfig holds configuration for text recognition
type RecognitionConfig struct {
	// Backend is tesseract, ollama or llamacpp
	Backend        string   `json:"backend"`
	URL            string   `json:"url"`
	Model          string   `json:"model"`
	Languages      []string `json:"languages"`
	Accuracy       string   `json:"accuracy"`
	TimeoutSeconds int      `json:"timeout_seconds"`
	MinConfidence  float64  `json:"min_confidence"`

	// Encoding of images sent to vision models
	SendFormat  string `json:"send_format"`
	SendSize    int    `json:"send_size"`
	SendQuality int    `json:"send_quality"`
}

// CropConfig holds configuration for the crop editor and suggestions
type CropConfig struct {
	Mode          string  `json:"mode"`
	MinEdge       float64 `json:"min_edge"`
	Inset         float64 `json:"inset"`
	GuideMargin   float64 `json:"guide_margin"`
	GuideHeight   float64 `json:"guide_height"`
	GuideOffsetY  float64 `json:"guide_offset_y"`
	EdgeThreshold float64 `json:"edge_threshold"`
	PaddingRatio  float64 `json:"padding_ratio"`
}

// LibraryConfig holds defaults for saved clips
type LibraryConfig struct {
	DefaultVideoFileName string `json:"default_video_file_name"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: "file",
			Path:    GetDataDir(),
		},
		Recognition: RecognitionConfig{
			Backend:        "tesseract",
			Model:          "openbmb/minicpm-v4.5",
			Languages:      append([]string(nil), recognition.DefaultLanguages...),
			Accuracy:       "accurate",
			TimeoutSeconds: 60,
			MinConfidence:  0,
			SendFormat:     "png",
			SendSize:       1600,
			SendQuality:    90,
		},
		Crop: CropConfig{
			Mode:          "fit",
			MinEdge:       60,
			Inset:         24,
			GuideMargin:   geometry.DefaultGuide.Margin,
			GuideHeight:   geometry.DefaultGuide.Height,
			GuideOffsetY:  geometry.DefaultGuide.OffsetY,
			EdgeThreshold: 0.08,
			PaddingRatio:  0.05,
		},
		Library: LibraryConfig{
			DefaultVideoFileName: types.DefaultVideoFileName,
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Fields missing from
// the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadEnv applies overrides from the process environment and from the
// dotenv file at path. Non-empty environment variables win over the file.
// A missing file is not an error.
func (c *Config) LoadEnv(path string) error {
	values := map[string]string{}
	if path != "" {
		read, err := godotenv.Read(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read env file: %w", err)
		}
		if read != nil {
			values = read
		}
	}
	lookup := func(key string) (string, bool) {
		if v := os.Getenv(key); v != "" {
			return v, true
		}
		v := values[key]
		return v, v != ""
	}

	if v, ok := lookup(EnvStorageBackend); ok {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v, ok := lookup(EnvStoragePath); ok {
		c.Storage.Path = v
	}
	if v, ok := lookup(EnvOCRBackend); ok {
		c.Recognition.Backend = strings.ToLower(v)
	}
	if v, ok := lookup(EnvOCRURL); ok {
		c.Recognition.URL = v
	}
	if v, ok := lookup(EnvOCRModel); ok {
		c.Recognition.Model = v
	}
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory":
	case "file", "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("storage.backend must be memory, file or sqlite, got %q", c.Storage.Backend)
	}

	switch c.Recognition.Backend {
	case "tesseract":
	case "ollama", "llamacpp":
		if c.Recognition.Model == "" {
			return fmt.Errorf("recognition.model is required for the %s backend", c.Recognition.Backend)
		}
	default:
		return fmt.Errorf("recognition.backend must be tesseract, ollama or llamacpp, got %q", c.Recognition.Backend)
	}

	if len(c.Recognition.Languages) == 0 {
		return fmt.Errorf("recognition.languages cannot be empty")
	}

	if _, err := c.Recognition.ParseAccuracy(); err != nil {
		return err
	}

	if c.Recognition.TimeoutSeconds < 1 {
		return fmt.Errorf("recognition.timeout_seconds must be positive")
	}

	if c.Recognition.MinConfidence < 0 || c.Recognition.MinConfidence > 1 {
		return fmt.Errorf("recognition.min_confidence must be between 0 and 1")
	}

	if f := strings.ToLower(c.Recognition.SendFormat); f != "png" && f != "jpg" && f != "jpeg" {
		return fmt.Errorf("recognition.send_format must be png or jpg")
	}

	if c.Recognition.SendQuality < 1 || c.Recognition.SendQuality > 100 {
		return fmt.Errorf("recognition.send_quality must be between 1 and 100")
	}

	if _, err := geometry.ParseMode(c.Crop.Mode); err != nil {
		return fmt.Errorf("crop.mode: %w", err)
	}

	if c.Crop.MinEdge <= 0 {
		return fmt.Errorf("crop.min_edge must be positive")
	}

	if c.Crop.Inset < 0 {
		return fmt.Errorf("crop.inset cannot be negative")
	}

	if c.Crop.EdgeThreshold < 0 || c.Crop.EdgeThreshold > 1 {
		return fmt.Errorf("crop.edge_threshold must be between 0 and 1")
	}

	if c.Crop.PaddingRatio < 0 || c.Crop.PaddingRatio > 1 {
		return fmt.Errorf("crop.padding_ratio must be between 0 and 1")
	}

	return nil
}

// Timeout returns the recognition timeout
func (r RecognitionConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// ParseAccuracy converts the accuracy setting
func (r RecognitionConfig) ParseAccuracy() (recognition.Accuracy, error) {
	switch strings.ToLower(r.Accuracy) {
	case "accurate", "":
		return recognition.Accurate, nil
	case "fast":
		return recognition.Fast, nil
	default:
		return recognition.Accurate, fmt.Errorf("recognition.accuracy must be accurate or fast, got %q", r.Accuracy)
	}
}

// ServerURL returns the configured URL or the default for the backend
func (r RecognitionConfig) ServerURL() string {
	if r.URL != "" {
		return r.URL
	}
	switch r.Backend {
	case "ollama":
		return "http://localhost:11434/api/chat"
	case "llamacpp":
		return "http://localhost:8080"
	default:
		return ""
	}
}

// Guide returns the capture guide
func (c CropConfig) Guide() geometry.Guide {
	return geometry.Guide{Margin: c.GuideMargin, Height: c.GuideHeight, OffsetY: c.GuideOffsetY}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "mudrik", "config.json")
}

// GetDataDir returns the default directory for the saved library
func GetDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./mudrik-data"
	}
	return filepath.Join(home, ".local", "share", "mudrik")
}
