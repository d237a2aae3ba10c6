package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/menta2k/mudrik"
	"github.com/menta2k/mudrik/internal/config"
	"github.com/menta2k/mudrik/internal/utils"
	"github.com/menta2k/mudrik/pkg/geometry"
	"github.com/menta2k/mudrik/pkg/llamacpp"
	"github.com/menta2k/mudrik/pkg/ollama"
	"github.com/menta2k/mudrik/pkg/pipeline"
	"github.com/menta2k/mudrik/pkg/recognition"
	"github.com/menta2k/mudrik/pkg/recognition/tesseract"
	"github.com/menta2k/mudrik/pkg/storage"
	"github.com/menta2k/mudrik/pkg/store"
)

// commonFlags are accepted by every command
type commonFlags struct {
	configPath string
	envPath    string
	backend    string
	path       string
	verbose    bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.configPath, "config", config.GetConfigPath(), "config file (JSON); missing file uses defaults")
	fs.StringVar(&c.envPath, "env", ".env", "dotenv file with MUDRIK_* overrides")
	fs.StringVar(&c.backend, "storage", "", "storage backend override: memory|file|sqlite")
	fs.StringVar(&c.path, "path", "", "storage path override")
	fs.BoolVar(&c.verbose, "v", false, "verbose structured logging")
	return c
}

// load resolves the configuration: defaults, then the config file, then the
// environment, then flags
func (c *commonFlags) load() *config.Config {
	cfg := config.Default()
	if utils.FileExists(c.configPath) {
		loaded, err := config.LoadFromFile(c.configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	if err := cfg.LoadEnv(c.envPath); err != nil {
		log.Fatal(err)
	}
	if c.backend != "" {
		cfg.Storage.Backend = c.backend
	}
	if c.path != "" {
		cfg.Storage.Path = c.path
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return cfg
}

func (c *commonFlags) logger() *slog.Logger {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openStore opens the configured backend and loads the library. The
// returned function releases the backend.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.ClipStore, func(), error) {
	var kv storage.KV
	closeFn := func() {}

	switch cfg.Storage.Backend {
	case "memory":
		kv = storage.NewMemoryKV()
	case "file":
		fkv, err := storage.NewFileKV(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		kv = fkv
	case "sqlite":
		if err := utils.EnsureDir(filepath.Dir(cfg.Storage.Path)); err != nil {
			return nil, nil, err
		}
		db, err := storage.OpenSQLite(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		skv, err := storage.NewSQLiteKV(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		kv = skv
		closeFn = func() { db.Close() }
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	s := store.New(storage.NewGateway(kv), store.WithLogger(logger))
	if err := s.Load(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return s, closeFn, nil
}

// newEngine creates the configured recognition engine
func newEngine(cfg *config.Config) (recognition.Engine, error) {
	rc := cfg.Recognition
	switch rc.Backend {
	case "tesseract":
		return tesseract.New(), nil
	case "ollama":
		c, err := ollama.NewClient(rc.ServerURL())
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return recognition.NewVisionEngine(c, rc.Model,
			recognition.WithImageEncoding(rc.SendFormat, rc.SendSize, rc.SendQuality)), nil
	case "llamacpp":
		c, err := llamacpp.NewClient(rc.ServerURL())
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		c.SetImageFormat(rc.SendFormat)
		return recognition.NewVisionEngine(c, rc.Model,
			recognition.WithImageEncoding(rc.SendFormat, rc.SendSize, rc.SendQuality)), nil
	default:
		return nil, fmt.Errorf("unknown recognition backend %q", rc.Backend)
	}
}

// newApp wires the store and the pipeline together
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*mudrik.Mudrik, func()) {
	clips, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("open library: %v", err)
	}
	engine, err := newEngine(cfg)
	if err != nil {
		closeStore()
		log.Fatal(err)
	}
	accuracy, _ := cfg.Recognition.ParseAccuracy()

	p := pipeline.New(engine,
		pipeline.WithLogger(logger),
		pipeline.WithTimeout(cfg.Recognition.Timeout()),
		pipeline.WithLanguages(cfg.Recognition.Languages),
		pipeline.WithAccuracy(accuracy),
		pipeline.WithMinConfidence(cfg.Recognition.MinConfidence),
		pipeline.WithStateHook(func(id string, s pipeline.State) {
			logger.Debug("pipeline_state", "attempt", id, "state", s.String())
		}),
	)
	return mudrik.New(clips, p), closeStore
}

// parseRect parses "x,y,w,h"
func parseRect(s string) (geometry.Rect, error) {
	v, err := parseFloats(s, ",", 4)
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("rect %q: %w", s, err)
	}
	return geometry.Rect{X: v[0], Y: v[1], W: v[2], H: v[3]}, nil
}

// parseSize parses "WxH"
func parseSize(s string) (geometry.Size, error) {
	v, err := parseFloats(s, "x", 2)
	if err != nil {
		return geometry.Size{}, fmt.Errorf("size %q: %w", s, err)
	}
	return geometry.Size{W: v[0], H: v[1]}, nil
}

// parsePoint parses "dx,dy"
func parsePoint(s string) (geometry.Point, error) {
	v, err := parseFloats(s, ",", 2)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("offset %q: %w", s, err)
	}
	return geometry.Point{X: v[0], Y: v[1]}, nil
}

func parseFloats(s, sep string, n int) ([]float64, error) {
	parts := strings.Split(s, sep)
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d values separated by %q", n, sep)
	}
	out := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}
