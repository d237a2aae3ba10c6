// Package mudrik captures Arabic text from images and files it into a clip
// library.
//
// A capture goes through a recognition pipeline: the image is turned upright,
// the on-screen crop is mapped to image pixels (falling back to the whole
// image when that is not possible), the crop is recognized with Arabic and
// English hints, and the text is accepted only when it contains Arabic.
// Accepted text can then be saved as a clip under a category.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		"github.com/menta2k/mudrik"
//		"github.com/menta2k/mudrik/pkg/pipeline"
//		"github.com/menta2k/mudrik/pkg/recognition/tesseract"
//		"github.com/menta2k/mudrik/pkg/storage"
//		"github.com/menta2k/mudrik/pkg/store"
//	)
//
//	func main() {
//		ctx := context.Background()
//		kv, err := storage.NewFileKV("library")
//		if err != nil {
//			log.Fatal(err)
//		}
//		clips := store.New(storage.NewGateway(kv))
//		if err := clips.Load(ctx); err != nil {
//			log.Fatal(err)
//		}
//
//		app := mudrik.New(clips, pipeline.New(tesseract.New()))
//		res := app.RecognizeFile(ctx, "page.jpg", nil)
//		if !res.Accepted() {
//			log.Fatalf("%s: %v", res.State, res.Err)
//		}
//
//		clip, err := app.SaveClip(ctx, mudrik.SaveRequest{Category: "شعر", Text: res.Text})
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(clip.Name)
//	}
//
// The package ties together the main components:
//
//  1. Capture (pkg/capture): camera sessions, image files and watched inboxes
//  2. Geometry (pkg/geometry): placement, crop editing and pixel mapping
//  3. Pipeline (pkg/pipeline): orientation, crop, recognition and the Arabic check
//  4. Store (pkg/store): clips and categories persisted through pkg/storage
//  5. Library (pkg/library): category filter and search over saved clips
package mudrik

import (
	"context"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	"github.com/menta2k/mudrik/pkg/cropper"
	"github.com/menta2k/mudrik/pkg/geometry"
	"github.com/menta2k/mudrik/pkg/library"
	"github.com/menta2k/mudrik/pkg/pipeline"
	"github.com/menta2k/mudrik/pkg/processing"
	"github.com/menta2k/mudrik/pkg/store"
	"github.com/menta2k/mudrik/pkg/types"
)

// Version of the mudrik library
const Version = "1.0.0"

// UntitledClipName names clips saved without a name or text
const UntitledClipName = "مقطع بدون اسم"

// maxTitleRunes bounds titles derived from recognized text
const maxTitleRunes = 60

// Mudrik provides a high-level interface over recognition and the library
type Mudrik struct {
	store    *store.ClipStore
	pipeline *pipeline.Pipeline
	cropper  *cropper.Cropper
	proc     *processing.Processor
}

// New creates a Mudrik using clips for the library and p for recognition
func New(clips *store.ClipStore, p *pipeline.Pipeline) *Mudrik {
	return &Mudrik{
		store:    clips,
		pipeline: p,
		cropper:  cropper.New(),
		proc:     processing.NewProcessor(),
	}
}

// Store returns the clip library
func (m *Mudrik) Store() *store.ClipStore {
	return m.store
}

// Pipeline returns the recognition pipeline
func (m *Mudrik) Pipeline() *pipeline.Pipeline {
	return m.pipeline
}

// LoadImage loads an image file, applying its EXIF orientation
func (m *Mudrik) LoadImage(path string) (image.Image, error) {
	return m.proc.LoadImage(path)
}

// Recognize runs req through the pipeline and waits for the result
func (m *Mudrik) Recognize(ctx context.Context, req pipeline.Request) pipeline.Result {
	return m.pipeline.Run(ctx, req)
}

// RecognizeFile loads path and recognizes the part selected by crop, or the
// whole image when crop is nil
func (m *Mudrik) RecognizeFile(ctx context.Context, path string, crop *geometry.Selection) pipeline.Result {
	img, err := m.proc.LoadImage(path)
	if err != nil {
		return pipeline.Result{
			State: pipeline.RecognitionFailed,
			Err:   fmt.Errorf("%w: %w", pipeline.ErrAcquisition, err),
		}
	}
	return m.Recognize(ctx, pipeline.Request{Image: img, Crop: crop})
}

// SuggestCrop proposes an initial crop selection for img shown in container
func (m *Mudrik) SuggestCrop(img image.Image, container geometry.Size, mode geometry.Mode) (geometry.Selection, error) {
	return m.cropper.SuggestSelection(img, container, mode)
}

// SaveRequest describes a clip to save
type SaveRequest struct {
	Name     string
	Category string
	// VideoFileName defaults to the demonstration clip
	VideoFileName string
	// Text is the accepted recognized text, used to title unnamed clips
	Text string
}

// SaveClip adds a clip to the library, creating its category when needed.
// Without a name the clip is titled after the first line of Text.
func (m *Mudrik) SaveClip(ctx context.Context, req SaveRequest) (types.Clip, error) {
	name := types.NormalizeName(req.Name)
	if name == "" {
		name = TitleFromText(req.Text)
	}
	return m.store.AddClip(ctx, name, req.Category, req.VideoFileName)
}

// Browse returns the saved clips in category matching search
func (m *Mudrik) Browse(category, search string) []types.Clip {
	return library.Filter(m.store.Clips(), category, search)
}

// TitleFromText derives a clip title from the first non-blank line of text
func TitleFromText(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxTitleRunes {
			line = strings.TrimSpace(string([]rune(line)[:maxTitleRunes]))
		}
		return line
	}
	return UntitledClipName
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
