package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/menta2k/mudrik"
	"github.com/menta2k/mudrik/internal/config"
	"github.com/menta2k/mudrik/internal/utils"
	"github.com/menta2k/mudrik/pkg/capture"
	"github.com/menta2k/mudrik/pkg/cropper"
	"github.com/menta2k/mudrik/pkg/geometry"
	"github.com/menta2k/mudrik/pkg/pipeline"
	"github.com/menta2k/mudrik/pkg/processing"
	"github.com/menta2k/mudrik/pkg/vision"
)

func runScan(args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	common := addCommonFlags(fs)

	var in, cropSpec, viewSpec, modeName, moveSpec string
	var name, category, video string
	var debugDir, dbgext string
	var orientation int
	var guide, suggest, save bool

	fs.StringVar(&in, "in", "", "input image path (jpg/png/webp/...)")
	fs.IntVar(&orientation, "orientation", 0, "EXIF orientation override (1-8), 0 = from file")
	fs.StringVar(&viewSpec, "view", "", "preview size WxH the crop is expressed in (default: image size)")
	fs.StringVar(&modeName, "mode", "", "how the preview shows the image: fit|fill (default from config)")
	fs.StringVar(&cropSpec, "crop", "", "crop rectangle x,y,w,h in preview coordinates")
	fs.BoolVar(&guide, "guide", false, "crop to the fixed capture guide")
	fs.BoolVar(&suggest, "suggest", false, "crop to the detected text region")
	fs.StringVar(&moveSpec, "move", "", "drag the crop by dx,dy before recognizing")

	fs.BoolVar(&save, "save", false, "save accepted text as a clip")
	fs.StringVar(&name, "name", "", "clip name (default: first line of the text)")
	fs.StringVar(&category, "category", "", "clip category (default: library)")
	fs.StringVar(&video, "video", "", "clip video file name")

	fs.StringVar(&debugDir, "debug", "", "write a debug overlay with the crop and suggestion to this directory")
	fs.StringVar(&dbgext, "dbgext", "png", "debug overlay format: png|jpg|webp")

	fs.Parse(args)
	if in == "" {
		log.Fatalf("usage: mudrik scan -in page.jpg [-view WxH] [-mode fit|fill] [-crop x,y,w,h | -guide | -suggest] [-move dx,dy] [-save -name N -category C] [-debug dir]")
	}
	if orientation < 0 || orientation > 8 {
		log.Fatalf("orientation must be between 0 and 8")
	}

	cfg := common.load()
	logger := common.logger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	frame, err := captureFile(ctx, in, logger)
	if err != nil {
		log.Fatal(err)
	}
	if orientation != 0 {
		frame.Orientation = processing.Orientation(orientation)
	}
	img := processing.Normalize(frame.Image, frame.Orientation)
	bounds := img.Bounds()
	log.Printf("image %s: %dx%d (%s)", in, bounds.Dx(), bounds.Dy(), frame.Orientation)

	if modeName == "" {
		modeName = cfg.Crop.Mode
	}
	mode, err := geometry.ParseMode(modeName)
	if err != nil {
		log.Fatal(err)
	}
	view := geometry.Size{W: float64(bounds.Dx()), H: float64(bounds.Dy())}
	if viewSpec != "" {
		if view, err = parseSize(viewSpec); err != nil {
			log.Fatal(err)
		}
	}

	crp := cropper.New(
		cropper.WithLogger(logger),
		cropper.WithDetector(vision.NewWithConfig(vision.DetectionConfig{
			EdgeThreshold: cfg.Crop.EdgeThreshold,
			MinDensity:    0.02,
			PaddingRatio:  cfg.Crop.PaddingRatio,
			MaxDim:        512,
		})),
	)

	sel, err := selectCrop(cfg, crp, img, view, mode, cropSpec, moveSpec, guide, suggest)
	if err != nil {
		log.Fatal(err)
	}
	if sel != nil {
		log.Printf("crop %.0f,%.0f %.0fx%.0f in %.0fx%.0f (%s)", sel.Rect.X, sel.Rect.Y, sel.Rect.W, sel.Rect.H, view.W, view.H, mode)
	}

	app, closeStore := newApp(ctx, cfg, logger)
	defer closeStore()

	res := app.Recognize(ctx, pipeline.Request{Image: img, Crop: sel})
	reportResult(in, res)

	if debugDir != "" {
		writeDebugOverlay(crp, img, res, in, debugDir, dbgext)
	}

	if !res.Accepted() {
		closeStore()
		os.Exit(1)
	}
	fmt.Println(res.Text)

	if save {
		clip, err := app.SaveClip(ctx, mudrik.SaveRequest{Name: name, Category: category, VideoFileName: videoName(cfg, video), Text: res.Text})
		if err != nil {
			closeStore()
			log.Fatalf("save clip: %v", err)
		}
		log.Printf("saved clip %s %q in %q", clip.ID, clip.Name, clip.Category)
	}
}

// captureFile acquires a still through a camera session reading path
func captureFile(ctx context.Context, path string, logger *slog.Logger) (capture.Frame, error) {
	session := capture.NewSession(capture.NewFileCamera(path), capture.WithSessionLogger(logger))
	if err := <-session.Start(ctx); err != nil {
		return capture.Frame{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer session.Stop()

	req, err := session.Capture(ctx)
	if err != nil {
		return capture.Frame{}, err
	}
	frame, err := req.Wait(ctx)
	if err != nil {
		return capture.Frame{}, fmt.Errorf("capture %s: %w", path, err)
	}
	logger.Info("capture_event", "event", "captured", "source", frame.Source)
	return frame, nil
}

// selectCrop builds the on-screen selection from the crop flags and runs it
// through the crop editor so it obeys the same limits as a drawn crop. No
// crop flag means the whole image.
func selectCrop(cfg *config.Config, crp *cropper.Cropper, img image.Image, view geometry.Size, mode geometry.Mode,
	cropSpec, moveSpec string, guide, suggest bool) (*geometry.Selection, error) {
	var rect geometry.Rect
	var err error
	switch {
	case cropSpec != "":
		rect, err = parseRect(cropSpec)
	case guide:
		rect, err = geometry.GuideRect(view, cfg.Crop.Guide())
	case suggest:
		var sel geometry.Selection
		sel, err = crp.SuggestSelection(img, view, mode)
		rect = sel.Rect
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	placement, err := geometry.Place(mode, geometry.Size{W: float64(b.Dx()), H: float64(b.Dy())}, view)
	if err != nil {
		// The pipeline reports the fallback to the full image
		return &geometry.Selection{Rect: rect, Container: view, Mode: mode}, nil
	}

	editor := geometry.NewEditor(placement.VisibleFrame(), cfg.Crop.MinEdge, cfg.Crop.Inset)
	editor.SetRect(rect)
	if moveSpec != "" {
		d, err := parsePoint(moveSpec)
		if err != nil {
			return nil, err
		}
		editor.BeginDrag()
		editor.DragBy(d.X, d.Y)
		editor.EndDrag()
	}
	return &geometry.Selection{Rect: editor.Rect(), Container: view, Mode: mode}, nil
}

func reportResult(source string, res pipeline.Result) {
	switch res.State {
	case pipeline.TextAccepted:
		log.Printf("%s: accepted %d line(s) via %s in %s", source, len(res.Lines), res.Engine, res.Duration.Round(time.Millisecond))
	case pipeline.TextRejected:
		log.Printf("%s: rejected, no Arabic text found: %q", source, res.Text)
	default:
		log.Printf("%s: %s: %v", source, res.State, res.Err)
	}
	if res.FullImage {
		log.Printf("%s: recognized the full image", source)
	}
}

func writeDebugOverlay(crp *cropper.Cropper, img image.Image, res pipeline.Result, source, dir, ext string) {
	if err := utils.EnsureDir(dir); err != nil {
		log.Printf("debug overlay: %v", err)
		return
	}
	var suggestion image.Rectangle
	if s, err := crp.Suggest(img); err == nil && !s.FullImage {
		suggestion = s.Region
	}
	proc := processing.NewProcessor()
	overlay := proc.CreateDebugOverlay(img, res.Region, suggestion)
	path := utils.DebugOutputPath(source, dir, "_debug", strings.ToLower(ext))
	if err := proc.SaveImage(overlay, path, ext, 92, false); err != nil {
		log.Printf("debug overlay save failed: %v", err)
		return
	}
	log.Printf("wrote %s", path)
}

func videoName(cfg *config.Config, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return cfg.Library.DefaultVideoFileName
}
