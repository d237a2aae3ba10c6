package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/menta2k/mudrik"
	"github.com/menta2k/mudrik/pkg/capture"
	"github.com/menta2k/mudrik/pkg/pipeline"
)

func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	common := addCommonFlags(fs)

	var dir, category, video string
	var save, existing bool
	fs.StringVar(&dir, "dir", "", "inbox directory to watch")
	fs.BoolVar(&existing, "existing", false, "also recognize images already in the directory")
	fs.BoolVar(&save, "save", false, "save accepted text as clips")
	fs.StringVar(&category, "category", "", "category for saved clips (default: library)")
	fs.StringVar(&video, "video", "", "video file name for saved clips")
	fs.Parse(args)

	if dir == "" {
		log.Fatalf("usage: mudrik watch -dir inbox [-existing] [-save -category C]")
	}

	cfg := common.load()
	logger := common.logger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app, closeStore := newApp(ctx, cfg, logger)
	defer closeStore()

	opts := []capture.InboxOption{capture.WithInboxLogger(logger)}
	if existing {
		opts = append(opts, capture.WithExisting())
	}
	imports, err := capture.NewInbox(dir, opts...).Watch(ctx)
	if err != nil {
		closeStore()
		log.Fatalf("watch %s: %v", dir, err)
	}
	log.Printf("watching %s, press Ctrl+C to stop", dir)

	var accepted, rejected, failed int
	for imp := range imports {
		if imp.Err != nil {
			log.Printf("%s: %v", imp.Path, imp.Err)
			failed++
			continue
		}
		res := app.Recognize(ctx, pipeline.Request{Image: imp.Frame.Image, Orientation: imp.Frame.Orientation})
		reportResult(imp.Path, res)
		switch res.State {
		case pipeline.TextAccepted:
			accepted++
		case pipeline.TextRejected:
			rejected++
			continue
		default:
			failed++
			continue
		}
		fmt.Printf("== %s\n%s\n", imp.Path, res.Text)

		if save {
			clip, err := app.SaveClip(ctx, mudrik.SaveRequest{Category: category, VideoFileName: videoName(cfg, video), Text: res.Text})
			if err != nil {
				log.Printf("%s: save clip: %v", imp.Path, err)
				continue
			}
			log.Printf("saved clip %s %q in %q", clip.ID, clip.Name, clip.Category)
		}
	}
	log.Printf("stopped: %d accepted, %d rejected, %d failed", accepted, rejected, failed)
}
