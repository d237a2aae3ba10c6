package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/menta2k/mudrik/pkg/library"
	"github.com/menta2k/mudrik/pkg/store"
	"github.com/menta2k/mudrik/pkg/types"
)

func runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	common := addCommonFlags(fs)

	var category, search string
	var categories, all bool
	fs.StringVar(&category, "category", "", "only clips in this category (default: category of the newest clip)")
	fs.BoolVar(&categories, "categories", false, "list categories with clip counts instead of clips")
	fs.StringVar(&search, "search", "", "case-insensitive name search")
	fs.BoolVar(&all, "all", false, "list clips in every category")
	fs.Parse(args)

	clips, closeStore := mustOpenStore(common)
	defer closeStore()
	snap := clips.Snapshot()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if categories {
		counts := library.CountByCategory(snap.Clips, snap.Categories)
		for _, c := range snap.Categories {
			fmt.Fprintf(w, "%s\t%d\n", c, counts[c])
		}
		return
	}

	view := library.NewView(snap.Clips)
	if category != "" || all {
		view.Select(category)
	}
	view.Search(search)
	view.Reconcile(snap.Categories)

	results := view.Results(snap.Clips)
	for _, c := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Category, c.Name, c.VideoFileName)
	}
	if len(results) == 0 {
		log.Printf("no clips in %q matching %q", view.SelectedCategory, search)
	}
}

func runCategory(args []string) {
	fs := flag.NewFlagSet("category", flag.ExitOnError)
	common := addCommonFlags(fs)
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) < 2 {
		log.Fatalf("usage: mudrik category add NAME | rename OLD NEW | delete NAME [FALLBACK]")
	}

	clips, closeStore := mustOpenStore(common)
	defer closeStore()
	ctx := context.Background()

	var err error
	switch op, name := rest[0], types.NormalizeName(rest[1]); op {
	case "add":
		if !clips.CanAddCategory(name) {
			closeStore()
			log.Fatalf("category %q is empty or already exists", name)
		}
		err = clips.AddCategory(ctx, name)
	case "rename":
		if len(rest) != 3 {
			closeStore()
			log.Fatalf("usage: mudrik category rename OLD NEW")
		}
		newName := types.NormalizeName(rest[2])
		if !clips.CanRenameCategory(name, newName) {
			closeStore()
			log.Fatalf("cannot rename %q to %q", name, newName)
		}
		err = clips.RenameCategory(ctx, name, newName)
	case "delete":
		if !clips.CanRenameOrDelete(name) {
			closeStore()
			log.Fatalf("category %q cannot be deleted", name)
		}
		var fallback string
		if len(rest) > 2 {
			fallback = types.NormalizeName(rest[2])
		}
		err = clips.DeleteCategory(ctx, name, fallback)
	default:
		closeStore()
		log.Fatalf("unknown category command %q", op)
	}
	if err != nil {
		closeStore()
		log.Fatal(err)
	}
	fmt.Println(clips.Categories())
}

func runClip(args []string) {
	fs := flag.NewFlagSet("clip", flag.ExitOnError)
	common := addCommonFlags(fs)
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) < 2 {
		log.Fatalf("usage: mudrik clip rename ID TITLE | delete ID")
	}

	clips, closeStore := mustOpenStore(common)
	defer closeStore()
	ctx := context.Background()

	op, id := rest[0], rest[1]
	if _, ok := clips.Clip(id); !ok {
		closeStore()
		log.Fatalf("no clip with id %s", id)
	}

	var err error
	switch op {
	case "rename":
		if len(rest) != 3 {
			closeStore()
			log.Fatalf("usage: mudrik clip rename ID TITLE")
		}
		err = clips.UpdateClipTitle(ctx, id, rest[2])
	case "delete":
		err = clips.DeleteClip(ctx, id)
	default:
		closeStore()
		log.Fatalf("unknown clip command %q", op)
	}
	if err != nil {
		closeStore()
		log.Fatal(err)
	}
}

func mustOpenStore(common *commonFlags) (*store.ClipStore, func()) {
	cfg := common.load()
	clips, closeStore, err := openStore(context.Background(), cfg, common.logger())
	if err != nil {
		log.Fatalf("open library: %v", err)
	}
	return clips, closeStore
}
