package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

const usage = `usage: %[1]s <command> [flags]

commands:
  scan      recognize Arabic text in an image (-in page.jpg [-guide|-suggest|-crop x,y,w,h] [-save])
  watch     recognize every image dropped into a directory (-dir inbox [-save])
  list      list saved clips (-category name | -all) [-search text] or -categories
  category  add NAME | rename OLD NEW | delete NAME [FALLBACK]
  clip      rename ID TITLE | delete ID

every command accepts -config, -env, -storage, -path and -v
`

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		log.Fatalf(usage, filepath.Base(os.Args[0]))
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "scan":
		runScan(args)
	case "watch":
		runWatch(args)
	case "list":
		runList(args)
	case "category":
		runCategory(args)
	case "clip":
		runClip(args)
	case "help", "-h", "--help":
		fmt.Printf(usage, filepath.Base(os.Args[0]))
	default:
		log.Fatalf("unknown command %q\n\n%s", cmd, fmt.Sprintf(usage, filepath.Base(os.Args[0])))
	}
}
