package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/handiism/metastrip/internal/config"
	"github.com/handiism/metastrip/internal/tui"
)

func main() {
	configFlag := flag.String("config", "", "Path to config file (default: user config directory)")
	flag.Parse()

	path := *configFlag
	if path == "" {
		path = config.DefaultPath()
	}
	settings, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
