package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sjohnston82/tome-tracker1/internal/cli"
	"github.com/sjohnston82/tome-tracker1/internal/config"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	config.LoadDotEnv()

	root := cli.NewRootCommand(fmt.Sprintf("%s (%s)", Version, Commit))
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
