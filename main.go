package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/build"
	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/cmd"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func run() error {
	buildDate := build.Date
	buildVersion := build.Version

	rootCmd := cmd.NewRootCmd(buildVersion, buildDate)
	executed, err := rootCmd.ExecuteC()
	if err != nil {
		return err
	}

	// The update and releases commands already talk to the release host;
	// running the background check on top would be redundant.
	if executed != nil {
		switch executed.Name() {
		case "update", "releases":
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Update check is best-effort; don't fail the CLI for transient errors.
	cmd.StartupCheck(ctx, os.Stderr, buildVersion)

	return nil
}

type exitCoder interface {
	ExitCode() int
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var coded exitCoder
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}

	return 1
}
