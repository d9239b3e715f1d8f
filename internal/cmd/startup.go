package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/updater"
	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/version"
)

// StartupCheck runs the quiet background update check that follows normal
// command execution. It never prompts; when a newer release is known it
// prints a short notice to out. All failures are best-effort and reported
// only to the debug log by the checker itself.
func StartupCheck(ctx context.Context, out io.Writer, buildVersion string) {
	current, err := version.Parse(buildVersion)
	if err != nil {
		// Dev builds have no comparable version.
		return
	}

	app, err := newAppContext(nil, buildVersion)
	if err != nil {
		return
	}

	dialogs := newConsoleDialogs(io.Discard, os.Stdin, false)
	checker := updater.NewChecker(app.client, app.cache, app.settings, dialogs)

	latest, err := checker.CheckForUpdates(ctx, current, false, true)
	if err != nil {
		return
	}

	if latest.Greater(current) {
		fmt.Fprintf(out, "\nUpdate available: %s -> %s\nRun:\n  heat-sheet-highlighter update\n\n", current, latest)
	}
}
