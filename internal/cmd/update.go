package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/updater"
	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/version"
)

func newUpdateCmd(buildVersion string) *cobra.Command {
	var (
		quiet   bool
		channel string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for a newer release and optionally install it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newAppContext(cmd, buildVersion)
			if err != nil {
				return err
			}

			if channel != "" {
				if err := app.settings.SetChannel(channel); err != nil {
					return err
				}
			}

			current, err := version.Parse(buildVersion)
			if err != nil {
				return fmt.Errorf("parse build version %q: %w", buildVersion, err)
			}

			dialogs := newConsoleDialogs(cmd.OutOrStdout(), cmd.InOrStdin(), app.opts.AssumeYes)
			checker := updater.NewChecker(app.client, app.cache, app.settings, dialogs,
				updater.WithVersionCallback(func(latest, current version.Version) {
					if latest.Greater(current) {
						fmt.Fprintf(cmd.OutOrStdout(), "Latest version: %s (current %s)\n", latest, current)
					}
				}),
			)

			// User-initiated checks always bypass the cache.
			if _, err := checker.CheckForUpdates(cmd.Context(), current, true, quiet); err != nil {
				return fmt.Errorf("update check: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "No prompts or notices, just refresh the cached result")
	cmd.Flags().StringVar(&channel, "channel", "", `Switch the update channel first ("stable" or "rc")`)

	return cmd
}
