package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/release"
)

func newReleasesCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "releases",
		Short: "List releases for the active update channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newAppContext(cmd, "")
			if err != nil {
				return err
			}

			channel := app.settings.Channel()
			summaries, fromCache, err := loadReleaseList(cmd, app, channel, refresh)
			if err != nil {
				return fmt.Errorf("list releases: %w", err)
			}

			source := "fetched"
			if fromCache {
				source = "cached"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Releases on channel %q (%s):\n", channel, source)
			for _, s := range summaries {
				installable := " "
				if s.ExeURL == nil {
					installable = "!"
				}
				kind := ""
				if s.Prerelease {
					kind = "  (prerelease)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s %s%s\n", installable, s.Tag, kind)
			}
			if len(summaries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "  (none)")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the cache and refetch")

	return cmd
}

// loadReleaseList serves from the releases cache when it is fresh and was
// fetched for the same channel, refetching and persisting otherwise.
func loadReleaseList(cmd *cobra.Command, app *appContext, channel string, refresh bool) ([]release.Summary, bool, error) {
	if !refresh {
		fetchedAt, cachedChannel, cached, ok := app.cache.LoadReleases()
		if ok && cachedChannel == channel && time.Since(fetchedAt) < app.settings.ReleasesCacheTTL() {
			return cached, true, nil
		}
	}

	summaries, err := app.client.ListReleases(cmd.Context(), channel)
	if err != nil {
		return nil, false, err
	}

	if err := app.cache.SaveReleases(cmd.Context(), summaries, channel, time.Now()); err != nil {
		slog.Warn("saving releases cache failed", "error", err)
	}
	return summaries, false, nil
}
