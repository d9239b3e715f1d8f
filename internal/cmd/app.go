package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/cache"
	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/logging"
	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/paths"
	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/release"
	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/settings"
)

// appContext bundles the wired collaborators every updater-facing command
// needs.
type appContext struct {
	opts     runtimeOptions
	dataDir  string
	settings *settings.Store
	cache    *cache.Store
	client   *release.Client
}

func newAppContext(cmd *cobra.Command, buildVersion string) (*appContext, error) {
	opts, err := mergedOptions(cmd)
	if err != nil {
		return nil, err
	}

	logging.Setup(opts.Debug)

	dataDir := opts.DataDir
	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	} else {
		dataDir, err = paths.DataDir()
		if err != nil {
			return nil, err
		}
	}

	store, err := settings.Load(paths.SettingsFile(dataDir), buildVersion)
	if err != nil {
		return nil, err
	}

	var clientOpts []release.Option
	if opts.APIBase != "" {
		clientOpts = append(clientOpts, release.WithAPIBase(opts.APIBase))
	}

	return &appContext{
		opts:     opts,
		dataDir:  dataDir,
		settings: store,
		cache:    cache.NewStore(paths.UpdateCacheFile(dataDir), paths.ReleasesCacheFile(dataDir)),
		client:   release.NewClient(clientOpts...),
	}, nil
}
