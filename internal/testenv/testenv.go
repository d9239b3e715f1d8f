// Package testenv provides isolated test environments with temp directories
// and environment variable overrides. It creates a data directory and sets
// HEAT_SHEET_DATA_DIR (restored on test cleanup).
//
// Usage:
//
//	// Isolated dirs:
//	env := testenv.New(t)
//	env.Dirs.Base // temp root
//	env.Dirs.Data // data dir (HEAT_SHEET_DATA_DIR)
//
//	// With config:
//	env := testenv.New(t, testenv.WithConfig(yamlString))
//	env.Config // *config.FileConfig
package testenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/config"
	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/paths"
)

// IsolatedDirs holds the directory paths created for the test.
type IsolatedDirs struct {
	Base string // temp root (parent of all dirs)
	Data string // settings and cache files
}

// Env is a unified test environment with isolated directories and optional
// higher-level capabilities.
type Env struct {
	Dirs   IsolatedDirs
	Config *config.FileConfig
}

// Option configures an Env during construction.
type Option func(t *testing.T, e *Env)

// WithConfig parses a YAML config backed by the isolated directories.
func WithConfig(yaml string) Option {
	return func(t *testing.T, e *Env) {
		t.Helper()
		cfg, err := config.FromString(yaml)
		if err != nil {
			t.Fatalf("testenv: creating config: %v", err)
		}
		e.Config = &cfg
	}
}

// New creates an isolated test environment. It:
//  1. Creates a temp directory with a data subdirectory
//  2. Sets HEAT_SHEET_DATA_DIR (restored on test cleanup)
//  3. Applies any options (e.g. WithConfig)
func New(t *testing.T, opts ...Option) *Env {
	t.Helper()

	// Resolve symlinks on the base temp dir so paths match os.Getwd()
	// after chdir (macOS: /var → /private/var).
	base, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("testenv: resolving temp dir symlinks: %v", err)
	}

	dirs := IsolatedDirs{
		Base: base,
		Data: filepath.Join(base, "data"),
	}

	if err := os.MkdirAll(dirs.Data, 0o755); err != nil {
		t.Fatalf("testenv: creating dir %s: %v", dirs.Data, err)
	}

	t.Setenv(paths.DataDirEnv, dirs.Data)

	env := &Env{Dirs: dirs}

	for _, opt := range opts {
		opt(t, env)
	}

	return env
}
