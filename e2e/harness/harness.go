package harness

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/cmd"
	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/testenv"
)

// Harness runs CLI commands in-process against an isolated data directory.
type Harness struct {
	T *testing.T

	// BuildVersion is injected as the running binary's version. Defaults
	// to "1.0.0" so the update command can parse it.
	BuildVersion string

	// Stdin is fed to interactive prompts. Empty means no input, which
	// resolves prompts to their defaults.
	Stdin string
}

// RunResult holds the outcome of a CLI command execution.
type RunResult struct {
	Stdout   string
	ExitCode int
	Err      error
}

// SetupResult holds the resolved paths of the isolated environment.
type SetupResult struct {
	BaseDir string
	DataDir string
}

// NewIsolatedFS creates an isolated data directory and points
// HEAT_SHEET_DATA_DIR at it for the rest of the test.
func (h *Harness) NewIsolatedFS() *SetupResult {
	h.T.Helper()

	env := testenv.New(h.T)
	return &SetupResult{
		BaseDir: env.Dirs.Base,
		DataDir: env.Dirs.Data,
	}
}

// Run executes a CLI command through the full cmd.NewRootCmd Cobra pipeline
// and captures its combined output.
func (h *Harness) Run(args ...string) *RunResult {
	h.T.Helper()

	version := h.BuildVersion
	if version == "" {
		version = "1.0.0"
	}

	rootCmd := cmd.NewRootCmd(version, "2026-01-01")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)

	var in io.Reader = strings.NewReader(h.Stdin)
	rootCmd.SetIn(in)

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	exitCode := 0
	if err != nil {
		exitCode = 1
	}

	return &RunResult{Stdout: out.String(), ExitCode: exitCode, Err: err}
}
