package cmd

import (
	"strings"
	"testing"
)

func TestFormatVersion(t *testing.T) {
	cases := []struct {
		name      string
		version   string
		buildDate string
		want      string
	}{
		{"release with date", "1.4.0", "2026-03-01", "heat-sheet-highlighter version 1.4.0 (2026-03-01)\n"},
		{"v prefix stripped", "v1.4.0", "", "heat-sheet-highlighter version 1.4.0\n"},
		{"empty is dev", "", "", "heat-sheet-highlighter version DEV\n"},
		{"whitespace date dropped", "1.4.0", "   ", "heat-sheet-highlighter version 1.4.0\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatVersion(tc.version, tc.buildDate); got != tc.want {
				t.Errorf("formatVersion(%q, %q) = %q, want %q", tc.version, tc.buildDate, got, tc.want)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("HEAT_SHEET_API_BASE", "  https://mirror.example/api  ")
	t.Setenv("HEAT_SHEET_DATA_DIR", "/tmp/hsh-data")
	t.Setenv("HEAT_SHEET_DEBUG", "true")

	opts := runtimeOptions{}
	if err := applyEnvOverrides(&opts); err != nil {
		t.Fatalf("applyEnvOverrides: %v", err)
	}
	if opts.APIBase != "https://mirror.example/api" {
		t.Errorf("APIBase = %q, want trimmed env value", opts.APIBase)
	}
	if opts.DataDir != "/tmp/hsh-data" {
		t.Errorf("DataDir = %q", opts.DataDir)
	}
	if !opts.Debug {
		t.Error("Debug should be set from env")
	}
}

func TestApplyEnvOverridesBadBool(t *testing.T) {
	t.Setenv("HEAT_SHEET_DEBUG", "maybe")

	opts := runtimeOptions{}
	if err := applyEnvOverrides(&opts); err == nil {
		t.Fatal("expected error for unparsable HEAT_SHEET_DEBUG")
	}
}

func TestAskYesNo(t *testing.T) {
	cases := []struct {
		in         string
		defaultYes bool
		want       bool
	}{
		{"y\n", false, true},
		{"yes\n", false, true},
		{"n\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
		{"gibberish\n", false, false},
	}

	for _, tc := range cases {
		var out strings.Builder
		got := askYesNo(&out, strings.NewReader(tc.in), "Continue?", tc.defaultYes)
		if got != tc.want {
			t.Errorf("askYesNo(%q, default=%v) = %v, want %v", tc.in, tc.defaultYes, got, tc.want)
		}
		if !strings.Contains(out.String(), "Continue?") {
			t.Errorf("prompt not written: %q", out.String())
		}
	}
}

func TestAskThreeWay(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"y\n", "yes"},
		{"no\n", "no"},
		{"c\n", "cancel"},
		{"\n", "cancel"},
		{"", "cancel"},
	}

	for _, tc := range cases {
		var out strings.Builder
		if got := askThreeWay(&out, strings.NewReader(tc.in), "Install?"); got != tc.want {
			t.Errorf("askThreeWay(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
