package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jonalbr/heat-sheet-pdf-highlighter/e2e/harness"
)

// fakeReleaseHost serves the two release API endpoints the CLI talks to and
// counts hits.
type fakeReleaseHost struct {
	srv        *httptest.Server
	latestHits atomic.Int64
	allHits    atomic.Int64
}

func newFakeReleaseHost(t *testing.T) *fakeReleaseHost {
	t.Helper()

	h := &fakeReleaseHost{}
	mux := http.NewServeMux()
	mux.HandleFunc("/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		h.latestHits.Add(1)
		fmt.Fprintf(w, `{
			"tag_name": "v1.2.0",
			"prerelease": false,
			"body": "",
			"assets": [
				{"name": "Setup.exe", "browser_download_url": %q},
				{"name": "Setup.exe.sha256", "browser_download_url": %q}
			]
		}`, h.srv.URL+"/setup.exe", h.srv.URL+"/setup.exe.sha256")
	})
	mux.HandleFunc("/releases", func(w http.ResponseWriter, r *http.Request) {
		h.allHits.Add(1)
		fmt.Fprintf(w, `[
			{"tag_name": "v1.3.0-rc1", "prerelease": true, "body": "", "assets": []},
			{"tag_name": "v1.2.0", "prerelease": false, "body": "", "assets": [
				{"name": "Setup.exe", "browser_download_url": %q}
			]},
			{"tag_name": "v1.1.0", "prerelease": false, "body": "", "assets": []}
		]`, h.srv.URL+"/setup.exe")
	})

	h.srv = httptest.NewServer(mux)
	t.Cleanup(h.srv.Close)
	t.Setenv("HEAT_SHEET_API_BASE", h.srv.URL)
	return h
}

func TestVersionCommand(t *testing.T) {
	h := &harness.Harness{T: t, BuildVersion: "1.4.2"}
	h.NewIsolatedFS()

	res := h.Run("version")
	if res.ExitCode != 0 {
		t.Fatalf("version failed: %v", res.Err)
	}
	if !strings.Contains(res.Stdout, "heat-sheet-highlighter version 1.4.2") {
		t.Errorf("unexpected version output: %q", res.Stdout)
	}
}

func TestUpdateQuietRefreshesCaches(t *testing.T) {
	host := newFakeReleaseHost(t)
	h := &harness.Harness{T: t}
	fs := h.NewIsolatedFS()

	res := h.Run("update", "--quiet")
	if res.ExitCode != 0 {
		t.Fatalf("update --quiet failed: %v\n%s", res.Err, res.Stdout)
	}
	if host.latestHits.Load() != 1 {
		t.Errorf("latest fetches = %d, want 1", host.latestHits.Load())
	}

	// Settings and update cache materialize in the data dir.
	for _, name := range []string{"settings.json", "update_check_cache.json"} {
		if _, err := os.Stat(filepath.Join(fs.DataDir, name)); err != nil {
			t.Errorf("expected %s in data dir: %v", name, err)
		}
	}

	raw, err := os.ReadFile(filepath.Join(fs.DataDir, "update_check_cache.json"))
	if err != nil {
		t.Fatal(err)
	}
	var entry struct {
		LatestVersion string `json:"latest_version"`
	}
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("update cache is not valid JSON: %v", err)
	}
	if entry.LatestVersion != "1.2.0" {
		t.Errorf("cached latest = %q, want 1.2.0", entry.LatestVersion)
	}
}

func TestUpdateDeclinedKeepsPrompting(t *testing.T) {
	newFakeReleaseHost(t)

	// Decline the install, then decline stopping reminders.
	h := &harness.Harness{T: t, Stdin: "n\nn\n"}
	h.NewIsolatedFS()

	res := h.Run("update")
	if res.ExitCode != 0 {
		t.Fatalf("update failed: %v\n%s", res.Err, res.Stdout)
	}
	if !strings.Contains(res.Stdout, "Version 1.2.0 is available. Install now?") {
		t.Errorf("missing install prompt in output: %q", res.Stdout)
	}
	if !strings.Contains(res.Stdout, "Stop reminding you about this version?") {
		t.Errorf("missing reminder prompt in output: %q", res.Stdout)
	}
	if !strings.Contains(res.Stdout, "Latest version: 1.2.0 (current 1.0.0)") {
		t.Errorf("missing version notice in output: %q", res.Stdout)
	}
}

func TestUpdateAlreadyCurrent(t *testing.T) {
	newFakeReleaseHost(t)
	h := &harness.Harness{T: t, BuildVersion: "1.2.0"}
	h.NewIsolatedFS()

	res := h.Run("update")
	if res.ExitCode != 0 {
		t.Fatalf("update failed: %v\n%s", res.Err, res.Stdout)
	}
	if !strings.Contains(res.Stdout, "You are up to date.") {
		t.Errorf("missing up-to-date notice: %q", res.Stdout)
	}
	if strings.Contains(res.Stdout, "Install now?") {
		t.Errorf("unexpected install prompt: %q", res.Stdout)
	}
}

func TestUpdateChannelSwitchPersists(t *testing.T) {
	newFakeReleaseHost(t)
	h := &harness.Harness{T: t}
	fs := h.NewIsolatedFS()

	res := h.Run("update", "--quiet", "--channel", "rc")
	if res.ExitCode != 0 {
		t.Fatalf("update --channel rc failed: %v\n%s", res.Err, res.Stdout)
	}

	raw, err := os.ReadFile(filepath.Join(fs.DataDir, "settings.json"))
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		UpdateChannel string `json:"update_channel"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.UpdateChannel != "rc" {
		t.Errorf("persisted channel = %q, want rc", doc.UpdateChannel)
	}
}

func TestUpdateUnknownChannelRejected(t *testing.T) {
	newFakeReleaseHost(t)
	h := &harness.Harness{T: t}
	h.NewIsolatedFS()

	res := h.Run("update", "--quiet", "--channel", "nightly")
	if res.ExitCode == 0 {
		t.Fatal("expected failure for unknown channel")
	}
}

func TestReleasesListAndCache(t *testing.T) {
	host := newFakeReleaseHost(t)
	h := &harness.Harness{T: t}
	h.NewIsolatedFS()

	res := h.Run("releases")
	if res.ExitCode != 0 {
		t.Fatalf("releases failed: %v\n%s", res.Err, res.Stdout)
	}
	if !strings.Contains(res.Stdout, `Releases on channel "stable" (fetched):`) {
		t.Errorf("missing fetched header: %q", res.Stdout)
	}
	if !strings.Contains(res.Stdout, "v1.2.0") || !strings.Contains(res.Stdout, "! v1.1.0") {
		t.Errorf("missing release rows: %q", res.Stdout)
	}
	if strings.Contains(res.Stdout, "v1.3.0-rc1") {
		t.Errorf("prerelease listed on the stable channel: %q", res.Stdout)
	}

	// The second listing is served from the cache.
	res = h.Run("releases")
	if res.ExitCode != 0 {
		t.Fatalf("cached releases failed: %v\n%s", res.Err, res.Stdout)
	}
	if !strings.Contains(res.Stdout, "(cached)") {
		t.Errorf("second run not served from cache: %q", res.Stdout)
	}
	if host.allHits.Load() != 1 {
		t.Errorf("release list fetches = %d, want 1", host.allHits.Load())
	}

	// --refresh bypasses the cache.
	res = h.Run("releases", "--refresh")
	if res.ExitCode != 0 {
		t.Fatalf("releases --refresh failed: %v\n%s", res.Err, res.Stdout)
	}
	if host.allHits.Load() != 2 {
		t.Errorf("release list fetches = %d after refresh, want 2", host.allHits.Load())
	}
}

func TestConfigInitWritesTemplate(t *testing.T) {
	h := &harness.Harness{T: t}
	fs := h.NewIsolatedFS()

	target := filepath.Join(fs.BaseDir, "config.yaml")
	res := h.Run("config", "init", "--file", target)
	if res.ExitCode != 0 {
		t.Fatalf("config init failed: %v\n%s", res.Err, res.Stdout)
	}

	raw, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("template not written: %v", err)
	}
	if !strings.Contains(string(raw), "api_base") {
		t.Errorf("template missing api_base key: %q", raw)
	}
}
