package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func storePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "settings.json")
}

func TestLoadMissingFileWritesDefaults(t *testing.T) {
	path := storePath(t)

	s, err := Load(path, "1.4.0")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	v := s.Snapshot()
	if v.Version != "1.4.0" {
		t.Errorf("version = %q, want %q", v.Version, "1.4.0")
	}
	if v.UpdateChannel != ChannelStable {
		t.Errorf("channel = %q, want %q", v.UpdateChannel, ChannelStable)
	}
	if !s.VerifySHA() || !s.AskForUpdate() {
		t.Error("verify_sha and ask_for_update should default to true")
	}
	if v.NewestVersionAvailable != "0.0.0" {
		t.Errorf("newest_version_available = %q, want 0.0.0", v.NewestVersionAvailable)
	}
	if v.UpdateCacheTTLSeconds != 86400 || v.ReleasesCacheTTLSeconds != 3600 {
		t.Errorf("ttls = %d/%d, want 86400/3600", v.UpdateCacheTTLSeconds, v.ReleasesCacheTTLSeconds)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("settings file should exist after first load: %v", err)
	}
}

func TestLoadCoercesInvalidValues(t *testing.T) {
	path := storePath(t)
	raw := `{
		"update_channel": "nightly",
		"verify_sha": "yes",
		"ask_for_update": "False",
		"newest_version_available": "not-a-version",
		"update_cache_ttl_seconds": -5,
		"releases_cache_ttl_seconds": 0
	}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path, "1.4.0")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	v := s.Snapshot()
	if v.UpdateChannel != ChannelStable {
		t.Errorf("unknown channel kept: %q", v.UpdateChannel)
	}
	if v.VerifySHA != "True" {
		t.Errorf("invalid verify_sha kept: %q", v.VerifySHA)
	}
	if v.AskForUpdate != "False" {
		t.Errorf("valid ask_for_update overwritten: %q", v.AskForUpdate)
	}
	if v.NewestVersionAvailable != "0.0.0" {
		t.Errorf("unparseable version kept: %q", v.NewestVersionAvailable)
	}
	if v.UpdateCacheTTLSeconds != 86400 || v.ReleasesCacheTTLSeconds != 3600 {
		t.Errorf("non-positive ttls kept: %d/%d", v.UpdateCacheTTLSeconds, v.ReleasesCacheTTLSeconds)
	}
}

func TestLoadCorruptFileDegradesToDefaults(t *testing.T) {
	path := storePath(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path, "1.4.0")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Channel() != ChannelStable {
		t.Errorf("channel = %q, want default after corruption", s.Channel())
	}
}

func TestSettersPersist(t *testing.T) {
	path := storePath(t)

	s, err := Load(path, "1.4.0")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := s.SetChannel(ChannelRC); err != nil {
		t.Fatalf("SetChannel: %v", err)
	}
	if err := s.SetAskForUpdate(false); err != nil {
		t.Fatalf("SetAskForUpdate: %v", err)
	}
	if err := s.SetNewestVersionAvailable("2.1.0-rc1"); err != nil {
		t.Fatalf("SetNewestVersionAvailable: %v", err)
	}

	reloaded, err := Load(path, "1.4.0")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Channel() != ChannelRC {
		t.Errorf("channel = %q, want rc", reloaded.Channel())
	}
	if reloaded.AskForUpdate() {
		t.Error("ask_for_update should persist as false")
	}
	if got := reloaded.NewestVersionAvailable(); got != "2.1.0-rc1" {
		t.Errorf("newest_version_available = %q, want 2.1.0-rc1", got)
	}
}

func TestSetChannelRejectsUnknown(t *testing.T) {
	s, err := Load(storePath(t), "1.4.0")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SetChannel("beta"); err == nil {
		t.Fatal("expected error for unknown channel")
	}
	if s.Channel() != ChannelStable {
		t.Errorf("channel changed to %q after rejected set", s.Channel())
	}
}

func TestStringBooleanWireFormat(t *testing.T) {
	path := storePath(t)

	s, err := Load(path, "1.4.0")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.SetAskForUpdate(false); err != nil {
		t.Fatalf("SetAskForUpdate: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("settings file is not valid JSON: %v", err)
	}
	if doc["verify_sha"] != "True" {
		t.Errorf("verify_sha on disk = %v, want string %q", doc["verify_sha"], "True")
	}
	if doc["ask_for_update"] != "False" {
		t.Errorf("ask_for_update on disk = %v, want string %q", doc["ask_for_update"], "False")
	}
}
