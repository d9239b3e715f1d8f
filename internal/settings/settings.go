// Package settings persists the mutable updater policy as a JSON document
// in the per-user data directory. String booleans ("True"/"False") are kept
// for compatibility with settings files written by earlier releases.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/version"
)

// Channel names for the update track.
const (
	ChannelStable = "stable"
	ChannelRC     = "rc"
)

const (
	boolTrue  = "True"
	boolFalse = "False"
)

// Values is the on-disk settings document.
type Values struct {
	Version                 string `json:"version"`
	UpdateChannel           string `json:"update_channel"`
	VerifySHA               string `json:"verify_sha"`
	AskForUpdate            string `json:"ask_for_update"`
	NewestVersionAvailable  string `json:"newest_version_available"`
	UpdateCacheTTLSeconds   int    `json:"update_cache_ttl_seconds"`
	ReleasesCacheTTLSeconds int    `json:"releases_cache_ttl_seconds"`
}

func defaults(appVersion string) Values {
	return Values{
		Version:                 appVersion,
		UpdateChannel:           ChannelStable,
		VerifySHA:               boolTrue,
		AskForUpdate:            boolTrue,
		NewestVersionAvailable:  "0.0.0",
		UpdateCacheTTLSeconds:   86400,
		ReleasesCacheTTLSeconds: 3600,
	}
}

// Store loads, validates and persists Values. All accessors are safe for
// concurrent use; every setter writes the file back immediately.
type Store struct {
	path       string
	appVersion string

	mu     sync.Mutex
	values Values
}

// Load reads the settings file at path, coercing unknown or invalid values
// to their defaults. A missing file yields pure defaults; the file is
// created on the first save.
func Load(path, appVersion string) (*Store, error) {
	s := &Store{path: path, appVersion: appVersion, values: defaults(appVersion)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if saveErr := s.save(); saveErr != nil {
				return nil, saveErr
			}
			return s, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var loaded Values
	if err := json.Unmarshal(raw, &loaded); err != nil {
		// Corrupt settings degrade to defaults rather than blocking startup.
		loaded = Values{}
	}

	s.values = validate(loaded, appVersion)
	if err := s.save(); err != nil {
		return nil, err
	}
	return s, nil
}

func validate(v Values, appVersion string) Values {
	out := defaults(appVersion)

	if v.UpdateChannel == ChannelStable || v.UpdateChannel == ChannelRC {
		out.UpdateChannel = v.UpdateChannel
	}
	if v.VerifySHA == boolTrue || v.VerifySHA == boolFalse {
		out.VerifySHA = v.VerifySHA
	}
	if v.AskForUpdate == boolTrue || v.AskForUpdate == boolFalse {
		out.AskForUpdate = v.AskForUpdate
	}
	if _, err := version.Parse(v.NewestVersionAvailable); err == nil {
		out.NewestVersionAvailable = v.NewestVersionAvailable
	}
	if v.UpdateCacheTTLSeconds > 0 {
		out.UpdateCacheTTLSeconds = v.UpdateCacheTTLSeconds
	}
	if v.ReleasesCacheTTLSeconds > 0 {
		out.ReleasesCacheTTLSeconds = v.ReleasesCacheTTLSeconds
	}

	return out
}

func (s *Store) save() error {
	payload, err := json.MarshalIndent(s.values, "", "    ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the current values.
func (s *Store) Snapshot() Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values
}

// Channel returns the active update track.
func (s *Store) Channel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.UpdateChannel
}

// SetChannel switches the update track and persists.
func (s *Store) SetChannel(channel string) error {
	if channel != ChannelStable && channel != ChannelRC {
		return fmt.Errorf("unknown update channel %q", channel)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.UpdateChannel = channel
	return s.save()
}

// VerifySHA reports whether checksum verification is required globally.
func (s *Store) VerifySHA() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.VerifySHA == boolTrue
}

// AskForUpdate reports whether automatic prompts are enabled for the
// currently known newest version.
func (s *Store) AskForUpdate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.AskForUpdate == boolTrue
}

// SetAskForUpdate toggles the automatic prompt suppression flag. Persist
// failures are swallowed by callers on purpose: losing the flag only causes
// one extra prompt.
func (s *Store) SetAskForUpdate(ask bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ask {
		s.values.AskForUpdate = boolTrue
	} else {
		s.values.AskForUpdate = boolFalse
	}
	return s.save()
}

// NewestVersionAvailable returns the newest version string recorded by any
// previous check.
func (s *Store) NewestVersionAvailable() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.NewestVersionAvailable
}

// SetNewestVersionAvailable records the newest version seen and persists.
func (s *Store) SetNewestVersionAvailable(v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values.NewestVersionAvailable = v
	return s.save()
}

// UpdateCacheTTL is the freshness window for the update-check cache.
func (s *Store) UpdateCacheTTL() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.values.UpdateCacheTTLSeconds) * time.Second
}

// ReleasesCacheTTL is the freshness window for the release-list cache.
func (s *Store) ReleasesCacheTTL() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.values.ReleasesCacheTTLSeconds) * time.Second
}
