// Package cache persists update-check results and fetched release lists as
// JSON documents in the per-user data directory.
//
// Reads never fail loudly: a missing file is a plain miss, and a corrupt
// file is rewritten in place with a well-formed sentinel payload (epoch
// timestamp, empty content) instead of being deleted, which avoids
// file-lock errors on hosts that forbid unlinking open handles. Writes are
// atomic (temp file + fsync + rename) and retried a bounded number of times
// to tolerate transient locks; the last error propagates to the caller.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/release"
	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/version"
)

const (
	defaultWriteRetries = 5
	defaultRetryDelay   = 100 * time.Millisecond
)

type updateEntry struct {
	FetchedAt     string `json:"fetched_at"`
	LatestVersion string `json:"latest_version"`
}

type releasesEntry struct {
	FetchedAt string            `json:"fetched_at"`
	Channel   string            `json:"channel"`
	Releases  []release.Summary `json:"releases"`
}

// Store manages the two cache files.
type Store struct {
	updatePath   string
	releasesPath string
	retries      uint
	retryDelay   time.Duration
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithWriteRetries overrides the bounded retry count for atomic writes.
func WithWriteRetries(n uint) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.retries = n
		}
	}
}

// WithRetryDelay overrides the delay between write attempts.
func WithRetryDelay(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.retryDelay = d
		}
	}
}

// NewStore creates a cache store over the given update-check and
// release-list file paths.
func NewStore(updatePath, releasesPath string, opts ...StoreOption) *Store {
	s := &Store{
		updatePath:   updatePath,
		releasesPath: releasesPath,
		retries:      defaultWriteRetries,
		retryDelay:   defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadUpdate returns the timestamp and version of the last update check.
// ok is false when the file is absent, unreadable or malformed; in the
// unreadable and malformed cases the file is healed to a sentinel entry.
func (s *Store) LoadUpdate() (fetchedAt time.Time, latest version.Version, ok bool) {
	raw, err := os.ReadFile(s.updatePath)
	if err != nil {
		return time.Time{}, version.Version{}, false
	}

	var entry updateEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.healUpdate()
		return time.Time{}, version.Version{}, false
	}

	fetchedAt, err = time.Parse(time.RFC3339, entry.FetchedAt)
	if err != nil {
		s.healUpdate()
		return time.Time{}, version.Version{}, false
	}

	latest, err = version.Parse(entry.LatestVersion)
	if err != nil {
		s.healUpdate()
		return time.Time{}, version.Version{}, false
	}

	return fetchedAt, latest, true
}

// SaveUpdate records a successful live check.
func (s *Store) SaveUpdate(ctx context.Context, fetchedAt time.Time, latest version.Version) error {
	entry := updateEntry{
		FetchedAt:     fetchedAt.UTC().Format(time.RFC3339),
		LatestVersion: latest.String(),
	}
	return s.writeJSON(ctx, s.updatePath, entry)
}

// LoadReleases returns the cached release list with its fetch timestamp and
// channel. Same miss and healing contract as LoadUpdate.
func (s *Store) LoadReleases() (fetchedAt time.Time, channel string, releases []release.Summary, ok bool) {
	raw, err := os.ReadFile(s.releasesPath)
	if err != nil {
		return time.Time{}, "", nil, false
	}

	var entry releasesEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.healReleases()
		return time.Time{}, "", nil, false
	}

	fetchedAt, err = time.Parse(time.RFC3339, entry.FetchedAt)
	if err != nil {
		s.healReleases()
		return time.Time{}, "", nil, false
	}

	return fetchedAt, entry.Channel, entry.Releases, true
}

// SaveReleases records a fetched release list for the given channel.
func (s *Store) SaveReleases(ctx context.Context, releases []release.Summary, channel string, fetchedAt time.Time) error {
	if releases == nil {
		releases = []release.Summary{}
	}
	entry := releasesEntry{
		FetchedAt: fetchedAt.UTC().Format(time.RFC3339),
		Channel:   channel,
		Releases:  releases,
	}
	return s.writeJSON(ctx, s.releasesPath, entry)
}

// InvalidateReleases overwrites the release-list cache with a sentinel
// empty, expired entry so the next read refetches. The file itself is never
// unlinked.
func (s *Store) InvalidateReleases(ctx context.Context) error {
	return s.writeJSON(ctx, s.releasesPath, sentinelReleases())
}

func sentinelUpdate() updateEntry {
	return updateEntry{
		FetchedAt:     time.Unix(0, 0).UTC().Format(time.RFC3339),
		LatestVersion: "0.0.0",
	}
}

func sentinelReleases() releasesEntry {
	return releasesEntry{
		FetchedAt: time.Unix(0, 0).UTC().Format(time.RFC3339),
		Channel:   "",
		Releases:  []release.Summary{},
	}
}

// healUpdate and healReleases rewrite a corrupt cache file with a sentinel
// payload. Heal failures are ignored: the read already reported a miss.
func (s *Store) healUpdate() {
	_ = s.writeJSON(context.Background(), s.updatePath, sentinelUpdate())
}

func (s *Store) healReleases() {
	_ = s.writeJSON(context.Background(), s.releasesPath, sentinelReleases())
}

func (s *Store) writeJSON(ctx context.Context, path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	_, err = backoff.Retry(
		ctx,
		func() (struct{}, error) {
			return struct{}{}, atomicWrite(path, data)
		},
		backoff.WithBackOff(backoff.NewConstantBackOff(s.retryDelay)),
		backoff.WithMaxTries(s.retries),
	)
	if err != nil {
		return fmt.Errorf("write cache %s: %w", filepath.Base(path), err)
	}
	return nil
}

// atomicWrite writes data to a sibling temp file, fsyncs it and renames it
// over path so concurrent readers never observe a half-written document.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
