// Package updater implements the update-check / download / verification /
// install-launch pipeline.
package updater

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/cache"
	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/release"
	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/version"
)

// Choice is the three-way answer to an update prompt.
type Choice int

const (
	ChoiceCancel Choice = iota
	ChoiceYes
	ChoiceNo
)

// Dialogs is the callback surface the host UI implements. The checker runs
// on a worker goroutine and only ever talks to the UI through these
// methods; implementations are responsible for marshaling onto their own
// event loop.
type Dialogs interface {
	ShowUpToDate()
	ShowUpdateAvailable(v version.Version) Choice
	ShowUpdateReminderChoice() bool
	ShowUpdateErrorRetry(message string) bool
	ShowDownloadError(message string)

	StartDownloadUI()
	SetupDownloadProgress(totalBytes int64)
	UpdateDownloadProgress(deltaBytes int64)
	UpdateDownloadStatus(start time.Time, totalBytes int64)
	GetProgressValue() int64
	IsDownloadCancelled() bool
	FinishDownloadUI()

	CloseApplication()
}

// Settings is the policy port backed by the host's settings store.
type Settings interface {
	Channel() string
	VerifySHA() bool
	AskForUpdate() bool
	SetAskForUpdate(ask bool) error
	NewestVersionAvailable() string
	SetNewestVersionAvailable(v string) error
	UpdateCacheTTL() time.Duration
	ReleasesCacheTTL() time.Duration
}

// VersionCallback receives (latest, current) before every check returns.
type VersionCallback func(latest, current version.Version)

// LaunchFunc spawns the installer helper as a detached process, passing the
// host process id and the downloaded installer path.
type LaunchFunc func(pid int, installerPath string) error

const defaultMaxCheckAttempts = 3

// Checker orchestrates cache, release source, channel policy, prompts,
// download and installer launch. At most one check and one download run at
// a time; rejected concurrent calls return immediately with a stale but
// safe answer.
type Checker struct {
	client    *release.Client
	cache     *cache.Store
	settings  Settings
	dialogs   Dialogs
	onVersion VersionCallback
	launch    LaunchFunc
	now       func() time.Time

	maxCheckAttempts int

	checkActive    atomic.Bool
	downloadActive atomic.Bool
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithVersionCallback sets the version-update callback.
func WithVersionCallback(fn VersionCallback) CheckerOption {
	return func(c *Checker) {
		if fn != nil {
			c.onVersion = fn
		}
	}
}

// WithLaunchFunc overrides how the installer is spawned.
func WithLaunchFunc(fn LaunchFunc) CheckerOption {
	return func(c *Checker) {
		if fn != nil {
			c.launch = fn
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) CheckerOption {
	return func(c *Checker) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMaxCheckAttempts bounds the user-accepted retry loop.
func WithMaxCheckAttempts(n int) CheckerOption {
	return func(c *Checker) {
		if n > 0 {
			c.maxCheckAttempts = n
		}
	}
}

// NewChecker creates a Checker.
func NewChecker(client *release.Client, store *cache.Store, settings Settings, dialogs Dialogs, opts ...CheckerOption) *Checker {
	c := &Checker{
		client:           client,
		cache:            store,
		settings:         settings,
		dialogs:          dialogs,
		onVersion:        func(latest, current version.Version) {},
		launch:           RunInstallerScript,
		now:              time.Now,
		maxCheckAttempts: defaultMaxCheckAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fetchOutcome classifies the result of one live fetch pass, replacing the
// source's mix of sentinel returns and exception matching.
type fetchOutcome int

const (
	outcomeOK       fetchOutcome = iota // latest holds the candidate version
	outcomeUpToDate                     // update suppressed, latest holds current
	outcomeFailed                       // transport or parse failure, err set
)

type fetchResult struct {
	outcome fetchOutcome
	latest  version.Version
	err     error
}

// CheckForUpdates compares current against the channel-appropriate latest
// release.
//
// If a check is already in flight the stored newest-known version is
// returned immediately. Without force the cached result is served within
// its TTL with no network access. force invalidates the releases cache and
// always hits the network; quiet suppresses every prompt and notice. A
// failed check returns a non-nil error and a zero version; callers must not
// treat it as a valid version.
func (c *Checker) CheckForUpdates(ctx context.Context, current version.Version, force, quiet bool) (version.Version, error) {
	if !c.checkActive.CompareAndSwap(false, true) {
		slog.Debug("update check already in flight, returning newest known version")
		if known, err := version.Parse(c.settings.NewestVersionAvailable()); err == nil {
			return known, nil
		}
		return current, nil
	}
	defer c.checkActive.Store(false)

	// Bounded retry loop replacing the source's recursive self-call on a
	// user-accepted retry.
	attempts := 0
	for {
		latest, err := c.checkOnce(ctx, current, force, quiet)
		if err == nil {
			return latest, nil
		}

		attempts++
		if force && !quiet && attempts < c.maxCheckAttempts && c.dialogs.ShowUpdateErrorRetry(err.Error()) {
			continue
		}

		slog.Warn("update check failed", "error", err)
		return version.Version{}, err
	}
}

func (c *Checker) checkOnce(ctx context.Context, current version.Version, force, quiet bool) (version.Version, error) {
	now := c.now()

	if !force {
		if fetchedAt, cached, ok := c.cache.LoadUpdate(); ok && now.Sub(fetchedAt) < c.settings.UpdateCacheTTL() {
			c.onVersion(cached, current)
			return cached, nil
		}
	} else {
		// Forced checks reset the releases cache so dependent views refetch.
		if err := c.cache.InvalidateReleases(ctx); err != nil {
			slog.Warn("invalidating releases cache failed", "error", err)
		}
	}

	res := c.fetchLatest(ctx, current, force, quiet)
	if res.outcome == outcomeFailed {
		return version.Version{}, res.err
	}

	if err := c.cache.SaveUpdate(ctx, now, res.latest); err != nil {
		// Losing a cache write only costs an extra network check later.
		slog.Warn("saving update cache failed", "error", err)
	}

	c.onVersion(res.latest, current)
	return res.latest, nil
}

// fetchLatest performs one live check: latest release, channel policy,
// asset validation, settings bookkeeping and the user prompt.
func (c *Checker) fetchLatest(ctx context.Context, current version.Version, force, quiet bool) fetchResult {
	rel, err := c.client.FetchLatest(ctx)
	if err != nil {
		return fetchResult{outcome: outcomeFailed, err: err}
	}

	latest, err := version.Parse(rel.TagName)
	if err != nil {
		// An unparsable latest tag is a fatal fetch failure for this cycle.
		return fetchResult{outcome: outcomeFailed, err: err}
	}
	exeURL, shaURL := release.SelectAssets(rel)

	if c.settings.Channel() == "rc" {
		latest, exeURL, shaURL, err = c.adoptNewestPrerelease(ctx, latest, exeURL, shaURL)
		if err != nil {
			return fetchResult{outcome: outcomeFailed, err: err}
		}
	}

	// Never offer an unverifiable binary when verification is required.
	if c.settings.VerifySHA() && latest.Greater(current) && shaURL == "" {
		if force && !quiet {
			c.dialogs.ShowUpToDate()
		}
		return fetchResult{outcome: outcomeUpToDate, latest: current}
	}

	// Without an installer asset nothing is installable, but the candidate
	// version is still reported so version labels can show it.
	if latest.Greater(current) && exeURL == "" {
		if force && !quiet {
			c.dialogs.ShowUpdateErrorRetry("installer asset not found for the latest release")
		}
		return fetchResult{outcome: outcomeOK, latest: latest}
	}

	c.recordIfNewer(latest)

	if quiet || !c.shouldPrompt(latest, current, force) {
		return fetchResult{outcome: outcomeOK, latest: latest}
	}

	c.promptUser(ctx, latest, exeURL, shaURL)
	return fetchResult{outcome: outcomeOK, latest: latest}
}

// adoptNewestPrerelease applies the rc channel policy: if a prerelease is
// strictly newer than the stable candidate it becomes the candidate,
// together with its assets.
func (c *Checker) adoptNewestPrerelease(ctx context.Context, latest version.Version, exeURL, shaURL string) (version.Version, string, string, error) {
	rels, err := c.client.FetchAll(ctx)
	if err != nil {
		return version.Version{}, "", "", err
	}

	var newestPre *release.Release
	for i := range rels {
		if rels[i].Prerelease {
			newestPre = &rels[i]
			break
		}
	}

	if newestPre == nil {
		c.bookkeep(latest)
		return latest, exeURL, shaURL, nil
	}

	preVersion, err := version.Parse(newestPre.TagName)
	if err != nil {
		return latest, exeURL, shaURL, nil
	}
	if !preVersion.Greater(latest) {
		return latest, exeURL, shaURL, nil
	}

	preExe, preSha := release.SelectAssets(*newestPre)
	if preExe != "" {
		exeURL = preExe
	}
	shaURL = preSha
	c.bookkeep(preVersion)
	return preVersion, exeURL, shaURL, nil
}

func (c *Checker) bookkeep(latest version.Version) {
	if err := c.settings.SetNewestVersionAvailable(latest.String()); err != nil {
		slog.Warn("persisting newest version failed", "error", err)
	}
	if err := c.settings.SetAskForUpdate(true); err != nil {
		slog.Warn("persisting ask_for_update failed", "error", err)
	}
}

// recordIfNewer resets the prompt-suppression flag whenever a version newer
// than the previously recorded newest shows up.
func (c *Checker) recordIfNewer(latest version.Version) {
	known, err := version.Parse(c.settings.NewestVersionAvailable())
	if err != nil {
		known = version.Version{}
	}
	if latest.Greater(known) {
		c.bookkeep(latest)
	}
}

// shouldPrompt decides whether to ask the user, and shows the up-to-date
// notice when a forced check found nothing to offer.
func (c *Checker) shouldPrompt(latest, current version.Version, force bool) bool {
	should := latest.Greater(current) && (c.settings.AskForUpdate() || force)
	if !should && force {
		c.dialogs.ShowUpToDate()
	}
	return should
}

func (c *Checker) promptUser(ctx context.Context, latest version.Version, exeURL, shaURL string) {
	switch c.dialogs.ShowUpdateAvailable(latest) {
	case ChoiceCancel:
		// Next check will ask again.
		return
	case ChoiceYes:
		if exeURL == "" {
			c.dialogs.ShowDownloadError("installer asset not found in the selected release")
			return
		}
		if !c.settings.VerifySHA() {
			shaURL = ""
		}
		c.DownloadAndRunInstaller(ctx, exeURL, shaURL)
	case ChoiceNo:
		if c.dialogs.ShowUpdateReminderChoice() {
			if err := c.settings.SetAskForUpdate(false); err != nil {
				slog.Warn("persisting ask_for_update failed", "error", err)
			}
		}
	}
}

func hostPID() int {
	return os.Getpid()
}
