// Package release fetches release metadata from the GitHub releases API and
// selects installer and checksum assets by filename suffix.
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultAPIBase = "https://api.github.com/repos/jonalbr/heat-sheet-pdf-highlighter"

	installerSuffix = ".exe"
	checksumSuffix  = ".sha256"
)

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Release is the wire representation of a single release.
type Release struct {
	TagName    string  `json:"tag_name"`
	Prerelease bool    `json:"prerelease"`
	Assets     []Asset `json:"assets"`
	Body       string  `json:"body"`
}

// Summary is the reduced per-release record kept in the releases cache. A
// nil ExeURL means the release ships no installer and cannot be installed.
type Summary struct {
	Tag        string  `json:"tag"`
	Prerelease bool    `json:"prerelease"`
	ExeURL     *string `json:"exe_url"`
	ShaURL     *string `json:"sha_url"`
	Body       string  `json:"body"`
}

// StatusError reports a non-2xx response from the release host.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("release api returned status %d for %s", e.Status, e.URL)
}

// HTTPClient is the minimal client surface, replaceable in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures a Client.
type Option func(*Client)

// WithAPIBase overrides the release API base URL.
func WithAPIBase(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.apiBase = strings.TrimRight(base, "/")
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// Client talks to the two read-only release endpoints.
type Client struct {
	apiBase    string
	httpClient HTTPClient
}

// NewClient creates a release source client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		apiBase:    defaultAPIBase,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchLatest returns the latest non-prerelease release.
func (c *Client) FetchLatest(ctx context.Context) (Release, error) {
	var rel Release
	if err := c.getJSON(ctx, c.apiBase+"/releases/latest", &rel); err != nil {
		return Release{}, err
	}
	return rel, nil
}

// FetchAll returns every release, newest first, prereleases included.
func (c *Client) FetchAll(ctx context.Context) ([]Release, error) {
	var rels []Release
	if err := c.getJSON(ctx, c.apiBase+"/releases", &rels); err != nil {
		return nil, err
	}
	return rels, nil
}

// ListReleases maps releases to summaries for the given channel. Prereleases
// are dropped unless the channel is "rc".
func (c *Client) ListReleases(ctx context.Context, channel string) ([]Summary, error) {
	rels, err := c.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(rels))
	for _, rel := range rels {
		if channel != "rc" && rel.Prerelease {
			continue
		}
		summaries = append(summaries, Summarize(rel))
	}
	return summaries, nil
}

// Summarize scans a release's assets and produces its cache record.
func Summarize(rel Release) Summary {
	exeURL, shaURL := SelectAssets(rel)
	s := Summary{
		Tag:        rel.TagName,
		Prerelease: rel.Prerelease,
		Body:       rel.Body,
	}
	if exeURL != "" {
		s.ExeURL = &exeURL
	}
	if shaURL != "" {
		s.ShaURL = &shaURL
	}
	return s
}

// SelectAssets picks the installer and checksum download URLs from a
// release's asset list. Matching is case-insensitive on the filename suffix;
// the first match of each kind wins. Empty strings mean no match.
func SelectAssets(rel Release) (exeURL, shaURL string) {
	for _, asset := range rel.Assets {
		name := strings.ToLower(asset.Name)
		switch {
		case exeURL == "" && strings.HasSuffix(name, installerSuffix):
			exeURL = asset.BrowserDownloadURL
		case shaURL == "" && strings.HasSuffix(name, checksumSuffix):
			shaURL = asset.BrowserDownloadURL
		}
	}
	return exeURL, shaURL
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "heat-sheet-pdf-highlighter-update-check")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("release request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{URL: url, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode release response: %w", err)
	}
	return nil
}
