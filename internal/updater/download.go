package updater

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

// Errors surfaced by checksum verification.
var (
	ErrChecksumMismatch = errors.New("checksum mismatch, downloaded file is corrupted")
	ErrBadChecksumFile  = errors.New("invalid .sha256 file format")
)

const (
	// downloadChunkSize keeps progress notifications well under four per
	// second on typical consumer bandwidth.
	downloadChunkSize = 256 * 1024

	// statusInterval throttles the transfer-status callback.
	statusInterval = 250 * time.Millisecond

	checksumFetchTimeout = 30 * time.Second
)

var sha256TokenPattern = regexp.MustCompile(`\b[a-fA-F0-9]{64}\b`)

// DownloadAndRunInstaller streams the installer to a temp file, optionally
// verifies its SHA-256 digest against the checksum asset at shaURL, and on
// success signals the host to close and spawns the installer helper.
//
// At most one download runs at a time; a concurrent call is a logged no-op.
// Cancellation via the dialog surface is a normal silent exit; every error
// path deletes the partial file and reports through ShowDownloadError.
func (c *Checker) DownloadAndRunInstaller(ctx context.Context, downloadURL, shaURL string) {
	if !c.downloadActive.CompareAndSwap(false, true) {
		slog.Info("installer download already in progress, ignoring request")
		return
	}
	defer c.downloadActive.Store(false)

	c.dialogs.StartDownloadUI()

	tmp, err := os.CreateTemp("", "heat-sheet-installer-*.exe")
	if err != nil {
		c.dialogs.ShowDownloadError(fmt.Sprintf("create temporary file: %v", err))
		return
	}
	installerPath := tmp.Name()

	cancelled, total, err := c.downloadWithProgress(ctx, downloadURL, tmp)
	tmp.Close()
	if err != nil {
		c.dialogs.ShowDownloadError(err.Error())
		safeRemove(installerPath)
		return
	}
	if cancelled {
		safeRemove(installerPath)
		return
	}

	// Some hosts omit or misstate content-length; a mismatch is suspicious
	// but not fatal.
	if total != 0 && c.dialogs.GetProgressValue() != total {
		slog.Warn("downloaded size differs from declared content-length",
			"declared", total, "received", c.dialogs.GetProgressValue())
	}

	c.dialogs.FinishDownloadUI()

	if shaURL != "" {
		if err := c.verifySHA256(ctx, installerPath, shaURL); err != nil {
			c.dialogs.ShowDownloadError(err.Error())
			safeRemove(installerPath)
			return
		}
	}

	c.dialogs.CloseApplication()
	if err := c.launch(hostPID(), installerPath); err != nil {
		c.dialogs.ShowDownloadError(fmt.Sprintf("launch installer: %v", err))
	}
}

// downloadWithProgress streams url into dst chunk by chunk, reporting each
// chunk to the progress callback and polling the cancellation flag once per
// chunk. Returns whether the download was cancelled and the declared
// content length.
func (c *Checker) downloadWithProgress(ctx context.Context, url string, dst io.Writer) (cancelled bool, total int64, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, 0, fmt.Errorf("build download request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, 0, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, 0, fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	total = resp.ContentLength
	if total < 0 {
		total = 0
	}
	c.dialogs.SetupDownloadProgress(total)

	start := c.now()
	lastStatus := start
	buf := make([]byte, downloadChunkSize)

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if c.dialogs.IsDownloadCancelled() {
				return true, total, nil
			}
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return false, total, fmt.Errorf("write installer file: %w", writeErr)
			}
			c.dialogs.UpdateDownloadProgress(int64(n))

			if now := c.now(); now.Sub(lastStatus) >= statusInterval {
				c.dialogs.UpdateDownloadStatus(start, total)
				lastStatus = now
			}
		}
		if readErr == io.EOF {
			return false, total, nil
		}
		if readErr != nil {
			return false, total, fmt.Errorf("read download stream: %w", readErr)
		}
	}
}

// verifySHA256 fetches the checksum asset, extracts the first 64-hex token
// (tolerating the conventional "sha256sum" filename suffix) and compares it
// against the digest of the downloaded file.
func (c *Checker) verifySHA256(ctx context.Context, installerPath, shaURL string) error {
	ctx, cancel := context.WithTimeout(ctx, checksumFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shaURL, nil)
	if err != nil {
		return fmt.Errorf("build checksum request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch checksum: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("checksum fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("read checksum body: %w", err)
	}

	expected := sha256TokenPattern.FindString(string(body))
	if expected == "" {
		return ErrBadChecksumFile
	}

	actual, err := fileSHA256(installerPath)
	if err != nil {
		return err
	}

	if !strings.EqualFold(actual, expected) {
		return ErrChecksumMismatch
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open downloaded file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash downloaded file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func safeRemove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("removing temp installer failed", "path", path, "error", err)
	}
}
