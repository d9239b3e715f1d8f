package cmd

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/updater"
	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/version"
)

// consoleDialogs implements the updater dialog surface on a terminal. The
// updater runs on a worker goroutine; progress state is kept in atomics and
// only rendered from the methods the worker itself calls.
type consoleDialogs struct {
	out       io.Writer
	in        io.Reader
	assumeYes bool

	total     atomic.Int64
	progress  atomic.Int64
	cancelled atomic.Bool
}

func newConsoleDialogs(out io.Writer, in io.Reader, assumeYes bool) *consoleDialogs {
	return &consoleDialogs{out: out, in: in, assumeYes: assumeYes}
}

func (d *consoleDialogs) ShowUpToDate() {
	fmt.Fprintln(d.out, "You are up to date.")
}

func (d *consoleDialogs) ShowUpdateAvailable(v version.Version) updater.Choice {
	if d.assumeYes {
		fmt.Fprintf(d.out, "Version %s is available, installing.\n", v)
		return updater.ChoiceYes
	}

	switch askThreeWay(d.out, d.in, fmt.Sprintf("Version %s is available. Install now?", v)) {
	case "yes":
		return updater.ChoiceYes
	case "no":
		return updater.ChoiceNo
	default:
		return updater.ChoiceCancel
	}
}

func (d *consoleDialogs) ShowUpdateReminderChoice() bool {
	if d.assumeYes {
		return false
	}
	return askYesNo(d.out, d.in, "Stop reminding you about this version?", false)
}

func (d *consoleDialogs) ShowUpdateErrorRetry(message string) bool {
	fmt.Fprintf(d.out, "Update check failed: %s\n", message)
	if d.assumeYes {
		return false
	}
	return askYesNo(d.out, d.in, "Retry?", false)
}

func (d *consoleDialogs) ShowDownloadError(message string) {
	fmt.Fprintf(d.out, "Download failed: %s\n", message)
}

func (d *consoleDialogs) StartDownloadUI() {
	d.progress.Store(0)
	d.total.Store(0)
	fmt.Fprintln(d.out, "Downloading installer...")
}

func (d *consoleDialogs) SetupDownloadProgress(totalBytes int64) {
	d.total.Store(totalBytes)
}

func (d *consoleDialogs) UpdateDownloadProgress(deltaBytes int64) {
	d.progress.Add(deltaBytes)
}

func (d *consoleDialogs) UpdateDownloadStatus(start time.Time, totalBytes int64) {
	received := d.progress.Load()
	elapsed := time.Since(start).Seconds()
	if elapsed <= 0 {
		return
	}
	speed := float64(received) / elapsed
	if totalBytes > 0 {
		fmt.Fprintf(d.out, "\r%3.0f%% (%s / %s, %s/s)",
			float64(received)/float64(totalBytes)*100,
			formatBytes(received), formatBytes(totalBytes), formatBytes(int64(speed)))
	} else {
		fmt.Fprintf(d.out, "\r%s (%s/s)", formatBytes(received), formatBytes(int64(speed)))
	}
}

func (d *consoleDialogs) GetProgressValue() int64 {
	return d.progress.Load()
}

func (d *consoleDialogs) IsDownloadCancelled() bool {
	return d.cancelled.Load()
}

func (d *consoleDialogs) FinishDownloadUI() {
	fmt.Fprintf(d.out, "\rDownload complete (%s).\n", formatBytes(d.progress.Load()))
}

func (d *consoleDialogs) CloseApplication() {
	fmt.Fprintln(d.out, "Closing to run the installer...")
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}
