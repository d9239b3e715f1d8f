package updater

import (
	"fmt"
	"os/exec"
	"strconv"

	"github.com/jonalbr/heat-sheet-pdf-highlighter/internal/paths"
)

// RunInstallerScript spawns the installer helper script as a detached
// process with the host pid and the downloaded installer path as arguments.
// The script waits for the host pid to exit before overwriting its files.
func RunInstallerScript(pid int, installerPath string) error {
	script, err := paths.UpdateScript()
	if err != nil {
		return err
	}

	cmd := exec.Command(script, strconv.Itoa(pid), installerPath)
	detachProcess(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start installer script: %w", err)
	}
	// Detach fully; the host is about to exit.
	return cmd.Process.Release()
}
