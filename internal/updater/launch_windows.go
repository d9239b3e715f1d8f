//go:build windows

package updater

import (
	"os/exec"
	"syscall"
)

const createNoWindow = 0x08000000

// detachProcess hides the console window of the spawned installer script.
func detachProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: createNoWindow,
	}
}
