//go:build !windows

package updater

import (
	"os/exec"
	"syscall"
)

// detachProcess puts the spawned installer script in its own session so it
// survives the host process exiting.
func detachProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
