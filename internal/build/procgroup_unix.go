//go:build !windows

package build

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup puts the packager in its own process group and
// makes cancellation SIGKILL the whole group, so helpers the packager
// spawned cannot outlive it.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
