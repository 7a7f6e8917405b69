//go:build unix

package solver

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/pkg/errors"
)

// killProcessGroup starts the command in its own process group and kills the whole group on
// cancellation, so that children of a wrapper script die with it
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}
