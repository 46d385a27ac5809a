//go:build unix

package orchestrator

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureProcessGroup places the child in its own process group so a
// timeout also reaches anything it forked.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(p *os.Process) {
	if err := unix.Kill(-p.Pid, unix.SIGKILL); err != nil {
		_ = p.Kill()
	}
}
