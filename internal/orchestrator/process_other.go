//go:build !unix

package orchestrator

import (
	"os"
	"os/exec"
)

func configureProcessGroup(*exec.Cmd) {}

func killProcessGroup(p *os.Process) {
	_ = p.Kill()
}
