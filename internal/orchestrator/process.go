package orchestrator

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

var execCommandFn = exec.Command

// processHandle owns one child process and its three pipes.
type processHandle struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	outBuf bytes.Buffer
	errBuf bytes.Buffer
	readWG sync.WaitGroup

	mu     sync.Mutex
	exited bool
}

// startProcess launches command with no arguments. On failure every pipe
// created so far is closed before returning.
func startProcess(command string) (*processHandle, error) {
	cmd := execCommandFn(command)
	configureProcessGroup(cmd)

	h := &processHandle{cmd: cmd}
	var err error
	if h.stdin, err = cmd.StdinPipe(); err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	if h.stdout, err = cmd.StdoutPipe(); err != nil {
		h.closePipes()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if h.stderr, err = cmd.StderrPipe(); err != nil {
		h.closePipes()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		h.closePipes()
		return nil, err
	}

	h.readWG.Add(2)
	go h.drain(h.stdout, &h.outBuf)
	go h.drain(h.stderr, &h.errBuf)
	return h, nil
}

func (h *processHandle) drain(r io.Reader, buf *bytes.Buffer) {
	defer h.readWG.Done()
	chunk := make([]byte, 32*1024)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if err != nil {
			return
		}
	}
}

// writeInput delivers payload and closes stdin to signal end of input.
func (h *processHandle) writeInput(payload string) error {
	_, werr := io.WriteString(h.stdin, payload)
	cerr := h.stdin.Close()
	if werr != nil {
		return werr
	}
	if cerr != nil && !errors.Is(cerr, io.ErrClosedPipe) {
		return cerr
	}
	return nil
}

// wait blocks until both streams hit EOF and the process is reaped.
// The buffers are safe to read after it returns.
func (h *processHandle) wait() (int, error) {
	h.readWG.Wait()
	err := h.cmd.Wait()

	h.mu.Lock()
	h.exited = true
	h.mu.Unlock()

	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// kill sends SIGKILL to the process group. Best effort: errors are dropped.
func (h *processHandle) kill() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.exited || h.cmd.Process == nil {
		return
	}
	killProcessGroup(h.cmd.Process)
}

func (h *processHandle) pid() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h *processHandle) closePipes() {
	for _, c := range []io.Closer{h.stdin, h.stdout, h.stderr} {
		if c != nil {
			c.Close() //nolint: errcheck
		}
	}
}
