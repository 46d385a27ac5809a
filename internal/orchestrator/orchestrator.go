package orchestrator

import (
	"context"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the fixed wall-clock limit for one invocation.
	DefaultTimeout = 30 * time.Second
	// DefaultCommand is resolved on PATH at spawn time.
	DefaultCommand = "gemini"
)

var afterFunc = time.AfterFunc

// Orchestrator runs one child process per invocation and classifies how it ended.
// It holds no per-invocation state, so concurrent Run calls are independent.
type Orchestrator struct {
	command string
	timeout time.Duration
	logf    func(format string, args ...any)
}

// New creates an orchestrator for command. An empty command means DefaultCommand.
func New(command string) *Orchestrator {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	return &Orchestrator{
		command: command,
		timeout: DefaultTimeout,
		logf:    func(string, ...any) {},
	}
}

// SetLogf installs a diagnostic line sink.
func (o *Orchestrator) SetLogf(fn func(format string, args ...any)) {
	if fn == nil {
		fn = func(string, ...any) {}
	}
	o.logf = fn
}

// Command returns the executable this orchestrator spawns.
func (o *Orchestrator) Command() string {
	return o.command
}

// Run feeds payload to a fresh child process and returns exactly one Outcome.
//
// Cancelling ctx kills the child the same way the deadline does; the outcome
// is then a Timeout whose error carries ctx.Err().
func (o *Orchestrator) Run(ctx context.Context, payload string) Outcome {
	inv := newInvocation(payload, o.timeout)
	inv.transition(Spawning)

	h, err := startProcess(o.command)
	if err != nil {
		inv.resolve(SpawnFailed, Outcome{
			Kind:     SpawnFailure,
			ExitCode: -1,
			Err:      &SpawnError{Command: o.command, Err: err},
		})
		out := <-inv.Done()
		o.logf("invocation %s: spawn failed: %v", inv.ID, err)
		return out
	}
	inv.transition(Running)
	o.logf("invocation %s: started %s (pid %d, %d bytes)", inv.ID, o.command, h.pid(), len(payload))

	killWith := func(state State, out Outcome) {
		if inv.resolve(state, out) {
			h.kill()
		}
	}

	timer := afterFunc(o.timeout, func() {
		killWith(TimedOut, Outcome{Kind: Timeout, ExitCode: -1, Err: &TimeoutError{After: o.timeout}})
	})
	defer timer.Stop()

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		if err := h.writeInput(payload); err != nil {
			killWith(WriteFailed, Outcome{Kind: WriteFailure, ExitCode: -1, Err: &WriteError{Err: err}})
		}
	}()

	go func() {
		code, waitErr := h.wait()
		timer.Stop()
		// A failed write resolves before writeDone closes, so it always beats the exit.
		<-writeDone
		inv.resolve(classifyExit(code, waitErr, h))
	}()

	var out Outcome
	select {
	case out = <-inv.Done():
	case <-ctx.Done():
		killWith(TimedOut, Outcome{Kind: Timeout, ExitCode: -1, Err: &TimeoutError{After: o.timeout, Cause: ctx.Err()}})
		out = <-inv.Done()
	}

	o.logf("invocation %s: %s after %s", inv.ID, out.Kind, time.Since(inv.StartedAt).Round(time.Millisecond))
	return out
}

func classifyExit(code int, waitErr error, h *processHandle) (State, Outcome) {
	if waitErr != nil {
		return ExitFailed, Outcome{
			Kind:     ExitFailure,
			ExitCode: code,
			Text:     waitErr.Error(),
			Err:      &ExitError{Code: code, Stderr: waitErr.Error()},
		}
	}

	if code == 0 {
		text := strings.TrimSpace(h.outBuf.String())
		if text == "" {
			return Succeeded, Outcome{Kind: Success, Text: EmptyResponse, Empty: true}
		}
		return Succeeded, Outcome{Kind: Success, Text: text}
	}

	stderr := h.errBuf.String()
	msg := stderr
	if msg == "" {
		msg = unknownError
	}
	return ExitFailed, Outcome{
		Kind:     ExitFailure,
		ExitCode: code,
		Text:     msg,
		Err:      &ExitError{Code: code, Stderr: msg},
	}
}
