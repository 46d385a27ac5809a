package orchestrator

import (
	"errors"
	"fmt"
	"time"
)

const (
	// EmptyResponse replaces the output of a clean exit that printed nothing.
	EmptyResponse = "No response from Gemini CLI"
	unknownError  = "Unknown error"
)

// ErrTimeout matches every TimeoutError via errors.Is.
var ErrTimeout = errors.New("gemini-cli timed out")

// Kind classifies how an invocation ended.
type Kind int

const (
	Success Kind = iota
	SpawnFailure
	WriteFailure
	Timeout
	ExitFailure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case SpawnFailure:
		return "spawn_failure"
	case WriteFailure:
		return "write_failure"
	case Timeout:
		return "timeout"
	case ExitFailure:
		return "exit_failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the single terminal result of an invocation.
type Outcome struct {
	Kind Kind
	// Text is the trimmed stdout for Success and the captured stderr for ExitFailure.
	Text     string
	ExitCode int
	// Empty reports that a successful run printed nothing and Text holds EmptyResponse.
	Empty bool
	Err   error
}

// Error returns the caller-facing error, or nil for Success.
func (o Outcome) Error() error {
	if o.Kind == Success {
		return nil
	}
	if o.Err != nil {
		return o.Err
	}
	return fmt.Errorf("gemini-cli failed (%s)", o.Kind)
}

// SpawnError reports that the operating system could not start the command.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("Failed to spawn gemini-cli: %v. Make sure gemini-cli is installed and available in PATH.", e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// WriteError reports that the payload could not be delivered on stdin.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("Failed to write to gemini-cli: %v", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ExitError reports a non-zero exit status.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("gemini-cli exited with code %d. Error: %s", e.Code, e.Stderr)
}

// TimeoutError reports that the process was killed before it exited on its own.
type TimeoutError struct {
	After time.Duration
	// Cause is set when the caller's context ended the run rather than the deadline.
	Cause error
}

func (e *TimeoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Gemini CLI query canceled: %v", e.Cause)
	}
	return "Gemini CLI query timed out after " + formatSeconds(e.After)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

func (e *TimeoutError) Unwrap() error { return e.Cause }

func formatSeconds(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%d seconds", int(d/time.Second))
	}
	return d.String()
}
