package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const (
	stubModeEnv    = "GO_WANT_GEMINI_STUB"
	stubPIDFileEnv = "GEMINI_STUB_PID_FILE"
)

// TestMain lets the test binary stand in for the external command. The
// orchestrator spawns it with no arguments, so the mode travels in the
// inherited environment.
func TestMain(m *testing.M) {
	if mode := os.Getenv(stubModeEnv); mode != "" {
		os.Exit(runStub(mode))
	}
	os.Exit(m.Run())
}

func runStub(mode string) int {
	switch mode {
	case "echo":
		in, _ := io.ReadAll(os.Stdin)
		os.Stdout.Write(in)
		return 0
	case "empty":
		io.ReadAll(os.Stdin) //nolint: errcheck
		fmt.Fprint(os.Stdout, " \n\t ")
		return 0
	case "fail":
		io.ReadAll(os.Stdin) //nolint: errcheck
		fmt.Fprint(os.Stderr, "boom")
		return 2
	case "fail-silent":
		io.ReadAll(os.Stdin) //nolint: errcheck
		return 7
	case "sleep":
		if path := os.Getenv(stubPIDFileEnv); path != "" {
			os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0600) //nolint: errcheck
		}
		io.ReadAll(os.Stdin) //nolint: errcheck
		fmt.Fprint(os.Stdout, "partial")
		time.Sleep(time.Minute)
		fmt.Fprint(os.Stdout, "late")
		return 0
	case "close-stdin":
		os.Stdin.Close()
		time.Sleep(time.Minute)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown stub mode %q", mode)
		return 99
	}
}

func newStubOrchestrator(t *testing.T, mode string) *Orchestrator {
	t.Helper()
	t.Setenv(stubModeEnv, mode)
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable() error = %v", err)
	}
	return New(exe)
}

func TestDefaultTimeoutIsThirtySeconds(t *testing.T) {
	if DefaultTimeout != 30*time.Second {
		t.Fatalf("DefaultTimeout = %s, want %s", DefaultTimeout, 30*time.Second)
	}
}

func TestNewDefaultsCommandAndTimeout(t *testing.T) {
	o := New("  ")
	if o.Command() != DefaultCommand {
		t.Fatalf("Command() = %q, want %q", o.Command(), DefaultCommand)
	}
	if o.timeout != DefaultTimeout {
		t.Fatalf("timeout = %s, want %s", o.timeout, DefaultTimeout)
	}
}

func TestRunEchoReturnsTrimmedPayload(t *testing.T) {
	o := newStubOrchestrator(t, "echo")

	out := o.Run(context.Background(), "  what happened today?\n\n")
	if out.Kind != Success {
		t.Fatalf("Run() kind = %s, want %s (err = %v)", out.Kind, Success, out.Err)
	}
	if out.Text != "what happened today?" {
		t.Fatalf("Run() text = %q, want %q", out.Text, "what happened today?")
	}
	if out.Empty {
		t.Fatal("Run() Empty = true, want false")
	}
	if err := out.Error(); err != nil {
		t.Fatalf("Outcome.Error() = %v, want nil", err)
	}
}

func TestRunPassesLargePayloadUnmodified(t *testing.T) {
	o := newStubOrchestrator(t, "echo")
	payload := strings.Repeat("abcdefghij", 100_000)

	out := o.Run(context.Background(), payload)
	if out.Kind != Success {
		t.Fatalf("Run() kind = %s, want %s (err = %v)", out.Kind, Success, out.Err)
	}
	if len(out.Text) != len(payload) {
		t.Fatalf("len(Run().Text) = %d, want %d", len(out.Text), len(payload))
	}
}

func TestRunEmptyOutputUsesPlaceholder(t *testing.T) {
	o := newStubOrchestrator(t, "empty")

	out := o.Run(context.Background(), "hello")
	if out.Kind != Success {
		t.Fatalf("Run() kind = %s, want %s", out.Kind, Success)
	}
	if out.Text != EmptyResponse {
		t.Fatalf("Run() text = %q, want %q", out.Text, EmptyResponse)
	}
	if !out.Empty {
		t.Fatal("Run() Empty = false, want true")
	}
}

func TestRunNonZeroExitCarriesCodeAndStderr(t *testing.T) {
	o := newStubOrchestrator(t, "fail")

	out := o.Run(context.Background(), "x")
	if out.Kind != ExitFailure {
		t.Fatalf("Run() kind = %s, want %s", out.Kind, ExitFailure)
	}
	if out.ExitCode != 2 {
		t.Fatalf("Run() exit code = %d, want 2", out.ExitCode)
	}
	if out.Text != "boom" {
		t.Fatalf("Run() text = %q, want %q", out.Text, "boom")
	}

	var exitErr *ExitError
	if !errors.As(out.Error(), &exitErr) {
		t.Fatalf("Outcome.Error() = %T, want *ExitError", out.Error())
	}
	want := "gemini-cli exited with code 2. Error: boom"
	if out.Error().Error() != want {
		t.Fatalf("Outcome.Error() = %q, want %q", out.Error().Error(), want)
	}
}

func TestRunNonZeroExitWithoutStderrUsesUnknownError(t *testing.T) {
	o := newStubOrchestrator(t, "fail-silent")

	out := o.Run(context.Background(), "x")
	if out.Kind != ExitFailure || out.ExitCode != 7 {
		t.Fatalf("Run() = (%s, %d), want (%s, 7)", out.Kind, out.ExitCode, ExitFailure)
	}
	want := "gemini-cli exited with code 7. Error: Unknown error"
	if out.Error().Error() != want {
		t.Fatalf("Outcome.Error() = %q, want %q", out.Error().Error(), want)
	}
}

func TestRunTimeoutDiscardsPartialOutput(t *testing.T) {
	o := newStubOrchestrator(t, "sleep")
	o.timeout = 300 * time.Millisecond

	start := time.Now()
	out := o.Run(context.Background(), "x")
	if out.Kind != Timeout {
		t.Fatalf("Run() kind = %s, want %s", out.Kind, Timeout)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Fatalf("Run() took %s, want close to the %s timeout", elapsed, o.timeout)
	}
	if out.Text != "" {
		t.Fatalf("Run() text = %q, want empty", out.Text)
	}
	if !errors.Is(out.Error(), ErrTimeout) {
		t.Fatalf("Outcome.Error() = %v, want ErrTimeout", out.Error())
	}
}

func TestTimeoutMessageUsesWholeSeconds(t *testing.T) {
	err := &TimeoutError{After: DefaultTimeout}
	want := "Gemini CLI query timed out after 30 seconds"
	if err.Error() != want {
		t.Fatalf("TimeoutError.Error() = %q, want %q", err.Error(), want)
	}
}

func TestRunContextCancelKillsProcess(t *testing.T) {
	o := newStubOrchestrator(t, "sleep")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	out := o.Run(ctx, "x")
	if out.Kind != Timeout {
		t.Fatalf("Run() kind = %s, want %s", out.Kind, Timeout)
	}
	if !errors.Is(out.Error(), context.DeadlineExceeded) {
		t.Fatalf("Outcome.Error() = %v, want context.DeadlineExceeded", out.Error())
	}
	if !errors.Is(out.Error(), ErrTimeout) {
		t.Fatalf("Outcome.Error() = %v, want ErrTimeout", out.Error())
	}
}

func TestRunWriteFailureWhenChildClosesStdin(t *testing.T) {
	o := newStubOrchestrator(t, "close-stdin")
	o.timeout = 10 * time.Second

	// Larger than any pipe buffer so the write cannot complete unread.
	out := o.Run(context.Background(), strings.Repeat("x", 8<<20))
	if out.Kind != WriteFailure {
		t.Fatalf("Run() kind = %s, want %s (err = %v)", out.Kind, WriteFailure, out.Err)
	}
	var writeErr *WriteError
	if !errors.As(out.Error(), &writeErr) {
		t.Fatalf("Outcome.Error() = %T, want *WriteError", out.Error())
	}
	if !strings.HasPrefix(out.Error().Error(), "Failed to write to gemini-cli: ") {
		t.Fatalf("Outcome.Error() = %q, want write failure prefix", out.Error().Error())
	}
}

func TestRunMissingCommandIsSpawnFailureWithoutTimer(t *testing.T) {
	var timers atomic.Int32
	oldAfterFunc := afterFunc
	afterFunc = func(d time.Duration, f func()) *time.Timer {
		timers.Add(1)
		return oldAfterFunc(d, f)
	}
	defer func() { afterFunc = oldAfterFunc }()

	o := New("gemini-mcp-this-command-does-not-exist")
	out := o.Run(context.Background(), "x")
	if out.Kind != SpawnFailure {
		t.Fatalf("Run() kind = %s, want %s", out.Kind, SpawnFailure)
	}
	if n := timers.Load(); n != 0 {
		t.Fatalf("timers started = %d, want 0", n)
	}

	var spawnErr *SpawnError
	if !errors.As(out.Error(), &spawnErr) {
		t.Fatalf("Outcome.Error() = %T, want *SpawnError", out.Error())
	}
	msg := out.Error().Error()
	if !strings.HasPrefix(msg, "Failed to spawn gemini-cli: ") || !strings.HasSuffix(msg, "available in PATH.") {
		t.Fatalf("Outcome.Error() = %q, want spawn failure message", msg)
	}
}

func TestRunNonExecutableFileIsSpawnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gemini")
	if err := os.WriteFile(path, []byte("not a program"), 0600); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	out := New(path).Run(context.Background(), "x")
	if out.Kind != SpawnFailure {
		t.Fatalf("Run() kind = %s, want %s", out.Kind, SpawnFailure)
	}
	if !errors.Is(out.Error(), os.ErrPermission) {
		t.Fatalf("Outcome.Error() = %v, want permission error", out.Error())
	}
}

func TestRunTwiceYieldsIndependentIdenticalOutcomes(t *testing.T) {
	o := newStubOrchestrator(t, "echo")

	first := o.Run(context.Background(), "same payload")
	second := o.Run(context.Background(), "same payload")
	if first.Kind != Success || second.Kind != Success {
		t.Fatalf("Run() kinds = (%s, %s), want both %s", first.Kind, second.Kind, Success)
	}
	if first.Text != second.Text {
		t.Fatalf("Run() texts = (%q, %q), want identical", first.Text, second.Text)
	}
}

func TestRunConcurrentInvocationsDoNotShareOutput(t *testing.T) {
	o := newStubOrchestrator(t, "echo")

	const n = 8
	var wg sync.WaitGroup
	results := make([]Outcome, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = o.Run(context.Background(), fmt.Sprintf("payload-%d", i))
		}(i)
	}
	wg.Wait()

	for i, out := range results {
		want := fmt.Sprintf("payload-%d", i)
		if out.Kind != Success || out.Text != want {
			t.Fatalf("results[%d] = (%s, %q), want (%s, %q)", i, out.Kind, out.Text, Success, want)
		}
	}
}

func TestRunLogsInvocationLifecycle(t *testing.T) {
	o := newStubOrchestrator(t, "echo")

	var mu sync.Mutex
	var lines []string
	o.SetLogf(func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, fmt.Sprintf(format, args...))
	})

	o.Run(context.Background(), "hi")

	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 2 {
		t.Fatalf("log lines = %q, want 2 lines", lines)
	}
	if !strings.Contains(lines[0], "started") || !strings.Contains(lines[1], "success") {
		t.Fatalf("log lines = %q, want started then success", lines)
	}
}
