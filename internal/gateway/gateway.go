package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/lydakis/gemini-mcp/internal/orchestrator"
)

const logPreviewRunes = 100

var (
	// ErrEmptyQuery rejects missing or whitespace-only text before any process starts.
	ErrEmptyQuery = errors.New("Query text cannot be empty")
	// ErrShuttingDown rejects queries that arrive after Drain has begun.
	ErrShuttingDown = errors.New("server is shutting down")
)

// Runner executes one payload to completion.
type Runner interface {
	Run(ctx context.Context, payload string) orchestrator.Outcome
}

// Gateway validates queries, forwards them to a Runner and tracks how many
// are in flight so shutdown can wait for them.
type Gateway struct {
	runner Runner
	logf   func(format string, args ...any)

	mu       sync.Mutex
	inFlight int
	closing  bool
	idle     chan struct{}
	idleDone bool
}

// New creates a gateway in front of runner.
func New(runner Runner) *Gateway {
	return &Gateway{
		runner: runner,
		logf:   func(string, ...any) {},
		idle:   make(chan struct{}),
	}
}

// SetLogf installs a diagnostic line sink.
func (g *Gateway) SetLogf(fn func(format string, args ...any)) {
	if fn == nil {
		fn = func(string, ...any) {}
	}
	g.logf = fn
}

// Query runs text through the runner and returns its output. The error
// message is the runner's, unmodified.
func (g *Gateway) Query(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyQuery
	}
	if !g.begin() {
		return "", ErrShuttingDown
	}
	defer g.end()

	g.logf("received query: %s", preview(text))
	out := g.runner.Run(ctx, text)
	if err := out.Error(); err != nil {
		g.logf("query failed: %v", err)
		return "", err
	}
	g.logf("query completed successfully (%d characters)", len(out.Text))
	return out.Text, nil
}

// InFlight returns the number of queries currently running.
func (g *Gateway) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// Drain stops accepting new queries and waits until in-flight ones finish
// or ctx ends.
func (g *Gateway) Drain(ctx context.Context) error {
	g.mu.Lock()
	g.closing = true
	if g.inFlight == 0 {
		g.markIdleLocked()
	}
	g.mu.Unlock()

	select {
	case <-g.idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gateway) begin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closing {
		return false
	}
	g.inFlight++
	return true
}

func (g *Gateway) end() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight--
	if g.closing && g.inFlight == 0 {
		g.markIdleLocked()
	}
}

func (g *Gateway) markIdleLocked() {
	if g.idleDone {
		return
	}
	g.idleDone = true
	close(g.idle)
}

func preview(text string) string {
	r := []rune(text)
	if len(r) <= logPreviewRunes {
		return text
	}
	return string(r[:logPreviewRunes]) + "..."
}
