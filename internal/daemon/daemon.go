package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lydakis/gemini-mcp/internal/config"
	"github.com/lydakis/gemini-mcp/internal/gateway"
	"github.com/lydakis/gemini-mcp/internal/orchestrator"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

const shutdownGrace = 5 * time.Second

var (
	logOutput io.Writer = os.Stderr
	stdin     io.Reader = os.Stdin
	stdout    io.Writer = os.Stdout
	// drainTimeout covers the longest possible in-flight invocation.
	drainTimeout = orchestrator.DefaultTimeout + shutdownGrace
)

func logf(format string, args ...any) {
	fmt.Fprintf(logOutput, "gemini-mcp: "+format+"\n", args...)
}

// Run serves cfg until SIGINT or SIGTERM.
func Run(cfg *config.Config, version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return Serve(ctx, cfg, version)
}

// Serve runs the configured transport until ctx is done. In-flight queries
// are allowed to finish before it returns.
func Serve(ctx context.Context, cfg *config.Config, version string) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if cfg.IsStdio() {
		return serveStdio(ctx, newGateway(cfg, true), version)
	}
	gw := newGateway(cfg, false)

	ln, err := net.Listen("tcp", cfg.Listen.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Listen.Addr(), err)
	}
	logf("listening on http://%s%s (command %q)", ln.Addr(), cfg.Listen.Endpoint, cfg.Command)
	return serveHTTP(ctx, ln, gw, httpOptions(cfg, version))
}

// newGateway wires an orchestrator for cfg. With detach set, queries outlive
// the transport context and only stop on their own timeout.
func newGateway(cfg *config.Config, detach bool) *gateway.Gateway {
	orch := orchestrator.New(cfg.Command)
	orch.SetLogf(logf)
	var runner gateway.Runner = orch
	if detach {
		runner = detachedRunner{orch}
	}
	gw := gateway.New(runner)
	gw.SetLogf(logf)
	return gw
}

// detachedRunner drops cancellation from the caller's context. The stdio
// server hands its own listen context to tool calls, so a shutdown signal
// would otherwise kill queries that drain is meant to wait for.
type detachedRunner struct {
	gateway.Runner
}

func (r detachedRunner) Run(ctx context.Context, payload string) orchestrator.Outcome {
	return r.Runner.Run(context.WithoutCancel(ctx), payload)
}

func httpOptions(cfg *config.Config, version string) gateway.HTTPOptions {
	return gateway.HTTPOptions{
		Version:           version,
		Endpoint:          cfg.Listen.Endpoint,
		HealthPath:        cfg.Health.Path,
		HealthMessage:     cfg.Health.Message,
		HeartbeatInterval: cfg.Heartbeat(),
	}
}

func serveHTTP(ctx context.Context, ln net.Listener, gw *gateway.Gateway, opts gateway.HTTPOptions) error {
	srv := &http.Server{
		Handler:           gw.Handler(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logf("shutting down")
		drain(gw)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			// Streaming sessions never go idle on their own.
			srv.Close() //nolint: errcheck
		}
		return nil
	})
	return g.Wait()
}

func serveStdio(ctx context.Context, gw *gateway.Gateway, version string) error {
	logf("serving MCP over stdio")
	s := server.NewStdioServer(gw.NewMCPServer(version))
	err := s.Listen(ctx, stdin, stdout)
	drain(gw)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("serving stdio: %w", err)
	}
	return nil
}

func drain(gw *gateway.Gateway) {
	if n := gw.InFlight(); n > 0 {
		logf("waiting for %d in-flight queries", n)
	}
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := gw.Drain(ctx); err != nil {
		logf("in-flight queries did not finish: %v", err)
	}
}
