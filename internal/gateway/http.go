package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
)

// HTTPOptions configures the HTTP surface around the MCP endpoint.
type HTTPOptions struct {
	Version           string
	Endpoint          string
	HealthPath        string
	HealthMessage     string
	HeartbeatInterval time.Duration
}

type serviceInfo struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// Handler serves the MCP streamable HTTP endpoint, a health check and a
// JSON service descriptor at the root.
func (g *Gateway) Handler(opts HTTPOptions) http.Handler {
	streamOpts := []server.StreamableHTTPOption{
		server.WithEndpointPath(opts.Endpoint),
	}
	if opts.HeartbeatInterval > 0 {
		streamOpts = append(streamOpts, server.WithHeartbeatInterval(opts.HeartbeatInterval))
	}
	streamable := server.NewStreamableHTTPServer(g.NewMCPServer(opts.Version), streamOpts...)

	mux := http.NewServeMux()
	mux.Handle(opts.Endpoint, streamable)
	mux.HandleFunc("GET "+opts.HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(opts.HealthMessage))
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(serviceInfo{
			Service:   ServerName,
			Version:   opts.Version,
			Endpoints: []string{opts.Endpoint, opts.HealthPath},
		})
	})
	return mux
}
