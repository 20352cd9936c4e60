// Package mcp hosts the arithmetic tools on a Model Context Protocol server
// and provides a client for calling them.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	Name    string
	Version string
	// Logger receives invocation log lines. Nil discards them.
	Logger *slog.Logger
	// Observers are notified after every tool call, after the metrics
	// collector.
	Observers []Observer
}

// Server is the calc tool host.
type Server struct {
	server    *mcp.Server
	logger    *slog.Logger
	metrics   *MetricsCollector
	observers []Observer
}

// NewServer creates a server with both arithmetic tools and the metrics
// resource registered.
func NewServer(opts Options) *Server {
	if opts.Name == "" {
		opts.Name = "add_integers"
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		logger:  opts.Logger,
		metrics: NewMetricsCollector(),
	}
	s.observers = append([]Observer{s.metrics}, opts.Observers...)

	impl := &mcp.Implementation{
		Name:    opts.Name,
		Version: opts.Version,
	}
	s.server = mcp.NewServer(impl, &mcp.ServerOptions{
		Instructions: "Integer arithmetic tools: add_integers and divide_integers.",
	})

	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying go-sdk server.
func (s *Server) MCPServer() *mcp.Server { return s.server }

// Metrics returns the server's metrics collector.
func (s *Server) Metrics() *MetricsCollector { return s.metrics }

// Run serves a single session over transport until the client disconnects
// or ctx is cancelled.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// RunStdio serves over standard input/output.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Serving tools over stdio")
	return s.Run(ctx, &mcp.StdioTransport{})
}

// Connect starts a session over transport without blocking.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

// HTTPHandler returns a streamable HTTP handler serving this server.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// ListenAndServe serves the streamable HTTP transport on addr until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.InfoContext(ctx, fmt.Sprintf("Serving tools over http on %s", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         MetricsURI,
		Name:        "metrics",
		Description: "Per-tool call counts, error rates and response times",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		data, err := json.Marshal(s.metrics.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metrics: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      MetricsURI,
				MIMEType: "application/json",
				Text:     string(data),
			}},
		}, nil
	})
}

func (s *Server) notify(ctx context.Context, inv Invocation) {
	for _, o := range s.observers {
		o.ObserveInvocation(ctx, inv)
	}
	s.logger.DebugContext(ctx, "tool call finished",
		slog.String("invocation_id", inv.ID),
		slog.String("tool", inv.Tool),
		slog.Duration("duration", inv.Duration),
		slog.Bool("is_error", inv.Err != nil))
}
