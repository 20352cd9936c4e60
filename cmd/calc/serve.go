package calc

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/liliang-cn/calc-mcp/pkg/config"
	"github.com/liliang-cn/calc-mcp/pkg/log"
	"github.com/liliang-cn/calc-mcp/pkg/mcp"
	"github.com/liliang-cn/calc-mcp/pkg/usage"
	"github.com/spf13/cobra"
)

var (
	serveTransport string
	serveAddr      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP tool server",
	Long: `Start the MCP tool server. The stdio transport reads requests from standard
input and writes responses to standard output; logs go to the configured file.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "transport to serve: stdio or http (default from config)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address for the http transport (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	transport := cfg.Server.Transport
	if serveTransport != "" {
		transport = serveTransport
	}
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Close()

	srv, cleanup, err := buildServer(logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch transport {
	case config.TransportHTTP:
		if addr == "" {
			return fmt.Errorf("listen address is required for the http transport")
		}
		return srv.ListenAndServe(ctx, addr)
	case config.TransportStdio:
		return srv.RunStdio(ctx)
	default:
		return fmt.Errorf("unsupported transport: %s", transport)
	}
}

// buildServer wires the tool host with its observers from the loaded
// configuration. cleanup releases the observers' resources.
func buildServer(logger *log.Logger) (*mcp.Server, func(), error) {
	var observers []mcp.Observer
	cleanup := func() {}

	if cfg.Usage.Enabled {
		service, err := usage.NewService(cfg.Usage.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open usage journal: %w", err)
		}
		observers = append(observers, mcp.NewUsageObserver(service, logger.WithModule("usage")))
		cleanup = func() {
			if err := service.Close(); err != nil {
				logger.Warnf("failed to close usage journal: %v", err)
			}
		}
	}

	srv := mcp.NewServer(mcp.Options{
		Name:      cfg.Server.Name,
		Version:   cfg.Server.Version,
		Logger:    logger.Logger,
		Observers: observers,
	})
	return srv, cleanup, nil
}
