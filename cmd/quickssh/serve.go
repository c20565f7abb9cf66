package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ganot/quickssh/internal/mcp"
	"github.com/ganot/quickssh/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the session store over MCP",
		Long: `Serve the session store as an MCP server. transport.mode selects stdio
(the default) or streamable HTTP on server.host:server.port. When
watch.enabled is set and the backend is a file, edits to the sessions file
trigger a reload.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if w := a.watcher(); w != nil && a.cfg.Watch.Enabled {
				go func() {
					if err := w.Run(ctx); err != nil {
						a.logger.Error("watcher stopped", "error", err)
					}
				}()
			}

			mcpServer := mcp.NewServer(mcp.Config{
				Services: mcp.Services{
					Store:    a.store,
					Activity: a.activity,
				},
				TransportMode: a.cfg.Transport.Mode,
				Version:       version,
				Logger:        a.logger,
			})

			if a.cfg.Transport.Mode == "http" {
				return runHTTPMode(ctx, a, mcpServer)
			}
			return runStdioMode(ctx, a.logger, mcpServer)
		},
	}
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	// Run blocks until stdin closes or ctx is cancelled.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, a *app, mcpServer *sdkmcp.Server) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	opts := transport.Options{Logger: a.logger}
	if a.cfg.Auth.Token != "" {
		opts.Auth = transport.AuthMiddleware(transport.StaticToken(a.cfg.Auth.Token))
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           transport.NewServer(mcpHandler, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", addr, "auth", a.cfg.Auth.Token != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return waitForShutdown(ctx, a.logger, httpServer, errCh)
}

func waitForShutdown(ctx context.Context, logger *slog.Logger, server *http.Server, errCh <-chan error) error {
	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
