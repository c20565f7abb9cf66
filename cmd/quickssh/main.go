package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ganot/quickssh/internal/config"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// cli carries state shared by all subcommands.
type cli struct {
	configPath string
	cfg        config.Config
	logger     *slog.Logger
	logFile    io.Closer
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "quickssh",
		Short: "Manage and open SSH session shortcuts",
		Long: `quickssh keeps a tree of SSH sessions grouped in folders, stores their
passwords obfuscated, renders an editor menu from the tree and launches the
SSH client for a chosen session. It also serves the store over MCP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.logFile != nil {
				return c.logFile.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a YAML config file (default $"+config.EnvPrefix+"_CONFIG_PATH)")

	root.AddCommand(
		newListCmd(c),
		newMenuCmd(c),
		newOpenCmd(c),
		newNewCmd(c),
		newRemoveCmd(c),
		newReloadCmd(c),
		newWatchCmd(c),
		newHistoryCmd(c),
		newEncodeCmd(c),
		newDecodeCmd(c),
		newServeCmd(c),
	)
	return root
}

// setup loads configuration and builds the logger. Logs go to stderr so
// stdout stays clean for command output and the stdio transport; an HTTP
// server logs to stdout.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	c.cfg = cfg

	logWriter := cmd.ErrOrStderr()
	if cmd.Name() == "serve" && cfg.Transport.Mode == "http" {
		logWriter = cmd.OutOrStdout()
	}
	if logPath := os.Getenv(config.EnvPrefix + "_LOG_PATH"); logPath != "" {
		fileWriter, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "log file error: %v\n", err)
		} else {
			c.logFile = fileWriter
			logWriter = fileWriter
		}
	}
	c.logger = slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))
	return nil
}

// open wires the services for a command. The caller closes the result.
func (c *cli) open(cmd *cobra.Command) (*app, error) {
	return newApp(c.cfg, c.logger, cmd.OutOrStdout())
}
