package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/daemon"
	"github.com/1broseidon/tilewm/internal/runtimepath"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tilewm",
		Short:         "Tiling window manager for X11",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: $XDG_CONFIG_HOME/tilewm/config.yaml)")

	root.AddCommand(
		newDaemonCmd(),
		newReplayCmd(),
		newStatusCmd(),
		newWatchCmd(),
		newWorkspaceCmd(),
		newLayoutCmd(),
		newActionCmd("retile", "Force a full relayout", func(c daemonClient) error { return c.Retile() }),
		newActionCmd("float", "Toggle floating for the focused window", func(c daemonClient) error { return c.ToggleFloating() }),
		newActionCmd("ffm", "Toggle focus-follows-mouse", func(c daemonClient) error { return c.ToggleFocusFollowsMouse() }),
		newActionCmd("debug", "Log the daemon's internal state", func(c daemonClient) error { return c.Debug() }),
		newConfigCmd(),
		newMCPCmd(),
	)
	return root
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Load()
	}
	res, err := config.LoadFromPath(configPath)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// recordDefault is the --record value used when the flag is given without a
// file; the session then goes to the runtime directory.
const recordDefault = "-"

func newDaemonCmd() *cobra.Command {
	var recordPath string
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Start the tilewm daemon (foreground)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			switch recordPath {
			case "":
			case recordDefault:
				if cfg.RecordPath, err = runtimepath.RecordPath(); err != nil {
					return err
				}
			default:
				cfg.RecordPath = recordPath
			}
			logger := newLogger(cfg.SlogLevel())
			slog.SetDefault(logger)
			logger.Info("configuration loaded",
				"layout", cfg.DefaultLayout,
				"gap", cfg.GapSize,
				"animate", cfg.Animate,
				"focus_follows_mouse", cfg.FocusFollowsMouse,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return daemon.Run(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&recordPath, "record", "", "write every handled event to this file for later replay")
	cmd.Flags().Lookup("record").NoOptDefVal = recordDefault
	return cmd
}

func newMCPCmd() *cobra.Command {
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Model Context Protocol integration",
	}
	mcpCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Long: "Start the MCP server on stdio. It talks to a running daemon over the\n" +
			"control socket and is designed to be launched by an MCP client.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runMCPServe(ctx)
		},
	})
	return mcpCmd
}
