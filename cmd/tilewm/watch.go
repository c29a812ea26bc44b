package main

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/tilewm/internal/ipc"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream workspace and window changes as JSON lines",
		Long: "Print one JSON object per workspace switch, visible-window change or\n" +
			"title change until interrupted. Intended as a status bar feed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			enc := json.NewEncoder(cmd.OutOrStdout())
			return ipc.NewClient().Watch(ctx, func(ev ipc.Event) error {
				return enc.Encode(ev)
			})
		},
	}
}
