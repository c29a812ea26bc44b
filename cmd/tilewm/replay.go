package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/reactor"
)

func newReplayCmd() *cobra.Command {
	var showLayout bool
	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Re-run a recorded session and print the requests it produces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			logger := newLogger(replayLogLevel(cmd))
			count := 0
			r, err := reactor.Replay(args[0], func(pid int32, req app.Request) {
				count++
				fmt.Fprintln(out, formatRequest(pid, req))
			}, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d requests\n", count)
			if showLayout {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(r.Layout().Snapshot())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showLayout, "layout", false, "print the final layout snapshot")
	cmd.Flags().Bool("verbose", false, "log every handled event")
	return cmd
}

// formatRequest renders one request as "pid=<pid> <Type> <json>".
func formatRequest(pid int32, req app.Request) string {
	name := reflect.TypeOf(req).Name()
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Sprintf("pid=%d %s <%v>", pid, name, err)
	}
	return fmt.Sprintf("pid=%d %s %s", pid, name, data)
}

func replayLogLevel(cmd *cobra.Command) slog.Level {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}
