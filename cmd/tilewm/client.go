package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/mcp"
)

type daemonClient interface {
	mcp.Daemon
	ToggleFocusFollowsMouse() error
	Debug() error
}

var newClient = func() daemonClient { return ipc.NewClient() }

func newStatusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := newClient().GetStatus()
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full status as JSON")
	return cmd
}

func printStatus(w io.Writer, status *ipc.StatusData) {
	st := status.Reactor
	fmt.Fprintf(w, "daemon_running:      %v\n", status.DaemonRunning)
	fmt.Fprintf(w, "uptime_seconds:      %d\n", status.UptimeSeconds)
	fmt.Fprintf(w, "focus_follows_mouse: %v\n", st.FocusFollowsMouse)
	fmt.Fprintf(w, "low_power:           %v\n", st.LowPower)
	fmt.Fprintf(w, "windows:             %d\n", len(st.Windows))
	for i, screen := range st.Screens {
		x, y, width, height := screen.Frame.Ints()
		fmt.Fprintf(w, "screen %d: %dx%d+%d+%d space=%d\n", i, width, height, x, y, screen.Space)
		for _, ws := range screen.Workspaces {
			marker := " "
			if ws.Active {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %d %-8s layout=%-10s windows=%d floating=%d\n",
				marker, ws.Index, ws.Name, ws.Layout, len(ws.Windows), len(ws.Floating))
		}
	}
}

func newWorkspaceCmd() *cobra.Command {
	var move bool
	cmd := &cobra.Command{
		Use:   "workspace <n>",
		Short: "Switch to workspace n (zero-based) on the focused space",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil || index < 0 {
				return fmt.Errorf("invalid workspace index %q", args[0])
			}
			client := newClient()
			if move {
				return client.MoveToWorkspace(index)
			}
			return client.SwitchWorkspace(index)
		},
	}
	cmd.Flags().BoolVar(&move, "move", false, "move the focused window instead of switching")
	return cmd
}

func newLayoutCmd() *cobra.Command {
	layoutCmd := &cobra.Command{
		Use:   "layout",
		Short: "Inspect or cycle layouts",
	}
	layoutCmd.AddCommand(
		&cobra.Command{
			Use:   "next",
			Short: "Cycle the active workspace to the next layout",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return newClient().NextLayout()
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List configured layouts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				data, err := newClient().ListLayouts()
				if err != nil {
					return err
				}
				for _, name := range data.Layouts {
					marker := " "
					if name == data.DefaultLayout {
						marker = "*"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
				}
				return nil
			},
		},
	)
	return layoutCmd
}

func newActionCmd(use, short string, fn func(daemonClient) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return fn(newClient())
		},
	}
}
