package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tilewm/internal/ipc"
)

const (
	ServerName    = "tilewm"
	ServerVersion = "0.1.0"
)

// Daemon is the control surface of a running tilewm daemon. *ipc.Client
// implements it.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	ListLayouts() (*ipc.LayoutsData, error)
	SwitchWorkspace(index int) error
	MoveToWorkspace(index int) error
	NextLayout() error
	ToggleFloating() error
	Retile() error
}

// Server exposes the daemon's windows and workspaces as MCP tools.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates an MCP server backed by daemon.
func NewServer(daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		daemon: daemon,
		logger: logger.With("component", "mcp"),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List the windows tilewm knows about with their frame, space, workspace and whether they are tiled, floating or focused.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_workspaces",
		Description: "List the workspaces of every visible space with their layout, window count and which one is active.",
	}, s.handleListWorkspaces)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "switch_workspace",
		Description: "Switch the focused space to the workspace with the given zero-based index. Windows of other workspaces are moved off-screen.",
	}, s.handleSwitchWorkspace)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_window_to_workspace",
		Description: "Move the focused window to the workspace with the given zero-based index on the same space.",
	}, s.handleMoveToWorkspace)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "next_layout",
		Description: "Cycle the active workspace to the next configured layout and retile it.",
	}, s.action("next_layout", s.daemon.NextLayout))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_floating",
		Description: "Toggle whether the focused window floats above the tiled layout.",
	}, s.action("toggle_floating", s.daemon.ToggleFloating))

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "retile",
		Description: "Force a full relayout of every visible space.",
	}, s.action("retile", s.daemon.Retile))
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	status, err := s.daemon.GetStatus()
	if err != nil {
		return nil, ListWindowsOutput{}, fmt.Errorf("failed to query daemon: %w", err)
	}

	out := ListWindowsOutput{Windows: []WindowInfo{}}
	main := status.Reactor.MainWindow
	for _, w := range status.Reactor.Windows {
		if args.Space != 0 && uint64(w.Space) != args.Space {
			continue
		}
		if args.ManageableOnly && !w.Manageable {
			continue
		}
		out.Windows = append(out.Windows, WindowInfo{
			ID:         w.ID,
			ServerID:   w.ServerID,
			Title:      w.Title,
			Frame:      w.Frame,
			Space:      w.Space,
			Workspace:  w.Workspace,
			Manageable: w.Manageable,
			Floating:   w.Floating,
			Focused:    main != nil && *main == w.ID,
		})
	}
	s.logger.Debug("list_windows", "count", len(out.Windows))
	return nil, out, nil
}

func (s *Server) handleListWorkspaces(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWorkspacesInput) (*mcpsdk.CallToolResult, ListWorkspacesOutput, error) {
	status, err := s.daemon.GetStatus()
	if err != nil {
		return nil, ListWorkspacesOutput{}, fmt.Errorf("failed to query daemon: %w", err)
	}
	layouts, err := s.daemon.ListLayouts()
	if err != nil {
		return nil, ListWorkspacesOutput{}, fmt.Errorf("failed to list layouts: %w", err)
	}

	out := ListWorkspacesOutput{
		Workspaces: []WorkspaceInfo{},
		Layouts:    slices.Clone(layouts.Layouts),
	}
	for i, screen := range status.Reactor.Screens {
		for _, ws := range screen.Workspaces {
			out.Workspaces = append(out.Workspaces, WorkspaceInfo{
				Screen:      i,
				Space:       screen.Space,
				Index:       ws.Index,
				Name:        ws.Name,
				Layout:      ws.Layout,
				Active:      ws.Active,
				WindowCount: len(ws.Windows),
				Floating:    len(ws.Floating),
			})
		}
	}
	return nil, out, nil
}

func (s *Server) handleSwitchWorkspace(_ context.Context, _ *mcpsdk.CallToolRequest, args WorkspaceInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if args.Index < 0 {
		return nil, ActionOutput{}, fmt.Errorf("workspace index must be >= 0, got %d", args.Index)
	}
	if err := s.daemon.SwitchWorkspace(args.Index); err != nil {
		return nil, ActionOutput{}, fmt.Errorf("switch_workspace failed: %w", err)
	}
	return nil, ActionOutput{Submitted: fmt.Sprintf("switch_workspace(%d)", args.Index)}, nil
}

func (s *Server) handleMoveToWorkspace(_ context.Context, _ *mcpsdk.CallToolRequest, args WorkspaceInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if args.Index < 0 {
		return nil, ActionOutput{}, fmt.Errorf("workspace index must be >= 0, got %d", args.Index)
	}
	if err := s.daemon.MoveToWorkspace(args.Index); err != nil {
		return nil, ActionOutput{}, fmt.Errorf("move_window_to_workspace failed: %w", err)
	}
	return nil, ActionOutput{Submitted: fmt.Sprintf("move_window_to_workspace(%d)", args.Index)}, nil
}

func (s *Server) action(name string, fn func() error) func(context.Context, *mcpsdk.CallToolRequest, ActionInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return func(_ context.Context, _ *mcpsdk.CallToolRequest, _ ActionInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
		if err := fn(); err != nil {
			return nil, ActionOutput{}, fmt.Errorf("%s failed: %w", name, err)
		}
		return nil, ActionOutput{Submitted: name}, nil
	}
}
