package mcp

import (
	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/platform"
)

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	Space          uint64 `json:"space,omitempty" jsonschema:"Only list windows on this space (default: all spaces)"`
	ManageableOnly bool   `json:"manageable_only,omitempty" jsonschema:"When true, omit dialogs, minimized and other unmanaged windows"`
}

// WindowInfo describes one window known to the daemon.
type WindowInfo struct {
	ID         app.WindowId      `json:"id"`
	ServerID   platform.WindowID `json:"server_id,omitempty"`
	Title      string            `json:"title,omitempty"`
	Frame      platform.Rect     `json:"frame"`
	Space      platform.SpaceID  `json:"space,omitempty"`
	Workspace  *int              `json:"workspace,omitempty"`
	Manageable bool              `json:"manageable"`
	Floating   bool              `json:"floating,omitempty"`
	Focused    bool              `json:"focused,omitempty"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowInfo `json:"windows"`
}

// ListWorkspacesInput is the input for the list_workspaces tool.
type ListWorkspacesInput struct{}

// WorkspaceInfo describes one workspace of a visible space.
type WorkspaceInfo struct {
	Screen      int              `json:"screen"`
	Space       platform.SpaceID `json:"space"`
	Index       int              `json:"index"`
	Name        string           `json:"name"`
	Layout      string           `json:"layout"`
	Active      bool             `json:"active"`
	WindowCount int              `json:"window_count"`
	Floating    int              `json:"floating,omitempty"`
}

// ListWorkspacesOutput is the output for the list_workspaces tool.
type ListWorkspacesOutput struct {
	Workspaces []WorkspaceInfo `json:"workspaces"`
	Layouts    []string        `json:"layouts"`
}

// WorkspaceInput is the input for the switch_workspace and
// move_window_to_workspace tools.
type WorkspaceInput struct {
	Index int `json:"index" jsonschema:"Zero-based workspace index on the focused space"`
}

// ActionInput is the input for tools that take no arguments.
type ActionInput struct{}

// ActionOutput acknowledges a submitted command.
type ActionOutput struct {
	Submitted string `json:"submitted"`
}
