package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/layout"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/reactor"
)

type fakeDaemon struct {
	status    ipc.StatusData
	statusErr error
	calls     []string
	switched  []int
	moved     []int
}

func (f *fakeDaemon) GetStatus() (*ipc.StatusData, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &f.status, nil
}

func (f *fakeDaemon) ListLayouts() (*ipc.LayoutsData, error) {
	return &ipc.LayoutsData{Layouts: []string{"columns", "grid"}, DefaultLayout: "grid"}, nil
}

func (f *fakeDaemon) SwitchWorkspace(index int) error {
	f.switched = append(f.switched, index)
	return nil
}

func (f *fakeDaemon) MoveToWorkspace(index int) error {
	f.moved = append(f.moved, index)
	return nil
}

func (f *fakeDaemon) NextLayout() error {
	f.calls = append(f.calls, "next_layout")
	return nil
}

func (f *fakeDaemon) ToggleFloating() error {
	f.calls = append(f.calls, "toggle_floating")
	return nil
}

func (f *fakeDaemon) Retile() error {
	return errors.New("daemon busy")
}

func sampleStatus() ipc.StatusData {
	w1 := app.WindowId{PID: 100, Idx: 1}
	w2 := app.WindowId{PID: 100, Idx: 2}
	w3 := app.WindowId{PID: 200, Idx: 1}
	zero := 0
	return ipc.StatusData{
		DaemonRunning: true,
		Reactor: reactor.Status{
			MainWindow: &w2,
			Screens: []reactor.ScreenStatus{{
				Frame: platform.NewRect(0, 0, 1920, 1080),
				Space: 1,
				Workspaces: []layout.WorkspaceInfo{
					{Index: 0, Name: "1", Layout: "grid", Active: true, Windows: []app.WindowId{w1, w2}},
					{Index: 1, Name: "2", Layout: "columns"},
				},
			}},
			Windows: []reactor.WindowStatus{
				{ID: w1, ServerID: 11, Title: "one", Manageable: true, Space: 1, Workspace: &zero},
				{ID: w2, ServerID: 12, Title: "two", Manageable: true, Space: 1, Workspace: &zero},
				{ID: w3, ServerID: 30, Title: "dialog", Space: 2},
			},
		},
	}
}

func connect(t *testing.T, d Daemon) *mcpsdk.ClientSession {
	t.Helper()
	ctx := context.Background()
	s := NewServer(d, nil)

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	ss, err := s.mcpServer.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test", Version: "0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func call(t *testing.T, cs *mcpsdk.ClientSession, name string, args any, out any) *mcpsdk.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcpsdk.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	if out != nil && !res.IsError {
		raw, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out))
	}
	return res
}

func TestListTools(t *testing.T) {
	cs := connect(t, &fakeDaemon{})
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"list_windows", "list_workspaces", "switch_workspace",
		"move_window_to_workspace", "next_layout", "toggle_floating", "retile",
	}, names)
}

func TestListWindows(t *testing.T) {
	d := &fakeDaemon{status: sampleStatus()}
	cs := connect(t, d)

	var out ListWindowsOutput
	res := call(t, cs, "list_windows", map[string]any{}, &out)
	require.False(t, res.IsError)
	require.Len(t, out.Windows, 3)
	assert.False(t, out.Windows[0].Focused)
	assert.True(t, out.Windows[1].Focused)
	require.NotNil(t, out.Windows[1].Workspace)
	assert.Equal(t, 0, *out.Windows[1].Workspace)

	out = ListWindowsOutput{}
	call(t, cs, "list_windows", map[string]any{"space": 1, "manageable_only": true}, &out)
	assert.Len(t, out.Windows, 2)

	out = ListWindowsOutput{}
	call(t, cs, "list_windows", map[string]any{"space": 2, "manageable_only": true}, &out)
	assert.Empty(t, out.Windows)
}

func TestListWindowsDaemonDown(t *testing.T) {
	cs := connect(t, &fakeDaemon{statusErr: errors.New("connection refused")})
	res := call(t, cs, "list_windows", map[string]any{}, nil)
	assert.True(t, res.IsError)
}

func TestListWorkspaces(t *testing.T) {
	cs := connect(t, &fakeDaemon{status: sampleStatus()})

	var out ListWorkspacesOutput
	res := call(t, cs, "list_workspaces", map[string]any{}, &out)
	require.False(t, res.IsError)
	assert.Equal(t, []string{"columns", "grid"}, out.Layouts)
	require.Len(t, out.Workspaces, 2)
	assert.Equal(t, WorkspaceInfo{Space: 1, Index: 0, Name: "1", Layout: "grid", Active: true, WindowCount: 2}, out.Workspaces[0])
	assert.Equal(t, "columns", out.Workspaces[1].Layout)
	assert.Zero(t, out.Workspaces[1].WindowCount)
}

func TestWorkspaceTools(t *testing.T) {
	d := &fakeDaemon{}
	cs := connect(t, d)

	var out ActionOutput
	res := call(t, cs, "switch_workspace", map[string]any{"index": 2}, &out)
	require.False(t, res.IsError)
	assert.Equal(t, "switch_workspace(2)", out.Submitted)
	assert.Equal(t, []int{2}, d.switched)

	call(t, cs, "move_window_to_workspace", map[string]any{"index": 1}, &out)
	assert.Equal(t, []int{1}, d.moved)

	res = call(t, cs, "switch_workspace", map[string]any{"index": -1}, nil)
	assert.True(t, res.IsError)
	assert.Len(t, d.switched, 1)
}

func TestActionTools(t *testing.T) {
	d := &fakeDaemon{}
	cs := connect(t, d)

	var out ActionOutput
	call(t, cs, "next_layout", map[string]any{}, &out)
	assert.Equal(t, "next_layout", out.Submitted)
	call(t, cs, "toggle_floating", map[string]any{}, &out)
	assert.Equal(t, []string{"next_layout", "toggle_floating"}, d.calls)

	res := call(t, cs, "retile", map[string]any{}, nil)
	assert.True(t, res.IsError)
}
