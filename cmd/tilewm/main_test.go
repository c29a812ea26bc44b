package main

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/layout"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/reactor"
)

type stubClient struct {
	switched []int
	moved    []int
	actions  []string
	err      error
}

func (s *stubClient) GetStatus() (*ipc.StatusData, error) {
	return &ipc.StatusData{DaemonRunning: true, UptimeSeconds: 42}, s.err
}

func (s *stubClient) ListLayouts() (*ipc.LayoutsData, error) {
	return &ipc.LayoutsData{Layouts: []string{"columns", "grid"}, DefaultLayout: "grid"}, s.err
}

func (s *stubClient) SwitchWorkspace(i int) error { s.switched = append(s.switched, i); return s.err }
func (s *stubClient) MoveToWorkspace(i int) error { s.moved = append(s.moved, i); return s.err }
func (s *stubClient) NextLayout() error           { return s.record("next_layout") }
func (s *stubClient) ToggleFloating() error       { return s.record("float") }
func (s *stubClient) Retile() error               { return s.record("retile") }
func (s *stubClient) ToggleFocusFollowsMouse() error {
	return s.record("ffm")
}
func (s *stubClient) Debug() error { return s.record("debug") }

func (s *stubClient) record(name string) error {
	s.actions = append(s.actions, name)
	return s.err
}

func withStub(t *testing.T, stub *stubClient) {
	t.Helper()
	prev := newClient
	newClient = func() daemonClient { return stub }
	t.Cleanup(func() { newClient = prev })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestWorkspaceCommand(t *testing.T) {
	stub := &stubClient{}
	withStub(t, stub)

	_, err := run(t, "workspace", "2")
	require.NoError(t, err)
	_, err = run(t, "workspace", "--move", "1")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, stub.switched)
	assert.Equal(t, []int{1}, stub.moved)

	_, err = run(t, "workspace", "-3")
	assert.Error(t, err)
	_, err = run(t, "workspace", "two")
	assert.Error(t, err)
}

func TestActionCommands(t *testing.T) {
	stub := &stubClient{}
	withStub(t, stub)

	for _, args := range [][]string{{"layout", "next"}, {"float"}, {"ffm"}, {"retile"}, {"debug"}} {
		_, err := run(t, args...)
		require.NoError(t, err, args)
	}
	assert.Equal(t, []string{"next_layout", "float", "ffm", "retile", "debug"}, stub.actions)
}

func TestActionCommandError(t *testing.T) {
	withStub(t, &stubClient{err: errors.New("daemon not running")})
	_, err := run(t, "retile")
	assert.EqualError(t, err, "daemon not running")
}

func TestLayoutList(t *testing.T) {
	withStub(t, &stubClient{})
	out, err := run(t, "layout", "list")
	require.NoError(t, err)
	assert.Equal(t, "  columns\n* grid\n", out)
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, &ipc.StatusData{
		DaemonRunning: true,
		UptimeSeconds: 7,
		Reactor: reactor.Status{
			Screens: []reactor.ScreenStatus{{
				Frame: platform.NewRect(0, 0, 1920, 1080),
				Space: 1,
				Workspaces: []layout.WorkspaceInfo{
					{Index: 0, Name: "1", Layout: "grid", Active: true, Windows: []app.WindowId{{PID: 1, Idx: 1}}},
					{Index: 1, Name: "2", Layout: "columns"},
				},
			}},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "daemon_running:      true\n")
	assert.Contains(t, out, "screen 0: 1920x1080+0+0 space=1\n")
	assert.Contains(t, out, "  * 0 1        layout=grid       windows=1 floating=0\n")
	assert.Contains(t, out, "    1 2        layout=columns    windows=0 floating=0\n")
}

func TestFormatRequest(t *testing.T) {
	got := formatRequest(100, app.Raise{Window: app.WindowId{PID: 100, Idx: 2}, Seq: 3})
	assert.Regexp(t, `^pid=100 Raise \{.*"Seq":3\}$`, got)
}

func TestConfigExplainCommand(t *testing.T) {
	path := t.TempDir() + "/config.yaml"
	require.NoError(t, os.WriteFile(path, []byte("gap_size: 4\n"), 0o644))
	t.Cleanup(func() { configPath = "" })

	out, err := run(t, "--config", path, "config", "explain", "gap_size")
	require.NoError(t, err)
	assert.Equal(t, "# gap_size ("+path+":1:11)\n4\n", out)

	out, err = run(t, "--config", path, "config", "validate")
	require.NoError(t, err)
	assert.Equal(t, path+": ok\n", out)
}
