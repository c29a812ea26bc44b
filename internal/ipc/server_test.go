package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/broadcast"
	"github.com/1broseidon/tilewm/internal/reactor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	mu        sync.Mutex
	submitted []reactor.Event
	status    reactor.Status
	err       error
}

func (f *fakeController) Submit(ev reactor.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.submitted = append(f.submitted, ev)
	return nil
}

func (f *fakeController) Status(context.Context) (reactor.Status, error) {
	return f.status, f.err
}

func (f *fakeController) events() []reactor.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]reactor.Event(nil), f.submitted...)
}

func startServer(t *testing.T, ctrl Controller) *Client {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tilewm.sock")
	srv := NewServer(path, ctrl, []string{"grid", "columns"}, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)
	return NewClientAt(path)
}

func TestClientServer_Commands(t *testing.T) {
	ctrl := &fakeController{}
	c := startServer(t, ctrl)

	require.NoError(t, c.SwitchWorkspace(2))
	require.NoError(t, c.MoveToWorkspace(1))
	require.NoError(t, c.NextLayout())
	require.NoError(t, c.ToggleFloating())
	require.NoError(t, c.ToggleFocusFollowsMouse())
	require.NoError(t, c.Retile())
	require.NoError(t, c.Debug())

	assert.Equal(t, []reactor.Event{
		reactor.Command{Kind: reactor.CmdSwitchWorkspace, Index: 2},
		reactor.Command{Kind: reactor.CmdMoveWindowToWorkspace, Index: 1},
		reactor.Command{Kind: reactor.CmdNextLayout},
		reactor.Command{Kind: reactor.CmdToggleFloating},
		reactor.Command{Kind: reactor.CmdToggleFocusFollowsMouse},
		reactor.Command{Kind: reactor.CmdRetile},
		reactor.Command{Kind: reactor.CmdDebug},
	}, ctrl.events())
}

func TestClientServer_Status(t *testing.T) {
	main := app.WindowId{PID: 7, Idx: 1}
	ctrl := &fakeController{status: reactor.Status{MainWindow: &main, MenuDepth: 1}}
	c := startServer(t, ctrl)

	st, err := c.GetStatus()
	require.NoError(t, err)
	assert.True(t, st.DaemonRunning)
	require.NotNil(t, st.Reactor.MainWindow)
	assert.Equal(t, main, *st.Reactor.MainWindow)
	assert.Equal(t, uint32(1), st.Reactor.MenuDepth)

	layouts, err := c.ListLayouts()
	require.NoError(t, err)
	assert.Equal(t, []string{"grid", "columns"}, layouts.Layouts)
	assert.Equal(t, "grid", layouts.DefaultLayout)
}

func TestClientServer_Errors(t *testing.T) {
	ctrl := &fakeController{err: errors.New("reactor stopped")}
	c := startServer(t, ctrl)

	err := c.NextLayout()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reactor stopped")

	err = c.SwitchWorkspace(-1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid workspace index")

	_, err = c.sendRequest(&Request{Command: "BOGUS"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown command")
}

func TestClient_NoDaemon(t *testing.T) {
	c := NewClientAt(filepath.Join(t.TempDir(), "missing.sock"))
	err := c.Ping()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is the daemon running?")
}

type fakeWatcher struct {
	ch     chan broadcast.Notice
	topics chan []string
}

func (f *fakeWatcher) Watch(ctx context.Context, topics ...string) (<-chan broadcast.Notice, error) {
	f.topics <- topics
	out := make(chan broadcast.Notice)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-f.ch:
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func TestClientServer_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tilewm.sock")
	srv := NewServer(path, &fakeController{}, nil, nil)
	w := &fakeWatcher{ch: make(chan broadcast.Notice), topics: make(chan []string, 1)}
	srv.SetWatcher(w)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	received := make(chan Event, 4)
	done := make(chan error, 1)
	go func() {
		done <- NewClientAt(path).Watch(ctx, func(ev Event) error {
			received <- ev
			return nil
		})
	}()

	select {
	case topics := <-w.topics:
		assert.Equal(t, watchTopics, topics)
	case <-time.After(2 * time.Second):
		t.Fatal("watch not started")
	}
	w.ch <- broadcast.Notice{Topic: reactor.TopicWorkspaceChanged, Data: reactor.WorkspaceChange{Space: 1, Index: 2}}

	select {
	case ev := <-received:
		assert.Equal(t, reactor.TopicWorkspaceChanged, ev.Topic)
		var ws reactor.WorkspaceChange
		require.NoError(t, json.Unmarshal(ev.Data, &ws))
		assert.Equal(t, reactor.WorkspaceChange{Space: 1, Index: 2}, ws)
	case <-time.After(2 * time.Second):
		t.Fatal("event not streamed")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}

func TestClientServer_WatchUnavailable(t *testing.T) {
	c := startServer(t, &fakeController{})
	err := c.Watch(context.Background(), func(Event) error { return nil })
	assert.ErrorContains(t, err, "Event stream not available")
}
