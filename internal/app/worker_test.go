package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu      sync.Mutex
	windows []platform.Window
	moves   map[platform.WindowID]platform.Rect
	failFor map[platform.WindowID]bool
}

func newFakeBackend(windows ...platform.Window) *fakeBackend {
	return &fakeBackend{
		windows: windows,
		moves:   make(map[platform.WindowID]platform.Rect),
		failFor: make(map[platform.WindowID]bool),
	}
}

func (b *fakeBackend) Displays() ([]platform.Display, error)     { return nil, nil }
func (b *fakeBackend) ActiveWindow() (platform.WindowID, error) { return 0, nil }
func (b *fakeBackend) WindowServerSnapshot() ([]platform.WindowServerInfo, error) {
	return nil, nil
}
func (b *fakeBackend) Raise(platform.WindowID) error               { return nil }
func (b *fakeBackend) Close(platform.WindowID) error               { return nil }
func (b *fakeBackend) WatchWindows([]platform.WindowID) error      { return nil }
func (b *fakeBackend) Move(id platform.WindowID, p platform.Point) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.moves[id] = b.moves[id].WithOrigin(p)
	return nil
}

func (b *fakeBackend) ListWindows() ([]platform.Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]platform.Window(nil), b.windows...), nil
}

func (b *fakeBackend) MoveResize(id platform.WindowID, r platform.Rect) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failFor[id] {
		return errors.New("window gone")
	}
	b.moves[id] = r
	return nil
}

type frameReport struct {
	Window   WindowId
	Frame    platform.Rect
	LastSeen txn.ID
}

type recordingReporter struct {
	mu         sync.Mutex
	discovered [][]DiscoveredWindow
	known      [][]WindowId
	frames     []frameReport
	terminated chan int32
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{terminated: make(chan int32, 1)}
}

func (r *recordingReporter) WindowsDiscovered(_ int32, windows []DiscoveredWindow, known []WindowId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discovered = append(r.discovered, windows)
	r.known = append(r.known, known)
}

func (r *recordingReporter) FrameChanged(wid WindowId, frame platform.Rect, lastSeen txn.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frameReport{wid, frame, lastSeen})
}

func (r *recordingReporter) RaiseCompleted(WindowId, uint64) {}

func (r *recordingReporter) ThreadTerminated(pid int32) { r.terminated <- pid }

func TestWorker_DiscoverAssignsStableIndices(t *testing.T) {
	backend := newFakeBackend(
		platform.Window{ID: 100, PID: 5, Title: "a", Normal: true, Bounds: platform.NewRect(0, 0, 10, 10)},
		platform.Window{ID: 200, PID: 6, Title: "other app", Normal: true},
		platform.Window{ID: 101, PID: 5, Title: "b", Normal: true},
	)
	rep := newRecordingReporter()
	w := NewWorker(Info{PID: 5}, NewHandle(5, 4), backend, rep, nil)

	require.True(t, w.handleRequest(GetVisibleWindows{}))
	require.Len(t, rep.discovered, 1)
	require.Len(t, rep.discovered[0], 2)
	assert.Equal(t, WindowId{PID: 5, Idx: 1}, rep.discovered[0][0].Window)
	assert.Equal(t, platform.WindowID(100), rep.discovered[0][0].Info.ServerID)
	assert.Equal(t, WindowId{PID: 5, Idx: 2}, rep.discovered[0][1].Window)

	backend.windows = backend.windows[:2]
	require.True(t, w.handleRequest(GetVisibleWindows{}))
	assert.Empty(t, rep.discovered[1], "no new windows without a forced refresh")
	assert.Equal(t, []WindowId{{PID: 5, Idx: 1}}, rep.known[1])

	require.True(t, w.handleRequest(GetVisibleWindows{ForceRefresh: true}))
	require.Len(t, rep.discovered[2], 1)
	assert.Equal(t, WindowId{PID: 5, Idx: 1}, rep.discovered[2][0].Window)
}

func TestWorker_SuppressesFrameReportsWhileAnimating(t *testing.T) {
	backend := newFakeBackend(platform.Window{ID: 100, PID: 5, Normal: true})
	rep := newRecordingReporter()
	w := NewWorker(Info{PID: 5}, NewHandle(5, 4), backend, rep, nil)
	require.True(t, w.handleRequest(GetVisibleWindows{}))
	wid := WindowId{PID: 5, Idx: 1}
	final := platform.NewRect(0, 0, 300, 200)

	w.handleRequest(BeginWindowAnimation{Window: wid})
	w.handleRequest(SetWindowPos{Window: wid, Origin: platform.Point{X: 5, Y: 5}, TxID: 3, Animating: true})
	w.handleRequest(SetWindowFrame{Window: wid, Frame: final, TxID: 3, Animating: true})
	assert.Empty(t, rep.frames)

	w.handleRequest(EndWindowAnimation{Window: wid})
	require.Len(t, rep.frames, 1)
	assert.Equal(t, frameReport{Window: wid, Frame: final, LastSeen: 3}, rep.frames[0])
	assert.Equal(t, final, backend.moves[100])
}

func TestWorker_BatchContinuesPastFailures(t *testing.T) {
	backend := newFakeBackend(
		platform.Window{ID: 100, PID: 5, Normal: true},
		platform.Window{ID: 101, PID: 5, Normal: true},
	)
	backend.failFor[100] = true
	rep := newRecordingReporter()
	w := NewWorker(Info{PID: 5}, NewHandle(5, 4), backend, rep, nil)
	require.True(t, w.handleRequest(GetVisibleWindows{}))

	w.handleRequest(SetBatchWindowFrame{
		TxID: 1,
		Frames: []FrameUpdate{
			{Window: WindowId{PID: 5, Idx: 1}, Frame: platform.NewRect(0, 0, 10, 10)},
			{Window: WindowId{PID: 5, Idx: 2}, Frame: platform.NewRect(10, 0, 10, 10)},
		},
	})

	require.Len(t, rep.frames, 1)
	assert.Equal(t, WindowId{PID: 5, Idx: 2}, rep.frames[0].Window)
	assert.Equal(t, txn.ID(1), rep.frames[0].LastSeen)
}

func TestWorkerRun_TerminateReportsThreadTerminated(t *testing.T) {
	rep := newRecordingReporter()
	spawner := NewLiveSpawner(context.Background(), newFakeBackend(), rep, nil)

	h := spawner.Spawn(Info{PID: 9})
	require.NoError(t, h.Send(Terminate{}))

	select {
	case pid := <-rep.terminated:
		assert.Equal(t, int32(9), pid)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not report termination")
	}
	spawner.Wait()
	assert.ErrorIs(t, h.Send(Terminate{}), ErrClosed)
}
