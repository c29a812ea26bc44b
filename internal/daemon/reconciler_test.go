package daemon

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/reactor"
)

type fakeSource struct {
	mu       sync.Mutex
	displays []platform.Display
	windows  []platform.Window
	active   platform.WindowID
	watched  []platform.WindowID
	panicNow bool
}

func (f *fakeSource) Displays() ([]platform.Display, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicNow {
		panic("boom")
	}
	return append([]platform.Display(nil), f.displays...), nil
}

func (f *fakeSource) ActiveWindow() (platform.WindowID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, nil
}

func (f *fakeSource) ListWindows() ([]platform.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.Window(nil), f.windows...), nil
}

func (f *fakeSource) WindowServerSnapshot() ([]platform.WindowServerInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]platform.WindowServerInfo, 0, len(f.windows))
	for _, w := range f.windows {
		out = append(out, platform.WindowServerInfo{ID: w.ID, PID: w.PID, Frame: w.Bounds, Space: 1})
	}
	return out, nil
}

func (f *fakeSource) WatchWindows(ids []platform.WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watched = append(f.watched, ids...)
	return nil
}

type captureSink struct {
	mu     sync.Mutex
	events []reactor.Event
}

func (c *captureSink) Submit(ev reactor.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *captureSink) take() []reactor.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.events
	c.events = nil
	return out
}

var screen = platform.Display{ID: 0, Usable: platform.NewRect(0, 0, 1920, 1080), Space: 1}

func newTestReconciler(src *fakeSource, alive map[int32]bool) (*Reconciler, *captureSink) {
	sink := &captureSink{}
	r := NewReconciler(ReconcilerConfig{
		ProcessAlive: func(pid int32) bool { return alive[pid] },
	}, src, sink)
	return r, sink
}

func TestReconcileFirstPass(t *testing.T) {
	src := &fakeSource{
		displays: []platform.Display{screen},
		windows: []platform.Window{
			{ID: 11, PID: 100, AppID: "kitty", Title: "a", Normal: true},
			{ID: 12, PID: 100, AppID: "kitty", Title: "b", Normal: true},
			{ID: 20, PID: 0, Title: "no pid", Normal: true},
		},
		active: 12,
	}
	r, sink := newTestReconciler(src, nil)
	r.ReconcileNow()

	events := sink.take()
	require.Len(t, events, 3)
	assert.Equal(t, reactor.ScreenParametersChanged{Screens: []reactor.Screen{{Frame: screen.Usable, Space: 1}}}, events[0])

	launched, ok := events[1].(reactor.ApplicationLaunched)
	require.True(t, ok)
	assert.Equal(t, int32(100), launched.PID)
	assert.Equal(t, "kitty", launched.Info.Name)
	assert.Len(t, launched.ServerInfo, 2)

	assert.Equal(t, reactor.WindowFocused{ServerID: 12}, events[2])
	assert.ElementsMatch(t, []platform.WindowID{11, 12}, src.watched)

	r.ReconcileNow()
	assert.Empty(t, sink.take(), "unchanged state emits nothing")
}

func TestReconcileDiff(t *testing.T) {
	src := &fakeSource{
		displays: []platform.Display{screen},
		windows: []platform.Window{
			{ID: 11, PID: 100, Title: "a", Normal: true},
			{ID: 12, PID: 100, Title: "b", Normal: true},
			{ID: 30, PID: 300, Title: "c", Normal: true},
		},
	}
	r, sink := newTestReconciler(src, map[int32]bool{100: true})
	r.ReconcileNow()
	sink.take()

	src.mu.Lock()
	src.windows = []platform.Window{
		{ID: 11, PID: 100, Title: "renamed", Normal: true},
		{ID: 12, PID: 100, Title: "b", Normal: true, Minimized: true},
		{ID: 13, PID: 100, Title: "new", Normal: true},
	}
	src.mu.Unlock()
	r.ReconcileNow()

	events := sink.take()
	require.Len(t, events, 5)
	assert.Equal(t, reactor.WindowTitleChanged{ServerID: 11, Title: "renamed"}, events[0])

	resync, ok := events[1].(reactor.ResyncAppForWindow)
	require.True(t, ok)
	assert.Equal(t, platform.WindowID(12), resync.ServerID)

	created, ok := events[2].(reactor.ResyncAppForWindow)
	require.True(t, ok)
	assert.Equal(t, platform.WindowID(13), created.ServerID)
	require.NotNil(t, created.Info)
	assert.Equal(t, int32(100), created.Info.PID)

	assert.Equal(t, reactor.WindowDestroyed{ServerID: 30}, events[3])
	assert.Equal(t, reactor.ApplicationTerminated{PID: 300}, events[4])
	assert.Contains(t, src.watched, platform.WindowID(13))
}

func TestReconcileKeepsLiveProcessWithoutWindows(t *testing.T) {
	src := &fakeSource{
		displays: []platform.Display{screen},
		windows:  []platform.Window{{ID: 11, PID: 100, Normal: true}},
	}
	r, sink := newTestReconciler(src, map[int32]bool{100: true})
	r.ReconcileNow()
	sink.take()

	src.mu.Lock()
	src.windows = nil
	src.mu.Unlock()
	r.ReconcileNow()

	assert.Equal(t, []reactor.Event{reactor.WindowDestroyed{ServerID: 11}}, sink.take())
}

func TestReconcileSpaceChange(t *testing.T) {
	src := &fakeSource{displays: []platform.Display{screen}}
	r, sink := newTestReconciler(src, nil)
	r.ReconcileNow()
	sink.take()

	src.mu.Lock()
	src.displays[0].Space = 2
	src.mu.Unlock()
	r.ReconcileNow()
	assert.Equal(t, []reactor.Event{reactor.SpaceChanged{Spaces: []platform.SpaceID{2}}}, sink.take())

	src.mu.Lock()
	src.displays[0].Usable = platform.NewRect(0, 30, 1920, 1050)
	src.mu.Unlock()
	r.ReconcileNow()
	events := sink.take()
	require.Len(t, events, 1)
	assert.IsType(t, reactor.ScreenParametersChanged{}, events[0])
}

func TestReconcilePowerMode(t *testing.T) {
	low := false
	src := &fakeSource{displays: []platform.Display{screen}}
	sink := &captureSink{}
	r := NewReconciler(ReconcilerConfig{
		LowPower: func() (bool, error) { return low, nil },
	}, src, sink)

	r.ReconcileNow()
	events := sink.take()
	require.NotEmpty(t, events)
	assert.Equal(t, reactor.PowerModeChanged{LowPower: false}, events[0])

	r.ReconcileNow()
	assert.Empty(t, sink.take())

	low = true
	r.ReconcileNow()
	assert.Equal(t, []reactor.Event{reactor.PowerModeChanged{LowPower: true}}, sink.take())
}

func TestReconcileRecoversFromPanic(t *testing.T) {
	src := &fakeSource{displays: []platform.Display{screen}, panicNow: true}
	r, sink := newTestReconciler(src, nil)
	assert.NotPanics(t, r.ReconcileNow)
	assert.Empty(t, sink.take())
}

func TestHandleChange(t *testing.T) {
	src := &fakeSource{
		displays: []platform.Display{screen},
		windows:  []platform.Window{{ID: 11, PID: 100, Normal: true}},
	}
	r, sink := newTestReconciler(src, map[int32]bool{100: true})
	r.ReconcileNow()
	sink.take()

	frame := platform.NewRect(5, 5, 300, 200)
	r.HandleChange(platform.Change{Kind: platform.ChangeFrame, Window: 11, Frame: frame})
	r.HandleChange(platform.Change{Kind: platform.ChangePointerEnter, Window: 11})
	r.HandleChange(platform.Change{Kind: platform.ChangeDestroyed, Window: 11})
	r.HandleChange(platform.Change{Kind: platform.ChangeDestroyed, Window: 11})

	assert.Equal(t, []reactor.Event{
		reactor.WindowFrameChanged{ServerID: 11, Frame: frame},
		reactor.MouseMovedOverWindow{ServerID: 11},
		reactor.WindowDestroyed{ServerID: 11},
	}, sink.take())

	src.mu.Lock()
	src.windows = []platform.Window{{ID: 14, PID: 100, Normal: true}}
	src.active = 14
	src.mu.Unlock()
	r.HandleChange(platform.Change{Kind: platform.ChangeClientList})

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.events) == 2
	}, time.Second, 10*time.Millisecond)
	events := sink.take()
	assert.IsType(t, reactor.ResyncAppForWindow{}, events[0])
	assert.Equal(t, reactor.WindowFocused{ServerID: 14}, events[1])
}

func TestCheckWake(t *testing.T) {
	src := &fakeSource{}
	r, sink := newTestReconciler(src, nil)
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	r.checkWake(start)
	r.checkWake(start.Add(r.interval))
	assert.Empty(t, sink.take())

	r.checkWake(start.Add(r.interval + time.Hour))
	assert.Equal(t, []reactor.Event{reactor.SystemWoke{}}, sink.take())
}
