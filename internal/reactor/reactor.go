// Package reactor is the single-threaded coordinator of the window manager.
// Every window, application and system occurrence arrives as an Event; the
// reactor owns all window and application state, asks the layout engine
// where windows belong and drives the application workers that move them.
package reactor

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/1broseidon/tilewm/internal/animation"
	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/layout"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/txn"
)

const (
	// activationDedup drops repeated activations of one application.
	activationDedup = 50 * time.Millisecond
	// DefaultWakeDelay is how long after wake the window server is queried.
	DefaultWakeDelay = 50 * time.Millisecond
	defaultQueueSize = 1024
)

var errStopped = errors.New("reactor stopped")

// Config is the reactor's runtime configuration. It is the first line of a
// recording.
type Config struct {
	Animate           bool          `json:"animate"`
	AnimationFPS      float64       `json:"animation_fps"`
	AnimationDuration time.Duration `json:"animation_duration"`
	LowPower          bool          `json:"low_power"`
	FocusFollowsMouse bool          `json:"focus_follows_mouse"`
}

// ConfigFrom extracts the reactor settings from the user configuration.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Animate:           cfg.Animate,
		AnimationFPS:      cfg.AnimationFPS,
		AnimationDuration: cfg.AnimationDurationValue(),
		LowPower:          cfg.LowPower,
		FocusFollowsMouse: cfg.FocusFollowsMouse,
	}
}

// WindowNotifier subscribes to create/destroy notifications for windows.
type WindowNotifier interface {
	WatchWindows(ids []platform.WindowID) error
}

// Options configures a Reactor. Only Layout is required.
type Options struct {
	Config Config
	Layout *layout.Engine
	// NewSpawner builds the spawner for application workers. It receives
	// the reporter workers use to feed events back into the reactor.
	NewSpawner func(app.Reporter) app.Spawner
	Publisher  Publisher
	Clock      animation.Clock
	Logger     *slog.Logger
	Recorder   *Record
	// Snapshot queries the window server during wake recovery.
	Snapshot func() ([]platform.WindowServerInfo, error)
	Notifier WindowNotifier
	// WakeDelay defaults to DefaultWakeDelay.
	WakeDelay time.Duration
	// RaiseTimeout enables RaiseTimeout events for unanswered raises.
	RaiseTimeout time.Duration
	QueueSize    int
}

// WindowState is what the reactor knows about a window.
type WindowState struct {
	Frame      platform.Rect
	ServerID   platform.WindowID
	Title      string
	IsStandard bool
	Minimized  bool
	Manageable bool
	Animating  bool
}

// AppState is a running application and the mailbox of its worker.
type AppState struct {
	Info   app.Info
	Handle *app.Handle
}

// MenuState tracks nested menu tracking. Depth 0 means closed.
type MenuState struct {
	depth uint32
}

func (m MenuState) IsOpen() bool  { return m.depth > 0 }
func (m MenuState) Depth() uint32 { return m.depth }

func (m MenuState) opened() MenuState {
	if m.depth == math.MaxUint32 {
		return m
	}
	return MenuState{depth: m.depth + 1}
}

func (m MenuState) closed() MenuState {
	if m.depth == 0 {
		return m
	}
	return MenuState{depth: m.depth - 1}
}

// Reactor owns window, application and workspace state. All state is
// touched only from the goroutine calling HandleEvent (normally Run).
type Reactor struct {
	cfg       Config
	layout    *layout.Engine
	spawner   app.Spawner
	publisher Publisher
	clock     animation.Clock
	logger    *slog.Logger
	recorder  *Record
	snapshot  func() ([]platform.WindowServerInfo, error)
	notifier  WindowNotifier
	wakeDelay time.Duration
	raiseWait time.Duration

	queue chan Event
	done  chan struct{}

	windows    map[app.WindowId]*WindowState
	windowIDs  map[platform.WindowID]app.WindowId
	serverInfo map[platform.WindowID]platform.WindowServerInfo
	apps       map[int32]*AppState
	screens    []Screen

	txns       *txn.Manager
	anim       *animation.Context
	mainWindow *MainWindowTracker

	menu           MenuState
	ffm            bool
	lastActivation map[int32]time.Time
	raiseSeq       uint64
	pendingRaises  map[uint64]app.WindowId
	fresh          map[app.WindowId]struct{}
	published      map[platform.SpaceID][]app.WindowId
	layoutDirty    bool
}

// New creates a reactor. When a recorder is configured its header is written
// before New returns.
func New(opts Options) (*Reactor, error) {
	if opts.Layout == nil {
		return nil, errors.New("reactor: layout engine is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = animation.SystemClock()
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = nopPublisher{}
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	wakeDelay := opts.WakeDelay
	if wakeDelay <= 0 {
		wakeDelay = DefaultWakeDelay
	}

	r := &Reactor{
		cfg:            opts.Config,
		layout:         opts.Layout,
		publisher:      publisher,
		clock:          clock,
		logger:         logger,
		recorder:       opts.Recorder,
		snapshot:       opts.Snapshot,
		notifier:       opts.Notifier,
		wakeDelay:      wakeDelay,
		raiseWait:      opts.RaiseTimeout,
		queue:          make(chan Event, queueSize),
		done:           make(chan struct{}),
		windows:        make(map[app.WindowId]*WindowState),
		windowIDs:      make(map[platform.WindowID]app.WindowId),
		serverInfo:     make(map[platform.WindowID]platform.WindowServerInfo),
		apps:           make(map[int32]*AppState),
		txns:           txn.NewManager(nil),
		mainWindow:     NewMainWindowTracker(),
		lastActivation: make(map[int32]time.Time),
		pendingRaises:  make(map[uint64]app.WindowId),
		fresh:          make(map[app.WindowId]struct{}),
		published:      make(map[platform.SpaceID][]app.WindowId),
	}
	r.anim = &animation.Context{
		Clock:    clock,
		Logger:   logger,
		FPS:      opts.Config.AnimationFPS,
		Duration: opts.Config.AnimationDuration,
		Animate:  opts.Config.Animate,
		LowPower: opts.Config.LowPower,
	}
	r.ffm = opts.Config.FocusFollowsMouse
	if opts.NewSpawner != nil {
		r.spawner = opts.NewSpawner(r.Reporter())
	} else {
		r.spawner = app.SinkSpawner{Sink: func(int32, app.Request) {}}
	}

	if r.recorder != nil {
		snap, err := r.layout.MarshalSnapshot()
		if err != nil {
			return nil, err
		}
		if err := r.recorder.Start(r.cfg, snap); err != nil {
			return nil, fmt.Errorf("start recording: %w", err)
		}
	}
	return r, nil
}

// Run handles queued events until ctx is cancelled.
func (r *Reactor) Run(ctx context.Context) error {
	defer close(r.done)
	r.logger.Info("reactor started")
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reactor stopped")
			return nil
		case ev := <-r.queue:
			r.HandleEvent(ev)
		}
	}
}

// Submit queues ev for Run. It blocks while the queue is full and fails once
// the reactor has stopped.
func (r *Reactor) Submit(ev Event) error {
	select {
	case <-r.done:
		return errStopped
	default:
	}
	select {
	case r.queue <- ev:
		return nil
	case <-r.done:
		return errStopped
	}
}

// HandleEvents handles events in order.
func (r *Reactor) HandleEvents(events []Event) {
	for _, ev := range events {
		r.HandleEvent(ev)
	}
}

// HandleEvent records ev, updates state and relayouts when the event changed
// which windows are tiled where.
func (r *Reactor) HandleEvent(ev Event) {
	now := r.clock.Now()
	if r.recorder != nil && recordable(ev) {
		if err := r.recorder.OnEvent(now, ev); err != nil {
			r.logger.Warn("recording event failed", "type", ev.Type(), "error", err)
		}
	}

	r.handle(now, ev)

	if r.layoutDirty {
		r.layoutDirty = false
		if err := r.UpdateLayout(false, false); err != nil {
			r.logger.Warn("layout update failed", "error", err)
		}
	}
}

func (r *Reactor) handle(now time.Time, ev Event) {
	if wid, ok := r.mainWindow.HandleEvent(ev); ok {
		r.logger.Debug("main window changed", "window", wid)
		r.layout.SelectWindow(wid)
	}

	switch e := ev.(type) {
	case ApplicationLaunched:
		r.onApplicationLaunched(e)
	case ApplicationTerminated:
		if a, ok := r.apps[e.PID]; ok {
			r.send(a, app.Terminate{})
		}
	case ApplicationThreadTerminated:
		r.onThreadTerminated(e.PID)
	case ApplicationActivated:
		r.onApplicationActivated(now, e)
	case ApplicationDeactivated, ApplicationGloballyActivated, ApplicationGloballyDeactivated, ApplicationMainWindowChanged:
		// Tracked by the main window tracker only.
	case WindowsDiscovered:
		r.onWindowsDiscovered(e)
	case WindowCreated:
		if e.ServerInfo != nil {
			r.serverInfo[e.ServerInfo.ID] = *e.ServerInfo
		}
		r.upsertWindow(e.Window, e.Info)
	case WindowDestroyed:
		if wid, ok := r.resolve(e.Window, e.ServerID); ok {
			r.destroyWindow(wid)
		} else if e.ServerID != 0 {
			r.forgetServerWindow(e.ServerID)
		}
	case WindowMinimized:
		r.onMinimized(e.Window)
	case WindowDeminiaturized:
		r.onDeminiaturized(e.Window)
	case WindowFrameChanged:
		r.onFrameChanged(e)
	case WindowTitleChanged:
		r.onTitleChanged(e)
	case MouseMovedOverWindow:
		r.onMouseMoved(e.ServerID)
	case ResyncAppForWindow:
		r.onResync(e)
	case ScreenParametersChanged:
		r.onScreenParameters(e)
	case SpaceChanged:
		r.onSpaceChanged(e)
	case MenuOpened:
		r.menu = r.menu.opened()
		r.updateFocusFollowsMouse()
	case MenuClosed:
		if !r.menu.IsOpen() {
			r.logger.Debug("menu closed with zero depth")
			break
		}
		r.menu = r.menu.closed()
		r.updateFocusFollowsMouse()
	case SystemWoke:
		r.onSystemWoke()
	case WakeRecovery:
		r.onWakeRecovery(e)
	case PowerModeChanged:
		r.anim.LowPower = e.LowPower
	case RaiseCompleted:
		if _, ok := r.pendingRaises[e.Seq]; ok {
			delete(r.pendingRaises, e.Seq)
			r.layout.SelectWindow(e.Window)
		}
	case RaiseTimeout:
		if wid, ok := r.pendingRaises[e.Seq]; ok {
			delete(r.pendingRaises, e.Seq)
			r.logger.Debug("raise timed out", "window", wid, "seq", e.Seq)
		}
	case Command:
		r.onCommand(e)
	case WindowFocused:
		r.onWindowFocused(now, e)
	case queryEvent:
		e.fn(r)
	default:
		r.logger.Warn("unhandled event", "type", ev.Type())
	}
}

func (r *Reactor) markDirty() { r.layoutDirty = true }

// send delivers req to a worker. Failures mean the worker is gone or
// saturated; they are logged and the request is dropped.
func (r *Reactor) send(a *AppState, req app.Request) bool {
	if err := a.Handle.Send(req); err != nil {
		level := slog.LevelWarn
		if errors.Is(err, app.ErrClosed) {
			level = slog.LevelDebug
		}
		r.logger.Log(context.Background(), level, "send to app failed", "pid", a.Info.PID, "request", fmt.Sprintf("%T", req), "error", err)
		return false
	}
	return true
}

// resolve maps an event's window reference to a known WindowId.
func (r *Reactor) resolve(wid app.WindowId, server platform.WindowID) (app.WindowId, bool) {
	if !wid.IsZero() {
		_, ok := r.windows[wid]
		return wid, ok
	}
	if server == 0 {
		return app.WindowId{}, false
	}
	wid, ok := r.windowIDs[server]
	if !ok {
		return app.WindowId{}, false
	}
	_, ok = r.windows[wid]
	return wid, ok
}

func (r *Reactor) sortedWindows() []app.WindowId {
	ids := make([]app.WindowId, 0, len(r.windows))
	for wid := range r.windows {
		ids = append(ids, wid)
	}
	slices.SortFunc(ids, compareWindowIds)
	return ids
}

func compareWindowIds(a, b app.WindowId) int {
	if c := cmp.Compare(a.PID, b.PID); c != 0 {
		return c
	}
	return cmp.Compare(a.Idx, b.Idx)
}

// MainWindow returns the globally focused window.
func (r *Reactor) MainWindow() (app.WindowId, bool) {
	return r.mainWindow.MainWindow()
}

// Menu returns the menu tracking state.
func (r *Reactor) Menu() MenuState { return r.menu }

// FocusFollowsMouse reports whether focus-follows-mouse is currently in
// effect.
func (r *Reactor) FocusFollowsMouse() bool { return r.ffm }

// Window returns a copy of the state of wid.
func (r *Reactor) Window(wid app.WindowId) (WindowState, bool) {
	w, ok := r.windows[wid]
	if !ok {
		return WindowState{}, false
	}
	return *w, true
}

// Transactions exposes the transaction manager.
func (r *Reactor) Transactions() *txn.Manager { return r.txns }

// Layout exposes the layout engine.
func (r *Reactor) Layout() *layout.Engine { return r.layout }
