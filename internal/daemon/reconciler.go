package daemon

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/reactor"
)

const (
	defaultInterval = 2 * time.Second
	// triggerDebounce coalesces bursts of property notifications into one
	// reconciliation pass.
	triggerDebounce = 50 * time.Millisecond
	// wakeSlack is how far a tick may overrun before it counts as a wake.
	wakeSlack = 5 * time.Second
)

// Source is the window-server view the reconciler polls.
type Source interface {
	Displays() ([]platform.Display, error)
	ActiveWindow() (platform.WindowID, error)
	ListWindows() ([]platform.Window, error)
	WindowServerSnapshot() ([]platform.WindowServerInfo, error)
	WatchWindows(ids []platform.WindowID) error
}

// Submitter accepts reactor events. *reactor.Reactor implements it.
type Submitter interface {
	Submit(ev reactor.Event) error
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
	// LowPower reports whether the machine should save power. Nil disables
	// power tracking.
	LowPower func() (bool, error)
	// ProcessAlive reports whether pid still exists. Defaults to a /proc
	// lookup.
	ProcessAlive func(pid int32) bool
}

type seenWindow struct {
	pid       int32
	title     string
	normal    bool
	minimized bool
}

// Reconciler turns window-server state into reactor events. It polls on an
// interval, reconciles on demand when the server announces a change, and
// forwards per-window notifications directly.
type Reconciler struct {
	interval     time.Duration
	source       Source
	sink         Submitter
	logger       *slog.Logger
	lowPower     func() (bool, error)
	processAlive func(pid int32) bool

	mu       sync.Mutex
	primed   bool
	screens  []reactor.Screen
	apps     map[int32]struct{}
	windows  map[platform.WindowID]seenWindow
	active   platform.WindowID
	power    *bool
	lastTick time.Time
	debounce *time.Timer
}

// NewReconciler creates a reconciler feeding sink from source.
func NewReconciler(cfg ReconcilerConfig, source Source, sink Submitter) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	alive := cfg.ProcessAlive
	if alive == nil {
		alive = procAlive
	}

	return &Reconciler{
		interval:     interval,
		source:       source,
		sink:         sink,
		logger:       logger.With("component", "reconciler"),
		lowPower:     cfg.LowPower,
		processAlive: alive,
		apps:         make(map[int32]struct{}),
		windows:      make(map[platform.WindowID]seenWindow),
	}
}

// Run reconciles once immediately and then on every tick. Blocks until ctx
// is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)
	r.reconcile()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			if r.debounce != nil {
				r.debounce.Stop()
			}
			r.mu.Unlock()
			r.logger.Info("reconciler stopped")
			return
		case now := <-ticker.C:
			r.checkWake(now)
			r.reconcile()
		}
	}
}

// checkWake reports a wake when the wall clock jumped further than a tick.
// The monotonic clock stops during suspend, so it is stripped.
func (r *Reconciler) checkWake(now time.Time) {
	now = now.Round(0)
	r.mu.Lock()
	last := r.lastTick
	r.lastTick = now
	r.mu.Unlock()
	if last.IsZero() {
		return
	}
	if gap := now.Sub(last); gap > r.interval+wakeSlack {
		r.logger.Info("wall clock jumped, assuming wake from sleep", "gap", gap)
		r.submit(reactor.SystemWoke{})
	}
}

// Trigger schedules a reconciliation pass shortly, coalescing bursts.
func (r *Reconciler) Trigger() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.debounce != nil {
		r.debounce.Stop()
	}
	r.debounce = time.AfterFunc(triggerDebounce, r.reconcile)
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow() {
	r.reconcile()
}

// HandleChange forwards a window-server notification. It runs on the
// window-server event goroutine.
func (r *Reconciler) HandleChange(c platform.Change) {
	switch c.Kind {
	case platform.ChangeFrame:
		r.submit(reactor.WindowFrameChanged{ServerID: c.Window, Frame: c.Frame})
	case platform.ChangeDestroyed:
		r.mu.Lock()
		_, known := r.windows[c.Window]
		delete(r.windows, c.Window)
		r.mu.Unlock()
		if known {
			r.submit(reactor.WindowDestroyed{ServerID: c.Window})
		}
	case platform.ChangePointerEnter:
		r.submit(reactor.MouseMovedOverWindow{ServerID: c.Window})
	case platform.ChangeActiveWindow:
		r.mu.Lock()
		r.syncFocus()
		r.mu.Unlock()
	case platform.ChangeTitle, platform.ChangeState, platform.ChangeClientList, platform.ChangeSpace:
		r.Trigger()
	default:
		r.logger.Debug("ignoring change", "kind", c.Kind)
	}
}

func (r *Reconciler) reconcile() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.syncPower()
	if err := r.syncScreens(); err != nil {
		r.logger.Error("failed to read displays", "error", err)
		return
	}
	if err := r.syncWindows(); err != nil {
		r.logger.Error("failed to list windows", "error", err)
		return
	}
	r.syncFocus()
	r.primed = true
}

func (r *Reconciler) syncPower() {
	if r.lowPower == nil {
		return
	}
	low, err := r.lowPower()
	if err != nil {
		r.logger.Debug("power state unavailable", "error", err)
		return
	}
	if r.power != nil && *r.power == low {
		return
	}
	r.power = &low
	r.submit(reactor.PowerModeChanged{LowPower: low})
}

func (r *Reconciler) syncScreens() error {
	displays, err := r.source.Displays()
	if err != nil {
		return err
	}
	screens := make([]reactor.Screen, 0, len(displays))
	for _, d := range displays {
		screens = append(screens, reactor.Screen{Frame: d.Usable, Space: d.Space})
	}
	if r.primed && slices.Equal(screens, r.screens) {
		return nil
	}

	framesChanged := !r.primed || len(screens) != len(r.screens)
	for i := 0; !framesChanged && i < len(screens); i++ {
		framesChanged = screens[i].Frame != r.screens[i].Frame
	}
	r.screens = screens
	if framesChanged {
		r.submit(reactor.ScreenParametersChanged{Screens: screens})
		return nil
	}
	spaces := make([]platform.SpaceID, len(screens))
	for i, s := range screens {
		spaces[i] = s.Space
	}
	r.submit(reactor.SpaceChanged{Spaces: spaces})
	return nil
}

func (r *Reconciler) syncWindows() error {
	windows, err := r.source.ListWindows()
	if err != nil {
		return err
	}
	infos, err := r.source.WindowServerSnapshot()
	if err != nil {
		return err
	}
	byID := make(map[platform.WindowID]platform.WindowServerInfo, len(infos))
	for _, si := range infos {
		byID[si.ID] = si
	}
	slices.SortFunc(windows, func(a, b platform.Window) int { return int(a.ID) - int(b.ID) })

	current := make(map[platform.WindowID]seenWindow, len(windows))
	byPID := map[int32][]platform.WindowServerInfo{}
	var pids []int32
	for _, w := range windows {
		if w.PID <= 0 {
			continue
		}
		current[w.ID] = seenWindow{pid: w.PID, title: w.Title, normal: w.Normal, minimized: w.Minimized}
		if _, ok := byPID[w.PID]; !ok {
			pids = append(pids, w.PID)
		}
		byPID[w.PID] = append(byPID[w.PID], byID[w.ID])
	}
	slices.Sort(pids)

	var watch []platform.WindowID
	for _, pid := range pids {
		if _, ok := r.apps[pid]; ok {
			continue
		}
		r.apps[pid] = struct{}{}
		name := ""
		for _, w := range windows {
			if w.PID == pid {
				name = w.AppID
				break
			}
		}
		r.submit(reactor.ApplicationLaunched{
			PID:        pid,
			Info:       app.Info{PID: pid, Name: name},
			ServerInfo: byPID[pid],
		})
		for _, si := range byPID[pid] {
			watch = append(watch, si.ID)
			r.windows[si.ID] = current[si.ID]
		}
	}

	for _, w := range windows {
		now, ok := current[w.ID]
		if !ok {
			continue
		}
		before, seen := r.windows[w.ID]
		switch {
		case !seen:
			watch = append(watch, w.ID)
			si := byID[w.ID]
			r.submit(reactor.ResyncAppForWindow{ServerID: w.ID, Info: &si})
		case before.normal != now.normal || before.minimized != now.minimized:
			si := byID[w.ID]
			r.submit(reactor.ResyncAppForWindow{ServerID: w.ID, Info: &si})
		case before.title != now.title:
			r.submit(reactor.WindowTitleChanged{ServerID: w.ID, Title: now.title})
		}
		r.windows[w.ID] = now
	}

	var gone []platform.WindowID
	for id := range r.windows {
		if _, ok := current[id]; !ok {
			gone = append(gone, id)
		}
	}
	slices.Sort(gone)
	for _, id := range gone {
		delete(r.windows, id)
		r.submit(reactor.WindowDestroyed{ServerID: id})
	}

	var ended []int32
	for pid := range r.apps {
		if _, ok := byPID[pid]; !ok && !r.processAlive(pid) {
			ended = append(ended, pid)
		}
	}
	slices.Sort(ended)
	for _, pid := range ended {
		delete(r.apps, pid)
		r.submit(reactor.ApplicationTerminated{PID: pid})
	}

	if len(watch) > 0 {
		if err := r.source.WatchWindows(watch); err != nil {
			r.logger.Warn("failed to watch new windows", "error", err)
		}
	}
	return nil
}

// syncFocus reports the active window when it changed. Callers hold r.mu.
func (r *Reconciler) syncFocus() {
	active, err := r.source.ActiveWindow()
	if err != nil || active == 0 || active == r.active {
		return
	}
	if _, ok := r.windows[active]; !ok {
		return
	}
	r.active = active
	r.submit(reactor.WindowFocused{ServerID: active})
}

func (r *Reconciler) submit(ev reactor.Event) {
	if err := r.sink.Submit(ev); err != nil {
		r.logger.Debug("dropping event", "type", ev.Type(), "error", err)
	}
}

func procAlive(pid int32) bool {
	_, err := os.Stat("/proc/" + strconv.Itoa(int(pid)))
	return err == nil
}
