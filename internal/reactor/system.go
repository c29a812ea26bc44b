package reactor

import (
	"fmt"
	"slices"
	"time"

	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/hashicorp/go-multierror"
)

func (r *Reactor) spaceVisible(space platform.SpaceID) bool {
	if space == 0 {
		return false
	}
	for _, s := range r.screens {
		if s.Space == space {
			return true
		}
	}
	return false
}

// primarySpace is the space on the first screen that has one.
func (r *Reactor) primarySpace() platform.SpaceID {
	for _, s := range r.screens {
		if s.Space != 0 {
			return s.Space
		}
	}
	return 0
}

func (r *Reactor) screenSpaceAt(p platform.Point) platform.SpaceID {
	for _, s := range r.screens {
		if s.Frame.Contains(p) {
			return s.Space
		}
	}
	return 0
}

// spaceForWindow prefers the space reported by the window server and falls
// back to the screen under the window's centre.
func (r *Reactor) spaceForWindow(w *WindowState) platform.SpaceID {
	if si, ok := r.serverInfo[w.ServerID]; ok && si.Space != 0 {
		return si.Space
	}
	return r.screenSpaceAt(w.Frame.Center())
}

func (r *Reactor) onScreenParameters(e ScreenParametersChanged) {
	r.screens = slices.Clone(e.Screens)
	r.logger.Debug("screen parameters changed", "screens", len(r.screens))
	r.assignDeferred()
	r.layoutDirty = false
	if err := r.UpdateLayout(true, false); err != nil {
		r.logger.Warn("layout update failed", "error", err)
	}
}

func (r *Reactor) onSpaceChanged(e SpaceChanged) {
	for i, space := range e.Spaces {
		if i >= len(r.screens) {
			r.logger.Warn("space change for unknown screen", "screen", i)
			break
		}
		if r.screens[i].Space == space {
			continue
		}
		r.screens[i].Space = space
		if space != 0 {
			r.publishWorkspaceChanged(space)
		}
	}
	r.assignDeferred()
	r.markDirty()
}

func (r *Reactor) updateFocusFollowsMouse() {
	enabled := r.cfg.FocusFollowsMouse && !r.menu.IsOpen()
	if enabled != r.ffm {
		r.logger.Debug("focus follows mouse", "enabled", enabled, "menu_depth", r.menu.Depth())
	}
	r.ffm = enabled
}

func (r *Reactor) onMouseMoved(server platform.WindowID) {
	if !r.ffm {
		return
	}
	wid, ok := r.windowIDs[server]
	if !ok {
		return
	}
	w, ok := r.windows[wid]
	if !ok || !w.Manageable {
		return
	}
	if main, ok := r.mainWindow.MainWindow(); ok && main == wid {
		return
	}
	if r.raisePending(wid) {
		return
	}
	r.raise(wid)
}

func (r *Reactor) scheduleRaiseTimeout(seq uint64) {
	if r.raiseWait <= 0 {
		return
	}
	time.AfterFunc(r.raiseWait, func() {
		r.submitAsync(RaiseTimeout{Seq: seq})
	})
}

// submitAsync queues ev from a timer, dropping it once the reactor stopped.
func (r *Reactor) submitAsync(ev Event) {
	select {
	case r.queue <- ev:
	case <-r.done:
	}
}

// onSystemWoke schedules a window-server snapshot. The snapshot re-enters
// the queue as WakeRecovery so that recovery is recorded and replayable.
func (r *Reactor) onSystemWoke() {
	if r.snapshot == nil {
		r.logger.Debug("system woke; no snapshot source configured")
		return
	}
	r.logger.Debug("system woke, scheduling recovery", "delay", r.wakeDelay)
	time.AfterFunc(r.wakeDelay, func() {
		snap, err := r.snapshot()
		if err != nil {
			r.logger.Warn("wake snapshot failed", "error", err)
			return
		}
		r.submitAsync(WakeRecovery{Snapshot: snap})
	})
}

// onWakeRecovery rebuilds state the window server may have changed while
// asleep: unknown windows get placeholder ids, every known window is
// reassigned to the workspace of its space, a full layout is forced and
// create/destroy notifications are re-armed for every window.
func (r *Reactor) onWakeRecovery(e WakeRecovery) {
	var result *multierror.Error

	discovered := 0
	for _, si := range e.Snapshot {
		r.serverInfo[si.ID] = si
		if _, ok := r.windowIDs[si.ID]; ok {
			continue
		}
		r.windowIDs[si.ID] = app.WindowId{PID: si.PID, Idx: uint32(si.ID)}
		discovered++
	}

	servers := make([]platform.WindowID, 0, len(r.windowIDs))
	for server := range r.windowIDs {
		servers = append(servers, server)
	}
	slices.Sort(servers)

	reassigned, deferred := 0, 0
	needsInfo := map[int32]bool{}
	for _, server := range servers {
		wid := r.windowIDs[server]
		w, ok := r.windows[wid]
		if !ok {
			deferred++
			needsInfo[wid.PID] = true
			continue
		}
		r.refreshManageable(wid, w)
		if !w.Manageable {
			continue
		}
		si, ok := r.serverInfo[server]
		if !ok || si.Space == 0 {
			continue
		}
		if cur, _, ok := r.layout.WorkspaceFor(wid); ok && cur == si.Space {
			reassigned++
			continue
		}
		r.layout.RemoveWindow(wid)
		r.layout.AssignWindow(wid, si.Space)
		reassigned++
	}

	r.layoutDirty = false
	if err := r.UpdateLayout(false, true); err != nil {
		result = multierror.Append(result, err)
	}

	pids := make([]int32, 0, len(needsInfo))
	for pid := range needsInfo {
		pids = append(pids, pid)
	}
	slices.Sort(pids)
	for _, pid := range pids {
		if a, ok := r.apps[pid]; ok {
			r.send(a, app.GetVisibleWindows{ForceRefresh: true})
		}
	}

	if r.notifier != nil {
		if err := r.notifier.WatchWindows(servers); err != nil {
			result = multierror.Append(result, fmt.Errorf("re-arm window notifications: %w", err))
		}
	}

	r.logger.Info("wake recovery complete",
		"discovered", discovered, "reassigned", reassigned, "deferred", deferred, "windows", len(servers))
	if err := result.ErrorOrNil(); err != nil {
		r.logger.Warn("wake recovery incomplete", "error", err)
	}
}
