package reactor

import (
	"slices"

	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/platform"
)

func (r *Reactor) onWindowsDiscovered(e WindowsDiscovered) {
	for _, dw := range e.Windows {
		r.upsertWindow(dw.Window, dw.Info)
	}
	for _, wid := range r.sortedWindows() {
		if wid.PID == e.PID && !slices.Contains(e.Known, wid) {
			r.destroyWindow(wid)
		}
	}
}

// upsertWindow registers or refreshes a window reported by its application.
func (r *Reactor) upsertWindow(wid app.WindowId, info app.WindowInfo) {
	if wid.IsZero() {
		return
	}
	if info.ServerID != 0 {
		if prev, ok := r.windowIDs[info.ServerID]; ok && prev != wid {
			// A placeholder id from wake recovery, or a reused server id.
			if _, live := r.windows[prev]; live {
				r.destroyWindow(prev)
			}
		}
		r.windowIDs[info.ServerID] = wid
	}

	w, exists := r.windows[wid]
	if !exists {
		w = &WindowState{Frame: info.Frame, ServerID: info.ServerID}
		r.windows[wid] = w
	}
	if w.ServerID == 0 {
		w.ServerID = info.ServerID
	}
	w.Title = info.Title
	w.IsStandard = info.IsStandard
	w.Minimized = info.IsMinimized
	r.refreshManageable(wid, w)
	r.assign(wid)
}

// refreshManageable recomputes whether w can be tiled: a standard window
// that is not minimized and sits on the normal window layer.
func (r *Reactor) refreshManageable(wid app.WindowId, w *WindowState) {
	manageable := w.IsStandard && !w.Minimized
	if si, ok := r.serverInfo[w.ServerID]; ok && si.Layer != 0 {
		manageable = false
	}
	if w.Manageable && !manageable {
		if r.layout.RemoveWindow(wid) {
			r.markDirty()
		}
	}
	w.Manageable = manageable
}

// assign places a manageable window into the layout when its space is on
// screen. Windows whose space is unknown or hidden stay unassigned until a
// screen or space change brings them in.
func (r *Reactor) assign(wid app.WindowId) bool {
	w := r.windows[wid]
	if w == nil || !w.Manageable {
		return false
	}
	if _, _, ok := r.layout.WorkspaceFor(wid); ok {
		return false
	}
	space := r.spaceForWindow(w)
	if space == 0 || !r.spaceVisible(space) {
		return false
	}
	r.layout.AssignWindow(wid, space)
	r.fresh[wid] = struct{}{}
	r.markDirty()
	return true
}

func (r *Reactor) assignDeferred() {
	for _, wid := range r.sortedWindows() {
		r.assign(wid)
	}
}

// forgetServerWindow drops bookkeeping for a server window that never got a
// WindowState, such as a wake placeholder whose worker never reported it.
func (r *Reactor) forgetServerWindow(server platform.WindowID) {
	if wid, ok := r.windowIDs[server]; ok {
		if _, known := r.windows[wid]; known {
			return
		}
		delete(r.windowIDs, server)
	}
	delete(r.serverInfo, server)
	r.txns.RemoveForWindow(server)
}

func (r *Reactor) destroyWindow(wid app.WindowId) {
	w, ok := r.windows[wid]
	if !ok {
		return
	}
	space, _, assigned := r.layout.WorkspaceFor(wid)
	if w.ServerID != 0 {
		r.txns.RemoveForWindow(w.ServerID)
		if r.windowIDs[w.ServerID] == wid {
			delete(r.windowIDs, w.ServerID)
		}
		delete(r.serverInfo, w.ServerID)
	}
	delete(r.windows, wid)
	delete(r.fresh, wid)
	if r.layout.RemoveWindow(wid) {
		r.markDirty()
	}

	for other := range r.windows {
		if other.PID == wid.PID {
			return
		}
	}
	// The application's last window closed: hand focus to a neighbour.
	if !assigned {
		space = r.primarySpace()
	}
	if space == 0 {
		return
	}
	if visible := r.layout.VisibleWindows(space); len(visible) > 0 {
		r.raise(visible[0])
	}
}

func (r *Reactor) onMinimized(wid app.WindowId) {
	w, ok := r.windows[wid]
	if !ok {
		r.logger.Debug("minimize for unknown window", "window", wid)
		return
	}
	if w.Minimized {
		return
	}
	w.Minimized = true
	r.refreshManageable(wid, w)
}

func (r *Reactor) onDeminiaturized(wid app.WindowId) {
	w, ok := r.windows[wid]
	if !ok {
		r.logger.Debug("deminiaturize for unknown window", "window", wid)
		return
	}
	if !w.Minimized {
		return
	}
	w.Minimized = false
	r.refreshManageable(wid, w)
	r.assign(wid)
}

// onFrameChanged reconciles a reported frame with the transaction record of
// the window. Reports older than the last transaction sent are discarded;
// a report matching the pending target confirms it; anything else while a
// target is pending is an intermediate frame. Without a pending target the
// change came from the user.
func (r *Reactor) onFrameChanged(e WindowFrameChanged) {
	wid, ok := r.resolve(e.Window, e.ServerID)
	if !ok {
		return
	}
	w := r.windows[wid]
	if w.Animating {
		return
	}

	if w.ServerID != 0 {
		if r.txns.IsStale(w.ServerID, e.LastSeen) {
			r.logger.Debug("ignoring stale frame change", "window", wid,
				"last_seen", e.LastSeen, "last_sent", r.txns.LastSentTxID(w.ServerID))
			return
		}
		if target, pending := r.txns.TargetFrame(w.ServerID); pending {
			if e.Frame.SameAs(target) {
				w.Frame = e.Frame
				r.txns.ClearTarget(w.ServerID)
			}
			return
		}
	}

	old := w.Frame
	w.Frame = e.Frame
	if old.SameAs(e.Frame) {
		return
	}
	r.onUserMoved(wid, w)
}

// onUserMoved handles a move the window manager did not ask for. A tiled
// window dragged onto another screen joins that screen's active workspace.
// Other moves only update the recorded frame; the next layout puts tiled
// windows back.
func (r *Reactor) onUserMoved(wid app.WindowId, w *WindowState) {
	space, _, ok := r.layout.WorkspaceFor(wid)
	if !ok || r.layout.IsFloating(wid) {
		return
	}
	if now := r.screenSpaceAt(w.Frame.Center()); now != 0 && now != space {
		r.layout.RemoveWindow(wid)
		r.layout.AssignWindow(wid, now)
		r.logger.Debug("window moved to another screen", "window", wid, "space", now)
		r.markDirty()
	}
}

func (r *Reactor) onTitleChanged(e WindowTitleChanged) {
	wid, ok := r.resolve(e.Window, e.ServerID)
	if !ok {
		return
	}
	w := r.windows[wid]
	if w.Title == e.Title {
		return
	}
	w.Title = e.Title
	r.publisher.Publish(TopicWindowTitleChanged, TitleChange{Window: wid, Title: e.Title})
}

func (r *Reactor) onResync(e ResyncAppForWindow) {
	if e.Info != nil {
		r.serverInfo[e.Info.ID] = *e.Info
	}
	var pid int32
	if wid, ok := r.windowIDs[e.ServerID]; ok {
		pid = wid.PID
	} else if si, ok := r.serverInfo[e.ServerID]; ok {
		pid = si.PID
	} else {
		r.logger.Debug("resync for unknown window", "server_id", e.ServerID)
		return
	}
	if a, ok := r.apps[pid]; ok {
		r.send(a, app.GetVisibleWindows{ForceRefresh: true})
	}
}

// raise asks the owner of wid to activate it.
func (r *Reactor) raise(wid app.WindowId) {
	a, ok := r.apps[wid.PID]
	if !ok {
		return
	}
	r.raiseSeq++
	seq := r.raiseSeq
	if !r.send(a, app.Raise{Window: wid, Seq: seq}) {
		return
	}
	r.pendingRaises[seq] = wid
	r.scheduleRaiseTimeout(seq)
}

func (r *Reactor) raisePending(wid app.WindowId) bool {
	for _, pending := range r.pendingRaises {
		if pending == wid {
			return true
		}
	}
	return false
}
