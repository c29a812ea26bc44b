package reactor

import (
	"time"

	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/platform"
)

func (r *Reactor) onApplicationLaunched(e ApplicationLaunched) {
	if _, ok := r.apps[e.PID]; ok {
		r.logger.Debug("application already running", "pid", e.PID)
		return
	}
	info := e.Info
	info.PID = e.PID
	a := &AppState{Info: info, Handle: r.spawner.Spawn(info)}
	r.apps[e.PID] = a
	for _, si := range e.ServerInfo {
		r.serverInfo[si.ID] = si
	}
	r.logger.Debug("application launched", "pid", e.PID, "name", info.Name)
	r.send(a, app.GetVisibleWindows{})
}

func (r *Reactor) onThreadTerminated(pid int32) {
	for _, wid := range r.sortedWindows() {
		if wid.PID == pid {
			r.destroyWindow(wid)
		}
	}
	for server, wid := range r.windowIDs {
		if wid.PID == pid {
			delete(r.windowIDs, server)
		}
	}
	if a, ok := r.apps[pid]; ok {
		a.Handle.Close()
		delete(r.apps, pid)
	}
	delete(r.lastActivation, pid)
	r.logger.Debug("application thread terminated", "pid", pid)
}

func (r *Reactor) onApplicationActivated(now time.Time, e ApplicationActivated) {
	if e.Quiet {
		r.logger.Debug("skipping workspace switch for quiet activation", "pid", e.PID)
		return
	}
	if last, ok := r.lastActivation[e.PID]; ok && now.Sub(last) < activationDedup {
		r.logger.Debug("skipping duplicate activation", "pid", e.PID)
		return
	}
	r.lastActivation[e.PID] = now
	r.switchToAppWorkspace(e.PID)
}

// switchToAppWorkspace makes a workspace holding one of pid's windows
// active, unless one of them is already visible.
func (r *Reactor) switchToAppWorkspace(pid int32) {
	var candidates []app.WindowId
	if main, ok := r.mainWindow.MainWindow(); ok && main.PID == pid {
		candidates = append(candidates, main)
	}
	for _, wid := range r.sortedWindows() {
		if wid.PID == pid {
			candidates = append(candidates, wid)
		}
	}

	var (
		target    platform.SpaceID
		targetIdx = -1
	)
	for _, wid := range candidates {
		space, idx, ok := r.layout.WorkspaceFor(wid)
		if !ok || !r.spaceVisible(space) {
			continue
		}
		if idx == r.layout.ActiveWorkspace(space) {
			return
		}
		if targetIdx < 0 {
			target, targetIdx = space, idx
		}
	}
	if targetIdx < 0 {
		return
	}

	if _, err := r.layout.SwitchWorkspace(target, targetIdx); err != nil {
		r.logger.Warn("workspace switch failed", "space", target, "workspace", targetIdx, "error", err)
		return
	}
	r.logger.Debug("switched workspace for activation", "pid", pid, "space", target, "workspace", targetIdx)
	r.publishWorkspaceChanged(target)
	r.markDirty()
}

// onWindowFocused derives application activation edges from a focus change
// reported per window. Focus that results from one of our own raises is a
// quiet edge.
func (r *Reactor) onWindowFocused(now time.Time, e WindowFocused) {
	wid, ok := r.windowIDs[e.ServerID]
	if !ok {
		r.logger.Debug("focus on unknown window", "server_id", e.ServerID)
		return
	}
	if _, ok := r.apps[wid.PID]; !ok {
		return
	}
	quiet := Quiet(r.raisePending(wid))

	prev, hasPrev := r.mainWindow.Frontmost()
	switched := !hasPrev || prev != wid.PID
	if switched && hasPrev {
		r.handle(now, ApplicationDeactivated{PID: prev})
		r.handle(now, ApplicationGloballyDeactivated{PID: prev})
	}
	r.handle(now, ApplicationMainWindowChanged{PID: wid.PID, Window: wid, Quiet: quiet})
	r.handle(now, ApplicationActivated{PID: wid.PID, Quiet: quiet})
	if switched {
		r.handle(now, ApplicationGloballyActivated{PID: wid.PID})
	}
}
