package reactor

import (
	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/platform"
)

// focusedSpace is the visible space holding the main window, or the
// primary screen's space.
func (r *Reactor) focusedSpace() platform.SpaceID {
	if main, ok := r.mainWindow.MainWindow(); ok {
		if space, _, ok := r.layout.WorkspaceFor(main); ok && r.spaceVisible(space) {
			return space
		}
	}
	return r.primarySpace()
}

// focusedWindow is the main window, or the selected window of the focused
// space.
func (r *Reactor) focusedWindow() (app.WindowId, bool) {
	if main, ok := r.mainWindow.MainWindow(); ok {
		if _, known := r.windows[main]; known {
			return main, true
		}
	}
	return r.layout.Selected(r.focusedSpace())
}

func (r *Reactor) onCommand(c Command) {
	log := r.logger.With("command", c.Kind)
	switch c.Kind {
	case CmdSwitchWorkspace:
		space := r.focusedSpace()
		if space == 0 {
			log.Debug("no visible space")
			return
		}
		changed, err := r.layout.SwitchWorkspace(space, c.Index)
		if err != nil {
			log.Warn("switch workspace failed", "error", err)
			return
		}
		if changed {
			r.publishWorkspaceChanged(space)
			r.markDirty()
		}

	case CmdMoveWindowToWorkspace:
		wid, ok := r.focusedWindow()
		if !ok {
			log.Debug("no focused window")
			return
		}
		space, _, ok := r.layout.WorkspaceFor(wid)
		if !ok {
			log.Debug("focused window is not managed", "window", wid)
			return
		}
		if err := r.layout.AssignWindowToWorkspace(wid, space, c.Index); err != nil {
			log.Warn("move window failed", "window", wid, "error", err)
			return
		}
		r.markDirty()

	case CmdToggleFloating:
		wid, ok := r.focusedWindow()
		if !ok {
			log.Debug("no focused window")
			return
		}
		floating, err := r.layout.ToggleFloating(wid)
		if err != nil {
			log.Warn("toggle floating failed", "error", err)
			return
		}
		log.Debug("floating toggled", "window", wid, "floating", floating)
		r.markDirty()

	case CmdNextLayout:
		space := r.focusedSpace()
		if space == 0 {
			log.Debug("no visible space")
			return
		}
		name, err := r.layout.NextLayout(space)
		if err != nil {
			log.Warn("next layout failed", "error", err)
			return
		}
		log.Info("layout changed", "space", space, "layout", name)
		r.publishWorkspaceChanged(space)
		r.markDirty()

	case CmdToggleFocusFollowsMouse:
		r.cfg.FocusFollowsMouse = !r.cfg.FocusFollowsMouse
		r.updateFocusFollowsMouse()
		log.Info("focus follows mouse toggled", "enabled", r.cfg.FocusFollowsMouse)

	case CmdRetile:
		r.layoutDirty = false
		if err := r.UpdateLayout(false, true); err != nil {
			log.Warn("retile failed", "error", err)
		}

	case CmdDebug:
		r.logState()

	default:
		log.Warn("unknown command")
	}
}

func (r *Reactor) logState() {
	main, hasMain := r.mainWindow.MainWindow()
	r.logger.Info("reactor state",
		"apps", len(r.apps),
		"windows", len(r.windows),
		"screens", len(r.screens),
		"main_window", main,
		"has_main_window", hasMain,
		"menu_depth", r.menu.Depth(),
		"focus_follows_mouse", r.ffm,
		"pending_raises", len(r.pendingRaises),
	)
	for _, wid := range r.sortedWindows() {
		w := r.windows[wid]
		space, idx, assigned := r.layout.WorkspaceFor(wid)
		r.logger.Info("window",
			"window", wid,
			"server_id", w.ServerID,
			"title", w.Title,
			"frame", w.Frame,
			"manageable", w.Manageable,
			"assigned", assigned,
			"space", space,
			"workspace", idx,
			"last_txid", r.txns.LastSentTxID(w.ServerID),
		)
	}
}
