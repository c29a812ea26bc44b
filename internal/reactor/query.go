package reactor

import (
	"context"

	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/layout"
	"github.com/1broseidon/tilewm/internal/platform"
)

// queryEvent runs fn on the reactor goroutine. It is never recorded.
type queryEvent struct {
	fn func(*Reactor)
}

func (queryEvent) Type() string { return "query" }

// Status is a point-in-time view of the reactor for control clients.
type Status struct {
	Screens           []ScreenStatus `json:"screens"`
	Windows           []WindowStatus `json:"windows"`
	MainWindow        *app.WindowId  `json:"main_window,omitempty"`
	FocusFollowsMouse bool           `json:"focus_follows_mouse"`
	MenuDepth         uint32         `json:"menu_depth"`
	LowPower          bool           `json:"low_power"`
}

// ScreenStatus describes one screen and the workspaces of its space.
type ScreenStatus struct {
	Frame      platform.Rect          `json:"frame"`
	Space      platform.SpaceID       `json:"space"`
	Active     int                    `json:"active"`
	Workspaces []layout.WorkspaceInfo `json:"workspaces,omitempty"`
}

// WindowStatus describes one known window.
type WindowStatus struct {
	ID         app.WindowId      `json:"id"`
	ServerID   platform.WindowID `json:"server_id,omitempty"`
	Title      string            `json:"title,omitempty"`
	Frame      platform.Rect     `json:"frame"`
	Manageable bool              `json:"manageable"`
	Floating   bool              `json:"floating,omitempty"`
	Space      platform.SpaceID  `json:"space,omitempty"`
	Workspace  *int              `json:"workspace,omitempty"`
}

// Query runs fn on the reactor goroutine and waits for it to finish.
func (r *Reactor) Query(ctx context.Context, fn func(*Reactor)) error {
	done := make(chan struct{})
	ev := queryEvent{fn: func(r *Reactor) {
		defer close(done)
		fn(r)
	}}
	select {
	case <-r.done:
		return errStopped
	default:
	}
	select {
	case r.queue <- ev:
	case <-r.done:
		return errStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-r.done:
		return errStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status snapshots the reactor state.
func (r *Reactor) Status(ctx context.Context) (Status, error) {
	var st Status
	err := r.Query(ctx, func(r *Reactor) { st = r.status() })
	return st, err
}

func (r *Reactor) status() Status {
	st := Status{
		Screens:           make([]ScreenStatus, 0, len(r.screens)),
		Windows:           make([]WindowStatus, 0, len(r.windows)),
		FocusFollowsMouse: r.ffm,
		MenuDepth:         r.menu.Depth(),
		LowPower:          r.anim.LowPower,
	}
	if main, ok := r.mainWindow.MainWindow(); ok {
		st.MainWindow = &main
	}
	for _, s := range r.screens {
		ss := ScreenStatus{Frame: s.Frame, Space: s.Space}
		if s.Space != 0 {
			ss.Active = r.layout.ActiveWorkspace(s.Space)
			ss.Workspaces = r.layout.Workspaces(s.Space)
		}
		st.Screens = append(st.Screens, ss)
	}
	for _, wid := range r.sortedWindows() {
		w := r.windows[wid]
		ws := WindowStatus{
			ID:         wid,
			ServerID:   w.ServerID,
			Title:      w.Title,
			Frame:      w.Frame,
			Manageable: w.Manageable,
			Floating:   r.layout.IsFloating(wid),
		}
		if space, idx, ok := r.layout.WorkspaceFor(wid); ok {
			ws.Space = space
			ws.Workspace = &idx
		}
		st.Windows = append(st.Windows, ws)
	}
	return st
}
