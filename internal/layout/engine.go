// Package layout assigns windows to per-space virtual workspaces and computes
// their tiled frames. The reactor consults it as its layout oracle.
package layout

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/platform"
)

var ErrNoSuchWorkspace = errors.New("no such workspace")

// Settings is the configuration the engine needs. It is part of the engine
// snapshot so a recording can rebuild the engine without the config file.
type Settings struct {
	Layouts       map[string]config.Layout `json:"layouts"`
	Order         []string                 `json:"order"`
	DefaultLayout string                   `json:"default_layout"`
	Gap           int                      `json:"gap"`
	Padding       config.Margins           `json:"padding"`
	Workspaces    int                      `json:"workspaces"`
}

// SettingsFromConfig extracts the layout settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	layouts := make(map[string]config.Layout, len(cfg.Layouts))
	for name, l := range cfg.Layouts {
		layouts[name] = l
	}
	return Settings{
		Layouts:       layouts,
		Order:         cfg.LayoutNames(),
		DefaultLayout: cfg.DefaultLayout,
		Gap:           cfg.GapSize,
		Padding:       cfg.ScreenPadding,
		Workspaces:    cfg.WorkspacesPerSpace,
	}
}

// Slot is a window's place in a workspace.
type Slot struct {
	Window   app.WindowId `json:"window"`
	Floating bool         `json:"floating,omitempty"`
}

// Workspace is one virtual workspace of a space. Tiled windows are laid out
// in slot order.
type Workspace struct {
	Name   string `json:"name"`
	Layout string `json:"layout"`
	Slots  []Slot `json:"slots"`
}

func (w *Workspace) find(wid app.WindowId) int {
	return slices.IndexFunc(w.Slots, func(s Slot) bool { return s.Window == wid })
}

func (w *Workspace) tiled() []app.WindowId {
	var out []app.WindowId
	for _, s := range w.Slots {
		if !s.Floating {
			out = append(out, s.Window)
		}
	}
	return out
}

type spaceState struct {
	active     int
	workspaces []*Workspace
	selected   app.WindowId
}

// Entry is one computed window position. Hidden entries belong to inactive
// workspaces: their Frame carries only the parking origin and the caller
// keeps the window's current size.
type Entry struct {
	Window app.WindowId
	Frame  platform.Rect
	Hidden bool
}

// Engine owns workspace membership for every space. It is not safe for
// concurrent use; the reactor calls it from its own goroutine.
type Engine struct {
	settings Settings
	spaces   map[platform.SpaceID]*spaceState
}

func New(settings Settings) *Engine {
	if settings.Workspaces < 1 {
		settings.Workspaces = 1
	}
	return &Engine{
		settings: settings,
		spaces:   make(map[platform.SpaceID]*spaceState),
	}
}

func (e *Engine) Settings() Settings { return e.settings }

// space returns the state of id, creating it on first use.
func (e *Engine) space(id platform.SpaceID) *spaceState {
	st, ok := e.spaces[id]
	if !ok {
		st = e.newSpace()
		e.spaces[id] = st
	}
	return st
}

// peek returns the state of id for reading. A space without state reads as
// a fresh one, which is not stored.
func (e *Engine) peek(id platform.SpaceID) *spaceState {
	if st, ok := e.spaces[id]; ok {
		return st
	}
	return e.newSpace()
}

func (e *Engine) newSpace() *spaceState {
	st := &spaceState{}
	for i := 0; i < e.settings.Workspaces; i++ {
		st.workspaces = append(st.workspaces, &Workspace{
			Name:   strconv.Itoa(i + 1),
			Layout: e.settings.DefaultLayout,
		})
	}
	return st
}

// Spaces returns the spaces the engine has state for, in ascending order.
func (e *Engine) Spaces() []platform.SpaceID {
	ids := make([]platform.SpaceID, 0, len(e.spaces))
	for id := range e.spaces {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ActiveWorkspace returns the index of the active workspace of space.
func (e *Engine) ActiveWorkspace(space platform.SpaceID) int {
	return e.peek(space).active
}

// WorkspaceFor locates wid.
func (e *Engine) WorkspaceFor(wid app.WindowId) (platform.SpaceID, int, bool) {
	for id, st := range e.spaces {
		for i, ws := range st.workspaces {
			if ws.find(wid) >= 0 {
				return id, i, true
			}
		}
	}
	return 0, 0, false
}

// AssignWindow places wid in the active workspace of space unless it already
// belongs to a workspace there. It returns the workspace index.
func (e *Engine) AssignWindow(wid app.WindowId, space platform.SpaceID) int {
	if cur, idx, ok := e.WorkspaceFor(wid); ok {
		if cur == space {
			return idx
		}
		e.RemoveWindow(wid)
	}
	st := e.space(space)
	ws := st.workspaces[st.active]
	ws.Slots = append(ws.Slots, Slot{Window: wid})
	return st.active
}

// AssignWindowToWorkspace moves wid to workspace idx of space, keeping its
// floating flag.
func (e *Engine) AssignWindowToWorkspace(wid app.WindowId, space platform.SpaceID, idx int) error {
	st := e.space(space)
	if idx < 0 || idx >= len(st.workspaces) {
		return fmt.Errorf("workspace %d of space %d: %w", idx, space, ErrNoSuchWorkspace)
	}
	slot := Slot{Window: wid}
	if cur, curIdx, ok := e.WorkspaceFor(wid); ok {
		if cur == space && curIdx == idx {
			return nil
		}
		from := e.spaces[cur].workspaces[curIdx]
		slot = from.Slots[from.find(wid)]
		e.RemoveWindow(wid)
	}
	ws := st.workspaces[idx]
	ws.Slots = append(ws.Slots, slot)
	return nil
}

// RemoveWindow forgets wid. It reports whether the window was known.
func (e *Engine) RemoveWindow(wid app.WindowId) bool {
	for _, st := range e.spaces {
		if st.selected == wid {
			st.selected = app.WindowId{}
		}
		for _, ws := range st.workspaces {
			if i := ws.find(wid); i >= 0 {
				ws.Slots = slices.Delete(ws.Slots, i, i+1)
				return true
			}
		}
	}
	return false
}

// SwitchWorkspace activates workspace idx of space. It reports whether the
// active workspace changed.
func (e *Engine) SwitchWorkspace(space platform.SpaceID, idx int) (bool, error) {
	st := e.space(space)
	if idx < 0 || idx >= len(st.workspaces) {
		return false, fmt.Errorf("workspace %d of space %d: %w", idx, space, ErrNoSuchWorkspace)
	}
	if st.active == idx {
		return false, nil
	}
	st.active = idx
	return true, nil
}

// SetFloating marks wid as floating or tiled. Unknown windows are ignored.
func (e *Engine) SetFloating(wid app.WindowId, floating bool) bool {
	space, idx, ok := e.WorkspaceFor(wid)
	if !ok {
		return false
	}
	ws := e.spaces[space].workspaces[idx]
	ws.Slots[ws.find(wid)].Floating = floating
	return true
}

// IsFloating reports whether wid is floating.
func (e *Engine) IsFloating(wid app.WindowId) bool {
	space, idx, ok := e.WorkspaceFor(wid)
	if !ok {
		return false
	}
	ws := e.spaces[space].workspaces[idx]
	return ws.Slots[ws.find(wid)].Floating
}

// ToggleFloating flips wid's floating flag and returns the new value.
func (e *Engine) ToggleFloating(wid app.WindowId) (bool, error) {
	if _, _, ok := e.WorkspaceFor(wid); !ok {
		return false, fmt.Errorf("window %s is not in any workspace", wid)
	}
	floating := !e.IsFloating(wid)
	e.SetFloating(wid, floating)
	return floating, nil
}

// NextLayout advances the active workspace of space to the next layout in
// the configured order and returns its name.
func (e *Engine) NextLayout(space platform.SpaceID) (string, error) {
	order := e.settings.Order
	if len(order) == 0 {
		return "", fmt.Errorf("no layouts configured")
	}
	st := e.space(space)
	ws := st.workspaces[st.active]
	next := order[0]
	if i := slices.Index(order, ws.Layout); i >= 0 {
		next = order[(i+1)%len(order)]
	}
	ws.Layout = next
	return next, nil
}

// SelectWindow records wid as the selected window of the space it lives in.
func (e *Engine) SelectWindow(wid app.WindowId) {
	if space, _, ok := e.WorkspaceFor(wid); ok {
		e.spaces[space].selected = wid
	}
}

// Selected returns the selected window of space, if any.
func (e *Engine) Selected(space platform.SpaceID) (app.WindowId, bool) {
	st, ok := e.spaces[space]
	if !ok || st.selected.IsZero() {
		return app.WindowId{}, false
	}
	return st.selected, true
}

// VisibleWindows returns the windows of the active workspace of space.
func (e *Engine) VisibleWindows(space platform.SpaceID) []app.WindowId {
	st := e.peek(space)
	ws := st.workspaces[st.active]
	out := make([]app.WindowId, 0, len(ws.Slots))
	for _, s := range ws.Slots {
		out = append(out, s.Window)
	}
	return out
}

// Layout computes frames for space shown on screen. Tiled windows of the
// active workspace come first in slot order; windows that exceed the
// layout's capacity share its last tile. Floating windows are left alone.
// Windows of inactive workspaces follow as hidden entries.
func (e *Engine) Layout(space platform.SpaceID, screen platform.Rect) ([]Entry, error) {
	st := e.space(space)
	ws := st.workspaces[st.active]

	var entries []Entry
	if tiled := ws.tiled(); len(tiled) > 0 {
		name := ws.Layout
		l, ok := e.settings.Layouts[name]
		if !ok {
			return nil, fmt.Errorf("workspace %s: layout %q not found", ws.Name, name)
		}
		x, y, w, h := screen.Ints()
		p := e.settings.Padding
		area := cell{X: x + p.Left, Y: y + p.Top, Width: w - p.Left - p.Right, Height: h - p.Top - p.Bottom}
		cells, err := tile(len(tiled), applyRegion(area, l.TileRegion), &l, e.settings.Gap)
		if err != nil {
			return nil, fmt.Errorf("workspace %s layout %q: %w", ws.Name, name, err)
		}
		for i, wid := range tiled {
			c := cells[min(i, len(cells)-1)]
			entries = append(entries, Entry{Window: wid, Frame: platform.NewRect(c.X, c.Y, c.Width, c.Height)})
		}
	}

	park := platform.Rect{X: screen.X + screen.Width - 1, Y: screen.Y + screen.Height - 1}
	for i, other := range st.workspaces {
		if i == st.active {
			continue
		}
		for _, s := range other.Slots {
			entries = append(entries, Entry{Window: s.Window, Frame: park, Hidden: true})
		}
	}
	return entries, nil
}

// WorkspaceInfo summarises a workspace for status queries.
type WorkspaceInfo struct {
	Index    int            `json:"index"`
	Name     string         `json:"name"`
	Layout   string         `json:"layout"`
	Active   bool           `json:"active"`
	Windows  []app.WindowId `json:"windows"`
	Floating []app.WindowId `json:"floating,omitempty"`
}

// Workspaces describes every workspace of space.
func (e *Engine) Workspaces(space platform.SpaceID) []WorkspaceInfo {
	st := e.peek(space)
	out := make([]WorkspaceInfo, 0, len(st.workspaces))
	for i, ws := range st.workspaces {
		info := WorkspaceInfo{Index: i, Name: ws.Name, Layout: ws.Layout, Active: i == st.active, Windows: []app.WindowId{}}
		for _, s := range ws.Slots {
			if s.Floating {
				info.Floating = append(info.Floating, s.Window)
			} else {
				info.Windows = append(info.Windows, s.Window)
			}
		}
		out = append(out, info)
	}
	return out
}
