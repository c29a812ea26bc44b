package layout

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/platform"
)

// Snapshot is the serialisable state of an Engine.
type Snapshot struct {
	Settings Settings        `json:"settings"`
	Spaces   []SpaceSnapshot `json:"spaces"`
}

type SpaceSnapshot struct {
	Space      platform.SpaceID `json:"space"`
	Active     int              `json:"active"`
	Selected   app.WindowId     `json:"selected"`
	Workspaces []Workspace      `json:"workspaces"`
}

// Snapshot captures the engine state. Spaces are ordered by id so equal
// engines produce identical JSON.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{Settings: e.settings, Spaces: []SpaceSnapshot{}}
	for _, id := range e.Spaces() {
		st := e.spaces[id]
		ss := SpaceSnapshot{Space: id, Active: st.active, Selected: st.selected}
		for _, ws := range st.workspaces {
			cp := *ws
			cp.Slots = append([]Slot{}, ws.Slots...)
			ss.Workspaces = append(ss.Workspaces, cp)
		}
		snap.Spaces = append(snap.Spaces, ss)
	}
	return snap
}

// FromSnapshot rebuilds an engine from snap.
func FromSnapshot(snap Snapshot) (*Engine, error) {
	e := New(snap.Settings)
	for _, ss := range snap.Spaces {
		if len(ss.Workspaces) == 0 {
			return nil, fmt.Errorf("space %d has no workspaces", ss.Space)
		}
		if ss.Active < 0 || ss.Active >= len(ss.Workspaces) {
			return nil, fmt.Errorf("space %d: active workspace %d: %w", ss.Space, ss.Active, ErrNoSuchWorkspace)
		}
		st := &spaceState{active: ss.Active, selected: ss.Selected}
		for _, ws := range ss.Workspaces {
			cp := ws
			cp.Slots = append([]Slot{}, ws.Slots...)
			st.workspaces = append(st.workspaces, &cp)
		}
		e.spaces[ss.Space] = st
	}
	return e, nil
}

// MarshalSnapshot encodes the engine state as JSON.
func (e *Engine) MarshalSnapshot() ([]byte, error) {
	return json.Marshal(e.Snapshot())
}

// UnmarshalSnapshot decodes data produced by MarshalSnapshot.
func UnmarshalSnapshot(data []byte) (*Engine, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode layout snapshot: %w", err)
	}
	return FromSnapshot(snap)
}
