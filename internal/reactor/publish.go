package reactor

import (
	"slices"

	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/platform"
)

// Topics published for observers such as status bars.
const (
	TopicWorkspaceChanged   = "workspace_changed"
	TopicWindowsChanged     = "windows_changed"
	TopicWindowTitleChanged = "window_title_changed"
)

// Publisher fans domain events out to subscribers. Each topic carries one
// argument of the matching change type below.
type Publisher interface {
	Publish(topic string, args ...any)
}

// WorkspaceChange is published on TopicWorkspaceChanged.
type WorkspaceChange struct {
	Space  platform.SpaceID `json:"space"`
	Index  int              `json:"index"`
	Name   string           `json:"name"`
	Layout string           `json:"layout"`
}

// WindowsChange is published on TopicWindowsChanged with the windows now
// visible in a space.
type WindowsChange struct {
	Space     platform.SpaceID `json:"space"`
	Workspace int              `json:"workspace"`
	Windows   []app.WindowId   `json:"windows"`
}

// TitleChange is published on TopicWindowTitleChanged.
type TitleChange struct {
	Window app.WindowId `json:"window"`
	Title  string       `json:"title"`
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, ...any) {}

func (r *Reactor) publishWorkspaceChanged(space platform.SpaceID) {
	idx := r.layout.ActiveWorkspace(space)
	ws := r.layout.Workspaces(space)[idx]
	r.publisher.Publish(TopicWorkspaceChanged, WorkspaceChange{
		Space:  space,
		Index:  idx,
		Name:   ws.Name,
		Layout: ws.Layout,
	})
}

// publishWindowsChanged publishes the visible windows of space when they
// differ from what was last published for it.
func (r *Reactor) publishWindowsChanged(space platform.SpaceID) {
	visible := r.layout.VisibleWindows(space)
	if last, ok := r.published[space]; ok && slices.Equal(last, visible) {
		return
	}
	r.published[space] = visible
	r.publisher.Publish(TopicWindowsChanged, WindowsChange{
		Space:     space,
		Workspace: r.layout.ActiveWorkspace(space),
		Windows:   visible,
	})
}
