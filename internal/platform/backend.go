package platform

// WindowID is the window server's identifier for a top-level window. It is
// assigned by the server and may be reused after the window is destroyed.
type WindowID uint32

// SpaceID identifies a virtual desktop. Zero means the space is unknown
// (sticky windows, or metadata that has not arrived yet).
type SpaceID uint64

// Display describes a physical display, its usable work area and the space
// currently shown on it.
type Display struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Bounds Rect    `json:"bounds"`
	Usable Rect    `json:"usable"`
	Space  SpaceID `json:"space"`
}

// WindowServerInfo is the server-side view of a window, independent of the
// process that owns it.
type WindowServerInfo struct {
	ID    WindowID `json:"id"`
	PID   int32    `json:"pid"`
	Layer int      `json:"layer"`
	Frame Rect     `json:"frame"`
	Space SpaceID  `json:"space,omitempty"`
}

// Window contains metadata and geometry for a top-level window.
type Window struct {
	ID        WindowID `json:"id"`
	PID       int32    `json:"pid"`
	AppID     string   `json:"app_id,omitempty"`
	Title     string   `json:"title,omitempty"`
	Bounds    Rect     `json:"bounds"`
	Normal    bool     `json:"normal"`
	Minimized bool     `json:"minimized,omitempty"`
}

// Backend abstracts window-system operations. It is the command sink the
// per-application workers drive and the snapshot source the reactor queries.
type Backend interface {
	Displays() ([]Display, error)
	ActiveWindow() (WindowID, error)
	ListWindows() ([]Window, error)
	WindowServerSnapshot() ([]WindowServerInfo, error)
	MoveResize(windowID WindowID, bounds Rect) error
	Move(windowID WindowID, origin Point) error
	Raise(windowID WindowID) error
	Close(windowID WindowID) error
	// WatchWindows subscribes to structure notifications for the given
	// windows. Calling it again with a superset is safe.
	WatchWindows(ids []WindowID) error
}
