//go:build linux

package platform

import (
	"fmt"
	"sort"
	"sync"

	"github.com/1broseidon/tilewm/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxBackend wraps an X11 connection behind the platform Backend interface.
// EWMH desktops map to spaces as desktop+1 so that zero stays "unknown".
type LinuxBackend struct {
	conn *x11.Connection

	mu       sync.Mutex
	onChange func(Change)
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay() (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// StopEventLoop makes a running EventLoop return.
func (b *LinuxBackend) StopEventLoop() {
	if b != nil && b.conn != nil {
		b.conn.Quit()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// OnChange installs the handler for window-server notifications and starts
// watching the root window. Handlers run on the X11 event loop goroutine and
// must not block.
func (b *LinuxBackend) OnChange(fn func(Change)) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
	return conn.WatchRoot(b.dispatch)
}

// Displays returns all active displays, sorted by ID.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	monitors, err := conn.Monitors()
	if err != nil {
		return nil, err
	}

	space := SpaceID(0)
	if desktop, err := conn.CurrentDesktop(); err == nil {
		space = SpaceID(desktop + 1)
	}

	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, Display{
			ID:     m.ID,
			Name:   m.Name,
			Bounds: fromGeometry(m.Bounds),
			Usable: fromGeometry(m.Usable),
			Space:  space,
		})
	}

	sort.Slice(displays, func(i, j int) bool {
		return displays[i].ID < displays[j].ID
	})
	return displays, nil
}

// ActiveWindow returns the currently active/focused window ID.
func (b *LinuxBackend) ActiveWindow() (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	wid, err := conn.GetActiveWindow()
	if err != nil {
		return 0, err
	}
	return WindowID(wid), nil
}

// ListWindows lists every managed client window with its metadata.
func (b *LinuxBackend) ListWindows() ([]Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := conn.ClientList()
	if err != nil {
		return nil, err
	}

	windows := make([]Window, 0, len(clients))
	for _, id := range clients {
		geom, err := conn.WindowGeometry(id)
		if err != nil {
			continue
		}
		windows = append(windows, Window{
			ID:        WindowID(id),
			PID:       conn.WindowPID(id),
			AppID:     conn.WindowClass(id),
			Title:     conn.WindowTitle(id),
			Bounds:    fromGeometry(geom),
			Normal:    conn.IsNormalWindow(id),
			Minimized: conn.IsHidden(id),
		})
	}
	return windows, nil
}

// WindowServerSnapshot returns the server-side view of every client window.
func (b *LinuxBackend) WindowServerSnapshot() ([]WindowServerInfo, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := conn.ClientList()
	if err != nil {
		return nil, err
	}

	infos := make([]WindowServerInfo, 0, len(clients))
	for _, id := range clients {
		geom, err := conn.WindowGeometry(id)
		if err != nil {
			continue
		}
		info := WindowServerInfo{
			ID:    WindowID(id),
			PID:   conn.WindowPID(id),
			Frame: fromGeometry(geom),
		}
		if !conn.IsNormalWindow(id) || conn.IsAbove(id) {
			info.Layer = 1
		}
		if desktop, err := conn.WindowDesktop(id); err == nil && desktop >= 0 {
			info.Space = SpaceID(desktop + 1)
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos, nil
}

// MoveResize moves and resizes a window to the specified bounds.
func (b *LinuxBackend) MoveResize(windowID WindowID, bounds Rect) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	x, y, w, h := bounds.Ints()
	return conn.MoveResizeWindow(xproto.Window(windowID), x, y, w, h)
}

// Move changes the window origin only.
func (b *LinuxBackend) Move(windowID WindowID, origin Point) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	x, y, _, _ := Rect{X: origin.X, Y: origin.Y}.Ints()
	return conn.MoveWindow(xproto.Window(windowID), x, y)
}

// Raise activates and raises a window.
func (b *LinuxBackend) Raise(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.FocusWindow(xproto.Window(windowID))
}

// Close requests a graceful window close.
func (b *LinuxBackend) Close(windowID WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.CloseWindow(xproto.Window(windowID))
}

// WatchWindows subscribes to structure notifications for every id. All
// subscriptions are attempted; the first failure is returned.
func (b *LinuxBackend) WatchWindows(ids []WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	var first error
	for _, id := range ids {
		if err := conn.Watch(xproto.Window(id), b.dispatch); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (b *LinuxBackend) dispatch(n x11.Notification) {
	b.mu.Lock()
	fn := b.onChange
	b.mu.Unlock()
	if fn == nil {
		return
	}

	change := Change{Window: WindowID(n.Window)}
	switch n.Kind {
	case x11.NotifyConfigure:
		change.Kind = ChangeFrame
		change.Frame = fromGeometry(n.Geometry)
	case x11.NotifyDestroy:
		change.Kind = ChangeDestroyed
	case x11.NotifyTitle:
		change.Kind = ChangeTitle
	case x11.NotifyState:
		change.Kind = ChangeState
	case x11.NotifyClientList:
		change = Change{Kind: ChangeClientList}
	case x11.NotifyDesktop:
		change = Change{Kind: ChangeSpace}
	case x11.NotifyActiveWindow:
		change = Change{Kind: ChangeActiveWindow}
	case x11.NotifyEnter:
		change.Kind = ChangePointerEnter
	default:
		return
	}
	fn(change)
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func fromGeometry(g x11.Geometry) Rect {
	return NewRect(g.X, g.Y, g.Width, g.Height)
}
