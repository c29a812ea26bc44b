package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// NotificationKind classifies a structure or property change.
type NotificationKind int

const (
	NotifyConfigure NotificationKind = iota
	NotifyDestroy
	NotifyTitle
	NotifyState
	NotifyClientList
	NotifyDesktop
	NotifyActiveWindow
	NotifyEnter
)

// Notification is a change observed on a client or on the root window.
type Notification struct {
	Kind     NotificationKind
	Window   xproto.Window
	Geometry Geometry
}

// WatchRoot subscribes to client-list, desktop and focus changes announced
// on the root window. Callbacks run on the xevent loop goroutine.
func (c *Connection) WatchRoot(fn func(Notification)) error {
	root := xwindow.New(c.XUtil, c.Root)
	if err := root.Listen(xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("listen on root window: %w", err)
	}

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil {
			return
		}
		switch name {
		case "_NET_CLIENT_LIST":
			fn(Notification{Kind: NotifyClientList, Window: c.Root})
		case "_NET_CURRENT_DESKTOP":
			fn(Notification{Kind: NotifyDesktop, Window: c.Root})
		case "_NET_ACTIVE_WINDOW":
			fn(Notification{Kind: NotifyActiveWindow, Window: c.Root})
		}
	}).Connect(c.XUtil, c.Root)
	return nil
}

// Watch subscribes to structure and property changes of a client window.
// Watching an already watched window is a no-op.
func (c *Connection) Watch(windowID xproto.Window, fn func(Notification)) error {
	c.mu.Lock()
	if _, ok := c.watched[windowID]; ok {
		c.mu.Unlock()
		return nil
	}
	c.watched[windowID] = struct{}{}
	c.mu.Unlock()

	win := xwindow.New(c.XUtil, windowID)
	if err := win.Listen(xproto.EventMaskStructureNotify, xproto.EventMaskPropertyChange, xproto.EventMaskEnterWindow); err != nil {
		c.forget(windowID)
		return fmt.Errorf("listen on window 0x%x: %w", windowID, err)
	}

	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		// Reparenting window managers report parent-relative coordinates,
		// so ask the server for the root-relative frame.
		geom, err := c.WindowGeometry(ev.Window)
		if err != nil {
			geom = Geometry{X: int(ev.X), Y: int(ev.Y), Width: int(ev.Width), Height: int(ev.Height)}
		}
		fn(Notification{Kind: NotifyConfigure, Window: ev.Window, Geometry: geom})
	}).Connect(c.XUtil, windowID)

	xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		c.forget(ev.Window)
		xevent.Detach(xu, ev.Window)
		fn(Notification{Kind: NotifyDestroy, Window: ev.Window})
	}).Connect(c.XUtil, windowID)

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil {
			return
		}
		switch name {
		case "_NET_WM_NAME", "WM_NAME":
			fn(Notification{Kind: NotifyTitle, Window: ev.Window})
		case "_NET_WM_STATE":
			fn(Notification{Kind: NotifyState, Window: ev.Window})
		}
	}).Connect(c.XUtil, windowID)

	xevent.EnterNotifyFun(func(xu *xgbutil.XUtil, ev xevent.EnterNotifyEvent) {
		if ev.Mode != xproto.NotifyModeNormal {
			return
		}
		fn(Notification{Kind: NotifyEnter, Window: ev.Event})
	}).Connect(c.XUtil, windowID)

	return nil
}

func (c *Connection) forget(windowID xproto.Window) {
	c.mu.Lock()
	delete(c.watched, windowID)
	c.mu.Unlock()
}
