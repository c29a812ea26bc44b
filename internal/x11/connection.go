package x11

import (
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection manages the X11 connection, the root window and the set of
// client windows we have subscribed to.
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	mu      sync.Mutex
	watched map[xproto.Window]struct{}
}

// NewConnection establishes a connection to the X11 server and initializes
// the keybind module for global hotkeys. EWMH and RandR are initialized
// lazily by xgbutil.
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}

	keybind.Initialize(xu)

	return &Connection{
		XUtil:   xu,
		Root:    xu.RootWin(),
		watched: make(map[xproto.Window]struct{}),
	}, nil
}

// EventLoop runs the xevent main loop. It blocks until Quit is called.
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Quit stops a running EventLoop.
func (c *Connection) Quit() {
	xevent.Quit(c.XUtil)
}

// Close disconnects from the X11 server.
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
