// Package app holds per-application state shared between the reactor and
// the worker that executes window commands for one process.
package app

import (
	"fmt"

	"github.com/1broseidon/tilewm/internal/platform"
)

// WindowId is the stable logical identifier of a window: the owning process
// and a non-zero index unique within that process for the window's
// lifetime.
type WindowId struct {
	PID int32  `json:"pid"`
	Idx uint32 `json:"idx"`
}

// IsZero reports whether w identifies no window.
func (w WindowId) IsZero() bool {
	return w.Idx == 0
}

func (w WindowId) String() string {
	return fmt.Sprintf("%d/%d", w.PID, w.Idx)
}

// Info describes an application process.
type Info struct {
	PID      int32  `json:"pid"`
	BundleID string `json:"bundle_id,omitempty"`
	Name     string `json:"name,omitempty"`
}

// WindowInfo is what the owning application reports about a window.
type WindowInfo struct {
	ServerID    platform.WindowID `json:"server_id,omitempty"`
	Title       string            `json:"title,omitempty"`
	Frame       platform.Rect     `json:"frame"`
	IsStandard  bool              `json:"is_standard"`
	IsMinimized bool              `json:"is_minimized,omitempty"`
}

// DiscoveredWindow pairs a newly assigned WindowId with its metadata.
type DiscoveredWindow struct {
	Window WindowId   `json:"window"`
	Info   WindowInfo `json:"info"`
}
