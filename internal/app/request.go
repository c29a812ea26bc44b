package app

import (
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/txn"
)

// Request is a command sent to an application worker.
type Request interface {
	isRequest()
}

// BeginWindowAnimation tells the worker a window is about to be animated so
// it stops reporting intermediate frames.
type BeginWindowAnimation struct {
	Window WindowId
}

// EndWindowAnimation ends an animation started by BeginWindowAnimation.
type EndWindowAnimation struct {
	Window WindowId
}

// SetWindowFrame moves and resizes a window.
type SetWindowFrame struct {
	Window    WindowId
	Frame     platform.Rect
	TxID      txn.ID
	Animating bool
}

// SetWindowPos moves a window without resizing it.
type SetWindowPos struct {
	Window    WindowId
	Origin    platform.Point
	TxID      txn.ID
	Animating bool
}

// FrameUpdate is one element of a SetBatchWindowFrame.
type FrameUpdate struct {
	Window WindowId
	Frame  platform.Rect
}

// SetBatchWindowFrame positions several windows of one application under a
// shared transaction id.
type SetBatchWindowFrame struct {
	Frames []FrameUpdate
	TxID   txn.ID
}

// Raise activates a window. Seq is echoed back in the completion report.
type Raise struct {
	Window WindowId
	Seq    uint64
}

// GetVisibleWindows asks the worker to enumerate the application's windows.
// ForceRefresh re-reads metadata for windows the worker already knows.
type GetVisibleWindows struct {
	ForceRefresh bool
}

// Terminate stops the worker.
type Terminate struct{}

func (BeginWindowAnimation) isRequest() {}
func (EndWindowAnimation) isRequest()   {}
func (SetWindowFrame) isRequest()       {}
func (SetWindowPos) isRequest()         {}
func (SetBatchWindowFrame) isRequest()  {}
func (Raise) isRequest()                {}
func (GetVisibleWindows) isRequest()    {}
func (Terminate) isRequest()            {}
