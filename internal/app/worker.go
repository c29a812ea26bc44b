package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/txn"
	"github.com/hashicorp/go-multierror"
)

// Reporter receives what a worker observes. The reactor implements it by
// turning each call into an event on its queue.
type Reporter interface {
	// WindowsDiscovered reports window metadata and the full set of
	// windows that still exist for pid.
	WindowsDiscovered(pid int32, windows []DiscoveredWindow, known []WindowId)
	// FrameChanged reports a frame applied by the worker, tagged with the
	// transaction that produced it.
	FrameChanged(wid WindowId, frame platform.Rect, lastSeen txn.ID)
	RaiseCompleted(wid WindowId, seq uint64)
	ThreadTerminated(pid int32)
}

type workerWindow struct {
	server    platform.WindowID
	frame     platform.Rect
	lastSeen  txn.ID
	animating bool
}

// Worker executes requests for one application against the window server.
// It owns the WindowId assignment for that application.
type Worker struct {
	info     Info
	handle   *Handle
	backend  platform.Backend
	reporter Reporter
	logger   *slog.Logger

	nextIdx  uint32
	byServer map[platform.WindowID]WindowId
	windows  map[WindowId]*workerWindow
}

// NewWorker creates a worker reading from handle.
func NewWorker(info Info, handle *Handle, backend platform.Backend, reporter Reporter, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		info:     info,
		handle:   handle,
		backend:  backend,
		reporter: reporter,
		logger:   logger.With("pid", info.PID),
		byServer: make(map[platform.WindowID]WindowId),
		windows:  make(map[WindowId]*workerWindow),
	}
}

// Run processes requests until Terminate is received, the handle is closed
// or ctx is cancelled. It always reports ThreadTerminated on exit.
func (w *Worker) Run(ctx context.Context) {
	defer w.reporter.ThreadTerminated(w.info.PID)
	defer w.handle.Close()

	w.logger.Debug("app worker started", "name", w.info.Name)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.handle.Done():
			return
		case req := <-w.handle.Requests():
			if !w.handleRequest(req) {
				w.logger.Debug("app worker terminated")
				return
			}
		}
	}
}

func (w *Worker) handleRequest(req Request) bool {
	switch r := req.(type) {
	case BeginWindowAnimation:
		if win, ok := w.windows[r.Window]; ok {
			win.animating = true
		}
	case EndWindowAnimation:
		win, ok := w.windows[r.Window]
		if !ok {
			return true
		}
		win.animating = false
		w.reporter.FrameChanged(r.Window, win.frame, win.lastSeen)
	case SetWindowFrame:
		if err := w.setFrame(r.Window, r.Frame, r.TxID, r.Animating); err != nil {
			w.logger.Warn("set window frame failed", "window", r.Window, "error", err)
		}
	case SetWindowPos:
		if err := w.setPos(r.Window, r.Origin, r.TxID); err != nil {
			w.logger.Warn("set window position failed", "window", r.Window, "error", err)
		}
	case SetBatchWindowFrame:
		var result *multierror.Error
		for _, f := range r.Frames {
			if err := w.setFrame(f.Window, f.Frame, r.TxID, false); err != nil {
				result = multierror.Append(result, err)
			}
		}
		if err := result.ErrorOrNil(); err != nil {
			w.logger.Warn("batch frame update partially failed", "error", err)
		}
	case Raise:
		win, ok := w.windows[r.Window]
		if !ok {
			return true
		}
		if err := w.backend.Raise(win.server); err != nil {
			w.logger.Warn("raise failed", "window", r.Window, "error", err)
			return true
		}
		w.reporter.RaiseCompleted(r.Window, r.Seq)
	case GetVisibleWindows:
		if err := w.discover(r.ForceRefresh); err != nil {
			w.logger.Warn("window discovery failed", "error", err)
		}
	case Terminate:
		return false
	default:
		w.logger.Warn("unknown request", "type", fmt.Sprintf("%T", req))
	}
	return true
}

func (w *Worker) setFrame(wid WindowId, frame platform.Rect, txid txn.ID, animating bool) error {
	win, ok := w.windows[wid]
	if !ok {
		return fmt.Errorf("window %s not known to worker", wid)
	}
	if err := w.backend.MoveResize(win.server, frame); err != nil {
		return fmt.Errorf("move/resize %s: %w", wid, err)
	}
	win.frame = frame
	win.lastSeen = txid
	if !animating && !win.animating {
		w.reporter.FrameChanged(wid, frame, txid)
	}
	return nil
}

func (w *Worker) setPos(wid WindowId, origin platform.Point, txid txn.ID) error {
	win, ok := w.windows[wid]
	if !ok {
		return fmt.Errorf("window %s not known to worker", wid)
	}
	if err := w.backend.Move(win.server, origin); err != nil {
		return fmt.Errorf("move %s: %w", wid, err)
	}
	win.frame = win.frame.WithOrigin(origin)
	win.lastSeen = txid
	return nil
}

// discover lists the application's windows, assigns ids to new ones and
// drops the ones that disappeared.
func (w *Worker) discover(force bool) error {
	all, err := w.backend.ListWindows()
	if err != nil {
		return err
	}

	var (
		reported []DiscoveredWindow
		known    []WindowId
		present  = make(map[platform.WindowID]struct{})
	)
	for _, pw := range all {
		if pw.PID != w.info.PID {
			continue
		}
		present[pw.ID] = struct{}{}

		info := WindowInfo{
			ServerID:    pw.ID,
			Title:       pw.Title,
			Frame:       pw.Bounds,
			IsStandard:  pw.Normal,
			IsMinimized: pw.Minimized,
		}

		wid, ok := w.byServer[pw.ID]
		if !ok {
			w.nextIdx++
			wid = WindowId{PID: w.info.PID, Idx: w.nextIdx}
			w.byServer[pw.ID] = wid
			w.windows[wid] = &workerWindow{server: pw.ID, frame: pw.Bounds}
			reported = append(reported, DiscoveredWindow{Window: wid, Info: info})
		} else if force {
			w.windows[wid].frame = pw.Bounds
			reported = append(reported, DiscoveredWindow{Window: wid, Info: info})
		}
		known = append(known, wid)
	}

	for server, wid := range w.byServer {
		if _, ok := present[server]; !ok {
			delete(w.byServer, server)
			delete(w.windows, wid)
		}
	}

	w.reporter.WindowsDiscovered(w.info.PID, reported, known)
	return nil
}
