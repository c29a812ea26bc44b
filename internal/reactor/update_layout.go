package reactor

import (
	"github.com/1broseidon/tilewm/internal/animation"
	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/txn"
)

// UpdateLayout asks the layout engine for the frames of every visible space
// and moves windows whose frame differs from the target. isResize marks a
// bulk change such as a screen reconfiguration; it and hidden windows are
// positioned instantly in one batch per application. force resends frames
// even when the reactor believes a window is already in place.
//
// A layout failure on one space does not stop the others; the first one is
// returned as a *LayoutError.
func (r *Reactor) UpdateLayout(isResize, force bool) error {
	var first error
	for _, screen := range r.screens {
		if screen.Space == 0 {
			continue
		}
		if err := r.layoutSpace(screen, isResize, force); err != nil {
			r.logger.Warn("layout failed", "space", screen.Space, "error", err)
			if first == nil {
				first = &LayoutError{Space: screen.Space, Err: err}
			}
		}
		r.publishWindowsChanged(screen.Space)
	}
	clear(r.fresh)
	return first
}

type appBatch struct {
	app    *AppState
	frames []app.FrameUpdate
}

func (r *Reactor) layoutSpace(screen Screen, isResize, force bool) error {
	entries, err := r.layout.Layout(screen.Space, screen.Frame)
	if err != nil {
		return err
	}

	var (
		anim     = animation.New(r.anim)
		animated []*WindowState
		batches  []*appBatch
		byPID    = map[int32]*appBatch{}
	)
	for _, entry := range entries {
		w, ok := r.windows[entry.Window]
		if !ok {
			continue
		}
		a, ok := r.apps[entry.Window.PID]
		if !ok {
			continue
		}
		target := entry.Frame
		if entry.Hidden {
			target = w.Frame.WithOrigin(entry.Frame.Origin())
		}
		if !force && w.Frame.SameAs(target) {
			continue
		}

		if entry.Hidden || isResize || !r.cfg.Animate {
			b, ok := byPID[entry.Window.PID]
			if !ok {
				b = &appBatch{app: a}
				byPID[entry.Window.PID] = b
				batches = append(batches, b)
			}
			b.frames = append(b.frames, app.FrameUpdate{Window: entry.Window, Frame: target})
		} else {
			var txid txn.ID
			if w.ServerID != 0 {
				txid = r.txns.GenerateNextTxID(w.ServerID)
				r.txns.UpdateTxIDEntries([]txn.Entry{{Window: w.ServerID, TxID: txid, Target: target}})
			}
			_, isFocus := r.fresh[entry.Window]
			anim.Add(a.Handle, entry.Window, w.Frame, target, isFocus, txid)
			w.Animating = true
			animated = append(animated, w)
		}
		w.Frame = target
	}

	for _, b := range batches {
		r.sendBatch(b)
	}
	if anim.Len() > 0 {
		if err := anim.Play(isResize); err != nil {
			r.logger.Debug("animation incomplete", "space", screen.Space, "error", err)
		}
	}
	for _, w := range animated {
		w.Animating = false
	}
	return nil
}

// sendBatch positions the windows of one application under a single
// transaction id, one past the highest id already sent to any of them so
// every window's id keeps increasing.
func (r *Reactor) sendBatch(b *appBatch) {
	var (
		last    txn.ID
		servers []platform.WindowID
		targets []platform.Rect
	)
	for _, fu := range b.frames {
		server := r.windows[fu.Window].ServerID
		if server == 0 {
			continue
		}
		last = max(last, r.txns.LastSentTxID(server))
		servers = append(servers, server)
		targets = append(targets, fu.Frame)
	}

	var txid txn.ID
	if len(servers) > 0 {
		txid = last.Next()
		entries := make([]txn.Entry, len(servers))
		for i, server := range servers {
			entries[i] = txn.Entry{Window: server, TxID: txid, Target: targets[i]}
		}
		r.txns.UpdateTxIDEntries(entries)
	}
	r.send(b.app, app.SetBatchWindowFrame{Frames: b.frames, TxID: txid})
}
