package reactor

import (
	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/txn"
)

// queueReporter turns worker observations into reactor events.
type queueReporter struct {
	r *Reactor
}

// Reporter returns the app.Reporter workers use to report back.
func (r *Reactor) Reporter() app.Reporter {
	return queueReporter{r: r}
}

func (q queueReporter) submit(ev Event) {
	if err := q.r.Submit(ev); err != nil {
		q.r.logger.Debug("dropping worker report", "type", ev.Type(), "error", err)
	}
}

func (q queueReporter) WindowsDiscovered(pid int32, windows []app.DiscoveredWindow, known []app.WindowId) {
	q.submit(WindowsDiscovered{PID: pid, Windows: windows, Known: known})
}

func (q queueReporter) FrameChanged(wid app.WindowId, frame platform.Rect, lastSeen txn.ID) {
	q.submit(WindowFrameChanged{Window: wid, Frame: frame, LastSeen: lastSeen})
}

func (q queueReporter) RaiseCompleted(wid app.WindowId, seq uint64) {
	q.submit(RaiseCompleted{Window: wid, Seq: seq})
}

func (q queueReporter) ThreadTerminated(pid int32) {
	q.submit(ApplicationThreadTerminated{PID: pid})
}
