package reactor

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/1broseidon/tilewm/internal/animation"
	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/layout"
)

// maxRecordLine bounds one recorded line; snapshots of large sessions can be
// far longer than bufio's default token size.
const maxRecordLine = 16 << 20

// Recording is a parsed session.
type Recording struct {
	Session string
	Config  Config
	Layout  layout.Snapshot
	Events  []TimedEvent
}

// ParseRecording reads a complete recording. Any malformed line fails the
// whole parse with a *ParseError: a truncated final line, a header or
// snapshot line out of place, or event lines whose sequence numbers skip or
// repeat or whose times go backwards.
func ParseRecording(rd io.Reader) (*Recording, error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordLine)

	rec := &Recording{}
	line := 0
	var last TimedEvent
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(bytes.TrimSpace(b)) == 0 {
			return nil, &ParseError{Line: line, Err: errors.New("empty line")}
		}
		switch line {
		case 1:
			h, err := parseHeader(b)
			if err != nil {
				return nil, &ParseError{Line: line, Err: fmt.Errorf("header: %w", err)}
			}
			rec.Session, rec.Config = h.Session, h.Config
		case 2:
			snap, err := parseLayoutSnapshot(b)
			if err != nil {
				return nil, &ParseError{Line: line, Err: fmt.Errorf("layout snapshot: %w", err)}
			}
			rec.Layout = snap
		default:
			ev, err := decodeEvent(b)
			if err != nil {
				return nil, &ParseError{Line: line, Err: err}
			}
			if ev.Seq != last.Seq+1 {
				return nil, &ParseError{Line: line, Err: fmt.Errorf("event seq %d, want %d", ev.Seq, last.Seq+1)}
			}
			if ev.Time.Before(last.Time) {
				return nil, &ParseError{Line: line, Err: fmt.Errorf("event time %s before %s", ev.Time.Format(time.RFC3339Nano), last.Time.Format(time.RFC3339Nano))}
			}
			rec.Events = append(rec.Events, ev)
			last = ev
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Line: line + 1, Err: err}
	}
	if line < 2 {
		return nil, &ParseError{Line: line + 1, Err: io.ErrUnexpectedEOF}
	}
	return rec, nil
}

func parseHeader(b []byte) (recordHeader, error) {
	var h recordHeader
	if err := decodeStrict(b, &h); err != nil {
		return recordHeader{}, err
	}
	if h.Session == "" {
		return recordHeader{}, errors.New("missing session")
	}
	return h, nil
}

func parseLayoutSnapshot(b []byte) (layout.Snapshot, error) {
	var snap layout.Snapshot
	if err := decodeStrict(b, &snap); err != nil {
		return layout.Snapshot{}, err
	}
	if len(snap.Settings.Layouts) == 0 {
		return layout.Snapshot{}, errors.New("no layouts")
	}
	return snap, nil
}

// Replay re-runs the recording at path against sink instead of live
// workers.
func Replay(path string, sink app.Sink, logger *slog.Logger) (*Reactor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()
	rec, err := ParseRecording(f)
	if err != nil {
		return nil, err
	}
	return ReplayRecording(rec, sink, logger)
}

// ReplayRecording rebuilds the reactor from rec and feeds it every event in
// order, with the reactor clock set to each event's recorded time. The same
// recording always produces the same request sequence on sink.
func ReplayRecording(rec *Recording, sink app.Sink, logger *slog.Logger) (*Reactor, error) {
	engine, err := layout.FromSnapshot(rec.Layout)
	if err != nil {
		return nil, fmt.Errorf("restore layout: %w", err)
	}
	start := time.Time{}
	if len(rec.Events) > 0 {
		start = rec.Events[0].Time
	}
	clock := animation.NewManualClock(start)
	r, err := New(Options{
		Config: rec.Config,
		Layout: engine,
		NewSpawner: func(app.Reporter) app.Spawner {
			return app.SinkSpawner{Sink: sink}
		},
		Clock:  clock,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	for _, ev := range rec.Events {
		clock.Set(ev.Time)
		r.HandleEvent(ev.Event)
	}
	return r, nil
}
