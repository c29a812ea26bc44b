package reactor

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// recordHeader is the first line of a recording.
type recordHeader struct {
	Session string `json:"session"`
	Config  Config `json:"config"`
}

// Record writes a session as newline-delimited JSON: a header with the
// reactor configuration, the layout snapshot, then one line per event.
type Record struct {
	mu      sync.Mutex
	w       *bufio.Writer
	closer  io.Closer
	session string
	started bool
	seq     uint64
}

// NewRecord records to w.
func NewRecord(w io.Writer) *Record {
	rec := &Record{w: bufio.NewWriter(w), session: uuid.NewString()}
	if c, ok := w.(io.Closer); ok {
		rec.closer = c
	}
	return rec
}

// CreateRecord records to a new file at path, truncating any existing one.
func CreateRecord(path string) (*Record, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create record file: %w", err)
	}
	return NewRecord(f), nil
}

// Session returns the id written in the header.
func (r *Record) Session() string { return r.session }

// Start writes the header and layout snapshot. It may be called once.
func (r *Record) Start(cfg Config, layoutSnapshot []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("recording %s already started", r.session)
	}
	r.started = true
	header, err := json.Marshal(recordHeader{Session: r.session, Config: cfg})
	if err != nil {
		return err
	}
	if err := r.writeLine(header); err != nil {
		return err
	}
	if err := r.writeLine(layoutSnapshot); err != nil {
		return err
	}
	return r.w.Flush()
}

// OnEvent appends ev. Each line is flushed so a crash loses at most the
// event being written.
func (r *Record) OnEvent(at time.Time, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	line, err := encodeEvent(r.seq+1, at, ev)
	if err != nil {
		return err
	}
	r.seq++
	if err := r.writeLine(line); err != nil {
		return err
	}
	return r.w.Flush()
}

func (r *Record) writeLine(b []byte) error {
	if _, err := r.w.Write(b); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return r.w.WriteByte('\n')
}

// Close flushes and closes the underlying writer if it is closable.
func (r *Record) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.w.Flush()
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
