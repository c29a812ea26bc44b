// Package txn tracks per-window transaction ids. A transaction id marks the
// freshness of the last rectangle commanded for a window so acknowledgments
// that arrive out of order can be recognized and discarded.
package txn

import (
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/puzpuzpuz/xsync/v3"
)

// ID is a per-window transaction sequence number. Zero means no transaction
// has been issued yet.
type ID uint32

// Next returns the id following id. It wraps silently on overflow; a full
// wraparound between two acknowledgments for one window does not happen in
// practice.
func (id ID) Next() ID {
	return id + 1
}

// Record is the latest transaction issued for a window together with the
// rectangle it commanded, if one is still pending.
type Record struct {
	TxID   ID             `json:"txid"`
	Target *platform.Rect `json:"target,omitempty"`
}

// Store is a concurrent map from window-server id to Record. Every update is
// an atomic read-modify-write on a single key, so bookkeeping for different
// windows never contends on a shared lock.
type Store struct {
	m *xsync.MapOf[platform.WindowID, Record]
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{m: xsync.NewMapOf[platform.WindowID, Record]()}
}

// Get returns the record for id.
func (s *Store) Get(id platform.WindowID) (Record, bool) {
	return s.m.Load(id)
}

// Update atomically replaces the record for id with fn's result. fn receives
// the zero Record when id has no entry.
func (s *Store) Update(id platform.WindowID, fn func(Record) Record) Record {
	rec, _ := s.m.Compute(id, func(old Record, _ bool) (Record, bool) {
		return fn(old), false
	})
	return rec
}

// Remove deletes the record for id.
func (s *Store) Remove(id platform.WindowID) {
	s.m.Delete(id)
}

// Len returns the number of tracked windows.
func (s *Store) Len() int {
	return s.m.Size()
}
