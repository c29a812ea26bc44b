package txn

import "github.com/1broseidon/tilewm/internal/platform"

// Entry pairs a window with a transaction it has been sent.
type Entry struct {
	Window platform.WindowID
	TxID   ID
	Target platform.Rect
}

// Manager issues and tracks transaction ids. It is safe for concurrent use;
// the reactor, the animation engine and timers all call into it.
//
// There is no limit on unacknowledged transactions: a new id can be issued
// while earlier ones for the same window are still in flight.
type Manager struct {
	store *Store
}

// NewManager returns a Manager backed by store. A nil store gets a fresh one.
func NewManager(store *Store) *Manager {
	if store == nil {
		store = NewStore()
	}
	return &Manager{store: store}
}

// Store exposes the backing store.
func (m *Manager) Store() *Store {
	return m.store
}

// GenerateNextTxID issues the next id for a window and clears its pending
// target. The first id issued for a window is 1.
func (m *Manager) GenerateNextTxID(id platform.WindowID) ID {
	rec := m.store.Update(id, func(old Record) Record {
		return Record{TxID: old.TxID.Next()}
	})
	return rec.TxID
}

// UpdateTxIDEntries records the id and target rectangle of each entry,
// overwriting whatever was stored. Applying the same entries twice is a
// no-op.
func (m *Manager) UpdateTxIDEntries(entries []Entry) {
	for _, e := range entries {
		target := e.Target
		m.store.Update(e.Window, func(Record) Record {
			return Record{TxID: e.TxID, Target: &target}
		})
	}
}

// SetLastSentTxID records txid as the latest id for a window without
// touching the pending target.
func (m *Manager) SetLastSentTxID(id platform.WindowID, txid ID) {
	m.store.Update(id, func(old Record) Record {
		old.TxID = txid
		return old
	})
}

// LastSentTxID returns the latest id issued for a window, or 0.
func (m *Manager) LastSentTxID(id platform.WindowID) ID {
	rec, _ := m.store.Get(id)
	return rec.TxID
}

// TargetFrame returns the pending target rectangle for a window.
func (m *Manager) TargetFrame(id platform.WindowID) (platform.Rect, bool) {
	rec, ok := m.store.Get(id)
	if !ok || rec.Target == nil {
		return platform.Rect{}, false
	}
	return *rec.Target, true
}

// ClearTarget drops the pending target of a window once the window server
// has confirmed it. The last sent id is kept so later stale acknowledgments
// are still recognized.
func (m *Manager) ClearTarget(id platform.WindowID) {
	m.store.Update(id, func(old Record) Record {
		old.Target = nil
		return old
	})
}

// IsStale reports whether an acknowledgment carrying seen is older than the
// latest id issued for the window. A zero seen id carries no ordering
// information and is never stale.
func (m *Manager) IsStale(id platform.WindowID, seen ID) bool {
	return seen != 0 && seen != m.LastSentTxID(id)
}

// RemoveForWindow forgets everything about a window.
func (m *Manager) RemoveForWindow(id platform.WindowID) {
	m.store.Remove(id)
}
