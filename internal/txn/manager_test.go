package txn

import (
	"math"
	"sync"
	"testing"

	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNextTxID_StartsAtOneAndClearsTarget(t *testing.T) {
	m := NewManager(nil)
	const wid platform.WindowID = 42

	assert.Equal(t, ID(0), m.LastSentTxID(wid))
	assert.Equal(t, ID(1), m.GenerateNextTxID(wid))

	m.UpdateTxIDEntries([]Entry{{Window: wid, TxID: 1, Target: platform.NewRect(0, 0, 100, 100)}})
	_, ok := m.TargetFrame(wid)
	require.True(t, ok)

	assert.Equal(t, ID(2), m.GenerateNextTxID(wid))
	_, ok = m.TargetFrame(wid)
	assert.False(t, ok, "generating a new id must clear the pending target")
}

func TestGenerateNextTxID_WrapsSilently(t *testing.T) {
	m := NewManager(nil)
	m.SetLastSentTxID(7, ID(math.MaxUint32))

	assert.Equal(t, ID(0), m.GenerateNextTxID(7))
	assert.Equal(t, ID(1), m.GenerateNextTxID(7))
}

func TestUpdateTxIDEntries_IsIdempotent(t *testing.T) {
	m := NewManager(nil)
	target := platform.NewRect(10, 20, 300, 400)
	entries := []Entry{{Window: 1, TxID: 5, Target: target}}

	m.UpdateTxIDEntries(entries)
	m.UpdateTxIDEntries(entries)

	assert.Equal(t, ID(5), m.LastSentTxID(1))
	got, ok := m.TargetFrame(1)
	require.True(t, ok)
	assert.Equal(t, target, got)
}

func TestSetLastSentTxID_KeepsTarget(t *testing.T) {
	m := NewManager(nil)
	target := platform.NewRect(0, 0, 50, 50)
	m.UpdateTxIDEntries([]Entry{{Window: 3, TxID: 1, Target: target}})

	m.SetLastSentTxID(3, 9)

	assert.Equal(t, ID(9), m.LastSentTxID(3))
	got, ok := m.TargetFrame(3)
	require.True(t, ok)
	assert.Equal(t, target, got)
}

func TestIsStale(t *testing.T) {
	m := NewManager(nil)
	m.GenerateNextTxID(1)
	m.GenerateNextTxID(1)

	tests := []struct {
		name string
		seen ID
		want bool
	}{
		{name: "no ordering information", seen: 0, want: false},
		{name: "older transaction", seen: 1, want: true},
		{name: "latest transaction", seen: 2, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.IsStale(1, tt.seen))
		})
	}
}

func TestClearTargetKeepsLastSent(t *testing.T) {
	m := NewManager(nil)
	m.UpdateTxIDEntries([]Entry{{Window: 2, TxID: 4, Target: platform.NewRect(0, 0, 1, 1)}})

	m.ClearTarget(2)

	_, ok := m.TargetFrame(2)
	assert.False(t, ok)
	assert.Equal(t, ID(4), m.LastSentTxID(2))
}

func TestRemoveForWindow(t *testing.T) {
	m := NewManager(nil)
	m.GenerateNextTxID(1)
	m.GenerateNextTxID(2)

	m.RemoveForWindow(1)

	assert.Equal(t, ID(0), m.LastSentTxID(1))
	assert.Equal(t, ID(1), m.LastSentTxID(2))
	assert.Equal(t, 1, m.Store().Len())
}

func TestGenerateNextTxID_ConcurrentCallersGetDistinctIDs(t *testing.T) {
	m := NewManager(nil)
	const workers, perWorker = 8, 250

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[ID]struct{})
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]ID, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				local = append(local, m.GenerateNextTxID(99))
			}
			mu.Lock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, ID(workers*perWorker), m.LastSentTxID(99))
}
