package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleSend_ReportsFullWithoutBlocking(t *testing.T) {
	h := NewHandle(10, 1)

	require.NoError(t, h.Send(Terminate{}))
	assert.ErrorIs(t, h.Send(Terminate{}), ErrFull)
}

func TestHandleSend_ReportsClosed(t *testing.T) {
	h := NewHandle(10, 4)
	h.Close()
	h.Close()

	assert.True(t, h.Closed())
	assert.ErrorIs(t, h.Send(GetVisibleWindows{}), ErrClosed)
}

func TestSinkHandle_DeliversSynchronously(t *testing.T) {
	var got []Request
	h := NewSinkHandle(7, func(pid int32, req Request) {
		assert.Equal(t, int32(7), pid)
		got = append(got, req)
	})

	require.NoError(t, h.Send(GetVisibleWindows{ForceRefresh: true}))
	require.NoError(t, h.Send(Terminate{}))
	assert.Equal(t, []Request{GetVisibleWindows{ForceRefresh: true}, Terminate{}}, got)

	h.Close()
	assert.ErrorIs(t, h.Send(Terminate{}), ErrClosed)
	assert.Len(t, got, 2)
}

func TestSinkSpawner(t *testing.T) {
	var pids []int32
	s := SinkSpawner{Sink: func(pid int32, _ Request) { pids = append(pids, pid) }}

	h := s.Spawn(Info{PID: 3})
	require.NoError(t, h.Send(Terminate{}))
	assert.Equal(t, []int32{3}, pids)
	assert.Equal(t, int32(3), h.PID())
}
