package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/1broseidon/tilewm/internal/platform"
)

// Spawner creates the mailbox for a newly launched application.
type Spawner interface {
	Spawn(info Info) *Handle
}

// LiveSpawner starts one Worker goroutine per application.
type LiveSpawner struct {
	ctx      context.Context
	backend  platform.Backend
	reporter Reporter
	logger   *slog.Logger
	capacity int

	wg sync.WaitGroup
}

// NewLiveSpawner returns a spawner whose workers stop when ctx is cancelled.
func NewLiveSpawner(ctx context.Context, backend platform.Backend, reporter Reporter, logger *slog.Logger) *LiveSpawner {
	return &LiveSpawner{
		ctx:      ctx,
		backend:  backend,
		reporter: reporter,
		logger:   logger,
		capacity: DefaultMailboxCapacity,
	}
}

func (s *LiveSpawner) Spawn(info Info) *Handle {
	h := NewHandle(info.PID, s.capacity)
	w := NewWorker(info, h, s.backend, s.reporter, s.logger)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		w.Run(s.ctx)
	}()
	return h
}

// Wait blocks until every spawned worker has exited.
func (s *LiveSpawner) Wait() {
	s.wg.Wait()
}

// SinkSpawner routes every application's requests to one Sink instead of a
// live worker.
type SinkSpawner struct {
	Sink Sink
}

func (s SinkSpawner) Spawn(info Info) *Handle {
	return NewSinkHandle(info.PID, s.Sink)
}
