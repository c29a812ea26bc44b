//go:build linux

package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/tilewm/internal/app"
	"github.com/1broseidon/tilewm/internal/broadcast"
	"github.com/1broseidon/tilewm/internal/config"
	"github.com/1broseidon/tilewm/internal/hotkeys"
	"github.com/1broseidon/tilewm/internal/ipc"
	"github.com/1broseidon/tilewm/internal/layout"
	"github.com/1broseidon/tilewm/internal/platform"
	"github.com/1broseidon/tilewm/internal/reactor"
	"github.com/1broseidon/tilewm/internal/runtimepath"
)

const raiseTimeout = 500 * time.Millisecond

// Run connects to the X server and runs the window manager until ctx is
// cancelled or the X connection drops.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		return err
	}
	defer backend.Disconnect()

	bus := broadcast.New(logger)

	var rec *reactor.Record
	if cfg.RecordPath != "" {
		rec, err = reactor.CreateRecord(cfg.RecordPath)
		if err != nil {
			return err
		}
		defer rec.Close()
		logger.Info("recording events", "path", cfg.RecordPath, "session", rec.Session())
	}

	var spawner *app.LiveSpawner
	r, err := reactor.New(reactor.Options{
		Config: reactor.ConfigFrom(cfg),
		Layout: layout.New(layout.SettingsFromConfig(cfg)),
		NewSpawner: func(rep app.Reporter) app.Spawner {
			spawner = app.NewLiveSpawner(ctx, backend, rep, logger)
			return spawner
		},
		Publisher:    bus,
		Logger:       logger,
		Recorder:     rec,
		Snapshot:     backend.WindowServerSnapshot,
		Notifier:     backend,
		RaiseTimeout: raiseTimeout,
	})
	if err != nil {
		return err
	}

	var runErr error
	reactorDone := make(chan struct{})
	go func() {
		runErr = r.Run(ctx)
		close(reactorDone)
	}()
	defer func() {
		cancel()
		<-reactorDone
		spawner.Wait()
	}()

	var lowPower func() (bool, error)
	if !cfg.LowPower {
		lowPower = OnBattery
	}
	rc := NewReconciler(ReconcilerConfig{
		Interval: cfg.ReconcileEvery(),
		Logger:   logger,
		LowPower: lowPower,
	}, backend, r)
	if err := backend.OnChange(rc.HandleChange); err != nil {
		return fmt.Errorf("failed to watch window server: %w", err)
	}

	if handler, err := hotkeys.NewHandler(backend, r, logger); err != nil {
		logger.Warn("hotkeys disabled", "error", err)
	} else if err := handler.RegisterAll(hotkeys.Bindings(cfg.Hotkeys)); err != nil {
		logger.Warn("some hotkeys could not be registered", "error", err)
	}

	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return err
	}
	srv := ipc.NewServer(socketPath, r, cfg.LayoutNames(), logger)
	srv.SetWatcher(bus)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start IPC server: %w", err)
	}
	defer srv.Stop()

	go rc.Run(ctx)
	go func() {
		<-ctx.Done()
		backend.StopEventLoop()
	}()

	logger.Info("tilewm running", "socket", socketPath, "layout", cfg.DefaultLayout)
	backend.EventLoop()

	cancel()
	<-reactorDone
	return runErr
}
