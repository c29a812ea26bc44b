package main

import (
	"context"
	"log/slog"

	"github.com/1broseidon/tilewm/internal/mcp"
)

func runMCPServe(ctx context.Context) error {
	level := slog.LevelInfo
	if cfg, err := loadConfig(); err == nil {
		level = cfg.SlogLevel()
	}
	// stdout carries the protocol; logs go to stderr.
	logger := newLogger(level)
	return mcp.NewServer(newClient(), logger).Run(ctx)
}
