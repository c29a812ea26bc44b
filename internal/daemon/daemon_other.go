//go:build !linux

package daemon

import (
	"context"
	"errors"
	"log/slog"

	"github.com/1broseidon/tilewm/internal/config"
)

// Run is only supported on Linux/X11.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	return errors.New("tilewm daemon requires Linux with an X11 session")
}
