// Package runtimepath resolves per-user runtime locations for the daemon's
// control socket and session recordings.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	socketName = "tilewm.sock"
	recordName = "tilewm-record.jsonl"
)

// Dir picks the first usable runtime directory: $XDG_RUNTIME_DIR, then
// /run/user/<uid>, then a private directory under the system temp dir which
// is created on demand.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
		return xdg, nil
	}

	uid := strconv.Itoa(os.Getuid())
	if dir := filepath.Join("/run/user", uid); isDir(dir) {
		return dir, nil
	}

	fallback := filepath.Join(os.TempDir(), "tilewm-runtime-"+uid)
	if err := os.MkdirAll(fallback, 0o700); err != nil {
		return "", fmt.Errorf("create runtime dir %s: %w", fallback, err)
	}
	return fallback, nil
}

// SocketPath returns the daemon control socket path.
func SocketPath() (string, error) { return join(socketName) }

// RecordPath returns where the daemon records a session when recording is
// enabled without an explicit file.
func RecordPath() (string, error) { return join(recordName) }

func join(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
