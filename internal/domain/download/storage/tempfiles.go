// Package storage manages temporary download files.
// It is the only component that constructs on-disk paths; every path it hands
// out is expected to reach Remove exactly once.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Manager generates collision-free temporary file paths under one root
type Manager struct {
	root   string
	logger zerolog.Logger
}

// NewManager creates a manager and ensures the root directory exists
func NewManager(root string, logger zerolog.Logger) (*Manager, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp download dir %s: %w", root, err)
	}

	logger.Info().Str("dir", root).Msg("Temporary download directory ready")

	return &Manager{
		root:   root,
		logger: logger,
	}, nil
}

// Root returns the root directory
func (m *Manager) Root() string {
	return m.root
}

// NewFile returns a fresh path with the given extension, e.g. ".mp4".
// Random names keep concurrent requests collision-free without locking.
func (m *Manager) NewFile(ext string) string {
	return filepath.Join(m.root, uuid.NewString()+ext)
}

// Remove deletes a file. Failures are logged and swallowed: cleanup must
// never abort a request that is already finishing.
func (m *Manager) Remove(path string) {
	if path == "" {
		return
	}

	if err := os.Remove(path); err != nil {
		if !os.IsNotExist(err) {
			m.logger.Error().Err(err).Str("path", path).Msg("Failed to remove temp file")
		}
		return
	}

	m.logger.Debug().Str("path", path).Msg("Temp file removed")
}

// FileSize returns the size of a file in bytes, 0 if it does not exist
func (m *Manager) FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
