package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/refgen/internal/config"
	"git.home.luguber.info/inful/refgen/internal/logfields"
)

// Manager handles the checkout scratch directory.
type Manager struct {
	baseDir    string
	dir        string
	persistent bool
	now        func() time.Time
}

// NewManager creates a manager for ephemeral timestamped directories under baseDir.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir, now: time.Now}
}

// NewPersistentManager creates a manager that uses dir itself and never removes it.
func NewPersistentManager(dir string) *Manager {
	if dir == "" {
		dir = config.DefaultWorkspaceDir
	}
	return &Manager{baseDir: dir, dir: dir, persistent: true, now: time.Now}
}

// FromConfig picks the mode described by the workspace section.
func FromConfig(cfg config.WorkspaceConfig) *Manager {
	if cfg.Ephemeral {
		return NewManager(cfg.Dir)
	}
	return NewPersistentManager(cfg.Dir)
}

// Create ensures the workspace directory exists.
func (m *Manager) Create() error {
	if m.persistent {
		if err := os.MkdirAll(m.dir, 0o750); err != nil {
			return fmt.Errorf("failed to create workspace directory: %w", err)
		}
		slog.Debug("Using persistent workspace", logfields.Path(m.dir))
		return nil
	}

	timestamp := m.now().Format("20060102-150405")
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace base directory: %w", err)
	}
	dir, err := os.MkdirTemp(m.baseDir, fmt.Sprintf("refgen-%s-", timestamp))
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.dir = dir
	slog.Info("Created workspace", logfields.Path(dir))
	return nil
}

// GetPath returns the workspace directory (empty before Create in ephemeral mode).
func (m *Manager) GetPath() string { return m.dir }

// RepositoryPath returns the checkout directory for a repository name.
func (m *Manager) RepositoryPath(name string) string { return filepath.Join(m.dir, name) }

// Cleanup removes an ephemeral workspace; persistent workspaces are kept.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if m.persistent {
		slog.Debug("Keeping persistent workspace", logfields.Path(m.dir))
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Info("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
