//go:build linux

package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ubports/upstart/internal/control"
)

// Config holds daemon configuration with sensible defaults, following
// choo's internal/daemon/config.go shape (SPEC_FULL §A.3): defaulted,
// validated, home-relative paths, EnsureDirectories.
type Config struct {
	// SocketName is the abstract-namespace name (no leading NUL) the
	// control socket binds (§6). Session instances default to their
	// own pid-suffixed name; a system instance binds control.PID1Address.
	SocketName string

	PIDFile     string // Default: ~/.upstart/upstart.pid
	JournalPath string // Default: ~/.upstart/journal.db

	// JobDir is handed opaquely to the external job-config loader
	// named in §1; this package never reads it itself (§1/§E Non-goals:
	// "no parsing of on-disk job files").
	JobDir string

	// System marks a PID-1/system-mode instance: the control socket
	// binds the fixed well-known name and the authorizer accepts any
	// sender pid, and quiesce skips the session wait phase (§4.7).
	System bool

	// QuiesceWait holds the --quiesce-wait value, in seconds. It is not
	// passed to the engine: BeginQuiesce's wait phase always lasts the
	// engine's fixed quiesceDefaultWait (5 seconds).
	QuiesceWait int64

	Verbose bool
}

// DefaultConfig returns a Config with sensible defaults. Paths are
// resolved relative to the user's home directory, matching choo's own
// DefaultConfig.
func DefaultConfig() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(home, ".upstart")

	return &Config{
		SocketName:  control.ProcessAddress(os.Getpid()),
		PIDFile:     filepath.Join(dir, "upstart.pid"),
		JournalPath: filepath.Join(dir, "journal.db"),
		JobDir:      filepath.Join(dir, "jobs.d"),
	}, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.SocketName == "" {
		return fmt.Errorf("SocketName must not be empty")
	}
	if !filepath.IsAbs(c.PIDFile) {
		return fmt.Errorf("PIDFile must be absolute, got %s", c.PIDFile)
	}
	if !filepath.IsAbs(c.JournalPath) {
		return fmt.Errorf("JournalPath must be absolute, got %s", c.JournalPath)
	}
	return nil
}

// EnsureDirectories creates the directories needed for daemon files.
func (c *Config) EnsureDirectories() error {
	dirs := make(map[string]bool)
	dirs[filepath.Dir(c.PIDFile)] = true
	dirs[filepath.Dir(c.JournalPath)] = true

	for dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
