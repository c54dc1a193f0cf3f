package process

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// Adapter implements ProcessPort using real process operations
type Adapter struct {
	logger *slog.Logger
}

// New creates a new process adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		panic("process adapter requires logger")
	}
	return &Adapter{logger: logger}
}

// GetPID returns the current process PID
func (a *Adapter) GetPID() int {
	return os.Getpid()
}

// LookPath resolves an external tool. Names containing a separator are
// checked as given.
func (a *Adapter) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		a.logger.Debug("tool not found", "name", name, "error", err)
		return "", fmt.Errorf("tool %q: %w", name, err)
	}
	a.logger.Debug("tool resolved", "name", name, "path", path)
	return path, nil
}
