package app

import (
	"log/slog"

	"github.com/arumata/linkback/internal/adapters/config"
	"github.com/arumata/linkback/internal/adapters/diskusage"
	"github.com/arumata/linkback/internal/adapters/filesystem"
	"github.com/arumata/linkback/internal/adapters/lock"
	"github.com/arumata/linkback/internal/adapters/noop"
	"github.com/arumata/linkback/internal/adapters/process"
	"github.com/arumata/linkback/internal/adapters/rsync"
	"github.com/arumata/linkback/internal/usecase"
)

// NewDefaultDependencies creates dependencies with real adapters where available.
// Tool-backed ports use the default binaries until WithTools is applied.
func NewDefaultDependencies(logger *slog.Logger) *usecase.Dependencies {
	if logger == nil {
		panic("default dependencies require logger")
	}
	fsAdapter := filesystem.New(logger)
	configAdapter := config.New(logger)
	lockAdapter := lock.New(logger)
	processAdapter := process.New(logger)

	deps := &usecase.Dependencies{
		FileSystem: fsAdapter,
		Config:     configAdapter,
		Lock:       lockAdapter,
		Process:    processAdapter,
	}
	WithTools(deps, logger, usecase.ToolsConfig{
		Rsync: rsync.DefaultBinary,
		Du:    diskusage.DefaultBinary,
	})
	return deps
}

// WithTools binds the sync and disk usage ports to the configured binaries.
// A binary that cannot be resolved is replaced by a placeholder that fails
// on use, so commands that never call it still run.
func WithTools(deps *usecase.Dependencies, logger *slog.Logger, tools usecase.ToolsConfig) {
	finder := process.New(logger)

	if path, err := finder.LookPath(tools.Rsync); err == nil {
		deps.Sync = rsync.New(logger, path)
	} else {
		deps.Sync = noop.New(logger, tools.Rsync)
	}

	if path, err := finder.LookPath(tools.Du); err == nil {
		deps.DiskUsage = diskusage.New(logger, path)
	} else {
		deps.DiskUsage = noop.New(logger, tools.Du)
	}
}
