// Package noop provides placeholder implementations for tool-backed ports
package noop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arumata/linkback/internal/usecase"
)

// ErrToolMissing is returned by every operation of the placeholder adapter.
var ErrToolMissing = errors.New("required external tool is not installed")

// Adapter stands in for SyncPort and DiskUsagePort when the backing tool
// could not be found, so commands that do not need it keep working.
type Adapter struct {
	logger *slog.Logger
	tool   string
}

var (
	_ usecase.SyncPort      = (*Adapter)(nil)
	_ usecase.DiskUsagePort = (*Adapter)(nil)
)

// New creates a new no-op adapter for the named tool.
func New(logger *slog.Logger, tool string) *Adapter {
	if logger == nil {
		panic("noop adapter requires logger")
	}
	return &Adapter{logger: logger, tool: tool}
}

// Sync returns ErrToolMissing
func (a *Adapter) Sync(ctx context.Context, req usecase.SyncRequest) error {
	return a.missing("sync " + req.Source)
}

// Measure returns ErrToolMissing
func (a *Adapter) Measure(ctx context.Context, paths []string) ([]int64, error) {
	return nil, a.missing("measure")
}

func (a *Adapter) missing(op string) error {
	a.logger.Debug("placeholder adapter called", "tool", a.tool, "op", op)
	return fmt.Errorf("%s: %w", a.tool, ErrToolMissing)
}
