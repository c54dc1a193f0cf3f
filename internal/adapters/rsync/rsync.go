// Package rsync implements SyncPort on top of the rsync command line tool.
package rsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/arumata/linkback/internal/usecase"
)

// DefaultBinary is used when no explicit tool path is configured.
const DefaultBinary = "rsync"

// Adapter implements SyncPort using rsync
type Adapter struct {
	logger *slog.Logger
	binary string
}

var _ usecase.SyncPort = (*Adapter)(nil)

// New creates a new rsync adapter.
func New(logger *slog.Logger, binary string) *Adapter {
	if logger == nil {
		panic("rsync adapter requires logger")
	}
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	return &Adapter{logger: logger, binary: binary}
}

// Sync runs rsync for one generation. Standard output and error are written
// to req.LogPath so the transfer summary can be parsed afterwards.
func (a *Adapter) Sync(ctx context.Context, req usecase.SyncRequest) error {
	if req.Source == "" || req.Dest == "" {
		return errors.New("rsync: source and destination are required")
	}
	if req.LogPath == "" {
		return errors.New("rsync: log path is required")
	}

	logFile, err := os.OpenFile(req.LogPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("open rsync log: %w", err)
	}
	defer func() {
		_ = logFile.Close()
	}()

	args := BuildArgs(req)
	a.logger.Debug("running rsync", "command", shellescape.QuoteCommand(append([]string{a.binary}, args...)))

	cmd := exec.CommandContext(ctx, a.binary, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("rsync exited with code %d (see %s)", exitErr.ExitCode(), req.LogPath)
		}
		return fmt.Errorf("run rsync: %w", err)
	}
	return logFile.Sync()
}

// BuildArgs returns the rsync argument list for req. Source gets a trailing
// slash so its contents, not the directory itself, land in Dest.
func BuildArgs(req usecase.SyncRequest) []string {
	args := []string{"-a", "--delete", "--stats"}
	if req.DryRun {
		args = append(args, "--dry-run")
	}
	if req.LinkDest != "" {
		args = append(args, "--link-dest="+req.LinkDest)
	}
	args = append(args, req.Args...)
	args = append(args, withTrailingSlash(req.Source), req.Dest)
	return args
}

func withTrailingSlash(path string) string {
	if strings.HasSuffix(path, "/") {
		return path
	}
	return path + "/"
}
