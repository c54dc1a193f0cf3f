// Package lock implements PID-file locks that keep backup runs and usage
// updates of the same target from overlapping.
package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arumata/linkback/internal/usecase"
)

// DefaultStaleAfter is the age after which a lock is ignored even if its
// holder still looks alive.
const DefaultStaleAfter = 72 * time.Hour

// ErrHeld is returned by AcquireLock when another live process owns the lock.
var ErrHeld = errors.New("lock is held by another active process")

// Adapter implements LockPort using PID files.
type Adapter struct {
	logger     *slog.Logger
	staleAfter time.Duration
}

// New creates a new lock adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		panic("lock adapter requires logger")
	}
	return &Adapter{logger: logger, staleAfter: DefaultStaleAfter}
}

// AcquireLock creates the PID file at path. A file left by a dead, recycled
// or expired holder is replaced.
func (a *Adapter) AcquireLock(ctx context.Context, path string, info usecase.LockInfo) error {
	info = withDefaults(info)
	err := writeLockFile(path, info)
	if err == nil {
		a.logger.Debug("lock acquired", "path", path, "pid", info.PID)
		return nil
	}
	if !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("create lock file: %w", err)
	}

	holder, rerr := readLockFile(path)
	if rerr == nil {
		if active, _ := a.holderActive(holder); active {
			return ErrHeld
		}
	}
	reason := "unreadable"
	if rerr == nil {
		_, reason = a.holderActive(holder)
	}
	a.logger.Warn("Removing stale lock", "path", path, "pid", holder.PID, "reason", reason)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale lock: %w", err)
	}
	if err := writeLockFile(path, info); err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrHeld
		}
		return fmt.Errorf("create lock after cleanup: %w", err)
	}
	return nil
}

// ReleaseLock removes the PID file. Releasing a missing lock is not an error.
func (a *Adapter) ReleaseLock(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// IsLocked reports whether path holds a lock of a live process.
func (a *Adapter) IsLocked(ctx context.Context, path string) (bool, usecase.LockInfo, error) {
	info, err := readLockFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, usecase.LockInfo{}, nil
		}
		return false, usecase.LockInfo{}, err
	}
	active, _ := a.holderActive(info)
	return active, info, nil
}

// holderActive decides whether the recorded holder still owns the lock.
// The reason names the check that decided.
func (a *Adapter) holderActive(info usecase.LockInfo) (bool, string) {
	if !info.StartTime.IsZero() && time.Since(info.StartTime) > a.staleAfter {
		return false, "expired"
	}
	if info.Hostname != "" {
		if host, err := os.Hostname(); err == nil && host != info.Hostname {
			// Processes on other hosts cannot be probed.
			return true, "foreign host"
		}
	}
	if info.ProcessStartID != "" {
		if id, ok := startID(info.PID); ok {
			if id != info.ProcessStartID {
				return false, "pid reused"
			}
			return true, "start id"
		}
	}
	if info.ProcessStartTicks != 0 {
		if ticks, ok := startTicks(info.PID); ok {
			if ticks != info.ProcessStartTicks {
				return false, "pid reused"
			}
			return true, "start ticks"
		}
	}
	if !isProcessRunning(info.PID) {
		return false, "process gone"
	}
	return true, "pid alive"
}

func withDefaults(info usecase.LockInfo) usecase.LockInfo {
	if info.PID == 0 {
		info.PID = os.Getpid()
	}
	if info.StartTime.IsZero() {
		info.StartTime = time.Now()
	}
	if info.Hostname == "" {
		info.Hostname, _ = os.Hostname()
	}
	if info.ProcessStartTicks == 0 {
		info.ProcessStartTicks, _ = startTicks(info.PID)
	}
	if info.ProcessStartID == "" {
		info.ProcessStartID, _ = startID(info.PID)
	}
	return info
}

// writeLockFile exclusively creates path holding info as JSON.
func writeLockFile(path string, info usecase.LockInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal lock info: %w", err)
	}
	// #nosec G304 -- lock paths come from configuration.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

// readLockFile accepts the JSON format and plain PID files.
func readLockFile(path string) (usecase.LockInfo, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- lock paths come from configuration.
	if err != nil {
		return usecase.LockInfo{}, err
	}
	var info usecase.LockInfo
	if err := json.Unmarshal(data, &info); err == nil {
		return info, nil
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return usecase.LockInfo{}, fmt.Errorf("invalid lock file %s", path)
	}
	info = usecase.LockInfo{PID: pid}
	if st, err := os.Stat(path); err == nil {
		info.StartTime = st.ModTime()
	}
	return info, nil
}

var _ usecase.LockPort = (*Adapter)(nil)
