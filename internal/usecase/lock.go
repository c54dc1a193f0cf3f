package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const lockSuffix = ".lock"

func lockPath(deps *Dependencies, cfg *Config, name string) string {
	dir := strings.TrimSpace(cfg.LockDir)
	if dir == "" {
		dir = deps.FileSystem.Dir(cfg.UsageDBPath)
	}
	return deps.FileSystem.Join(dir, name+lockSuffix)
}

// acquireLock takes the named lock and returns its release function.
// Without a lock adapter the returned function is a no-op.
func acquireLock(
	ctx context.Context,
	deps *Dependencies,
	cfg *Config,
	name string,
	purpose string,
	rc *runContext,
) (func(), error) {
	if deps.Lock == nil {
		return func() {}, nil
	}
	path := lockPath(deps, cfg, name)
	if err := deps.FileSystem.CreateDir(ctx, deps.FileSystem.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create lock dir: %v: %w", err, ErrCritical)
	}
	info := LockInfo{StartTime: time.Now(), Purpose: purpose}
	if deps.Process != nil {
		info.PID = deps.Process.GetPID()
	}
	if err := deps.Lock.AcquireLock(ctx, path, info); err != nil {
		if locked, holder, lerr := deps.Lock.IsLocked(ctx, path); lerr == nil && locked {
			return nil, fmt.Errorf("%s is locked by pid %d (%s): %w", name, holder.PID, holder.Purpose, ErrLockBusy)
		}
		return nil, fmt.Errorf("acquire lock %s: %v: %w", path, err, ErrCritical)
	}
	rc.vlogf("lock acquired: %s", path)
	return func() {
		if err := deps.Lock.ReleaseLock(context.WithoutCancel(ctx), path); err != nil {
			rc.warnf("release lock %s: %v", path, err)
		}
	}, nil
}
