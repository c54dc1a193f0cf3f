package usecase

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
)

type brokenLock struct{ memLock }

func (b *brokenLock) AcquireLock(ctx context.Context, path string, info LockInfo) error {
	return errors.New("permission denied")
}

func TestLockPath(t *testing.T) {
	deps := &Dependencies{FileSystem: newTestFileSystem()}
	cfg := &Config{UsageDBPath: "/state/usage.db"}
	if got := lockPath(deps, cfg, "usage"); got != "/state/usage.lock" {
		t.Fatalf("unexpected default lock path %s", got)
	}
	cfg.LockDir = "/run/linkback"
	if got := lockPath(deps, cfg, "set-home"); got != "/run/linkback/set-home.lock" {
		t.Fatalf("unexpected lock path %s", got)
	}
}

func TestAcquireLock(t *testing.T) {
	dir := t.TempDir()
	lock := newMemLock()
	deps := &Dependencies{FileSystem: newTestFileSystem(), Lock: lock, Process: fixedPID(4242)}
	cfg := &Config{LockDir: dir}
	rc := newRunContext(slog.Default(), true)
	ctx := context.Background()

	release, err := acquireLock(ctx, deps, cfg, "usage", "usage update", rc)
	if err != nil {
		t.Fatal(err)
	}
	info := lock.held[filepath.Join(dir, "usage.lock")]
	if info.PID != 4242 || info.Purpose != "usage update" || info.StartTime.IsZero() {
		t.Fatalf("unexpected lock info %+v", info)
	}

	if _, err := acquireLock(ctx, deps, cfg, "usage", "second", rc); !errors.Is(err, ErrLockBusy) {
		t.Fatalf("expected ErrLockBusy, got %v", err)
	}
	release()
	if len(lock.held) != 0 {
		t.Fatal("release must drop the lock")
	}
}

func TestAcquireLock_Failure(t *testing.T) {
	deps := &Dependencies{FileSystem: newTestFileSystem(), Lock: &brokenLock{memLock: *newMemLock()}}
	cfg := &Config{LockDir: t.TempDir()}
	_, err := acquireLock(context.Background(), deps, cfg, "usage", "x", newRunContext(slog.Default(), false))
	if !errors.Is(err, ErrCritical) {
		t.Fatalf("expected ErrCritical, got %v", err)
	}
}

func TestAcquireLock_NoAdapter(t *testing.T) {
	release, err := acquireLock(context.Background(), &Dependencies{FileSystem: newTestFileSystem()}, &Config{}, "usage", "x", newRunContext(slog.Default(), false))
	if err != nil {
		t.Fatal(err)
	}
	release()
}
