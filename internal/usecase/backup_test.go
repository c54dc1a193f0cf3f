package usecase

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var backupStart = time.Date(2024, 2, 1, 3, 0, 0, 0, time.Local)

func backupFixture(t *testing.T, retention RetentionPolicy) (*Config, *Dependencies, *fakeSync) {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src")
	if err := os.MkdirAll(src, 0o750); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{
		LockDir: filepath.Join(root, "locks"),
		Sets: []BackupSet{{
			Name:      "home",
			Source:    src,
			Dest:      filepath.Join(root, "backups"),
			SyncArgs:  []string{"--exclude=.cache"},
			Retention: retention,
		}},
	}
	sync := newFakeSync()
	deps := &Dependencies{
		FileSystem: newTestFileSystem(),
		Lock:       newMemLock(),
		Process:    fixedPID(1),
		Sync:       sync,
	}
	return cfg, deps, sync
}

func TestBackup_CreatesGenerationsWithLinkDest(t *testing.T) {
	cfg, deps, sync := backupFixture(t, RetentionPolicy{})
	ctx := context.Background()

	first, err := Backup(ctx, cfg, deps, slog.Default(), "home", backupStart)
	if err != nil {
		t.Fatal(err)
	}
	if first.LinkDest != "" {
		t.Fatalf("first generation must not have a link base, got %s", first.LinkDest)
	}
	if first.Summary.FilesTransferred != 2 || !first.Summary.Complete {
		t.Fatalf("unexpected summary %+v", first.Summary)
	}
	if _, err := os.Stat(first.Path + syncLogSuffix); err != nil {
		t.Fatalf("sync log missing: %v", err)
	}
	if _, err := os.Stat(first.Path + syncLogSuffix + ".partial"); !os.IsNotExist(err) {
		t.Fatalf("partial log must be renamed, stat err = %v", err)
	}

	second, err := Backup(ctx, cfg, deps, slog.Default(), "home", backupStart.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if second.LinkDest != first.Path {
		t.Fatalf("expected link base %s, got %s", first.Path, second.LinkDest)
	}
	if len(sync.requests) != 2 {
		t.Fatalf("expected 2 sync requests, got %d", len(sync.requests))
	}
	req := sync.requests[1]
	if diff := cmp.Diff([]string{"--exclude=.cache"}, req.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if req.LogPath != second.Path+syncLogSuffix+".partial" {
		t.Fatalf("unexpected log path %s", req.LogPath)
	}

	gens, err := listSetGenerations(ctx, deps.FileSystem, cfg.Sets[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(gens) != 2 {
		t.Fatalf("expected 2 complete generations, got %v", gens)
	}
	if held := deps.Lock.(*memLock).held; len(held) != 0 {
		t.Fatalf("lock must be released, still held: %v", held)
	}
}

func TestBackup_SyncFailureRemovesPartial(t *testing.T) {
	cfg, deps, sync := backupFixture(t, RetentionPolicy{})
	sync.err = errors.New("rsync exited with code 23")

	_, err := Backup(context.Background(), cfg, deps, slog.Default(), "home", backupStart)
	if !errors.Is(err, ErrCritical) {
		t.Fatalf("expected ErrCritical, got %v", err)
	}
	entries, err := os.ReadDir(cfg.Sets[0].Dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected destination to be empty after failure, got %d entries", len(entries))
	}
}

func TestBackup_SyncCanceled(t *testing.T) {
	cfg, deps, sync := backupFixture(t, RetentionPolicy{})
	sync.err = context.Canceled

	if _, err := Backup(context.Background(), cfg, deps, slog.Default(), "home", backupStart); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
}

func TestBackup_MissingMarkerFails(t *testing.T) {
	cfg, deps, sync := backupFixture(t, RetentionPolicy{})
	sync.summary = "Number of regular files transferred: 2\n"

	if _, err := Backup(context.Background(), cfg, deps, slog.Default(), "home", backupStart); !errors.Is(err, ErrCritical) {
		t.Fatalf("expected ErrCritical, got %v", err)
	}
	gens, _ := listSetGenerations(context.Background(), deps.FileSystem, cfg.Sets[0])
	if len(gens) != 0 {
		t.Fatalf("incomplete generation must not be listed, got %v", gens)
	}
}

func TestBackup_TimestampNotNewer(t *testing.T) {
	cfg, deps, _ := backupFixture(t, RetentionPolicy{})
	ctx := context.Background()
	if _, err := Backup(ctx, cfg, deps, slog.Default(), "home", backupStart); err != nil {
		t.Fatal(err)
	}
	if _, err := Backup(ctx, cfg, deps, slog.Default(), "home", backupStart); !errors.Is(err, ErrUsage) {
		t.Fatalf("expected ErrUsage, got %v", err)
	}
}

func TestBackup_DryRun(t *testing.T) {
	cfg, deps, sync := backupFixture(t, RetentionPolicy{KeepRecent: 1})
	cfg.DryRun = true
	makeGeneration(t, cfg.Sets[0].Dest, "home", "2024-01-01T030000", completeLog)
	makeGeneration(t, cfg.Sets[0].Dest, "home", "2024-01-02T030000", completeLog)

	result, err := Backup(context.Background(), cfg, deps, slog.Default(), "home", backupStart)
	if err != nil {
		t.Fatal(err)
	}
	if len(sync.requests) != 0 {
		t.Fatal("dry run must not sync")
	}
	if _, err := os.Stat(result.Path); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create %s", result.Path)
	}
	if diff := cmp.Diff([]string{"home.2024-01-01T030000"}, result.Deleted); diff != "" {
		t.Fatalf("deleted mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(cfg.Sets[0].Dest, "home.2024-01-01T030000")); err != nil {
		t.Fatalf("dry run must not delete: %v", err)
	}
}

func TestBackup_LockBusy(t *testing.T) {
	cfg, deps, _ := backupFixture(t, RetentionPolicy{})
	lock := deps.Lock.(*memLock)
	lock.held[filepath.Join(cfg.LockDir, "set-home"+lockSuffix)] = LockInfo{PID: 99, Purpose: "backup home"}

	if _, err := Backup(context.Background(), cfg, deps, slog.Default(), "home", backupStart); !errors.Is(err, ErrLockBusy) {
		t.Fatalf("expected ErrLockBusy, got %v", err)
	}
}

func TestBackup_PrunesAfterSync(t *testing.T) {
	cfg, deps, _ := backupFixture(t, RetentionPolicy{KeepRecent: 2})
	ctx := context.Background()
	var last *BackupResult
	for i := range 3 {
		res, err := Backup(ctx, cfg, deps, slog.Default(), "home", backupStart.AddDate(0, 0, i))
		if err != nil {
			t.Fatal(err)
		}
		last = res
	}
	if diff := cmp.Diff([]string{"home.2024-02-01T030000"}, last.Deleted); diff != "" {
		t.Fatalf("deleted mismatch (-want +got):\n%s", diff)
	}
	dest := cfg.Sets[0].Dest
	for _, name := range []string{"home.2024-02-01T030000", "home.2024-02-01T030000" + syncLogSuffix} {
		if _, err := os.Stat(filepath.Join(dest, name)); !os.IsNotExist(err) {
			t.Fatalf("%s must be removed, stat err = %v", name, err)
		}
	}
}

func TestPrune(t *testing.T) {
	cfg, deps, _ := backupFixture(t, RetentionPolicy{
		KeepDays: &DayRetention{Recent: 2, MonthDays: []int{1}},
	})
	dest := cfg.Sets[0].Dest
	for _, ts := range dailyStamps(time.Date(2024, 1, 30, 3, 0, 0, 0, time.Local), 5) {
		makeGeneration(t, dest, "home", ts, completeLog)
	}

	deleted, err := Prune(context.Background(), cfg, deps, slog.Default(), "home")
	if err != nil {
		t.Fatal(err)
	}
	// Jan 30..Feb 3: Feb 2 and 3 are recent, Feb 1 matches day 1.
	want := []string{"home.2024-01-30T030000", "home.2024-01-31T030000"}
	if diff := cmp.Diff(want, deleted); diff != "" {
		t.Fatalf("deleted mismatch (-want +got):\n%s", diff)
	}
	gens, _ := listSetGenerations(context.Background(), deps.FileSystem, cfg.Sets[0])
	if len(gens) != 3 {
		t.Fatalf("expected 3 generations left, got %v", gens)
	}
}

func TestPrune_RemoveFailureIsCritical(t *testing.T) {
	cfg, deps, _ := backupFixture(t, RetentionPolicy{KeepRecent: 1})
	dest := cfg.Sets[0].Dest
	makeGeneration(t, dest, "home", "2024-01-01T030000", completeLog)
	makeGeneration(t, dest, "home", "2024-01-02T030000", completeLog)
	deps.FileSystem = failingRemoveFS{newTestFileSystem(), "2024-01-01"}

	deleted, err := Prune(context.Background(), cfg, deps, slog.Default(), "home")
	if !errors.Is(err, ErrCritical) {
		t.Fatalf("expected ErrCritical, got %v", err)
	}
	if len(deleted) != 1 {
		t.Fatalf("expected one selected generation, got %v", deleted)
	}
}

func TestPrune_NoPolicyKeepsEverything(t *testing.T) {
	cfg, deps, _ := backupFixture(t, RetentionPolicy{})
	makeGeneration(t, cfg.Sets[0].Dest, "home", "2024-01-01T030000", completeLog)
	deleted, err := Prune(context.Background(), cfg, deps, slog.Default(), "home")
	if err != nil || len(deleted) != 0 {
		t.Fatalf("expected nothing deleted, got %v %v", deleted, err)
	}
}

func TestPrune_UnknownSet(t *testing.T) {
	cfg, deps, _ := backupFixture(t, RetentionPolicy{})
	if _, err := Prune(context.Background(), cfg, deps, slog.Default(), "nope"); !errors.Is(err, ErrUsage) {
		t.Fatalf("expected ErrUsage, got %v", err)
	}
}
