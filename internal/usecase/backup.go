package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type runContext struct {
	logger  *slog.Logger
	verbose bool
}

func newRunContext(logger *slog.Logger, verbose bool) *runContext {
	if logger == nil {
		panic("logger is required")
	}
	return &runContext{logger: logger, verbose: verbose}
}

// component tags every message with the "component" attribute.
func (rc *runContext) component(name string) *runContext {
	return &runContext{logger: rc.logger.With("component", name), verbose: rc.verbose}
}

func (rc *runContext) logf(format string, a ...any) {
	rc.logger.Info(fmt.Sprintf(format, a...))
}

func (rc *runContext) vlogf(format string, a ...any) {
	if !rc.verbose {
		return
	}
	rc.logf(format, a...)
}

func (rc *runContext) warnf(format string, a ...any) {
	rc.logger.Warn(fmt.Sprintf(format, a...))
}

// BackupResult describes a finished backup run.
type BackupResult struct {
	Generation Generation
	Path       string
	LinkDest   string
	Summary    SyncSummary
	Deleted    []string
}

// Backup creates a new generation of the named set and prunes old ones.
func Backup(
	ctx context.Context,
	cfg *Config,
	deps *Dependencies,
	logger *slog.Logger,
	setName string,
	now time.Time,
) (*BackupResult, error) {
	if deps == nil || deps.FileSystem == nil || deps.Sync == nil {
		return nil, fmt.Errorf("backup requires filesystem and sync adapters: %w", ErrCritical)
	}
	set, err := cfg.FindSet(setName)
	if err != nil {
		return nil, err
	}
	if err := set.Retention.Validate(); err != nil {
		return nil, fmt.Errorf("set %s: %w", set.Name, err)
	}
	rc := newRunContext(logger, cfg.Verbose)
	printSet(set, rc)

	release, err := acquireLock(ctx, deps, cfg, "set-"+set.Name, "backup "+set.Name, rc)
	if err != nil {
		return nil, err
	}
	defer release()

	gens, err := listSetGenerations(ctx, deps.FileSystem, set)
	if err != nil {
		return nil, fmt.Errorf("list generations: %v: %w", err, ErrCritical)
	}
	gen := Generation{Name: set.Name, Timestamp: FormatTimestamp(now)}
	result := &BackupResult{
		Generation: gen,
		Path:       generationPath(deps.FileSystem, set.Dest, gen),
	}
	if len(gens) > 0 {
		latest := gens[len(gens)-1]
		if latest.Timestamp >= gen.Timestamp {
			return nil, fmt.Errorf("generation %s is not newer than %s: %w", gen.ID(), latest.ID(), ErrUsage)
		}
		result.LinkDest = generationPath(deps.FileSystem, set.Dest, latest)
	}

	if cfg.DryRun {
		rc.logf("Dry run: backup skipped; would create: %s", result.Path)
		if result.LinkDest != "" {
			rc.logf("Dry run: would hardlink against: %s", result.LinkDest)
		}
		deleted, err := pruneSet(ctx, deps, set, true, rc)
		result.Deleted = deleted
		return result, err
	}

	if err := runSync(ctx, deps, set, gen, result, rc); err != nil {
		return nil, err
	}
	rc.logf("✓ Backup finished → %s", result.Path)
	printSyncSummary(result.Summary, rc)

	if ctx.Err() != nil {
		return result, ErrInterrupted
	}
	deleted, err := pruneSet(ctx, deps, set, false, rc)
	result.Deleted = deleted
	if err != nil {
		return result, err
	}
	return result, nil
}

func runSync(
	ctx context.Context,
	deps *Dependencies,
	set BackupSet,
	gen Generation,
	result *BackupResult,
	rc *runContext,
) error {
	fs := deps.FileSystem
	if err := fs.CreateDir(ctx, set.Dest, 0o755); err != nil {
		return fmt.Errorf("create destination: %v: %w", err, ErrCritical)
	}
	if err := fs.CreateDirExclusive(ctx, result.Path, 0o755); err != nil {
		return fmt.Errorf("make target dir: %v: %w", err, ErrCritical)
	}
	finalLog := syncLogPath(fs, set.Dest, gen)
	partialLog := finalLog + ".partial"

	success := false
	defer func() {
		if !success {
			rc.vlogf("cleaning up partial generation: %s", result.Path)
			cleanupCtx := context.WithoutCancel(ctx)
			_ = fs.RemoveAll(cleanupCtx, partialLog)
			_ = fs.RemoveAll(cleanupCtx, result.Path)
		}
	}()

	req := SyncRequest{
		Source:   set.Source,
		Dest:     result.Path,
		LinkDest: result.LinkDest,
		Args:     set.SyncArgs,
		LogPath:  partialLog,
	}
	if err := deps.Sync.Sync(ctx, req); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return ErrInterrupted
		}
		return fmt.Errorf("sync %s: %v: %w", set.Name, err, ErrCritical)
	}

	data, err := fs.ReadFile(ctx, partialLog)
	if err != nil {
		return fmt.Errorf("read sync log: %v: %w", err, ErrCritical)
	}
	summary := ParseSyncSummary(string(data))
	if !summary.Complete {
		return fmt.Errorf("sync log of %s has no completion marker: %w", gen.ID(), ErrCritical)
	}
	result.Summary = summary

	if err := fs.Move(ctx, partialLog, finalLog); err != nil {
		return fmt.Errorf("mark done: %v: %w", err, ErrCritical)
	}
	success = true
	return nil
}

// Prune applies the retention policy of the named set.
func Prune(
	ctx context.Context,
	cfg *Config,
	deps *Dependencies,
	logger *slog.Logger,
	setName string,
) ([]string, error) {
	if deps == nil || deps.FileSystem == nil {
		return nil, fmt.Errorf("prune requires filesystem adapter: %w", ErrCritical)
	}
	set, err := cfg.FindSet(setName)
	if err != nil {
		return nil, err
	}
	if err := set.Retention.Validate(); err != nil {
		return nil, fmt.Errorf("set %s: %w", set.Name, err)
	}
	rc := newRunContext(logger, cfg.Verbose)
	release, err := acquireLock(ctx, deps, cfg, "set-"+set.Name, "prune "+set.Name, rc)
	if err != nil {
		return nil, err
	}
	defer release()
	return pruneSet(ctx, deps, set, cfg.DryRun, rc)
}

func pruneSet(ctx context.Context, deps *Dependencies, set BackupSet, dryRun bool, rc *runContext) ([]string, error) {
	rc = rc.component("rotate")
	if !set.Retention.Active() {
		rc.vlogf("%s: no retention policy", set.Name)
		return nil, nil
	}
	gens, err := listSetGenerations(ctx, deps.FileSystem, set)
	if err != nil {
		return nil, fmt.Errorf("rotation(list): %v: %w", err, ErrCritical)
	}
	ids := make([]string, 0, len(gens))
	for _, g := range gens {
		ids = append(ids, g.ID())
	}
	toDelete, toKeep := SelectRetention(ids, set.Retention)
	rc.vlogf("%s: %s → delete %d, keep %d", set.Name, set.Retention, len(toDelete), len(toKeep))

	var failed int
	for _, id := range toDelete {
		if ctx.Err() != nil {
			return toDelete, ErrInterrupted
		}
		rc.logf("remove %s", id)
		if dryRun {
			continue
		}
		g, _ := ParseGeneration(id)
		if err := removeGeneration(ctx, deps.FileSystem, set.Dest, g); err != nil {
			rc.warnf("remove %s: %v", id, err)
			failed++
		}
	}
	if dryRun && len(toDelete) > 0 {
		rc.logf("ℹ️ Rotation was DRY-RUN (no deletions performed).")
	}
	if failed > 0 {
		return toDelete, fmt.Errorf("%d generation(s) could not be removed: %w", failed, ErrCritical)
	}
	return toDelete, nil
}

// removeGeneration deletes the sync log first so a half-removed tree is no
// longer considered complete.
func removeGeneration(ctx context.Context, fs FileSystemPort, root string, g Generation) error {
	if err := fs.RemoveAll(ctx, syncLogPath(fs, root, g)); err != nil {
		return err
	}
	return fs.RemoveAll(ctx, generationPath(fs, root, g))
}

func printSet(set BackupSet, rc *runContext) {
	rc.vlogf("→ Backup set %s:", set.Name)
	rc.vlogf("   Source: %s", set.Source)
	rc.vlogf("   Destination: %s", set.Dest)
	rc.vlogf("   Retention: %s", set.Retention)
	if set.MaxAge > 0 {
		rc.vlogf("   Max age: %s", set.MaxAge)
	}
}

func printSyncSummary(s SyncSummary, rc *runContext) {
	rc.logf("   Files transferred: %d", s.FilesTransferred)
	rc.logf("   Transferred size: %s", humanBytes(s.TransferredBytes))
	rc.vlogf("   Total size: %s", humanBytes(s.TotalBytes))
}
