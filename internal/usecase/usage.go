package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// LiveSet lists the existing generations of one backup set.
type LiveSet struct {
	Name       string
	Dest       string
	Timestamps []string
}

// UsageStats summarizes one recomputation pass.
type UsageStats struct {
	Measured int
	UpToDate int
	Failed   int
	Pruned   int
}

// RecomputeUsage refreshes every record whose stored neighbor pair differs
// from the generation's current neighbors. Each stale generation is
// measured together with its neighbors (previous, next, target) so that
// blocks shared through hardlinks are charged to the neighbors; only the
// target's value is stored. A failed measurement leaves the record
// untouched and the pass continues.
func RecomputeUsage(
	ctx context.Context,
	deps *Dependencies,
	logger *slog.Logger,
	db *UsageDB,
	sets []LiveSet,
) (UsageStats, error) {
	rc := newRunContext(logger, false).component("usage")
	var stats UsageStats
	for _, set := range sortedLiveSets(sets) {
		for i, ts := range set.Timestamps {
			if ctx.Err() != nil {
				return stats, ErrInterrupted
			}
			prev, next := NeighborNone, NeighborNone
			if i > 0 {
				prev = set.Timestamps[i-1]
			}
			if i < len(set.Timestamps)-1 {
				next = set.Timestamps[i+1]
			}
			signature := normalizeNeighbors(prev, next)
			if rec, ok := db.Get(set.Name, ts); ok && rec.Neighbors == signature {
				stats.UpToDate++
				continue
			}

			paths := make([]string, 0, 3)
			for _, n := range []string{prev, next} {
				if n != NeighborNone {
					paths = append(paths, generationPath(deps.FileSystem, set.Dest, Generation{Name: set.Name, Timestamp: n}))
				}
			}
			target := generationPath(deps.FileSystem, set.Dest, Generation{Name: set.Name, Timestamp: ts})
			paths = append(paths, target)

			sizeKB, err := measureLast(ctx, deps.DiskUsage, paths)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return stats, ErrInterrupted
				}
				rc.warnf("%s: %v", target, err)
				stats.Failed++
				continue
			}
			db.Put(set.Name, ts, UsageRecord{SizeKB: sizeKB, Neighbors: signature})
			stats.Measured++
			rc.logf("%s %d KiB (neighbors %s %s)", FormatGeneration(set.Name, ts), sizeKB, signature[0], signature[1])
		}
	}
	return stats, nil
}

func measureLast(ctx context.Context, du DiskUsagePort, paths []string) (int64, error) {
	sizes, err := du.Measure(ctx, paths)
	if err != nil {
		return 0, err
	}
	if len(sizes) != len(paths) {
		return 0, fmt.Errorf("disk usage returned %d values for %d paths", len(sizes), len(paths))
	}
	size := sizes[len(sizes)-1]
	if size < 0 {
		return 0, fmt.Errorf("negative disk usage %d", size)
	}
	return size, nil
}

func sortedLiveSets(sets []LiveSet) []LiveSet {
	out := make([]LiveSet, 0, len(sets))
	for _, s := range sets {
		stamps := append([]string(nil), s.Timestamps...)
		sort.Strings(stamps)
		out = append(out, LiveSet{Name: s.Name, Dest: s.Dest, Timestamps: stamps})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UpdateUsage refreshes the usage database for all configured backup sets.
func UpdateUsage(ctx context.Context, cfg *Config, deps *Dependencies, logger *slog.Logger) (UsageStats, error) {
	if deps == nil || deps.FileSystem == nil || deps.DiskUsage == nil {
		return UsageStats{}, fmt.Errorf("usage update requires filesystem and disk usage adapters: %w", ErrCritical)
	}
	if cfg.UsageDBPath == "" {
		return UsageStats{}, fmt.Errorf("usage.db_path not configured: %w", ErrUsage)
	}
	rc := newRunContext(logger, cfg.Verbose).component("usage")

	release, err := acquireLock(ctx, deps, cfg, "usage", "usage update", rc)
	if err != nil {
		return UsageStats{}, err
	}
	defer release()

	live, err := collectLiveSets(ctx, deps, cfg.Sets)
	if err != nil {
		return UsageStats{}, err
	}

	db, err := LoadUsageDB(ctx, deps.FileSystem, cfg.UsageDBPath)
	if err != nil {
		return UsageStats{}, fmt.Errorf("%v: %w", err, ErrCritical)
	}

	liveByName := make(map[string][]string, len(live))
	for _, s := range live {
		liveByName[s.Name] = s.Timestamps
	}
	pruned := db.Prune(liveByName, cfg.PurgeUnlisted)
	if pruned > 0 {
		rc.logf("pruned %d record(s) of removed generations", pruned)
	}

	stats, err := RecomputeUsage(ctx, deps, logger, db, live)
	stats.Pruned = pruned
	if err != nil {
		return stats, err
	}

	if cfg.DryRun {
		rc.logf("Dry run: usage database %s not written", cfg.UsageDBPath)
	} else if err := SaveUsageDB(ctx, deps.FileSystem, cfg.UsageDBPath, db); err != nil {
		return stats, fmt.Errorf("%v: %w", err, ErrCritical)
	}

	rc.logf("measured=%d up-to-date=%d failed=%d pruned=%d",
		stats.Measured, stats.UpToDate, stats.Failed, stats.Pruned)
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%d measurement(s) failed: %w", stats.Failed, ErrCritical)
	}
	return stats, nil
}

func collectLiveSets(ctx context.Context, deps *Dependencies, sets []BackupSet) ([]LiveSet, error) {
	out := make([]LiveSet, 0, len(sets))
	for _, set := range sets {
		gens, err := listSetGenerations(ctx, deps.FileSystem, set)
		if err != nil {
			return nil, fmt.Errorf("list generations of %s: %v: %w", set.Name, err, ErrCritical)
		}
		stamps := make([]string, 0, len(gens))
		for _, g := range gens {
			stamps = append(stamps, g.Timestamp)
		}
		out = append(out, LiveSet{Name: set.Name, Dest: set.Dest, Timestamps: stamps})
	}
	return out, nil
}
