package usecase

import (
	"context"
	"fmt"
	"time"
)

// HealthStatus is the outcome of a set's health check.
type HealthStatus string

const (
	HealthOK      HealthStatus = "OK"
	HealthStale   HealthStatus = "STALE"
	HealthFailed  HealthStatus = "FAILED"
	HealthMissing HealthStatus = "MISSING"
)

// SetHealth describes the freshness of one backup set.
type SetHealth struct {
	Set         string
	Status      HealthStatus
	Latest      string
	Age         time.Duration
	Generations int
	Detail      string
}

// HealthReport collects the health of all checked sets.
type HealthReport struct {
	Sets []SetHealth
}

// Healthy reports whether every set is OK.
func (r HealthReport) Healthy() bool {
	for _, s := range r.Sets {
		if s.Status != HealthOK {
			return false
		}
	}
	return true
}

// CheckHealth inspects the newest complete generation of each selected set:
// its sync log must carry the completion marker and, when MaxAge is set, it
// must be younger than MaxAge. It returns ErrUnhealthy along with the report
// when any set fails.
func CheckHealth(
	ctx context.Context,
	cfg *Config,
	deps *Dependencies,
	setNames []string,
	now time.Time,
) (HealthReport, error) {
	if deps == nil || deps.FileSystem == nil {
		return HealthReport{}, fmt.Errorf("check requires filesystem adapter: %w", ErrCritical)
	}
	sets, err := cfg.SelectSets(setNames)
	if err != nil {
		return HealthReport{}, err
	}
	var report HealthReport
	for _, set := range sets {
		report.Sets = append(report.Sets, checkSet(ctx, deps.FileSystem, set, now))
	}
	if !report.Healthy() {
		return report, ErrUnhealthy
	}
	return report, nil
}

func checkSet(ctx context.Context, fs FileSystemPort, set BackupSet, now time.Time) SetHealth {
	h := SetHealth{Set: set.Name}
	gens, err := listSetGenerations(ctx, fs, set)
	if err != nil {
		h.Status = HealthFailed
		h.Detail = err.Error()
		return h
	}
	h.Generations = len(gens)
	if len(gens) == 0 {
		h.Status = HealthMissing
		h.Detail = "no complete generation"
		return h
	}
	latest := gens[len(gens)-1]
	h.Latest = latest.Timestamp

	taken, err := time.ParseInLocation(TimestampLayout, latest.Timestamp, now.Location())
	if err != nil {
		h.Status = HealthFailed
		h.Detail = fmt.Sprintf("bad timestamp: %v", err)
		return h
	}
	h.Age = now.Sub(taken)

	data, err := fs.ReadFile(ctx, syncLogPath(fs, set.Dest, latest))
	if err != nil {
		h.Status = HealthFailed
		h.Detail = fmt.Sprintf("read sync log: %v", err)
		return h
	}
	if !ParseSyncSummary(string(data)).Complete {
		h.Status = HealthFailed
		h.Detail = "sync log has no completion marker"
		return h
	}
	if set.MaxAge > 0 && h.Age > set.MaxAge {
		h.Status = HealthStale
		h.Detail = fmt.Sprintf("older than %s", set.MaxAge)
		return h
	}
	h.Status = HealthOK
	return h
}
