package usecase

import (
	"context"
	"fmt"
)

// UsageRow is one usage database record prepared for reporting.
type UsageRow struct {
	Set       string
	Timestamp string
	UsageRecord
}

// SetName implements Record.
func (r UsageRow) SetName() string { return r.Set }

// Stamp implements Record.
func (r UsageRow) Stamp() string { return r.Timestamp }

// Field implements Record.
func (r UsageRow) Field(name string) (int64, bool) {
	if name == FieldSize {
		return r.SizeKB, true
	}
	return 0, false
}

// UsageRows flattens db into rows, optionally restricted to setNames.
func UsageRows(db *UsageDB, setNames []string) []UsageRow {
	want := make(map[string]struct{}, len(setNames))
	for _, n := range setNames {
		want[n] = struct{}{}
	}
	var rows []UsageRow
	for _, set := range db.Sets() {
		if len(want) > 0 {
			if _, ok := want[set]; !ok {
				continue
			}
		}
		for _, ts := range db.Timestamps(set) {
			rec, _ := db.Get(set, ts)
			rows = append(rows, UsageRow{Set: set, Timestamp: ts, UsageRecord: rec})
		}
	}
	return rows
}

// UsageReport reads the usage database and returns its rows as a report.
func UsageReport(ctx context.Context, cfg *Config, deps *Dependencies, setNames []string) (*Report[UsageRow], error) {
	if deps == nil || deps.FileSystem == nil {
		return nil, fmt.Errorf("usage report requires filesystem adapter: %w", ErrCritical)
	}
	if cfg.UsageDBPath == "" {
		return nil, fmt.Errorf("usage.db_path not configured: %w", ErrUsage)
	}
	db, err := LoadUsageDB(ctx, deps.FileSystem, cfg.UsageDBPath)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrCritical)
	}
	return NewReport(UsageRows(db, setNames)), nil
}
