package usecase

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// VersionStatus describes a file in one generation relative to the
// previous generation.
type VersionStatus string

const (
	VersionAbsent  VersionStatus = "absent"
	VersionNew     VersionStatus = "new"
	VersionChanged VersionStatus = "changed"
	VersionSame    VersionStatus = "same"
)

// VersionRecord is the state of one file in one generation.
type VersionRecord struct {
	Set       string
	Timestamp string
	Status    VersionStatus
	SizeBytes int64
}

// SetName implements Record.
func (r VersionRecord) SetName() string { return r.Set }

// Stamp implements Record.
func (r VersionRecord) Stamp() string { return r.Timestamp }

// Field implements Record.
func (r VersionRecord) Field(name string) (int64, bool) {
	if name == FieldSize && r.Status != VersionAbsent {
		return r.SizeBytes, true
	}
	return 0, false
}

// FileVersions reports, for every generation of the set, whether relPath is
// present and whether it differs from the previous generation. Unchanged
// files are hardlinks to the same inode.
func FileVersions(
	ctx context.Context,
	cfg *Config,
	deps *Dependencies,
	setName string,
	relPath string,
) (*Report[VersionRecord], error) {
	if deps == nil || deps.FileSystem == nil {
		return nil, fmt.Errorf("versions requires filesystem adapter: %w", ErrCritical)
	}
	set, err := cfg.FindSet(setName)
	if err != nil {
		return nil, err
	}
	rel, err := cleanRelPath(relPath)
	if err != nil {
		return nil, err
	}
	gens, err := listSetGenerations(ctx, deps.FileSystem, set)
	if err != nil {
		return nil, fmt.Errorf("list generations: %v: %w", err, ErrCritical)
	}

	fs := deps.FileSystem
	records := make([]VersionRecord, 0, len(gens))
	var prev FileInfo
	for _, g := range gens {
		if ctx.Err() != nil {
			return nil, ErrInterrupted
		}
		rec := VersionRecord{Set: set.Name, Timestamp: g.Timestamp}
		info, err := fs.Lstat(ctx, fs.Join(generationPath(fs, set.Dest, g), rel))
		switch {
		case err != nil && fs.IsNotExist(err):
			rec.Status = VersionAbsent
			info = nil
		case err != nil:
			return nil, fmt.Errorf("stat %s in %s: %v: %w", rel, g.ID(), err, ErrCritical)
		case prev == nil:
			rec.Status = VersionNew
		case fs.SameFile(prev, info):
			rec.Status = VersionSame
		default:
			rec.Status = VersionChanged
		}
		if info != nil {
			rec.SizeBytes = info.Size()
		}
		prev = info
		records = append(records, rec)
	}
	return NewReport(records), nil
}

func cleanRelPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("file path is empty: %w", ErrUsage)
	}
	cleaned := path.Clean("/" + strings.TrimLeft(p, "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("file path %q names the generation root: %w", p, ErrUsage)
	}
	return cleaned, nil
}
