package usecase

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

const syncCompletionMarker = "total size is "

// SyncSummary holds the figures of a sync tool transfer summary.
type SyncSummary struct {
	FilesTransferred int64
	TransferredBytes int64
	TotalBytes       int64
	// Complete is set when the summary carries the completion marker line.
	Complete bool
}

// ParseSyncSummary extracts transfer figures from rsync --stats output.
// Unknown lines are ignored.
func ParseSyncSummary(text string) SyncSummary {
	var s SyncSummary
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "Number of regular files transferred:"),
			strings.HasPrefix(line, "Number of files transferred:"):
			s.FilesTransferred = leadingNumber(afterColon(line))
		case strings.HasPrefix(line, "Total transferred file size:"):
			s.TransferredBytes = leadingNumber(afterColon(line))
		case strings.HasPrefix(line, "Total file size:"):
			s.TotalBytes = leadingNumber(afterColon(line))
		case strings.HasPrefix(line, syncCompletionMarker):
			s.Complete = true
			if s.TotalBytes == 0 {
				s.TotalBytes = leadingNumber(strings.TrimPrefix(line, syncCompletionMarker))
			}
		}
	}
	return s
}

func afterColon(line string) string {
	_, v, _ := strings.Cut(line, ":")
	return strings.TrimSpace(v)
}

// leadingNumber parses the first number of s, accepting thousands
// separators ("1,234,567 bytes").
func leadingNumber(s string) int64 {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ',' && b.Len() > 0:
		default:
			if b.Len() > 0 {
				n, _ := strconv.ParseInt(b.String(), 10, 64)
				return n
			}
		}
	}
	n, _ := strconv.ParseInt(b.String(), 10, 64)
	return n
}

// TransferRecord is the transfer summary of one generation.
type TransferRecord struct {
	Set       string
	Timestamp string
	SyncSummary
}

// SetName implements Record.
func (r TransferRecord) SetName() string { return r.Set }

// Stamp implements Record.
func (r TransferRecord) Stamp() string { return r.Timestamp }

// Field implements Record.
func (r TransferRecord) Field(name string) (int64, bool) {
	switch name {
	case FieldFiles:
		return r.FilesTransferred, true
	case FieldBytes:
		return r.TransferredBytes, true
	case FieldTotal:
		return r.TotalBytes, true
	default:
		return 0, false
	}
}

// TransferReport reads the sync logs of every generation of the selected
// sets. Unreadable logs are reported and skipped.
func TransferReport(
	ctx context.Context,
	cfg *Config,
	deps *Dependencies,
	logger *slog.Logger,
	setNames []string,
) (*Report[TransferRecord], error) {
	sets, err := cfg.SelectSets(setNames)
	if err != nil {
		return nil, err
	}
	rc := newRunContext(logger, cfg.Verbose).component("stats")
	var records []TransferRecord
	for _, set := range sets {
		gens, err := listSetGenerations(ctx, deps.FileSystem, set)
		if err != nil {
			return nil, fmt.Errorf("list generations of %s: %v: %w", set.Name, err, ErrCritical)
		}
		for _, g := range gens {
			data, err := deps.FileSystem.ReadFile(ctx, syncLogPath(deps.FileSystem, set.Dest, g))
			if err != nil {
				rc.warnf("%s: %v", g.ID(), err)
				continue
			}
			records = append(records, TransferRecord{
				Set:         set.Name,
				Timestamp:   g.Timestamp,
				SyncSummary: ParseSyncSummary(string(data)),
			})
		}
	}
	return NewReport(records), nil
}

func humanBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

func humanKB(kb int64) string {
	return humanBytes(kb * 1024)
}
