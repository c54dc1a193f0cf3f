package usecase

import (
	"context"
	"sort"
	"strings"
	"time"
)

// TimestampLayout is the fixed-width, lexically sortable generation timestamp.
const TimestampLayout = "2006-01-02T150405"

const (
	timestampLen  = len(TimestampLayout)
	syncLogSuffix = ".rsync_log"
)

// Generation identifies one dated snapshot of a backup set.
type Generation struct {
	Name      string
	Timestamp string
}

// ID returns the on-disk identifier "<name>.<timestamp>".
func (g Generation) ID() string {
	return FormatGeneration(g.Name, g.Timestamp)
}

// Date returns the YYYY-MM-DD part of the timestamp.
func (g Generation) Date() string {
	return timestampDate(g.Timestamp)
}

// FormatGeneration joins a core name and a zero-padded timestamp.
func FormatGeneration(name, timestamp string) string {
	return name + "." + timestamp
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseGeneration splits an identifier into core name and timestamp.
// ok is false for anything that is not a generation identifier.
func ParseGeneration(id string) (Generation, bool) {
	dot := strings.LastIndexByte(id, '.')
	if dot <= 0 {
		return Generation{}, false
	}
	ts := id[dot+1:]
	if !matchTimestamp(ts) {
		return Generation{}, false
	}
	return Generation{Name: id[:dot], Timestamp: ts}, true
}

// GroupByCoreName groups generation identifiers by core name with timestamps
// sorted ascending. Identifiers that are not generations are dropped.
func GroupByCoreName(ids []string) map[string][]string {
	groups := make(map[string][]string)
	for _, id := range ids {
		g, ok := ParseGeneration(id)
		if !ok {
			continue
		}
		groups[g.Name] = append(groups[g.Name], g.Timestamp)
	}
	for name := range groups {
		sort.Strings(groups[name])
	}
	return groups
}

func matchTimestamp(s string) bool {
	if len(s) != timestampLen {
		return false
	}
	if s[4] != '-' || s[7] != '-' || s[10] != 'T' {
		return false
	}
	for _, idx := range []int{0, 1, 2, 3, 5, 6, 8, 9, 11, 12, 13, 14, 15, 16} {
		if s[idx] < '0' || s[idx] > '9' {
			return false
		}
	}
	return true
}

func timestampDate(ts string) string {
	if len(ts) < 10 {
		return ts
	}
	return ts[:10]
}

// timestampDay returns the day of month encoded in ts, or 0 if ts is malformed.
func timestampDay(ts string) int {
	if len(ts) < 10 {
		return 0
	}
	d1, d2 := ts[8], ts[9]
	if d1 < '0' || d1 > '9' || d2 < '0' || d2 > '9' {
		return 0
	}
	return int(d1-'0')*10 + int(d2-'0')
}

func generationPath(fs FileSystemPort, root string, g Generation) string {
	return fs.Join(root, g.ID())
}

func syncLogPath(fs FileSystemPort, root string, g Generation) string {
	return fs.Join(root, g.ID()+syncLogSuffix)
}

// listGenerations returns the complete generations found in root grouped by
// core name. A generation is complete when both its directory and its sync
// log exist.
func listGenerations(ctx context.Context, fs FileSystemPort, root string) (map[string][]string, error) {
	entries, err := fs.ReadDir(ctx, root)
	if err != nil {
		return nil, err
	}
	dirs := make(map[string]struct{})
	logs := make(map[string]struct{})
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			dirs[name] = struct{}{}
			continue
		}
		if id, ok := strings.CutSuffix(name, syncLogSuffix); ok {
			logs[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(dirs))
	for id := range dirs {
		if _, ok := logs[id]; ok {
			ids = append(ids, id)
		}
	}
	return GroupByCoreName(ids), nil
}

// listSetGenerations returns the complete generations of one backup set in
// chronological order. A missing destination directory yields no generations.
func listSetGenerations(ctx context.Context, fs FileSystemPort, set BackupSet) ([]Generation, error) {
	groups, err := listGenerations(ctx, fs, set.Dest)
	if err != nil {
		if fs.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	stamps := groups[set.Name]
	out := make([]Generation, 0, len(stamps))
	for _, ts := range stamps {
		out = append(out, Generation{Name: set.Name, Timestamp: ts})
	}
	return out, nil
}
