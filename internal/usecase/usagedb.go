package usecase

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// NeighborNone marks a missing neighbor in a dependency signature.
const NeighborNone = "-"

const usageDBHeader = `# linkback usage database
#
# One line per generation:
#   size_kb <TAB> generation <TAB> neighbor <TAB> neighbor
#
# size_kb is the disk usage of the generation measured after its two
# neighbors, so blocks shared through hardlinks are charged to them.
# The neighbor columns hold the timestamps of the adjacent generations at
# measurement time ("-" when there is none). A record is recomputed as soon
# as the actual neighbors differ.
`

// UsageRecord is the measured disk usage of one generation together with
// the neighbor pair it was measured against.
type UsageRecord struct {
	SizeKB    int64
	Neighbors [2]string
}

// NewUsageRecord builds a record with a normalized neighbor pair.
func NewUsageRecord(sizeKB int64, left, right string) UsageRecord {
	return UsageRecord{SizeKB: sizeKB, Neighbors: normalizeNeighbors(left, right)}
}

func normalizeNeighbors(a, b string) [2]string {
	if a == "" {
		a = NeighborNone
	}
	if b == "" {
		b = NeighborNone
	}
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// UsageDB maps backup set name to generation timestamp to usage record.
type UsageDB struct {
	sets map[string]map[string]UsageRecord
}

// NewUsageDB returns an empty database.
func NewUsageDB() *UsageDB {
	return &UsageDB{sets: make(map[string]map[string]UsageRecord)}
}

// Get returns the record for a generation.
func (db *UsageDB) Get(set, timestamp string) (UsageRecord, bool) {
	rec, ok := db.sets[set][timestamp]
	return rec, ok
}

// Put stores a record, normalizing its neighbor pair.
func (db *UsageDB) Put(set, timestamp string, rec UsageRecord) {
	gens, ok := db.sets[set]
	if !ok {
		gens = make(map[string]UsageRecord)
		db.sets[set] = gens
	}
	rec.Neighbors = normalizeNeighbors(rec.Neighbors[0], rec.Neighbors[1])
	gens[timestamp] = rec
}

// Sets returns the backup set names in sorted order.
func (db *UsageDB) Sets() []string {
	names := make([]string, 0, len(db.sets))
	for name := range db.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Timestamps returns the recorded generations of set in sorted order.
func (db *UsageDB) Timestamps(set string) []string {
	gens := db.sets[set]
	out := make([]string, 0, len(gens))
	for ts := range gens {
		out = append(out, ts)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of records.
func (db *UsageDB) Len() int {
	n := 0
	for _, gens := range db.sets {
		n += len(gens)
	}
	return n
}

// Prune drops records of generations that no longer exist. For every set in
// live, records whose timestamp is not listed are removed. With
// purgeUnlisted, sets absent from live are removed entirely. It returns the
// number of removed records.
func (db *UsageDB) Prune(live map[string][]string, purgeUnlisted bool) int {
	removed := 0
	for set, gens := range db.sets {
		stamps, listed := live[set]
		if !listed {
			if purgeUnlisted {
				removed += len(gens)
				delete(db.sets, set)
			}
			continue
		}
		keep := make(map[string]struct{}, len(stamps))
		for _, ts := range stamps {
			keep[ts] = struct{}{}
		}
		for ts := range gens {
			if _, ok := keep[ts]; !ok {
				delete(gens, ts)
				removed++
			}
		}
		if len(gens) == 0 {
			delete(db.sets, set)
		}
	}
	return removed
}

// ParseUsageDB reads the line-oriented database format. Any malformed line
// fails the whole parse.
func ParseUsageDB(r io.Reader) (*UsageDB, error) {
	db := NewUsageDB()
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set, ts, rec, err := parseUsageLine(line)
		if err != nil {
			return nil, fmt.Errorf("usage db line %d: %w", lineNo, err)
		}
		db.Put(set, ts, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read usage db: %w", err)
	}
	return db, nil
}

func parseUsageLine(line string) (string, string, UsageRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 4 {
		return "", "", UsageRecord{}, fmt.Errorf("expected 4 tab-separated fields, got %d", len(fields))
	}
	size, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil || size < 0 {
		return "", "", UsageRecord{}, fmt.Errorf("invalid size %q", fields[0])
	}
	g, ok := ParseGeneration(fields[1])
	if !ok {
		return "", "", UsageRecord{}, fmt.Errorf("invalid generation %q", fields[1])
	}
	for _, n := range fields[2:] {
		if n != NeighborNone && !matchTimestamp(n) {
			return "", "", UsageRecord{}, fmt.Errorf("invalid neighbor %q", n)
		}
	}
	return g.Name, g.Timestamp, NewUsageRecord(size, fields[2], fields[3]), nil
}

// WriteTo writes the header and all records sorted by set and generation.
func (db *UsageDB) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString(usageDBHeader)
	for _, set := range db.Sets() {
		for _, ts := range db.Timestamps(set) {
			rec := db.sets[set][ts]
			fmt.Fprintf(&buf, "%d\t%s\t%s\t%s\n",
				rec.SizeKB, FormatGeneration(set, ts), rec.Neighbors[0], rec.Neighbors[1])
		}
	}
	return buf.WriteTo(w)
}

// LoadUsageDB reads the database at path. A missing file yields an empty
// database.
func LoadUsageDB(ctx context.Context, fs FileSystemPort, path string) (*UsageDB, error) {
	data, err := fs.ReadFile(ctx, path)
	if err != nil {
		if fs.IsNotExist(err) {
			return NewUsageDB(), nil
		}
		return nil, fmt.Errorf("read usage db %s: %w", path, err)
	}
	db, err := ParseUsageDB(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return db, nil
}

// SaveUsageDB writes db to path. The new content is written to a temporary
// file, the previous content is copied to path.bak, and the temporary file
// is renamed over path, so path always holds a complete database.
func SaveUsageDB(ctx context.Context, fs FileSystemPort, path string, db *UsageDB) error {
	var buf bytes.Buffer
	if _, err := db.WriteTo(&buf); err != nil {
		return fmt.Errorf("render usage db: %w", err)
	}
	if err := fs.CreateDir(ctx, fs.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create usage db dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := fs.WriteFile(ctx, tmp, buf.Bytes(), 0o644); err != nil {
		_ = fs.RemoveAll(ctx, tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	prev, err := fs.ReadFile(ctx, path)
	switch {
	case err == nil:
		if err := fs.WriteFile(ctx, path+".bak", prev, 0o644); err != nil {
			_ = fs.RemoveAll(ctx, tmp)
			return fmt.Errorf("back up %s: %w", path, err)
		}
	case !fs.IsNotExist(err):
		_ = fs.RemoveAll(ctx, tmp)
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := fs.Move(ctx, tmp, path); err != nil {
		return fmt.Errorf("install %s: %w", path, err)
	}
	return nil
}
