package usecase

import (
	"fmt"
	"sort"
	"time"
)

// Record fields understood by the report filters.
const (
	FieldSize  = "size"
	FieldFiles = "files"
	FieldBytes = "bytes"
	FieldTotal = "total"
)

// Record is a per-generation report row.
type Record interface {
	SetName() string
	Stamp() string
	// Field returns a numeric column; ok is false for unknown fields.
	Field(name string) (int64, bool)
}

// SortOrder selects one of the report total orders.
type SortOrder string

const (
	SortNone  SortOrder = ""
	SortValue SortOrder = "value"
	SortName  SortOrder = "name"
	SortDate  SortOrder = "date"
)

// FilterByDateRange keeps records whose date (YYYY-MM-DD) lies within the
// inclusive bounds. Empty bounds are open.
func FilterByDateRange[R Record](records []R, after, before string) []R {
	out := make([]R, 0, len(records))
	for _, r := range records {
		d := timestampDate(r.Stamp())
		if after != "" && d < after {
			continue
		}
		if before != "" && d > before {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterByThreshold keeps records whose field lies within the inclusive
// bounds. Records without the field are dropped.
func FilterByThreshold[R Record](records []R, field string, lo, hi *int64) []R {
	out := make([]R, 0, len(records))
	for _, r := range records {
		v, ok := r.Field(field)
		if !ok {
			continue
		}
		if lo != nil && v < *lo {
			continue
		}
		if hi != nil && v > *hi {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SortByValueDesc orders by field descending, then set name ascending, then
// date descending.
func SortByValueDesc[R Record](records []R, field string) []R {
	out := append([]R(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		vi, _ := out[i].Field(field)
		vj, _ := out[j].Field(field)
		if vi != vj {
			return vi > vj
		}
		if out[i].SetName() != out[j].SetName() {
			return out[i].SetName() < out[j].SetName()
		}
		return out[i].Stamp() > out[j].Stamp()
	})
	return out
}

// SortByNameThenDate orders by set name, then date, both ascending.
func SortByNameThenDate[R Record](records []R) []R {
	out := append([]R(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SetName() != out[j].SetName() {
			return out[i].SetName() < out[j].SetName()
		}
		return out[i].Stamp() < out[j].Stamp()
	})
	return out
}

// SortByDateThenName orders by date, then set name, both ascending.
func SortByDateThenName[R Record](records []R) []R {
	out := append([]R(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Stamp() != out[j].Stamp() {
			return out[i].Stamp() < out[j].Stamp()
		}
		return out[i].SetName() < out[j].SetName()
	})
	return out
}

// TopN returns the first n records. With dedupeByName only the first record
// of every set counts. n <= 0 means no limit.
func TopN[R Record](records []R, n int, dedupeByName bool) []R {
	out := make([]R, 0, len(records))
	seen := make(map[string]struct{})
	for _, r := range records {
		if n > 0 && len(out) >= n {
			break
		}
		if dedupeByName {
			if _, ok := seen[r.SetName()]; ok {
				continue
			}
			seen[r.SetName()] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}

// ReportQuery is the immutable set of report options.
type ReportQuery struct {
	After        string
	Before       string
	Field        string
	Min          *int64
	Max          *int64
	Order        SortOrder
	Limit        int
	DedupeByName bool
}

// Validate checks date bounds and sort order.
func (q ReportQuery) Validate() error {
	for _, d := range []string{q.After, q.Before} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", d, ErrUsage)
		}
	}
	if q.After != "" && q.Before != "" && q.After > q.Before {
		return fmt.Errorf("date range %s..%s is empty: %w", q.After, q.Before, ErrUsage)
	}
	switch q.Order {
	case SortNone, SortValue, SortName, SortDate:
	default:
		return fmt.Errorf("unknown sort order %q: %w", q.Order, ErrUsage)
	}
	if (q.Min != nil || q.Max != nil || q.Order == SortValue) && q.Field == "" {
		return fmt.Errorf("threshold and value sort need a field: %w", ErrUsage)
	}
	if q.Limit < 0 {
		return fmt.Errorf("limit must not be negative: %w", ErrUsage)
	}
	return nil
}

// Report accumulates records through the filter and sort stages. Every
// stage returns a new Report; the receiver is not modified.
type Report[R Record] struct {
	records []R
}

// NewReport wraps records.
func NewReport[R Record](records []R) *Report[R] {
	return &Report[R]{records: records}
}

// Records returns the current rows.
func (r *Report[R]) Records() []R {
	return r.records
}

// Len returns the number of rows.
func (r *Report[R]) Len() int {
	return len(r.records)
}

// DateRange applies FilterByDateRange.
func (r *Report[R]) DateRange(after, before string) *Report[R] {
	return &Report[R]{records: FilterByDateRange(r.records, after, before)}
}

// Threshold applies FilterByThreshold.
func (r *Report[R]) Threshold(field string, lo, hi *int64) *Report[R] {
	return &Report[R]{records: FilterByThreshold(r.records, field, lo, hi)}
}

// Sort orders rows; SortNone keeps the current order.
func (r *Report[R]) Sort(order SortOrder, field string) *Report[R] {
	switch order {
	case SortValue:
		return &Report[R]{records: SortByValueDesc(r.records, field)}
	case SortName:
		return &Report[R]{records: SortByNameThenDate(r.records)}
	case SortDate:
		return &Report[R]{records: SortByDateThenName(r.records)}
	default:
		return r
	}
}

// Top applies TopN.
func (r *Report[R]) Top(n int, dedupeByName bool) *Report[R] {
	return &Report[R]{records: TopN(r.records, n, dedupeByName)}
}

// Apply runs every stage of q in order: date range, threshold, sort, top.
func (r *Report[R]) Apply(q ReportQuery) (*Report[R], error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	out := r.DateRange(q.After, q.Before)
	if q.Min != nil || q.Max != nil {
		out = out.Threshold(q.Field, q.Min, q.Max)
	}
	out = out.Sort(q.Order, q.Field)
	if q.Limit > 0 || q.DedupeByName {
		out = out.Top(q.Limit, q.DedupeByName)
	}
	return out, nil
}
