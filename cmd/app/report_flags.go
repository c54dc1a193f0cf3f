package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/arumata/linkback/internal/usecase"
)

// reportFlags collects the filter and sort options shared by report commands.
type reportFlags struct {
	after  string
	before string
	field  string
	min    string
	max    string
	sort   string
	top    int
	unique bool
}

func (f *reportFlags) register(cmd *cobra.Command, withField bool) {
	fl := cmd.Flags()
	fl.StringVar(&f.after, "after", "", "only generations on or after this date (YYYY-MM-DD)")
	fl.StringVar(&f.before, "before", "", "only generations on or before this date (YYYY-MM-DD)")
	fl.StringVar(&f.min, "min", "", "lower bound for the value column (e.g. 512, 10MiB)")
	fl.StringVar(&f.max, "max", "", "upper bound for the value column")
	fl.StringVar(&f.sort, "sort", "", "sort order: value, name or date")
	fl.IntVarP(&f.top, "top", "n", 0, "show at most N rows")
	fl.BoolVar(&f.unique, "unique", false, "with --top, at most one row per set")
	if withField {
		fl.StringVar(&f.field, "field", f.field, "value column: files, bytes or total")
	}
}

func (f *reportFlags) query() (usecase.ReportQuery, error) {
	q := usecase.ReportQuery{
		After:        strings.TrimSpace(f.after),
		Before:       strings.TrimSpace(f.before),
		Field:        f.field,
		Order:        usecase.SortOrder(strings.ToLower(strings.TrimSpace(f.sort))),
		Limit:        f.top,
		DedupeByName: f.unique,
	}
	var err error
	if q.Min, err = parseThreshold(f.min, f.field); err != nil {
		return usecase.ReportQuery{}, err
	}
	if q.Max, err = parseThreshold(f.max, f.field); err != nil {
		return usecase.ReportQuery{}, err
	}
	if err := q.Validate(); err != nil {
		return usecase.ReportQuery{}, err
	}
	return q, nil
}

// parseThreshold reads a bound in the unit of field. Plain integers are
// taken as is; values with a size suffix are converted from bytes, so
// "10MiB" means 10240 for the kilobyte size column.
func parseThreshold(s, field string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n, nil
	}
	if field == usecase.FieldFiles {
		return nil, fmt.Errorf("invalid count %q: %w", s, usecase.ErrUsage)
	}
	b, err := humanize.ParseBytes(s)
	if err != nil {
		return nil, fmt.Errorf("invalid size %q: %w", s, usecase.ErrUsage)
	}
	n := int64(b)
	if field == usecase.FieldSize {
		n /= 1024
	}
	return &n, nil
}
