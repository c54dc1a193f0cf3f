package usecase

import (
	"fmt"
	"strings"
	"time"
)

const (
	minSetColumn     = 8
	defaultSetColumn = 24
)

// setColumnWidth sizes the set-name column to fit a terminal of the given
// width next to fixed columns taking `fixed` characters. width <= 0 means
// unknown.
func setColumnWidth(width, fixed int) int {
	if width <= 0 {
		return defaultSetColumn
	}
	w := width - fixed
	if w < minSetColumn {
		return minSetColumn
	}
	if w > defaultSetColumn {
		return defaultSetColumn
	}
	return w
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

// FormatUsageReport renders usage rows as a table followed by a total.
func FormatUsageReport(rows []UsageRow, width int) string {
	if len(rows) == 0 {
		return "No usage records found.\n"
	}
	const fixed = 1 + 17 + 1 + 10 + 1 + 35
	col := setColumnWidth(width, fixed)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-*s %-17s %10s  %s\n", col, "Set", "Generation", "Size", "Neighbors")
	sb.WriteString(strings.Repeat("─", col+fixed))
	sb.WriteString("\n")
	var total int64
	for _, r := range rows {
		total += r.SizeKB
		fmt.Fprintf(&sb, "%-*s %-17s %10s  %s %s\n",
			col, truncate(r.Set, col), r.Timestamp, humanKB(r.SizeKB), r.Neighbors[0], r.Neighbors[1])
	}
	fmt.Fprintf(&sb, "%d generation(s), total %s\n", len(rows), humanKB(total))
	return sb.String()
}

// FormatTransferReport renders transfer statistics.
func FormatTransferReport(rows []TransferRecord, width int) string {
	if len(rows) == 0 {
		return "No transfer logs found.\n"
	}
	const fixed = 1 + 17 + 1 + 10 + 1 + 12 + 1 + 12
	col := setColumnWidth(width, fixed)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-*s %-17s %10s %12s %12s\n", col, "Set", "Generation", "Files", "Transferred", "Total")
	sb.WriteString(strings.Repeat("─", col+fixed))
	sb.WriteString("\n")
	for _, r := range rows {
		marker := ""
		if !r.Complete {
			marker = "  (incomplete)"
		}
		fmt.Fprintf(&sb, "%-*s %-17s %10d %12s %12s%s\n",
			col, truncate(r.Set, col), r.Timestamp, r.FilesTransferred,
			humanBytes(r.TransferredBytes), humanBytes(r.TotalBytes), marker)
	}
	return sb.String()
}

// FormatVersions renders the history of one file.
func FormatVersions(relPath string, rows []VersionRecord) string {
	if len(rows) == 0 {
		return "No generations found.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "History of %s\n", relPath)
	fmt.Fprintf(&sb, "%-17s %-8s %12s\n", "Generation", "Status", "Size")
	sb.WriteString(strings.Repeat("─", 39))
	sb.WriteString("\n")
	for _, r := range rows {
		size := "-"
		if r.Status != VersionAbsent {
			size = humanBytes(r.SizeBytes)
		}
		fmt.Fprintf(&sb, "%-17s %-8s %12s\n", r.Timestamp, r.Status, size)
	}
	return sb.String()
}

// FormatHealth renders one line per checked set.
func FormatHealth(report HealthReport) string {
	if len(report.Sets) == 0 {
		return "No backup sets configured.\n"
	}
	var sb strings.Builder
	for _, s := range report.Sets {
		fmt.Fprintf(&sb, "%-7s %s", s.Status, s.Set)
		if s.Latest != "" {
			fmt.Fprintf(&sb, " latest=%s age=%s generations=%d", s.Latest, s.Age.Truncate(time.Minute), s.Generations)
		}
		if s.Detail != "" {
			fmt.Fprintf(&sb, " (%s)", s.Detail)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
