package usecase

import (
	"strings"
	"testing"
	"time"
)

func TestSetColumnWidth(t *testing.T) {
	tests := []struct {
		width, fixed, want int
	}{
		{0, 40, defaultSetColumn},
		{200, 40, defaultSetColumn},
		{50, 40, 10},
		{20, 40, minSetColumn},
	}
	for _, tt := range tests {
		if got := setColumnWidth(tt.width, tt.fixed); got != tt.want {
			t.Errorf("setColumnWidth(%d, %d) = %d, want %d", tt.width, tt.fixed, got, tt.want)
		}
	}
}

func TestFormatUsageReport(t *testing.T) {
	rows := []UsageRow{
		{Set: "a-very-long-backup-set-name", Timestamp: "2024-01-01T000000", UsageRecord: NewUsageRecord(1024, "", "2024-01-02T000000")},
		{Set: "etc", Timestamp: "2024-01-02T000000", UsageRecord: NewUsageRecord(2048, "2024-01-01T000000", "")},
	}
	out := FormatUsageReport(rows, 70)
	if !strings.Contains(out, "1.0 MiB") || !strings.Contains(out, "2.0 MiB") {
		t.Fatalf("expected humanized sizes, got:\n%s", out)
	}
	if !strings.Contains(out, "2 generation(s), total 3.0 MiB") {
		t.Fatalf("expected total line, got:\n%s", out)
	}
	if strings.Contains(out, "a-very-long-backup-set-name") {
		t.Fatalf("long set name must be truncated at width 70:\n%s", out)
	}
	if got := FormatUsageReport(nil, 0); got != "No usage records found.\n" {
		t.Fatalf("unexpected empty output %q", got)
	}
}

func TestFormatTransferReport(t *testing.T) {
	rows := []TransferRecord{
		{Set: "home", Timestamp: "2024-01-01T000000", SyncSummary: SyncSummary{FilesTransferred: 3, TransferredBytes: 2048, TotalBytes: 4096, Complete: true}},
		{Set: "home", Timestamp: "2024-01-02T000000", SyncSummary: SyncSummary{FilesTransferred: 1}},
	}
	out := FormatTransferReport(rows, 0)
	if !strings.Contains(out, "2.0 KiB") || !strings.Contains(out, "4.0 KiB") {
		t.Fatalf("expected humanized bytes, got:\n%s", out)
	}
	if strings.Count(out, "(incomplete)") != 1 {
		t.Fatalf("expected one incomplete marker, got:\n%s", out)
	}
}

func TestFormatVersions(t *testing.T) {
	rows := []VersionRecord{
		{Timestamp: "2024-01-01T000000", Status: VersionAbsent},
		{Timestamp: "2024-01-02T000000", Status: VersionNew, SizeBytes: 10},
	}
	out := FormatVersions("docs/a.txt", rows)
	if !strings.HasPrefix(out, "History of docs/a.txt\n") {
		t.Fatalf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, "absent") || !strings.Contains(out, "10 B") {
		t.Fatalf("unexpected rows:\n%s", out)
	}
}

func TestFormatHealth(t *testing.T) {
	report := HealthReport{Sets: []SetHealth{
		{Set: "home", Status: HealthOK, Latest: "2024-02-14T030000", Age: 9*time.Hour + 30*time.Second, Generations: 4},
		{Set: "etc", Status: HealthMissing, Detail: "no complete generation"},
	}}
	out := FormatHealth(report)
	want := "OK      home latest=2024-02-14T030000 age=9h0m0s generations=4\n" +
		"MISSING etc (no complete generation)\n"
	if out != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", out, want)
	}
}
