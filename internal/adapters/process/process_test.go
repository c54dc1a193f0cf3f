package process

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestAdapter_GetPID(t *testing.T) {
	adapter := New(slog.Default())
	if pid := adapter.GetPID(); pid != os.Getpid() {
		t.Fatalf("expected pid %d, got %d", os.Getpid(), pid)
	}
}

func TestAdapter_LookPath(t *testing.T) {
	adapter := New(slog.Default())

	dir := t.TempDir()
	tool := filepath.Join(dir, "fake-tool")
	if err := os.WriteFile(tool, []byte("#!/bin/sh\nexit 0\n"), 0o700); err != nil {
		t.Fatal(err)
	}

	path, err := adapter.LookPath(tool)
	if err != nil {
		t.Fatal(err)
	}
	if path != tool {
		t.Fatalf("expected %s, got %s", tool, path)
	}

	if _, err := adapter.LookPath(filepath.Join(dir, "missing-tool")); err == nil {
		t.Fatal("expected error for missing tool")
	}
}

func TestNew_PanicsWithoutLogger(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	New(nil)
}
