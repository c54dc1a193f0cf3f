package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

type testFileSystem struct{}

func newTestFileSystem() *testFileSystem {
	return &testFileSystem{}
}

func safeFileMode(perm int, fallback fs.FileMode) fs.FileMode {
	if perm < 0 || perm > 0o777 {
		return fallback
	}
	// #nosec G115 -- perm validated to be within safe range.
	return fs.FileMode(perm)
}

func (a *testFileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	_ = ctx
	// #nosec G304 -- test paths are controlled by the test harness.
	return os.ReadFile(path)
}

func (a *testFileSystem) WriteFile(ctx context.Context, path string, data []byte, perm int) error {
	_ = ctx
	return os.WriteFile(path, data, safeFileMode(perm, 0o644))
}

func (a *testFileSystem) CreateDir(ctx context.Context, path string, perm int) error {
	_ = ctx
	return os.MkdirAll(path, safeFileMode(perm, 0o755))
}

func (a *testFileSystem) CreateDirExclusive(ctx context.Context, path string, perm int) error {
	_ = ctx
	return os.Mkdir(path, safeFileMode(perm, 0o755))
}

func (a *testFileSystem) RemoveAll(ctx context.Context, path string) error {
	_ = ctx
	return os.RemoveAll(path)
}

func (a *testFileSystem) Stat(ctx context.Context, path string) (FileInfo, error) {
	_ = ctx
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &fileInfoWrapperTest{info}, nil
}

func (a *testFileSystem) Lstat(ctx context.Context, path string) (FileInfo, error) {
	_ = ctx
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	return &fileInfoWrapperTest{info}, nil
}

func (a *testFileSystem) ReadDir(ctx context.Context, path string) ([]DirEntry, error) {
	_ = ctx
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	result := make([]DirEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, &dirEntryWrapperTest{entry})
	}
	return result, nil
}

func (a *testFileSystem) Move(ctx context.Context, src, dst string) error {
	_ = ctx
	return os.Rename(src, dst)
}

func (a *testFileSystem) SameFile(x, y FileInfo) bool {
	fx, ok1 := x.(*fileInfoWrapperTest)
	fy, ok2 := y.(*fileInfoWrapperTest)
	if !ok1 || !ok2 {
		return false
	}
	return os.SameFile(fx.info, fy.info)
}

func (a *testFileSystem) Join(elements ...string) string { return filepath.Join(elements...) }
func (a *testFileSystem) Base(path string) string        { return filepath.Base(path) }
func (a *testFileSystem) Dir(path string) string         { return filepath.Dir(path) }
func (a *testFileSystem) IsNotExist(err error) bool {
	return os.IsNotExist(err) || errors.Is(err, syscall.ENOTDIR)
}
func (a *testFileSystem) IsExist(err error) bool { return os.IsExist(err) }

type fileInfoWrapperTest struct {
	info fs.FileInfo
}

func (f *fileInfoWrapperTest) Name() string       { return f.info.Name() }
func (f *fileInfoWrapperTest) Size() int64        { return f.info.Size() }
func (f *fileInfoWrapperTest) Mode() int          { return int(f.info.Mode()) }
func (f *fileInfoWrapperTest) ModTime() time.Time { return f.info.ModTime() }
func (f *fileInfoWrapperTest) IsDir() bool        { return f.info.IsDir() }
func (f *fileInfoWrapperTest) IsSymlink() bool    { return f.info.Mode()&os.ModeSymlink != 0 }
func (f *fileInfoWrapperTest) IsRegular() bool    { return f.info.Mode().IsRegular() }
func (f *fileInfoWrapperTest) Sys() interface{}   { return f.info.Sys() }

type dirEntryWrapperTest struct {
	entry fs.DirEntry
}

func (d *dirEntryWrapperTest) Name() string { return d.entry.Name() }
func (d *dirEntryWrapperTest) IsDir() bool  { return d.entry.IsDir() }

// failingRemoveFS fails RemoveAll for paths containing substr.
type failingRemoveFS struct {
	*testFileSystem
	substr string
}

func (f failingRemoveFS) RemoveAll(ctx context.Context, path string) error {
	if strings.Contains(path, f.substr) {
		return fmt.Errorf("remove failed")
	}
	return f.testFileSystem.RemoveAll(ctx, path)
}

// fakeSync writes a canned summary into the log and one file into the target.
type fakeSync struct {
	summary  string
	err      error
	requests []SyncRequest
}

func newFakeSync() *fakeSync {
	return &fakeSync{summary: "Number of regular files transferred: 2\n" +
		"Total file size: 1,024 bytes\n" +
		"Total transferred file size: 512 bytes\n" +
		"total size is 1,024  speedup is 2.00\n"}
}

func (s *fakeSync) Sync(ctx context.Context, req SyncRequest) error {
	s.requests = append(s.requests, req)
	if err := os.WriteFile(req.LogPath, []byte(s.summary), 0o600); err != nil {
		return err
	}
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(filepath.Join(req.Dest, "data.txt"), []byte("payload"), 0o600)
}

// fakeDiskUsage returns sizes from a table keyed by the last path's base name.
type fakeDiskUsage struct {
	mu    sync.Mutex
	sizes map[string]int64
	fail  map[string]bool
	calls [][]string
}

func newFakeDiskUsage() *fakeDiskUsage {
	return &fakeDiskUsage{sizes: map[string]int64{}, fail: map[string]bool{}}
}

func (d *fakeDiskUsage) Measure(ctx context.Context, paths []string) ([]int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.calls = append(d.calls, append([]string(nil), paths...))
	target := filepath.Base(paths[len(paths)-1])
	if d.fail[target] {
		return nil, fmt.Errorf("du: cannot access %s", target)
	}
	out := make([]int64, len(paths))
	for i, p := range paths {
		out[i] = d.sizes[filepath.Base(p)]
	}
	return out, nil
}

// memLock is an in-memory LockPort.
type memLock struct {
	held map[string]LockInfo
}

func newMemLock() *memLock {
	return &memLock{held: map[string]LockInfo{}}
}

func (l *memLock) AcquireLock(ctx context.Context, path string, info LockInfo) error {
	if _, ok := l.held[path]; ok {
		return errors.New("held")
	}
	l.held[path] = info
	return nil
}

func (l *memLock) ReleaseLock(ctx context.Context, path string) error {
	delete(l.held, path)
	return nil
}

func (l *memLock) IsLocked(ctx context.Context, path string) (bool, LockInfo, error) {
	info, ok := l.held[path]
	return ok, info, nil
}

type fixedPID int

func (p fixedPID) GetPID() int { return int(p) }

// makeGeneration creates a complete generation (directory plus sync log).
func makeGeneration(t testing.TB, dest, name, ts, logText string) string {
	t.Helper()
	dir := filepath.Join(dest, FormatGeneration(name, ts))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir+syncLogSuffix, []byte(logText), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}

// dailyStamps returns n consecutive daily timestamps starting at start.
func dailyStamps(start time.Time, n int) []string {
	out := make([]string, n)
	for i := range n {
		out[i] = FormatTimestamp(start.AddDate(0, 0, i))
	}
	return out
}
