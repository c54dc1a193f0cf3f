// Package filesystem implements the filesystem port on top of os.
package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/arumata/linkback/internal/usecase"
)

// Adapter implements FileSystemPort on the local filesystem.
type Adapter struct {
	logger *slog.Logger
}

// New creates a new filesystem adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		panic("filesystem adapter requires logger")
	}
	return &Adapter{logger: logger}
}

// ReadFile reads file content
func (a *Adapter) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(path) // #nosec G304 - paths are controlled by usecase
}

// WriteFile writes content to file and flushes it to disk.
func (a *Adapter) WriteFile(ctx context.Context, path string, data []byte, perm int) error {
	// #nosec G304 G302 - path is controlled by usecase, perm is validated.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, safeMode(perm, 0o644))
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// CreateDir creates directory with permissions
func (a *Adapter) CreateDir(ctx context.Context, path string, perm int) error {
	return os.MkdirAll(path, safeMode(perm, 0o755))
}

// CreateDirExclusive creates directory only if it does not exist
func (a *Adapter) CreateDirExclusive(ctx context.Context, path string, perm int) error {
	return os.Mkdir(path, safeMode(perm, 0o755))
}

// RemoveAll removes path and everything below it. Generation trees keep
// the source permissions, so directories without owner write permission
// are made writable before their entries are removed.
func (a *Adapter) RemoveAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.logger.Debug("remove", "path", path)
	err := os.RemoveAll(path)
	if err == nil || !errors.Is(err, fs.ErrPermission) {
		return err
	}
	a.logger.Debug("remove: unlocking read-only directories", "path", path)
	if werr := makeTreeWritable(ctx, path); werr != nil {
		return errors.Join(err, werr)
	}
	return os.RemoveAll(path)
}

func makeTreeWritable(ctx context.Context, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Unreadable directories are retried once chmod'ed below.
			if d == nil || !errors.Is(err, fs.ErrPermission) {
				return err
			}
		}
		if d == nil || !d.IsDir() {
			return nil
		}
		info, ierr := os.Lstat(p)
		if ierr != nil {
			return ierr
		}
		if info.Mode().Perm()&0o700 == 0o700 {
			return nil
		}
		// #nosec G302 -- the directory is about to be deleted.
		return os.Chmod(p, info.Mode().Perm()|0o700)
	})
}

// Stat returns file info
func (a *Adapter) Stat(ctx context.Context, path string) (usecase.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &fileInfoWrapper{info}, nil
}

// Lstat returns file info without following symlinks
func (a *Adapter) Lstat(ctx context.Context, path string) (usecase.FileInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	return &fileInfoWrapper{info}, nil
}

// ReadDir lists directory entries
func (a *Adapter) ReadDir(ctx context.Context, path string) ([]usecase.DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	result := make([]usecase.DirEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, &dirEntryWrapper{entry})
	}
	return result, nil
}

// Move renames src to dst and syncs the parent directory of dst so the
// rename survives a crash.
func (a *Adapter) Move(ctx context.Context, src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return err
	}
	return syncDir(filepath.Dir(dst))
}

func syncDir(dir string) error {
	d, err := os.Open(dir) // #nosec G304 -- parent of a path chosen by the usecase.
	if err != nil {
		return err
	}
	serr := d.Sync()
	cerr := d.Close()
	// Some filesystems do not support fsync on directories.
	if serr != nil && !errors.Is(serr, syscall.EINVAL) && !errors.Is(serr, syscall.ENOTSUP) {
		return serr
	}
	return cerr
}

// SameFile reports whether both infos describe the same inode.
func (a *Adapter) SameFile(x, y usecase.FileInfo) bool {
	wx, ok := x.(*fileInfoWrapper)
	if !ok {
		return false
	}
	wy, ok := y.(*fileInfoWrapper)
	if !ok {
		return false
	}
	return os.SameFile(wx.FileInfo, wy.FileInfo)
}

// Join joins path elements
func (a *Adapter) Join(elements ...string) string {
	return filepath.Join(elements...)
}

// Base returns last element of path
func (a *Adapter) Base(path string) string {
	return filepath.Base(path)
}

// Dir returns directory of path
func (a *Adapter) Dir(path string) string {
	return filepath.Dir(path)
}

// IsNotExist reports whether err indicates that a path does not exist.
// Also covers syscall.ENOTDIR (path component is not a directory).
func (a *Adapter) IsNotExist(err error) bool {
	return os.IsNotExist(err) || errors.Is(err, syscall.ENOTDIR)
}

// IsExist reports whether err indicates that a path already exists.
func (a *Adapter) IsExist(err error) bool {
	return os.IsExist(err)
}

func safeMode(perm int, fallback fs.FileMode) fs.FileMode {
	if perm < 0 || perm > 0o777 {
		return fallback
	}
	// #nosec G115 - perm is validated to be within safe range
	return fs.FileMode(perm)
}

// fileInfoWrapper wraps os.FileInfo to implement usecase.FileInfo
type fileInfoWrapper struct {
	fs.FileInfo
}

// Mode returns the file mode
func (w *fileInfoWrapper) Mode() int {
	return int(w.FileInfo.Mode())
}

// ModTime returns the modification time
func (w *fileInfoWrapper) ModTime() time.Time {
	return w.FileInfo.ModTime()
}

// IsSymlink returns true if the file is a symbolic link
func (w *fileInfoWrapper) IsSymlink() bool {
	return w.FileInfo.Mode()&os.ModeSymlink != 0
}

// IsRegular returns true if the file is a regular file
func (w *fileInfoWrapper) IsRegular() bool {
	return w.FileInfo.Mode().IsRegular()
}

type dirEntryWrapper struct {
	fs.DirEntry
}

var _ usecase.FileSystemPort = (*Adapter)(nil)
