package usecase

import (
	"context"
)

// Dependencies represents all external dependencies needed by use cases
type Dependencies struct {
	FileSystem FileSystemPort
	Lock       LockPort
	Process    ProcessPort
	Config     ConfigPort
	Sync       SyncPort
	DiskUsage  DiskUsagePort
}

// Ports define the interfaces that use cases need (hexagonal architecture)

// FileSystemPort defines filesystem operations needed by use cases
type FileSystemPort interface {
	// Core file operations
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte, perm int) error
	CreateDir(ctx context.Context, path string, perm int) error
	CreateDirExclusive(ctx context.Context, path string, perm int) error
	RemoveAll(ctx context.Context, path string) error
	Stat(ctx context.Context, path string) (FileInfo, error)
	Lstat(ctx context.Context, path string) (FileInfo, error)
	ReadDir(ctx context.Context, path string) ([]DirEntry, error)
	Move(ctx context.Context, src, dst string) error

	// SameFile reports whether a and b describe the same inode.
	SameFile(a, b FileInfo) bool

	// Path operations
	Join(elements ...string) string
	Base(path string) string
	Dir(path string) string

	// Error classification
	IsNotExist(err error) bool
	IsExist(err error) bool
}

// ConfigPort defines configuration operations needed by use cases
type ConfigPort interface {
	Load(ctx context.Context, path string) (ConfigFile, error)
	Save(ctx context.Context, path string, cfg ConfigFile) error
}

// LockPort defines locking operations needed by use cases
type LockPort interface {
	AcquireLock(ctx context.Context, path string, info LockInfo) error
	ReleaseLock(ctx context.Context, path string) error
	IsLocked(ctx context.Context, path string) (bool, LockInfo, error)
}

// ProcessPort defines process operations needed by use cases
type ProcessPort interface {
	GetPID() int
}

// SyncPort mirrors a source tree into a new generation directory.
type SyncPort interface {
	// Sync copies req.Source into req.Dest, hardlinking unchanged files
	// against req.LinkDest when it is set. The transfer summary is written
	// to req.LogPath.
	Sync(ctx context.Context, req SyncRequest) error
}

// DiskUsagePort measures disk usage of directory trees.
//
// Implementations must scan all paths in a single pass with shared inode
// bookkeeping: a hardlinked file is charged to the first path it is seen
// under. Measure returns one value in kilobytes per path, in input order.
type DiskUsagePort interface {
	Measure(ctx context.Context, paths []string) ([]int64, error)
}
