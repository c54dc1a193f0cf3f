package usecase

import (
	"fmt"
	"time"
)

// Config contains all application configuration
type Config struct {
	Verbose       bool
	DryRun        bool
	Sets          []BackupSet
	UsageDBPath   string
	PurgeUnlisted bool
	LockDir       string
}

// BackupSet describes one named series of generations.
type BackupSet struct {
	Name      string
	Source    string
	Dest      string
	SyncArgs  []string
	Retention RetentionPolicy
	MaxAge    time.Duration
}

// FindSet returns the backup set with the given name.
func (c *Config) FindSet(name string) (BackupSet, error) {
	for _, s := range c.Sets {
		if s.Name == name {
			return s, nil
		}
	}
	return BackupSet{}, fmt.Errorf("unknown backup set %q: %w", name, ErrUsage)
}

// SelectSets returns the named sets, or all configured sets when names is empty.
func (c *Config) SelectSets(names []string) ([]BackupSet, error) {
	if len(names) == 0 {
		return c.Sets, nil
	}
	out := make([]BackupSet, 0, len(names))
	for _, name := range names {
		s, err := c.FindSet(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// FileInfo represents file information.
type FileInfo interface {
	Name() string
	Size() int64
	Mode() int
	ModTime() time.Time
	IsDir() bool
	IsSymlink() bool
	IsRegular() bool
	Sys() interface{}
}

// DirEntry represents a directory entry.
type DirEntry interface {
	Name() string
	IsDir() bool
}

// LockInfo represents lock file information.
type LockInfo struct {
	PID               int       `json:"pid"`
	StartTime         time.Time `json:"start_time"`
	Purpose           string    `json:"purpose"`
	Hostname          string    `json:"hostname"`
	ProcessStartTicks int64     `json:"process_start_ticks"`
	ProcessStartID    string    `json:"process_start_id"`
}

// SyncRequest describes one invocation of the sync tool.
type SyncRequest struct {
	Source   string
	Dest     string
	LinkDest string
	Args     []string
	LogPath  string
	DryRun   bool
}
