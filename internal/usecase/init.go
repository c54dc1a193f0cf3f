package usecase

import (
	"context"
	"fmt"
	"log/slog"
)

// InitOptions controls config file creation.
type InitOptions struct {
	ConfigPath string
	Force      bool
	DryRun     bool
}

// InitConfig writes the default configuration file.
func InitConfig(ctx context.Context, opts InitOptions, deps *Dependencies, logger *slog.Logger) error {
	if deps == nil || deps.FileSystem == nil || deps.Config == nil {
		return fmt.Errorf("init requires filesystem and config adapters: %w", ErrCritical)
	}
	rc := newRunContext(logger, false)
	fs := deps.FileSystem
	if info, err := fs.Stat(ctx, opts.ConfigPath); err == nil {
		if info.IsDir() {
			return fmt.Errorf("config path %s is a directory: %w", opts.ConfigPath, ErrUsage)
		}
		if !opts.Force {
			return fmt.Errorf("config %s already exists (use --force to overwrite): %w", opts.ConfigPath, ErrUsage)
		}
	} else if !fs.IsNotExist(err) {
		return fmt.Errorf("stat config: %v: %w", err, ErrCritical)
	}
	if opts.DryRun {
		rc.logf("Dry run: would write %s", opts.ConfigPath)
		return nil
	}
	if err := fs.CreateDir(ctx, fs.Dir(opts.ConfigPath), 0o750); err != nil {
		return fmt.Errorf("create config dir: %v: %w", err, ErrCritical)
	}
	if err := deps.Config.Save(ctx, opts.ConfigPath, DefaultConfigFile()); err != nil {
		return fmt.Errorf("write config: %v: %w", err, ErrCritical)
	}
	rc.logf("✓ Config written → %s", opts.ConfigPath)
	return nil
}
