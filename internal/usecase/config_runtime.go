package usecase

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// RuntimeConfigFromFile converts TOML config into runtime config.
func RuntimeConfigFromFile(cfg ConfigFile, homeDir string) (*Config, error) {
	cleanHome := strings.TrimSpace(homeDir)
	if cleanHome == "" {
		return nil, fmt.Errorf("home directory is empty: %w", ErrCritical)
	}

	resolve := func(p string) (string, error) {
		return absPath(expandHomeDir(strings.TrimSpace(p), cleanHome))
	}

	dbPath, err := resolve(cfg.Usage.DBPath)
	if err != nil {
		return nil, err
	}
	lockDir, err := resolve(cfg.Lock.Dir)
	if err != nil {
		return nil, err
	}
	out := &Config{
		UsageDBPath:   dbPath,
		PurgeUnlisted: cfg.Usage.PurgeUnlisted,
		LockDir:       lockDir,
	}
	for i, sc := range cfg.Sets {
		name := strings.TrimSpace(sc.Name)
		if name == "" {
			return nil, fmt.Errorf("set #%d: name is blank: %w", i+1, ErrUsage)
		}
		source, err := resolve(sc.Source)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", name, err)
		}
		dest, err := resolve(sc.Dest)
		if err != nil {
			return nil, fmt.Errorf("set %s: %w", name, err)
		}
		set := BackupSet{
			Name:     name,
			Source:   source,
			Dest:     dest,
			SyncArgs: append([]string(nil), sc.RsyncArgs...),
			MaxAge:   time.Duration(sc.MaxAgeHours) * time.Hour,
		}
		if sc.KeepRecent != nil {
			if *sc.KeepRecent < 1 {
				return nil, fmt.Errorf("set %s: keep_recent must be at least 1: %w", set.Name, ErrUsage)
			}
			set.Retention.KeepRecent = *sc.KeepRecent
		}
		if sc.KeepDays != nil {
			set.Retention.KeepDays = &DayRetention{
				Recent:    sc.KeepDays.Recent,
				MonthDays: append([]int(nil), sc.KeepDays.MonthDays...),
			}
		}
		if err := set.Retention.Validate(); err != nil {
			return nil, fmt.Errorf("set %s: %w", set.Name, err)
		}
		out.Sets = append(out.Sets, set)
	}
	return out, nil
}

// absPath anchors a relative path at the working directory. rsync resolves
// a relative --link-dest against the destination, so generation paths must
// never be relative.
func absPath(p string) (string, error) {
	if p == "" {
		return p, nil
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %v: %w", p, err, ErrCritical)
	}
	return abs, nil
}

// ExpandHomeDir expands ~, $HOME and ${HOME} at the start of p.
func ExpandHomeDir(p, homeDir string) string {
	return expandHomeDir(p, homeDir)
}

func expandHomeDir(p, homeDir string) string {
	switch {
	case p == "":
		return p
	case p == "~":
		return homeDir
	case strings.HasPrefix(p, "~/"):
		return homeDir + p[1:]
	case strings.HasPrefix(p, "${HOME}"):
		return homeDir + strings.TrimPrefix(p, "${HOME}")
	case strings.HasPrefix(p, "$HOME"):
		return homeDir + strings.TrimPrefix(p, "$HOME")
	default:
		return p
	}
}
