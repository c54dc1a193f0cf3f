package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/arumata/linkback/internal/usecase"
)

// Adapter implements ConfigPort using TOML files on disk.
type Adapter struct {
	logger *slog.Logger
}

// New creates a new config adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		panic("config adapter requires logger")
	}
	return &Adapter{logger: logger}
}

// Load reads config from path or returns defaults when file is missing.
// The decoded file is validated before it is returned.
func (a *Adapter) Load(ctx context.Context, path string) (usecase.ConfigFile, error) {
	_ = ctx
	if strings.TrimSpace(path) == "" {
		return usecase.ConfigFile{}, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path) // #nosec G304 - path is controlled by usecase
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return usecase.DefaultConfigFile(), nil
		}
		return usecase.ConfigFile{}, err
	}

	cfg := usecase.DefaultConfigFile()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return usecase.ConfigFile{}, fmt.Errorf("parse config toml: %v: %w", err, usecase.ErrUsage)
	}
	for _, key := range md.Undecoded() {
		a.logger.Warn("Unknown config key", "key", key.String(), "path", path)
	}
	if err := Validate(cfg); err != nil {
		return usecase.ConfigFile{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes config to path in TOML format with inline documentation.
func (a *Adapter) Save(ctx context.Context, path string, cfg usecase.ConfigFile) error {
	_ = ctx
	if strings.TrimSpace(path) == "" {
		return errors.New("config path is empty")
	}

	content, err := renderCommentedTOML(cfg)
	if err != nil {
		return err
	}

	// #nosec G306 G304 - config is not secret, path is controlled by usecase.
	return os.WriteFile(path, []byte(content), 0o644)
}

type setsDocument struct {
	Sets []usecase.SetConfig `toml:"set"`
}

//nolint:lll // template readability is more important than line length.
func renderCommentedTOML(cfg usecase.ConfigFile) (string, error) {
	head := fmt.Sprintf(`# linkback configuration

# ── Usage Database ───────────────────────────────────────────────
[usage]

# Per-generation disk usage database. Supports ~, $HOME, ${HOME}.
db_path = %[1]q

# Drop records of backup sets that are no longer configured.
purge_unlisted = %[2]t

# ── Logging ──────────────────────────────────────────────────────
[logging]

# Log directory. Supports ~, $HOME, ${HOME}. Created automatically.
# Leave empty to log to stderr only.
dir = %[3]q

# Minimum log level: debug, info, warn, error.
level = %[4]q

# ── Locks ────────────────────────────────────────────────────────
[lock]

# Directory for lock files. Defaults to the usage database directory.
dir = %[5]q

# ── External Tools ───────────────────────────────────────────────
[tools]

# Sync tool used to create generations (called with --link-dest).
rsync = %[6]q

# Disk usage tool. Must count hardlinked files once across all paths
# given in one invocation (du -s -k).
du = %[7]q

# ── Backup Sets ──────────────────────────────────────────────────
# One [[set]] table per backup set. Generations are created as
# <dest>/<name>.<YYYY-MM-DDTHHMMSS> next to a <...>.rsync_log summary.
#
# [[set]]
# name = "home"
# source = "/home/me/"
# dest = "/srv/backups"
# rsync_args = ["--exclude=.cache"]
# # Keep the 40 newest generations.
# keep_recent = 40
# # Fail the health check when the newest generation is older than this.
# max_age_hours = 26
# # Keep the 14 newest, and older ones taken on these days of the month.
# [set.keep_days]
# recent = 14
# month_days = [1, 9, 17, 25]
`,
		cfg.Usage.DBPath,
		cfg.Usage.PurgeUnlisted,
		cfg.Logging.Dir,
		cfg.Logging.Level,
		cfg.Lock.Dir,
		cfg.Tools.Rsync,
		cfg.Tools.Du,
	)
	if len(cfg.Sets) == 0 {
		return head, nil
	}

	var buf bytes.Buffer
	buf.WriteString(head)
	buf.WriteString("\n")
	if err := toml.NewEncoder(&buf).Encode(setsDocument{Sets: cfg.Sets}); err != nil {
		return "", fmt.Errorf("encode backup sets: %w", err)
	}
	return buf.String(), nil
}
