package usecase

// ConfigFile describes TOML configuration structure.
type ConfigFile struct {
	Usage   UsageConfig   `toml:"usage"`
	Logging LoggingConfig `toml:"logging"`
	Lock    LockConfig    `toml:"lock"`
	Tools   ToolsConfig   `toml:"tools"`
	Sets    []SetConfig   `toml:"set" validate:"unique=Name,dive"`
}

// UsageConfig holds usage database settings.
type UsageConfig struct {
	DBPath        string `toml:"db_path" validate:"required"`
	PurgeUnlisted bool   `toml:"purge_unlisted"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Dir   string `toml:"dir"`
	Level string `toml:"level" validate:"omitempty,oneof=debug info warn warning error"`
}

// LockConfig holds lock file settings.
type LockConfig struct {
	Dir string `toml:"dir"`
}

// ToolsConfig names the external programs.
type ToolsConfig struct {
	Rsync string `toml:"rsync" validate:"required"`
	Du    string `toml:"du" validate:"required"`
}

// SetConfig describes one backup set.
type SetConfig struct {
	Name        string          `toml:"name" validate:"required,excludesall=/"`
	Source      string          `toml:"source" validate:"required"`
	Dest        string          `toml:"dest" validate:"required"`
	RsyncArgs   []string        `toml:"rsync_args,omitempty"`
	KeepRecent  *int            `toml:"keep_recent" validate:"omitempty,min=1"`
	KeepDays    *KeepDaysConfig `toml:"keep_days"`
	MaxAgeHours int             `toml:"max_age_hours,omitempty" validate:"min=0"`
}

// KeepDaysConfig keeps the Recent newest generations plus older ones taken
// on MonthDays.
type KeepDaysConfig struct {
	Recent    int   `toml:"recent" validate:"min=1"`
	MonthDays []int `toml:"month_days" validate:"min=1,dive,min=1,max=31"`
}

// DefaultConfigPath is the config file location relative to the home directory.
const DefaultConfigPath = "~/.config/linkback/config.toml"

// DefaultConfigFile returns default TOML configuration.
func DefaultConfigFile() ConfigFile {
	return ConfigFile{
		Usage: UsageConfig{
			DBPath:        "~/.local/state/linkback/usage.db",
			PurgeUnlisted: false,
		},
		Logging: LoggingConfig{
			Dir:   "~/.local/state/linkback/logs",
			Level: "info",
		},
		Lock: LockConfig{
			Dir: "",
		},
		Tools: ToolsConfig{
			Rsync: "rsync",
			Du:    "du",
		},
	}
}
