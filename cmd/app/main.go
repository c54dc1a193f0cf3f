package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/spf13/cobra"

	"github.com/arumata/linkback/internal/adapters/loghandler"
	"github.com/arumata/linkback/internal/app"
	"github.com/arumata/linkback/internal/usecase"
)

func main() {
	os.Exit(runMain())
}

func runMain() int {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
		syscall.SIGHUP,
	)
	defer stop()

	cmd, exitCode := newRootCmd(app.NewDefaultDependencies, time.Now)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsageError
	}
	return *exitCode
}

// rootOptions holds the persistent flags shared by all subcommands.
type rootOptions struct {
	verbose    bool
	dryRun     bool
	configPath string
}

// cliEnv carries what every subcommand needs to build its runtime.
type cliEnv struct {
	opts        *rootOptions
	depsFactory func(*slog.Logger) *usecase.Dependencies
	now         func() time.Time
	exitCode    *int
}

func newRootCmd(
	depsFactory func(*slog.Logger) *usecase.Dependencies,
	now func() time.Time,
) (*cobra.Command, *int) {
	exitCode := 0
	env := &cliEnv{
		opts:        &rootOptions{},
		depsFactory: depsFactory,
		now:         now,
		exitCode:    &exitCode,
	}
	cmd := &cobra.Command{
		Use:           "linkback",
		Short:         "Hardlink-tree incremental backups with retention and usage tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.SetErr(os.Stderr)

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&env.opts.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVar(&env.opts.dryRun, "dry-run", false, "report decisions without changing anything")
	flags.StringVarP(&env.opts.configPath, "config", "c", usecase.DefaultConfigPath, "config file path")

	cmd.AddCommand(newBackupCmd(env))
	cmd.AddCommand(newPruneCmd(env))
	cmd.AddCommand(newUsageCmd(env))
	cmd.AddCommand(newStatsCmd(env))
	cmd.AddCommand(newVersionsCmd(env))
	cmd.AddCommand(newCheckCmd(env))
	cmd.AddCommand(newInitCmd(env))
	cmd.AddCommand(newVersionCmd())

	return cmd, &exitCode
}

// cmdRuntime is the loaded configuration and wired adapters for one command.
type cmdRuntime struct {
	cfg     *usecase.Config
	deps    *usecase.Dependencies
	logger  *slog.Logger
	cleanup func()
}

func (e *cliEnv) loadRuntime(ctx context.Context) (*cmdRuntime, error) {
	logger := setupLogger(e.opts.verbose)
	deps := e.depsFactory(logger)
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home dir: %v: %w", err, usecase.ErrCritical)
	}
	configPath := usecase.ExpandHomeDir(e.opts.configPath, homeDir)
	configFile, err := loadConfigFile(ctx, deps, configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := usecase.RuntimeConfigFromFile(configFile, homeDir)
	if err != nil {
		return nil, err
	}
	cfg.Verbose = e.opts.verbose
	cfg.DryRun = e.opts.dryRun

	fileLogger, cleanup := withFileLogging(logger, configFile.Logging, homeDir, e.opts.verbose)
	app.WithTools(deps, fileLogger, configFile.Tools)
	return &cmdRuntime{
		cfg:     cfg,
		deps:    deps,
		logger:  fileLogger,
		cleanup: cleanup,
	}, nil
}

// run loads the runtime, executes fn and records the exit code.
func (e *cliEnv) run(cmd *cobra.Command, fn func(*cmdRuntime) error) {
	rt, err := e.loadRuntime(cmd.Context())
	if err != nil {
		handleCmdError(e.exitCode, err)
		return
	}
	defer rt.cleanup()
	rt.logger.Debug("Starting linkback", "command", cmd.CommandPath(), "dry_run", rt.cfg.DryRun)
	handleCmdError(e.exitCode, fn(rt))
}

func loadConfigFile(
	ctx context.Context,
	deps *usecase.Dependencies,
	configPath string,
) (usecase.ConfigFile, error) {
	if deps == nil || deps.Config == nil || deps.FileSystem == nil {
		return usecase.ConfigFile{}, fmt.Errorf("dependencies not available: %w", usecase.ErrCritical)
	}
	info, err := deps.FileSystem.Stat(ctx, configPath)
	if err == nil && info != nil && info.IsDir() {
		return usecase.ConfigFile{}, fmt.Errorf("config path is a directory: %w", usecase.ErrUsage)
	}
	if err != nil && !deps.FileSystem.IsNotExist(err) {
		return usecase.ConfigFile{}, fmt.Errorf("stat config: %v: %w", err, usecase.ErrCritical)
	}
	cfg, err := deps.Config.Load(ctx, configPath)
	if err != nil {
		if errors.Is(err, usecase.ErrUsage) {
			return usecase.ConfigFile{}, fmt.Errorf("load config %s: %w", configPath, err)
		}
		return usecase.ConfigFile{}, fmt.Errorf("load config %s: %v: %w", configPath, err, usecase.ErrCritical)
	}
	return cfg, nil
}

func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := loghandler.NewHandler(os.Stderr, &loghandler.Options{
		Level:    level,
		UseColor: shouldUseColor(os.Stderr),
	})
	return slog.New(handler)
}

func withFileLogging(
	logger *slog.Logger,
	logCfg usecase.LoggingConfig,
	homeDir string,
	verbose bool,
) (*slog.Logger, func()) {
	dir := strings.TrimSpace(logCfg.Dir)
	if dir == "" {
		return logger, func() {}
	}
	expanded := usecase.ExpandHomeDir(dir, homeDir)
	if err := os.MkdirAll(expanded, 0o750); err != nil {
		logger.Warn("Cannot create log directory", "path", expanded, "error", err)
		return logger, func() {}
	}
	filename := "linkback-" + time.Now().Format("2006-01-02") + ".log"
	logPath := filepath.Join(expanded, filename)

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // path from config
	if err != nil {
		logger.Warn("Cannot open log file", "path", logPath, "error", err)
		return logger, func() {}
	}

	fileLevel := parseLogLevel(logCfg.Level)
	if verbose && fileLevel > slog.LevelDebug {
		fileLevel = slog.LevelDebug
	}
	fileHandler := loghandler.NewHandler(f, &loghandler.Options{
		Level:    fileLevel,
		UseColor: false,
		WithDate: true,
	})

	stderrHandler := logger.Handler()
	combined := loghandler.NewMultiHandler(stderrHandler, fileHandler)
	return slog.New(combined), func() { _ = f.Close() }
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func shouldUseColor(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the column count of stdout, or 0 when stdout is not
// a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}
