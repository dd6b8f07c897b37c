package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/romsync/romsync-go/internal/config"
	"github.com/romsync/romsync-go/internal/library"
	syncengine "github.com/romsync/romsync-go/internal/sync"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// cfg holds the configuration loaded by PersistentPreRunE, available to
// every subcommand.
var cfg *config.Config

// newRootCmd builds the fully assembled root command. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "romsync",
		Short:   "Save-game and playtime sync for game-library servers",
		Long:    "romsync keeps emulator save files and playtime in sync between this device and a game-library server.",
		Version: version,
		// Silence Cobra's default error/usage printing; main handles it.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			loaded, err := config.Load(flagConfigPath)
			if err != nil {
				return err
			}

			cfg = loaded

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newHookCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConflictsCmd())
	cmd.AddCommand(newQueueCmd())
	cmd.AddCommand(newPlaytimeCmd())
	cmd.AddCommand(newSessionCmd())
	cmd.AddCommand(newSettingsCmd())
	cmd.AddCommand(newDeviceCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newPingCmd())

	return cmd
}

// buildLogger creates an slog.Logger from the config's log level, with
// --verbose and --quiet overriding because CLI flags always win. When
// log_file is configured, output goes to a rotating file instead of stderr.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	if cfg != nil {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	var out io.Writer = os.Stderr

	if cfg != nil && cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     30, // days
		}
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

// buildEngine wires the full engine stack from the loaded config. The
// returned cleanup closes the history database; callers defer it.
func buildEngine() (*syncengine.Engine, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := buildLogger()
	client := library.NewClient(cfg.ServerURL, cfg.Username, cfg.Password, nil, logger)
	registry := config.NewRegistry(cfg.StateDir)
	store := syncengine.NewStore(cfg.StateDir, logger)
	retrier := library.NewRetrier(logger)

	// The ledger is diagnostic; an unopenable database disables it rather
	// than failing the command.
	history, err := syncengine.OpenHistory(cfg.StateDir, logger)
	if err != nil {
		logger.Warn("sync history unavailable", slog.String("error", err.Error()))

		history = nil
	}

	engine := syncengine.NewEngine(cfg, registry, store, client, client, retrier, history, logger)

	cleanup := func() {
		if history != nil {
			history.Close()
		}
	}

	return engine, cleanup, nil
}

// buildLocalEngine wires an engine for commands that never touch the
// server, so they work without credentials configured.
func buildLocalEngine() (*syncengine.Engine, func(), error) {
	logger := buildLogger()
	registry := config.NewRegistry(cfg.StateDir)
	store := syncengine.NewStore(cfg.StateDir, logger)

	var client *library.Client
	if cfg.ServerURL != "" {
		client = library.NewClient(cfg.ServerURL, cfg.Username, cfg.Password, nil, logger)
	} else {
		client = library.NewClient("http://unconfigured.invalid", "", "", nil, logger)
	}

	engine := syncengine.NewEngine(cfg, registry, store, client, client, library.NewRetrier(logger), nil, logger)

	return engine, func() {}, nil
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
