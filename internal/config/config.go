// Package config loads the tool's own TOML configuration and provides the
// read-only views onto external configuration this engine consumes: the
// emulation frontend's saves-root path and the installed-ROM registry.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the tool's own configuration, loaded from a TOML file.
type Config struct {
	// ServerURL is the game-library server root, e.g. "https://library.example.net".
	ServerURL string `toml:"server_url"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`

	// StateDir holds save_sync_state.json, the history database, and the
	// installed-ROM registry. Defaults to the platform data dir.
	StateDir string `toml:"state_dir"`

	// FrontendConfig is the emulation frontend's JSON config file, consulted
	// for the saves root. SavesRoot, when set, overrides it entirely.
	FrontendConfig string `toml:"frontend_config"`
	SavesRoot      string `toml:"saves_root"`

	// Emulator is reported on uploads so other devices know which core
	// produced a save. Defaults to "retroarch".
	Emulator string `toml:"emulator"`

	// Log file verbosity: debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// LogFile, when set, receives rotated logs in watch mode.
	LogFile string `toml:"log_file"`
}

// Default config values applied before the file is read.
const (
	defaultEmulator = "retroarch"
	defaultLogLevel = "info"
)

// DefaultPath returns the standard config file location,
// ~/.config/romsync/config.toml.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}

	return filepath.Join(configDir, "romsync", "config.toml")
}

// defaultStateDir returns the standard state directory,
// ~/.local/share/romsync on Linux.
func defaultStateDir() string {
	home, _ := os.UserHomeDir()

	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "romsync")
	}

	return filepath.Join(home, ".local", "share", "romsync")
}

// Load reads the config file at path (DefaultPath() when empty) and merges
// it over defaults. A missing file yields pure defaults so read-only
// commands work before any configuration exists.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := &Config{
		StateDir:       defaultStateDir(),
		FrontendConfig: defaultFrontendConfigPath(),
		Emulator:       defaultEmulator,
		LogLevel:       defaultLogLevel,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the fields required for remote operations are set.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("config: server_url is not set (edit %s)", DefaultPath())
	}

	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("config: username and password are required")
	}

	return nil
}
