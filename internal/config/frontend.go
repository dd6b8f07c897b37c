package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// defaultFrontendConfigPath returns the RetroDECK flatpak config location,
// the frontend this engine ships against by default.
func defaultFrontendConfigPath() string {
	home, _ := os.UserHomeDir()

	return filepath.Join(home,
		".var", "app", "net.retrodeck.retrodeck", "config", "retrodeck", "retrodeck.json")
}

// defaultSavesRoot is the fallback when the frontend config is missing or
// unreadable.
func defaultSavesRoot() string {
	home, _ := os.UserHomeDir()

	return filepath.Join(home, "retrodeck", "saves")
}

// frontendPaths mirrors the slice of the frontend's JSON config we consume.
type frontendPaths struct {
	Paths struct {
		SavesPath string `json:"saves_path"`
	} `json:"paths"`
}

// ResolveSavesRoot returns the directory under which per-system save
// folders live. The frontend config file is re-read on every call — never
// cached — so edits made outside this process (moving saves to an SD card,
// for example) apply immediately. Any read or parse failure falls back to
// the default location; this function never fails.
func (c *Config) ResolveSavesRoot() string {
	if c.SavesRoot != "" {
		return c.SavesRoot
	}

	raw, err := os.ReadFile(c.FrontendConfig)
	if err != nil {
		return defaultSavesRoot()
	}

	var fp frontendPaths
	if err := json.Unmarshal(raw, &fp); err != nil {
		return defaultSavesRoot()
	}

	if fp.Paths.SavesPath == "" {
		return defaultSavesRoot()
	}

	return fp.Paths.SavesPath
}
