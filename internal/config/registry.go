package config

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// registryFileName is the installed-ROM registry maintained by the
// download/install component. This engine only ever reads it.
const registryFileName = "installed_roms.json"

// InstalledRom describes one locally installed library entry.
type InstalledRom struct {
	RomID    int64  `json:"rom_id"`
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
	// RomDir is set for multi-file entries (multi-disc games extracted to a
	// directory with an .m3u launch descriptor).
	RomDir      string `json:"rom_dir,omitempty"`
	System      string `json:"system"`
	InstalledAt string `json:"installed_at,omitempty"`
}

// Registry is a read-only view of the installed-ROM registry file. Every
// lookup re-reads the file so installs and removals made by the companion
// tooling are visible without a restart.
type Registry struct {
	path string
}

// NewRegistry returns a Registry over the registry file in stateDir.
func NewRegistry(stateDir string) *Registry {
	return &Registry{path: filepath.Join(stateDir, registryFileName)}
}

// load reads the registry file. Missing or corrupt files yield an empty map
// — an uninstalled library is not an error.
func (r *Registry) load() map[string]InstalledRom {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil
	}

	var roms map[string]InstalledRom
	if err := json.Unmarshal(raw, &roms); err != nil {
		return nil
	}

	return roms
}

// Get returns the installed entry for romID, or false when not installed.
func (r *Registry) Get(romID int64) (InstalledRom, bool) {
	rom, ok := r.load()[fmt.Sprintf("%d", romID)]
	return rom, ok
}

// All returns every installed entry, ordered by ROM id for deterministic
// whole-library iteration.
func (r *Registry) All() []InstalledRom {
	roms := r.load()

	out := make([]InstalledRom, 0, len(roms))
	for _, rom := range roms {
		out = append(out, rom)
	}

	slices.SortFunc(out, func(a, b InstalledRom) int {
		return cmp.Compare(a.RomID, b.RomID)
	})

	return out
}
