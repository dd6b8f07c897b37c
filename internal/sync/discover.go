package sync

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/romsync/romsync-go/internal/config"
)

// Recognized save file extensions. Primary extensions are the emulator
// save formats themselves; companion extensions ride alongside a primary
// save (a real-time-clock file next to an .srm, for example) and must move
// with it.
var (
	primarySaveExts = map[string]bool{
		".srm": true,
		".sav": true,
		".eep": true,
		".fla": true,
		".mpk": true,
		".mcr": true,
	}

	companionSaveExts = map[string]bool{
		".rtc": true,
	}
)

// SaveFile is one discovered on-disk save file belonging to a library entry.
type SaveFile struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// Discovery locates on-disk save files for installed library entries. The
// saves root is resolved through the configuration collaborator on every
// call so external edits apply immediately.
type Discovery struct {
	cfg      *config.Config
	registry *config.Registry
}

// NewDiscovery creates a Discovery over the given config and registry.
func NewDiscovery(cfg *config.Config, registry *config.Registry) *Discovery {
	return &Discovery{cfg: cfg, registry: registry}
}

// RomSaveInfo resolves the system slug, logical save base name, and saves
// directory for an installed entry. Returns ok=false when the entry is not
// installed or has no system.
func (d *Discovery) RomSaveInfo(romID int64) (system, baseName, savesDir string, ok bool) {
	rom, found := d.registry.Get(romID)
	if !found || rom.System == "" {
		return "", "", "", false
	}

	baseName = saveBaseName(rom)
	savesDir = filepath.Join(d.cfg.ResolveSavesRoot(), rom.System)

	return rom.System, baseName, savesDir, true
}

// Find returns the save files believed to belong to the entry. A file
// belongs if its stem matches the entry's logical base name and its
// extension is a recognized primary or companion save extension. Returns
// an empty set — never an error — when the entry is not installed, its
// system is empty, the saves directory is absent, or nothing matches.
func (d *Discovery) Find(romID int64) []SaveFile {
	_, baseName, savesDir, ok := d.RomSaveInfo(romID)
	if !ok {
		return nil
	}

	entries, err := os.ReadDir(savesDir)
	if err != nil {
		return nil
	}

	want := norm.NFC.String(baseName)

	var found []SaveFile

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))

		if !primarySaveExts[ext] && !companionSaveExts[ext] {
			continue
		}

		stem := strings.TrimSuffix(name, filepath.Ext(name))

		// NFC-normalize both sides: macOS and some emulators emit NFD
		// filenames that must still match the library's NFC metadata.
		if norm.NFC.String(stem) != want {
			continue
		}

		found = append(found, SaveFile{
			Filename: name,
			Path:     filepath.Join(savesDir, name),
		})
	}

	return found
}

// saveBaseName derives the logical save name for an entry. Multi-disc
// entries launch through a playlist descriptor (.m3u); emulators name the
// save after the playlist stem, not the archive, so we must too.
func saveBaseName(rom config.InstalledRom) string {
	launch := rom.FilePath

	if strings.EqualFold(filepath.Ext(launch), ".m3u") {
		return stemOf(filepath.Base(launch))
	}

	return stemOf(rom.FileName)
}

// stemOf strips the final extension from a file name.
func stemOf(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
