package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/text/unicode/norm"

	"github.com/romsync/romsync-go/internal/config"
)

// defaultDebounce batches the write bursts emulators produce when flushing
// a save so one sync covers them all.
const defaultDebounce = 3 * time.Second

// Watcher observes the saves tree and uploads changed saves shortly after
// an emulator writes them, without waiting for the next launch hook.
type Watcher struct {
	engine   *Engine
	cfg      *config.Config
	registry *config.Registry
	logger   *slog.Logger

	// Debounce is the quiet period after the last event before syncing.
	Debounce time.Duration
}

// NewWatcher creates a Watcher driving the given engine.
func NewWatcher(engine *Engine, cfg *config.Config, registry *config.Registry, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		engine:   engine,
		cfg:      cfg,
		registry: registry,
		logger:   logger,
		Debounce: defaultDebounce,
	}
}

// Run watches the saves root until the context is canceled. Each write or
// create event on a recognized save file schedules an upload-direction sync
// for the owning library entry after the debounce window.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("sync: creating filesystem watcher: %w", err)
	}
	defer fsw.Close()

	root := w.cfg.ResolveSavesRoot()
	if err := w.addTree(fsw, root); err != nil {
		return err
	}

	w.logger.Info("watching saves tree", slog.String("root", root))

	pending := make(map[int64]bool)

	timer := time.NewTimer(w.Debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}

			if event.Op&fsnotify.Create != 0 {
				// New system directories must be watched too.
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if addErr := fsw.Add(event.Name); addErr != nil {
						w.logger.Warn("watching new directory failed",
							slog.String("path", event.Name),
							slog.String("error", addErr.Error()),
						)
					}

					continue
				}
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			romID, ok := w.romForPath(event.Name)
			if !ok {
				continue
			}

			pending[romID] = true

			timer.Reset(w.Debounce)
		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn("filesystem watch error", slog.String("error", watchErr.Error()))
		case <-timer.C:
			for romID := range pending {
				result := w.engine.syncRom(ctx, romID, DirectionUpload)
				if !result.Success {
					w.logger.Warn("watch-triggered sync reported errors",
						slog.Int64("rom_id", romID),
						slog.Any("errors", result.Errors),
					)
				}
			}

			pending = make(map[int64]bool)
		}
	}
}

// addTree registers the root and its immediate system subdirectories.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	if err := fsw.Add(root); err != nil {
		return fmt.Errorf("sync: watching %s: %w", root, err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		// Root exists per the Add above; a read failure here is transient.
		return nil
	}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		dir := filepath.Join(root, entry.Name())
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("watching directory failed",
				slog.String("path", dir),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// romForPath maps a changed file back to the installed entry whose save it
// is, using the same stem and extension rules as discovery.
func (w *Watcher) romForPath(path string) (int64, bool) {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))

	if !primarySaveExts[ext] && !companionSaveExts[ext] {
		return 0, false
	}

	if strings.HasSuffix(name, stagingSuffix) {
		return 0, false
	}

	stem := norm.NFC.String(strings.TrimSuffix(name, filepath.Ext(name)))
	dir := filepath.Clean(filepath.Dir(path))

	for _, rom := range w.registry.All() {
		_, baseName, savesDir, ok := w.engine.discovery.RomSaveInfo(rom.RomID)
		if !ok {
			continue
		}

		if filepath.Clean(savesDir) != dir {
			continue
		}

		if norm.NFC.String(baseName) == stem {
			return rom.RomID, true
		}
	}

	return 0, false
}
