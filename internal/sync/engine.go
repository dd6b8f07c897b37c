package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/romsync/romsync-go/internal/config"
	"github.com/romsync/romsync-go/internal/library"
)

// Engine orchestrates the sync flows. It owns the in-memory State and its
// Store, and composes discovery, detection, resolution, transfer, retry,
// and the queues. Engines are single-goroutine; callers serialize access.
type Engine struct {
	cfg       *config.Config
	registry  *config.Registry
	discovery *Discovery
	store     *Store
	state     *State
	saves     SaveClient
	notes     NoteClient
	retrier   *library.Retrier
	history   *History
	logger    *slog.Logger

	// nowFunc is injectable for tests.
	nowFunc func() time.Time
}

// NewEngine assembles an Engine, loading persisted state immediately.
// history may be nil to disable the sync ledger.
func NewEngine(cfg *config.Config, registry *config.Registry, store *Store, saves SaveClient, notes NoteClient, retrier *library.Retrier, history *History, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	if retrier == nil {
		retrier = library.NewRetrier(logger)
	}

	return &Engine{
		cfg:       cfg,
		registry:  registry,
		discovery: NewDiscovery(cfg, registry),
		store:     store,
		state:     store.Load(),
		saves:     saves,
		notes:     notes,
		retrier:   retrier,
		history:   history,
		logger:    logger,
		nowFunc:   time.Now,
	}
}

// State exposes the live state for read-only inspection (status commands).
func (e *Engine) State() *State {
	return e.state
}

// persist writes the current state through the store.
func (e *Engine) persist() error {
	return e.store.Save(e.state)
}

// EnsureDeviceRegistered lazily generates and persists this installation's
// device identity. Idempotent: an existing identity is returned unchanged.
func (e *Engine) EnsureDeviceRegistered() (DeviceIdentity, error) {
	if e.state.DeviceID != "" {
		return DeviceIdentity{DeviceID: e.state.DeviceID, DeviceName: e.state.DeviceName}, nil
	}

	e.state.DeviceID = uuid.NewString()

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown-device"
	}

	e.state.DeviceName = hostname

	if err := e.persist(); err != nil {
		return DeviceIdentity{}, fmt.Errorf("sync: persisting device identity: %w", err)
	}

	e.logger.Info("registered device identity",
		slog.String("device_id", e.state.DeviceID),
		slog.String("device_name", e.state.DeviceName),
	)

	return DeviceIdentity{DeviceID: e.state.DeviceID, DeviceName: e.state.DeviceName}, nil
}

// PreLaunchSync pulls remote changes for one entry before the emulator
// starts. It never blocks a launch: any failure lands in the result's error
// list and the game starts with whatever is on disk.
func (e *Engine) PreLaunchSync(ctx context.Context, romID int64) Result {
	if !e.state.Settings.SyncBeforeLaunch {
		return Result{Success: true, Message: "sync before launch is disabled"}
	}

	return e.syncRom(ctx, romID, DirectionDownload)
}

// PostExitSync pushes local changes for one entry after the emulator exits.
func (e *Engine) PostExitSync(ctx context.Context, romID int64) Result {
	if !e.state.Settings.SyncAfterExit {
		return Result{Success: true, Message: "sync after exit is disabled"}
	}

	return e.syncRom(ctx, romID, DirectionUpload)
}

// SyncRomSaves runs a full bidirectional pass for one entry.
func (e *Engine) SyncRomSaves(ctx context.Context, romID int64) Result {
	return e.syncRom(ctx, romID, DirectionBoth)
}

// SyncAllSaves runs a bidirectional pass over every installed entry.
// Entries are processed sequentially; one entry's errors are collected and
// the pass continues.
func (e *Engine) SyncAllSaves(ctx context.Context) Result {
	roms := e.registry.All()

	result := Result{Success: true, RomsChecked: len(roms)}

	for _, rom := range roms {
		if ctx.Err() != nil {
			result.Success = false
			result.Errors = append(result.Errors, ctx.Err().Error())

			break
		}

		romResult := e.syncRom(ctx, rom.RomID, DirectionBoth)
		result.Synced += romResult.Synced
		result.Errors = append(result.Errors, romResult.Errors...)
	}

	result.Conflicts = e.state.Conflicts.Len()

	if len(result.Errors) > 0 {
		result.Success = false
	}

	return result
}

// syncRom pairs the entry's local files with the server's save records by
// filename and processes each pair under the direction filter.
func (e *Engine) syncRom(ctx context.Context, romID int64, direction Direction) Result {
	if _, err := e.EnsureDeviceRegistered(); err != nil {
		return Result{Errors: []string{err.Error()}}
	}

	rom, installed := e.registry.Get(romID)
	if !installed {
		e.logger.Debug("entry not installed, nothing to sync", slog.Int64("rom_id", romID))
		return Result{Success: true, Message: "not installed"}
	}

	localFiles := e.discovery.Find(romID)

	var serverSaves []library.Save

	err := e.retrier.Do(ctx, "list saves", func() error {
		saves, listErr := e.saves.ListSaves(ctx, romID)
		if listErr != nil {
			return listErr
		}

		serverSaves = saves

		return nil
	})
	if err != nil {
		e.logger.Warn("server save list unavailable",
			slog.Int64("rom_id", romID),
			slog.String("error", err.Error()),
		)

		return Result{Errors: []string{fmt.Sprintf("listing saves for rom %d: %v", romID, err)}}
	}

	serverByName := make(map[string]*library.Save, len(serverSaves))
	for i := range serverSaves {
		serverByName[serverSaves[i].FileName] = &serverSaves[i]
	}

	result := Result{Success: true}

	seen := make(map[string]bool, len(localFiles))

	for _, f := range localFiles {
		seen[f.Filename] = true
		e.syncFile(ctx, rom, romID, f.Filename, f.Path, serverByName[f.Filename], direction, &result)
	}

	// Server-only files: present remotely, never seen locally.
	_, _, savesDir, _ := e.discovery.RomSaveInfo(romID)

	for i := range serverSaves {
		name := serverSaves[i].FileName
		if seen[name] || name == "" {
			continue
		}

		e.syncFile(ctx, rom, romID, name, filepath.Join(savesDir, name), &serverSaves[i], direction, &result)
	}

	if len(result.Errors) > 0 {
		result.Success = false
	}

	result.Conflicts = e.state.Conflicts.Len()

	if err := e.persist(); err != nil {
		e.logger.Error("persisting sync state failed", slog.String("error", err.Error()))
	}

	return result
}

// syncFile runs detection and the resulting transfer for one filename.
// localPath is where the file is, or would be, on disk; the file itself may
// not exist for a server-only save.
func (e *Engine) syncFile(ctx context.Context, rom config.InstalledRom, romID int64, filename, localPath string, server *library.Save, direction Direction, result *Result) {
	localHash := ""

	if _, statErr := os.Stat(localPath); statErr == nil {
		hash, hashErr := FileHash(localPath)
		if hashErr != nil {
			// Cannot establish what the local content is; transferring in
			// either direction would be a guess.
			result.Errors = append(result.Errors, hashErr.Error())
			return
		}

		localHash = hash
	}

	var snapshot *FileSyncEntry

	if rec, ok := e.state.Saves[romKey(romID)]; ok {
		if entry, ok := rec.Files[filename]; ok {
			snapshot = &entry
		}
	}

	decision := Detect(localHash, snapshot, server)

	if decision == DecisionConflict {
		resolution := Resolve(e.state.Settings, localMtime(localPath), server)

		switch resolution {
		case ResolutionUpload:
			decision = DecisionUpload
		case ResolutionDownload:
			decision = DecisionDownload
		default:
			e.queueConflict(romID, filename, localPath, localHash, server)
			return
		}

		// A resolved transfer this pass may not perform stays visible as a
		// pending conflict instead of vanishing until the next full sync.
		if (decision == DecisionUpload && direction == DirectionDownload) ||
			(decision == DecisionDownload && direction == DirectionUpload) {
			e.queueConflict(romID, filename, localPath, localHash, server)
			return
		}
	}

	switch decision {
	case DecisionSkip:
		return
	case DecisionUpload:
		if direction == DirectionDownload {
			return
		}

		e.uploadFile(ctx, rom, romID, filename, localPath, localHash, server, result)
	case DecisionDownload:
		if direction == DirectionUpload {
			return
		}

		e.downloadFile(ctx, rom, romID, filename, localPath, server, result)
	}
}

// uploadFile pushes the local file and records the new snapshot. A version
// conflict from the server (another device won the race) becomes a pending
// conflict instead of an error; transient failures exhaust retries and land
// in the offline queue.
func (e *Engine) uploadFile(ctx context.Context, rom config.InstalledRom, romID int64, filename, localPath, localHash string, server *library.Save, result *Result) {
	var saveID int64
	if server != nil {
		saveID = server.ID
	}

	var uploaded *library.Save

	err := e.retrier.Do(ctx, "upload save", func() error {
		s, upErr := e.saves.UploadSave(ctx, romID, localPath, e.emulatorFor(rom), e.state.DeviceID, saveID)
		if upErr != nil {
			return upErr
		}

		uploaded = s

		return nil
	})

	if errors.Is(err, library.ErrConflict) {
		// The server's copy moved underneath us. Force a human decision
		// rather than retrying a push that would clobber it.
		e.logger.Warn("upload rejected with version conflict",
			slog.Int64("rom_id", romID),
			slog.String("filename", filename),
		)
		e.queueConflict(romID, filename, localPath, localHash, server)

		return
	}

	if err != nil {
		msg := fmt.Sprintf("uploading %s for rom %d: %v", filename, romID, err)
		result.Errors = append(result.Errors, msg)
		e.state.Offline.Add(romID, filename, DirectionUpload, err.Error())
		e.recordHistory(romID, filename, "upload", 0, err.Error())

		return
	}

	var serverID int64
	if uploaded != nil {
		serverID = uploaded.ID
	}

	e.setSnapshot(rom, romID, filename, localHash, serverID)
	e.state.Offline.Remove(romID, filename)
	result.Synced++
	e.recordHistory(romID, filename, "upload", fileSize(localPath), "")

	e.logger.Info("uploaded save",
		slog.Int64("rom_id", romID),
		slog.String("filename", filename),
	)
}

// downloadFile fetches the server's copy over the local path, with staging,
// size verification, and pre-overwrite backup handled by downloadSave.
func (e *Engine) downloadFile(ctx context.Context, rom config.InstalledRom, romID int64, filename, localPath string, server *library.Save, result *Result) {
	if server == nil {
		return
	}

	if err := e.downloadSave(ctx, server.ID, localPath, server.SizeBytes); err != nil {
		msg := fmt.Sprintf("downloading %s for rom %d: %v", filename, romID, err)
		result.Errors = append(result.Errors, msg)
		e.state.Offline.Add(romID, filename, DirectionDownload, err.Error())
		e.recordHistory(romID, filename, "download", 0, err.Error())

		return
	}

	hash, hashErr := FileHash(localPath)
	if hashErr != nil {
		result.Errors = append(result.Errors, hashErr.Error())
		return
	}

	e.setSnapshot(rom, romID, filename, hash, server.ID)
	e.state.Offline.Remove(romID, filename)
	result.Synced++
	e.recordHistory(romID, filename, "download", fileSize(localPath), "")

	e.logger.Info("downloaded save",
		slog.Int64("rom_id", romID),
		slog.String("filename", filename),
	)
}

// queueConflict records a pending conflict for later user resolution.
// Re-detection on a later pass replaces the entry rather than duplicating.
func (e *Engine) queueConflict(romID int64, filename, localPath, localHash string, server *library.Save) {
	c := Conflict{
		RomID:     romID,
		Filename:  filename,
		LocalPath: localPath,
		LocalHash: localHash,
		CreatedAt: e.nowFunc().UTC(),
	}

	if server != nil {
		c.ServerSaveID = server.ID
		c.ServerHash = server.ContentHash
	}

	e.state.Conflicts.Add(c)
	e.recordHistory(romID, filename, "conflict", 0, "")

	e.logger.Info("conflict queued for resolution",
		slog.Int64("rom_id", romID),
		slog.String("filename", filename),
	)
}

// setSnapshot records a successful transfer as the new last-sync snapshot.
func (e *Engine) setSnapshot(rom config.InstalledRom, romID int64, filename, hash string, serverID int64) {
	key := romKey(romID)

	rec, ok := e.state.Saves[key]
	if !ok {
		rec = &RomSaveRecord{
			Emulator: e.emulatorFor(rom),
			System:   rom.System,
			Files:    make(map[string]FileSyncEntry),
		}
		e.state.Saves[key] = rec
	}

	rec.Files[filename] = FileSyncEntry{
		LastSyncHash:     hash,
		LastSyncAt:       e.nowFunc().UTC(),
		LastSyncServerID: serverID,
	}
}

// emulatorFor picks the emulator label reported with uploads.
func (e *Engine) emulatorFor(rom config.InstalledRom) string {
	if e.cfg.Emulator != "" {
		return e.cfg.Emulator
	}

	return rom.System
}

// SaveStatus reports per-file sync standing for one entry without
// transferring anything. A server failure is reported in the result while
// local information is still returned.
func (e *Engine) SaveStatus(ctx context.Context, romID int64) SaveStatus {
	status := SaveStatus{RomID: romID}

	localFiles := e.discovery.Find(romID)

	var serverSaves []library.Save

	err := e.retrier.Do(ctx, "list saves", func() error {
		saves, listErr := e.saves.ListSaves(ctx, romID)
		if listErr != nil {
			return listErr
		}

		serverSaves = saves

		return nil
	})
	if err != nil {
		status.ServerError = err.Error()
	}

	serverByName := make(map[string]*library.Save, len(serverSaves))
	for i := range serverSaves {
		serverByName[serverSaves[i].FileName] = &serverSaves[i]
	}

	seen := make(map[string]bool, len(localFiles))

	appendStatus := func(filename, localHash string, server *library.Save) {
		var snapshot *FileSyncEntry

		if rec, ok := e.state.Saves[romKey(romID)]; ok {
			if entry, ok := rec.Files[filename]; ok {
				snapshot = &entry
			}
		}

		fs := FileStatus{
			Filename:  filename,
			LocalHash: localHash,
			Status:    statusLabel(Detect(localHash, snapshot, server)),
		}

		if server != nil {
			fs.ServerSaveID = server.ID
			fs.ServerHash = server.ContentHash
		}

		status.Files = append(status.Files, fs)
	}

	for _, f := range localFiles {
		seen[f.Filename] = true

		hash, hashErr := FileHash(f.Path)
		if hashErr != nil {
			status.Files = append(status.Files, FileStatus{Filename: f.Filename, Status: "error"})
			continue
		}

		appendStatus(f.Filename, hash, serverByName[f.Filename])
	}

	for i := range serverSaves {
		name := serverSaves[i].FileName
		if seen[name] || name == "" {
			continue
		}

		appendStatus(name, "", &serverSaves[i])
	}

	return status
}

// statusLabel maps a detection decision to the status string reported to
// users.
func statusLabel(d Decision) string {
	switch d {
	case DecisionSkip:
		return "synced"
	case DecisionUpload:
		return "upload"
	case DecisionDownload:
		return "download"
	case DecisionConflict:
		return "conflict"
	}

	return string(d)
}

// Settings returns the current sync settings.
func (e *Engine) Settings() Settings {
	return e.state.Settings
}

// UpdateSettings applies a partial settings update and persists. Invalid
// conflict modes are ignored; a negative skew tolerance clamps to zero.
func (e *Engine) UpdateSettings(patch SettingsPatch) (Settings, error) {
	if patch.ConflictMode != nil {
		mode := ConflictMode(*patch.ConflictMode)
		if validConflictModes[mode] {
			e.state.Settings.ConflictMode = mode
		} else {
			e.logger.Warn("ignoring unknown conflict mode", slog.String("mode", *patch.ConflictMode))
		}
	}

	if patch.SyncBeforeLaunch != nil {
		e.state.Settings.SyncBeforeLaunch = *patch.SyncBeforeLaunch
	}

	if patch.SyncAfterExit != nil {
		e.state.Settings.SyncAfterExit = *patch.SyncAfterExit
	}

	if patch.ClockSkewToleranceSec != nil {
		tolerance := *patch.ClockSkewToleranceSec
		if tolerance < 0 {
			tolerance = 0
		}

		e.state.Settings.ClockSkewToleranceSec = tolerance
	}

	if err := e.persist(); err != nil {
		return e.state.Settings, err
	}

	return e.state.Settings, nil
}

// PendingConflicts returns queued conflicts in insertion order.
func (e *Engine) PendingConflicts() []Conflict {
	return e.state.Conflicts.Items()
}

// ResolveConflict applies a user verdict to one queued conflict. resolution
// must be "upload" or "download"; anything else, including "ask", is
// rejected. The conflict is removed only after the transfer succeeds.
func (e *Engine) ResolveConflict(ctx context.Context, romID int64, filename, resolution string) error {
	if resolution != string(ResolutionUpload) && resolution != string(ResolutionDownload) {
		return fmt.Errorf("sync: invalid resolution %q, want upload or download", resolution)
	}

	conflict, ok := e.state.Conflicts.Get(romID, filename)
	if !ok {
		return fmt.Errorf("sync: no pending conflict for rom %d file %s", romID, filename)
	}

	rom, installed := e.registry.Get(romID)
	if !installed {
		return fmt.Errorf("sync: rom %d is no longer installed", romID)
	}

	switch Resolution(resolution) {
	case ResolutionUpload:
		var uploaded *library.Save

		err := e.retrier.Do(ctx, "upload save", func() error {
			s, upErr := e.saves.UploadSave(ctx, romID, conflict.LocalPath, e.emulatorFor(rom), e.state.DeviceID, conflict.ServerSaveID)
			if upErr != nil {
				return upErr
			}

			uploaded = s

			return nil
		})
		if err != nil {
			return fmt.Errorf("sync: resolving conflict by upload: %w", err)
		}

		hash, hashErr := FileHash(conflict.LocalPath)
		if hashErr != nil {
			return hashErr
		}

		var serverID int64
		if uploaded != nil {
			serverID = uploaded.ID
		}

		e.setSnapshot(rom, romID, filename, hash, serverID)
		e.recordHistory(romID, filename, "upload", fileSize(conflict.LocalPath), "")
	case ResolutionDownload:
		if err := e.downloadSave(ctx, conflict.ServerSaveID, conflict.LocalPath, 0); err != nil {
			return fmt.Errorf("sync: resolving conflict by download: %w", err)
		}

		hash, hashErr := FileHash(conflict.LocalPath)
		if hashErr != nil {
			return hashErr
		}

		e.setSnapshot(rom, romID, filename, hash, conflict.ServerSaveID)
		e.recordHistory(romID, filename, "download", fileSize(conflict.LocalPath), "")
	}

	e.state.Conflicts.Remove(romID, filename)

	if err := e.persist(); err != nil {
		return err
	}

	e.logger.Info("conflict resolved",
		slog.Int64("rom_id", romID),
		slog.String("filename", filename),
		slog.String("resolution", resolution),
	)

	return nil
}

// QueuedFailures returns the offline queue in insertion order.
func (e *Engine) QueuedFailures() []QueuedFailure {
	return e.state.Offline.Items()
}

// ClearOfflineQueue drops all queued failures and persists.
func (e *Engine) ClearOfflineQueue() error {
	e.state.Offline.Clear()
	return e.persist()
}

// RetryFailedSync re-runs the sync for one queued failure. The entry is
// removed first; a repeat failure re-inserts it fresh through the normal
// queueing path with its retry count reset.
func (e *Engine) RetryFailedSync(ctx context.Context, romID int64, filename string) Result {
	entry, ok := e.state.Offline.Get(romID, filename)
	if !ok {
		return Result{Message: fmt.Sprintf("no queued failure for rom %d file %s", romID, filename)}
	}

	e.state.Offline.Remove(romID, filename)

	rom, installed := e.registry.Get(romID)
	if !installed {
		if err := e.persist(); err != nil {
			e.logger.Error("persisting sync state failed", slog.String("error", err.Error()))
		}

		return Result{Message: fmt.Sprintf("rom %d is no longer installed", romID)}
	}

	var serverSaves []library.Save

	err := e.retrier.Do(ctx, "list saves", func() error {
		saves, listErr := e.saves.ListSaves(ctx, romID)
		if listErr != nil {
			return listErr
		}

		serverSaves = saves

		return nil
	})
	if err != nil {
		e.state.Offline.Add(romID, filename, entry.Direction, err.Error())

		if persistErr := e.persist(); persistErr != nil {
			e.logger.Error("persisting sync state failed", slog.String("error", persistErr.Error()))
		}

		return Result{Errors: []string{fmt.Sprintf("listing saves for rom %d: %v", romID, err)}}
	}

	var server *library.Save

	for i := range serverSaves {
		if serverSaves[i].FileName == filename {
			server = &serverSaves[i]
			break
		}
	}

	localPath := e.localPathFor(romID, filename)

	result := Result{Success: true}
	e.syncFile(ctx, rom, romID, filename, localPath, server, entry.Direction, &result)

	if len(result.Errors) > 0 {
		result.Success = false
	}

	result.Conflicts = e.state.Conflicts.Len()

	if err := e.persist(); err != nil {
		e.logger.Error("persisting sync state failed", slog.String("error", err.Error()))
	}

	return result
}

// localPathFor resolves where a filename lives, or would live, on disk.
func (e *Engine) localPathFor(romID int64, filename string) string {
	for _, f := range e.discovery.Find(romID) {
		if f.Filename == filename {
			return f.Path
		}
	}

	_, _, savesDir, ok := e.discovery.RomSaveInfo(romID)
	if !ok {
		return filename
	}

	return filepath.Join(savesDir, filename)
}

// recordHistory appends a ledger row when the history store is enabled.
// Ledger failures are logged, never propagated.
func (e *Engine) recordHistory(romID int64, filename, action string, sizeBytes int64, errMsg string) {
	if e.history == nil {
		return
	}

	if err := e.history.Record(romID, filename, action, sizeBytes, errMsg); err != nil {
		e.logger.Warn("recording sync history failed", slog.String("error", err.Error()))
	}
}

// localMtime returns the file's modification time, or the zero time when
// the file cannot be stated.
func localMtime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}

	return info.ModTime()
}

// fileSize returns the file's size in bytes, or zero when unknown.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}

	return info.Size()
}
