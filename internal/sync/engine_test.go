package sync

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romsync/romsync-go/internal/config"
	"github.com/romsync/romsync-go/internal/library"
)

// fakeServer is an in-memory SaveClient and NoteClient double.
type fakeServer struct {
	saves   map[int64][]library.Save // by rom id
	content map[int64][]byte         // by save id
	notes   map[int64]*library.Note  // by rom id

	nextSaveID int64
	nextNoteID int64

	uploadErr   error
	listErr     error
	downloadErr error
	noteErr     error

	uploads   int
	downloads int
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		saves:      make(map[int64][]library.Save),
		content:    make(map[int64][]byte),
		notes:      make(map[int64]*library.Note),
		nextSaveID: 100,
		nextNoteID: 500,
	}
}

// addSave seeds a server-side save record with content.
func (f *fakeServer) addSave(romID int64, filename string, content []byte, updated time.Time) library.Save {
	f.nextSaveID++

	save := library.Save{
		ID:          f.nextSaveID,
		RomID:       romID,
		FileName:    filename,
		ContentHash: hashBytes(content),
		UpdatedAt:   library.UTCTime{Time: updated},
		SizeBytes:   int64(len(content)),
	}

	f.saves[romID] = append(f.saves[romID], save)
	f.content[save.ID] = content

	return save
}

func (f *fakeServer) ListSaves(_ context.Context, romID int64) ([]library.Save, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	return f.saves[romID], nil
}

func (f *fakeServer) UploadSave(_ context.Context, romID int64, localPath, _, _ string, saveID int64) (*library.Save, error) {
	f.uploads++

	if f.uploadErr != nil {
		return nil, f.uploadErr
	}

	content, err := os.ReadFile(localPath)
	if err != nil {
		return nil, err
	}

	if saveID != 0 {
		for i := range f.saves[romID] {
			if f.saves[romID][i].ID == saveID {
				f.saves[romID][i].ContentHash = hashBytes(content)
				f.saves[romID][i].SizeBytes = int64(len(content))
				f.content[saveID] = content

				return &f.saves[romID][i], nil
			}
		}
	}

	save := f.addSave(romID, filepath.Base(localPath), content, time.Now().UTC())

	return &save, nil
}

func (f *fakeServer) DownloadSave(_ context.Context, saveID int64, w io.Writer, _ string) (int64, error) {
	f.downloads++

	if f.downloadErr != nil {
		return 0, f.downloadErr
	}

	content, ok := f.content[saveID]
	if !ok {
		return 0, &library.APIError{StatusCode: http.StatusNotFound, Err: library.ErrNotFound}
	}

	n, err := w.Write(content)

	return int64(n), err
}

func (f *fakeServer) GetNote(_ context.Context, romID int64, _ string) (*library.Note, error) {
	if f.noteErr != nil {
		return nil, f.noteErr
	}

	return f.notes[romID], nil
}

func (f *fakeServer) CreateNote(_ context.Context, romID int64, title, content string, tags []string) (*library.Note, error) {
	if f.noteErr != nil {
		return nil, f.noteErr
	}

	f.nextNoteID++
	note := &library.Note{ID: f.nextNoteID, RomID: romID, Title: title, Content: content, Tags: tags}
	f.notes[romID] = note

	return note, nil
}

func (f *fakeServer) UpdateNote(_ context.Context, romID, noteID int64, content string) (*library.Note, error) {
	if f.noteErr != nil {
		return nil, f.noteErr
	}

	note, ok := f.notes[romID]
	if !ok || note.ID != noteID {
		return nil, &library.APIError{StatusCode: http.StatusNotFound, Err: library.ErrNotFound}
	}

	note.Content = content

	return note, nil
}

// testEnv bundles an engine with its backing dirs and fake server.
type testEnv struct {
	engine   *Engine
	server   *fakeServer
	savesDir string // per-system dir for the seeded gbc entry
	stateDir string
}

// newTestEnv builds an engine over temp dirs with one installed entry:
// rom 7, "Zelda.gbc", system gbc.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	stateDir := t.TempDir()
	savesRoot := t.TempDir()

	roms := map[string]config.InstalledRom{
		"7": {RomID: 7, FileName: "Zelda.gbc", FilePath: "/roms/gbc/Zelda.gbc", System: "gbc"},
	}

	raw, err := json.Marshal(roms)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(stateDir, "installed_roms.json"), raw, 0o644))

	cfg := &config.Config{SavesRoot: savesRoot, StateDir: stateDir, Emulator: "retroarch"}
	registry := config.NewRegistry(stateDir)
	store := NewStore(stateDir, nil)
	server := newFakeServer()

	retrier := library.NewRetrier(nil)
	retrier.BaseDelay = 0

	engine := NewEngine(cfg, registry, store, server, server, retrier, nil, nil)

	return &testEnv{
		engine:   engine,
		server:   server,
		savesDir: filepath.Join(savesRoot, "gbc"),
		stateDir: stateDir,
	}
}

func (env *testEnv) writeSave(t *testing.T, name string, content []byte) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(env.savesDir, 0o755))

	path := filepath.Join(env.savesDir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	return path
}

func TestEnsureDeviceRegisteredIsIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	first, err := env.engine.EnsureDeviceRegistered()
	require.NoError(t, err)
	assert.NotEmpty(t, first.DeviceID)
	assert.NotEmpty(t, first.DeviceName)

	second, err := env.engine.EnsureDeviceRegistered()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Identity survives a reload.
	reloaded := NewStore(env.stateDir, nil).Load()
	assert.Equal(t, first.DeviceID, reloaded.DeviceID)
}

func TestSyncUploadsNewLocalSave(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSave(t, "Zelda.srm", []byte("local save"))

	result := env.engine.SyncRomSaves(context.Background(), 7)

	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 1, result.Synced)
	require.Len(t, env.server.saves[7], 1)
	assert.Equal(t, hashBytes([]byte("local save")), env.server.saves[7][0].ContentHash)

	// Snapshot recorded for future three-way compares.
	entry := env.engine.State().Saves["7"].Files["Zelda.srm"]
	assert.Equal(t, hashBytes([]byte("local save")), entry.LastSyncHash)
	assert.Equal(t, env.server.saves[7][0].ID, entry.LastSyncServerID)
}

func TestSyncDownloadsServerOnlySave(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.server.addSave(7, "Zelda.srm", []byte("server save"), time.Now().UTC())

	result := env.engine.SyncRomSaves(context.Background(), 7)

	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 1, result.Synced)

	got, err := os.ReadFile(filepath.Join(env.savesDir, "Zelda.srm"))
	require.NoError(t, err)
	assert.Equal(t, []byte("server save"), got)
}

func TestSyncSkipsUnchangedFile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSave(t, "Zelda.srm", []byte("stable"))

	require.True(t, env.engine.SyncRomSaves(context.Background(), 7).Success)

	uploadsAfterFirst := env.server.uploads

	result := env.engine.SyncRomSaves(context.Background(), 7)
	require.True(t, result.Success)
	assert.Equal(t, 0, result.Synced)
	assert.Equal(t, uploadsAfterFirst, env.server.uploads, "unchanged file must not re-upload")
}

func TestSyncUploadsLocalEdit(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSave(t, "Zelda.srm", []byte("version A"))
	require.True(t, env.engine.SyncRomSaves(context.Background(), 7).Success)

	env.writeSave(t, "Zelda.srm", []byte("version B"))

	result := env.engine.SyncRomSaves(context.Background(), 7)
	require.True(t, result.Success)
	assert.Equal(t, 1, result.Synced)
	assert.Equal(t, hashBytes([]byte("version B")), env.server.saves[7][0].ContentHash)
}

func TestSyncDownloadsServerEditAndBacksUpLocal(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSave(t, "Zelda.srm", []byte("version A"))
	require.True(t, env.engine.SyncRomSaves(context.Background(), 7).Success)

	// Another device pushed version C.
	saveID := env.server.saves[7][0].ID
	env.server.saves[7][0].ContentHash = hashBytes([]byte("version C"))
	env.server.saves[7][0].SizeBytes = int64(len("version C"))
	env.server.saves[7][0].UpdatedAt = library.UTCTime{Time: time.Now().UTC().Add(time.Minute)}
	env.server.content[saveID] = []byte("version C")

	result := env.engine.SyncRomSaves(context.Background(), 7)
	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 1, result.Synced)

	got, err := os.ReadFile(filepath.Join(env.savesDir, "Zelda.srm"))
	require.NoError(t, err)
	assert.Equal(t, []byte("version C"), got)

	// The overwritten local copy went to the backup folder first.
	backups, err := filepath.Glob(filepath.Join(env.savesDir, backupDirName, "*", "Zelda.srm"))
	require.NoError(t, err)
	require.Len(t, backups, 1)

	backedUp, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, []byte("version A"), backedUp)

	// No staging leftovers.
	partials, err := filepath.Glob(filepath.Join(env.savesDir, "*"+stagingSuffix))
	require.NoError(t, err)
	assert.Empty(t, partials)
}

func TestSyncBothChangedQueuesConflictUnderAskMe(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSave(t, "Zelda.srm", []byte("version A"))
	require.True(t, env.engine.SyncRomSaves(context.Background(), 7).Success)

	_, err := env.engine.UpdateSettings(SettingsPatch{ConflictMode: strPtr("ask_me")})
	require.NoError(t, err)

	// Both sides diverge.
	env.writeSave(t, "Zelda.srm", []byte("local edit"))

	saveID := env.server.saves[7][0].ID
	env.server.saves[7][0].ContentHash = hashBytes([]byte("remote edit"))
	env.server.content[saveID] = []byte("remote edit")

	result := env.engine.SyncRomSaves(context.Background(), 7)
	assert.Equal(t, 0, result.Synced)
	assert.Equal(t, 1, result.Conflicts)

	conflicts := env.engine.PendingConflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, int64(7), conflicts[0].RomID)
	assert.Equal(t, "Zelda.srm", conflicts[0].Filename)
	assert.Equal(t, saveID, conflicts[0].ServerSaveID)

	// Neither side was touched.
	got, err := os.ReadFile(filepath.Join(env.savesDir, "Zelda.srm"))
	require.NoError(t, err)
	assert.Equal(t, []byte("local edit"), got)
	assert.Equal(t, []byte("remote edit"), env.server.content[saveID])

	// A second pass replaces, not duplicates.
	env.engine.SyncRomSaves(context.Background(), 7)
	assert.Len(t, env.engine.PendingConflicts(), 1)
}

func TestSyncUploadVersionConflictBecomesPending(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSave(t, "Zelda.srm", []byte("local"))

	env.server.uploadErr = &library.APIError{StatusCode: http.StatusConflict, Err: library.ErrConflict}

	result := env.engine.SyncRomSaves(context.Background(), 7)

	assert.Empty(t, result.Errors, "a 409 is a conflict, not an error")
	assert.Equal(t, 1, result.Conflicts)
	assert.Equal(t, 1, env.server.uploads, "4xx must not be retried")
	assert.Len(t, env.engine.PendingConflicts(), 1)
	assert.Empty(t, env.engine.QueuedFailures())
}

func TestSyncTransientFailureLandsInOfflineQueue(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSave(t, "Zelda.srm", []byte("local"))

	env.server.uploadErr = &library.APIError{StatusCode: http.StatusBadGateway, Err: library.ErrServerError}

	result := env.engine.SyncRomSaves(context.Background(), 7)

	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, env.server.uploads, "transient failures retry to exhaustion")

	failures := env.engine.QueuedFailures()
	require.Len(t, failures, 1)
	assert.Equal(t, "Zelda.srm", failures[0].Filename)
	assert.Equal(t, DirectionUpload, failures[0].Direction)
	assert.Equal(t, 1, failures[0].RetryCount)

	// A second failing pass updates the entry instead of duplicating it.
	env.engine.SyncRomSaves(context.Background(), 7)

	failures = env.engine.QueuedFailures()
	require.Len(t, failures, 1)
	assert.Equal(t, 2, failures[0].RetryCount)
}

func TestRetryFailedSync(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSave(t, "Zelda.srm", []byte("local"))

	env.server.uploadErr = &library.APIError{StatusCode: http.StatusBadGateway, Err: library.ErrServerError}
	env.engine.SyncRomSaves(context.Background(), 7)
	require.Len(t, env.engine.QueuedFailures(), 1)

	// Server recovers; the retry succeeds and clears the queue.
	env.server.uploadErr = nil

	result := env.engine.RetryFailedSync(context.Background(), 7, "Zelda.srm")
	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 1, result.Synced)
	assert.Empty(t, env.engine.QueuedFailures())
}

func TestRetryFailedSyncUnknownKey(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	result := env.engine.RetryFailedSync(context.Background(), 7, "nope.srm")
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "no queued failure")
}

func TestResolveConflictUpload(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSave(t, "Zelda.srm", []byte("version A"))
	require.True(t, env.engine.SyncRomSaves(context.Background(), 7).Success)

	_, err := env.engine.UpdateSettings(SettingsPatch{ConflictMode: strPtr("ask_me")})
	require.NoError(t, err)

	env.writeSave(t, "Zelda.srm", []byte("local wins"))

	saveID := env.server.saves[7][0].ID
	env.server.saves[7][0].ContentHash = hashBytes([]byte("remote edit"))
	env.server.content[saveID] = []byte("remote edit")

	env.engine.SyncRomSaves(context.Background(), 7)
	require.Len(t, env.engine.PendingConflicts(), 1)

	require.NoError(t, env.engine.ResolveConflict(context.Background(), 7, "Zelda.srm", "upload"))

	assert.Empty(t, env.engine.PendingConflicts())
	assert.Equal(t, []byte("local wins"), env.server.content[saveID])

	// A follow-up pass sees both sides in agreement.
	result := env.engine.SyncRomSaves(context.Background(), 7)
	assert.Equal(t, 0, result.Synced)
	assert.Equal(t, 0, result.Conflicts)
}

func TestResolveConflictDownload(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSave(t, "Zelda.srm", []byte("version A"))
	require.True(t, env.engine.SyncRomSaves(context.Background(), 7).Success)

	_, err := env.engine.UpdateSettings(SettingsPatch{ConflictMode: strPtr("ask_me")})
	require.NoError(t, err)

	env.writeSave(t, "Zelda.srm", []byte("local edit"))

	saveID := env.server.saves[7][0].ID
	env.server.saves[7][0].ContentHash = hashBytes([]byte("server wins"))
	env.server.content[saveID] = []byte("server wins")

	env.engine.SyncRomSaves(context.Background(), 7)
	require.Len(t, env.engine.PendingConflicts(), 1)

	require.NoError(t, env.engine.ResolveConflict(context.Background(), 7, "Zelda.srm", "download"))

	got, err := os.ReadFile(filepath.Join(env.savesDir, "Zelda.srm"))
	require.NoError(t, err)
	assert.Equal(t, []byte("server wins"), got)
	assert.Empty(t, env.engine.PendingConflicts())

	// The clobbered local edit survived in a backup.
	backups, err := filepath.Glob(filepath.Join(env.savesDir, backupDirName, "*", "Zelda.srm"))
	require.NoError(t, err)
	assert.NotEmpty(t, backups)
}

func TestResolveConflictRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	err := env.engine.ResolveConflict(context.Background(), 7, "Zelda.srm", "ask")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid resolution")

	err = env.engine.ResolveConflict(context.Background(), 7, "Zelda.srm", "upload")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pending conflict")
}

func TestPreLaunchSyncHonorsToggleAndDirection(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSave(t, "Zelda.srm", []byte("local only"))
	env.server.addSave(7, "Zelda.rtc", []byte("server clock"), time.Now().UTC())

	result := env.engine.PreLaunchSync(context.Background(), 7)
	require.True(t, result.Success, "errors: %v", result.Errors)

	// Download direction: the server-only file arrived, the local-only file
	// was not pushed.
	_, err := os.Stat(filepath.Join(env.savesDir, "Zelda.rtc"))
	require.NoError(t, err)
	assert.Equal(t, 0, env.server.uploads)

	// Disabled toggle short-circuits.
	_, err = env.engine.UpdateSettings(SettingsPatch{SyncBeforeLaunch: boolPtr(false)})
	require.NoError(t, err)

	result = env.engine.PreLaunchSync(context.Background(), 7)
	assert.True(t, result.Success)
	assert.Contains(t, result.Message, "disabled")
	assert.Equal(t, 0, result.Synced)
}

func TestPreLaunchSyncQueuesConflictResolvedAgainstDirection(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSave(t, "Zelda.srm", []byte("version A"))
	require.True(t, env.engine.SyncRomSaves(context.Background(), 7).Success)

	_, err := env.engine.UpdateSettings(SettingsPatch{ConflictMode: strPtr("always_upload")})
	require.NoError(t, err)

	// Both sides diverge. Policy resolves to upload, but a pre-launch pass
	// is download-only, so the conflict must surface as pending.
	env.writeSave(t, "Zelda.srm", []byte("local edit"))

	saveID := env.server.saves[7][0].ID
	env.server.saves[7][0].ContentHash = hashBytes([]byte("remote edit"))
	env.server.content[saveID] = []byte("remote edit")

	result := env.engine.PreLaunchSync(context.Background(), 7)
	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 0, result.Synced)
	assert.Equal(t, 1, result.Conflicts)
	assert.Equal(t, 1, env.server.uploads, "only the initial sync uploaded")

	conflicts := env.engine.PendingConflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, int64(7), conflicts[0].RomID)
	assert.Equal(t, "Zelda.srm", conflicts[0].Filename)

	// Neither side was touched.
	got, err := os.ReadFile(filepath.Join(env.savesDir, "Zelda.srm"))
	require.NoError(t, err)
	assert.Equal(t, []byte("local edit"), got)
	assert.Equal(t, []byte("remote edit"), env.server.content[saveID])
}

func TestPreLaunchSyncNeverBlocksOnServerFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.server.listErr = &library.APIError{StatusCode: http.StatusServiceUnavailable, Err: library.ErrServerError}

	result := env.engine.PreLaunchSync(context.Background(), 7)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors, "failure is reported, not raised")
}

func TestPostExitSyncUploadsOnly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSave(t, "Zelda.srm", []byte("fresh progress"))
	env.server.addSave(7, "Zelda.rtc", []byte("server clock"), time.Now().UTC())

	result := env.engine.PostExitSync(context.Background(), 7)
	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 1, result.Synced)

	// Upload direction: the server-only file must not be downloaded.
	_, err := os.Stat(filepath.Join(env.savesDir, "Zelda.rtc"))
	assert.True(t, os.IsNotExist(err))
}

func TestSyncAllSaves(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSave(t, "Zelda.srm", []byte("progress"))

	result := env.engine.SyncAllSaves(context.Background())
	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 1, result.RomsChecked)
	assert.Equal(t, 1, result.Synced)
}

func TestSaveStatusReportsPerFileStanding(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSave(t, "Zelda.srm", []byte("synced"))
	require.True(t, env.engine.SyncRomSaves(context.Background(), 7).Success)

	env.writeSave(t, "Zelda.rtc", []byte("new local"))
	env.server.addSave(7, "Zelda.eep", []byte("new remote"), time.Now().UTC())

	status := env.engine.SaveStatus(context.Background(), 7)
	require.Empty(t, status.ServerError)

	byName := make(map[string]string, len(status.Files))
	for _, f := range status.Files {
		byName[f.Filename] = f.Status
	}

	assert.Equal(t, "synced", byName["Zelda.srm"])
	assert.Equal(t, "upload", byName["Zelda.rtc"])
	assert.Equal(t, "download", byName["Zelda.eep"])
}

func TestSaveStatusDegradesWhenServerUnavailable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeSave(t, "Zelda.srm", []byte("local"))
	env.server.listErr = &library.APIError{StatusCode: http.StatusServiceUnavailable, Err: library.ErrServerError}

	status := env.engine.SaveStatus(context.Background(), 7)
	assert.NotEmpty(t, status.ServerError)
	require.Len(t, status.Files, 1, "local view still reported")
	assert.Equal(t, "Zelda.srm", status.Files[0].Filename)
}

func TestUpdateSettingsPatchSemantics(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	settings, err := env.engine.UpdateSettings(SettingsPatch{
		ConflictMode:          strPtr("always_download"),
		ClockSkewToleranceSec: int64Ptr(-10),
	})
	require.NoError(t, err)

	assert.Equal(t, ModeAlwaysDownload, settings.ConflictMode)
	assert.EqualValues(t, 0, settings.ClockSkewToleranceSec, "negative skew clamps to zero")
	assert.True(t, settings.SyncBeforeLaunch, "untouched fields keep their values")

	// Unknown mode is ignored, everything else in the patch still applies.
	settings, err = env.engine.UpdateSettings(SettingsPatch{
		ConflictMode:  strPtr("coin_flip"),
		SyncAfterExit: boolPtr(false),
	})
	require.NoError(t, err)

	assert.Equal(t, ModeAlwaysDownload, settings.ConflictMode)
	assert.False(t, settings.SyncAfterExit)

	// Persisted: a fresh engine over the same store sees the update.
	reloaded := NewStore(env.stateDir, nil).Load()
	assert.Equal(t, ModeAlwaysDownload, reloaded.Settings.ConflictMode)
}

func TestSyncNotInstalledRomIsNoop(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	result := env.engine.SyncRomSaves(context.Background(), 999)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.Synced)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func int64Ptr(n int64) *int64 { return &n }

// hashBytes hashes content through the production hasher via a temp file.
func hashBytes(content []byte) string {
	f, err := os.CreateTemp("", "hashbytes-*")
	if err != nil {
		panic(err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(content); err != nil {
		panic(err)
	}

	f.Close()

	sum, err := FileHash(f.Name())
	if err != nil {
		panic(err)
	}

	return sum
}
