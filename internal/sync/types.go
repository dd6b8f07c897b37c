// Package sync implements the bidirectional save-game synchronization
// engine: state persistence, save discovery, three-way conflict detection,
// resolution policy, retry-backed transfers, the offline and pending-conflict
// queues, playtime merging, and the orchestration flows that compose them.
package sync

import (
	"context"
	"io"
	"time"

	"github.com/romsync/romsync-go/internal/library"
)

// stateVersion is the current schema version of the persisted state file.
const stateVersion = 1

// Decision is the outcome of the three-way comparison for one file.
type Decision string

// Decisions produced by Detect.
const (
	DecisionSkip     Decision = "skip"
	DecisionUpload   Decision = "upload"
	DecisionDownload Decision = "download"
	DecisionConflict Decision = "conflict"
)

// Resolution is a policy or user verdict on a detected conflict.
type Resolution string

// Resolutions produced by Resolve or supplied by the user.
const (
	ResolutionUpload   Resolution = "upload"
	ResolutionDownload Resolution = "download"
	ResolutionAsk      Resolution = "ask"
)

// ConflictMode selects how detected conflicts are resolved.
type ConflictMode string

// Conflict modes as stored in settings.conflict_mode.
const (
	ModeNewestWins     ConflictMode = "newest_wins"
	ModeAlwaysUpload   ConflictMode = "always_upload"
	ModeAlwaysDownload ConflictMode = "always_download"
	ModeAskMe          ConflictMode = "ask_me"
)

// validConflictModes guards settings updates: unknown modes are ignored.
var validConflictModes = map[ConflictMode]bool{
	ModeNewestWins:     true,
	ModeAlwaysUpload:   true,
	ModeAlwaysDownload: true,
	ModeAskMe:          true,
}

// Direction restricts which transfers a sync pass may perform.
type Direction string

// Sync directions.
const (
	DirectionBoth     Direction = "both"
	DirectionUpload   Direction = "upload"
	DirectionDownload Direction = "download"
)

// FileSyncEntry is the per-file snapshot recorded at the last successful
// sync. Its hash is the common-ancestor term of the three-way comparison.
type FileSyncEntry struct {
	LastSyncHash     string    `json:"last_sync_hash"`
	LastSyncAt       time.Time `json:"last_sync_at"`
	LastSyncServerID int64     `json:"last_sync_server_save_id,omitempty"`
}

// RomSaveRecord groups the per-file snapshots of one library entry.
type RomSaveRecord struct {
	Emulator string                   `json:"emulator"`
	System   string                   `json:"system"`
	Files    map[string]FileSyncEntry `json:"files"`
}

// Conflict is a file whose local and remote copies both changed since the
// snapshot. {RomID, Filename} is the identity key: re-adding replaces,
// never duplicates.
type Conflict struct {
	RomID        int64     `json:"rom_id"`
	Filename     string    `json:"filename"`
	LocalPath    string    `json:"local_path"`
	LocalHash    string    `json:"local_hash"`
	ServerSaveID int64     `json:"server_save_id"`
	ServerHash   string    `json:"server_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// QueuedFailure is a durable record of a failed sync operation awaiting
// manual retry. {RomID, Filename} is the identity key: re-adding replaces
// the error text and increments RetryCount.
type QueuedFailure struct {
	RomID      int64     `json:"rom_id"`
	Filename   string    `json:"filename"`
	Direction  Direction `json:"direction"`
	Error      string    `json:"error"`
	RetryCount int       `json:"retry_count"`
	QueuedAt   time.Time `json:"queued_at"`
}

// PlaytimeRecord accumulates play time for one library entry on this
// device. TotalSeconds never decreases locally; merges only raise it.
type PlaytimeRecord struct {
	TotalSeconds       int64      `json:"total_seconds"`
	SessionCount       int64      `json:"session_count"`
	LastSessionStart   *time.Time `json:"last_session_start"`
	LastSessionSeconds int64      `json:"last_session_duration_sec"`
	// OfflineDeltas is reserved for future per-session delta queuing.
	OfflineDeltas []int64 `json:"offline_deltas"`
}

// Settings configures sync behavior. Loading merges the persisted values
// into a full default structure so newly introduced keys are never missing.
type Settings struct {
	ConflictMode          ConflictMode `json:"conflict_mode"`
	SyncBeforeLaunch      bool         `json:"sync_before_launch"`
	SyncAfterExit         bool         `json:"sync_after_exit"`
	ClockSkewToleranceSec int64        `json:"clock_skew_tolerance_sec"`
}

// SettingsPatch updates a subset of Settings. Nil fields are left
// untouched; invalid conflict modes are silently ignored; a negative skew
// tolerance clamps to zero.
type SettingsPatch struct {
	ConflictMode          *string `json:"conflict_mode,omitempty"`
	SyncBeforeLaunch      *bool   `json:"sync_before_launch,omitempty"`
	SyncAfterExit         *bool   `json:"sync_after_exit,omitempty"`
	ClockSkewToleranceSec *int64  `json:"clock_skew_tolerance_sec,omitempty"`
}

// State is the whole persisted synchronization state for this device
// installation. This engine is its sole writer.
type State struct {
	Version    int                        `json:"version"`
	DeviceID   string                     `json:"device_id"`
	DeviceName string                     `json:"device_name"`
	Saves      map[string]*RomSaveRecord  `json:"saves"`
	Playtime   map[string]*PlaytimeRecord `json:"playtime"`
	Conflicts  *ConflictQueue             `json:"pending_conflicts"`
	Offline    *OfflineQueue              `json:"offline_queue"`
	Settings   Settings                   `json:"settings"`
}

// Result is the structured outcome of a sync flow. Public operations
// report errors here instead of failing, so one ROM's trouble never aborts
// a whole-library pass.
type Result struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message,omitempty"`
	RomsChecked int      `json:"roms_checked,omitempty"`
	Synced      int      `json:"synced"`
	Errors      []string `json:"errors,omitempty"`
	Conflicts   int      `json:"conflicts"`
}

// FileStatus describes one file in a save-status report.
type FileStatus struct {
	Filename     string `json:"filename"`
	LocalHash    string `json:"local_hash,omitempty"`
	ServerSaveID int64  `json:"server_save_id,omitempty"`
	ServerHash   string `json:"server_hash,omitempty"`
	Status       string `json:"status"`
}

// SaveStatus is the per-ROM status report returned by SaveStatus.
type SaveStatus struct {
	RomID int64        `json:"rom_id"`
	Files []FileStatus `json:"files"`
	// ServerError carries a fetch failure; local information is still
	// reported when the server is unreachable.
	ServerError string `json:"server_error,omitempty"`
}

// PlaytimeReport is returned by ServerPlaytime.
type PlaytimeReport struct {
	LocalSeconds  int64 `json:"local_seconds"`
	ServerSeconds int64 `json:"server_seconds"`
	TotalSeconds  int64 `json:"total_seconds"`
}

// SessionResult is returned by session start/end operations.
type SessionResult struct {
	Success      bool  `json:"success"`
	DurationSec  int64 `json:"duration_sec,omitempty"`
	TotalSeconds int64 `json:"total_seconds,omitempty"`
	SessionCount int64 `json:"session_count,omitempty"`
}

// DeviceIdentity is the persisted identity distinguishing this device.
type DeviceIdentity struct {
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
}

// --- Consumer-defined interfaces for the library client ---
// These decouple the engine from library's concrete client, following the
// "accept interfaces, return structs" convention; tests supply fakes.

// SaveClient performs save operations against the remote library server.
type SaveClient interface {
	ListSaves(ctx context.Context, romID int64) ([]library.Save, error)
	UploadSave(ctx context.Context, romID int64, localPath, emulator, deviceID string, saveID int64) (*library.Save, error)
	DownloadSave(ctx context.Context, saveID int64, w io.Writer, deviceID string) (int64, error)
}

// NoteClient accesses the metadata note sub-resource used for playtime.
type NoteClient interface {
	GetNote(ctx context.Context, romID int64, tag string) (*library.Note, error)
	CreateNote(ctx context.Context, romID int64, title, content string, tags []string) (*library.Note, error)
	UpdateNote(ctx context.Context, romID, noteID int64, content string) (*library.Note, error)
}
