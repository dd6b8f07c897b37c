package sync

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// StateFileName is the persisted state document inside the state directory.
const StateFileName = "save_sync_state.json"

// stateFilePermissions: owner read/write; the file holds no secrets but
// also nothing other users need.
const stateFilePermissions = 0o644

// DefaultSettings returns the settings applied on first run and merged
// under any persisted values.
func DefaultSettings() Settings {
	return Settings{
		ConflictMode:          ModeNewestWins,
		SyncBeforeLaunch:      true,
		SyncAfterExit:         true,
		ClockSkewToleranceSec: 60,
	}
}

// NewState returns a fully populated default state.
func NewState() *State {
	return &State{
		Version:   stateVersion,
		Saves:     make(map[string]*RomSaveRecord),
		Playtime:  make(map[string]*PlaytimeRecord),
		Conflicts: NewConflictQueue(),
		Offline:   NewOfflineQueue(),
		Settings:  DefaultSettings(),
	}
}

// Store persists the State document with atomic write-temp-then-rename
// semantics. It is owned by a single Engine in a single process; it is not
// designed for concurrent multi-process writers.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a Store writing to StateFileName under stateDir.
func NewStore(stateDir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		path:   filepath.Join(stateDir, StateFileName),
		logger: logger,
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted state and merges it into a full default
// structure, so newly introduced settings keys are never missing. A
// missing or corrupt file silently yields defaults — state recovery must
// never block startup.
func (s *Store) Load() *State {
	state := NewState()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("state file unreadable, starting from defaults",
				slog.String("path", s.path),
				slog.String("error", err.Error()),
			)
		}

		return state
	}

	// Unmarshal over the defaults: keys absent from the file keep their
	// default values, which is the merge the state contract requires.
	if err := json.Unmarshal(raw, state); err != nil {
		s.logger.Warn("state file corrupt, starting from defaults",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)

		return NewState()
	}

	state.normalize()

	return state
}

// Save writes the state atomically: marshal, write to a temp file in the
// same directory, fsync, rename over the live file. A crash mid-write
// leaves the previous document intact.
func (s *Store) Save(state *State) error {
	encoded, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("sync: encoding state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("sync: creating state dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, StateFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("sync: creating temp state file: %w", err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return fmt.Errorf("sync: writing temp state file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return fmt.Errorf("sync: syncing temp state file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("sync: closing temp state file: %w", err)
	}

	if err := os.Chmod(tmpPath, stateFilePermissions); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("sync: setting state file mode: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("sync: replacing state file: %w", err)
	}

	return nil
}

// normalize repairs structures a partial or hand-edited document may have
// left nil, and clamps out-of-range settings.
func (st *State) normalize() {
	if st.Version == 0 {
		st.Version = stateVersion
	}

	if st.Saves == nil {
		st.Saves = make(map[string]*RomSaveRecord)
	}

	if st.Playtime == nil {
		st.Playtime = make(map[string]*PlaytimeRecord)
	}

	if st.Conflicts == nil {
		st.Conflicts = NewConflictQueue()
	}

	if st.Offline == nil {
		st.Offline = NewOfflineQueue()
	}

	if !validConflictModes[st.Settings.ConflictMode] {
		st.Settings.ConflictMode = ModeNewestWins
	}

	if st.Settings.ClockSkewToleranceSec < 0 {
		st.Settings.ClockSkewToleranceSec = 0
	}

	for _, rec := range st.Saves {
		if rec.Files == nil {
			rec.Files = make(map[string]FileSyncEntry)
		}
	}
}
