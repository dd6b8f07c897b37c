package sync

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // cgo-free sqlite driver
)

// HistoryFileName is the sync ledger database inside the state directory.
const HistoryFileName = "sync_history.db"

// HistoryEntry is one recorded sync action.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	RomID      int64     `json:"rom_id"`
	Filename   string    `json:"filename"`
	Action     string    `json:"action"`
	SizeBytes  int64     `json:"size_bytes"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// History is an append-only ledger of sync actions backed by sqlite. It is
// purely diagnostic: the engine treats it as best effort and keeps working
// when it is unavailable.
type History struct {
	db      *sql.DB
	logger  *slog.Logger
	nowFunc func() time.Time
}

// OpenHistory opens or creates the ledger database under stateDir and runs
// pending migrations.
func OpenHistory(stateDir string, logger *slog.Logger) (*History, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("sync: creating state dir %s: %w", stateDir, err)
	}

	path := filepath.Join(stateDir, HistoryFileName)

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sync: opening history db %s: %w", path, err)
	}

	// sqlite tolerates exactly one writer.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &History{db: db, logger: logger, nowFunc: time.Now}, nil
}

// Close releases the database handle.
func (h *History) Close() error {
	return h.db.Close()
}

// Record appends one ledger row.
func (h *History) Record(romID int64, filename, action string, sizeBytes int64, errMsg string) error {
	_, err := h.db.Exec(
		`INSERT INTO history (rom_id, filename, action, size_bytes, error, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		romID, filename, action, sizeBytes, errMsg,
		h.nowFunc().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("sync: recording history row: %w", err)
	}

	return nil
}

// Recent returns the newest rows, most recent first. romID 0 means all
// entries.
func (h *History) Recent(romID int64, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, rom_id, filename, action, size_bytes, error, occurred_at
	          FROM history`

	args := []any{}

	if romID != 0 {
		query += ` WHERE rom_id = ?`

		args = append(args, romID)
	}

	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("sync: querying history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry

	for rows.Next() {
		var entry HistoryEntry

		var occurredAt string

		if err := rows.Scan(&entry.ID, &entry.RomID, &entry.Filename, &entry.Action, &entry.SizeBytes, &entry.Error, &occurredAt); err != nil {
			return nil, fmt.Errorf("sync: scanning history row: %w", err)
		}

		if ts, parseErr := time.Parse(time.RFC3339, occurredAt); parseErr == nil {
			entry.OccurredAt = ts
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sync: reading history rows: %w", err)
	}

	return entries, nil
}
