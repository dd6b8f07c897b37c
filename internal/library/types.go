package library

import (
	"encoding/json"
	"fmt"
	"time"
)

// Save is a server-side save record as returned by the save list and
// upload endpoints.
type Save struct {
	ID          int64    `json:"id"`
	RomID       int64    `json:"rom_id"`
	FileName    string   `json:"file_name"`
	ContentHash string   `json:"content_hash"`
	UpdatedAt   UTCTime  `json:"updated_at"`
	SizeBytes   int64    `json:"file_size_bytes"`
	Emulator    string   `json:"emulator"`
}

// Note is a metadata note attached to a ROM. Content is free-form
// JSON-encoded text; callers own its interpretation.
type Note struct {
	ID       int64    `json:"id"`
	RomID    int64    `json:"rom_id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	IsPublic bool     `json:"is_public"`
}

// UTCTime is a time.Time that unmarshals from RFC 3339 strings with any
// offset and normalizes to UTC. All timestamp comparisons in the engine
// happen between UTC instants; normalization lives at this API boundary.
type UTCTime struct {
	time.Time
}

// UnmarshalJSON parses an RFC 3339 timestamp (any offset, with or without
// fractional seconds) and stores it normalized to UTC. Empty strings and
// null yield the zero time.
func (t *UTCTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("library: timestamp must be a string: %w", err)
	}

	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// Servers have been observed emitting timestamps without an offset;
		// treat those as already-UTC wall clock readings.
		parsed, err = time.Parse("2006-01-02T15:04:05", s)
		if err != nil {
			return fmt.Errorf("library: parsing timestamp %q: %w", s, err)
		}
	}

	t.Time = parsed.UTC()

	return nil
}

// MarshalJSON emits the timestamp as RFC 3339 in UTC, or null for the zero time.
func (t UTCTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(t.UTC().Format(time.RFC3339))
}
