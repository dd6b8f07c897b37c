package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/romsync/romsync-go/internal/library"
)

// playtimeNoteTitle names the metadata note that carries merged playtime on
// the server. One note per library entry per tag.
const playtimeNoteTitle = "romsync:playtime"

// maxSessionSeconds caps a single session's contribution. A device waking
// from suspend days later must not book the whole gap as play time.
const maxSessionSeconds = 24 * 60 * 60

// playtimePayload is the JSON body stored in the playtime note.
type playtimePayload struct {
	Seconds int64  `json:"seconds"`
	Updated string `json:"updated"`
	Device  string `json:"device"`
}

// StartSession marks the beginning of a play session for the entry,
// creating its playtime record on first play.
func (e *Engine) StartSession(romID int64) (SessionResult, error) {
	rec := e.playtimeRecord(romID)

	now := e.nowFunc().UTC()
	rec.LastSessionStart = &now

	if err := e.persist(); err != nil {
		return SessionResult{}, err
	}

	e.logger.Info("play session started", slog.Int64("rom_id", romID))

	return SessionResult{Success: true, SessionCount: rec.SessionCount}, nil
}

// EndSession closes the open play session, accumulates the elapsed time
// locally, and merges the new total to the server. The merge is best
// effort: a server failure is logged and the call still succeeds, because
// the locally recorded time is already safe and will merge on a later
// session.
func (e *Engine) EndSession(ctx context.Context, romID int64) (SessionResult, error) {
	rec, ok := e.state.Playtime[romKey(romID)]
	if !ok || rec.LastSessionStart == nil {
		return SessionResult{}, fmt.Errorf("sync: no open session for rom %d", romID)
	}

	elapsed := int64(e.nowFunc().UTC().Sub(rec.LastSessionStart.UTC()).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}

	if elapsed > maxSessionSeconds {
		e.logger.Warn("session duration clamped",
			slog.Int64("rom_id", romID),
			slog.Int64("elapsed_sec", elapsed),
		)
		elapsed = maxSessionSeconds
	}

	rec.TotalSeconds += elapsed
	rec.SessionCount++
	rec.LastSessionSeconds = elapsed
	rec.LastSessionStart = nil

	if err := e.persist(); err != nil {
		return SessionResult{}, err
	}

	// Pass the session delta, not the running total: the merge formula adds
	// it to the server's count so another device's sessions are preserved.
	e.mergePlaytime(ctx, romID, elapsed)

	e.logger.Info("play session ended",
		slog.Int64("rom_id", romID),
		slog.Int64("duration_sec", elapsed),
		slog.Int64("total_sec", rec.TotalSeconds),
	)

	return SessionResult{
		Success:      true,
		DurationSec:  elapsed,
		TotalSeconds: rec.TotalSeconds,
		SessionCount: rec.SessionCount,
	}, nil
}

// ServerPlaytime reports local, server, and merged playtime for the entry.
// A server failure degrades to server_seconds = 0 rather than erroring:
// the report is informational.
func (e *Engine) ServerPlaytime(ctx context.Context, romID int64) PlaytimeReport {
	var local int64
	if rec, ok := e.state.Playtime[romKey(romID)]; ok {
		local = rec.TotalSeconds
	}

	var remote int64

	var note *noteRef

	err := e.retrier.Do(ctx, "fetch playtime note", func() error {
		n, err := e.notes.GetNote(ctx, romID, library.NoteTag)
		if err != nil {
			return err
		}

		if n != nil {
			note = &noteRef{id: n.ID, content: n.Content}
		}

		return nil
	})
	if err != nil {
		e.logger.Warn("playtime note fetch failed",
			slog.Int64("rom_id", romID),
			slog.String("error", err.Error()),
		)
	} else if note != nil {
		remote = parsePlaytimeSeconds(note.content)
	}

	return PlaytimeReport{
		LocalSeconds:  local,
		ServerSeconds: remote,
		TotalSeconds:  max(local, remote),
	}
}

// mergePlaytime publishes max(local total, server seconds + session delta)
// to the server note and raises the local total to the merged value. All
// failures are logged and swallowed: playtime merging must never fail the
// flow that triggered it.
func (e *Engine) mergePlaytime(ctx context.Context, romID, sessionDelta int64) {
	rec, ok := e.state.Playtime[romKey(romID)]
	if !ok {
		return
	}

	var note *noteRef

	err := e.retrier.Do(ctx, "fetch playtime note", func() error {
		n, err := e.notes.GetNote(ctx, romID, library.NoteTag)
		if err != nil {
			return err
		}

		if n == nil {
			note = nil
			return nil
		}

		note = &noteRef{id: n.ID, content: n.Content}

		return nil
	})
	if err != nil {
		e.logger.Warn("playtime merge skipped, note fetch failed",
			slog.Int64("rom_id", romID),
			slog.String("error", err.Error()),
		)

		return
	}

	var remote int64
	if note != nil {
		remote = parsePlaytimeSeconds(note.content)
	}

	merged := max(rec.TotalSeconds, remote+sessionDelta)

	// The note advertises the human-readable device name, not the opaque ID.
	if _, err := e.EnsureDeviceRegistered(); err != nil {
		e.logger.Warn("playtime merge proceeding without device identity",
			slog.String("error", err.Error()),
		)
	}

	payload, err := json.Marshal(playtimePayload{
		Seconds: merged,
		Updated: e.nowFunc().UTC().Format(time.RFC3339),
		Device:  e.state.DeviceName,
	})
	if err != nil {
		e.logger.Warn("playtime merge skipped, payload encoding failed",
			slog.Int64("rom_id", romID),
			slog.String("error", err.Error()),
		)

		return
	}

	err = e.retrier.Do(ctx, "publish playtime note", func() error {
		if note == nil {
			_, createErr := e.notes.CreateNote(ctx, romID, playtimeNoteTitle, string(payload), []string{library.NoteTag})
			return createErr
		}

		_, updateErr := e.notes.UpdateNote(ctx, romID, note.id, string(payload))

		return updateErr
	})
	if err != nil {
		e.logger.Warn("playtime merge failed, will retry on next session",
			slog.Int64("rom_id", romID),
			slog.String("error", err.Error()),
		)

		return
	}

	if merged > rec.TotalSeconds {
		rec.TotalSeconds = merged

		if persistErr := e.persist(); persistErr != nil {
			e.logger.Warn("persisting merged playtime failed",
				slog.Int64("rom_id", romID),
				slog.String("error", persistErr.Error()),
			)
		}
	}

	e.logger.Debug("playtime merged",
		slog.Int64("rom_id", romID),
		slog.Int64("merged_sec", merged),
	)
}

// parsePlaytimeSeconds extracts the seconds count from note content.
// Malformed content from an older version or a manual edit counts as zero;
// the max() merge then repairs the note on publish.
func parsePlaytimeSeconds(content string) int64 {
	if content == "" {
		return 0
	}

	var payload playtimePayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return 0
	}

	if payload.Seconds < 0 {
		return 0
	}

	return payload.Seconds
}

// playtimeRecord returns the entry's playtime record, creating it if absent.
func (e *Engine) playtimeRecord(romID int64) *PlaytimeRecord {
	key := romKey(romID)

	rec, ok := e.state.Playtime[key]
	if !ok {
		rec = &PlaytimeRecord{}
		e.state.Playtime[key] = rec
	}

	return rec
}

// romKey is the map key for per-entry state.
func romKey(romID int64) string {
	return strconv.FormatInt(romID, 10)
}

// noteRef is the subset of a fetched note the merge needs.
type noteRef struct {
	id      int64
	content string
}
