package library

import (
	"context"
	"net/url"
	"strconv"
)

// NoteTag labels every note this engine manages, so server-side browsing
// can distinguish them from user-authored notes.
const NoteTag = "romsync"

// GetNote returns the first note on the ROM carrying the given tag, or nil
// when none exists.
func (c *Client) GetNote(ctx context.Context, romID int64, tag string) (*Note, error) {
	path := "/api/roms/" + strconv.FormatInt(romID, 10) + "/notes?tag=" + url.QueryEscape(tag)

	var notes []Note
	if err := c.getJSON(ctx, path, &notes); err != nil {
		return nil, err
	}

	if len(notes) == 0 {
		return nil, nil
	}

	return &notes[0], nil
}

// CreateNote attaches a new private note to the ROM.
func (c *Client) CreateNote(ctx context.Context, romID int64, title, content string, tags []string) (*Note, error) {
	payload := Note{
		Title:    title,
		Content:  content,
		Tags:     tags,
		IsPublic: false,
	}

	var created Note

	path := "/api/roms/" + strconv.FormatInt(romID, 10) + "/notes"
	if err := c.sendJSON(ctx, "POST", path, payload, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// UpdateNote replaces the content of an existing note.
func (c *Client) UpdateNote(ctx context.Context, romID, noteID int64, content string) (*Note, error) {
	payload := struct {
		Content string `json:"content"`
	}{Content: content}

	var updated Note

	path := "/api/roms/" + strconv.FormatInt(romID, 10) + "/notes/" + strconv.FormatInt(noteID, 10)
	if err := c.sendJSON(ctx, "PUT", path, payload, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}
