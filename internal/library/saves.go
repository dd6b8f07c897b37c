package library

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

// ListSaves fetches the server's save records for a ROM. The endpoint
// returns either a bare array or a paginated {items: [...]} envelope
// depending on server version; both are accepted.
func (c *Client) ListSaves(ctx context.Context, romID int64) ([]Save, error) {
	path := "/api/saves?rom_id=" + strconv.FormatInt(romID, 10)

	var raw json.RawMessage
	if err := c.getJSON(ctx, path, &raw); err != nil {
		return nil, err
	}

	return decodeSaveList(raw)
}

// decodeSaveList accepts both save-list response shapes.
func decodeSaveList(raw json.RawMessage) ([]Save, error) {
	var saves []Save
	if err := json.Unmarshal(raw, &saves); err == nil {
		return saves, nil
	}

	var envelope struct {
		Items []Save `json:"items"`
	}

	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("library: unexpected save list shape: %w", err)
	}

	return envelope.Items, nil
}

// UploadSave sends a local save file's content to the server as multipart
// form data and returns the updated server record. saveID, when non-zero,
// targets an existing record; zero creates a new one.
func (c *Client) UploadSave(ctx context.Context, romID int64, localPath, emulator, deviceID string, saveID int64) (*Save, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("library: opening %s for upload: %w", localPath, err)
	}
	defer f.Close()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("saves", filepath.Base(localPath))
	if err != nil {
		return nil, fmt.Errorf("library: building multipart body: %w", err)
	}

	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("library: reading %s: %w", localPath, err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("library: finalizing multipart body: %w", err)
	}

	q := url.Values{"rom_id": {strconv.FormatInt(romID, 10)}}
	if emulator != "" {
		q.Set("emulator", emulator)
	}

	if deviceID != "" {
		q.Set("device_id", deviceID)
	}

	if saveID != 0 {
		q.Set("save_id", strconv.FormatInt(saveID, 10))
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/saves?"+q.Encode(), &body, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var save Save
	if err := json.NewDecoder(resp.Body).Decode(&save); err != nil {
		return nil, fmt.Errorf("library: decoding upload response: %w", err)
	}

	return &save, nil
}

// DownloadSave streams a save's content to w and returns the byte count.
// When the server reports a Content-Length, a short read is an error: the
// caller must never install a truncated save.
func (c *Client) DownloadSave(ctx context.Context, saveID int64, w io.Writer, deviceID string) (int64, error) {
	path := "/api/saves/" + strconv.FormatInt(saveID, 10) + "/content"
	if deviceID != "" {
		path += "?device_id=" + url.QueryEscape(deviceID)
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("library: downloading save %d: %w", saveID, err)
	}

	if resp.ContentLength > 0 && n != resp.ContentLength {
		return n, fmt.Errorf("library: save %d download incomplete: got %d bytes, expected %d: %w",
			saveID, n, resp.ContentLength, io.ErrUnexpectedEOF)
	}

	return n, nil
}
