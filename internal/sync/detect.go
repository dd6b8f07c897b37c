package sync

import (
	"github.com/romsync/romsync-go/internal/library"
)

// Detect runs the three-way comparison for one file and classifies what a
// sync pass should do with it. localHash is empty when no local file
// exists; server is nil when the server has no record for the filename;
// snapshot is nil on first sync for this file.
//
// The snapshot hash recorded at the last successful sync anchors the
// comparison: a single scalar per file is enough because each device only
// ever syncs against one authoritative server, so no version vector is
// needed.
//
//	local file | snapshot            | server | local  | result
//	absent     | any                 | has save        | download
//	present    | absent, no server hash               | upload
//	present    | absent, local==server                | skip
//	present    | absent, local!=server                | conflict
//	present    | present             | same   | same   | skip
//	present    | present             | changed| same   | download
//	present    | present             | same   | changed| upload
//	present    | present             | changed| changed| conflict
func Detect(localHash string, snapshot *FileSyncEntry, server *library.Save) Decision {
	serverHash := ""
	if server != nil {
		serverHash = server.ContentHash
	}

	// No local file: anything the server has is worth fetching.
	if localHash == "" {
		if server != nil {
			return DecisionDownload
		}

		return DecisionSkip
	}

	// First sync for this file: no snapshot to anchor a three-way compare.
	if snapshot == nil || snapshot.LastSyncHash == "" {
		switch {
		case serverHash == "":
			return DecisionUpload
		case localHash == serverHash:
			return DecisionSkip
		default:
			return DecisionConflict
		}
	}

	localChanged := localHash != snapshot.LastSyncHash
	serverChanged := serverHash != "" && serverHash != snapshot.LastSyncHash

	// Timestamp fallback for servers that recompute hashes lazily: a server
	// update time strictly after our recorded sync time means the server
	// side moved even if the reported hash still matches the snapshot.
	if !serverChanged && server != nil && !snapshot.LastSyncAt.IsZero() &&
		server.UpdatedAt.After(snapshot.LastSyncAt) {
		serverChanged = true
	}

	switch {
	case serverChanged && localChanged:
		return DecisionConflict
	case serverChanged:
		return DecisionDownload
	case localChanged:
		return DecisionUpload
	default:
		return DecisionSkip
	}
}
