package sync

import (
	"crypto/md5" //nolint:gosec // content fingerprint for change detection, not a security boundary
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// hashChunkSize bounds memory while hashing: saves are usually tiny, but
// memory-card images and flash carts can reach hundreds of megabytes.
const hashChunkSize = 64 * 1024

// FileHash computes the hex-encoded MD5 of a file's content, reading in
// fixed-size chunks. The result is identical to hashing the whole content
// at once. IO and permission errors propagate: sync cannot safely proceed
// without the true content hash.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("sync: opening %s for hashing: %w", path, err)
	}
	defer f.Close()

	h := md5.New() //nolint:gosec // see package import note

	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("sync: hashing %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
