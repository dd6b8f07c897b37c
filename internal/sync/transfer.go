package sync

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// backupDirName is the per-system subfolder that receives pre-overwrite
// copies of local saves.
const backupDirName = ".romsync-backup"

// stagingSuffix marks in-flight downloads. A crash leaves only a .partial
// file behind; the live save is never touched until the transfer is
// complete and size-verified.
const stagingSuffix = ".partial"

// downloadSave fetches a remote save to destPath with the full safety
// sequence: stream to a staging file, verify the byte count against the
// server's reported size, back up any existing local file, then atomically
// rename the staging file into place. An interrupted transfer never
// corrupts a previously valid save, and an existing local file survives in
// the backup folder even if the downloaded content turns out bad.
func (e *Engine) downloadSave(ctx context.Context, saveID int64, destPath string, expectedSize int64) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("sync: creating saves dir for %s: %w", destPath, err)
	}

	stagingPath := destPath + stagingSuffix

	err := e.retrier.Do(ctx, "download save", func() error {
		return e.fetchToStaging(ctx, saveID, stagingPath)
	})
	if err != nil {
		os.Remove(stagingPath)
		return err
	}

	if expectedSize > 0 {
		info, statErr := os.Stat(stagingPath)
		if statErr != nil {
			os.Remove(stagingPath)
			return fmt.Errorf("sync: verifying staged download: %w", statErr)
		}

		if info.Size() != expectedSize {
			os.Remove(stagingPath)
			return fmt.Errorf("sync: staged download is %d bytes, server reported %d", info.Size(), expectedSize)
		}
	}

	if _, statErr := os.Stat(destPath); statErr == nil {
		if backupErr := e.backupLocalSave(destPath); backupErr != nil {
			os.Remove(stagingPath)
			return backupErr
		}
	}

	if err := os.Rename(stagingPath, destPath); err != nil {
		os.Remove(stagingPath)
		return fmt.Errorf("sync: installing downloaded save %s: %w", destPath, err)
	}

	return nil
}

// fetchToStaging streams one download attempt into the staging file,
// truncating any partial content from a previous attempt.
func (e *Engine) fetchToStaging(ctx context.Context, saveID int64, stagingPath string) error {
	f, err := os.Create(stagingPath)
	if err != nil {
		return fmt.Errorf("sync: creating staging file %s: %w", stagingPath, err)
	}

	if _, err := e.saves.DownloadSave(ctx, saveID, f, e.state.DeviceID); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("sync: closing staging file %s: %w", stagingPath, err)
	}

	return nil
}

// backupLocalSave copies the current local file into a timestamped backup
// subfolder next to the saves, so unsynced local content is never
// destroyed by an overwrite.
func (e *Engine) backupLocalSave(path string) error {
	ts := e.nowFunc().UTC().Format("20060102-150405")
	backupDir := filepath.Join(filepath.Dir(path), backupDirName, ts)

	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return fmt.Errorf("sync: creating backup dir %s: %w", backupDir, err)
	}

	backupPath := filepath.Join(backupDir, filepath.Base(path))
	if err := copyFile(path, backupPath); err != nil {
		return fmt.Errorf("sync: backing up %s: %w", path, err)
	}

	e.logger.Info("backed up local save before overwrite",
		"path", path,
		"backup", backupPath,
	)

	return nil
}

// copyFile copies src to dst, preserving the source's modification time so
// backups sort truthfully.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)

		return err
	}

	if err := out.Close(); err != nil {
		return err
	}

	if info, statErr := os.Stat(src); statErr == nil {
		_ = os.Chtimes(dst, time.Now(), info.ModTime())
	}

	return nil
}
