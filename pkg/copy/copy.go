// Package copy materializes assets in the output directory.
package copy

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrDestinationExists is returned when attempting to copy to an existing
// file without Overwrite.
var ErrDestinationExists = errors.New("destination file already exists")

// Options configures the copy behavior.
type Options struct {
	// Overwrite allows overwriting existing files. Rerunning a whole
	// organize pass relies on this to stay idempotent at the destination.
	Overwrite bool
}

// File copies src to dst, carrying over the source's permission bits and
// modification time.
func File(src, dst string, opts Options) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE
	if opts.Overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}

	dstFile, err := os.OpenFile(dst, flags, srcInfo.Mode())
	if err != nil {
		if os.IsExist(err) {
			return ErrDestinationExists
		}
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		if !opts.Overwrite {
			_ = os.Remove(dst)
		}
		return fmt.Errorf("copy content: %w", err)
	}

	if err := dstFile.Sync(); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	// OpenFile only applies the mode on create, so an overwritten
	// destination needs its permissions re-synced explicitly.
	if err := os.Chmod(dst, srcInfo.Mode()); err != nil {
		return fmt.Errorf("preserve mode: %w", err)
	}

	mtime := srcInfo.ModTime()
	if err := os.Chtimes(dst, mtime, mtime); err != nil {
		return fmt.Errorf("preserve times: %w", err)
	}
	return nil
}
