// Package archive unpacks chat export archives and locates the transcript.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrArchiveUnreadable is returned when the input is absent or not a valid zip.
var ErrArchiveUnreadable = errors.New("archive unreadable")

// ErrMissingTranscript is returned when the extracted contents hold no
// transcript file.
var ErrMissingTranscript = errors.New("no transcript file found in archive")

// Extract unpacks the zip at zipPath into destDir, preserving the archive's
// relative layout. Entry names that would escape destDir are rejected.
func Extract(zipPath, destDir string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArchiveUnreadable, zipPath, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if err := extractEntry(f, destDir); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(f *zip.File, destDir string) error {
	dest := filepath.Join(destDir, filepath.FromSlash(f.Name))
	if rel, err := filepath.Rel(destDir, dest); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: unsafe entry name %q", ErrArchiveUnreadable, f.Name)
	}
	if f.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("extract entry %s: %w", f.Name, err)
	}
	return out.Close()
}

// FindTranscript returns the path of the chat transcript inside dir: the
// first file with a .txt extension in sorted listing order. Subdirectories
// are not searched; exports keep the transcript at the top level.
func FindTranscript(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", ErrMissingTranscript
}
