// Package upload implements file intake for profile images.
//
// Each collection gets its own subdirectory under the configured base
// directory: uploads/ for user images, studpic/ for student profiles.
// Stored names are a timestamp discriminator plus the original file
// extension, and the relative path (e.g. "uploads/1717171717171.jpg")
// is what gets persisted on the record and served back publicly.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"
)

// Per-collection subdirectories. These double as the public URL prefixes
// mounted in main, so they must stay in sync with the static routes.
const (
	UserDir    = "uploads"
	StudentDir = "studpic"
)

// FileName builds the stored name for an uploaded file: the millisecond
// timestamp plus the original extension. Pure — no clock, no filesystem —
// so it is unit-testable without an HTTP context.
//
// Millisecond resolution is collision-resistant enough for this system's
// write rate; the extension is kept so static file serving sends a useful
// Content-Type.
func FileName(originalName string, now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + filepath.Ext(originalName)
}

// Store persists uploaded files under a base directory.
type Store struct {
	baseDir string
}

// New creates both collection subdirectories eagerly (idempotent — safe
// on every startup) and returns a ready Store.
func New(baseDir string) (*Store, error) {
	for _, dir := range []string{UserDir, StudentDir} {
		if err := os.MkdirAll(filepath.Join(baseDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("upload.New: create %s: %w", dir, err)
		}
	}
	return &Store{baseDir: baseDir}, nil
}

// Save writes one uploaded part into the given collection directory and
// returns the relative path to persist on the record.
//
// Callers only invoke Save when a file was actually present in the form;
// an absent file field means an empty path on the record — Save never
// fabricates one.
func (s *Store) Save(dir string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("upload.Save: open part: %w", err)
	}
	defer src.Close()

	name := FileName(fh.Filename, time.Now())

	dst, err := os.Create(filepath.Join(s.baseDir, dir, name))
	if err != nil {
		return "", fmt.Errorf("upload.Save: create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("upload.Save: write file: %w", err)
	}

	// path.Join (not filepath.Join): the stored value is a URL-style
	// relative path, forward slashes on every platform.
	return path.Join(dir, name), nil
}
