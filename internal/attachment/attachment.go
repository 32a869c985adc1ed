// Package attachment manages request-scoped upload files: each uploaded part
// is written to a temp file on arrival and removed before the request ends.
package attachment

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// File is one uploaded file saved to local disk for the duration of a request.
type File struct {
	FieldName    string
	OriginalName string
	Path         string

	content []byte
}

// Save writes an uploaded multipart part into dir under a unique name and
// returns a handle to the temp file. The caller must Remove it (or pass it
// to Cleanup) on every exit path.
func Save(dir, fieldName string, part multipart.File, header *multipart.FileHeader) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(header.Filename))
	path := filepath.Join(dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, part); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}

	return &File{
		FieldName:    fieldName,
		OriginalName: header.Filename,
		Path:         path,
	}, nil
}

// Bytes reads the file content from disk once and caches it. Every recipient
// in a batch reuses the same slice, since attachment content never changes
// within one request.
func (f *File) Bytes() ([]byte, error) {
	if f.content != nil {
		return f.content, nil
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment %s: %w", f.OriginalName, err)
	}
	f.content = data
	return f.content, nil
}

// Remove deletes the backing temp file.
func (f *File) Remove() error {
	return os.Remove(f.Path)
}

// Cleanup removes every file, logging failures instead of returning them.
// It is safe to call with files that were already removed.
func Cleanup(files ...*File) {
	for _, f := range files {
		if f == nil {
			continue
		}
		if err := f.Remove(); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to clean up temp file", "path", f.Path, "error", err)
		}
	}
}
