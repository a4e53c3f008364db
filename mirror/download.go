package mirror

import (
	"fmt"
	"io"
	"os"

	"github.com/pkgmirror/pkgmirror/fetch"
)

// Download is a handle over package bytes spooled to a temporary file. The
// file is removed when the handle is closed; Close must be called on every
// path, including after errors or cancellation.
type Download struct {
	file        *os.File
	size        int64
	contentType string
}

// spool copies the artifact body into a temporary file and rewinds it.
func spool(artifact *fetch.Artifact) (*Download, error) {
	f, err := os.CreateTemp("", "pkgmirror-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}

	size, err := io.Copy(f, artifact.Body)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("spooling artifact: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("rewinding temp file: %w", err)
	}

	return &Download{
		file:        f,
		size:        size,
		contentType: artifact.ContentType,
	}, nil
}

// Read reads from the spooled content.
func (d *Download) Read(p []byte) (int, error) {
	return d.file.Read(p)
}

// Seek repositions the read offset within the spooled content.
func (d *Download) Seek(offset int64, whence int) (int64, error) {
	return d.file.Seek(offset, whence)
}

// Size returns the spooled content length in bytes.
func (d *Download) Size() int64 {
	return d.size
}

// ContentType returns the upstream Content-Type, which may be empty.
func (d *Download) ContentType() string {
	return d.contentType
}

// Close releases the handle and deletes the temporary file.
func (d *Download) Close() error {
	closeErr := d.file.Close()
	removeErr := os.Remove(d.file.Name())
	if closeErr != nil {
		return closeErr
	}
	return removeErr
}
