// Package archive wraps zip reading and writing for submission payloads.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrCorrupt indicates the payload is not a readable zip archive.
	ErrCorrupt = errors.New("corrupt or non-zip archive")
	// ErrTooLarge indicates the archive would decompress past the configured cap.
	ErrTooLarge = errors.New("archive uncompressed size too large")
	// ErrEntryNotFound indicates the named entry is absent from the archive.
	ErrEntryNotFound = errors.New("entry not found in archive")
)

// Handle is an opened archive. It owns no state beyond the caller-supplied
// bytes and can be discarded freely.
type Handle struct {
	reader *zip.Reader
}

// Open validates data as a zip archive and guards against decompression
// bombs: the summed declared uncompressed sizes must stay under
// maxUncompressed (no cap when <= 0).
func Open(data []byte, maxUncompressed int64) (*Handle, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if maxUncompressed > 0 {
		var total uint64
		for _, f := range reader.File {
			total += f.UncompressedSize64
			if total > uint64(maxUncompressed) {
				return nil, ErrTooLarge
			}
		}
	}

	return &Handle{reader: reader}, nil
}

// Entries lists entry names in archive order, directories excluded.
func (h *Handle) Entries() []string {
	names := make([]string, 0, len(h.reader.File))
	for _, f := range h.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, f.Name)
	}
	return names
}

// ReadEntry returns the full contents of the named entry.
func (h *Handle) ReadEntry(name string) ([]byte, error) {
	for _, f := range h.reader.File {
		if f.Name != name || f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open entry %s: %w", name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to read entry %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s: %w", name, ErrEntryNotFound)
}

// Writer builds a zip archive in memory, used to repackage submissions for
// batch download.
type Writer struct {
	buf *bytes.Buffer
	zw  *zip.Writer
}

// NewWriter constructs an empty archive writer.
func NewWriter() *Writer {
	buf := &bytes.Buffer{}
	return &Writer{buf: buf, zw: zip.NewWriter(buf)}
}

// Add appends one entry with the given contents.
func (w *Writer) Add(name string, data []byte) error {
	entry, err := w.zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", name, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", name, err)
	}
	return nil
}

// Close finalizes the archive and returns its bytes.
func (w *Writer) Close() ([]byte, error) {
	if err := w.zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return w.buf.Bytes(), nil
}
