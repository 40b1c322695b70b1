// Package storage persists rendered artifacts of an exercise: guide audio
// and MIDI files.
//
// A FileStore is either a local directory or an S3 bucket prefix. Open
// picks the backend from a destination string so commands can take
// "renders/" and "s3://bucket/renders" alike.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
)

// FileStore reads and writes files by forward-slash path relative to the
// store root. Implementations must be safe for concurrent use.
type FileStore interface {
	// Read opens the named file. Missing files return an error wrapping
	// os.ErrNotExist. The caller must close the reader.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write creates or truncates the named file. Data is only durable
	// once the writer is closed without error.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes the named file. Missing files are not an error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, path string) (bool, error)

	// Location returns a human-readable location for path, such as an
	// absolute file path or an s3:// URI.
	Location(path string) string
}

// GuidePath is where the guide audio of an exercise is stored.
func GuidePath(id string) string {
	return "guides/" + id + ".wav"
}

// MIDIPath is where the MIDI export of an exercise is stored.
func MIDIPath(id string) string {
	return "midi/" + id + ".mid"
}

// Open returns the store for dest: an S3 store for "s3://bucket[/prefix]"
// and a local directory otherwise.
func Open(dest string, cfg S3Config) (FileStore, error) {
	rest, ok := strings.CutPrefix(dest, "s3://")
	if !ok {
		return NewLocal(dest)
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return nil, fmt.Errorf("storage: missing bucket in %q", dest)
	}
	return NewS3(NewS3Client(cfg), bucket, strings.Trim(prefix, "/")), nil
}

// Put writes path by calling fn with the store's writer.
func Put(ctx context.Context, fs FileStore, path string, fn func(io.Writer) error) error {
	w, err := fs.Write(ctx, path)
	if err != nil {
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	if err := fn(w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", path, err)
	}
	return nil
}

// Get reads the whole of path.
func Get(ctx context.Context, fs FileStore, path string) ([]byte, error) {
	r, err := fs.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return buf.Bytes(), nil
}
