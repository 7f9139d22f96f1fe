package snapshot

import (
	"errors"
	"io"
	"io/fs"
	"os"
)

// DocumentInfo describes the canvas of a document.
type DocumentInfo struct {
	Width        int
	Height       int
	Resolution   float64 // dots per inch
	ColorModel   string  // e.g. "RGBA"
	ColorDepth   string  // e.g. "U8"
	ColorProfile string
}

// Document is one open document in the host editor.
type Document interface {
	// Path is the document's storage location; empty when never saved.
	Path() string
	Save() error
	ExportFlattened(path string) error
	// Thumbnail renders a PNG no larger than w x h.
	Thumbnail(w, h int) ([]byte, error)
	// ReplaceAllLayers removes every layer of the document and adds clones
	// of from's layers, keeping the document's identity and undo context.
	ReplaceAllLayers(from Document) error
	SetCanvasSize(w, h int) error
	SetResolution(dpi float64) error
	SetColorModel(model, depth, profile string) error
	Info() DocumentInfo
	Close() error
}

// Host is the document-editing application.
type Host interface {
	// ActiveDocument returns the focused document, or nil when none is open.
	ActiveDocument() Document
	// OpenDocument opens path in the background without making it active.
	OpenDocument(path string) (Document, error)
}

// FileSystem is the file access the manager needs for artifacts.
type FileSystem interface {
	Open(path string) (io.ReadCloser, error)
	CopyFile(src, dst string) error
	WriteFile(path string, data []byte) error
	MkdirAll(dir string) error
	Exists(path string) (bool, error)
}

// OSFileSystem implements FileSystem on the local disk.
type OSFileSystem struct{}

func (OSFileSystem) Open(path string) (io.ReadCloser, error) { return os.Open(path) }

// CopyFile copies src to dst through a temporary file so a crash never
// leaves a truncated artifact under the final name.
func (OSFileSystem) CopyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err = out.Sync(); err != nil {
		out.Close()
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}

func (OSFileSystem) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

func (OSFileSystem) MkdirAll(dir string) error { return os.MkdirAll(dir, 0755) }

func (OSFileSystem) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
