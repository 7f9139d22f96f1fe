package commitstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/javanhut/artgit/internal/errs"
)

// PersistenceError reports a failed read or write of the sidecar file.
type PersistenceError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both the persistence category and the underlying cause.
func (e *PersistenceError) Unwrap() []error {
	return []error{errs.ErrPersistence, e.Err}
}

// Load reads the store at path. It never fails: a missing file gives an
// empty store, and unreadable or malformed data is logged and also gives an
// empty store. The returned store saves back to path.
func Load(path string, opts ...Option) *Store {
	s, err := Read(path, opts...)
	if err != nil {
		s = New(opts...)
		s.logger.Warn("history unreadable, starting empty", "path", path, "error", err)
	}
	s.path = path
	return s
}

// Read is the strict form of Load: a missing file is still an empty store,
// but read and decode failures are returned.
func Read(path string, opts ...Option) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s := New(opts...)
		s.path = path
		return s, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "read", Path: path, Err: err}
	}
	s, err := Decode(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	s.path = path
	return s, nil
}

// Save writes the store back to the file it was loaded from.
func (s *Store) Save() error {
	if s.path == "" {
		return &PersistenceError{Op: "write", Err: errors.New("store has no path")}
	}
	return s.SaveTo(s.path)
}

// SaveTo writes the store to path in the current shape. The write is atomic:
// readers see either the old file or the new one. A failed save leaves the
// in-memory store untouched so the caller can retry.
func (s *Store) SaveTo(path string) error {
	data, err := s.Encode()
	if err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := safeWrite(path, data, 0644); err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Encode renders the current on-disk shape:
//
//	{"commits": {"<id>": {record}, ...}, "current_head": "<id>" | null}
//
// Commits are written in insertion order.
func (s *Store) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"commits":{`)
	for i, id := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		rec, err := json.Marshal(toRecord(s.commits[id]))
		if err != nil {
			return nil, fmt.Errorf("marshal commit %s: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(rec)
	}
	buf.WriteString(`},"current_head":`)
	if s.head == "" {
		buf.WriteString("null")
	} else {
		head, err := json.Marshal(s.head)
		if err != nil {
			return nil, err
		}
		buf.Write(head)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// safeWrite writes data to path atomically: tempfile -> fsync -> rename.
func safeWrite(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".versions-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err = f.Chmod(perm); err != nil {
		f.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp to target: %w", err)
	}
	return nil
}
