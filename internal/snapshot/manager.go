// Package snapshot takes and restores document snapshots.
//
// A Manager stores each commit's document bytes and thumbnail in a versions
// directory next to the document, records the commit in that directory's
// history (commitstore), and restores the live document from a stored
// snapshot through the host editor.
//
// On disk, for /art/cat.kra:
//
//	/art/cat_artgit_versions/versions.json      commit history
//	/art/cat_artgit_versions/artifacts.db       snapshot digests
//	/art/cat_artgit_versions/snap_<hash>.kra    snapshot bytes
//	/art/cat_artgit_versions/prev_<hash>.png    thumbnails
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/javanhut/artgit/internal/cas"
	"github.com/javanhut/artgit/internal/commitstore"
	"github.com/javanhut/artgit/internal/errs"
	"github.com/javanhut/artgit/internal/store"
)

// Errors
var (
	ErrNoActiveDocument = fmt.Errorf("%w: no active document", errs.ErrValidation)
	ErrDocumentUnsaved  = fmt.Errorf("%w: save the document before versioning it", errs.ErrValidation)
	ErrEmptyMessage     = commitstore.ErrEmptyMessage
	ErrNotFound         = commitstore.ErrNotFound
	ErrArtifactMissing  = fmt.Errorf("%w: snapshot artifact", errs.ErrNotFound)
	ErrArtifactCorrupt  = fmt.Errorf("%w: snapshot artifact does not match its digest", errs.ErrPersistence)
)

const (
	versionsSuffix = "_artgit_versions"
	snapshotPrefix = "snap"
	previewPrefix  = "prev"

	DefaultThumbnailSize = 256
)

// VersionsDir returns the versions directory for a document path.
func VersionsDir(docPath string) string {
	base := filepath.Base(docPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(docPath), name+versionsSuffix)
}

// session is the history of the document currently being versioned.
type session struct {
	docPath string
	dir     string
	history *commitstore.Store
	index   *store.DB // nil when the index could not be opened
}

// Manager versions the host's active document. It is not safe for
// concurrent use; commit and restore are expected on one UI thread.
type Manager struct {
	host      Host
	fs        FileSystem
	logger    *slog.Logger
	thumbSize int
	storeOpts []commitstore.Option
	current   *session
}

// Option configures a Manager.
type Option func(*Manager)

// WithFileSystem replaces the local disk.
func WithFileSystem(fs FileSystem) Option {
	return func(m *Manager) { m.fs = fs }
}

// WithLogger sets the logger; it is passed on to the commit store.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithThumbnailSize sets the bounding box of preview thumbnails.
func WithThumbnailSize(px int) Option {
	return func(m *Manager) {
		if px > 0 {
			m.thumbSize = px
		}
	}
}

// WithStoreOptions forwards options to every loaded commit store.
func WithStoreOptions(opts ...commitstore.Option) Option {
	return func(m *Manager) { m.storeOpts = append(m.storeOpts, opts...) }
}

// NewManager returns a Manager working on host's active document.
func NewManager(host Host, opts ...Option) *Manager {
	m := &Manager{
		host:      host,
		fs:        OSFileSystem{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		thumbSize: DefaultThumbnailSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Close releases the artifact index of the current session.
func (m *Manager) Close() error {
	if m.current == nil {
		return nil
	}
	err := m.current.close()
	m.current = nil
	return err
}

func (s *session) close() error {
	if s.index == nil {
		return nil
	}
	return s.index.Close()
}

// activeDocument returns the active document if it has a storage location.
func (m *Manager) activeDocument() (Document, error) {
	doc := m.host.ActiveDocument()
	if doc == nil {
		return nil, ErrNoActiveDocument
	}
	if doc.Path() == "" {
		return nil, ErrDocumentUnsaved
	}
	return doc, nil
}

// sessionFor loads the history of doc lazily, reusing it while the same
// document stays active.
func (m *Manager) sessionFor(doc Document) (*session, error) {
	path := doc.Path()
	if m.current != nil && m.current.docPath == path {
		return m.current, nil
	}
	if m.current != nil {
		if err := m.current.close(); err != nil {
			m.logger.Warn("closing artifact index", "dir", m.current.dir, "error", err)
		}
		m.current = nil
	}

	dir := VersionsDir(path)
	if err := m.fs.MkdirAll(dir); err != nil {
		return nil, &commitstore.PersistenceError{Op: "mkdir", Path: dir, Err: err}
	}

	opts := append([]commitstore.Option{commitstore.WithLogger(m.logger)}, m.storeOpts...)
	s := &session{
		docPath: path,
		dir:     dir,
		history: commitstore.Load(filepath.Join(dir, commitstore.FileName), opts...),
	}
	index, err := store.Open(filepath.Join(dir, store.FileName))
	if err != nil {
		m.logger.Warn("artifact index unavailable, digests will not be checked", "dir", dir, "error", err)
	} else {
		s.index = index
	}
	m.current = s
	return s, nil
}

// Store returns the commit store of the active document.
func (m *Manager) Store() (*commitstore.Store, error) {
	doc, err := m.activeDocument()
	if err != nil {
		return nil, err
	}
	s, err := m.sessionFor(doc)
	if err != nil {
		return nil, err
	}
	return s.history, nil
}

// SaveHistory retries persisting the active document's history after a
// failed save.
func (m *Manager) SaveHistory() error {
	h, err := m.Store()
	if err != nil {
		return err
	}
	return h.Save()
}

// VersionsDir returns the versions directory of the active document.
func (m *Manager) VersionsDir() (string, error) {
	doc, err := m.activeDocument()
	if err != nil {
		return "", err
	}
	return VersionsDir(doc.Path()), nil
}

// Commit snapshots the active document. Thumbnail failures are logged and
// leave the commit without a preview. When only the final history save
// fails, the commit is returned along with the error and stays in memory.
func (m *Manager) Commit(message string) (commitstore.Commit, error) {
	doc, err := m.activeDocument()
	if err != nil {
		return commitstore.Commit{}, err
	}
	if strings.TrimSpace(message) == "" {
		return commitstore.Commit{}, ErrEmptyMessage
	}
	s, err := m.sessionFor(doc)
	if err != nil {
		return commitstore.Commit{}, err
	}

	if err := doc.Save(); err != nil {
		return commitstore.Commit{}, fmt.Errorf("save document: %w", err)
	}

	digest, err := m.hashFile(doc.Path())
	if err != nil {
		return commitstore.Commit{}, &commitstore.PersistenceError{Op: "read", Path: doc.Path(), Err: err}
	}
	snapName := cas.ArtifactName(snapshotPrefix, digest, filepath.Ext(doc.Path()))
	snapPath := filepath.Join(s.dir, snapName)

	exists, err := m.fs.Exists(snapPath)
	if err != nil {
		return commitstore.Commit{}, &commitstore.PersistenceError{Op: "stat", Path: snapPath, Err: err}
	}
	if !exists {
		if err := m.fs.CopyFile(doc.Path(), snapPath); err != nil {
			return commitstore.Commit{}, &commitstore.PersistenceError{Op: "write", Path: snapPath, Err: err}
		}
	}

	previewName, previewDigest := m.writePreview(doc, s.dir)

	c, err := s.history.Append(message, snapName, previewName)
	if err != nil {
		return commitstore.Commit{}, err
	}
	if s.index != nil {
		if err := s.index.PutArtifacts(c.ID, digest, previewDigest); err != nil {
			m.logger.Warn("recording artifact digest", "commit", c.ID, "error", err)
		}
	}
	if err := s.history.Save(); err != nil {
		return c, err
	}

	m.logger.Info("committed version", "id", c.ID, "parent", c.Parent, "snapshot", snapName)
	return c, nil
}

// writePreview stores a thumbnail of doc. Any failure is logged and yields
// an empty name.
func (m *Manager) writePreview(doc Document, dir string) (string, cas.Hash) {
	png, err := doc.Thumbnail(m.thumbSize, m.thumbSize)
	if err != nil || len(png) == 0 {
		m.logger.Warn("thumbnail unavailable, committing without preview", "doc", doc.Path(), "error", err)
		return "", cas.Hash{}
	}
	digest := cas.SumB3(png)
	name := cas.ArtifactName(previewPrefix, digest, ".png")
	if err := m.fs.WriteFile(filepath.Join(dir, name), png); err != nil {
		m.logger.Warn("writing thumbnail", "path", name, "error", err)
		return "", cas.Hash{}
	}
	return name, digest
}

func (m *Manager) hashFile(path string) (cas.Hash, error) {
	f, err := m.fs.Open(path)
	if err != nil {
		return cas.Hash{}, err
	}
	defer f.Close()
	return cas.SumReader(f)
}

// Restore replaces the live document's content with the snapshot of
// commit id and checks that commit out. It never prompts; confirmation is
// the caller's concern. History is not rewritten and no commit is added.
func (m *Manager) Restore(id string) error {
	doc, err := m.activeDocument()
	if err != nil {
		return err
	}
	s, err := m.sessionFor(doc)
	if err != nil {
		return err
	}

	c, ok := s.history.Get(id)
	if !ok {
		return fmt.Errorf("%w %s", ErrNotFound, id)
	}
	if c.Filename == "" {
		return fmt.Errorf("%w: commit %s records no snapshot", ErrArtifactMissing, id)
	}
	snapPath := filepath.Join(s.dir, c.Filename)
	exists, err := m.fs.Exists(snapPath)
	if err != nil {
		return &commitstore.PersistenceError{Op: "stat", Path: snapPath, Err: err}
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrArtifactMissing, c.Filename)
	}
	if err := m.verify(s, c.ID, snapPath); err != nil {
		return err
	}

	src, err := m.host.OpenDocument(snapPath)
	if err != nil {
		return fmt.Errorf("open snapshot %s: %w", c.Filename, err)
	}
	if err := replaceContent(doc, src); err != nil {
		src.Close()
		return fmt.Errorf("restore %s: %w", id, err)
	}
	if err := src.Close(); err != nil {
		m.logger.Warn("closing snapshot document", "path", snapPath, "error", err)
	}
	if err := doc.Save(); err != nil {
		return fmt.Errorf("save restored document: %w", err)
	}

	if err := s.history.SetHead(id); err != nil {
		return err
	}
	if err := s.history.Save(); err != nil {
		return err
	}
	m.logger.Info("restored version", "id", id, "message", c.Message)
	return nil
}

// replaceContent copies layers, resolution, canvas size and colour space
// from src into doc.
func replaceContent(doc, src Document) error {
	if err := doc.ReplaceAllLayers(src); err != nil {
		return fmt.Errorf("replace layers: %w", err)
	}
	info := src.Info()
	if err := doc.SetResolution(info.Resolution); err != nil {
		return fmt.Errorf("set resolution: %w", err)
	}
	if err := doc.SetCanvasSize(info.Width, info.Height); err != nil {
		return fmt.Errorf("set canvas size: %w", err)
	}
	if err := doc.SetColorModel(info.ColorModel, info.ColorDepth, info.ColorProfile); err != nil {
		return fmt.Errorf("set color model: %w", err)
	}
	return nil
}

// verify compares the snapshot against its recorded digest. Commits
// without an index entry are accepted as-is.
func (m *Manager) verify(s *session, id, path string) error {
	if s.index == nil {
		return nil
	}
	want, err := s.index.SnapshotDigest(id)
	if errors.Is(err, store.ErrNoEntry) {
		return nil
	}
	if err != nil {
		m.logger.Warn("reading artifact digest", "commit", id, "error", err)
		return nil
	}
	got, err := m.hashFile(path)
	if err != nil {
		return &commitstore.PersistenceError{Op: "read", Path: path, Err: err}
	}
	if got != want {
		return fmt.Errorf("%w: %s", ErrArtifactCorrupt, filepath.Base(path))
	}
	return nil
}

// PreviewPath returns the absolute thumbnail path of c, or "" if it has none.
func (m *Manager) PreviewPath(c commitstore.Commit) string {
	if c.Preview == "" || m.current == nil {
		return ""
	}
	return filepath.Join(m.current.dir, c.Preview)
}
