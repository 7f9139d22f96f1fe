package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/javanhut/artgit/internal/cas"
	"github.com/javanhut/artgit/internal/commitstore"
	"github.com/javanhut/artgit/internal/store"
)

// bookkeeping matches files in a versions directory that are not artifacts.
const bookkeeping = "{" + commitstore.FileName + "," + store.FileName + ",.*}"

// AuditReport lists inconsistencies between a history and its artifacts.
type AuditReport struct {
	// Missing holds ids of commits whose snapshot file is absent.
	Missing []string
	// Orphans holds artifact file names no commit references.
	Orphans []string
	// Corrupt holds artifact file names whose content no longer matches
	// the digest recorded at commit time.
	Corrupt []string
}

// Clean reports whether the audit found nothing.
func (r AuditReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Orphans) == 0 && len(r.Corrupt) == 0
}

// Audit compares the active document's history against the files in its
// versions directory. Nothing is modified.
func (m *Manager) Audit() (AuditReport, error) {
	history, err := m.Store()
	if err != nil {
		return AuditReport{}, err
	}
	return audit(m.current.dir, history, m.current.index)
}

// AuditDir audits dir against history without digest checks.
func AuditDir(dir string, history *commitstore.Store) (AuditReport, error) {
	return audit(dir, history, nil)
}

func audit(dir string, history *commitstore.Store, index *store.DB) (AuditReport, error) {
	files, err := doublestar.Glob(os.DirFS(dir), "**", doublestar.WithFilesOnly())
	if err != nil {
		return AuditReport{}, fmt.Errorf("scan %s: %w", dir, err)
	}
	present := make(map[string]bool, len(files))
	for _, f := range files {
		skip, err := doublestar.Match(bookkeeping, path.Base(f))
		if err != nil {
			return AuditReport{}, fmt.Errorf("match %s: %w", f, err)
		}
		if !skip {
			present[f] = true
		}
	}

	var report AuditReport
	referenced := make(map[string]bool)
	for _, c := range history.InsertionOrder() {
		if c.Filename == "" || !present[c.Filename] {
			report.Missing = append(report.Missing, c.ID)
		}
		referenced[c.Filename] = true
		if c.Preview != "" {
			referenced[c.Preview] = true
		}
	}
	for f := range present {
		if !referenced[f] {
			report.Orphans = append(report.Orphans, f)
		}
	}
	sort.Strings(report.Orphans)

	if index == nil {
		return report, nil
	}
	checked := make(map[string]bool)
	check := func(name string, want cas.Hash, err error) error {
		if errors.Is(err, store.ErrNoEntry) || name == "" || !present[name] || checked[name] {
			return nil
		}
		if err != nil {
			return err
		}
		checked[name] = true
		got, err := cas.SumFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("hash %s: %w", name, err)
		}
		if got != want {
			report.Corrupt = append(report.Corrupt, name)
		}
		return nil
	}
	for _, c := range history.InsertionOrder() {
		want, err := index.SnapshotDigest(c.ID)
		if err := check(c.Filename, want, err); err != nil {
			return AuditReport{}, err
		}
		want, err = index.PreviewDigest(c.ID)
		if err := check(c.Preview, want, err); err != nil {
			return AuditReport{}, err
		}
	}
	sort.Strings(report.Corrupt)
	return report, nil
}
