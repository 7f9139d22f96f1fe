// Package archive moves a versions directory in and out of a single
// zstd-compressed tar stream.
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/javanhut/artgit/internal/errs"
)

// Extension is the conventional file suffix of an archive.
const Extension = ".tar.zst"

// ErrUnsafeEntry is returned by Import for entries that would land outside
// the target directory or are not regular files or directories.
var ErrUnsafeEntry = fmt.Errorf("%w: unsafe archive entry", errs.ErrValidation)

// Export writes every regular file under dir to w and returns the number of
// files written. Hidden files, which hold in-flight temporaries, are skipped.
func Export(dir string, w io.Writer) (int, error) {
	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return 0, err
	}
	tw := tar.NewWriter(zw)

	n := 0
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if err := addFile(tw, p, filepath.ToSlash(rel)); err != nil {
			return fmt.Errorf("archive %s: %w", rel, err)
		}
		n++
		return nil
	})
	if err != nil {
		zw.Close()
		return n, err
	}
	if err := tw.Close(); err != nil {
		zw.Close()
		return n, err
	}
	return n, zw.Close()
}

func addFile(tw *tar.Writer, src, name string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Uname, hdr.Gname = "", ""
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

// Import extracts an archive written by Export into dir, creating it if
// needed and overwriting files of the same name. It returns the number of
// files written.
func Import(r io.Reader, dir string) (int, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return 0, err
	}
	defer zr.Close()
	tr := tar.NewReader(zr)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, err
	}

	n := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("read archive: %w", err)
		}
		dst, err := entryPath(dir, hdr.Name)
		if err != nil {
			return n, err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dst, 0755); err != nil {
				return n, err
			}
		case tar.TypeReg:
			if err := extractFile(tr, dst); err != nil {
				return n, fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
			n++
		default:
			return n, fmt.Errorf("%w: %s has type %q", ErrUnsafeEntry, hdr.Name, hdr.Typeflag)
		}
	}
}

// entryPath resolves name under dir, rejecting absolute and escaping paths.
func entryPath(dir, name string) (string, error) {
	clean := path.Clean(name)
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeEntry, name)
	}
	return filepath.Join(dir, filepath.FromSlash(clean)), nil
}

func extractFile(r io.Reader, dst string) (err error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".import-*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()
	if _, err = io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
