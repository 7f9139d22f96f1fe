// Package filehost implements snapshot.Host over plain files so artgit can
// version documents without a running editor.
//
// A document is a file on disk. Raster files (PNG, JPEG, GIF, BMP, TIFF,
// WebP) are decoded directly; layered zip containers such as .kra and .ora
// are read through their embedded merged image.
package filehost

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/klauspost/compress/zip"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/javanhut/artgit/internal/snapshot"
)

// DefaultResolution is reported for files that carry no DPI we can read.
const DefaultResolution = 72

// mergedEntries are the zip members holding a flattened rendering, in
// preference order.
var mergedEntries = []string{"mergedimage.png", "preview.png", "Thumbnails/thumbnail.png"}

// ErrNoImage is returned when a document holds no decodable raster.
var ErrNoImage = errors.New("document has no decodable image")

// Host serves one active document file.
type Host struct {
	active *Document
}

// New returns a host whose active document is docPath. An empty docPath
// means no document is open.
func New(docPath string) *Host {
	h := &Host{}
	if docPath != "" {
		h.active = &Document{path: docPath}
	}
	return h
}

// ActiveDocument returns the active document or nil.
func (h *Host) ActiveDocument() snapshot.Document {
	if h.active == nil {
		return nil
	}
	return h.active
}

// OpenDocument opens path without changing the active document.
func (h *Host) OpenDocument(path string) (snapshot.Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return &Document{path: path}, nil
}

// Document is a file-backed snapshot.Document. Canvas setters record
// values; the file content already carries them.
type Document struct {
	path     string
	override *snapshot.DocumentInfo
}

func (d *Document) Path() string { return d.path }

// Save checks the file still exists; edits are made by other programs.
func (d *Document) Save() error {
	_, err := os.Stat(d.path)
	return err
}

// ExportFlattened writes the document's flattened image to path as PNG.
func (d *Document) ExportFlattened(path string) error {
	img, err := d.decode()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// Thumbnail scales the flattened image to fit within w x h.
func (d *Document) Thumbnail(w, h int) ([]byte, error) {
	src, err := d.decode()
	if err != nil {
		return nil, err
	}
	dst := image.NewRGBA(fitWithin(src.Bounds(), w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin returns the largest rectangle with b's aspect ratio inside w x h.
func fitWithin(b image.Rectangle, w, h int) image.Rectangle {
	sw, sh := b.Dx(), b.Dy()
	if sw <= w && sh <= h {
		return image.Rect(0, 0, sw, sh)
	}
	tw, th := w, sh*w/sw
	if th > h {
		tw, th = sw*h/sh, h
	}
	return image.Rect(0, 0, max(tw, 1), max(th, 1))
}

// ReplaceAllLayers overwrites the file with from's bytes.
func (d *Document) ReplaceAllLayers(from snapshot.Document) error {
	if err := (snapshot.OSFileSystem{}).CopyFile(from.Path(), d.path); err != nil {
		return fmt.Errorf("copy %s: %w", filepath.Base(from.Path()), err)
	}
	d.override = nil
	return nil
}

func (d *Document) recorded() *snapshot.DocumentInfo {
	if d.override == nil {
		info := d.Info()
		d.override = &info
	}
	return d.override
}

func (d *Document) SetCanvasSize(w, h int) error {
	o := d.recorded()
	o.Width, o.Height = w, h
	return nil
}

func (d *Document) SetResolution(dpi float64) error {
	d.recorded().Resolution = dpi
	return nil
}

func (d *Document) SetColorModel(model, depth, profile string) error {
	o := d.recorded()
	o.ColorModel, o.ColorDepth, o.ColorProfile = model, depth, profile
	return nil
}

// Info reports recorded values, or what the image header says.
func (d *Document) Info() snapshot.DocumentInfo {
	if d.override != nil {
		return *d.override
	}
	info := snapshot.DocumentInfo{Resolution: DefaultResolution}
	rc, err := d.openRaster()
	if err != nil {
		return info
	}
	defer rc.Close()
	cfg, _, err := image.DecodeConfig(rc)
	if err != nil {
		return info
	}
	info.Width, info.Height = cfg.Width, cfg.Height
	info.ColorModel = colorModelName(cfg.ColorModel)
	info.ColorDepth = "U8"
	if strings.HasSuffix(info.ColorModel, "16") || strings.HasSuffix(info.ColorModel, "64") {
		info.ColorDepth = "U16"
	}
	return info
}

func (d *Document) Close() error { return nil }

// colorModelName names the standard library color models.
func colorModelName(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "Indexed"
	}
	switch m {
	case color.RGBAModel, color.NRGBAModel:
		return "RGBA"
	case color.RGBA64Model, color.NRGBA64Model:
		return "RGBA64"
	case color.GrayModel:
		return "Gray"
	case color.Gray16Model:
		return "Gray16"
	case color.CMYKModel:
		return "CMYK"
	case color.YCbCrModel, color.NYCbCrAModel:
		return "YCbCr"
	}
	return "RGBA"
}

func (d *Document) decode() (image.Image, error) {
	rc, err := d.openRaster()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoImage, filepath.Base(d.path), err)
	}
	return img, nil
}

// openRaster returns a reader over the document's flattened image.
func (d *Document) openRaster() (io.ReadCloser, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return nil, err
	}
	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil || string(magic[:]) != "PK\x03\x04" {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, err
		}
		return f, nil
	}
	f.Close()

	zr, err := zip.OpenReader(d.path)
	if err != nil {
		return nil, err
	}
	for _, name := range mergedEntries {
		for _, zf := range zr.File {
			if zf.Name != name {
				continue
			}
			rc, err := zf.Open()
			if err != nil {
				zr.Close()
				return nil, err
			}
			return &zipMember{ReadCloser: rc, archive: zr}, nil
		}
	}
	zr.Close()
	return nil, fmt.Errorf("%w: %s has no merged image", ErrNoImage, filepath.Base(d.path))
}

// zipMember closes its archive along with itself.
type zipMember struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (z *zipMember) Close() error {
	err := z.ReadCloser.Close()
	if cerr := z.archive.Close(); err == nil {
		err = cerr
	}
	return err
}
