package filehost

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanhut/artgit/internal/snapshot"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, pngBytes(t, w, h, c), 0644))
}

func writeKra(t *testing.T, path string, merged []byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("mimetype")
	require.NoError(t, err)
	_, err = w.Write([]byte("application/x-krita"))
	require.NoError(t, err)
	w, err = zw.Create("mergedimage.png")
	require.NoError(t, err)
	_, err = w.Write(merged)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestHostActiveDocument(t *testing.T) {
	assert.Nil(t, New("").ActiveDocument())

	doc := New("/art/cat.png").ActiveDocument()
	require.NotNil(t, doc)
	assert.Equal(t, "/art/cat.png", doc.Path())
}

func TestPNGInfoAndThumbnail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.png")
	writePNG(t, path, 400, 200, color.RGBA{R: 200, A: 255})
	doc := &Document{path: path}

	info := doc.Info()
	assert.Equal(t, 400, info.Width)
	assert.Equal(t, 200, info.Height)
	assert.Equal(t, "RGBA", info.ColorModel)
	assert.Equal(t, "U8", info.ColorDepth)
	assert.Equal(t, float64(DefaultResolution), info.Resolution)

	thumb, err := doc.Thumbnail(256, 256)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Width)
	assert.Equal(t, 128, cfg.Height)
}

func TestSmallImageIsNotUpscaled(t *testing.T) {
	assert.Equal(t, image.Rect(0, 0, 10, 20), fitWithin(image.Rect(0, 0, 10, 20), 256, 256))
	assert.Equal(t, image.Rect(0, 0, 128, 256), fitWithin(image.Rect(0, 0, 500, 1000), 256, 256))
	assert.Equal(t, image.Rect(0, 0, 256, 1), fitWithin(image.Rect(0, 0, 5000, 1), 256, 256))
}

func TestKraMergedImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.kra")
	writeKra(t, path, pngBytes(t, 64, 32, color.White))
	doc := &Document{path: path}

	info := doc.Info()
	assert.Equal(t, 64, info.Width)
	assert.Equal(t, 32, info.Height)

	thumb, err := doc.Thumbnail(16, 16)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Width)
	assert.Equal(t, 8, cfg.Height)

	out := filepath.Join(t.TempDir(), "flat.png")
	require.NoError(t, doc.ExportFlattened(out))
	flat, err := os.ReadFile(out)
	require.NoError(t, err)
	cfg, err = png.DecodeConfig(bytes.NewReader(flat))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
}

func TestNonImageDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))
	doc := &Document{path: path}

	_, err := doc.Thumbnail(256, 256)
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Zero(t, doc.Info().Width)
}

func TestSettersRecordValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	writePNG(t, path, 10, 10, color.Black)
	doc := &Document{path: path}

	require.NoError(t, doc.SetResolution(300))
	require.NoError(t, doc.SetCanvasSize(20, 30))
	require.NoError(t, doc.SetColorModel("CMYKA", "U16", "FOGRA39"))
	assert.Equal(t, snapshot.DocumentInfo{
		Width: 20, Height: 30, Resolution: 300,
		ColorModel: "CMYKA", ColorDepth: "U16", ColorProfile: "FOGRA39",
	}, doc.Info())
}

func TestVersioningPlainFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.png")
	red := pngBytes(t, 40, 40, color.RGBA{R: 255, A: 255})
	blue := pngBytes(t, 80, 40, color.RGBA{B: 255, A: 255})
	require.NoError(t, os.WriteFile(path, red, 0644))

	m := snapshot.NewManager(New(path))
	defer m.Close()

	first, err := m.Commit("red square")
	require.NoError(t, err)
	assert.NotEmpty(t, first.Preview)

	require.NoError(t, os.WriteFile(path, blue, 0644))
	_, err = m.Commit("blue banner")
	require.NoError(t, err)

	require.NoError(t, m.Restore(first.ID))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, red, got)
}
