package archive

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanhut/artgit/internal/errs"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := t.TempDir()
	files := map[string]string{
		"versions.json":    `{"commits":{},"current_head":null}`,
		"snap_0011.kra":    "layers",
		"prev_0011.png":    "thumb",
		"nested/extra.bin": "x",
		".versions-9.tmp":  "partial",
	}
	for name, body := range files {
		p := filepath.Join(src, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	}

	var buf bytes.Buffer
	n, err := Export(src, &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	dst := filepath.Join(t.TempDir(), "restored")
	n, err = Import(&buf, dst)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	for name, body := range files {
		got, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(name)))
		if name == ".versions-9.tmp" {
			assert.True(t, os.IsNotExist(err), "temporaries are not exported")
			continue
		}
		require.NoError(t, err, name)
		assert.Equal(t, body, string(got), name)
	}
}

func craft(t *testing.T, hdr *tar.Header, body string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	tw := tar.NewWriter(zw)
	hdr.Size = int64(len(body))
	require.NoError(t, tw.WriteHeader(hdr))
	_, err = tw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, zw.Close())
	return &buf
}

func TestImportRejectsUnsafeEntries(t *testing.T) {
	tests := []struct {
		name string
		hdr  *tar.Header
	}{
		{"parent escape", &tar.Header{Name: "../evil", Typeflag: tar.TypeReg, Mode: 0644}},
		{"nested escape", &tar.Header{Name: "a/../../evil", Typeflag: tar.TypeReg, Mode: 0644}},
		{"absolute", &tar.Header{Name: "/etc/evil", Typeflag: tar.TypeReg, Mode: 0644}},
		{"symlink", &tar.Header{Name: "link", Linkname: "/etc/passwd", Typeflag: tar.TypeSymlink}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			dst := filepath.Join(root, "out")
			_, err := Import(craft(t, tt.hdr, ""), dst)
			require.ErrorIs(t, err, ErrUnsafeEntry)
			assert.ErrorIs(t, err, errs.ErrValidation)
			_, statErr := os.Stat(filepath.Join(root, "evil"))
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	_, err := Import(bytes.NewReader([]byte("not zstd at all")), t.TempDir())
	assert.Error(t, err)
}
