package cas

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumB3(t *testing.T) {
	data := []byte("hello world")
	assert.Equal(t, SumB3(data), SumB3(data), "same data should produce same hash")
	assert.NotEqual(t, SumB3(data), SumB3([]byte("hello world!")))
}

func TestSumReaderMatchesSumB3(t *testing.T) {
	data := bytes.Repeat([]byte("layer"), 4096)

	streamed, err := SumReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, SumB3(data), streamed)
}

func TestSumFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.kra")
	data := []byte("fake kra document")
	require.NoError(t, os.WriteFile(path, data, 0644))

	h, err := SumFile(path)
	require.NoError(t, err)
	assert.Equal(t, SumB3(data), h)

	_, err = SumFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestParseHash(t *testing.T) {
	h := SumB3([]byte("x"))

	parsed, err := ParseHash(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	_, err = ParseHash("abcd")
	assert.Error(t, err, "short digest")
	_, err = ParseHash("zz")
	assert.Error(t, err, "non-hex digest")
}

func TestArtifactName(t *testing.T) {
	h := SumB3([]byte("snapshot"))
	assert.Equal(t, "snap_"+h.String()[:NameLen]+".kra", ArtifactName("snap", h, ".kra"))
	assert.True(t, Hash{}.IsZero())
	assert.False(t, h.IsZero())
}

func BenchmarkSumB3(b *testing.B) {
	data := make([]byte, 1024)
	for i := range data {
		data[i] = byte(i % 256)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = SumB3(data)
	}
}
