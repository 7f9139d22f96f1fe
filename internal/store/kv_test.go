package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanhut/artgit/internal/cas"
)

func TestPutAndLookupArtifacts(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	defer db.Close()

	snap := cas.SumB3([]byte("snapshot"))
	prev := cas.SumB3([]byte("preview"))
	require.NoError(t, db.PutArtifacts("v_1", snap, prev))
	require.NoError(t, db.PutArtifacts("v_2", snap, cas.Hash{}))

	got, err := db.SnapshotDigest("v_1")
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	got, err = db.PreviewDigest("v_1")
	require.NoError(t, err)
	assert.Equal(t, prev, got)

	_, err = db.PreviewDigest("v_2")
	assert.True(t, errors.Is(err, ErrNoEntry))

	_, err = db.SnapshotDigest("unknown")
	assert.True(t, errors.Is(err, ErrNoEntry))

	ids, err := db.CommitIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"v_1", "v_2"}, ids)
}

func TestIndexSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	snap := cas.SumB3([]byte("persist me"))

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.PutArtifacts("v_1", snap, cas.Hash{}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.SnapshotDigest("v_1")
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}
