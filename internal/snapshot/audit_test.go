package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditCleanHistory(t *testing.T) {
	h := newFakeHost(t, "pixels", smallCanvas)
	m := newTestManager(t, h)
	_, err := m.Commit("init")
	require.NoError(t, err)

	report, err := m.Audit()
	require.NoError(t, err)
	assert.True(t, report.Clean(), "%+v", report)
}

func TestAuditReportsMissingAndOrphans(t *testing.T) {
	h := newFakeHost(t, "one", smallCanvas)
	m := newTestManager(t, h)
	a, err := m.Commit("init")
	require.NoError(t, err)
	h.active.content = []byte("two")
	_, err = m.Commit("more")
	require.NoError(t, err)

	dir := VersionsDir(h.active.path)
	require.NoError(t, os.Remove(filepath.Join(dir, a.Filename)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.png"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".versions-123.tmp"), []byte("x"), 0644))

	report, err := m.Audit()
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.Equal(t, []string{a.ID}, report.Missing)
	assert.Equal(t, []string{"stray.png"}, report.Orphans)
}

func TestAuditReportsCorruptArtifacts(t *testing.T) {
	h := newFakeHost(t, "pixels", smallCanvas)
	m := newTestManager(t, h)
	c, err := m.Commit("init")
	require.NoError(t, err)
	require.NotEmpty(t, c.Preview)

	dir := VersionsDir(h.active.path)
	require.NoError(t, os.WriteFile(filepath.Join(dir, c.Preview), []byte("scribbled"), 0644))

	report, err := m.Audit()
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.Empty(t, report.Missing)
	assert.Empty(t, report.Orphans)
	assert.Equal(t, []string{c.Preview}, report.Corrupt)

	require.NoError(t, os.WriteFile(filepath.Join(dir, c.Filename), []byte("bitrot"), 0644))
	report, err = m.Audit()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{c.Filename, c.Preview}, report.Corrupt)
}
