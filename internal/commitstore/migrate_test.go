package commitstore

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(s *Store) []string {
	var out []string
	for _, c := range s.InsertionOrder() {
		out = append(out, c.ID)
	}
	return out
}

func TestDecodeFlatList(t *testing.T) {
	data := []byte(`[
		{"id": "v_20240101_100000", "message": "first", "timestamp": "2024-01-01T10:00:00.123456",
		 "filename": "v_20240101_100000_cat.kra", "display_time": "2024-01-01 10:00:00"},
		{"id": "v_20240102_100000", "message": "second", "timestamp": "2024-01-02T10:00:00",
		 "filename": "v_20240102_100000_cat.kra", "display_time": "2024-01-02 10:00:00", "preview": "v_20240102_100000_cat.png"}
	]`)

	s, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"v_20240101_100000", "v_20240102_100000"}, ids(s))

	c, ok := s.Get("v_20240102_100000")
	require.True(t, ok)
	assert.Equal(t, "v_20240102_100000_cat.png", c.Preview)
	assert.Equal(t, "", c.Parent)

	_, hasHead := s.Head()
	assert.False(t, hasHead)
}

func TestDecodeBranchesStructure(t *testing.T) {
	// Branch creation copied the parent branch's list, so "sketch" repeats v1.
	data := []byte(`{
		"branches": ["main", "sketch"],
		"current_branch": "sketch",
		"commits": {
			"main": [
				{"id": "v1", "message": "base", "timestamp": "2024-01-01T10:00:00", "filename": "v1.kra", "branch": "main"}
			],
			"sketch": [
				{"id": "v1", "message": "base", "timestamp": "2024-01-01T10:00:00", "filename": "v1.kra", "branch": "main"},
				{"id": "v2", "message": "sketch pass", "timestamp": "2024-01-01T11:00:00", "filename": "v2.kra", "branch": "sketch"}
			]
		}
	}`)

	s, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, ids(s))

	out, err := s.Encode()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "branch")
}

func TestDecodeBranchToListWithoutIndex(t *testing.T) {
	data := []byte(`{"commits": {
		"main": [
			{"id": "a", "message": "one", "timestamp": "2024-02-01T09:00:00"},
			{"id": "b", "message": "two", "timestamp": "2024-02-01T09:05:00"}
		],
		"alt": [
			{"id": "c", "message": "three", "timestamp": "2024-02-01T09:10:00"}
		]
	}}`)

	s, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(s))
	for _, id := range []string{"a", "b", "c"} {
		c, ok := s.Get(id)
		require.True(t, ok)
		assert.Equal(t, id, c.ID)
	}
}

func TestDecodeSanitizesRecords(t *testing.T) {
	data := []byte(`{"commits": {
		"a": {"id": "a", "message": "keep", "timestamp": "2024-03-01T00:00:00Z"},
		"b": {"id": "b", "message": "no timestamp"},
		"c": "not a record",
		"d": {"id": "a", "message": "duplicate of a", "timestamp": "2024-03-02T00:00:00Z"},
		"e": {"message": "keyed only", "timestamp": "2024-03-03T00:00:00Z"},
		"f": {"id": "f", "message": "bad time", "timestamp": "yesterday"}
	}, "current_head": "a"}`)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Decode(data, WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "e", "f"}, ids(s))

	a, _ := s.Get("a")
	assert.Equal(t, "keep", a.Message)

	f, _ := s.Get("f")
	assert.True(t, f.Timestamp.IsZero())
	assert.Equal(t, "yesterday", f.DisplayTime)
	assert.Equal(t, "f", s.ListOrderedByTime(false)[0].ID)

	for _, key := range []string{"key=b", "key=c", "key=a reason=\"duplicate id\""} {
		assert.Contains(t, logs.String(), key)
	}

	head, ok := s.Head()
	require.True(t, ok)
	assert.Equal(t, "a", head)
}

func TestDecodeDropsDanglingHead(t *testing.T) {
	data := []byte(`{"commits": {"a": {"id": "a", "message": "m", "timestamp": "2024-03-01T00:00:00Z"}}, "current_head": "ghost"}`)

	s, err := Decode(data)
	require.NoError(t, err)
	_, ok := s.Head()
	assert.False(t, ok)
}

func TestDecodeSelfParentIsCleared(t *testing.T) {
	data := []byte(`{"commits": {"a": {"id": "a", "parent": "a", "message": "m", "timestamp": "2024-03-01T00:00:00Z"}}}`)

	s, err := Decode(data)
	require.NoError(t, err)
	a, _ := s.Get("a")
	assert.Equal(t, "", a.Parent)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "   ", "42", `"text"`, "{", `{"commits": [}`} {
		_, err := Decode([]byte(in))
		assert.Error(t, err, "input %q", in)
	}
}

func TestLoadFailsSoft(t *testing.T) {
	dir := t.TempDir()

	missing := Load(filepath.Join(dir, "absent.json"))
	assert.Equal(t, 0, missing.Len())

	corrupt := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(corrupt, []byte(`{"commits": {"a": {"id": "a", "timest`), 0644))
	s := Load(corrupt)
	assert.Equal(t, 0, s.Len())
	_, ok := s.Head()
	assert.False(t, ok)
	assert.Equal(t, corrupt, s.Path())

	_, err := Read(corrupt)
	assert.Error(t, err)
}

func TestLegacyFileUpgradedOnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	legacy := `[{"id": "v1", "message": "m", "timestamp": "2024-01-01T10:00:00", "filename": "v1.kra", "branch": "main"}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	s := Load(path)
	_, err := s.Append("next", "v2.kra", "")
	require.NoError(t, err)
	require.NoError(t, s.Save())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "{"))
	assert.Contains(t, text, `"current_head"`)
	assert.NotContains(t, text, `"branch"`)

	reloaded, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())
	assert.Equal(t, "v1", ids(reloaded)[0])
}
