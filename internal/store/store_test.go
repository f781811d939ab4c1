package store

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenInMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.NoError(t, s.Close())
}

func TestSetGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	r := s.ForRun("run-1")
	require.NoError(t, r.Reset())

	require.NoError(t, r.Set("language", "python"))

	var lang string
	require.NoError(t, r.Get("language", &lang))
	assert.Equal(t, "python", lang)
}

func TestGetMissingKeyIsNotFound(t *testing.T) {
	s := openTestStore(t)
	r := s.ForRun("run-1")
	require.NoError(t, r.Reset())

	var v string
	err := r.Get("never_written", &v)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "never_written")
}

func TestResetClearsNamespace(t *testing.T) {
	s := openTestStore(t)
	r := s.ForRun("run-1")
	require.NoError(t, r.Reset())
	require.NoError(t, r.Set("k", 1))
	require.NoError(t, r.AppendToList("l", "a"))

	require.NoError(t, r.Reset())

	var v int
	assert.ErrorIs(t, r.Get("k", &v), ErrNotFound)
	list, err := r.GetList("l")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWriteBeforeResetRejected(t *testing.T) {
	s := openTestStore(t)
	r := s.ForRun("run-1")

	err := r.Set("k", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reset")

	err = r.AppendToList("l", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reset")
}

func TestLastWriterWins(t *testing.T) {
	s := openTestStore(t)
	r := s.ForRun("run-1")
	require.NoError(t, r.Reset())

	require.NoError(t, r.Set("k", "first"))
	require.NoError(t, r.Set("k", "second"))

	var v string
	require.NoError(t, r.Get("k", &v))
	assert.Equal(t, "second", v)
}

func TestAppendToListPreservesOrder(t *testing.T) {
	s := openTestStore(t)
	r := s.ForRun("run-1")
	require.NoError(t, r.Reset())

	for i := 0; i < 5; i++ {
		require.NoError(t, r.AppendToList("trace", fmt.Sprintf("entry-%d", i)))
	}

	list, err := r.GetList("trace")
	require.NoError(t, err)
	require.Len(t, list, 5)
	for i, raw := range list {
		var v string
		require.NoError(t, json.Unmarshal(raw, &v))
		assert.Equal(t, fmt.Sprintf("entry-%d", i), v)
	}
}

func TestNamespaceIsolation(t *testing.T) {
	s := openTestStore(t)
	a := s.ForRun("run-a")
	b := s.ForRun("run-b")
	require.NoError(t, a.Reset())
	require.NoError(t, b.Reset())

	require.NoError(t, a.Set("k", "from-a"))
	require.NoError(t, b.Set("k", "from-b"))
	require.NoError(t, a.AppendToList("l", 1))

	// One run's reset never touches the other's in-flight data.
	require.NoError(t, b.Reset())

	var v string
	require.NoError(t, a.Get("k", &v))
	assert.Equal(t, "from-a", v)
	list, err := a.GetList("l")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, b.Get("k", &v), ErrNotFound)
}

func TestRevisionsAndStageAttribution(t *testing.T) {
	s := openTestStore(t)
	r := s.ForRun("run-1")
	require.NoError(t, r.Reset())

	r.SetStage("extraction")
	require.NoError(t, r.Set("structure", map[string]int{"files": 3}))
	r.SetStage("generation")
	require.NoError(t, r.Set("draft", "text"))
	require.NoError(t, r.AppendToList("trace", "generated"))

	entries, err := r.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "structure", entries[0].Key)
	assert.Equal(t, "extraction", entries[0].Stage)
	assert.Equal(t, int64(1), entries[0].Revision)

	assert.Equal(t, "draft", entries[1].Key)
	assert.Equal(t, "generation", entries[1].Stage)
	assert.Equal(t, int64(2), entries[1].Revision)

	assert.Equal(t, "trace", entries[2].Key)
	assert.Equal(t, int64(3), entries[2].Revision)
}

func TestGetRaw(t *testing.T) {
	s := openTestStore(t)
	r := s.ForRun("run-1")
	require.NoError(t, r.Reset())

	require.NoError(t, r.Set("obj", map[string]string{"a": "b"}))
	raw, err := r.GetRaw("obj")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"b"}`, string(raw))
}

func TestStructuredValues(t *testing.T) {
	type record struct {
		Name  string `json:"name"`
		Score float64
	}
	s := openTestStore(t)
	r := s.ForRun("run-1")
	require.NoError(t, r.Reset())

	require.NoError(t, r.Set("rec", record{Name: "arch", Score: 7.5}))
	var got record
	require.NoError(t, r.Get("rec", &got))
	assert.Equal(t, record{Name: "arch", Score: 7.5}, got)
}
