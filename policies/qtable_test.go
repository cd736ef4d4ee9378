package policies

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQTableGetSet(t *testing.T) {
	q := NewQTable()

	assert.Equal(t, 0.5, q.Get("s1", "a1", 0.5))
	q.Set("s1", "a1", 2)
	assert.Equal(t, 2.0, q.Get("s1", "a1", 0.5))

	// Set overwrites, unlike Get's default seeding
	q.Set("s1", "a1", 3)
	assert.Equal(t, 3.0, q.Get("s1", "a1", 0))

	assert.True(t, q.HasState("s1"))
	assert.False(t, q.HasState("s2"))
}

func TestQTableMax(t *testing.T) {
	q := NewQTable()
	_, val := q.Max("unseen", -1)
	assert.Equal(t, -1.0, val)

	q.Set("s", "a", 1)
	q.Set("s", "b", 5)
	q.Set("s", "c", -2)

	action, val := q.Max("s", 0)
	assert.Equal(t, "b", action)
	assert.Equal(t, 5.0, val)

	action, val = q.MaxAmong("s", []string{"a", "c"}, 0)
	assert.Equal(t, "a", action)
	assert.Equal(t, 1.0, val)

	// unseen actions get the default, which can win
	action, _ = q.MaxAmong("s", []string{"c", "new"}, 0)
	assert.Equal(t, "new", action)
}

func TestQTableRecordRead(t *testing.T) {
	q := NewQTable()
	q.Set("s1", "a1", 1.5)
	q.Set("s2", "a2", -0.25)

	path := filepath.Join(t.TempDir(), "qtable.json")
	require.NoError(t, q.Record(path))

	loaded, err := ReadQTable(path)
	require.NoError(t, err)
	assert.Equal(t, 1.5, loaded.Get("s1", "a1", 0))
	assert.Equal(t, -0.25, loaded.Get("s2", "a2", 0))
	assert.Equal(t, 2, loaded.NumStates())

	values, ok := loaded.GetAll("s1")
	require.True(t, ok)
	assert.Equal(t, map[string]float64{"a1": 1.5}, values)

	_, err = ReadQTable(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
