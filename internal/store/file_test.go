package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/store"
)

func TestFileStorage_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	fs, err := store.NewFileStorage(dir)
	require.NoError(t, err)

	_, err = fs.Get("weather-history")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, fs.Set("weather-history", []byte(`{"a":[]}`)))
	require.NoError(t, fs.Set("weather-history", []byte(`{"b":[]}`)))

	got, err := fs.Get("weather-history")
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":[]}`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "weather-history.json", entries[0].Name())
}

func TestFileStorage_RejectsPathKeys(t *testing.T) {
	fs, err := store.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, fs.Set("../escape", []byte("x")))
	_, err = fs.Get("a/b")
	assert.Error(t, err)
}

func TestFileStorage_BacksHistory(t *testing.T) {
	fs, err := store.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	h, _ := openTest(t, fs)
	h.Append("vienna", obsAt(0))
	h.Append("vienna", obsAt(1))

	reopened, _ := openTest(t, fs)
	assert.Len(t, reopened.ForLocation("vienna"), 2)
}
