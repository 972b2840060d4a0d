package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	base := filepath.Join(t.TempDir(), "images")

	_, err := New(base)
	require.NoError(t, err)

	for _, sub := range []string{"raw", "overlay"} {
		info, err := os.Stat(filepath.Join(base, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestImageStore_Filenames(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	store.now = func() time.Time {
		return time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
	}

	raw, overlay := store.Filenames(42)
	assert.Equal(t, "quote_42_20260825_103000_raw.png", raw)
	assert.Equal(t, "quote_42_20260825_103000_overlay.png", overlay)
}

func TestImageStore_SaveImages(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	rawName, overlayName := store.Filenames(7)
	require.NoError(t, store.SaveImages([]byte("raw-bytes"), []byte("overlay-bytes"), rawName, overlayName))

	raw, err := os.ReadFile(store.RawPath(rawName))
	require.NoError(t, err)
	assert.Equal(t, []byte("raw-bytes"), raw)

	overlay, err := os.ReadFile(store.OverlayPath(overlayName))
	require.NoError(t, err)
	assert.Equal(t, []byte("overlay-bytes"), overlay)
}
