package uploads

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T, maxSize int64) *Storage {
	t.Helper()
	storage, err := NewStorage(t.TempDir(), maxSize)
	require.NoError(t, err)
	return storage
}

func TestNewStorage(t *testing.T) {
	t.Run("creates directory", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "uploads")
		storage, err := NewStorage(base, 0)
		require.NoError(t, err)
		assert.Equal(t, base, storage.BasePath())
		assert.DirExists(t, base)
	})

	t.Run("rejects empty base path", func(t *testing.T) {
		_, err := NewStorage("", 0)
		assert.Error(t, err)
	})
}

func TestStorageSave(t *testing.T) {
	t.Run("stores file with uuid name and original extension", func(t *testing.T) {
		storage := newTestStorage(t, 0)
		data := []byte("fake jpeg data")

		stored, err := storage.Save("lobby-photo.JPG", bytes.NewReader(data))
		require.NoError(t, err)

		assert.True(t, strings.HasSuffix(stored.Name, ".jpg"))
		assert.NotEqual(t, "lobby-photo.jpg", stored.Name)
		assert.Equal(t, int64(len(data)), stored.Size)
		assert.Equal(t, "image/jpeg", stored.MimeType)
		assert.True(t, stored.IsImage)

		onDisk, err := os.ReadFile(stored.Path)
		require.NoError(t, err)
		assert.Equal(t, data, onDisk)
	})

	t.Run("video extension is not an image", func(t *testing.T) {
		storage := newTestStorage(t, 0)

		stored, err := storage.Save("promo.mp4", strings.NewReader("not really a video"))
		require.NoError(t, err)
		assert.False(t, stored.IsImage)
		assert.Equal(t, "video/mp4", stored.MimeType)
	})

	t.Run("rejects unsupported extension", func(t *testing.T) {
		storage := newTestStorage(t, 0)

		_, err := storage.Save("payload.exe", strings.NewReader("nope"))
		assert.ErrorContains(t, err, "unsupported file type")
	})

	t.Run("rejects files over the size limit", func(t *testing.T) {
		storage := newTestStorage(t, 10)

		_, err := storage.Save("big.png", strings.NewReader("this is more than ten bytes"))
		assert.ErrorContains(t, err, "maximum size")

		// Nothing should be left behind.
		entries, readErr := os.ReadDir(storage.BasePath())
		require.NoError(t, readErr)
		assert.Empty(t, entries)
	})

	t.Run("accepts file exactly at the size limit", func(t *testing.T) {
		storage := newTestStorage(t, 10)

		stored, err := storage.Save("ok.png", strings.NewReader("0123456789"))
		require.NoError(t, err)
		assert.Equal(t, int64(10), stored.Size)
	})

	t.Run("two saves of the same name get distinct stored names", func(t *testing.T) {
		storage := newTestStorage(t, 0)

		first, err := storage.Save("same.png", strings.NewReader("a"))
		require.NoError(t, err)
		second, err := storage.Save("same.png", strings.NewReader("b"))
		require.NoError(t, err)
		assert.NotEqual(t, first.Name, second.Name)
	})
}

func TestStoragePath(t *testing.T) {
	storage := newTestStorage(t, 0)

	t.Run("joins name with base path", func(t *testing.T) {
		path, err := storage.Path("abc.jpg")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(storage.BasePath(), "abc.jpg"), path)
	})

	t.Run("rejects traversal", func(t *testing.T) {
		_, err := storage.Path("../escape.jpg")
		assert.Error(t, err)

		_, err = storage.Path("sub/dir.jpg")
		assert.Error(t, err)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := storage.Path("")
		assert.Error(t, err)
	})
}

func TestStorageExistsAndDelete(t *testing.T) {
	storage := newTestStorage(t, 0)

	stored, err := storage.Save("photo.png", strings.NewReader("data"))
	require.NoError(t, err)

	assert.True(t, storage.Exists(stored.Name))
	assert.False(t, storage.Exists("missing.png"))

	require.NoError(t, storage.Delete(stored.Name))
	assert.False(t, storage.Exists(stored.Name))

	// Deleting again is a no-op.
	assert.NoError(t, storage.Delete(stored.Name))
}
