package blob

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG.
var pngPixel, _ = base64.StdEncoding.DecodeString("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=")

func TestDecodeImage(t *testing.T) {
	t.Parallel()

	raw := base64.StdEncoding.EncodeToString(pngPixel)

	t.Run("plain base64", func(t *testing.T) {
		img, err := DecodeImage(raw, 0)
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.ContentType)
		assert.Equal(t, ".png", img.Extension)
		assert.Equal(t, pngPixel, img.Data)
	})

	t.Run("data url", func(t *testing.T) {
		img, err := DecodeImage("data:image/png;base64,"+raw, 1024)
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.ContentType)
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := DecodeImage(base64.StdEncoding.EncodeToString([]byte("hello world, plain text")), 0)
		assert.ErrorIs(t, err, ErrInvalidImage)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := DecodeImage("%%%not-base64", 0)
		assert.ErrorIs(t, err, ErrInvalidImage)

		_, err = DecodeImage("data:image/png,abc", 0)
		assert.ErrorIs(t, err, ErrInvalidImage)

		_, err = DecodeImage("   ", 0)
		assert.ErrorIs(t, err, ErrInvalidImage)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := DecodeImage(raw, 10)
		assert.ErrorIs(t, err, ErrImageTooLarge)
	})
}

func TestProjectImageKey(t *testing.T) {
	t.Parallel()

	key := ProjectImageKey(42, "before", ".png")
	assert.True(t, strings.HasPrefix(key, "projects/42/before-"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.NotEqual(t, key, ProjectImageKey(42, "before", ".png"))
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s, err := NewLocalStorage(root, "/uploads/")
	require.NoError(t, err)

	url, err := s.Upload(context.Background(), pngPixel, "projects/1/before.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/projects/1/before.png", url)

	got, err := os.ReadFile(filepath.Join(root, "projects", "1", "before.png"))
	require.NoError(t, err)
	assert.Equal(t, pngPixel, got)

	key, ok := s.KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, "projects/1/before.png", key)

	require.NoError(t, s.Delete(context.Background(), key))
	assert.ErrorIs(t, s.Delete(context.Background(), key), ErrNotFound)
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	t.Parallel()

	s, err := NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), []byte("x"), "../escape.png", "image/png")
	assert.Error(t, err)

	_, ok := s.KeyFromURL("https://elsewhere.example/a.png")
	assert.False(t, ok)
}
