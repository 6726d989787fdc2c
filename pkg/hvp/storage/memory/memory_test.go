package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-hvp/pkg/hvp"
)

func TestMemoryBackend(t *testing.T) {
	backend := New()
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, "content/1/content.json", strings.NewReader(`{}`), "application/json"))
	require.NoError(t, backend.Put(ctx, "content/1/images/a.png", strings.NewReader("png"), ""))
	require.NoError(t, backend.Put(ctx, "content/10/content.json", strings.NewReader(`{}`), ""))

	t.Run("Get", func(t *testing.T) {
		rc, err := backend.Get(ctx, "content/1/content.json")
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, `{}`, string(data))
		assert.Equal(t, "application/json", backend.ContentType("content/1/content.json"))
		assert.Equal(t, "application/octet-stream", backend.ContentType("content/1/images/a.png"))
	})

	t.Run("List", func(t *testing.T) {
		keys, err := backend.List(ctx, "content/1/")
		require.NoError(t, err)
		assert.Equal(t, []string{"content/1/content.json", "content/1/images/a.png"}, keys)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, backend.Delete(ctx, "content/1/content.json"))
		_, err := backend.Get(ctx, "content/1/content.json")
		assert.ErrorIs(t, err, hvp.ErrObjectNotFound)
		assert.ErrorIs(t, backend.Delete(ctx, "content/1/content.json"), hvp.ErrObjectNotFound)
	})
}
