package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-hvp/pkg/hvp"
)

func TestFilesystemBackend(t *testing.T) {
	dir := t.TempDir()
	backend, err := New(Config{BaseDir: dir})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, "libraries/Foo-1.0/a.js", strings.NewReader("a"), "text/javascript"))
	require.NoError(t, backend.Put(ctx, "libraries/Foo-1.0/styles/s.css", strings.NewReader("s"), "text/css"))

	rc, err := backend.Get(ctx, "libraries/Foo-1.0/a.js")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	keys, err := backend.List(ctx, "libraries/Foo-1.0/")
	require.NoError(t, err)
	assert.Equal(t, []string{"libraries/Foo-1.0/a.js", "libraries/Foo-1.0/styles/s.css"}, keys)

	require.NoError(t, backend.Delete(ctx, "libraries/Foo-1.0/styles/s.css"))
	_, err = os.Stat(filepath.Join(dir, "libraries", "Foo-1.0", "styles"))
	assert.True(t, os.IsNotExist(err), "empty directory should be removed")

	_, err = backend.Get(ctx, "libraries/Foo-1.0/styles/s.css")
	assert.ErrorIs(t, err, hvp.ErrObjectNotFound)
	assert.ErrorIs(t, backend.Delete(ctx, "missing"), hvp.ErrObjectNotFound)
}

func TestFilesystemBackend_RejectsEscapingKeys(t *testing.T) {
	backend, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	err = backend.Put(context.Background(), "../outside.txt", strings.NewReader("x"), "")
	assert.Error(t, err)
}

func TestFilesystemBackend_RequiresBaseDir(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
