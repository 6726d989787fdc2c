package config

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-hvp/pkg/hvp"
	"github.com/tendant/simple-hvp/pkg/hvp/packagestore"
)

func exerciseComponents(t *testing.T, components *Components) {
	t.Helper()
	ctx := context.Background()

	key, err := components.Packages.Stage(ctx, []packagestore.File{
		{Path: "content/content.json", Body: strings.NewReader(`{"q":1}`)},
		{Path: "Foo-1.0/a.js", Body: strings.NewReader("var a;")},
	})
	require.NoError(t, err)

	libraryID, err := components.Service.SaveLibrary(ctx, &hvp.LibraryRecord{
		Library:     hvp.Library{MachineName: "Foo", MajorVersion: 1, MinorVersion: 0},
		PreloadedJS: "a.js",
	})
	require.NoError(t, err)

	id, err := components.Service.CreateInstance(ctx, hvp.CreateInstanceRequest{Name: "Quiz", UploadKey: key})
	require.NoError(t, err)
	require.NoError(t, components.Service.SetContentLibraries(ctx, id, []hvp.LibraryUsage{{LibraryID: libraryID}}))

	manifest, err := components.Service.ResolveAssetPaths(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"/hvp/files/libraries/Foo-1.0/a.js"}, manifest.PreloadedJS)

	deleted, err := components.Service.DeleteInstance(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	keys, err := components.Blobs.List(ctx, "content/")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestBuildService(t *testing.T) {
	tests := []struct {
		name string
		opts func(t *testing.T) []Option
	}{
		{
			name: "memory",
			opts: func(t *testing.T) []Option { return nil },
		},
		{
			name: "sqlite and filesystem",
			opts: func(t *testing.T) []Option {
				dir := t.TempDir()
				return []Option{
					WithDatabase(DatabaseSQLite, filepath.Join(dir, "hvp.db")),
					WithFilesystemStorage(filepath.Join(dir, "files")),
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(append(tt.opts(t), WithBasePath("/hvp"))...)
			require.NoError(t, err)

			components, err := cfg.BuildService(context.Background())
			require.NoError(t, err)
			defer components.Close()

			exerciseComponents(t, components)
		})
	}
}

func TestBuildService_InvalidPostgresURL(t *testing.T) {
	cfg, err := Load(WithDatabase(DatabasePostgres, "postgres://%zz"))
	require.NoError(t, err)

	_, err = cfg.BuildService(context.Background())
	assert.Error(t, err)
}

func TestPingPostgres_RequiresURL(t *testing.T) {
	assert.Error(t, PingPostgres(context.Background(), ""))
}
