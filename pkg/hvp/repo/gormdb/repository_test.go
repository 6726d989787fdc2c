package gormdb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-hvp/pkg/hvp"
	"github.com/tendant/simple-hvp/pkg/hvp/repo/gormdb"
)

func setupTestRepository(t *testing.T) hvp.Repository {
	t.Helper()
	db, err := gormdb.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gormdb.New(db)
}

func TestGormRepository_InstanceLifecycle(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	id, err := repo.CreateInstance(ctx, &hvp.ContentInstance{Name: "Quiz", Course: 3})
	require.NoError(t, err)
	assert.NotZero(t, id)

	row, err := repo.GetInstanceRow(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Quiz", row.Name)
	assert.Equal(t, int64(3), row.Course)
	assert.Zero(t, row.MainLibraryID)

	_, err = repo.GetInstance(ctx, id)
	assert.ErrorIs(t, err, hvp.ErrInstanceNotFound)

	libID, err := repo.SaveLibrary(ctx, &hvp.LibraryRecord{
		Library:    hvp.Library{MachineName: "H5P.Foo", MajorVersion: 1, MinorVersion: 0},
		Fullscreen: true,
		EmbedTypes: "div",
	})
	require.NoError(t, err)

	row.MainLibraryID = libID
	row.JSONContent = `{"question":"?"}`
	row.EmbedType = "div"
	require.NoError(t, repo.UpdateInstance(ctx, row))

	instance, err := repo.GetInstance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "H5P.Foo", instance.MainLibrary.MachineName)
	assert.Equal(t, 1, instance.MainLibrary.MajorVersion)
	assert.True(t, instance.Fullscreen)
	assert.Equal(t, `{"question":"?"}`, instance.JSONContent)

	assert.ErrorIs(t, repo.UpdateInstance(ctx, &hvp.ContentInstance{ID: 999}), hvp.ErrInstanceNotFound)

	require.NoError(t, repo.DeleteInstance(ctx, id))
	_, err = repo.GetInstanceRow(ctx, id)
	assert.ErrorIs(t, err, hvp.ErrInstanceNotFound)
	assert.ErrorIs(t, repo.DeleteInstance(ctx, id), hvp.ErrInstanceNotFound)
}

func TestGormRepository_SaveLibraryUpsertsByName(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	lib := hvp.Library{MachineName: "Foo", MajorVersion: 1, MinorVersion: 0}

	first, err := repo.SaveLibrary(ctx, &hvp.LibraryRecord{Library: lib, PreloadedJS: "a.js"})
	require.NoError(t, err)
	second, err := repo.SaveLibrary(ctx, &hvp.LibraryRecord{Library: lib, PreloadedJS: "b.js"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	got, err := repo.GetLibraryByName(ctx, lib)
	require.NoError(t, err)
	assert.Equal(t, "b.js", got.PreloadedJS)

	_, err = repo.GetLibrary(ctx, 4242)
	assert.ErrorIs(t, err, hvp.ErrLibraryNotFound)
}

func TestGormRepository_ListDependencies(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	foo, err := repo.SaveLibrary(ctx, &hvp.LibraryRecord{
		Library:      hvp.Library{MachineName: "Foo", MajorVersion: 1, MinorVersion: 0},
		PreloadedJS:  "a.js, b.js",
		PreloadedCSS: "s.css",
	})
	require.NoError(t, err)
	bar, err := repo.SaveLibrary(ctx, &hvp.LibraryRecord{
		Library:     hvp.Library{MachineName: "Bar", MajorVersion: 2, MinorVersion: 3},
		PreloadedJS: "bar.js",
	})
	require.NoError(t, err)

	id, err := repo.CreateInstance(ctx, &hvp.ContentInstance{Name: "Deps"})
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceLibraryUsage(ctx, id, []hvp.LibraryUsage{
		{LibraryID: foo, DependencyType: hvp.DependencyPreloaded, Weight: 1, DropCSS: true},
		{LibraryID: bar, DependencyType: hvp.DependencyPreloaded, Weight: 0},
	}))

	deps, err := repo.ListDependencies(ctx, id)
	require.NoError(t, err)
	require.Len(t, deps, 2)
	assert.Equal(t, "Bar", deps[0].Library.MachineName)
	assert.Equal(t, 3, deps[0].Library.MinorVersion)
	assert.Equal(t, "Foo", deps[1].Library.MachineName)
	assert.Equal(t, "a.js, b.js", deps[1].PreloadedJS)
	assert.True(t, deps[1].DropCSS)

	// Replacing drops the previous usages.
	require.NoError(t, repo.ReplaceLibraryUsage(ctx, id, []hvp.LibraryUsage{
		{LibraryID: bar, DependencyType: hvp.DependencyPreloaded},
	}))
	deps, err = repo.ListDependencies(ctx, id)
	require.NoError(t, err)
	require.Len(t, deps, 1)

	deps, err = repo.ListDependencies(ctx, 777)
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestGormRepository_InTxRollsBack(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	id, err := repo.CreateInstance(ctx, &hvp.ContentInstance{Name: "Tx"})
	require.NoError(t, err)

	err = repo.InTx(ctx, func(tx hvp.Repository) error {
		require.NoError(t, tx.DeleteInstance(ctx, id))
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	_, err = repo.GetInstanceRow(ctx, id)
	assert.NoError(t, err)

	require.NoError(t, repo.InTx(ctx, func(tx hvp.Repository) error {
		return tx.DeleteInstance(ctx, id)
	}))
	_, err = repo.GetInstanceRow(ctx, id)
	assert.ErrorIs(t, err, hvp.ErrInstanceNotFound)
}
