package hvp_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-hvp/pkg/hvp"
	"github.com/tendant/simple-hvp/pkg/hvp/core"
	"github.com/tendant/simple-hvp/pkg/hvp/repo/memory"
)

var errPackage = errors.New("package engine failed")

// fakePackages records calls to the package storage engine.
type fakePackages struct {
	saveErr   error
	updateErr error
	deleteErr error
	updated   bool

	saves   []hvp.PackageRef
	updates []hvp.PackageRef
	deletes []int64
}

func (f *fakePackages) SavePackage(ctx context.Context, ref hvp.PackageRef) error {
	f.saves = append(f.saves, ref)
	return f.saveErr
}

func (f *fakePackages) UpdatePackage(ctx context.Context, ref hvp.PackageRef) (bool, error) {
	f.updates = append(f.updates, ref)
	return f.updated, f.updateErr
}

func (f *fakePackages) DeletePackage(ctx context.Context, contentID int64) error {
	f.deletes = append(f.deletes, contentID)
	return f.deleteErr
}

func (f *fakePackages) calls() int {
	return len(f.saves) + len(f.updates) + len(f.deletes)
}

// countingRepository counts row mutations made through it or its
// transactions.
type countingRepository struct {
	hvp.Repository
	writes *int
}

func (r countingRepository) DeleteInstance(ctx context.Context, id int64) error {
	*r.writes++
	return r.Repository.DeleteInstance(ctx, id)
}

func (r countingRepository) DeleteLibraryUsage(ctx context.Context, contentID int64) error {
	*r.writes++
	return r.Repository.DeleteLibraryUsage(ctx, contentID)
}

func (r countingRepository) InTx(ctx context.Context, fn func(hvp.Repository) error) error {
	*r.writes++
	return r.Repository.InTx(ctx, func(tx hvp.Repository) error {
		return fn(countingRepository{Repository: tx, writes: r.writes})
	})
}

// recordingRenderer keeps every registration in call order.
type recordingRenderer struct {
	stylesheets []string
	scripts     []string
	strings     []string
	data        map[string]interface{}
}

func (r *recordingRenderer) Stylesheet(url string) {
	r.stylesheets = append(r.stylesheets, url)
}

func (r *recordingRenderer) Script(url string, inHead bool) {
	r.scripts = append(r.scripts, url)
}

func (r *recordingRenderer) LocalizedString(key, component string) {
	r.strings = append(r.strings, component+":"+key)
}

func (r *recordingRenderer) Data(namespace string, value interface{}, inHead bool) {
	if r.data == nil {
		r.data = map[string]interface{}{}
	}
	r.data[namespace] = value
}

// fooFixture stores a library Foo 1.0 and an instance that uses it.
func fooFixture(t *testing.T, repo hvp.Repository) *hvp.ContentInstance {
	t.Helper()
	ctx := context.Background()

	libraryID, err := repo.SaveLibrary(ctx, &hvp.LibraryRecord{
		Library:      hvp.Library{MachineName: "Foo", MajorVersion: 1, MinorVersion: 0},
		Title:        "Foo",
		Runnable:     true,
		Fullscreen:   true,
		EmbedTypes:   "div,iframe",
		PreloadedJS:  "a.js, b.js",
		PreloadedCSS: "s.css",
	})
	require.NoError(t, err)

	id, err := repo.CreateInstance(ctx, &hvp.ContentInstance{
		Name:          "Quiz",
		Course:        2,
		JSONContent:   `{"question":"?"}`,
		MainLibraryID: libraryID,
	})
	require.NoError(t, err)

	require.NoError(t, repo.ReplaceLibraryUsage(ctx, id, []hvp.LibraryUsage{
		{LibraryID: libraryID, DependencyType: hvp.DependencyPreloaded},
	}))

	instance, err := repo.GetInstance(ctx, id)
	require.NoError(t, err)
	return instance
}

func newTestService(t *testing.T, packages hvp.PackageStorage, opts ...hvp.Option) (hvp.Service, hvp.Repository) {
	t.Helper()
	repo := memory.New()
	svc, err := hvp.New(append([]hvp.Option{
		hvp.WithRepository(repo),
		hvp.WithPackageStorage(packages),
		hvp.WithCore(core.New()),
	}, opts...)...)
	require.NoError(t, err)
	return svc, repo
}
