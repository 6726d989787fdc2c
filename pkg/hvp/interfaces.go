package hvp

import (
	"context"
	"io"
)

// Repository defines persistence for content instances, libraries and the
// links between them.
type Repository interface {
	// Content instance operations
	CreateInstance(ctx context.Context, instance *ContentInstance) (int64, error)
	GetInstanceRow(ctx context.Context, id int64) (*ContentInstance, error)
	GetInstance(ctx context.Context, id int64) (*ContentInstance, error)
	UpdateInstance(ctx context.Context, instance *ContentInstance) error
	DeleteInstance(ctx context.Context, id int64) error

	// ListDependencies returns the libraries used by a content instance in
	// the repository's natural order.
	ListDependencies(ctx context.Context, contentID int64) ([]LibraryDependency, error)

	// Library operations
	SaveLibrary(ctx context.Context, library *LibraryRecord) (int64, error)
	GetLibrary(ctx context.Context, id int64) (*LibraryRecord, error)
	GetLibraryByName(ctx context.Context, library Library) (*LibraryRecord, error)

	// Library usage operations
	ReplaceLibraryUsage(ctx context.Context, contentID int64, usages []LibraryUsage) error
	DeleteLibraryUsage(ctx context.Context, contentID int64) error

	// InTx runs fn against a repository bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Repository) error) error
}

// PackageStorage is the engine that owns package files on disk or in a blob
// store.
type PackageStorage interface {
	// SavePackage stores the files of a newly created content instance.
	SavePackage(ctx context.Context, ref PackageRef) error

	// UpdatePackage replaces the files of an existing content instance and
	// reports whether anything was replaced.
	UpdatePackage(ctx context.Context, ref PackageRef) (bool, error)

	// DeletePackage removes every file of a content instance.
	DeletePackage(ctx context.Context, contentID int64) error
}

// Namer renders a library descriptor as the string the package storage uses
// for library folders.
type Namer interface {
	LibraryToString(library Library, folderName bool) string
}

// Core is the runtime core: it names libraries and lists the runtime's own
// scripts and styles, relative to the runtime library directory.
type Core interface {
	Namer
	Scripts() []string
	Styles() []string
}

// Renderer receives page-level asset registrations for the page being
// rendered.
type Renderer interface {
	Stylesheet(url string)
	Script(url string, inHead bool)
	LocalizedString(key, component string)
	Data(namespace string, value interface{}, inHead bool)
}

// BlobStore defines the interface for package file storage backends
type BlobStore interface {
	// Put stores an object, replacing any existing object with the same key
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Get opens an object for reading
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object
	Delete(ctx context.Context, key string) error

	// List returns the keys of all objects under prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)
}
