// Package hvp integrates an H5P-style interactive content runtime into a
// learning-management host.
//
// It keeps content-instance rows in the host database, delegates package
// processing to a PackageStorage engine, resolves the script and style files
// an instance depends on, and assembles the settings bundle the embedded
// runtime reads when a page is rendered.
//
// Collaborators are passed in explicitly: a Repository for the host tables,
// a PackageStorage for package files, a Namer for library folder names and a
// Renderer that receives page-level asset registrations. Implementations of
// repositories (memory, Postgres, gorm) and blob stores (memory, filesystem,
// S3) are provided under subpackages.
//
// # Asset Ordering
//
// Asset paths are emitted in the order the Repository returns dependency
// rows. The bundled repositories order by usage weight and then link id, but
// that order is a property of the backend rather than of the resolver, and
// callers should not depend on it being identical across backends.
package hvp
