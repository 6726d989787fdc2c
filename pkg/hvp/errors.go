package hvp

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrInstanceNotFound indicates a content instance was not found
	ErrInstanceNotFound = errors.New("content instance not found")

	// ErrLibraryNotFound indicates a library was not found
	ErrLibraryNotFound = errors.New("library not found")

	// ErrObjectNotFound indicates a stored package file was not found
	ErrObjectNotFound = errors.New("object not found")

	// ErrUploadNotFound indicates a staged upload was not found
	ErrUploadNotFound = errors.New("upload not found")
)

// InstanceError represents an error related to content instance rows
type InstanceError struct {
	ID  int64
	Op  string
	Err error
}

func (e *InstanceError) Error() string {
	return fmt.Sprintf("instance operation %s failed for instance %d: %v", e.Op, e.ID, e.Err)
}

func (e *InstanceError) Unwrap() error {
	return e.Err
}

// PackageError represents an error reported by the package storage engine
type PackageError struct {
	ID  int64
	Op  string
	Err error
}

func (e *PackageError) Error() string {
	return fmt.Sprintf("package operation %s failed for instance %d: %v", e.Op, e.ID, e.Err)
}

func (e *PackageError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to blob storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
