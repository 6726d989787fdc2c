// Package packagestore keeps package files in a blob store.
//
// Uploads are staged under temp/<key>/ with the package layout:
// content/... for the instance's own files and one directory per library,
// named in folder form (Foo-1.0). Saving a package moves the content files to
// content/<id>/ and copies library directories to libraries/<name>/ unless
// that library is already installed.
package packagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/simple-hvp/pkg/hvp"
)

const (
	tempPrefix      = "temp/"
	contentPrefix   = "content/"
	librariesPrefix = "libraries/"
)

// File is one file of an uploaded package
type File struct {
	Path string
	Body io.Reader
}

// Store implements hvp.PackageStorage on a BlobStore
type Store struct {
	blobs  hvp.BlobStore
	logger *slog.Logger
}

// New creates a package store
func New(blobs hvp.BlobStore, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{blobs: blobs, logger: logger}
}

// ContentKey returns the key of a content file of an instance
func ContentKey(contentID int64, file string) string {
	return contentPrefix + strconv.FormatInt(contentID, 10) + "/" + file
}

// LibraryKey returns the key of a library file
func LibraryKey(libraryFolder, file string) string {
	return librariesPrefix + libraryFolder + "/" + file
}

// Installed reports whether key belongs to installed content or a library.
// Staged uploads and other keys are not installed.
func Installed(key string) bool {
	for _, prefix := range []string{contentPrefix, librariesPrefix} {
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			return true
		}
	}
	return false
}

// Stage stores the files of an upload and returns the upload key
func (s *Store) Stage(ctx context.Context, files []File) (string, error) {
	if len(files) == 0 {
		return "", errors.New("upload has no files")
	}

	key := uuid.New().String()
	for _, f := range files {
		clean, err := cleanPath(f.Path)
		if err != nil {
			return "", err
		}
		if err := s.blobs.Put(ctx, tempPrefix+key+"/"+clean, f.Body, contentType(clean)); err != nil {
			return "", fmt.Errorf("failed to stage %s: %w", clean, err)
		}
	}

	s.logger.Info("Staged package upload", "upload_key", key, "files", len(files))
	return key, nil
}

// SavePackage installs a staged upload for a new instance. Without an upload
// key there is nothing to store.
func (s *Store) SavePackage(ctx context.Context, ref hvp.PackageRef) error {
	if ref.UploadKey == "" {
		return nil
	}
	return s.install(ctx, ref, false)
}

// UpdatePackage replaces the content files of an instance with a staged
// upload. It reports false when no upload is given.
func (s *Store) UpdatePackage(ctx context.Context, ref hvp.PackageRef) (bool, error) {
	if ref.UploadKey == "" {
		return false, nil
	}
	if err := s.install(ctx, ref, true); err != nil {
		return false, err
	}
	return true, nil
}

// DeletePackage removes the content files of an instance. Installed
// libraries are shared and stay in place.
func (s *Store) DeletePackage(ctx context.Context, contentID int64) error {
	return s.removePrefix(ctx, contentPrefix+strconv.FormatInt(contentID, 10)+"/")
}

// install copies a staged upload into place. With replace set, the existing
// content files are removed once the upload is known to exist.
func (s *Store) install(ctx context.Context, ref hvp.PackageRef, replace bool) error {
	staged := tempPrefix + ref.UploadKey + "/"
	keys, err := s.blobs.List(ctx, staged)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return hvp.ErrUploadNotFound
	}
	if replace {
		if err := s.removePrefix(ctx, contentPrefix+strconv.FormatInt(ref.ContentID, 10)+"/"); err != nil {
			return err
		}
	}

	installed := map[string]bool{}
	for _, key := range keys {
		rel := strings.TrimPrefix(key, staged)
		dir, file, ok := strings.Cut(rel, "/")
		if !ok {
			// Top-level files such as h5p.json describe the upload only.
			continue
		}

		var target string
		if dir == "content" {
			target = ContentKey(ref.ContentID, file)
		} else {
			done, seen := installed[dir]
			if !seen {
				existing, err := s.blobs.List(ctx, librariesPrefix+dir+"/")
				if err != nil {
					return err
				}
				done = len(existing) > 0
				installed[dir] = done
			}
			if done {
				continue
			}
			target = LibraryKey(dir, file)
		}

		if err := s.copy(ctx, key, target); err != nil {
			return err
		}
	}

	if err := s.removePrefix(ctx, staged); err != nil {
		s.logger.Warn("Failed to remove staged upload", "upload_key", ref.UploadKey, "err", err)
	}
	s.logger.Info("Installed package", "id", ref.ContentID, "upload_key", ref.UploadKey)
	return nil
}

func (s *Store) copy(ctx context.Context, from, to string) error {
	rc, err := s.blobs.Get(ctx, from)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", from, err)
	}
	defer rc.Close()

	if err := s.blobs.Put(ctx, to, rc, contentType(to)); err != nil {
		return fmt.Errorf("failed to write %s: %w", to, err)
	}
	return nil
}

func (s *Store) removePrefix(ctx context.Context, prefix string) error {
	keys, err := s.blobs.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, hvp.ErrObjectNotFound) {
			return err
		}
	}
	return nil
}

func cleanPath(p string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." {
		return "", fmt.Errorf("invalid package path %q", p)
	}
	return clean, nil
}

func contentType(p string) string {
	if t := mime.TypeByExtension(path.Ext(p)); t != "" {
		return t
	}
	return "application/octet-stream"
}
