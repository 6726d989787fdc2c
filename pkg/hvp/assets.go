package hvp

import (
	"context"
	"errors"
	"strings"
)

// DefaultFilesPath is the URL path under which package files are served.
const DefaultFilesPath = "/mod/hvp/files"

// AssetResolver turns the library dependencies of a content instance into
// the script and style URLs the runtime preloads.
type AssetResolver struct {
	repository Repository
	namer      Namer
	basePath   string
}

// NewAssetResolver creates a resolver. An empty basePath selects
// DefaultFilesPath.
func NewAssetResolver(repository Repository, namer Namer, basePath string) *AssetResolver {
	if basePath == "" {
		basePath = DefaultFilesPath
	}
	return &AssetResolver{
		repository: repository,
		namer:      namer,
		basePath:   strings.TrimRight(basePath, "/"),
	}
}

// Resolve returns the asset manifest of a content instance. An instance
// without dependencies, or one that does not exist, yields an empty manifest.
func (r *AssetResolver) Resolve(ctx context.Context, contentID int64) (AssetManifest, error) {
	deps, err := r.repository.ListDependencies(ctx, contentID)
	if err != nil && !errors.Is(err, ErrInstanceNotFound) {
		return AssetManifest{PreloadedJS: []string{}, PreloadedCSS: []string{}}, err
	}
	return BuildAssetManifest(deps, r.namer, r.basePath), nil
}

// BuildAssetManifest computes the manifest for dependency rows in the order
// given. Files listed by more than one dependency appear once per listing.
// DropCSS suppresses a dependency's styles but never its scripts.
func BuildAssetManifest(deps []LibraryDependency, namer Namer, basePath string) AssetManifest {
	manifest := AssetManifest{
		PreloadedJS:  []string{},
		PreloadedCSS: []string{},
	}

	for _, dep := range deps {
		libraryPath := basePath + "/libraries/" + namer.LibraryToString(dep.Library, true) + "/"
		if dep.PreloadedJS != "" {
			for _, file := range strings.Split(dep.PreloadedJS, ",") {
				manifest.PreloadedJS = append(manifest.PreloadedJS, libraryPath+strings.TrimSpace(file))
			}
		}
		if dep.PreloadedCSS != "" && !dep.DropCSS {
			for _, file := range strings.Split(dep.PreloadedCSS, ",") {
				manifest.PreloadedCSS = append(manifest.PreloadedCSS, libraryPath+strings.TrimSpace(file))
			}
		}
	}

	return manifest
}
