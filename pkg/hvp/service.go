package hvp

import (
	"context"
)

// Service defines the main interface for the hvp host integration
type Service interface {
	// Content instance lifecycle
	CreateInstance(ctx context.Context, req CreateInstanceRequest) (int64, error)
	GetInstance(ctx context.Context, id int64) (*ContentInstance, error)
	UpdateInstance(ctx context.Context, req UpdateInstanceRequest) (*UpdateResult, error)
	DeleteInstance(ctx context.Context, id int64) (bool, error)

	// Library bookkeeping
	SaveLibrary(ctx context.Context, library *LibraryRecord) (int64, error)
	GetLibrary(ctx context.Context, id int64) (*LibraryRecord, error)
	GetLibraryByName(ctx context.Context, library Library) (*LibraryRecord, error)
	SetContentLibraries(ctx context.Context, contentID int64, usages []LibraryUsage) error

	// Rendering
	ResolveAssetPaths(ctx context.Context, contentID int64) (AssetManifest, error)
	AddScriptsAndStyles(ctx context.Context, instance *ContentInstance, embedType EmbedType, renderer Renderer) (*Settings, error)

	// Supports answers host feature queries
	Supports(feature Feature) Support
}
