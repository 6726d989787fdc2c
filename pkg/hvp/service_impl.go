package hvp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// service implements the Service interface
type service struct {
	repository Repository
	packages   PackageStorage
	core       Core
	logger     *slog.Logger
	filesPath  string
	modulePath string
	wwwRoot    string

	resolver  *AssetResolver
	assembler *SettingsAssembler
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithPackageStorage sets the package storage engine
func WithPackageStorage(packages PackageStorage) Option {
	return func(s *service) {
		s.packages = packages
	}
}

// WithCore sets the runtime core used for library naming and core assets
func WithCore(core Core) Option {
	return func(s *service) {
		s.core = core
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithWWWRoot sets the absolute site URL, e.g. https://lms.example.com
func WithWWWRoot(wwwRoot string) Option {
	return func(s *service) {
		s.wwwRoot = wwwRoot
	}
}

// WithModulePath sets the URL path of the module (default /mod/hvp)
func WithModulePath(path string) Option {
	return func(s *service) {
		s.modulePath = path
	}
}

// WithFilesPath sets the URL path package files are served from
// (default /mod/hvp/files)
func WithFilesPath(path string) Option {
	return func(s *service) {
		s.filesPath = path
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.packages == nil {
		return nil, fmt.Errorf("package storage is required")
	}
	if s.core == nil {
		return nil, fmt.Errorf("core is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.modulePath == "" {
		s.modulePath = DefaultModulePath
	}
	if s.filesPath == "" {
		s.filesPath = s.modulePath + "/files"
	}

	s.resolver = NewAssetResolver(s.repository, s.core, s.filesPath)
	s.assembler = NewSettingsAssembler(s.resolver, s.core, s.wwwRoot, s.modulePath, s.filesPath)

	return s, nil
}

// Content instance lifecycle

// CreateInstance inserts the row first because the package storage engine
// needs the new id. The id is returned even when saving the package fails.
func (s *service) CreateInstance(ctx context.Context, req CreateInstanceRequest) (int64, error) {
	id, err := s.repository.CreateInstance(ctx, &ContentInstance{
		Name:   req.Name,
		Course: req.Course,
	})
	if err != nil {
		return 0, &InstanceError{Op: "create", Err: err}
	}

	if err := s.packages.SavePackage(ctx, PackageRef{ContentID: id, UploadKey: req.UploadKey}); err != nil {
		s.logger.Warn("Failed to save package", "id", id, "err", err)
		return id, &PackageError{ID: id, Op: "save", Err: err}
	}

	s.logger.Info("Created hvp", "id", id, "course", req.Course)
	return id, nil
}

func (s *service) GetInstance(ctx context.Context, id int64) (*ContentInstance, error) {
	return s.repository.GetInstance(ctx, id)
}

func (s *service) UpdateInstance(ctx context.Context, req UpdateInstanceRequest) (*UpdateResult, error) {
	if req.Instance == nil {
		return nil, errors.New("instance is required")
	}

	id := req.Instance.ID
	if err := s.repository.UpdateInstance(ctx, req.Instance); err != nil {
		return &UpdateResult{}, &InstanceError{ID: id, Op: "update", Err: err}
	}

	result := &UpdateResult{RowUpdated: true}
	updated, err := s.packages.UpdatePackage(ctx, PackageRef{ContentID: id, UploadKey: req.UploadKey})
	if err != nil {
		s.logger.Warn("Failed to update package", "id", id, "err", err)
		result.PackageErr = &PackageError{ID: id, Op: "update", Err: err}
		return result, nil
	}
	result.PackageUpdated = updated

	return result, nil
}

// DeleteInstance removes the package and the row together. Both happen in one
// repository transaction so a failed package deletion leaves the row intact.
func (s *service) DeleteInstance(ctx context.Context, id int64) (bool, error) {
	instance, err := s.repository.GetInstanceRow(ctx, id)
	if err != nil {
		if errors.Is(err, ErrInstanceNotFound) {
			return false, nil
		}
		return false, &InstanceError{ID: id, Op: "delete", Err: err}
	}

	err = s.repository.InTx(ctx, func(tx Repository) error {
		if err := tx.DeleteLibraryUsage(ctx, instance.ID); err != nil {
			return &InstanceError{ID: instance.ID, Op: "delete_usage", Err: err}
		}
		if err := tx.DeleteInstance(ctx, instance.ID); err != nil {
			return &InstanceError{ID: instance.ID, Op: "delete", Err: err}
		}
		if err := s.packages.DeletePackage(ctx, instance.ID); err != nil {
			return &PackageError{ID: instance.ID, Op: "delete", Err: err}
		}
		return nil
	})

	result := err == nil
	s.logger.Debug("Deleted hvp", "id", instance.ID, "result", result)
	if err != nil {
		return false, err
	}
	return true, nil
}

// Library bookkeeping

func (s *service) SaveLibrary(ctx context.Context, library *LibraryRecord) (int64, error) {
	if library.Library.MachineName == "" {
		return 0, errors.New("machine name is required")
	}
	return s.repository.SaveLibrary(ctx, library)
}

func (s *service) GetLibrary(ctx context.Context, id int64) (*LibraryRecord, error) {
	return s.repository.GetLibrary(ctx, id)
}

// GetLibraryByName looks a library up by machine name and major.minor version.
func (s *service) GetLibraryByName(ctx context.Context, library Library) (*LibraryRecord, error) {
	return s.repository.GetLibraryByName(ctx, library)
}

func (s *service) SetContentLibraries(ctx context.Context, contentID int64, usages []LibraryUsage) error {
	if _, err := s.repository.GetInstanceRow(ctx, contentID); err != nil {
		return err
	}
	for i := range usages {
		if usages[i].DependencyType == "" {
			usages[i].DependencyType = DependencyPreloaded
		}
		if _, err := s.repository.GetLibrary(ctx, usages[i].LibraryID); err != nil {
			return fmt.Errorf("usage %d: %w", i, err)
		}
	}
	return s.repository.ReplaceLibraryUsage(ctx, contentID, usages)
}

// Rendering

func (s *service) ResolveAssetPaths(ctx context.Context, contentID int64) (AssetManifest, error) {
	return s.resolver.Resolve(ctx, contentID)
}

func (s *service) AddScriptsAndStyles(ctx context.Context, instance *ContentInstance, embedType EmbedType, renderer Renderer) (*Settings, error) {
	return s.assembler.Assemble(ctx, instance, embedType, renderer)
}

func (s *service) Supports(feature Feature) Support {
	return Supports(feature)
}
