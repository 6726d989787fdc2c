package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-hvp/pkg/hvp"
	"github.com/tendant/simple-hvp/pkg/hvp/core"
	"github.com/tendant/simple-hvp/pkg/hvp/packagestore"
	"github.com/tendant/simple-hvp/pkg/hvp/repo/gormdb"
	"github.com/tendant/simple-hvp/pkg/hvp/repo/memory"
	repopg "github.com/tendant/simple-hvp/pkg/hvp/repo/postgres"
	fsstorage "github.com/tendant/simple-hvp/pkg/hvp/storage/fs"
	memorystorage "github.com/tendant/simple-hvp/pkg/hvp/storage/memory"
	s3storage "github.com/tendant/simple-hvp/pkg/hvp/storage/s3"
)

// Database types
const (
	DatabaseMemory   = "memory"
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"
	DatabaseMySQL    = "mysql"
)

// Storage types
const (
	StorageMemory = "memory"
	StorageFS     = "fs"
	StorageS3     = "s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:           "8080",
		Environment:    "development",
		DatabaseType:   DatabaseMemory,
		AutoMigrate:    true,
		Storage:        StorageConfig{Type: StorageMemory},
		ModulePath:     hvp.DefaultModulePath,
		MaxUploadBytes: 64 << 20,
	}
}

// ServerConfig represents configuration for the hvp service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string // postgres URL, sqlite file path or mysql DSN
	DatabaseType string // "memory", "postgres", "sqlite", "mysql"
	DBSchema     string // Postgres schema to use (optional)
	AutoMigrate  bool   // create the hvp tables on start

	// Package file storage
	Storage StorageConfig

	// URLs the runtime is served under
	WWWRoot    string // absolute site URL, e.g. https://lms.example.com
	ModulePath string // default /mod/hvp

	MaxUploadBytes int64

	Logger *slog.Logger
}

// StorageConfig selects and configures the blob store backing package files
type StorageConfig struct {
	Type    string // "memory", "fs", "s3"
	BaseDir string // fs only
	S3      s3storage.Config
}

// FilesPath is the URL path package files are served from.
func (c *ServerConfig) FilesPath() string {
	return c.ModulePath + "/files"
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case DatabaseMemory:
	case DatabasePostgres, DatabaseSQLite, DatabaseMySQL:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required when using %s", c.DatabaseType)
		}
	default:
		return fmt.Errorf("database_type must be one of memory, postgres, sqlite, mysql; got %q", c.DatabaseType)
	}

	switch c.Storage.Type {
	case StorageMemory:
	case StorageFS:
		if c.Storage.BaseDir == "" {
			return errors.New("storage base_dir is required for fs storage")
		}
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	if c.ModulePath == "" || c.ModulePath[0] != '/' {
		return fmt.Errorf("module path must start with '/': %q", c.ModulePath)
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max upload bytes must be positive")
	}

	return nil
}

// Components are the wired parts of a running hvp service.
type Components struct {
	Service    hvp.Service
	Repository hvp.Repository
	Blobs      hvp.BlobStore
	Packages   *packagestore.Store

	closers []func()
}

// Close releases database connections.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// BuildService wires the repository, blob store, package store and service
// from the configuration.
func (c *ServerConfig) BuildService(ctx context.Context) (*Components, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	components := &Components{}

	repo, err := c.buildRepository(ctx, components)
	if err != nil {
		components.Close()
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	components.Repository = repo

	blobs, err := c.buildBlobStore()
	if err != nil {
		components.Close()
		return nil, fmt.Errorf("failed to build storage backend %s: %w", c.Storage.Type, err)
	}
	components.Blobs = blobs
	components.Packages = packagestore.New(blobs, logger)

	service, err := hvp.New(
		hvp.WithRepository(repo),
		hvp.WithPackageStorage(components.Packages),
		hvp.WithCore(core.New()),
		hvp.WithLogger(logger),
		hvp.WithWWWRoot(c.WWWRoot),
		hvp.WithModulePath(c.ModulePath),
		hvp.WithFilesPath(c.FilesPath()),
	)
	if err != nil {
		components.Close()
		return nil, err
	}
	components.Service = service

	return components, nil
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context, components *Components) (hvp.Repository, error) {
	switch c.DatabaseType {
	case DatabaseMemory:
		return memory.New(), nil

	case DatabasePostgres:
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		if schema := c.DBSchema; schema != "" {
			cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
				_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
				return err
			}
		}
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		components.closers = append(components.closers, pool.Close)
		if c.AutoMigrate {
			if err := repopg.Migrate(ctx, pool); err != nil {
				return nil, err
			}
		}
		return repopg.NewWithPool(pool), nil

	case DatabaseSQLite, DatabaseMySQL:
		open := gormdb.OpenSQLite
		if c.DatabaseType == DatabaseMySQL {
			open = gormdb.OpenMySQL
		}
		db, err := open(c.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			components.closers = append(components.closers, func() { sqlDB.Close() })
		}
		return gormdb.New(db), nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// buildBlobStore creates the BlobStore based on the storage configuration
func (c *ServerConfig) buildBlobStore() (hvp.BlobStore, error) {
	switch c.Storage.Type {
	case StorageMemory:
		return memorystorage.New(), nil
	case StorageFS:
		return fsstorage.New(fsstorage.Config{BaseDir: c.Storage.BaseDir})
	case StorageS3:
		return s3storage.New(c.Storage.S3)
	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", c.Storage.Type)
	}
}

// PingPostgres verifies connectivity to Postgres.
func PingPostgres(ctx context.Context, databaseURL string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
