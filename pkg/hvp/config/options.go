package config

import (
	"fmt"
	"log/slog"
	"strings"

	s3storage "github.com/tendant/simple-hvp/pkg/hvp/storage/s3"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the database backend. url is a postgres URL, a
// sqlite file path or a mysql DSN; memory takes none.
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		switch dbType {
		case DatabaseMemory:
		case DatabasePostgres, DatabaseSQLite, DatabaseMySQL:
			if url == "" {
				return fmt.Errorf("database URL is required for %s", dbType)
			}
		default:
			return fmt.Errorf("database type must be memory, postgres, sqlite or mysql, got: %s", dbType)
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithAutoMigrate controls whether the hvp tables are created on start
func WithAutoMigrate(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.AutoMigrate = enabled
		return nil
	}
}

// WithMemoryStorage keeps package files in memory
func WithMemoryStorage() Option {
	return func(c *ServerConfig) error {
		c.Storage = StorageConfig{Type: StorageMemory}
		return nil
	}
}

// WithFilesystemStorage keeps package files under baseDir
func WithFilesystemStorage(baseDir string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.Storage = StorageConfig{Type: StorageFS, BaseDir: baseDir}
		return nil
	}
}

// WithS3Storage keeps package files in an S3 bucket
func WithS3Storage(s3Config s3storage.Config) Option {
	return func(c *ServerConfig) error {
		if s3Config.Bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		c.Storage = StorageConfig{Type: StorageS3, S3: s3Config}
		return nil
	}
}

// WithWWWRoot sets the absolute site URL prefixed to paths the runtime
// loads itself
func WithWWWRoot(wwwRoot string) Option {
	return func(c *ServerConfig) error {
		c.WWWRoot = strings.TrimRight(wwwRoot, "/")
		return nil
	}
}

// WithBasePath sets the URL path of the module. Package files are served
// from <path>/files.
func WithBasePath(path string) Option {
	return func(c *ServerConfig) error {
		path = strings.TrimRight(path, "/")
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("base path must start with '/': %q", path)
		}
		c.ModulePath = path
		return nil
	}
}

// WithMaxUploadBytes limits the size of package uploads
func WithMaxUploadBytes(n int64) Option {
	return func(c *ServerConfig) error {
		if n <= 0 {
			return fmt.Errorf("max upload bytes must be positive, got %d", n)
		}
		c.MaxUploadBytes = n
		return nil
	}
}

// WithLogger sets the logger handed to the service and package store
func WithLogger(logger *slog.Logger) Option {
	return func(c *ServerConfig) error {
		c.Logger = logger
		return nil
	}
}
