package gormdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/tendant/simple-hvp/pkg/hvp"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Repository implements hvp.Repository on top of gorm. It is used with the
// pure-Go SQLite driver for embedded deployments and tests, and with MySQL.
type Repository struct {
	db *gorm.DB
}

// New creates a repository over an open gorm handle
func New(db *gorm.DB) hvp.Repository {
	return &Repository{db: db}
}

// OpenSQLite opens (or creates) a SQLite database and migrates the hvp
// tables. Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite has a single writer, and every connection to ":memory:" is a
	// separate database.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenMySQL opens a MySQL database from a DSN and migrates the hvp tables.
func OpenMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the hvp tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&libraryModel{}, &instanceModel{}, &usageModel{}); err != nil {
		return fmt.Errorf("failed to migrate hvp tables: %w", err)
	}
	return nil
}

// Content instance operations

func (r *Repository) CreateInstance(ctx context.Context, instance *hvp.ContentInstance) (int64, error) {
	m := fromInstance(instance)
	m.ID = 0
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return 0, fmt.Errorf("database error in create instance: %w", err)
	}
	return m.ID, nil
}

func (r *Repository) GetInstanceRow(ctx context.Context, id int64) (*hvp.ContentInstance, error) {
	var m instanceModel
	err := r.db.WithContext(ctx).Take(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, hvp.ErrInstanceNotFound
		}
		return nil, fmt.Errorf("database error in get instance: %w", err)
	}
	return toInstance(m), nil
}

func (r *Repository) GetInstance(ctx context.Context, id int64) (*hvp.ContentInstance, error) {
	var row instanceJoin
	result := r.db.WithContext(ctx).
		Table("hvp AS h").
		Select(`h.id, h.name, h.course, h.json_content, h.embed_type, h.main_library_id,
			hl.machine_name, hl.major_version, hl.minor_version, hl.embed_types, hl.fullscreen`).
		Joins("JOIN hvp_libraries hl ON hl.id = h.main_library_id").
		Where("h.id = ?", id).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return nil, fmt.Errorf("database error in get instance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, hvp.ErrInstanceNotFound
	}

	return &hvp.ContentInstance{
		ID:            row.ID,
		Name:          row.Name,
		Course:        row.Course,
		JSONContent:   row.JSONContent,
		EmbedType:     row.EmbedType,
		MainLibraryID: row.MainLibraryID,
		MainLibrary: hvp.Library{
			MachineName:  row.MachineName,
			MajorVersion: row.MajorVersion,
			MinorVersion: row.MinorVersion,
		},
		EmbedTypes: row.EmbedTypes,
		Fullscreen: row.Fullscreen,
	}, nil
}

func (r *Repository) UpdateInstance(ctx context.Context, instance *hvp.ContentInstance) error {
	db := r.db.WithContext(ctx)

	var count int64
	if err := db.Model(&instanceModel{}).Where("id = ?", instance.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("database error in update instance: %w", err)
	}
	if count == 0 {
		return hvp.ErrInstanceNotFound
	}

	m := fromInstance(instance)
	err := db.Model(&instanceModel{}).Where("id = ?", instance.ID).Updates(map[string]interface{}{
		"name":            m.Name,
		"course":          m.Course,
		"json_content":    m.JSONContent,
		"embed_type":      m.EmbedType,
		"main_library_id": m.MainLibraryID,
	}).Error
	if err != nil {
		return fmt.Errorf("database error in update instance: %w", err)
	}
	return nil
}

func (r *Repository) DeleteInstance(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&instanceModel{}, id)
	if result.Error != nil {
		return fmt.Errorf("database error in delete instance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return hvp.ErrInstanceNotFound
	}
	return nil
}

func (r *Repository) ListDependencies(ctx context.Context, contentID int64) ([]hvp.LibraryDependency, error) {
	var rows []dependencyRow
	err := r.db.WithContext(ctx).
		Table("hvp_contents_libraries AS hcl").
		Select(`hl.id, hl.machine_name, hl.major_version, hl.minor_version,
			hl.preloaded_js, hl.preloaded_css, hcl.drop_css`).
		Joins("JOIN hvp_libraries hl ON hcl.library_id = hl.id").
		Where("hcl.content_id = ?", contentID).
		Order("hcl.weight, hcl.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("database error in list dependencies: %w", err)
	}

	deps := make([]hvp.LibraryDependency, 0, len(rows))
	for _, row := range rows {
		deps = append(deps, hvp.LibraryDependency{
			LibraryID: row.ID,
			Library: hvp.Library{
				MachineName:  row.MachineName,
				MajorVersion: row.MajorVersion,
				MinorVersion: row.MinorVersion,
			},
			PreloadedJS:  row.PreloadedJS,
			PreloadedCSS: row.PreloadedCSS,
			DropCSS:      row.DropCSS,
		})
	}
	return deps, nil
}

// Library operations

func (r *Repository) SaveLibrary(ctx context.Context, library *hvp.LibraryRecord) (int64, error) {
	db := r.db.WithContext(ctx)
	m := fromLibrary(library)

	if m.ID == 0 {
		var existing libraryModel
		err := db.Where("machine_name = ? AND major_version = ? AND minor_version = ?",
			m.MachineName, m.MajorVersion, m.MinorVersion).Take(&existing).Error
		switch {
		case err == nil:
			m.ID = existing.ID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return 0, fmt.Errorf("database error in save library: %w", err)
		}
	}

	if err := db.Save(&m).Error; err != nil {
		return 0, fmt.Errorf("database error in save library: %w", err)
	}
	return m.ID, nil
}

func (r *Repository) GetLibrary(ctx context.Context, id int64) (*hvp.LibraryRecord, error) {
	var m libraryModel
	if err := r.db.WithContext(ctx).Take(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, hvp.ErrLibraryNotFound
		}
		return nil, fmt.Errorf("database error in get library: %w", err)
	}
	return toLibrary(m), nil
}

func (r *Repository) GetLibraryByName(ctx context.Context, library hvp.Library) (*hvp.LibraryRecord, error) {
	var m libraryModel
	err := r.db.WithContext(ctx).
		Where("machine_name = ? AND major_version = ? AND minor_version = ?",
			library.MachineName, library.MajorVersion, library.MinorVersion).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, hvp.ErrLibraryNotFound
		}
		return nil, fmt.Errorf("database error in get library: %w", err)
	}
	return toLibrary(m), nil
}

// Library usage operations

func (r *Repository) ReplaceLibraryUsage(ctx context.Context, contentID int64, usages []hvp.LibraryUsage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_id = ?", contentID).Delete(&usageModel{}).Error; err != nil {
			return fmt.Errorf("database error in replace library usage: %w", err)
		}
		for _, usage := range usages {
			m := usageModel{
				ContentID:      contentID,
				LibraryID:      usage.LibraryID,
				DependencyType: usage.DependencyType,
				DropCSS:        usage.DropCSS,
				Weight:         usage.Weight,
			}
			if err := tx.Create(&m).Error; err != nil {
				return fmt.Errorf("database error in replace library usage: %w", err)
			}
		}
		return nil
	})
}

func (r *Repository) DeleteLibraryUsage(ctx context.Context, contentID int64) error {
	err := r.db.WithContext(ctx).Where("content_id = ?", contentID).Delete(&usageModel{}).Error
	if err != nil {
		return fmt.Errorf("database error in delete library usage: %w", err)
	}
	return nil
}

// InTx runs fn inside a gorm transaction
func (r *Repository) InTx(ctx context.Context, fn func(hvp.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}
