package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-hvp/pkg/hvp"
)

//go:embed schema.sql
var schema string

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// beginner is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx (as a savepoint)
type beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository implements hvp.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) hvp.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) hvp.Repository {
	return &Repository{db: pool}
}

// Migrate creates the hvp tables if they do not exist.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply hvp schema: %w", err)
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("duplicate entry in %s", operation)
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found in %s", operation)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Content instance operations

func (r *Repository) CreateInstance(ctx context.Context, instance *hvp.ContentInstance) (int64, error) {
	query := `
		INSERT INTO hvp (name, course, json_content, embed_type, main_library_id)
		VALUES ($1, $2, $3, $4, NULLIF($5::bigint, 0))
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		instance.Name, instance.Course, instance.JSONContent,
		instance.EmbedType, instance.MainLibraryID).Scan(&id)
	if err != nil {
		return 0, r.handlePostgresError("create instance", err)
	}

	return id, nil
}

func (r *Repository) GetInstanceRow(ctx context.Context, id int64) (*hvp.ContentInstance, error) {
	query := `
		SELECT id, name, course, json_content, embed_type, COALESCE(main_library_id, 0)
		FROM hvp WHERE id = $1`

	var instance hvp.ContentInstance
	err := r.db.QueryRow(ctx, query, id).Scan(
		&instance.ID, &instance.Name, &instance.Course, &instance.JSONContent,
		&instance.EmbedType, &instance.MainLibraryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, hvp.ErrInstanceNotFound
		}
		return nil, r.handlePostgresError("get instance", err)
	}

	return &instance, nil
}

func (r *Repository) GetInstance(ctx context.Context, id int64) (*hvp.ContentInstance, error) {
	query := `
		SELECT h.id, h.name, h.course, h.json_content, h.embed_type, h.main_library_id,
		       hl.machine_name, hl.major_version, hl.minor_version,
		       hl.embed_types, hl.fullscreen
		FROM hvp h
		JOIN hvp_libraries hl ON hl.id = h.main_library_id
		WHERE h.id = $1`

	var instance hvp.ContentInstance
	err := r.db.QueryRow(ctx, query, id).Scan(
		&instance.ID, &instance.Name, &instance.Course, &instance.JSONContent,
		&instance.EmbedType, &instance.MainLibraryID,
		&instance.MainLibrary.MachineName, &instance.MainLibrary.MajorVersion,
		&instance.MainLibrary.MinorVersion, &instance.EmbedTypes, &instance.Fullscreen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, hvp.ErrInstanceNotFound
		}
		return nil, r.handlePostgresError("get instance", err)
	}

	return &instance, nil
}

func (r *Repository) UpdateInstance(ctx context.Context, instance *hvp.ContentInstance) error {
	query := `
		UPDATE hvp SET
			name = $2, course = $3, json_content = $4, embed_type = $5,
			main_library_id = NULLIF($6::bigint, 0)
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		instance.ID, instance.Name, instance.Course, instance.JSONContent,
		instance.EmbedType, instance.MainLibraryID)
	if err != nil {
		return r.handlePostgresError("update instance", err)
	}
	if tag.RowsAffected() == 0 {
		return hvp.ErrInstanceNotFound
	}

	return nil
}

func (r *Repository) DeleteInstance(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM hvp WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete instance", err)
	}
	if tag.RowsAffected() == 0 {
		return hvp.ErrInstanceNotFound
	}
	return nil
}

func (r *Repository) ListDependencies(ctx context.Context, contentID int64) ([]hvp.LibraryDependency, error) {
	query := `
		SELECT hl.id, hl.machine_name, hl.major_version, hl.minor_version,
		       hl.preloaded_js, hl.preloaded_css, hcl.drop_css
		FROM hvp_contents_libraries hcl
		JOIN hvp_libraries hl ON hcl.library_id = hl.id
		WHERE hcl.content_id = $1
		ORDER BY hcl.weight, hcl.id`

	rows, err := r.db.Query(ctx, query, contentID)
	if err != nil {
		return nil, r.handlePostgresError("list dependencies", err)
	}
	defer rows.Close()

	deps := []hvp.LibraryDependency{}
	for rows.Next() {
		var dep hvp.LibraryDependency
		if err := rows.Scan(
			&dep.LibraryID, &dep.Library.MachineName, &dep.Library.MajorVersion,
			&dep.Library.MinorVersion, &dep.PreloadedJS, &dep.PreloadedCSS, &dep.DropCSS); err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}

	return deps, rows.Err()
}

// Library operations

func (r *Repository) SaveLibrary(ctx context.Context, library *hvp.LibraryRecord) (int64, error) {
	if library.ID != 0 {
		query := `
			UPDATE hvp_libraries SET
				machine_name = $2, title = $3, major_version = $4, minor_version = $5,
				patch_version = $6, runnable = $7, fullscreen = $8, embed_types = $9,
				preloaded_js = $10, preloaded_css = $11, drop_library_css = $12
			WHERE id = $1`
		tag, err := r.db.Exec(ctx, query, library.ID,
			library.Library.MachineName, library.Title, library.Library.MajorVersion,
			library.Library.MinorVersion, library.PatchVersion, library.Runnable,
			library.Fullscreen, library.EmbedTypes, library.PreloadedJS,
			library.PreloadedCSS, library.DropLibraryCSS)
		if err != nil {
			return 0, r.handlePostgresError("update library", err)
		}
		if tag.RowsAffected() == 0 {
			return 0, hvp.ErrLibraryNotFound
		}
		return library.ID, nil
	}

	query := `
		INSERT INTO hvp_libraries (
			machine_name, title, major_version, minor_version, patch_version,
			runnable, fullscreen, embed_types, preloaded_js, preloaded_css, drop_library_css
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (machine_name, major_version, minor_version) DO UPDATE SET
			title = EXCLUDED.title,
			patch_version = EXCLUDED.patch_version,
			runnable = EXCLUDED.runnable,
			fullscreen = EXCLUDED.fullscreen,
			embed_types = EXCLUDED.embed_types,
			preloaded_js = EXCLUDED.preloaded_js,
			preloaded_css = EXCLUDED.preloaded_css,
			drop_library_css = EXCLUDED.drop_library_css
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		library.Library.MachineName, library.Title, library.Library.MajorVersion,
		library.Library.MinorVersion, library.PatchVersion, library.Runnable,
		library.Fullscreen, library.EmbedTypes, library.PreloadedJS,
		library.PreloadedCSS, library.DropLibraryCSS).Scan(&id)
	if err != nil {
		return 0, r.handlePostgresError("save library", err)
	}

	return id, nil
}

const selectLibrary = `
	SELECT id, machine_name, title, major_version, minor_version, patch_version,
	       runnable, fullscreen, embed_types, preloaded_js, preloaded_css, drop_library_css
	FROM hvp_libraries`

func (r *Repository) scanLibrary(row pgx.Row) (*hvp.LibraryRecord, error) {
	var library hvp.LibraryRecord
	err := row.Scan(
		&library.ID, &library.Library.MachineName, &library.Title,
		&library.Library.MajorVersion, &library.Library.MinorVersion, &library.PatchVersion,
		&library.Runnable, &library.Fullscreen, &library.EmbedTypes,
		&library.PreloadedJS, &library.PreloadedCSS, &library.DropLibraryCSS)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, hvp.ErrLibraryNotFound
		}
		return nil, r.handlePostgresError("get library", err)
	}
	return &library, nil
}

func (r *Repository) GetLibrary(ctx context.Context, id int64) (*hvp.LibraryRecord, error) {
	return r.scanLibrary(r.db.QueryRow(ctx, selectLibrary+` WHERE id = $1`, id))
}

func (r *Repository) GetLibraryByName(ctx context.Context, library hvp.Library) (*hvp.LibraryRecord, error) {
	return r.scanLibrary(r.db.QueryRow(ctx,
		selectLibrary+` WHERE machine_name = $1 AND major_version = $2 AND minor_version = $3`,
		library.MachineName, library.MajorVersion, library.MinorVersion))
}

// Library usage operations

func (r *Repository) ReplaceLibraryUsage(ctx context.Context, contentID int64, usages []hvp.LibraryUsage) error {
	return r.InTx(ctx, func(tx hvp.Repository) error {
		if err := tx.DeleteLibraryUsage(ctx, contentID); err != nil {
			return err
		}
		db := tx.(*Repository).db
		for _, usage := range usages {
			_, err := db.Exec(ctx, `
				INSERT INTO hvp_contents_libraries (content_id, library_id, dependency_type, drop_css, weight)
				VALUES ($1, $2, $3, $4, $5)`,
				contentID, usage.LibraryID, usage.DependencyType, usage.DropCSS, usage.Weight)
			if err != nil {
				return r.handlePostgresError("save library usage", err)
			}
		}
		return nil
	})
}

func (r *Repository) DeleteLibraryUsage(ctx context.Context, contentID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM hvp_contents_libraries WHERE content_id = $1`, contentID)
	if err != nil {
		return r.handlePostgresError("delete library usage", err)
	}
	return nil
}

// InTx runs fn inside a transaction, or a savepoint when the repository is
// already bound to one.
func (r *Repository) InTx(ctx context.Context, fn func(hvp.Repository) error) error {
	b, ok := r.db.(beginner)
	if !ok {
		return errors.New("database handle does not support transactions")
	}

	tx, err := b.Begin(ctx)
	if err != nil {
		return r.handlePostgresError("begin", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Repository{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return r.handlePostgresError("commit", err)
	}
	return nil
}
