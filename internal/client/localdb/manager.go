// Package localdb opens the client's local state database and vends the
// repositories that live in it.
//
// The state database holds the persisted session and the schema migration
// high-water mark. SQLite is the default; a postgres:// DSN selects
// PostgreSQL through the pgx stdlib driver.
package localdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gopherblog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gopherblog/internal/dbx"
	"github.com/dmitrijs2005/gopherblog/internal/filex"
	"github.com/pressly/goose/v3"
)

// Dialect names accepted by goose.
const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "pgx"
)

type Manager interface {
	Dialect() string
	RunMigrations(ctx context.Context, db *sql.DB) error
	Metadata(db dbx.DBTX) metadata.Repository
}

// DB bundles an open state database with the manager that understands it.
type DB struct {
	*sql.DB
	Manager Manager
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// IsPostgres reports whether dsn addresses a PostgreSQL server.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func isFilePath(dsn string) bool {
	return dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

// NewManager picks the manager matching dsn.
func NewManager(dsn string) Manager {
	if IsPostgres(dsn) {
		return &PostgresManager{}
	}
	return &SQLiteManager{}
}

// Open connects to dsn and applies the local migrations.
func Open(ctx context.Context, dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("state dsn is empty")
	}

	m := NewManager(dsn)
	driver := "sqlite"
	if m.Dialect() == DialectPostgres {
		driver = "pgx"
	}

	if driver == "sqlite" && isFilePath(dsn) {
		if err := filex.EnsureParentDir(dsn); err != nil {
			return nil, fmt.Errorf("open state db: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	if driver == "sqlite" {
		// an in-memory database exists per connection
		db.SetMaxOpenConns(1)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate state db: %w", err)
	}

	return &DB{DB: db, Manager: m}, nil
}

// Metadata returns the metadata repository bound to the pool.
func (d *DB) Metadata() metadata.Repository {
	return d.Manager.Metadata(d.DB)
}
