package localdb

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gopherblog/internal/client/localdb/migrations"
	"github.com/dmitrijs2005/gopherblog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gopherblog/internal/dbx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteManager serves SQLite state databases.
type SQLiteManager struct{}

func (m *SQLiteManager) Dialect() string { return DialectSQLite }

func (m *SQLiteManager) Metadata(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (m *SQLiteManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.SQLite)
	if err := goose.SetDialect(DialectSQLite); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, "sqlite")
}
