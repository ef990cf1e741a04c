package localdb

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gopherblog/internal/client/localdb/migrations"
	"github.com/dmitrijs2005/gopherblog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gopherblog/internal/dbx"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresManager serves PostgreSQL state databases.
type PostgresManager struct{}

func (m *PostgresManager) Dialect() string { return DialectPostgres }

func (m *PostgresManager) Metadata(db dbx.DBTX) metadata.Repository {
	return metadata.NewPostgresRepository(db)
}

func (m *PostgresManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Postgres)
	if err := goose.SetDialect(DialectPostgres); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, "postgres")
}
