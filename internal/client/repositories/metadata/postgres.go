package metadata

import "github.com/dmitrijs2005/gopherblog/internal/dbx"

var postgresQueries = queries{
	get: `SELECT value FROM metadata WHERE key = $1`,
	set: `INSERT INTO metadata (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
	del:   `DELETE FROM metadata WHERE key = $1`,
	list:  `SELECT key, value FROM metadata`,
	clear: `DELETE FROM metadata`,
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: postgresQueries}
}
