package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/gopherblog/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gopherblog/internal/dbx"
)

// Metadata keys holding the persisted session.
const (
	KeyToken  = "auth_token"
	KeyRecord = "auth_record"
)

// MetadataPersister stores the session in the local metadata table.
type MetadataPersister struct {
	db   *sql.DB
	repo func(dbx.DBTX) metadata.Repository
}

// NewMetadataPersister binds a persister to db. repo builds the metadata
// repository for the database dialect, normally localdb.Manager.Metadata.
func NewMetadataPersister(db *sql.DB, repo func(dbx.DBTX) metadata.Repository) *MetadataPersister {
	return &MetadataPersister{db: db, repo: repo}
}

func (p *MetadataPersister) Load(ctx context.Context) (string, json.RawMessage, error) {
	r := p.repo(p.db)

	token, err := r.Get(ctx, KeyToken)
	if err != nil {
		return "", nil, fmt.Errorf("load session: %w", err)
	}
	record, err := r.Get(ctx, KeyRecord)
	if err != nil {
		return "", nil, fmt.Errorf("load session: %w", err)
	}
	if len(record) == 0 || string(record) == "null" {
		record = nil
	}
	return string(token), record, nil
}

func (p *MetadataPersister) Save(ctx context.Context, token string, record json.RawMessage) error {
	err := dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := p.repo(tx)
		if err := r.Set(ctx, KeyToken, []byte(token)); err != nil {
			return err
		}
		if record == nil {
			record = json.RawMessage("null")
		}
		return r.Set(ctx, KeyRecord, record)
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (p *MetadataPersister) Clear(ctx context.Context) error {
	err := dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := p.repo(tx)
		if err := r.Delete(ctx, KeyToken); err != nil {
			return err
		}
		return r.Delete(ctx, KeyRecord)
	})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
