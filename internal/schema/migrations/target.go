package migrations

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/gopherblog/internal/client/session"
	"github.com/dmitrijs2005/gopherblog/internal/client/store"
	"github.com/dmitrijs2005/gopherblog/internal/schema"
)

// Target is the store a change is applied to.
type Target interface {
	CreateCollection(ctx context.Context, c schema.Collection) error
	DeleteCollection(ctx context.Context, name string) error
	CreateRecord(ctx context.Context, collection string, fields any) (string, error)
	RecordIDs(ctx context.Context, collection string) ([]string, error)
	DeleteRecord(ctx context.Context, collection, id string) error
}

// StoreTarget applies changes through the store API. The session must hold
// a superuser token: the collections API refuses anyone else.
type StoreTarget struct {
	Client  *store.Client
	Session session.Session
}

func (t *StoreTarget) ctx(ctx context.Context) context.Context {
	return store.WithToken(ctx, t.Session.Token())
}

func (t *StoreTarget) CreateCollection(ctx context.Context, c schema.Collection) error {
	return t.Client.CreateCollection(t.ctx(ctx), c)
}

func (t *StoreTarget) DeleteCollection(ctx context.Context, name string) error {
	return t.Client.DeleteCollection(t.ctx(ctx), name)
}

func (t *StoreTarget) CreateRecord(ctx context.Context, collection string, fields any) (string, error) {
	rec, err := store.Create[struct {
		ID string `json:"id"`
	}](t.ctx(ctx), t.Client, collection, store.JSONBody(fields), store.QueryOptions{})
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (t *StoreTarget) RecordIDs(ctx context.Context, collection string) ([]string, error) {
	recs, err := store.FullList[json.RawMessage](t.ctx(ctx), t.Client, collection, store.ListOptions{Fields: "id"})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(recs))
	for _, raw := range recs {
		var r struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (t *StoreTarget) DeleteRecord(ctx context.Context, collection, id string) error {
	return store.Delete(t.ctx(ctx), t.Client, collection, id)
}
