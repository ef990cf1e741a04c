package store

import (
	"context"
	"net/http"
	"net/url"
)

// CreateCollection posts a collection definition. Requires a superuser token.
func (c *Client) CreateCollection(ctx context.Context, def any) error {
	return c.send(ctx, http.MethodPost, "/api/collections", nil, JSONBody(def), nil)
}

// DeleteCollection drops a collection and all its records.
func (c *Client) DeleteCollection(ctx context.Context, idOrName string) error {
	return c.send(ctx, http.MethodDelete, "/api/collections/"+url.PathEscape(idOrName), nil, nil, nil)
}

// GetCollection decodes the definition of idOrName into out.
func (c *Client) GetCollection(ctx context.Context, idOrName string, out any) error {
	return c.send(ctx, http.MethodGet, "/api/collections/"+url.PathEscape(idOrName), nil, nil, out)
}
