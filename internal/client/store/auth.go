package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// SuperusersCollection is the auth collection of administrative identities.
const SuperusersCollection = "_superusers"

type AuthResponse struct {
	Token  string          `json:"token"`
	Record json.RawMessage `json:"record"`
}

// AuthWithPassword exchanges identity and password for a token.
func (c *Client) AuthWithPassword(ctx context.Context, collection, identity, password string) (*AuthResponse, error) {
	body := JSONBody(map[string]string{"identity": identity, "password": password})

	var res AuthResponse
	path := "/api/collections/" + url.PathEscape(collection) + "/auth-with-password"
	if err := c.send(ctx, http.MethodPost, path, nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
