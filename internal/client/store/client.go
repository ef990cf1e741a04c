// Package store is an HTTP client for a PocketBase-compatible content store:
// record CRUD with filter/sort/expand, password authentication, collection
// administration and file URLs.
//
// Failed calls return *Error whose Kind tells transport, validation,
// not-found and auth failures apart; the sentinels ErrTransport,
// ErrValidation, ErrNotFound and ErrUnauthorized match with errors.Is.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gopherblog/internal/logging"
)

// RequestIDHeader carries a per-request UUID for correlating client logs with
// store logs.
const RequestIDHeader = "X-Request-Id"

type Client struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout bounds every request. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		h := *c.http
		h.Timeout = d
		c.http = &h
	}
}

func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("store: empty base url")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("store: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("store: unsupported scheme %q", u.Scheme)
	}

	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		log:     logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("module", "store")
	return c, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

type tokenKey struct{}

// WithToken attaches an auth token to ctx; requests made with the returned
// context send it in the Authorization header.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the token attached by WithToken.
func TokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}

// send performs one request and decodes a 2xx JSON response into out (when
// out is non-nil). Every failure is returned as *Error.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body Body, out any) error {
	reqID := uuid.NewString()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var (
		r           io.Reader
		contentType string
	)
	if body != nil {
		var err error
		if r, contentType, err = body.encode(); err != nil {
			return &Error{Kind: KindValidation, Message: err.Error(), RequestID: reqID, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return newTransportError(err, reqID)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "store request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return newTransportError(err, reqID)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return newTransportError(err, reqID)
	}

	if resp.StatusCode >= 400 {
		se := newStatusError(resp.StatusCode, data, reqID)
		c.log.Debug(ctx, "store returned error", "method", method, "path", path, "status", resp.StatusCode,
			"kind", se.Kind, "request_id", reqID)
		return se
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return newTransportError(fmt.Errorf("decode response: %w", err), reqID)
	}
	return nil
}

func recordsPath(collection string) string {
	return "/api/collections/" + url.PathEscape(collection) + "/records"
}

func recordPath(collection, id string) string {
	return recordsPath(collection) + "/" + url.PathEscape(id)
}

// FileURL returns the public URL of a stored file. thumb selects a thumbnail
// size such as "100x100" and may be empty. No request is made.
func (c *Client) FileURL(collection, recordID, filename, thumb string) string {
	if collection == "" || recordID == "" || filename == "" {
		return ""
	}
	u := c.baseURL + "/api/files/" + url.PathEscape(collection) + "/" + url.PathEscape(recordID) + "/" + url.PathEscape(filename)
	if thumb != "" {
		u += "?thumb=" + url.QueryEscape(thumb)
	}
	return u
}
