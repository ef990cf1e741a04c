package store

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// fullListBatch is the page size FullList fetches with.
const fullListBatch = 500

type ListOptions struct {
	Filter    string
	Sort      string
	Expand    string
	Fields    string
	SkipTotal bool
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	setQuery(q, "filter", o.Filter)
	setQuery(q, "sort", o.Sort)
	setQuery(q, "expand", o.Expand)
	setQuery(q, "fields", o.Fields)
	if o.SkipTotal {
		q.Set("skipTotal", "1")
	}
	return q
}

type QueryOptions struct {
	Expand string
	Fields string
}

func (o QueryOptions) values() url.Values {
	q := url.Values{}
	setQuery(q, "expand", o.Expand)
	setQuery(q, "fields", o.Fields)
	return q
}

func setQuery(q url.Values, k, v string) {
	if v != "" {
		q.Set(k, v)
	}
}

type ListResult[T any] struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
	Items      []T `json:"items"`
}

// List fetches one page of records.
func List[T any](ctx context.Context, c *Client, collection string, page, perPage int, opts ListOptions) (*ListResult[T], error) {
	q := opts.values()
	q.Set("page", strconv.Itoa(page))
	q.Set("perPage", strconv.Itoa(perPage))

	var res ListResult[T]
	if err := c.send(ctx, http.MethodGet, recordsPath(collection), q, nil, &res); err != nil {
		return nil, err
	}
	if res.Items == nil {
		res.Items = []T{}
	}
	return &res, nil
}

// FullList pages through every matching record.
func FullList[T any](ctx context.Context, c *Client, collection string, opts ListOptions) ([]T, error) {
	opts.SkipTotal = true

	out := []T{}
	for page := 1; ; page++ {
		res, err := List[T](ctx, c, collection, page, fullListBatch, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, res.Items...)
		if len(res.Items) < fullListBatch {
			return out, nil
		}
	}
}

// First returns the first record matching filter, or a not-found *Error.
func First[T any](ctx context.Context, c *Client, collection, filter string, opts QueryOptions) (*T, error) {
	res, err := List[T](ctx, c, collection, 1, 1, ListOptions{
		Filter:    filter,
		Expand:    opts.Expand,
		Fields:    opts.Fields,
		SkipTotal: true,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Items) == 0 {
		return nil, &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: "The requested resource wasn't found."}
	}
	return &res.Items[0], nil
}

func One[T any](ctx context.Context, c *Client, collection, id string, opts QueryOptions) (*T, error) {
	if id == "" {
		return nil, &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: "Missing record id."}
	}
	var out T
	if err := c.send(ctx, http.MethodGet, recordPath(collection, id), opts.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func Create[T any](ctx context.Context, c *Client, collection string, body Body, opts QueryOptions) (*T, error) {
	var out T
	if err := c.send(ctx, http.MethodPost, recordsPath(collection), opts.values(), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func Update[T any](ctx context.Context, c *Client, collection, id string, body Body, opts QueryOptions) (*T, error) {
	if id == "" {
		return nil, &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: "Missing record id."}
	}
	var out T
	if err := c.send(ctx, http.MethodPatch, recordPath(collection, id), opts.values(), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func Delete(ctx context.Context, c *Client, collection, id string) error {
	if id == "" {
		return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: "Missing record id."}
	}
	return c.send(ctx, http.MethodDelete, recordPath(collection, id), nil, nil, nil)
}
