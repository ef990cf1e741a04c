package store_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gopherblog/internal/client/store"
	"github.com/dmitrijs2005/gopherblog/internal/client/store/storetest"
)

type tag struct {
	ID             string `json:"id"`
	CollectionName string `json:"collectionName"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
}

type post struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Tag    string `json:"tag"`
	Photo  string `json:"photo"`
	Expand struct {
		Tag *tag `json:"tag"`
	} `json:"expand"`
}

var (
	open   = ""
	onePNG = mustDecode("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg==")
)

func mustDecode(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func setup(t *testing.T) (*storetest.Server, *store.Client) {
	t.Helper()
	srv := storetest.New(t)
	srv.AddCollection(t, map[string]any{
		"id":   "tags",
		"name": "tags",
		"fields": []map[string]any{
			{"name": "name", "type": "text", "required": true, "max": 100},
			{"name": "slug", "type": "text", "required": true, "pattern": "^[a-z0-9-]+$"},
		},
		"indexes":  []string{"CREATE UNIQUE INDEX idx_tags_slug ON tags (slug)"},
		"listRule": open, "viewRule": open, "createRule": nil, "updateRule": nil, "deleteRule": nil,
	})
	srv.AddCollection(t, map[string]any{
		"id":   "posts",
		"name": "posts",
		"fields": []map[string]any{
			{"name": "title", "type": "text", "required": true},
			{"name": "tag", "type": "relation", "collectionId": "tags", "maxSelect": 1},
			{"name": "photo", "type": "file", "maxSelect": 1, "maxSize": 1024, "mimeTypes": []string{"image/png"}},
		},
		"listRule": open, "viewRule": open, "createRule": open, "updateRule": open, "deleteRule": open,
	})

	c, err := store.New(srv.URL + "/")
	require.NoError(t, err)
	return srv, c
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := store.New("  ")
	require.Error(t, err)

	_, err = store.New("ftp://example.com")
	require.Error(t, err)

	c, err := store.New("http://127.0.0.1:8090/")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8090", c.BaseURL())
}

func TestList_SendsQueryAndDecodes(t *testing.T) {
	srv, c := setup(t)
	music := srv.Insert(t, "tags", map[string]any{"name": "Music", "slug": "music"})
	srv.Insert(t, "posts", map[string]any{"title": "b", "tag": music["id"]})
	srv.Insert(t, "posts", map[string]any{"title": "a", "tag": music["id"]})
	srv.Insert(t, "posts", map[string]any{"title": "c"})

	res, err := store.List[post](context.Background(), c, "posts", 1, 10, store.ListOptions{
		Filter: `tag.slug = "music"`,
		Sort:   "title",
		Expand: "tag",
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "a", res.Items[0].Title)
	assert.Equal(t, "b", res.Items[1].Title)
	require.NotNil(t, res.Items[0].Expand.Tag)
	assert.Equal(t, "music", res.Items[0].Expand.Tag.Slug)
	assert.Equal(t, 2, res.TotalItems)

	req, ok := srv.LastRequest(http.MethodGet, "/api/collections/posts/records")
	require.True(t, ok)
	assert.Equal(t, "1", req.Query.Get("page"))
	assert.Equal(t, "10", req.Query.Get("perPage"))
	assert.Equal(t, "title", req.Query.Get("sort"))
	assert.NotEmpty(t, req.Header.Get(store.RequestIDHeader))
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestList_EmptyCollectionReturnsEmptySlice(t *testing.T) {
	_, c := setup(t)

	res, err := store.List[post](context.Background(), c, "posts", 1, 50, store.ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
}

func TestFullList_PagesThroughEverything(t *testing.T) {
	srv, c := setup(t)
	for i := 0; i < 501; i++ {
		srv.Insert(t, "tags", map[string]any{"name": fmt.Sprintf("Tag %d", i), "slug": fmt.Sprintf("tag-%03d", i)})
	}

	all, err := store.FullList[tag](context.Background(), c, "tags", store.ListOptions{Sort: "-slug"})
	require.NoError(t, err)
	require.Len(t, all, 501)
	assert.Equal(t, "tag-500", all[0].Slug)
	assert.Equal(t, "tag-000", all[500].Slug)
}

func TestFirst(t *testing.T) {
	srv, c := setup(t)
	srv.Insert(t, "tags", map[string]any{"name": "AI", "slug": "ai"})
	ctx := context.Background()

	got, err := store.First[tag](ctx, c, "tags", `slug = "ai"`, store.QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, "AI", got.Name)

	_, err = store.First[tag](ctx, c, "tags", `slug = "nope"`, store.QueryOptions{})
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, store.KindNotFound, store.KindOf(err))
}

func TestOne_NotFound(t *testing.T) {
	_, c := setup(t)

	_, err := store.One[post](context.Background(), c, "posts", "missing", store.QueryOptions{})
	require.ErrorIs(t, err, store.ErrNotFound)

	var se *store.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.NotEmpty(t, se.RequestID)
}

func TestCreate_GuestOnSuperuserOnlyCollection(t *testing.T) {
	_, c := setup(t)

	_, err := store.Create[tag](context.Background(), c, "tags", store.JSONBody(map[string]any{"name": "X", "slug": "x"}), store.QueryOptions{})
	require.ErrorIs(t, err, store.ErrUnauthorized)
}

func TestCreate_WithTokenAndUniqueViolation(t *testing.T) {
	srv, c := setup(t)
	srv.AddSuperuser("admin@example.com", "secret-pass")

	ctx := context.Background()
	auth, err := c.AuthWithPassword(ctx, store.SuperusersCollection, "admin@example.com", "secret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, auth.Token)
	assert.Contains(t, string(auth.Record), "admin@example.com")

	ctx = store.WithToken(ctx, auth.Token)
	created, err := store.Create[tag](ctx, c, "tags", store.JSONBody(map[string]any{"name": "Music", "slug": "music"}), store.QueryOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "tags", created.CollectionName)

	req, _ := srv.LastRequest(http.MethodPost, "/api/collections/tags/records")
	assert.Equal(t, auth.Token, req.Header.Get("Authorization"))

	_, err = store.Create[tag](ctx, c, "tags", store.JSONBody(map[string]any{"name": "Music 2", "slug": "music"}), store.QueryOptions{})
	require.ErrorIs(t, err, store.ErrValidation)
	assert.Equal(t, "validation_not_unique", store.FieldCode(err, "slug"))

	_, err = store.Create[tag](ctx, c, "tags", store.JSONBody(map[string]any{"name": "Bad", "slug": "Not Valid"}), store.QueryOptions{})
	assert.Equal(t, "validation_invalid_format", store.FieldCode(err, "slug"))
}

func TestAuthWithPassword_BadCredentials(t *testing.T) {
	srv, c := setup(t)
	srv.AddSuperuser("admin@example.com", "secret-pass")

	_, err := c.AuthWithPassword(context.Background(), store.SuperusersCollection, "bad@x.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, store.KindValidation, store.KindOf(err))
}

func TestUpdate_MultipartUploadAndFileURL(t *testing.T) {
	srv, c := setup(t)
	p := srv.Insert(t, "posts", map[string]any{"title": "with photo"})
	ctx := context.Background()

	body := store.MultipartBody{Files: map[string][]store.File{
		"photo": {{Name: "Pixel Art.PNG", ContentType: "image/png", Reader: bytes.NewReader(onePNG)}},
	}}
	updated, err := store.Update[post](ctx, c, "posts", p["id"].(string), body, store.QueryOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, updated.Photo)
	assert.Regexp(t, `^pixel_art_[a-z0-9]{10}\.png$`, updated.Photo)

	u := c.FileURL("posts", updated.ID, updated.Photo, "")
	assert.Equal(t, srv.URL+"/api/files/posts/"+updated.ID+"/"+updated.Photo, u)

	resp, err := http.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	got, _ := io.ReadAll(resp.Body)
	assert.Equal(t, onePNG, got)
}

func TestUpdate_RejectsWrongMimeType(t *testing.T) {
	srv, c := setup(t)
	p := srv.Insert(t, "posts", map[string]any{"title": "x"})

	body := store.MultipartBody{Files: map[string][]store.File{
		"photo": {{Name: "notes.png", Reader: bytes.NewReader([]byte("plain text pretending"))}},
	}}
	_, err := store.Update[post](context.Background(), c, "posts", p["id"].(string), body, store.QueryOptions{})
	require.ErrorIs(t, err, store.ErrValidation)
	assert.Equal(t, "validation_invalid_mime_type", store.FieldCode(err, "photo"))
}

func TestDelete(t *testing.T) {
	srv, c := setup(t)
	p := srv.Insert(t, "posts", map[string]any{"title": "bye"})
	ctx := context.Background()

	require.NoError(t, store.Delete(ctx, c, "posts", p["id"].(string)))
	assert.Empty(t, srv.Records("posts"))

	require.ErrorIs(t, store.Delete(ctx, c, "posts", p["id"].(string)), store.ErrNotFound)
	require.ErrorIs(t, store.Delete(ctx, c, "posts", ""), store.ErrNotFound)
}

func TestTransportFailures(t *testing.T) {
	srv, c := setup(t)
	ctx := context.Background()

	srv.SetFailure(http.StatusServiceUnavailable)
	_, err := store.List[post](ctx, c, "posts", 1, 1, store.ListOptions{})
	require.ErrorIs(t, err, store.ErrTransport)
	srv.SetFailure(0)

	srv.Close()
	_, err = store.List[post](ctx, c, "posts", 1, 1, store.ListOptions{})
	require.ErrorIs(t, err, store.ErrTransport)
	assert.Equal(t, store.KindTransport, store.KindOf(err))
}

func TestWithTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer slow.Close()

	c, err := store.New(slow.URL, store.WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = store.List[post](context.Background(), c, "posts", 1, 1, store.ListOptions{})
	require.ErrorIs(t, err, store.ErrTransport)
}

func TestCollections(t *testing.T) {
	srv, c := setup(t)
	srv.AddSuperuser("admin@example.com", "pw")
	ctx := context.Background()

	err := c.CreateCollection(ctx, map[string]any{"name": "notes", "fields": []map[string]any{{"name": "body", "type": "text"}}})
	require.ErrorIs(t, err, store.ErrUnauthorized)

	ctx = store.WithToken(ctx, srv.Token("admin@example.com"))
	require.NoError(t, c.CreateCollection(ctx, map[string]any{"name": "notes", "fields": []map[string]any{{"name": "body", "type": "text"}}}))
	assert.True(t, srv.HasCollection("notes"))

	err = c.CreateCollection(ctx, map[string]any{"name": "notes"})
	require.ErrorIs(t, err, store.ErrValidation)

	var def struct {
		Name   string `json:"name"`
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	require.NoError(t, c.GetCollection(ctx, "notes", &def))
	assert.Equal(t, "notes", def.Name)
	require.Len(t, def.Fields, 1)

	err = c.DeleteCollection(ctx, "tags")
	require.ErrorIs(t, err, store.ErrValidation, "referenced by posts.tag")

	require.NoError(t, c.DeleteCollection(ctx, "notes"))
	assert.False(t, srv.HasCollection("notes"))
	require.ErrorIs(t, c.DeleteCollection(ctx, "notes"), store.ErrNotFound)
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, store.Kind(0), store.KindOf(nil))
	assert.Equal(t, store.KindTransport, store.KindOf(errors.New("boom")))
	assert.Equal(t, "validation", store.KindValidation.String())
	wrapped := fmt.Errorf("outer: %w", &store.Error{Kind: store.KindAuth, Status: 401})
	assert.ErrorIs(t, wrapped, store.ErrUnauthorized)
	assert.NotErrorIs(t, wrapped, store.ErrNotFound)
}
