package editor

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gopherblog/internal/client/content"
	"github.com/dmitrijs2005/gopherblog/internal/client/models"
	"github.com/dmitrijs2005/gopherblog/internal/client/store"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

type fakeSaver struct {
	created   []models.ArticleInput
	updated   map[string]models.ArticleInput
	covers    map[string][]byte
	createErr error
	coverErr  error
}

func (f *fakeSaver) CreateArticle(_ context.Context, in models.ArticleInput) (*models.Article, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, in)
	return &models.Article{Record: models.Record{ID: "new1"}, Title: in.Title}, nil
}

func (f *fakeSaver) UpdateArticle(_ context.Context, id string, in models.ArticleInput) (*models.Article, error) {
	if f.updated == nil {
		f.updated = map[string]models.ArticleInput{}
	}
	f.updated[id] = in
	return &models.Article{Record: models.Record{ID: id}, Title: in.Title}, nil
}

func (f *fakeSaver) UploadCoverImage(_ context.Context, id string, u content.Upload) (*models.Article, error) {
	if f.coverErr != nil {
		return nil, f.coverErr
	}
	data, err := io.ReadAll(u.Reader)
	if err != nil {
		return nil, err
	}
	if f.covers == nil {
		f.covers = map[string][]byte{}
	}
	f.covers[id] = data
	return &models.Article{Record: models.Record{ID: id}, CoverImage: u.Name}, nil
}

func filledForm() *Form {
	f := NewForm(time.Date(2026, 1, 28, 15, 4, 0, 0, time.UTC))
	f.SetTitle("Hello, World!")
	f.Excerpt = "First post"
	f.Content = NewTextBuffer("<p>hi</p>")
	f.Tags = " go, , blog ,go "
	return f
}

func TestGenerateSlug(t *testing.T) {
	tests := map[string]string{
		"Hello, World!":           "hello-world",
		"  Leading and trailing ": "leading-and-trailing",
		"Crème brûlée 2.0":        "cr-me-br-l-e-2-0",
		"---":                     "",
		"already-a-slug":          "already-a-slug",
	}
	for in, want := range tests {
		assert.Equal(t, want, GenerateSlug(in), in)
	}
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, models.Tags{"go", "blog", "go"}, ParseTags(" go, , blog ,go "))
	assert.Equal(t, models.Tags{}, ParseTags(""))
}

func TestForm_SetTitleOnlyFillsEmptySlug(t *testing.T) {
	f := NewForm(time.Now())
	f.SetTitle("First Title")
	assert.Equal(t, "first-title", f.Slug)

	f.SetTitle("Second Title")
	assert.Equal(t, "first-title", f.Slug)
}

func TestForm_DefaultsAndInput(t *testing.T) {
	f := filledForm()
	assert.Equal(t, "2026-01-28", f.PublicationDate)

	in, err := f.Input()
	require.NoError(t, err)
	assert.Equal(t, "hello-world", in.Slug)
	assert.Equal(t, models.Tags{"go", "blog", "go"}, in.Tags)
	assert.Equal(t, "2026-01-28", in.PublicationDate.String())
	assert.NoError(t, f.Validate())
}

func TestForm_Validate(t *testing.T) {
	f := NewForm(time.Now())
	f.PublicationDate = ""
	err := f.Validate()
	require.Error(t, err)
	for _, field := range []string{"title", "slug", "excerpt", "content", "publication_date"} {
		assert.Contains(t, err.Error(), field+" is required")
	}

	f = filledForm()
	f.PublicationDate = "28/01/2026"
	assert.ErrorContains(t, f.Validate(), "publication_date")

	f = filledForm()
	f.Title = strings.Repeat("x", 201)
	assert.ErrorContains(t, f.Validate(), "title must be at most 200 characters")
}

func TestForm_LoadArticle(t *testing.T) {
	d, err := models.ParseDate("2025-12-24 00:00:00.000Z")
	require.NoError(t, err)
	a := &models.Article{
		Record: models.Record{ID: "a1"}, Title: "T", Slug: "t", Excerpt: "E", Content: "C",
		Category: "c1", Tags: models.Tags{"x", "y"}, Published: true, PublicationDate: d,
	}

	f := NewForm(time.Now())
	f.LoadArticle(a, "http://s/cover.png")
	assert.Equal(t, "a1", f.ID)
	assert.Equal(t, "x, y", f.Tags)
	assert.Equal(t, "2025-12-24", f.PublicationDate)
	assert.Equal(t, "C", f.Content.Value())
	assert.Equal(t, "http://s/cover.png", f.CoverURL)

	in, err := f.Input()
	require.NoError(t, err)
	assert.Equal(t, a.Input(), in)
}

func TestForm_SaveCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	f := filledForm()
	s := &fakeSaver{}

	a, err := f.Save(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "new1", a.ID)
	assert.Equal(t, "new1", f.ID)
	require.Len(t, s.created, 1)

	f.Title = "Changed"
	_, err = f.Save(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "Changed", s.updated["new1"].Title)
	assert.Len(t, s.created, 1)
}

func TestForm_SaveFailureKeepsForm(t *testing.T) {
	ctx := context.Background()
	f := filledForm()
	dup := &store.Error{Kind: store.KindValidation, Status: 400, Data: map[string]store.FieldError{"slug": {Code: "validation_not_unique"}}}

	_, err := f.Save(ctx, &fakeSaver{createErr: dup})
	assert.ErrorIs(t, err, store.ErrValidation)
	assert.Equal(t, "Failed to save article: the slug is already in use.", f.Error)
	assert.Equal(t, "Hello, World!", f.Title)
	assert.Empty(t, f.ID)

	_, err = f.Save(ctx, &fakeSaver{createErr: &store.Error{Kind: store.KindAuth, Status: 401}})
	require.Error(t, err)
	assert.Contains(t, f.Error, "log in again")

	f.Title = ""
	_, err = f.Save(ctx, &fakeSaver{})
	require.Error(t, err)
	assert.Contains(t, f.Error, "title is required")
}

func TestSaveMessage(t *testing.T) {
	assert.Contains(t, SaveMessage(&store.Error{Kind: store.KindTransport}), "unreachable")
	assert.Contains(t, SaveMessage(&store.Error{Kind: store.KindNotFound, Status: 404}), "no longer exists")
	assert.Equal(t, "Failed to save article. Check that the slug is unique.", SaveMessage(&store.Error{Kind: store.KindValidation, Status: 400}))
}

func TestCoverDraft_Lifecycle(t *testing.T) {
	first, err := OpenCoverDraft(writeFile(t, "first.png", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", first.MIME())
	assert.Equal(t, "first.png", first.Name())
	assert.Contains(t, first.Preview(), "not uploaded")

	second, err := OpenCoverDraft(writeFile(t, "second.png", pngHeader))
	require.NoError(t, err)

	f := filledForm()
	f.SetCover(first)
	f.SetCover(second)
	assert.True(t, first.Released(), "superseded draft is released")
	assert.False(t, second.Released())

	f.RemoveCover()
	assert.True(t, second.Released())
	assert.Nil(t, f.Cover())

	third, err := OpenCoverDraft(writeFile(t, "third.png", pngHeader))
	require.NoError(t, err)
	f.SetCover(third)
	f.Close()
	assert.True(t, third.Released())
	assert.NoError(t, third.Release(), "double release is safe")

	_, err = third.Upload()
	assert.Error(t, err)
}

func TestOpenCoverDraft_Rejects(t *testing.T) {
	_, err := OpenCoverDraft(writeFile(t, "notes.txt", []byte("plain text")))
	assert.ErrorContains(t, err, "not an accepted image type")

	_, err = OpenCoverDraft(filepath.Join(t.TempDir(), "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestForm_SaveUploadsCoverAndReleasesDraft(t *testing.T) {
	ctx := context.Background()
	d, err := OpenCoverDraft(writeFile(t, "cover.png", pngHeader))
	require.NoError(t, err)

	f := filledForm()
	f.SetCover(d)
	s := &fakeSaver{}

	a, err := f.Save(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "cover.png", a.CoverImage)
	assert.Equal(t, pngHeader, s.covers["new1"])
	assert.True(t, d.Released())
	assert.Nil(t, f.Cover())
}

func TestForm_SaveCoverFailureKeepsDraftForRetry(t *testing.T) {
	ctx := context.Background()
	d, err := OpenCoverDraft(writeFile(t, "cover.png", pngHeader))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Release() })

	f := filledForm()
	f.SetCover(d)
	s := &fakeSaver{coverErr: errors.New("503")}

	a, err := f.Save(ctx, s)
	assert.ErrorIs(t, err, ErrCoverUpload)
	require.NotNil(t, a, "the article itself was saved")
	assert.Equal(t, "new1", f.ID)
	assert.False(t, d.Released())

	s.coverErr = nil
	_, err = f.Save(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, s.covers["new1"])
}
