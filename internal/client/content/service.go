// Package content is the blog's data-access layer: articles, categories and
// images in the remote store, plus login against the store's superusers.
//
// Service returns typed errors (see store.KindOf). Soft wraps a Service for
// callers that only want a value: it logs failures and returns nil, false
// or an empty slice instead.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gopherblog/internal/client/files"
	"github.com/dmitrijs2005/gopherblog/internal/client/filter"
	"github.com/dmitrijs2005/gopherblog/internal/client/models"
	"github.com/dmitrijs2005/gopherblog/internal/client/session"
	"github.com/dmitrijs2005/gopherblog/internal/client/store"
	"github.com/dmitrijs2005/gopherblog/internal/logging"
	"github.com/dmitrijs2005/gopherblog/internal/schema"
)

// DefaultPageSize is the article page size when no limit is given.
const DefaultPageSize = 50

// SessionStore is the session a Service reads tokens from and records
// logins in.
type SessionStore interface {
	session.Session
	Save(ctx context.Context, token string, record json.RawMessage) error
	Clear(ctx context.Context) error
}

type Service struct {
	store    *store.Client
	session  SessionStore
	files    files.Resolver
	log      logging.Logger
	pageSize int
}

type Option func(*Service)

func WithResolver(r files.Resolver) Option {
	return func(s *Service) { s.files = r }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithPageSize sets the default article page size.
func WithPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

func New(c *store.Client, sess SessionStore, opts ...Option) *Service {
	s := &Service{
		store:    c,
		session:  sess,
		files:    files.StoreResolver{Store: c},
		log:      logging.Discard(),
		pageSize: DefaultPageSize,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("module", "content")
	return s
}

// authed attaches the session token, if it is still valid, to ctx.
func (s *Service) authed(ctx context.Context) context.Context {
	if !s.session.IsValid() {
		return ctx
	}
	return store.WithToken(ctx, s.session.Token())
}

type ListArticlesOptions struct {
	// Limit caps the result; zero means the default page size.
	Limit              int
	CategorySlug       string
	IncludeUnpublished bool
}

// ListArticles returns articles newest publication date first, with the
// category expanded. Drafts are left out unless IncludeUnpublished is set.
func (s *Service) ListArticles(ctx context.Context, o ListArticlesOptions) ([]models.Article, error) {
	var conds []filter.Expr
	if !o.IncludeUnpublished {
		conds = append(conds, filter.Eq("published", true))
	}
	if o.CategorySlug != "" {
		conds = append(conds, filter.Eq("category.slug", o.CategorySlug))
	}
	f, err := filter.Build(filter.And(conds...))
	if err != nil {
		return nil, invalidFilter(err)
	}

	limit := o.Limit
	if limit <= 0 {
		limit = s.pageSize
	}

	res, err := store.List[models.Article](s.authed(ctx), s.store, schema.ArticlesCollection, 1, limit, store.ListOptions{
		Filter: f,
		Sort:   "-publication_date",
		Expand: "category",
	})
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return res.Items, nil
}

// ListAllArticlesForAdmin returns the first page of articles, drafts
// included, in store order and without expanding categories.
func (s *Service) ListAllArticlesForAdmin(ctx context.Context) ([]models.Article, error) {
	res, err := store.List[models.Article](s.authed(ctx), s.store, schema.ArticlesCollection, 1, DefaultPageSize, store.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list all articles: %w", err)
	}
	return res.Items, nil
}

func (s *Service) GetArticleBySlug(ctx context.Context, slug string) (*models.Article, error) {
	f, err := filter.Build(filter.Eq("slug", slug))
	if err != nil {
		return nil, invalidFilter(err)
	}
	a, err := store.First[models.Article](s.authed(ctx), s.store, schema.ArticlesCollection, f, store.QueryOptions{Expand: "category"})
	if err != nil {
		return nil, fmt.Errorf("get article %q: %w", slug, err)
	}
	return a, nil
}

func (s *Service) GetArticleByID(ctx context.Context, id string) (*models.Article, error) {
	a, err := store.One[models.Article](s.authed(ctx), s.store, schema.ArticlesCollection, id, store.QueryOptions{Expand: "category"})
	if err != nil {
		return nil, fmt.Errorf("get article %s: %w", id, err)
	}
	return a, nil
}

// ListCategories returns every category ordered by name.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats, err := store.FullList[models.Category](s.authed(ctx), s.store, schema.CategoriesCollection, store.ListOptions{Sort: "name"})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (s *Service) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	f, err := filter.Build(filter.Eq("slug", slug))
	if err != nil {
		return nil, invalidFilter(err)
	}
	c, err := store.First[models.Category](s.authed(ctx), s.store, schema.CategoriesCollection, f, store.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("get category %q: %w", slug, err)
	}
	return c, nil
}

// CreateCategory adds a category. Only superusers may do this.
func (s *Service) CreateCategory(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	c, err := store.Create[models.Category](s.authed(ctx), s.store, schema.CategoriesCollection, store.JSONBody(in), store.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("create category %q: %w", in.Slug, err)
	}
	return c, nil
}

// CoverImageURL returns the URL of the article's cover image, or "" when it
// has none. No request is made.
func (s *Service) CoverImageURL(a *models.Article) string {
	if a == nil || a.CoverImage == "" {
		return ""
	}
	collection := a.CollectionName
	if collection == "" {
		collection = schema.ArticlesCollection
	}
	u, err := s.files.URL(collection, a.ID, a.CoverImage)
	if err != nil {
		s.log.Warn(context.Background(), "cover image url", "article", a.ID, "err", err)
		return ""
	}
	return u
}

func (s *Service) IsLoggedIn() bool { return s.session.IsValid() }

// Login authenticates a superuser and stores the token in the session. A
// failed attempt leaves the session untouched.
func (s *Service) Login(ctx context.Context, identity, password string) error {
	res, err := s.store.AuthWithPassword(ctx, store.SuperusersCollection, identity, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := s.session.Save(ctx, res.Token, res.Record); err != nil {
		// the in-memory session is usable even if persisting it failed
		s.log.Warn(ctx, "persist session", "err", err)
	}
	return nil
}

func (s *Service) Logout(ctx context.Context) error {
	if err := s.session.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *Service) CreateArticle(ctx context.Context, in models.ArticleInput) (*models.Article, error) {
	a, err := store.Create[models.Article](s.authed(ctx), s.store, schema.ArticlesCollection, store.JSONBody(in), store.QueryOptions{Expand: "category"})
	if err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}
	return a, nil
}

// UpdateArticle replaces the tracked fields of article id. The cover image
// is not touched.
func (s *Service) UpdateArticle(ctx context.Context, id string, in models.ArticleInput) (*models.Article, error) {
	a, err := store.Update[models.Article](s.authed(ctx), s.store, schema.ArticlesCollection, id, store.JSONBody(in), store.QueryOptions{Expand: "category"})
	if err != nil {
		return nil, fmt.Errorf("update article %s: %w", id, err)
	}
	return a, nil
}

func (s *Service) DeleteArticle(ctx context.Context, id string) error {
	if err := store.Delete(s.authed(ctx), s.store, schema.ArticlesCollection, id); err != nil {
		return fmt.Errorf("delete article %s: %w", id, err)
	}
	return nil
}

// UploadCoverImage attaches u as the cover image of an existing article.
func (s *Service) UploadCoverImage(ctx context.Context, articleID string, u Upload) (*models.Article, error) {
	f, err := SniffImage(u, "cover_image", schema.MaxCoverImageSize)
	if err != nil {
		return nil, fmt.Errorf("upload cover image: %w", err)
	}
	body := store.MultipartBody{Files: map[string][]store.File{"cover_image": {f}}}
	a, err := store.Update[models.Article](s.authed(ctx), s.store, schema.ArticlesCollection, articleID, body, store.QueryOptions{})
	if err != nil {
		return nil, fmt.Errorf("upload cover image: %w", err)
	}
	return a, nil
}

// UploadContentImage stores u as a standalone image and returns its URL.
// The image is not linked to any article.
func (s *Service) UploadContentImage(ctx context.Context, u Upload, alt string) (string, error) {
	f, err := SniffImage(u, "file", schema.MaxContentImageSize)
	if err != nil {
		return "", fmt.Errorf("upload content image: %w", err)
	}
	body := store.MultipartBody{
		Files: map[string][]store.File{"file": {f}},
	}
	if alt != "" {
		body.Fields = map[string]string{"alt": alt}
	}

	img, err := store.Create[models.Image](s.authed(ctx), s.store, schema.ImagesCollection, body, store.QueryOptions{})
	if err != nil {
		return "", fmt.Errorf("upload content image: %w", err)
	}
	url, err := s.files.URL(schema.ImagesCollection, img.ID, img.File)
	if err != nil {
		return "", fmt.Errorf("upload content image: %w", err)
	}
	return url, nil
}

// invalidFilter reports a value the filter builder refused as a validation
// failure: no request was sent.
func invalidFilter(err error) error {
	return &store.Error{Kind: store.KindValidation, Message: err.Error(), Err: err}
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool { return errors.Is(err, store.ErrNotFound) }
