package content

import (
	"context"

	"github.com/dmitrijs2005/gopherblog/internal/client/models"
	"github.com/dmitrijs2005/gopherblog/internal/client/store"
)

// Soft never returns errors. Each failure is logged with its kind and
// replaced by nil, false, "" or an empty slice, so "nothing found" and
// "request failed" look the same to the caller.
type Soft struct {
	svc *Service
}

func NewSoft(svc *Service) *Soft { return &Soft{svc: svc} }

// Service returns the wrapped typed-error service.
func (s *Soft) Service() *Service { return s.svc }

func (s *Soft) fail(ctx context.Context, op string, err error) {
	s.svc.log.Error(ctx, op+" failed", "kind", store.KindOf(err).String(), "err", err)
}

func (s *Soft) ListArticles(ctx context.Context, o ListArticlesOptions) []models.Article {
	as, err := s.svc.ListArticles(ctx, o)
	if err != nil {
		s.fail(ctx, "list articles", err)
		return []models.Article{}
	}
	return as
}

func (s *Soft) ListAllArticlesForAdmin(ctx context.Context) []models.Article {
	as, err := s.svc.ListAllArticlesForAdmin(ctx)
	if err != nil {
		s.fail(ctx, "list all articles", err)
		return []models.Article{}
	}
	return as
}

func (s *Soft) GetArticleBySlug(ctx context.Context, slug string) *models.Article {
	a, err := s.svc.GetArticleBySlug(ctx, slug)
	if err != nil {
		s.fail(ctx, "get article by slug", err)
		return nil
	}
	return a
}

func (s *Soft) GetArticleByID(ctx context.Context, id string) *models.Article {
	a, err := s.svc.GetArticleByID(ctx, id)
	if err != nil {
		s.fail(ctx, "get article by id", err)
		return nil
	}
	return a
}

func (s *Soft) ListCategories(ctx context.Context) []models.Category {
	cs, err := s.svc.ListCategories(ctx)
	if err != nil {
		s.fail(ctx, "list categories", err)
		return []models.Category{}
	}
	return cs
}

func (s *Soft) GetCategoryBySlug(ctx context.Context, slug string) *models.Category {
	c, err := s.svc.GetCategoryBySlug(ctx, slug)
	if err != nil {
		s.fail(ctx, "get category", err)
		return nil
	}
	return c
}

func (s *Soft) CreateCategory(ctx context.Context, in models.CategoryInput) *models.Category {
	c, err := s.svc.CreateCategory(ctx, in)
	if err != nil {
		s.fail(ctx, "create category", err)
		return nil
	}
	return c
}

func (s *Soft) CoverImageURL(a *models.Article) string { return s.svc.CoverImageURL(a) }

func (s *Soft) IsLoggedIn() bool { return s.svc.IsLoggedIn() }

// Login reports whether the credentials were accepted. The reason for a
// rejection is only logged.
func (s *Soft) Login(ctx context.Context, identity, password string) bool {
	if err := s.svc.Login(ctx, identity, password); err != nil {
		s.fail(ctx, "login", err)
		return false
	}
	return true
}

func (s *Soft) Logout(ctx context.Context) {
	if err := s.svc.Logout(ctx); err != nil {
		s.fail(ctx, "logout", err)
	}
}

func (s *Soft) CreateArticle(ctx context.Context, in models.ArticleInput) *models.Article {
	a, err := s.svc.CreateArticle(ctx, in)
	if err != nil {
		s.fail(ctx, "create article", err)
		return nil
	}
	return a
}

func (s *Soft) UpdateArticle(ctx context.Context, id string, in models.ArticleInput) *models.Article {
	a, err := s.svc.UpdateArticle(ctx, id, in)
	if err != nil {
		s.fail(ctx, "update article", err)
		return nil
	}
	return a
}

func (s *Soft) DeleteArticle(ctx context.Context, id string) bool {
	if err := s.svc.DeleteArticle(ctx, id); err != nil {
		s.fail(ctx, "delete article", err)
		return false
	}
	return true
}

func (s *Soft) UploadCoverImage(ctx context.Context, articleID string, u Upload) *models.Article {
	a, err := s.svc.UploadCoverImage(ctx, articleID, u)
	if err != nil {
		s.fail(ctx, "upload cover image", err)
		return nil
	}
	return a
}

func (s *Soft) UploadContentImage(ctx context.Context, u Upload, alt string) string {
	url, err := s.svc.UploadContentImage(ctx, u, alt)
	if err != nil {
		s.fail(ctx, "upload content image", err)
		return ""
	}
	return url
}
