package editor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/gopherblog/internal/client/content"
	"github.com/dmitrijs2005/gopherblog/internal/client/models"
	"github.com/dmitrijs2005/gopherblog/internal/client/store"
)

var ErrCoverUpload = errors.New("article saved but the cover image upload failed")

var slugRun = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug lowercases title, turns every run of characters outside
// [a-z0-9] into a single hyphen and trims hyphens at both ends.
func GenerateSlug(title string) string {
	return strings.Trim(slugRun.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

// ParseTags splits a comma separated list, trimming blanks and dropping
// empty entries. Order and duplicates are kept.
func ParseTags(s string) models.Tags {
	tags := models.Tags{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(models.Date); ok {
			return d.String()
		}
		return nil
	}, models.Date{})
	return v
}

// Saver is the part of the content service the form saves through.
type Saver interface {
	CreateArticle(ctx context.Context, in models.ArticleInput) (*models.Article, error)
	UpdateArticle(ctx context.Context, id string, in models.ArticleInput) (*models.Article, error)
	UploadCoverImage(ctx context.Context, articleID string, u content.Upload) (*models.Article, error)
}

// Form is the state of the article editor. ID is empty for a new article.
type Form struct {
	ID              string
	Title           string
	Slug            string
	Excerpt         string
	Content         *TextBuffer
	Category        string
	Tags            string
	Published       bool
	PublicationDate string

	// CoverURL is the stored cover of the article being edited.
	CoverURL string
	// Error is the message of the last failed save.
	Error string

	cover *CoverDraft
}

// NewForm returns an empty form dated today.
func NewForm(today time.Time) *Form {
	return &Form{
		Content:         NewTextBuffer(""),
		PublicationDate: today.Format(models.DateLayout),
	}
}

// SetTitle updates the title and derives the slug if none is set yet.
func (f *Form) SetTitle(title string) {
	f.Title = title
	if f.Slug == "" {
		f.Slug = GenerateSlug(title)
	}
}

// LoadArticle fills the form from a stored article.
func (f *Form) LoadArticle(a *models.Article, coverURL string) {
	f.ID = a.ID
	f.Title = a.Title
	f.Slug = a.Slug
	f.Excerpt = a.Excerpt
	f.Content = NewTextBuffer(a.Content)
	f.Category = a.Category
	f.Tags = strings.Join(a.Tags, ", ")
	f.Published = a.Published
	f.PublicationDate = a.PublicationDate.String()
	f.CoverURL = coverURL
}

// SetCover replaces the cover draft, releasing the previous one.
func (f *Form) SetCover(d *CoverDraft) {
	if f.cover != nil && f.cover != d {
		_ = f.cover.Release()
	}
	f.cover = d
}

// RemoveCover drops the pending draft. The stored cover is kept.
func (f *Form) RemoveCover() { f.SetCover(nil) }

func (f *Form) Cover() *CoverDraft { return f.cover }

// Close releases the cover draft.
func (f *Form) Close() { f.SetCover(nil) }

// Input converts the form to an article payload.
func (f *Form) Input() (models.ArticleInput, error) {
	in := models.ArticleInput{
		Title:     strings.TrimSpace(f.Title),
		Slug:      strings.TrimSpace(f.Slug),
		Excerpt:   strings.TrimSpace(f.Excerpt),
		Category:  f.Category,
		Tags:      ParseTags(f.Tags),
		Published: f.Published,
	}
	if f.Content != nil {
		in.Content = f.Content.Value()
	}
	if strings.TrimSpace(f.PublicationDate) != "" {
		d, err := models.ParseDate(f.PublicationDate)
		if err != nil {
			return in, fmt.Errorf("publication_date: %w", err)
		}
		in.PublicationDate = d
	}
	return in, nil
}

// Validate checks the required inputs before anything is sent.
func (f *Form) Validate() error {
	in, err := f.Input()
	if err != nil {
		return err
	}
	return validateInput(in)
}

func validateInput(in models.ArticleInput) error {
	err := validate.Struct(in)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Save creates or updates the article, then uploads the cover draft if one
// is pending. On failure the form keeps its values and Error explains what
// went wrong.
func (f *Form) Save(ctx context.Context, svc Saver) (*models.Article, error) {
	f.Error = ""

	in, err := f.Input()
	if err == nil {
		err = validateInput(in)
	}
	if err != nil {
		f.Error = err.Error()
		return nil, err
	}

	var a *models.Article
	if f.ID != "" {
		a, err = svc.UpdateArticle(ctx, f.ID, in)
	} else {
		a, err = svc.CreateArticle(ctx, in)
	}
	if err != nil {
		f.Error = SaveMessage(err)
		return nil, err
	}
	f.ID = a.ID

	if f.cover != nil {
		u, err := f.cover.Upload()
		if err == nil {
			var updated *models.Article
			if updated, err = svc.UploadCoverImage(ctx, a.ID, u); err == nil {
				a = updated
			}
		}
		if err != nil {
			f.Error = ErrCoverUpload.Error()
			return a, fmt.Errorf("%w: %w", ErrCoverUpload, err)
		}
		f.SetCover(nil)
	}
	return a, nil
}

// SaveMessage explains a failed save to the user.
func SaveMessage(err error) string {
	if store.FieldCode(err, "slug") == "validation_not_unique" {
		return "Failed to save article: the slug is already in use."
	}
	switch store.KindOf(err) {
	case store.KindAuth:
		return "Failed to save article: not authorized, log in again."
	case store.KindNotFound:
		return "Failed to save article: it no longer exists."
	case store.KindTransport:
		return "Failed to save article: the store is unreachable."
	}
	return "Failed to save article. Check that the slug is unique."
}
