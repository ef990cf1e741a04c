package models

import (
	"encoding/json"
	"slices"
)

type Article struct {
	Record
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	Excerpt         string        `json:"excerpt"`
	Content         string        `json:"content"`
	CoverImage      string        `json:"cover_image"`
	Category        string        `json:"category"`
	Tags            Tags          `json:"tags"`
	Published       bool          `json:"published"`
	PublicationDate Date          `json:"publication_date"`
	Expand          ArticleExpand `json:"expand"`
}

// ArticleExpand holds relations inlined with expand=category.
type ArticleExpand struct {
	Category *Category `json:"category,omitempty"`
}

// CategoryName returns the expanded category's name, or "".
func (a *Article) CategoryName() string {
	if a.Expand.Category == nil {
		return ""
	}
	return a.Expand.Category.Name
}

// Input returns the writable fields of a.
func (a *Article) Input() ArticleInput {
	return ArticleInput{
		Title:           a.Title,
		Slug:            a.Slug,
		Excerpt:         a.Excerpt,
		Content:         a.Content,
		Category:        a.Category,
		Tags:            slices.Clone(a.Tags),
		Published:       a.Published,
		PublicationDate: a.PublicationDate,
	}
}

// ArticleInput is the payload of article create and update calls.
type ArticleInput struct {
	Title           string `json:"title" validate:"required,max=200"`
	Slug            string `json:"slug" validate:"required,max=200"`
	Excerpt         string `json:"excerpt" validate:"required,max=500"`
	Content         string `json:"content" validate:"required"`
	Category        string `json:"category"`
	Tags            Tags   `json:"tags"`
	Published       bool   `json:"published"`
	PublicationDate Date   `json:"publication_date" validate:"required"`
}

// Tags is an ordered tag list. Duplicates are kept; null reads as empty.
type Tags []string

func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

func (t *Tags) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	if list == nil {
		list = []string{}
	}
	*t = list
	return nil
}
