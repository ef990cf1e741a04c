package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gopherblog/internal/client/editor"
	"github.com/dmitrijs2005/gopherblog/internal/client/models"
)

// Admin lists every article, drafts included.
func (a *App) Admin(ctx context.Context) error {
	articles := a.soft.ListAllArticlesForAdmin(ctx)
	if len(articles) == 0 {
		fmt.Fprintln(a.out, "No articles yet. Create your first article with 'new'.")
		return nil
	}
	for _, art := range articles {
		status := "Draft"
		if art.Published {
			status = "Published"
		}
		fmt.Fprintf(a.out, "%s  %-9s  %s  %s\n", art.ID, status, art.PublicationDate.String(), art.Title)
	}
	return nil
}

// New opens the editor on an empty article dated today.
func (a *App) New(ctx context.Context) error {
	f := editor.NewForm(a.now())
	return a.runEditor(ctx, f)
}

// Edit loads the article and opens the editor on it.
func (a *App) Edit(ctx context.Context, id string) error {
	art := a.soft.GetArticleByID(ctx, id)
	if art == nil {
		fmt.Fprintln(a.out, "Article not found.")
		return nil
	}
	f := editor.NewForm(a.now())
	f.LoadArticle(art, a.soft.CoverImageURL(art))
	return a.runEditor(ctx, f)
}

// Delete removes an article after the user confirms.
func (a *App) Delete(ctx context.Context, id string) error {
	art := a.soft.GetArticleByID(ctx, id)
	if art == nil {
		fmt.Fprintln(a.out, "Article not found.")
		return nil
	}

	ok, err := Confirm(a.reader, fmt.Sprintf("Delete %q?", art.Title), a.out)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if !a.soft.DeleteArticle(ctx, id) {
		fmt.Fprintln(a.out, "Failed to delete article.")
		return nil
	}
	fmt.Fprintln(a.out, "Deleted.")
	return nil
}

// NewCategory prompts for a category and creates it.
func (a *App) NewCategory(ctx context.Context) error {
	var in models.CategoryInput
	var err error
	if in.Name, err = getSimpleText(a.reader, "Name", a.out); err != nil {
		return err
	}
	slug, err := getSimpleText(a.reader, fmt.Sprintf("Slug [%s]", editor.GenerateSlug(in.Name)), a.out)
	if err != nil {
		return err
	}
	if slug == "" {
		slug = editor.GenerateSlug(in.Name)
	}
	in.Slug = slug
	if in.Description, err = getSimpleText(a.reader, "Description (optional)", a.out); err != nil {
		return err
	}
	if in.Icon, err = getSimpleText(a.reader, "Icon (optional)", a.out); err != nil {
		return err
	}

	c := a.soft.CreateCategory(ctx, in)
	if c == nil {
		fmt.Fprintln(a.out, "Failed to create category. Check that the slug is unique.")
		return nil
	}
	fmt.Fprintf(a.out, "Created %s %s (%s)\n", c.Icon, c.Name, c.Slug)
	return nil
}
