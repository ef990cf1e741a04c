package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gopherblog/internal/client/content"
	"github.com/dmitrijs2005/gopherblog/internal/client/models"
)

const intro = "I write about my many passions: retrogaming, modding, vibecoding, music,\n" +
	"self-improvement, hiking, AI, and everything in between."

// Home prints the categories and the latest published posts.
func (a *App) Home(ctx context.Context) error {
	fmt.Fprintln(a.out, intro)
	fmt.Fprintln(a.out)
	a.printCategories(a.soft.ListCategories(ctx))
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Latest Posts")

	articles := a.soft.ListArticles(ctx, content.ListArticlesOptions{})
	if len(articles) == 0 {
		fmt.Fprintln(a.out, "No articles yet. Start writing!")
		return nil
	}
	for i := range articles {
		a.printCard(&articles[i])
	}
	return nil
}

// Categories prints every category sorted by name.
func (a *App) Categories(ctx context.Context) error {
	a.printCategories(a.soft.ListCategories(ctx))
	return nil
}

// Category prints a category header and its published posts.
func (a *App) Category(ctx context.Context, slug string) error {
	c := a.soft.GetCategoryBySlug(ctx, slug)
	if c == nil {
		fmt.Fprintln(a.out, "Category not found.")
		return nil
	}

	fmt.Fprintf(a.out, "%s %s\n", c.Icon, c.Name)
	if c.Description != "" {
		fmt.Fprintln(a.out, c.Description)
	}
	fmt.Fprintln(a.out)

	articles := a.soft.ListArticles(ctx, content.ListArticlesOptions{CategorySlug: slug})
	if len(articles) == 0 {
		fmt.Fprintln(a.out, "No articles in this category yet.")
		return nil
	}
	for i := range articles {
		a.printCard(&articles[i])
	}
	return nil
}

// Article prints a single article with its body.
func (a *App) Article(ctx context.Context, slug string) error {
	art := a.soft.GetArticleBySlug(ctx, slug)
	if art == nil {
		fmt.Fprintln(a.out, "Article not found.")
		return nil
	}

	fmt.Fprintln(a.out, art.Title)
	fmt.Fprintln(a.out, meta(art))
	if u := a.soft.CoverImageURL(art); u != "" {
		fmt.Fprintln(a.out, "Cover:", u)
	}
	if len(art.Tags) > 0 {
		fmt.Fprintln(a.out, "Tags:", "#"+strings.Join(art.Tags, " #"))
	}
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, art.Content)
	return nil
}

func (a *App) About(_ context.Context) error {
	fmt.Fprintln(a.out, "About")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "This blog is my personal space to document and share my many passions.")
	fmt.Fprintln(a.out, "Topics: retrogaming, modding, vibecoding, music, self-improvement, sports,")
	fmt.Fprintln(a.out, "AI, digital marketing, books and much more.")
	return nil
}

func (a *App) printCategories(cs []models.Category) {
	if len(cs) == 0 {
		return
	}
	fmt.Fprintln(a.out, "Categories")
	for _, c := range cs {
		fmt.Fprintf(a.out, "  %s %-20s %s\n", c.Icon, c.Name, c.Slug)
	}
}

func (a *App) printCard(art *models.Article) {
	fmt.Fprintf(a.out, "- %s [%s]\n", art.Title, art.Slug)
	fmt.Fprintf(a.out, "  %s\n", meta(art))
	if art.Excerpt != "" {
		fmt.Fprintf(a.out, "  %s\n", art.Excerpt)
	}
}

// meta renders "Jan 2, 2006 · Category".
func meta(art *models.Article) string {
	s := ""
	if !art.PublicationDate.IsZero() {
		s = art.PublicationDate.Format("Jan 2, 2006")
	}
	if name := art.CategoryName(); name != "" {
		if s != "" {
			s += " · "
		}
		s += name
	}
	return s
}
