package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gopherblog/internal/client/content"
	"github.com/dmitrijs2005/gopherblog/internal/client/editor"
	"github.com/dmitrijs2005/gopherblog/internal/filex"
)

const editorHelp = `Editor commands:
  show                   print the form
  title <text>           set the title (fills an empty slug)
  slug <text>            set the slug
  excerpt                enter the excerpt
  content                replace the body
  type <text>            replace the selection with text
  select <start> <end>   select a range of the body (in characters)
  caret <pos>            move the caret
  h1 | h2 | h3 | code | inline | quote | list | link
                         wrap the selection with markup
  image <path>           upload an image and insert a figure
  mdimage <path>         upload an image and insert ![name](url)
  category <slug> | -    set or clear the category
  tags <a, b, c>         set the tags
  date <YYYY-MM-DD>      set the publication date
  publish | unpublish    toggle publication
  cover <path> | uncover pick or drop the cover image
  save                   save the article
  quit                   leave without saving`

// linePrompter asks on the REPL's own input. An empty answer cancels.
type linePrompter struct {
	reader *bufio.Reader
	out    io.Writer
}

func (p linePrompter) Prompt(_ context.Context, label string) (string, bool, error) {
	v, err := GetSimpleText(p.reader, label, p.out)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, v != "", nil
}

// openUpload opens path as an upload. The caller closes the returned file.
func openUpload(path string) (content.Upload, io.Closer, error) {
	f, st, err := filex.OpenRegular(path)
	if err != nil {
		return content.Upload{}, nil, err
	}
	return content.Upload{Name: filepath.Base(path), Size: st.Size(), Reader: f}, f, nil
}

// runEditor edits f until it is saved or the user quits. The form is closed
// on the way out, releasing any cover draft.
func (a *App) runEditor(ctx context.Context, f *editor.Form) error {
	defer f.Close()

	tb := &editor.Toolbar{
		Buffer:   f.Content,
		Prompter: linePrompter{reader: a.reader, out: a.out},
		Uploader: editor.ContentUploader{Service: a.svc},
	}

	if f.ID == "" {
		fmt.Fprintln(a.out, "New article (type 'help' for editor commands)")
	} else {
		fmt.Fprintf(a.out, "Editing %s (type 'help' for editor commands)\n", f.ID)
	}

	for {
		printlnFn("edit> ")
		line, err := a.reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch cmd {
		case "help":
			fmt.Fprintln(a.out, editorHelp)
		case "show":
			a.printForm(f)
		case "title":
			f.SetTitle(rest)
		case "slug":
			f.Slug = rest
		case "excerpt":
			excerpt, err := GetMultiline(a.reader, "Excerpt", a.out)
			if err != nil {
				return err
			}
			f.Excerpt = excerpt
		case "content":
			body, err := GetDocument(a.reader, "Content", a.out)
			if err != nil {
				return err
			}
			f.Content.SetValue(body)
		case "type":
			start, end := f.Content.Selection()
			e := editor.Replace(f.Content.Value(), start, end, rest)
			f.Content.SetValue(e.Text)
			f.Content.SetCaret(e.Caret)
		case "select":
			start, end, ok := twoInts(rest)
			if !ok {
				fmt.Fprintln(a.out, "Usage: select <start> <end>")
				continue
			}
			f.Content.Select(start, end)
		case "caret":
			pos, err := strconv.Atoi(rest)
			if err != nil {
				fmt.Fprintln(a.out, "Usage: caret <pos>")
				continue
			}
			f.Content.SetCaret(pos)
		case "h1", "h2", "h3":
			tb.Heading(int(cmd[1] - '0'))
		case "code":
			tb.CodeBlock()
		case "inline":
			tb.InlineCode()
		case "quote":
			tb.Quote()
		case "list":
			tb.List()
		case "link":
			if err := tb.Link(ctx); err != nil {
				return err
			}
		case "image", "mdimage":
			a.insertImage(ctx, tb, cmd == "mdimage", rest)
		case "category":
			a.setCategory(ctx, f, rest)
		case "tags":
			f.Tags = rest
		case "date":
			f.PublicationDate = rest
		case "publish":
			f.Published = true
		case "unpublish":
			f.Published = false
		case "cover":
			d, err := editor.OpenCoverDraft(rest)
			if err != nil {
				fmt.Fprintln(a.out, "Cannot use cover:", err)
				continue
			}
			f.SetCover(d)
			fmt.Fprintf(a.out, "Cover %s (%s, %d bytes) will be uploaded on save\n", d.Name(), d.MIME(), d.Size())
		case "uncover":
			f.RemoveCover()
		case "save":
			if a.save(ctx, f) {
				return nil
			}
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintln(a.out, "Unknown editor command:", cmd)
		}
	}
}

func (a *App) insertImage(ctx context.Context, tb *editor.Toolbar, markdown bool, path string) {
	if path == "" {
		fmt.Fprintln(a.out, "Usage: image <path>")
		return
	}
	u, closer, err := openUpload(path)
	if err != nil {
		fmt.Fprintln(a.out, "Cannot read image:", err)
		return
	}
	defer closer.Close()

	if markdown {
		err = tb.MarkdownImage(ctx, u)
	} else {
		err = tb.Image(ctx, u)
	}
	if err != nil {
		fmt.Fprintln(a.out, "Image upload failed:", err)
		return
	}
	fmt.Fprintln(a.out, "Image inserted.")
}

func (a *App) setCategory(ctx context.Context, f *editor.Form, slug string) {
	if slug == "" || slug == "-" {
		f.Category = ""
		return
	}
	c := a.soft.GetCategoryBySlug(ctx, slug)
	if c == nil {
		fmt.Fprintln(a.out, "Category not found. Use 'categories' to list them.")
		return
	}
	f.Category = c.ID
}

// save reports whether the editor can close.
func (a *App) save(ctx context.Context, f *editor.Form) bool {
	art, err := f.Save(ctx, a.svc)
	switch {
	case err == nil:
		fmt.Fprintf(a.out, "Saved %s (%s)\n", art.Slug, art.ID)
		return true
	case errors.Is(err, editor.ErrCoverUpload):
		a.log.Warn(ctx, "cover upload failed", "article", f.ID, "err", err)
		fmt.Fprintln(a.out, f.Error+". Try 'save' again or 'uncover'.")
	default:
		a.log.Warn(ctx, "save article failed", "err", err)
		fmt.Fprintln(a.out, f.Error)
	}
	return false
}

func (a *App) printForm(f *editor.Form) {
	published := "no"
	if f.Published {
		published = "yes"
	}
	fmt.Fprintf(a.out, "Title:     %s\n", f.Title)
	fmt.Fprintf(a.out, "Slug:      %s\n", f.Slug)
	fmt.Fprintf(a.out, "Excerpt:   %s\n", f.Excerpt)
	fmt.Fprintf(a.out, "Category:  %s\n", f.Category)
	fmt.Fprintf(a.out, "Tags:      %s\n", f.Tags)
	fmt.Fprintf(a.out, "Date:      %s\n", f.PublicationDate)
	fmt.Fprintf(a.out, "Published: %s\n", published)
	switch d := f.Cover(); {
	case d != nil:
		fmt.Fprintf(a.out, "Cover:     %s (pending upload)\n", d.Name())
	case f.CoverURL != "":
		fmt.Fprintf(a.out, "Cover:     %s\n", f.CoverURL)
	}
	start, end := f.Content.Selection()
	fmt.Fprintf(a.out, "Content (selection %d-%d):\n%s\n", start, end, f.Content.Value())
}

func twoInts(s string) (int, int, bool) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return 0, 0, false
	}
	x, err1 := strconv.Atoi(fields[0])
	y, err2 := strconv.Atoi(fields[1])
	return x, y, err1 == nil && err2 == nil
}
