package editor

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gopherblog/internal/client/content"
)

// ErrUploadFailed is returned when an image could not be uploaded; nothing
// is inserted in that case.
var ErrUploadFailed = errors.New("image upload failed")

var (
	altEscaper = strings.NewReplacer(`\`, `\\`, "[", `\[`, "]", `\]`)
	urlEscaper = strings.NewReplacer("(", "%28", ")", "%29", " ", "%20")
)

// Prompter asks the user for a value. ok is false when the user cancelled.
type Prompter interface {
	Prompt(ctx context.Context, label string) (value string, ok bool, err error)
}

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, u content.Upload) (string, error)
}

// ContentUploader uploads into the store's images collection.
type ContentUploader struct {
	Service *content.Service
}

func (c ContentUploader) UploadImage(ctx context.Context, u content.Upload) (string, error) {
	return c.Service.UploadContentImage(ctx, u, "")
}

// Toolbar inserts markup into a Buffer. With a nil buffer every action is
// a no-op.
type Toolbar struct {
	Buffer   Buffer
	Prompter Prompter
	Uploader ImageUploader
}

// detached reports whether there is no buffer to edit. A Form without
// content hands over a typed nil *TextBuffer.
func (t *Toolbar) detached() bool {
	if t == nil || t.Buffer == nil {
		return true
	}
	b, ok := t.Buffer.(*TextBuffer)
	return ok && b == nil
}

func (t *Toolbar) insert(prefix, suffix, placeholder string) {
	if t.detached() {
		return
	}
	start, end := t.Buffer.Selection()
	apply(t.Buffer, WrapSelection(t.Buffer.Value(), start, end, prefix, suffix, placeholder))
}

// Heading wraps the selection in <hN>.
func (t *Toolbar) Heading(level int) {
	if level < 1 || level > 6 {
		level = 2
	}
	n := strconv.Itoa(level)
	t.insert("<h"+n+">", "</h"+n+">", "Heading")
}

func (t *Toolbar) CodeBlock() {
	t.insert("<pre><code class=\"language-javascript\">\n", "\n</code></pre>", "// Your code here")
}

func (t *Toolbar) InlineCode() {
	t.insert("<code>", "</code>", "code")
}

func (t *Toolbar) Quote() {
	t.insert("<blockquote>\n<p>", "</p>\n</blockquote>", "Your quote here")
}

// List inserts a two item list; the selection becomes the first item.
func (t *Toolbar) List() {
	t.insert("<ul>\n  <li>", "</li>\n  <li>Item 2</li>\n</ul>", "Item 1")
}

// Link asks for a URL and wraps the selection in an anchor. A cancelled or
// empty prompt inserts nothing.
func (t *Toolbar) Link(ctx context.Context) error {
	if t.detached() || t.Prompter == nil {
		return nil
	}
	url, ok, err := t.Prompter.Prompt(ctx, "Enter URL:")
	if err != nil {
		return err
	}
	if !ok || url == "" {
		return nil
	}
	t.insert(`<a href="`+html.EscapeString(url)+`">`, "</a>", "Link text")
	return nil
}

// Image uploads u and wraps the selection in a figure pointing at it. The
// selection is read after the upload finishes.
func (t *Toolbar) Image(ctx context.Context, u content.Upload) error {
	url, err := t.upload(ctx, u)
	if err != nil || url == "" {
		return err
	}
	t.insert(
		"<figure>\n  <img src=\""+html.EscapeString(url)+"\" alt=\"",
		"\" />\n  <figcaption>Caption (optional)</figcaption>\n</figure>",
		"Image description",
	)
	return nil
}

// MarkdownImage uploads u and replaces the selection with ![name](url).
// Brackets in the name and parentheses in the URL are escaped.
func (t *Toolbar) MarkdownImage(ctx context.Context, u content.Upload) error {
	url, err := t.upload(ctx, u)
	if err != nil || url == "" {
		return err
	}
	start, end := t.Buffer.Selection()
	apply(t.Buffer, Replace(t.Buffer.Value(), start, end, "!["+altEscaper.Replace(u.Name)+"]("+urlEscaper.Replace(url)+")"))
	return nil
}

func (t *Toolbar) upload(ctx context.Context, u content.Upload) (string, error) {
	if t.detached() || t.Uploader == nil {
		return "", nil
	}
	url, err := t.Uploader.UploadImage(ctx, u)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if url == "" {
		return "", ErrUploadFailed
	}
	return url, nil
}
