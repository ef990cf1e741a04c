package editor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dmitrijs2005/gopherblog/internal/client/content"
	"github.com/dmitrijs2005/gopherblog/internal/filex"
	"github.com/dmitrijs2005/gopherblog/internal/schema"
)

// CoverDraft is a cover image picked in the form but not uploaded yet. It
// holds the file open until Release.
type CoverDraft struct {
	name string
	mime string
	size int64

	mu       sync.Mutex
	file     *os.File
	released bool
}

// OpenCoverDraft opens path and checks that it is an accepted image.
func OpenCoverDraft(path string) (*CoverDraft, error) {
	f, st, err := filex.OpenRegular(path)
	if err != nil {
		return nil, err
	}

	mt, err := mimetype.DetectReader(io.NewSectionReader(f, 0, st.Size()))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("detect %s: %w", path, err)
	}
	if !acceptedImage(mt.String()) {
		_ = f.Close()
		return nil, fmt.Errorf("%s is %s, not an accepted image type", filepath.Base(path), mt.String())
	}
	if st.Size() > schema.MaxCoverImageSize {
		_ = f.Close()
		return nil, fmt.Errorf("%s is larger than %d bytes", filepath.Base(path), schema.MaxCoverImageSize)
	}

	return &CoverDraft{name: filepath.Base(path), mime: mt.String(), size: st.Size(), file: f}, nil
}

func acceptedImage(mime string) bool {
	m := mimetype.Lookup(mime)
	if m == nil {
		return false
	}
	for _, accepted := range schema.ImageMimeTypes {
		if m.Is(accepted) {
			return true
		}
	}
	return false
}

func (d *CoverDraft) Name() string { return d.name }
func (d *CoverDraft) MIME() string { return d.mime }
func (d *CoverDraft) Size() int64  { return d.size }

// Preview describes the draft for display.
func (d *CoverDraft) Preview() string {
	return fmt.Sprintf("%s (%s, %d bytes, not uploaded)", d.name, d.mime, d.size)
}

// Upload returns a fresh reader over the file, so a failed upload can be
// retried.
func (d *CoverDraft) Upload() (content.Upload, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return content.Upload{}, fmt.Errorf("cover draft %s was released", d.name)
	}
	return content.Upload{Name: d.name, Size: d.size, Reader: io.NewSectionReader(d.file, 0, d.size)}, nil
}

// Released reports whether Release was called.
func (d *CoverDraft) Released() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

// Release closes the file. Calling it again does nothing.
func (d *CoverDraft) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return nil
	}
	d.released = true
	return d.file.Close()
}
