package content

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dmitrijs2005/gopherblog/internal/client/store"
	"github.com/dmitrijs2005/gopherblog/internal/schema"
)

// sniffLen is how much of a file mimetype needs to recognise images.
const sniffLen = 3072

// Upload is a file chosen for upload.
type Upload struct {
	Name string
	// Size in bytes; zero or negative when unknown.
	Size   int64
	Reader io.Reader
}

// SniffImage detects the MIME type of u and checks it against the accepted
// image formats and maxSize. The returned file replays the sniffed bytes.
// field names the store field in the validation error.
func SniffImage(u Upload, field string, maxSize int64) (store.File, error) {
	if u.Reader == nil {
		return store.File{}, uploadError(field, "validation_required", "No file selected.")
	}
	if u.Size > 0 && maxSize > 0 && u.Size > maxSize {
		return store.File{}, uploadError(field, "validation_file_size_limit",
			fmt.Sprintf("%q is larger than %d bytes.", u.Name, maxSize))
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(u.Reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return store.File{}, fmt.Errorf("read %q: %w", u.Name, err)
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	if !acceptedImage(mt) {
		return store.File{}, uploadError(field, "validation_invalid_mime_type",
			fmt.Sprintf("%q is %s, not an accepted image type.", u.Name, mt.String()))
	}

	return store.File{
		Name:        u.Name,
		ContentType: mt.String(),
		Size:        u.Size,
		Reader:      io.MultiReader(bytes.NewReader(head), u.Reader),
	}, nil
}

func acceptedImage(mt *mimetype.MIME) bool {
	for _, m := range schema.ImageMimeTypes {
		if mt.Is(m) {
			return true
		}
	}
	return false
}

func uploadError(field, code, msg string) *store.Error {
	return &store.Error{
		Kind:    store.KindValidation,
		Message: msg,
		Data:    map[string]store.FieldError{field: {Code: code, Message: msg}},
	}
}
