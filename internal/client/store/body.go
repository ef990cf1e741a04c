package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
)

// Body is a request payload.
type Body interface {
	encode() (r io.Reader, contentType string, err error)
}

type jsonBody struct{ v any }

// JSONBody sends v as application/json.
func JSONBody(v any) Body { return jsonBody{v: v} }

func (b jsonBody) encode() (io.Reader, string, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, "", fmt.Errorf("encode body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

// File is an upload for a file field.
type File struct {
	Name        string
	ContentType string
	// Size is informational; -1 or 0 means unknown.
	Size   int64
	Reader io.Reader
}

// MultipartBody sends plain fields and files as multipart/form-data. Several
// files under one key fill a multi-file field.
type MultipartBody struct {
	Fields map[string]string
	Files  map[string][]File
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (b MultipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, k := range sortedKeys(b.Fields) {
		if err := w.WriteField(k, b.Fields[k]); err != nil {
			return nil, "", err
		}
	}
	for _, k := range sortedKeys(b.Files) {
		for _, f := range b.Files[k] {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition",
				fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(k), quoteEscaper.Replace(f.Name)))
			ct := f.ContentType
			if ct == "" {
				ct = "application/octet-stream"
			}
			h.Set("Content-Type", ct)

			part, err := w.CreatePart(h)
			if err != nil {
				return nil, "", err
			}
			if _, err := io.Copy(part, f.Reader); err != nil {
				return nil, "", fmt.Errorf("read upload %q: %w", f.Name, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
