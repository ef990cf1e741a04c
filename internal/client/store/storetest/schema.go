package storetest

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// dateLayout is the canonical timestamp format of the store.
const dateLayout = "2006-01-02 15:04:05.000Z"

var acceptedDateLayouts = []string{
	dateLayout,
	"2006-01-02 15:04:05Z",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02",
}

type fieldDef struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Required      bool     `json:"required"`
	Min           *float64 `json:"min"`
	Max           *float64 `json:"max"`
	Pattern       string   `json:"pattern"`
	MinSelect     *int     `json:"minSelect"`
	MaxSelect     *int     `json:"maxSelect"`
	MaxSize       int64    `json:"maxSize"`
	MimeTypes     []string `json:"mimeTypes"`
	CollectionID  string   `json:"collectionId"`
	CascadeDelete bool     `json:"cascadeDelete"`
}

func (f fieldDef) single() bool { return f.MaxSelect == nil || *f.MaxSelect <= 1 }

type collectionDef struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	System     bool       `json:"system"`
	Fields     []fieldDef `json:"fields"`
	Indexes    []string   `json:"indexes"`
	ListRule   *string    `json:"listRule"`
	ViewRule   *string    `json:"viewRule"`
	CreateRule *string    `json:"createRule"`
	UpdateRule *string    `json:"updateRule"`
	DeleteRule *string    `json:"deleteRule"`
}

func (c *collectionDef) field(name string) (fieldDef, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return fieldDef{}, false
}

var uniqueIndex = regexp.MustCompile(`(?i)^\s*CREATE\s+UNIQUE\s+INDEX\s+(?:IF\s+NOT\s+EXISTS\s+)?` + "`?" + `\w+` + "`?" + `\s+ON\s+` + "`?" + `\w+` + "`?" + `\s*\(([^)]*)\)`)

// uniqueColumns returns the column sets covered by unique indexes.
func (c *collectionDef) uniqueColumns() [][]string {
	var out [][]string
	for _, idx := range c.Indexes {
		m := uniqueIndex.FindStringSubmatch(idx)
		if m == nil {
			continue
		}
		var cols []string
		for _, col := range strings.Split(m[1], ",") {
			col = strings.Trim(strings.TrimSpace(col), "`\"")
			if fields := strings.Fields(col); len(fields) > 0 {
				cols = append(cols, fields[0])
			}
		}
		out = append(out, cols)
	}
	return out
}

type fieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type upload struct {
	name string
	data []byte
}

// normalize converts an incoming value to its stored representation and
// validates it. Files are handled separately by validateFile.
func normalize(f fieldDef, v any, exists func(collectionID, id string) bool) (any, *fieldError) {
	switch f.Type {
	case "text", "editor", "email", "url":
		s := toString(v)
		if f.Required && s == "" {
			return s, &fieldError{"validation_required", "Cannot be blank."}
		}
		if s == "" {
			return s, nil
		}
		n := float64(utf8.RuneCountInString(s))
		if f.Min != nil && n < *f.Min {
			return s, &fieldError{"validation_min_text_constraint", fmt.Sprintf("Must be at least %v character(s).", *f.Min)}
		}
		if f.Max != nil && *f.Max > 0 && n > *f.Max {
			return s, &fieldError{"validation_max_text_constraint", fmt.Sprintf("Must be less than %v character(s).", *f.Max)}
		}
		if f.Pattern != "" {
			re, err := regexp.Compile(f.Pattern)
			if err == nil && !re.MatchString(s) {
				return s, &fieldError{"validation_invalid_format", "Invalid value format."}
			}
		}
		return s, nil

	case "bool":
		b := truthy(v)
		if f.Required && !b {
			return b, &fieldError{"validation_required", "Cannot be blank."}
		}
		return b, nil

	case "number":
		n, ok := toFloat(v)
		if !ok && v != nil && toString(v) != "" {
			return 0.0, &fieldError{"validation_invalid_number", "Must be a number."}
		}
		return n, nil

	case "date":
		s := toString(v)
		if s == "" {
			if f.Required {
				return "", &fieldError{"validation_required", "Cannot be blank."}
			}
			return "", nil
		}
		for _, layout := range acceptedDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC().Format(dateLayout), nil
			}
		}
		return s, &fieldError{"validation_invalid_date", "Must be a valid date."}

	case "relation":
		ids := stringList(v)
		if f.Required && len(ids) == 0 {
			return "", &fieldError{"validation_required", "Cannot be blank."}
		}
		for _, id := range ids {
			if !exists(f.CollectionID, id) {
				return "", &fieldError{"validation_missing_rel_records", "Failed to find all relation records with the provided ids."}
			}
		}
		if f.single() {
			if len(ids) == 0 {
				return "", nil
			}
			return ids[0], nil
		}
		return ids, nil

	case "json":
		if f.Required && isBlank(v) {
			return v, &fieldError{"validation_required", "Cannot be blank."}
		}
		return v, nil
	}
	return v, nil
}

func validateFile(f fieldDef, u upload) *fieldError {
	if f.MaxSize > 0 && int64(len(u.data)) > f.MaxSize {
		return &fieldError{"validation_file_size_limit", fmt.Sprintf("Failed to upload %q - the maximum allowed file size is %d bytes.", u.name, f.MaxSize)}
	}
	if len(f.MimeTypes) > 0 {
		detected := mimetype.Detect(u.data)
		ok := false
		for _, m := range f.MimeTypes {
			if detected.Is(m) {
				ok = true
				break
			}
		}
		if !ok {
			return &fieldError{"validation_invalid_mime_type", fmt.Sprintf("%q mime type must be one of: %s.", u.name, strings.Join(f.MimeTypes, ", "))}
		}
	}
	return nil
}

func stringList(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if x == "" {
			return nil
		}
		return []string{x}
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{toString(v)}
}

// zeroValue is what an unset field reads as.
func zeroValue(f fieldDef) any {
	switch f.Type {
	case "bool":
		return false
	case "number":
		return 0.0
	case "json":
		return nil
	case "relation", "file":
		if f.single() {
			return ""
		}
		return []string{}
	}
	return ""
}
