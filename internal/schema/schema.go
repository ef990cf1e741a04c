// Package schema declares the store collections the blog needs and the
// category seed data.
package schema

// Field types understood by the store.
const (
	TypeText     = "text"
	TypeEditor   = "editor"
	TypeFile     = "file"
	TypeBool     = "bool"
	TypeDate     = "date"
	TypeRelation = "relation"
	TypeJSON     = "json"
)

// Collection is the store's collection definition as sent to the
// collections API. A nil rule is the most restrictive setting (superusers
// only); Open() is unrestricted.
type Collection struct {
	ID         string   `json:"id,omitempty"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	System     bool     `json:"system"`
	Fields     []Field  `json:"fields"`
	Indexes    []string `json:"indexes"`
	ListRule   *string  `json:"listRule"`
	ViewRule   *string  `json:"viewRule"`
	CreateRule *string  `json:"createRule"`
	UpdateRule *string  `json:"updateRule"`
	DeleteRule *string  `json:"deleteRule"`
}

type Field struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Required      bool     `json:"required"`
	Min           *int     `json:"min,omitempty"`
	Max           *int     `json:"max,omitempty"`
	Pattern       string   `json:"pattern,omitempty"`
	MinSelect     *int     `json:"minSelect,omitempty"`
	MaxSelect     *int     `json:"maxSelect,omitempty"`
	MaxSize       int64    `json:"maxSize,omitempty"`
	MimeTypes     []string `json:"mimeTypes,omitempty"`
	CollectionID  string   `json:"collectionId,omitempty"`
	CascadeDelete bool     `json:"cascadeDelete"`
}

// Field returns the field called name.
func (c Collection) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Open returns an unrestricted rule.
func Open() *string { return Rule("") }

// Rule returns a rule expression.
func Rule(expr string) *string { return &expr }

func intp(v int) *int { return &v }
