package schema

// Collection names.
const (
	CategoriesCollection = "categories"
	ArticlesCollection   = "articles"
	ImagesCollection     = "images"
)

// Upload limits of the file fields.
const (
	MaxCoverImageSize   = 5 << 20
	MaxContentImageSize = 10 << 20
)

// AuthenticatedRule admits any signed-in identity.
const AuthenticatedRule = `@request.auth.id != ""`

// ImageMimeTypes are the formats accepted for cover and content images.
var ImageMimeTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

func Categories() Collection {
	return Collection{
		ID:   CategoriesCollection,
		Name: CategoriesCollection,
		Type: "base",
		Fields: []Field{
			{Name: "name", Type: TypeText, Required: true, Min: intp(1), Max: intp(100)},
			{Name: "slug", Type: TypeText, Required: true, Min: intp(1), Max: intp(100), Pattern: "^[a-z0-9-]+$"},
			{Name: "description", Type: TypeText, Max: intp(500)},
			{Name: "icon", Type: TypeText, Max: intp(10)},
		},
		Indexes: []string{
			"CREATE UNIQUE INDEX idx_categories_slug ON categories (slug)",
		},
		ListRule: Open(),
		ViewRule: Open(),
	}
}

// Articles is open for every operation; drafts are hidden by the client's
// list filter, not by the store.
func Articles() Collection {
	return Collection{
		ID:   ArticlesCollection,
		Name: ArticlesCollection,
		Type: "base",
		Fields: []Field{
			{Name: "title", Type: TypeText, Required: true, Min: intp(1), Max: intp(200)},
			{Name: "slug", Type: TypeText, Required: true, Min: intp(1), Max: intp(200)},
			{Name: "excerpt", Type: TypeText, Required: true, Min: intp(1), Max: intp(500)},
			{Name: "content", Type: TypeEditor, Required: true},
			{
				Name:      "cover_image",
				Type:      TypeFile,
				MaxSelect: intp(1),
				MaxSize:   MaxCoverImageSize,
				MimeTypes: ImageMimeTypes,
			},
			{
				Name:          "category",
				Type:          TypeRelation,
				CollectionID:  CategoriesCollection,
				CascadeDelete: false,
				MaxSelect:     intp(1),
			},
			{Name: "tags", Type: TypeJSON},
			{Name: "published", Type: TypeBool},
			{Name: "publication_date", Type: TypeDate, Required: true},
		},
		Indexes: []string{
			"CREATE UNIQUE INDEX idx_articles_slug ON articles (slug)",
			"CREATE INDEX idx_articles_published ON articles (published)",
			"CREATE INDEX idx_articles_publication_date ON articles (publication_date)",
		},
		ListRule:   Open(),
		ViewRule:   Open(),
		CreateRule: Open(),
		UpdateRule: Open(),
		DeleteRule: Open(),
	}
}

func Images() Collection {
	return Collection{
		ID:   ImagesCollection,
		Name: ImagesCollection,
		Type: "base",
		Fields: []Field{
			{
				Name:      "file",
				Type:      TypeFile,
				Required:  true,
				MaxSelect: intp(1),
				MaxSize:   MaxContentImageSize,
				MimeTypes: ImageMimeTypes,
			},
			{Name: "alt", Type: TypeText, Max: intp(200)},
		},
		ListRule:   Open(),
		ViewRule:   Open(),
		CreateRule: Rule(AuthenticatedRule),
		UpdateRule: Rule(AuthenticatedRule),
		DeleteRule: Rule(AuthenticatedRule),
	}
}
