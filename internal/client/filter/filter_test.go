package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gopherblog/internal/client/store/storetest"
)

type slug string

func (s slug) String() string { return string(s) }

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{name: "nil", expr: nil, want: ""},
		{name: "empty and", expr: And(), want: ""},
		{name: "bool", expr: Eq("published", true), want: `published = true`},
		{name: "relation path", expr: Eq("category.slug", "music"), want: `category.slug = "music"`},
		{
			name: "published and category",
			expr: And(Eq("published", true), Eq("category.slug", "music")),
			want: `published = true && category.slug = "music"`,
		},
		{name: "and skips empty parts", expr: And(nil, And(), Eq("slug", "x")), want: `slug = "x"`},
		{
			name: "nested or is parenthesised",
			expr: And(Eq("published", true), Or(Eq("slug", "a"), Eq("slug", "b"))),
			want: `published = true && (slug = "a" || slug = "b")`,
		},
		{name: "number", expr: Gte("views", 10), want: `views >= 10`},
		{name: "float", expr: Lt("score", 0.5), want: `score < 0.5`},
		{name: "null", expr: Neq("cover_image", nil), want: `cover_image != null`},
		{
			name: "time",
			expr: Lte("publication_date", time.Date(2026, 1, 28, 17, 5, 0, 0, time.UTC)),
			want: `publication_date <= "2026-01-28 17:05:00.000Z"`,
		},
		{name: "stringer", expr: Eq("slug", slug("retro")), want: `slug = "retro"`},
		{name: "like", expr: Like("title", "go"), want: `title ~ "go"`},
		{name: "quote is escaped", expr: Eq("slug", `a"b`), want: `slug = "a\"b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(Eq("slug = \"x\" || id", "y"))
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = Build(Eq("", "y"))
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = Build(Cond("slug", Op("=="), "y"))
	assert.ErrorIs(t, err, ErrInvalidOperator)

	_, err = Build(Eq("tags", []string{"a"}))
	assert.ErrorIs(t, err, ErrUnsupportedValue)

	_, err = Build(Eq("slug", `x\`))
	assert.ErrorIs(t, err, ErrInvalidLiteral)

	_, err = Build(And(Eq("published", true), Eq("bad field", 1)))
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestBuild_HostileLiteralsStaySingleComparison(t *testing.T) {
	inputs := []string{
		`music`,
		`music" || published = false || slug = "`,
		`" && id != "`,
		`)(`,
		`'single' "double"`,
		`""`,
		`&& || ~ != ?=`,
		`ünïcødé 🎵`,
		``,
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			s, err := Build(Eq("category.slug", in))
			require.NoError(t, err)

			parsed, err := storetest.ParseFilter(s)
			require.NoError(t, err)

			cmps := parsed.Comparisons()
			require.Len(t, cmps, 1)
			assert.Equal(t, "category.slug", cmps[0].Left)
			assert.Equal(t, "=", cmps[0].Op)
			assert.Equal(t, in, cmps[0].Right)
		})
	}
}
