package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storedArticle = `{
  "id": "k3s9x0p2m1a7q4z",
  "collectionId": "articles",
  "collectionName": "articles",
  "created": "2026-01-28 17:05:11.120Z",
  "updated": "2026-01-29 08:00:00.000Z",
  "title": "Restoring a Game Boy",
  "slug": "restoring-a-game-boy",
  "excerpt": "Capacitors, screens and patience.",
  "content": "<p>Step one</p>",
  "cover_image": "gameboy_a1b2c3d4e5.jpg",
  "category": "c1",
  "tags": ["retro", "hardware", "retro"],
  "published": true,
  "publication_date": "2026-01-28 00:00:00.000Z",
  "expand": {"category": {"id": "c1", "name": "Retrogaming", "slug": "retrogaming", "icon": "🎮"}}
}`

func TestArticle_DecodesStoreRecord(t *testing.T) {
	var a Article
	require.NoError(t, json.Unmarshal([]byte(storedArticle), &a))

	assert.Equal(t, "k3s9x0p2m1a7q4z", a.ID)
	assert.Equal(t, "articles", a.CollectionName)
	assert.Equal(t, time.Date(2026, 1, 28, 17, 5, 11, 120e6, time.UTC), a.Created.Time)
	assert.Equal(t, Tags{"retro", "hardware", "retro"}, a.Tags)
	assert.Equal(t, "2026-01-28", a.PublicationDate.String())
	assert.Equal(t, "Retrogaming", a.CategoryName())
}

func TestArticle_NullTagsAndEmptyDates(t *testing.T) {
	var a Article
	require.NoError(t, json.Unmarshal([]byte(`{"tags": null, "publication_date": "", "created": ""}`), &a))

	assert.Empty(t, a.Tags)
	assert.True(t, a.PublicationDate.IsZero())
	assert.True(t, a.Created.IsZero())
	assert.Equal(t, "", a.CategoryName())
}

func TestArticleInput_Encodes(t *testing.T) {
	in := ArticleInput{
		Title:           "Hello",
		Slug:            "hello",
		Excerpt:         "e",
		Content:         "c",
		PublicationDate: NewDate(time.Date(2026, 3, 9, 22, 30, 0, 0, time.UTC)),
	}
	b, err := json.Marshal(in)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"title": "Hello", "slug": "hello", "excerpt": "e", "content": "c",
		"category": "", "tags": [], "published": false, "publication_date": "2026-03-09"
	}`, string(b))
}

func TestArticle_InputRoundTrip(t *testing.T) {
	var a Article
	require.NoError(t, json.Unmarshal([]byte(storedArticle), &a))

	in := a.Input()
	assert.Equal(t, "restoring-a-game-boy", in.Slug)
	assert.Equal(t, Tags{"retro", "hardware", "retro"}, in.Tags)

	in.Tags[0] = "changed"
	assert.Equal(t, "retro", a.Tags[0], "Input must not alias the article's tags")
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2026-02-01", "2026-02-01 13:45:00.000Z", "2026-02-01T13:45:00Z"} {
		d, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, "2026-02-01", d.String())
	}

	_, err := ParseDate("01/02/2026")
	require.Error(t, err)
}

func TestDateTime_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(DateTime{})
	require.NoError(t, err)
	assert.Equal(t, `""`, string(b))

	b, err = json.Marshal(DateTime{Time: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, `"2026-01-02 03:04:05.000Z"`, string(b))
}
