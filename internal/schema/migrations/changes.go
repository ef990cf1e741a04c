// Package migrations versions the store schema. Each Change creates or
// removes collections, or seeds rows, through a Target; the Runner records
// the highest applied version in the local state database.
package migrations

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gopherblog/internal/schema"
)

// Change is one versioned step. Down must undo exactly what Up did.
type Change struct {
	Version int64
	Name    string
	Up      func(ctx context.Context, t Target) error
	Down    func(ctx context.Context, t Target) error
}

func (c Change) String() string { return fmt.Sprintf("%d_%s", c.Version, c.Name) }

// Changes returns the schema history in version order.
func Changes() []Change {
	return []Change{
		createCollection(1769621111, "create_categories_collection", schema.Categories),
		createCollection(1769621121, "create_articles_collection", schema.Articles),
		{
			Version: 1769621130,
			Name:    "seed_categories",
			Up:      seedCategories,
			Down:    deleteAll(schema.CategoriesCollection),
		},
		createCollection(1769621601, "create_images_collection", schema.Images),
	}
}

func createCollection(version int64, name string, def func() schema.Collection) Change {
	return Change{
		Version: version,
		Name:    name,
		Up: func(ctx context.Context, t Target) error {
			return t.CreateCollection(ctx, def())
		},
		Down: func(ctx context.Context, t Target) error {
			return t.DeleteCollection(ctx, def().Name)
		},
	}
}

func seedCategories(ctx context.Context, t Target) error {
	cats, err := schema.SeedCategories()
	if err != nil {
		return err
	}
	for _, c := range cats {
		if _, err := t.CreateRecord(ctx, schema.CategoriesCollection, c); err != nil {
			return fmt.Errorf("seed category %q: %w", c.Slug, err)
		}
	}
	return nil
}

// deleteAll empties collection. It is only safe for collections whose rows
// are owned by the migration that created them.
func deleteAll(collection string) func(ctx context.Context, t Target) error {
	return func(ctx context.Context, t Target) error {
		ids, err := t.RecordIDs(ctx, collection)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := t.DeleteRecord(ctx, collection, id); err != nil {
				return fmt.Errorf("delete %s/%s: %w", collection, id, err)
			}
		}
		return nil
	}
}
