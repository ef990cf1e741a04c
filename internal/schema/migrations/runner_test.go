package migrations

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gopherblog/internal/client/localdb"
	"github.com/dmitrijs2005/gopherblog/internal/client/session"
	"github.com/dmitrijs2005/gopherblog/internal/client/store"
	"github.com/dmitrijs2005/gopherblog/internal/client/store/storetest"
	"github.com/dmitrijs2005/gopherblog/internal/logging"
	"github.com/dmitrijs2005/gopherblog/internal/schema"
)

type fixture struct {
	srv    *storetest.Server
	runner *Runner
}

func newFixture(t *testing.T, changes []Change) *fixture {
	t.Helper()
	return newFixtureAt(t, ":memory:", changes)
}

func newFixtureAt(t *testing.T, dsn string, changes []Change) *fixture {
	t.Helper()
	ctx := context.Background()

	srv := storetest.New(t)
	srv.AddSuperuser("admin@example.com", "secret-password")

	c, err := store.New(srv.URL)
	require.NoError(t, err)

	sess := session.NewAuthStore()
	require.NoError(t, sess.Save(ctx, srv.Token("admin@example.com"), nil))

	db, err := localdb.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	r, err := NewRunner(db.DB, db.Manager.Dialect(), &StoreTarget{Client: c, Session: sess}, changes, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	return &fixture{srv: srv, runner: r}
}

func TestChanges_Ordered(t *testing.T) {
	changes := Changes()
	require.Len(t, changes, 4)
	for i := 1; i < len(changes); i++ {
		assert.Less(t, changes[i-1].Version, changes[i].Version)
	}
	assert.Equal(t, "1769621130_seed_categories", changes[2].String())
}

func TestRunner_UpAppliesEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Changes())

	v, err := f.runner.Version(ctx)
	require.NoError(t, err)
	assert.Zero(t, v)

	res, err := f.runner.Up(ctx)
	require.NoError(t, err)
	require.Len(t, res, 4)
	assert.Equal(t, "create_categories_collection", res[0].Name)
	assert.Equal(t, "up", res[0].Direction)

	for _, name := range []string{schema.CategoriesCollection, schema.ArticlesCollection, schema.ImagesCollection} {
		assert.True(t, f.srv.HasCollection(name), name)
	}
	assert.Len(t, f.srv.Records(schema.CategoriesCollection), 9)

	v, err = f.runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1769621601), v)

	st, err := f.runner.Status(ctx)
	require.NoError(t, err)
	require.Len(t, st, 4)
	for _, s := range st {
		assert.True(t, s.Applied, s.Name)
	}

	res, err = f.runner.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, res, "nothing left to apply")
}

func TestRunner_FileStateDBDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	f := newFixtureAt(t, filepath.Join(t.TempDir(), "blog.db"), Changes())

	res, err := f.runner.Up(ctx)
	require.NoError(t, err)
	require.Len(t, res, 4)

	v, err := f.runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1769621601), v)

	_, err = f.runner.DownTo(ctx, 0)
	require.NoError(t, err)
	assert.False(t, f.srv.HasCollection(schema.CategoriesCollection))

	v, err = f.runner.Version(ctx)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestRunner_DownRevertsStepByStep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Changes())
	_, err := f.runner.Up(ctx)
	require.NoError(t, err)

	res, err := f.runner.Down(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1769621601), res.Version)
	assert.False(t, f.srv.HasCollection(schema.ImagesCollection))

	res, err = f.runner.Down(ctx)
	require.NoError(t, err)
	assert.Equal(t, "seed_categories", res.Name)
	assert.True(t, f.srv.HasCollection(schema.CategoriesCollection))
	assert.Empty(t, f.srv.Records(schema.CategoriesCollection))

	v, err := f.runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1769621121), v)

	st, err := f.runner.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st[1].Applied)
	assert.False(t, st[2].Applied)
	assert.False(t, st[3].Applied)
}

func TestRunner_RevertOfApplyRestoresEmptyStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Changes())

	_, err := f.runner.Up(ctx)
	require.NoError(t, err)

	res, err := f.runner.DownTo(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, res, 4)

	for _, name := range []string{schema.CategoriesCollection, schema.ArticlesCollection, schema.ImagesCollection} {
		assert.False(t, f.srv.HasCollection(name), name)
	}
	v, err := f.runner.Version(ctx)
	require.NoError(t, err)
	assert.Zero(t, v)

	// a reverted history can be applied again
	_, err = f.runner.Up(ctx)
	require.NoError(t, err)
	assert.Len(t, f.srv.Records(schema.CategoriesCollection), 9)
}

func TestRunner_FailedChangeStopsAtHighWaterMark(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	changes := []Change{
		Changes()[0],
		{
			Version: 1769621200,
			Name:    "broken",
			Up:      func(context.Context, Target) error { return boom },
			Down:    func(context.Context, Target) error { return nil },
		},
	}
	f := newFixture(t, changes)

	_, err := f.runner.Up(ctx)
	require.Error(t, err)
	assert.ErrorContains(t, err, "boom")

	v, err := f.runner.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1769621111), v)
	assert.True(t, f.srv.HasCollection(schema.CategoriesCollection))
}

func TestRunner_UpWithoutSuperuserIsAuthError(t *testing.T) {
	ctx := context.Background()
	srv := storetest.New(t)
	c, err := store.New(srv.URL)
	require.NoError(t, err)

	db, err := localdb.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	r, err := NewRunner(db.DB, db.Manager.Dialect(), &StoreTarget{Client: c, Session: session.Guest{}}, Changes(), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	_, err = r.Up(ctx)
	require.Error(t, err)
	assert.ErrorContains(t, err, "store auth (401)")

	v, err := r.Version(ctx)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestNewRunner_UnknownDialect(t *testing.T) {
	_, err := NewRunner(nil, "mysql", nil, nil, logging.Discard())
	assert.ErrorIs(t, err, ErrUnknownDialect)
}
