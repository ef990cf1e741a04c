package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"

	"github.com/dmitrijs2005/gopherblog/internal/client/localdb"
	"github.com/dmitrijs2005/gopherblog/internal/logging"
)

// VersionTable records applied store schema versions in the state database.
const VersionTable = "store_schema_versions"

var ErrUnknownDialect = errors.New("unknown state db dialect")

// Result describes one applied or reverted change.
type Result struct {
	Version   int64
	Name      string
	Direction string
	Duration  time.Duration
}

// Status is the state of one change.
type Status struct {
	Version   int64
	Name      string
	Applied   bool
	AppliedAt time.Time
}

type Runner struct {
	provider *goose.Provider
	names    map[int64]string
	log      logging.Logger
}

func storeDialect(d string) (database.Dialect, error) {
	switch d {
	case localdb.DialectSQLite:
		return database.DialectSQLite3, nil
	case localdb.DialectPostgres:
		return database.DialectPostgres, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDialect, d)
}

// NewRunner binds changes to target and tracks them in db. dialect is the
// goose dialect of db (see localdb).
func NewRunner(db *sql.DB, dialect string, target Target, changes []Change, log logging.Logger) (*Runner, error) {
	d, err := storeDialect(dialect)
	if err != nil {
		return nil, err
	}
	st, err := database.NewStore(d, VersionTable)
	if err != nil {
		return nil, fmt.Errorf("version store: %w", err)
	}

	names := make(map[int64]string, len(changes))
	gm := make([]*goose.Migration, 0, len(changes))
	for _, c := range changes {
		names[c.Version] = c.Name
		gm = append(gm, goose.NewGoMigration(c.Version, bind(c.Up, target), bind(c.Down, target)))
	}

	p, err := goose.NewProvider("", db, nil,
		goose.WithStore(st),
		goose.WithDisableGlobalRegistry(true),
		goose.WithGoMigrations(gm...),
	)
	if err != nil {
		return nil, fmt.Errorf("migration provider: %w", err)
	}

	return &Runner{provider: p, names: names, log: log.With("module", "migrations")}, nil
}

// bind runs fn inside the goose transaction so the version row is written on
// the connection goose already holds. The state db may be capped at a single
// connection.
func bind(fn func(context.Context, Target) error, target Target) *goose.GoFunc {
	return &goose.GoFunc{
		RunTx: func(ctx context.Context, _ *sql.Tx) error {
			return fn(ctx, target)
		},
		Mode: goose.TransactionEnabled,
	}
}

// Up applies every pending change.
func (r *Runner) Up(ctx context.Context) ([]Result, error) {
	res, err := r.provider.Up(ctx)
	out := r.results(ctx, res)
	if err != nil {
		return out, fmt.Errorf("migrate up: %w", err)
	}
	return out, nil
}

// Down reverts the most recent change.
func (r *Runner) Down(ctx context.Context) (*Result, error) {
	res, err := r.provider.Down(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate down: %w", err)
	}
	out := r.results(ctx, []*goose.MigrationResult{res})
	return &out[0], nil
}

// DownTo reverts changes newer than version. Zero reverts everything.
func (r *Runner) DownTo(ctx context.Context, version int64) ([]Result, error) {
	res, err := r.provider.DownTo(ctx, version)
	out := r.results(ctx, res)
	if err != nil {
		return out, fmt.Errorf("migrate down to %d: %w", version, err)
	}
	return out, nil
}

func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	st, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	out := make([]Status, 0, len(st))
	for _, s := range st {
		out = append(out, Status{
			Version:   s.Source.Version,
			Name:      r.names[s.Source.Version],
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}

// Version returns the high-water mark: the newest applied version, or 0.
func (r *Runner) Version(ctx context.Context) (int64, error) {
	v, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("migration version: %w", err)
	}
	return v, nil
}

// Close releases the provider and closes the database it was given.
func (r *Runner) Close() error { return r.provider.Close() }

func (r *Runner) results(ctx context.Context, res []*goose.MigrationResult) []Result {
	out := make([]Result, 0, len(res))
	for _, m := range res {
		if m == nil || m.Source == nil {
			continue
		}
		rr := Result{
			Version:   m.Source.Version,
			Name:      r.names[m.Source.Version],
			Direction: m.Direction,
			Duration:  m.Duration,
		}
		if m.Error != nil {
			r.log.Error(ctx, "schema change failed", "version", rr.Version, "name", rr.Name, "direction", rr.Direction, "err", m.Error)
		} else {
			r.log.Info(ctx, "schema change applied", "version", rr.Version, "name", rr.Name, "direction", rr.Direction)
		}
		out = append(out, rr)
	}
	return out
}
