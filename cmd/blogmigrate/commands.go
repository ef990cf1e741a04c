package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/gopherblog/internal/buildinfo"
	"github.com/dmitrijs2005/gopherblog/internal/client/config"
	"github.com/dmitrijs2005/gopherblog/internal/client/content"
	"github.com/dmitrijs2005/gopherblog/internal/client/localdb"
	"github.com/dmitrijs2005/gopherblog/internal/client/session"
	"github.com/dmitrijs2005/gopherblog/internal/client/store"
	"github.com/dmitrijs2005/gopherblog/internal/logging"
	"github.com/dmitrijs2005/gopherblog/internal/schema/migrations"
)

var errMissingCredentials = fmt.Errorf("superuser credentials are required: set %s and %s",
	config.EnvAdminIdentity, config.EnvAdminPassword)

type app struct {
	out io.Writer
	log logging.Logger
}

// configFlags maps cobra flag names to the flags config.Load understands.
var configFlags = []struct{ name, short string }{
	{"config", "c"},
	{"env", "e"},
	{"store", "s"},
	{"state", "d"},
	{"timeout", "t"},
}

func newRootCommand(out io.Writer, log logging.Logger) *cobra.Command {
	a := &app{out: out, log: log}

	root := &cobra.Command{
		Use:   "blogmigrate",
		Short: "Apply the blog schema to the content store",
		Long: `Creates the categories, articles and images collections in the content
store and seeds the default categories.

Applied versions are tracked in the local state database, so running "up"
again only applies what is missing. The store superuser is taken from
` + config.EnvAdminIdentity + ` and ` + config.EnvAdminPassword + ` (environment or .env file).`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}
	root.SetOut(out)

	f := root.PersistentFlags()
	f.StringP("config", "c", "", "path to JSON config file")
	f.StringP("env", "e", "", "path to .env file")
	f.StringP("store", "s", "", "base URL of the content store")
	f.StringP("state", "d", "", "local state database DSN")
	f.IntP("timeout", "t", 0, "request timeout in seconds")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending change",
			Args:  cobra.NoArgs,
			RunE:  a.withRunner(a.up),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert the most recent change",
			Args:  cobra.NoArgs,
			RunE:  a.withRunner(a.down),
		},
		&cobra.Command{
			Use:   "down-to <version>",
			Short: "Revert every change newer than version (0 reverts all)",
			Args:  cobra.ExactArgs(1),
			RunE:  a.withRunner(a.downTo),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show which changes are applied",
			Args:  cobra.NoArgs,
			RunE:  a.withRunner(a.status),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the newest applied schema version",
			Args:  cobra.NoArgs,
			RunE:  a.withRunner(a.version),
		},
	)
	return root
}

type runnerFunc func(ctx context.Context, r *migrations.Runner, args []string) error

func (a *app) withRunner(fn runnerFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := a.openRunner(ctx, loadArgs(cmd))
		if err != nil {
			return err
		}
		defer r.Close()
		return fn(ctx, r, args)
	}
}

// loadArgs turns the flags set on cmd into arguments for config.Load.
func loadArgs(cmd *cobra.Command) []string {
	var args []string
	for _, cf := range configFlags {
		if fl := cmd.Flag(cf.name); fl != nil && fl.Changed {
			args = append(args, "-"+cf.short, fl.Value.String())
		}
	}
	return args
}

// openRunner logs in as the store superuser and opens the state database.
func (a *app) openRunner(ctx context.Context, args []string) (*migrations.Runner, error) {
	cfg := config.Load(args)
	if cfg.AdminIdentity == "" || cfg.AdminPassword == "" {
		return nil, errMissingCredentials
	}

	client, err := store.New(cfg.StoreURL, store.WithTimeout(cfg.RequestTimeout), store.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	sess := session.NewAuthStore()
	if err := content.New(client, sess, content.WithLogger(a.log)).Login(ctx, cfg.AdminIdentity, cfg.AdminPassword); err != nil {
		return nil, err
	}

	db, err := localdb.Open(ctx, cfg.StateDSN)
	if err != nil {
		return nil, err
	}
	target := &migrations.StoreTarget{Client: client, Session: sess}
	r, err := migrations.NewRunner(db.DB, db.Manager.Dialect(), target, migrations.Changes(), a.log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (a *app) up(ctx context.Context, r *migrations.Runner, _ []string) error {
	res, err := r.Up(ctx)
	a.printResults(res)
	if err == nil && len(res) == 0 {
		fmt.Fprintln(a.out, "no pending changes")
	}
	return err
}

func (a *app) down(ctx context.Context, r *migrations.Runner, _ []string) error {
	res, err := r.Down(ctx)
	if err != nil {
		return err
	}
	a.printResults([]migrations.Result{*res})
	return nil
}

func (a *app) downTo(ctx context.Context, r *migrations.Runner, args []string) error {
	v, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || v < 0 {
		return errors.New("version must be a non-negative number")
	}
	res, err := r.DownTo(ctx, v)
	a.printResults(res)
	return err
}

func (a *app) status(ctx context.Context, r *migrations.Runner, _ []string) error {
	st, err := r.Status(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%-24s %s\n", "Applied At", "Change")
	for _, s := range st {
		applied := "Pending"
		if s.Applied {
			applied = s.AppliedAt.UTC().Format(time.DateTime)
		}
		fmt.Fprintf(a.out, "%-24s %d_%s\n", applied, s.Version, s.Name)
	}
	return nil
}

func (a *app) version(ctx context.Context, r *migrations.Runner, _ []string) error {
	v, err := r.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "version %d\n", v)
	return nil
}

func (a *app) printResults(res []migrations.Result) {
	for _, m := range res {
		fmt.Fprintf(a.out, "%-4s %d_%s (%s)\n", m.Direction, m.Version, m.Name, m.Duration.Round(time.Millisecond))
	}
}
