package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gopherblog/internal/buildinfo"
	"github.com/dmitrijs2005/gopherblog/internal/client/cli"
	"github.com/dmitrijs2005/gopherblog/internal/client/config"
	"github.com/dmitrijs2005/gopherblog/internal/client/content"
	"github.com/dmitrijs2005/gopherblog/internal/client/files"
	"github.com/dmitrijs2005/gopherblog/internal/client/localdb"
	"github.com/dmitrijs2005/gopherblog/internal/client/session"
	"github.com/dmitrijs2005/gopherblog/internal/client/store"
	"github.com/dmitrijs2005/gopherblog/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load(os.Args[1:])
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewText(os.Stderr, slog.LevelWarn)

	if err := run(ctx, cfg, os.Stdin, os.Stdout, logger); err != nil {
		log.Fatalf("%v", err)
	}
}

// run wires the client and serves the shell until in is exhausted or ctx
// ends. Everything that can fail on bad settings is built before the state
// db is opened.
func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, logger logging.Logger) error {
	client, err := store.New(cfg.StoreURL, store.WithTimeout(cfg.RequestTimeout), store.WithLogger(logger))
	if err != nil {
		return err
	}

	resolver, err := files.NewResolver(ctx, cfg, client)
	if err != nil {
		return err
	}

	db, err := localdb.Open(ctx, cfg.StateDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	sess := session.NewAuthStore(session.WithPersister(session.NewMetadataPersister(db.DB, db.Manager.Metadata)))
	if err := sess.Load(ctx); err != nil {
		logger.Warn(ctx, "restore session", "err", err)
	}

	svc := content.New(client, sess,
		content.WithResolver(resolver),
		content.WithLogger(logger),
		content.WithPageSize(cfg.PageSize),
	)

	cli.NewApp(svc, in, out, cli.WithLogger(logger)).Run(ctx)
	return nil
}
