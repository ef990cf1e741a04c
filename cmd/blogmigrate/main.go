package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gopherblog/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.NewJSON(os.Stderr, slog.LevelInfo)
	if err := newRootCommand(os.Stdout, logger).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
