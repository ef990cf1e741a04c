package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/gopherblog/internal/flagx"
)

// parseFlags overlays cfg with -s, -d, -t and -f. Other arguments are
// filtered out first so REPL or cobra arguments never reach this flag set.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-s", "-d", "-t", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.StringVar(&cfg.StoreURL, "s", cfg.StoreURL, "base URL of the content store")
	fs.StringVar(&cfg.StateDSN, "d", cfg.StateDSN, "local state database DSN")
	fs.StringVar(&cfg.FilesBackend, "f", cfg.FilesBackend, "file URL backend (store|s3)")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout in seconds")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
