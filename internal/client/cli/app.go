package cli

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/dmitrijs2005/gopherblog/internal/client/content"
	"github.com/dmitrijs2005/gopherblog/internal/logging"
)

// App is the interactive blog client.
type App struct {
	svc    *content.Service
	soft   *content.Soft
	reader *bufio.Reader
	out    io.Writer
	log    logging.Logger
	now    func() time.Time

	// identity is the email of the logged-in superuser, shown in the prompt.
	identity string
}

type Option func(*App)

func WithLogger(l logging.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithClock replaces time.Now, used for the editor's default date.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// NewApp builds an App reading commands from in and writing pages to out.
func NewApp(svc *content.Service, in io.Reader, out io.Writer, opts ...Option) *App {
	a := &App{
		svc:    svc,
		soft:   content.NewSoft(svc),
		reader: bufio.NewReader(in),
		out:    out,
		log:    logging.Discard(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	a.log = a.log.With("module", "cli")
	return a
}

// Run starts the REPL and blocks until the user quits or input ends.
func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.svc.IsLoggedIn()
}
