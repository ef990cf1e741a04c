package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	if !a.isLoggedIn() {
		return ""
	}
	if a.identity == "" {
		return "(admin)"
	}
	return fmt.Sprintf("(%s)", a.identity)
}

// Root prints the welcome banner and the latest posts, then runs the REPL.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to the blog (type 'help' for commands)")
	_ = a.Home(ctx)
	runREPL(ctx, a, a.getStatus, a.reader)
}
