package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Home(ctx context.Context) error
	Categories(ctx context.Context) error
	Category(ctx context.Context, slug string) error
	Article(ctx context.Context, slug string) error
	About(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Admin(ctx context.Context) error
	New(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	NewCategory(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the blog client.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF or when the user types "exit" or "quit".
// Commands that prompt for more input read from the same reader.
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Everyone:
//	  - help              — show available commands
//	  - home              — latest published posts
//	  - categories        — list categories
//	  - category <slug>   — published posts of one category
//	  - article <slug>    — read one article
//	  - about             — about the blog
//	  - login             — authenticate as a store superuser
//	  - exit | quit       — leave the program
//
//	Logged in:
//	  - admin             — list every article, drafts included
//	  - new               — write a new article
//	  - edit <id>         — edit an article
//	  - delete <id>       — delete an article after confirmation
//	  - newcategory       — add a category
//	  - logout            — log out
//
// Any errors returned by command handlers are ignored here; handlers should
// report their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("blog> %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: home, categories, category <slug>, article <slug>, about, admin, new, edit <id>, delete <id>, newcategory, logout, exit")
			} else {
				printlnFn("Available commands: home, categories, category <slug>, article <slug>, about, login, exit")
			}

		case "home":
			_ = a.Home(ctx)

		case "categories":
			_ = a.Categories(ctx)

		case "category":
			if len(args) == 0 {
				printlnFn("Usage: category <slug>")
				continue
			}
			_ = a.Category(ctx, args[0])

		case "article":
			if len(args) == 0 {
				printlnFn("Usage: article <slug>")
				continue
			}
			_ = a.Article(ctx, args[0])

		case "about":
			_ = a.About(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "admin", "new", "edit", "delete", "newcategory":
			if !a.isLoggedIn() {
				printlnFn("Please log in first.")
				continue
			}
			dispatchAdmin(ctx, a, cmd, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func dispatchAdmin(ctx context.Context, a execIface, cmd string, args []string) {
	switch cmd {
	case "admin":
		_ = a.Admin(ctx)
	case "new":
		_ = a.New(ctx)
	case "newcategory":
		_ = a.NewCategory(ctx)
	case "edit", "delete":
		if len(args) == 0 {
			printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
			return
		}
		if cmd == "edit" {
			_ = a.Edit(ctx, args[0])
		} else {
			_ = a.Delete(ctx, args[0])
		}
	}
}
