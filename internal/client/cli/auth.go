package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gopherblog/internal/client/store"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for the superuser email and password and authenticates
// against the store. On success the session is saved and persisted by the
// session store the service was built with.
//
// A failed login is reported to the user and returned.
func (a *App) Login(ctx context.Context) error {
	identity, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	if err := a.svc.Login(ctx, identity, string(password)); err != nil {
		fmt.Fprintln(a.out, loginMessage(err))
		a.log.Warn(ctx, "login failed", "kind", store.KindOf(err).String(), "err", err)
		return err
	}

	a.identity = identity
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func loginMessage(err error) string {
	switch store.KindOf(err) {
	case store.KindValidation, store.KindAuth:
		return "Invalid email or password."
	case store.KindTransport:
		return "The store is unreachable, try again later."
	}
	return "Login failed."
}

// Logout clears the session, including its persisted copy.
func (a *App) Logout(ctx context.Context) error {
	if err := a.svc.Logout(ctx); err != nil {
		fmt.Fprintln(a.out, "Logout failed:", err)
		return err
	}
	a.identity = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
