package cli

import (
	"context"
	"fmt"

	"github.com/mkarpenko/cryptdrive/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and establishes a session: authenticate,
// fetch the account's encryption parameters, unwrap the account key, load
// the root listing. The password bytes are wiped before returning.
func (a *App) Login(ctx context.Context) error {
	prompt := "Enter username"
	if a.config.Username != "" {
		prompt = fmt.Sprintf("Enter username (default %s)", a.config.Username)
	}
	userName, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	if userName == "" {
		userName = a.config.Username
	}
	if userName == "" {
		fmt.Fprintln(a.out, "Username is required")
		return nil
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Login(ctx, userName, string(password)); err != nil {
		a.printErr(err)
		return err
	}

	a.config.Username = userName
	if err := a.config.Save(); err != nil {
		fmt.Fprintf(a.out, "Warning: could not save settings: %v\n", err)
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", userName)
	return a.List(ctx)
}

// Logout invalidates the server session and removes every synced local
// copy. A failed server call leaves the session (and local files) intact.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintln(a.out, "Logged out, local copies removed")
	return nil
}
