package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mkarpenko/cryptdrive/internal/client/config"
)

// MakeDir creates a folder in the current directory.
func (a *App) MakeDir(ctx context.Context, name string) error {
	if err := a.session.CreateFolder(ctx, name); err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintf(a.out, "Created %s\n", name)
	return a.List(ctx)
}

// RemoveLocal removes the local copy of an item after confirmation. The
// item stays marked while the question is open, so a refused confirmation
// acts as undo. The remote copy is untouched.
func (a *App) RemoveLocal(ctx context.Context, name string) error {
	item, err := a.findChild(name)
	if err != nil {
		a.printErr(err)
		return err
	}

	a.session.MarkForLocalDeletion(item)
	if !GetConfirmation(a.reader, fmt.Sprintf("Remove the local copy of %s?", name), a.out) {
		a.session.UndoLocalDeletion(item)
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	if err := a.session.ConfirmLocalDeletion(item); err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintf(a.out, "Local copy of %s removed\n", name)
	return nil
}

// RemoveRemote permanently deletes an item on the server after an explicit
// confirmation. For folders the server removes the whole subtree.
func (a *App) RemoveRemote(ctx context.Context, name string) error {
	item, err := a.findChild(name)
	if err != nil {
		a.printErr(err)
		return err
	}

	if !GetConfirmation(a.reader,
		fmt.Sprintf("Permanently delete %s on the server? This cannot be undone.", name), a.out) {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	if err := a.session.DeleteRemote(ctx, item); err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", name)
	return nil
}

// SetBufferSize changes the stream buffer size for subsequent transfers and
// persists it.
func (a *App) SetBufferSize(ctx context.Context, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || !config.IsValidBufferSize(n) {
		fmt.Fprintf(a.out, "Invalid buffer size %q, valid sizes: %v\n", value, config.ValidBufferSizes)
		return nil
	}

	a.session.SetBufferSize(n)
	a.config.BufferSize = n
	if err := a.config.Save(); err != nil {
		fmt.Fprintf(a.out, "Warning: could not save settings: %v\n", err)
	}
	fmt.Fprintf(a.out, "Buffer size set to %d\n", n)
	return nil
}
