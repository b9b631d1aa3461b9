package cli

import (
	"context"
	"fmt"

	"github.com/mkarpenko/cryptdrive/internal/client/models"
)

// List prints the current folder's items: a type marker, the name, the size,
// and the local sync state.
func (a *App) List(ctx context.Context) error {
	active := a.session.ActiveDirectory()
	if active == nil {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}

	if len(active.Items) == 0 {
		fmt.Fprintln(a.out, "(empty)")
		return nil
	}
	for _, item := range active.Items {
		fmt.Fprintln(a.out, a.renderItem(item))
	}
	return nil
}

func (a *App) renderItem(item models.Item) string {
	switch it := item.(type) {
	case *models.Directory:
		s := fmt.Sprintf("[d] %s", it.Name)
		if it.MarkedForDeletion {
			s += "  (pending local delete)"
		}
		return s
	case *models.File:
		state := ""
		if a.session.IsSynced(it) {
			state = "  synced"
		}
		if it.MarkedForDeletion {
			state = "  (pending local delete)"
		}
		return fmt.Sprintf("[f] %s  %d bytes%s", it.Name, it.Size, state)
	default:
		return fmt.Sprintf("[?] %s", item.ItemName())
	}
}

// ChangeDir enters a folder in the current directory, re-fetching its listing.
func (a *App) ChangeDir(ctx context.Context, name string) error {
	item, err := a.findChild(name)
	if err != nil {
		a.printErr(err)
		return err
	}
	dir, ok := item.(*models.Directory)
	if !ok {
		fmt.Fprintf(a.out, "%s is not a folder\n", name)
		return nil
	}
	if _, err := a.session.Navigate(ctx, dir); err != nil {
		a.printErr(err)
		return err
	}
	return a.List(ctx)
}

// Up moves to the parent folder.
func (a *App) Up(ctx context.Context) error {
	if err := a.session.NavigateUp(); err != nil {
		fmt.Fprintf(a.out, "%v\n", err)
		return err
	}
	return a.List(ctx)
}

// Status prints the session state and the effective settings.
func (a *App) Status(ctx context.Context) error {
	fmt.Fprintf(a.out, "Server:      %s\n", a.config.ServerURL)
	fmt.Fprintf(a.out, "State:       %s\n", a.session.State())
	if a.isLoggedIn() {
		fmt.Fprintf(a.out, "User:        %s\n", a.session.Username())
	}
	fmt.Fprintf(a.out, "Buffer size: %d\n", a.config.BufferSize)
	fmt.Fprintf(a.out, "Data dir:    %s\n", a.config.DataDir)
	return nil
}
