package cli

import (
	"context"
	"fmt"

	"github.com/mkarpenko/cryptdrive/internal/client/models"
	"github.com/mkarpenko/cryptdrive/internal/client/services"
)

// Sync makes an item available locally. With an empty name the whole current
// folder is synced.
func (a *App) Sync(ctx context.Context, name string) error {
	var item models.Item
	if name == "" {
		active := a.session.ActiveDirectory()
		if active == nil {
			fmt.Fprintln(a.out, "Not logged in")
			return nil
		}
		item = active
	} else {
		found, err := a.findChild(name)
		if err != nil {
			a.printErr(err)
			return err
		}
		item = found
	}

	if err := a.session.SyncItem(ctx, item, a.progressPrinter()); err != nil {
		fmt.Fprintln(a.out)
		a.printErr(err)
		return err
	}
	fmt.Fprintf(a.out, "\nSynced %s\n", item.ItemName())
	return nil
}

// Open resolves a synced file in the current folder to its local path.
func (a *App) Open(ctx context.Context, name string) error {
	item, err := a.findChild(name)
	if err != nil {
		a.printErr(err)
		return err
	}
	local, err := a.session.Navigate(ctx, item)
	if err != nil {
		a.printErr(err)
		return err
	}
	fmt.Fprintln(a.out, local)
	return nil
}

// Upload encrypts a local file and uploads it into the current folder.
func (a *App) Upload(ctx context.Context, path string) error {
	if err := a.session.UploadFile(ctx, path, a.progressPrinter()); err != nil {
		fmt.Fprintln(a.out)
		a.printErr(err)
		return err
	}
	fmt.Fprintln(a.out, "\nUploaded")
	return nil
}

// progressPrinter renders transfer progress on a single rewritten line.
func (a *App) progressPrinter() services.ProgressFunc {
	return func(p services.Progress) {
		pos := ""
		if p.FileCount > 0 {
			pos = fmt.Sprintf(" (file %d of %d)", p.FileIndex, p.FileCount)
		}
		if p.Total > 0 {
			fmt.Fprintf(a.out, "\r%s %s%s: %d%%", p.Phase, p.Path, pos, p.Bytes*100/p.Total)
		} else {
			fmt.Fprintf(a.out, "\r%s %s%s: %d bytes", p.Phase, p.Path, pos, p.Bytes)
		}
	}
}
