package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mkarpenko/cryptdrive/internal/client/config"
	"github.com/mkarpenko/cryptdrive/internal/client/localfs"
	"github.com/mkarpenko/cryptdrive/internal/client/models"
	"github.com/mkarpenko/cryptdrive/internal/client/services"
	"github.com/mkarpenko/cryptdrive/internal/client/transport"
	"github.com/mkarpenko/cryptdrive/internal/common"
	"github.com/mkarpenko/cryptdrive/internal/cryptox"
	"github.com/mkarpenko/cryptdrive/internal/logging"
)

// session is the slice of the sync engine the CLI drives. The real
// *services.Session satisfies it; tests provide a stub.
type session interface {
	State() services.State
	Username() string
	ActiveDirectory() *models.Directory
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	Navigate(ctx context.Context, item models.Item) (string, error)
	NavigateUp() error
	SyncItem(ctx context.Context, item models.Item, onProgress services.ProgressFunc) error
	IsSynced(f *models.File) bool
	UploadFile(ctx context.Context, localPath string, onProgress services.ProgressFunc) error
	CreateFolder(ctx context.Context, name string) error
	MarkForLocalDeletion(item models.Item)
	UndoLocalDeletion(item models.Item)
	ConfirmLocalDeletion(item models.Item) error
	DeleteRemote(ctx context.Context, item models.Item) error
	SetBufferSize(n int)
}

type App struct {
	config  *config.Config
	session session
	client  transport.Client
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	store, err := localfs.New(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing local storage: %w", err)
	}

	client := transport.NewHTTPClient(c.ServerURL, log)
	sess := services.NewSession(client, store, log, c.BufferSize)

	return &App{
		config:  c,
		session: sess,
		client:  client,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

// Run starts the interactive loop and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.client.Close()

	fmt.Fprintln(a.out, "cryptdrive CLI (type 'help' for commands)")
	a.Login(ctx)

	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}

func (a *App) isLoggedIn() bool {
	return a.session.State() == services.StateLoggedIn
}

// status renders the prompt suffix, e.g. "(alice /docs)".
func (a *App) status() string {
	if !a.isLoggedIn() {
		return ""
	}
	path := "/"
	if active := a.session.ActiveDirectory(); active != nil && active.Path != "" {
		path = "/" + active.Path
	}
	return fmt.Sprintf("(%s %s)", a.session.Username(), path)
}

// printErr renders an error for the user. Server rejections are shown
// verbatim; known conditions get a short hint.
func (a *App) printErr(err error) {
	var rej *transport.Rejection
	switch {
	case errors.As(err, &rej):
		fmt.Fprintf(a.out, "Server: %s\n", rej.Reason)
	case errors.Is(err, transport.ErrUnavailable):
		fmt.Fprintln(a.out, "Server unavailable, try again later")
	case errors.Is(err, transport.ErrUnauthorized):
		fmt.Fprintln(a.out, "Not authorized: check your credentials")
	case errors.Is(err, cryptox.ErrInvalidDecryption):
		fmt.Fprintln(a.out, "Decryption failed: wrong password or corrupted data")
	case errors.Is(err, common.ErrNotSynced):
		fmt.Fprintln(a.out, "Not synced yet: run 'sync <name>' first")
	default:
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
}

// findChild looks up an item by name in the current directory.
func (a *App) findChild(name string) (models.Item, error) {
	active := a.session.ActiveDirectory()
	if active == nil {
		return nil, common.ErrNotLoggedIn
	}
	if item := active.ChildByName(name); item != nil {
		return item, nil
	}
	return nil, fmt.Errorf("%q: %w", name, common.ErrNotFound)
}
