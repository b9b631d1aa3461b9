// Package transport is the request/response layer between the client and
// the remote storage API.
//
// Every call resolves to one of three outcomes: a payload (nil error), an
// application-level rejection the server explains (Rejection, shown to the
// user verbatim, never retried), or a transport failure (ErrUnavailable,
// the only category eligible for retry).
package transport

import (
	"context"
	"io"

	"github.com/mkarpenko/cryptdrive/internal/client/models"
)

// ProgressFunc reports transfer progress. total is -1 when the server does
// not announce a length.
type ProgressFunc func(transferred, total int64)

// Parameters is the per-account encryption material issued by the server.
// EncryptedKey is the account's symmetric key, encrypted under a wrapping
// key derived from the user's password; unwrapping is the sync engine's job.
type Parameters struct {
	IV           []byte `json:"iv"`
	Salt         []byte `json:"salt"`
	EncryptedKey string `json:"encryptedKey"`
}

// Client is the remote API surface the sync engine depends on.
//
// All methods honor context cancellation. Paths are slash-separated and
// relative to the account root, with no leading slash.
type Client interface {
	// Login authenticates and stores the session token for later calls.
	Login(ctx context.Context, username, password string) error

	// Logout invalidates the session on the server and drops the token.
	Logout(ctx context.Context) error

	// GetEncryptionParameters fetches the account's iv/salt/wrapped key.
	GetEncryptionParameters(ctx context.Context) (*Parameters, error)

	// ListDirectory returns the ordered listing of a remote directory.
	ListDirectory(ctx context.Context, path string) ([]models.ListEntry, error)

	// PathExists reports whether an item exists on the server.
	PathExists(ctx context.Context, path string) (bool, error)

	// GetFileStream opens a remote file for reading. The caller must close
	// the returned stream. onProgress, if non-nil, is called as bytes
	// arrive.
	GetFileStream(ctx context.Context, path string, onProgress ProgressFunc) (io.ReadCloser, error)

	// CreateDirectory creates a remote directory.
	CreateDirectory(ctx context.Context, path string) error

	// CreateFile uploads content of the given size to path. onProgress,
	// if non-nil, is called as bytes are sent.
	CreateFile(ctx context.Context, path string, content io.Reader, size int64, mimeType string, onProgress ProgressFunc) error

	// DeleteItem removes a remote item; for directories the server
	// cascades to all descendants.
	DeleteItem(ctx context.Context, path string) error

	Close() error
}
