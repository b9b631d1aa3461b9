// Package services contains the client-side synchronization engine: an
// explicit session object that owns the login lifecycle, the remote tree
// cursor, and every sync, upload, and delete operation.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mkarpenko/cryptdrive/internal/client/localfs"
	"github.com/mkarpenko/cryptdrive/internal/client/models"
	"github.com/mkarpenko/cryptdrive/internal/client/transport"
	"github.com/mkarpenko/cryptdrive/internal/common"
	"github.com/mkarpenko/cryptdrive/internal/cryptox"
	"github.com/mkarpenko/cryptdrive/internal/logging"
)

// State is the session lifecycle state. The terminal re-entrant state is
// StateLoggedOut.
type State string

const (
	StateLoggedOut      State = "logged_out"
	StateAuthenticating State = "authenticating"
	StateFetchingParams State = "fetching_params"
	StateLoggedIn       State = "logged_in"
	StateLoggingOut     State = "logging_out"
)

// EncryptionParameters is the per-account crypto material held for the
// lifetime of a login session. Key must be non-nil before any encrypt or
// decrypt operation; absence is a programming error, not a runtime state.
type EncryptionParameters struct {
	IV   []byte
	Salt []byte
	Key  []byte
}

// Session is the sync engine for one account. All state mutations are
// serialized through an internal mutex; long-running transfers read an
// immutable snapshot of the key material, so two independent SyncItem calls
// may run concurrently while each call's own download→decrypt pipeline
// stays strictly sequential.
type Session struct {
	client     transport.Client
	store      *localfs.Storage
	log        logging.Logger
	bufferSize int

	mu       sync.Mutex
	state    State
	params   *EncryptionParameters
	root     *models.Directory
	crumbs   []*models.Directory
	username string
}

// NewSession builds a logged-out session over the given transport and
// local storage. bufferSize falls back to the codec default when invalid.
func NewSession(client transport.Client, store *localfs.Storage, log logging.Logger, bufferSize int) *Session {
	if bufferSize <= 0 {
		bufferSize = cryptox.DefaultBufferSize
	}
	return &Session{
		client:     client,
		store:      store,
		log:        log,
		bufferSize: bufferSize,
		state:      StateLoggedOut,
	}
}

// SetBufferSize changes the stream codec chunk size for subsequent
// transfers. Invalid sizes are ignored.
func (s *Session) SetBufferSize(n int) {
	if n <= 0 || n%16 != 0 {
		return
	}
	s.mu.Lock()
	s.bufferSize = n
	s.mu.Unlock()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Username returns the logged-in user, or "" before login.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Root returns the account root directory, or nil before login.
func (s *Session) Root() *models.Directory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// ActiveDirectory returns the directory the cursor points at, or nil
// before login.
func (s *Session) ActiveDirectory() *models.Directory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

func (s *Session) activeLocked() *models.Directory {
	if len(s.crumbs) == 0 {
		return nil
	}
	return s.crumbs[len(s.crumbs)-1]
}

func (s *Session) chunkSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bufferSize
}

// sessionKey snapshots the key material for a transfer. Returns
// common.ErrNotLoggedIn outside the logged-in state.
func (s *Session) sessionKey() (key, iv []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoggedIn || s.params == nil || s.params.Key == nil {
		return nil, nil, common.ErrNotLoggedIn
	}
	return s.params.Key, s.params.IV, nil
}

// Login authenticates, fetches the account's encryption parameters, unwraps
// the session key with a key derived from the password, and loads the root
// listing. Only after all three round-trips succeed does the session become
// LoggedIn; any failure leaves it LoggedOut with no partial state.
func (s *Session) Login(ctx context.Context, username, password string) error {
	s.mu.Lock()
	if s.state != StateLoggedOut {
		s.mu.Unlock()
		return fmt.Errorf("login: session is %s", s.state)
	}
	s.state = StateAuthenticating
	s.mu.Unlock()

	params, root, err := s.establish(ctx, username, password)
	if err != nil {
		s.mu.Lock()
		s.state = StateLoggedOut
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.params = params
	s.root = root
	s.crumbs = []*models.Directory{root}
	s.username = username
	s.state = StateLoggedIn
	s.mu.Unlock()

	s.log.Info(ctx, "logged in", "user", username, "items", len(root.Items))
	return nil
}

func (s *Session) establish(ctx context.Context, username, password string) (*EncryptionParameters, *models.Directory, error) {
	if err := s.client.Login(ctx, username, password); err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	s.mu.Lock()
	s.state = StateFetchingParams
	s.mu.Unlock()

	wire, err := s.client.GetEncryptionParameters(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching encryption parameters: %w", err)
	}

	wrappingKey := cryptox.DeriveKey(password, wire.Salt)
	defer common.WipeByteArray(wrappingKey)

	key, err := cryptox.DecryptString(wire.EncryptedKey, wrappingKey, wire.IV)
	if err != nil {
		return nil, nil, fmt.Errorf("unwrapping account key: %w", err)
	}

	entries, err := s.client.ListDirectory(ctx, "")
	if err != nil {
		common.WipeByteArray(key)
		return nil, nil, fmt.Errorf("listing root: %w", err)
	}

	return &EncryptionParameters{IV: wire.IV, Salt: wire.Salt, Key: key},
		models.DirectoryFromListing("", entries), nil
}

// Navigate moves into a directory (re-fetching its listing) or resolves a
// file to its local synced copy. Navigation never downloads: a file without
// a local copy surfaces common.ErrNotSynced. For directories the returned
// path is empty.
func (s *Session) Navigate(ctx context.Context, item models.Item) (string, error) {
	switch it := item.(type) {
	case *models.Directory:
		entries, err := s.client.ListDirectory(ctx, it.Path)
		if err != nil {
			return "", fmt.Errorf("listing %s: %w", displayPath(it.Path), err)
		}
		s.mu.Lock()
		it.ReplaceListing(entries)
		if s.activeLocked() != it {
			s.crumbs = append(s.crumbs, it)
		}
		s.mu.Unlock()
		return "", nil

	case *models.File:
		if !s.store.FileExists(it.Path) {
			return "", fmt.Errorf("%s: %w", it.Name, common.ErrNotSynced)
		}
		return s.store.Abs(it.Path)

	default:
		return "", fmt.Errorf("navigate: unsupported item %T", item)
	}
}

// NavigateUp moves the cursor to the parent directory.
func (s *Session) NavigateUp() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.crumbs) < 2 {
		return errors.New("already at the account root")
	}
	s.crumbs = s.crumbs[:len(s.crumbs)-1]
	return nil
}

// Refresh re-fetches the active directory's listing.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	active := s.activeLocked()
	s.mu.Unlock()
	if active == nil {
		return common.ErrNotLoggedIn
	}

	entries, err := s.client.ListDirectory(ctx, active.Path)
	if err != nil {
		return fmt.Errorf("listing %s: %w", displayPath(active.Path), err)
	}
	s.mu.Lock()
	active.ReplaceListing(entries)
	s.mu.Unlock()
	return nil
}

// Logout invalidates the server session, then removes every synced local
// file tracked by the root tree and the account's sandbox root. The session
// reports LoggedOut only after cleanup completes. A failed server logout
// leaves the session logged in.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateLoggedIn {
		s.mu.Unlock()
		return common.ErrNotLoggedIn
	}
	s.state = StateLoggingOut
	root := s.root
	s.mu.Unlock()

	if err := s.client.Logout(ctx); err != nil {
		s.mu.Lock()
		s.state = StateLoggedIn
		s.mu.Unlock()
		return fmt.Errorf("logout: %w", err)
	}

	for _, f := range root.ConstituentFiles() {
		if err := s.store.DeleteRecursive(f.Path); err != nil {
			s.log.Warn(ctx, "cleanup failed", "path", f.Path, "err", err)
		}
	}
	if err := s.store.RemoveRoot(); err != nil {
		s.log.Warn(ctx, "removing local root failed", "err", err)
	}

	s.mu.Lock()
	if s.params != nil {
		common.WipeByteArray(s.params.Key)
	}
	s.params = nil
	s.root = nil
	s.crumbs = nil
	s.username = ""
	s.state = StateLoggedOut
	s.mu.Unlock()

	s.log.Info(ctx, "logged out")
	return nil
}

func displayPath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
