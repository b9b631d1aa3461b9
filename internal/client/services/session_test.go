package services

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpenko/cryptdrive/internal/client/localfs"
	"github.com/mkarpenko/cryptdrive/internal/client/models"
	"github.com/mkarpenko/cryptdrive/internal/client/transport"
	"github.com/mkarpenko/cryptdrive/internal/common"
	"github.com/mkarpenko/cryptdrive/internal/cryptox"
	"github.com/mkarpenko/cryptdrive/internal/logging"
)

// Account fixture: password "password" with salt "someSalt12345678" derives
// the wrapping key that unwraps encryptedKeyBlob to sessionKey under
// IV "encryptionIntVec".
var (
	fixtureIV        = []byte("encryptionIntVec")
	fixtureSalt      = []byte("someSalt12345678")
	sessionKey       = []byte("0123456789abcdef0123456789abcdef")
	encryptedKeyBlob = "qSM/5B549hEXh7VPekk5AXvyMOIRWKqFYU9OtkgRy4Ez2qyB/C/SDGy+JMPDyEsQ"
)

func goldenParams() *transport.Parameters {
	return &transport.Parameters{IV: fixtureIV, Salt: fixtureSalt, EncryptedKey: encryptedKeyBlob}
}

func entry(name string, typ models.ItemType, size int) models.ListEntry {
	return models.ListEntry{Name: name, Type: typ, Size: json.Number(strconv.Itoa(size))}
}

// cipherFor encrypts plaintext the way the server stores it.
func cipherFor(t *testing.T, plaintext []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	err := cryptox.EncryptStream(bytes.NewReader(plaintext), &out, sessionKey, fixtureIV, cryptox.DefaultBufferSize, nil)
	require.NoError(t, err)
	return out.Bytes()
}

func newSession(t *testing.T, ft *fakeTransport) (*Session, *localfs.Storage) {
	t.Helper()
	store, err := localfs.New(filepath.Join(t.TempDir(), "account"))
	require.NoError(t, err)
	return NewSession(ft, store, logging.Nop(), cryptox.DefaultBufferSize), store
}

func login(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.Login(context.Background(), "alice", "password"))
}

func TestLogin_GoldenFixture(t *testing.T) {
	ft := newFakeTransport()
	ft.params = goldenParams()
	ft.listings[""] = []models.ListEntry{
		entry("a.txt", models.TypeFile, 10),
		entry("docs", models.TypeDirectory, 0),
	}

	s, _ := newSession(t, ft)
	require.Equal(t, StateLoggedOut, s.State())

	login(t, s)

	assert.Equal(t, StateLoggedIn, s.State())
	assert.Equal(t, "alice", s.Username())
	require.NotNil(t, s.Root())
	assert.Len(t, s.Root().Items, 2)
	assert.Equal(t, s.Root(), s.ActiveDirectory())

	// the unwrapped key is the fixture's known session key
	key, iv, err := s.sessionKey()
	require.NoError(t, err)
	assert.Equal(t, sessionKey, key)
	assert.Equal(t, fixtureIV, iv)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ft := newFakeTransport()
	ft.loginErr = transport.ErrUnauthorized

	s, _ := newSession(t, ft)
	err := s.Login(context.Background(), "alice", "wrong")

	require.ErrorIs(t, err, transport.ErrUnauthorized)
	assert.Equal(t, StateLoggedOut, s.State())
	assert.Nil(t, s.Root())
	assert.Empty(t, s.Username())
}

func TestLogin_ParamsFailure(t *testing.T) {
	ft := newFakeTransport()
	ft.paramsErr = transport.ErrUnavailable

	s, _ := newSession(t, ft)
	err := s.Login(context.Background(), "alice", "password")

	require.ErrorIs(t, err, transport.ErrUnavailable)
	assert.Equal(t, StateLoggedOut, s.State())
}

func TestLogin_WrongPasswordFailsKeyUnwrap(t *testing.T) {
	ft := newFakeTransport()
	ft.params = goldenParams()
	ft.listings[""] = nil

	s, _ := newSession(t, ft)
	err := s.Login(context.Background(), "alice", "not-the-password")

	require.ErrorIs(t, err, cryptox.ErrInvalidDecryption)
	assert.Equal(t, StateLoggedOut, s.State())
}

func TestLogin_RootListingFailure(t *testing.T) {
	ft := newFakeTransport()
	ft.params = goldenParams()
	ft.listErrs[""] = transport.ErrUnavailable

	s, _ := newSession(t, ft)
	err := s.Login(context.Background(), "alice", "password")

	require.ErrorIs(t, err, transport.ErrUnavailable)
	assert.Equal(t, StateLoggedOut, s.State())
}

func TestLogin_Twice(t *testing.T) {
	ft := newFakeTransport()
	ft.params = goldenParams()
	ft.listings[""] = nil

	s, _ := newSession(t, ft)
	login(t, s)

	err := s.Login(context.Background(), "alice", "password")
	assert.Error(t, err)
	assert.Equal(t, StateLoggedIn, s.State())
}

func TestNavigate_DirectoryRefetchesListing(t *testing.T) {
	ft := newFakeTransport()
	ft.params = goldenParams()
	ft.listings[""] = []models.ListEntry{entry("docs", models.TypeDirectory, 0)}
	ft.listings["docs"] = []models.ListEntry{entry("inner.txt", models.TypeFile, 5)}

	s, _ := newSession(t, ft)
	login(t, s)

	docs := s.Root().ChildByName("docs").(*models.Directory)
	require.False(t, docs.Listed)

	_, err := s.Navigate(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, docs, s.ActiveDirectory())
	assert.True(t, docs.Listed)
	require.Len(t, docs.Items, 1)
	assert.Equal(t, "docs/inner.txt", docs.Items[0].ItemPath())
	assert.Equal(t, 1, ft.listCalls["docs"])

	require.NoError(t, s.NavigateUp())
	assert.Equal(t, s.Root(), s.ActiveDirectory())
	assert.Error(t, s.NavigateUp(), "cannot go above the root")
}

func TestNavigate_FileRequiresLocalCopy(t *testing.T) {
	ft := newFakeTransport()
	ft.params = goldenParams()
	ft.listings[""] = []models.ListEntry{entry("a.txt", models.TypeFile, 5)}
	ft.files["a.txt"] = cipherFor(t, []byte("hello"))

	s, store := newSession(t, ft)
	login(t, s)

	file := s.Root().ChildByName("a.txt").(*models.File)

	_, err := s.Navigate(context.Background(), file)
	require.ErrorIs(t, err, common.ErrNotSynced, "navigation must not auto-download")
	assert.Zero(t, ft.fileCalls["a.txt"])

	require.NoError(t, s.SyncItem(context.Background(), file, nil))

	local, err := s.Navigate(context.Background(), file)
	require.NoError(t, err)
	abs, _ := store.Abs("a.txt")
	assert.Equal(t, abs, local)
}

func TestLogout_CleansUpLocalFiles(t *testing.T) {
	ft := newFakeTransport()
	ft.params = goldenParams()
	ft.listings[""] = []models.ListEntry{entry("a.txt", models.TypeFile, 5)}
	ft.files["a.txt"] = cipherFor(t, []byte("hello"))

	s, store := newSession(t, ft)
	login(t, s)

	file := s.Root().ChildByName("a.txt").(*models.File)
	require.NoError(t, s.SyncItem(context.Background(), file, nil))
	require.True(t, store.FileExists("a.txt"))

	require.NoError(t, s.Logout(context.Background()))

	assert.Equal(t, 1, ft.logoutCalls)
	assert.Equal(t, StateLoggedOut, s.State())
	assert.Nil(t, s.Root())
	assert.Empty(t, s.Username())
	_, statErr := os.Stat(store.Root())
	assert.True(t, os.IsNotExist(statErr), "account root must be removed")

	_, _, err := s.sessionKey()
	assert.ErrorIs(t, err, common.ErrNotLoggedIn)
}

func TestLogout_ServerFailureKeepsSession(t *testing.T) {
	ft := newFakeTransport()
	ft.params = goldenParams()
	ft.listings[""] = []models.ListEntry{entry("a.txt", models.TypeFile, 5)}
	ft.files["a.txt"] = cipherFor(t, []byte("hello"))

	s, store := newSession(t, ft)
	login(t, s)
	file := s.Root().ChildByName("a.txt").(*models.File)
	require.NoError(t, s.SyncItem(context.Background(), file, nil))

	ft.logoutErr = transport.ErrUnavailable
	err := s.Logout(context.Background())

	require.ErrorIs(t, err, transport.ErrUnavailable)
	assert.Equal(t, StateLoggedIn, s.State())
	assert.True(t, store.FileExists("a.txt"), "local files must survive a failed logout")
}

func TestLogout_WhenLoggedOut(t *testing.T) {
	s, _ := newSession(t, newFakeTransport())
	assert.ErrorIs(t, s.Logout(context.Background()), common.ErrNotLoggedIn)
}
