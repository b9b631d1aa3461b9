package localfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "account"))
	require.NoError(t, err)
	return s
}

func writeFile(t *testing.T, s *Storage, rel, content string) {
	t.Helper()
	f, err := s.Create(rel)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestResolve_RejectsEscapes(t *testing.T) {
	s := newStorage(t)

	for _, bad := range []string{"../outside", "a/../../outside", "/etc/passwd"} {
		_, err := s.Resolve(bad)
		assert.ErrorIs(t, err, ErrInvalidPath, "path %q", bad)
	}

	// paths that merely contain dots but stay inside are fine
	abs, err := s.Resolve("a/./b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "a", "b"), abs)
}

func TestCreateAndExists(t *testing.T) {
	s := newStorage(t)

	assert.False(t, s.FileExists("docs/a.txt"))
	writeFile(t, s, "docs/a.txt", "hello")
	assert.True(t, s.FileExists("docs/a.txt"))
	assert.True(t, s.DirExists("docs"))
	assert.False(t, s.FileExists("docs"), "a directory is not a file")
}

func TestDeleteRecursive(t *testing.T) {
	s := newStorage(t)
	writeFile(t, s, "docs/a.txt", "a")
	writeFile(t, s, "docs/sub/b.txt", "b")

	require.NoError(t, s.DeleteRecursive("docs"))
	assert.False(t, s.FileExists("docs/a.txt"))
	assert.False(t, s.DirExists("docs"))

	// deleting what is already gone is a no-op
	require.NoError(t, s.DeleteRecursive("docs"))

	// the root itself is off limits
	assert.ErrorIs(t, s.DeleteRecursive(""), ErrInvalidPath)
}

func TestListRecursive(t *testing.T) {
	s := newStorage(t)
	writeFile(t, s, "a.txt", "a")
	writeFile(t, s, "docs/b.txt", "b")
	require.NoError(t, s.CreateDir("empty"))

	got, err := s.ListRecursive("")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "docs", "docs/b.txt"}, got,
		"empty directories are omitted")
}

func TestOpen(t *testing.T) {
	s := newStorage(t)
	writeFile(t, s, "f.txt", "content")

	f, err := s.Open("f.txt")
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 7)
	_, err = f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "content", string(buf))
}

func TestRemoveRoot(t *testing.T) {
	s := newStorage(t)
	writeFile(t, s, "f.txt", "x")

	require.NoError(t, s.RemoveRoot())
	_, err := os.Stat(s.Root())
	assert.True(t, os.IsNotExist(err))
}
