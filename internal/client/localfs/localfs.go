// Package localfs wraps the sandboxed local storage area holding the
// account's synced plaintext files. All paths are slash-separated and
// relative to the account root; anything trying to escape the sandbox is
// rejected.
package localfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

var ErrInvalidPath = errors.New("invalid path")

// Storage is the filesystem collaborator for one account's sandbox root.
type Storage struct {
	root string
}

// New creates the sandbox root if needed and returns a Storage over it.
func New(root string) (*Storage, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", root, err)
	}
	return &Storage{root: root}, nil
}

func (s *Storage) Root() string {
	return s.root
}

// Resolve maps a sandbox-relative path to an absolute one, rejecting
// absolute inputs and anything that climbs out of the root.
func (s *Storage) Resolve(rel string) (string, error) {
	if path.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidPath, rel)
	}
	clean := path.Clean(rel)
	if clean == ".." || len(clean) >= 3 && clean[:3] == "../" {
		return "", fmt.Errorf("%w: %q escapes the sandbox", ErrInvalidPath, rel)
	}
	if clean == "." {
		clean = ""
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// FileExists reports whether a regular file exists at the relative path.
func (s *Storage) FileExists(rel string) bool {
	abs, err := s.Resolve(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.Mode().IsRegular()
}

// DirExists reports whether a directory exists at the relative path.
func (s *Storage) DirExists(rel string) bool {
	abs, err := s.Resolve(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.IsDir()
}

// CreateDir creates a directory (and any missing parents) at the relative
// path.
func (s *Storage) CreateDir(rel string) error {
	abs, err := s.Resolve(rel)
	if err != nil {
		return err
	}
	return os.MkdirAll(abs, 0o700)
}

// Create opens a new file for writing at the relative path, creating parent
// directories as needed. The caller owns closing the handle.
func (s *Storage) Create(rel string) (*os.File, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return nil, err
	}
	return os.Create(abs)
}

// Open opens an existing file for reading.
func (s *Storage) Open(rel string) (*os.File, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.Open(abs)
}

// Abs returns the absolute location of a relative path, for handing to
// components that work on real files (e.g. the stream codec).
func (s *Storage) Abs(rel string) (string, error) {
	return s.Resolve(rel)
}

// DeleteRecursive removes the item at the relative path, with all its
// descendants if it is a directory. Removing a nonexistent path is not an
// error.
func (s *Storage) DeleteRecursive(rel string) error {
	abs, err := s.Resolve(rel)
	if err != nil {
		return err
	}
	if abs == s.root {
		return fmt.Errorf("%w: refusing to delete the sandbox root via DeleteRecursive", ErrInvalidPath)
	}
	return os.RemoveAll(abs)
}

// ListRecursive walks the subtree at the relative path and returns the
// relative paths of all files and non-empty directories, in lexical walk
// order.
func (s *Storage) ListRecursive(rel string) ([]string, error) {
	abs, err := s.Resolve(rel)
	if err != nil {
		return nil, err
	}

	var out []string
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == abs {
			return nil
		}
		relPath, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			entries, err := os.ReadDir(p)
			if err != nil {
				return err
			}
			if len(entries) > 0 {
				out = append(out, filepath.ToSlash(relPath))
			}
			return nil
		}
		out = append(out, filepath.ToSlash(relPath))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveRoot deletes the whole sandbox, used during logout cleanup.
func (s *Storage) RemoveRoot() error {
	return os.RemoveAll(s.root)
}
