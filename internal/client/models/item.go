// Package models defines the in-memory representation of the remote
// directory tree: files, directories, and the queries the sync engine
// runs against them. The tree is pure data; all I/O lives elsewhere.
package models

import (
	"encoding/json"
	"strings"
)

// ItemType classifies a remote item.
type ItemType string

const (
	TypeFile      ItemType = "file"
	TypeDirectory ItemType = "directory"
)

// ListEntry is one row of a server directory listing. Size arrives as a
// JSON number or a quoted string depending on the server version, so it is
// parsed leniently.
type ListEntry struct {
	Name string      `json:"name"`
	Type ItemType    `json:"type"`
	Size json.Number `json:"size"`
}

func (e ListEntry) sizeBytes() int64 {
	n, err := e.Size.Int64()
	if err != nil {
		return 0
	}
	return n
}

// Item is the common shape of files and directories. Two items are the same
// logical item iff their paths are equal; sizes are snapshots and must be
// refreshed by re-listing, never compared for identity.
type Item interface {
	ItemName() string
	ItemPath() string
	ItemSize() int64
	ItemType() ItemType
}

// File is a leaf of the remote tree.
type File struct {
	Name string
	Path string
	Size int64

	// MarkedForDeletion is a transient undo flag set while a local
	// deletion is pending. Cleared when the deletion completes or is
	// undone.
	MarkedForDeletion bool
}

func (f *File) ItemName() string   { return f.Name }
func (f *File) ItemPath() string   { return f.Path }
func (f *File) ItemSize() int64    { return f.Size }
func (f *File) ItemType() ItemType { return TypeFile }

// Directory is an inner node of the remote tree. Child directories start
// with no Items of their own: subtrees are populated lazily, when the
// directory is navigated into, and rebuilt wholesale from a fresh listing.
type Directory struct {
	Name string
	Path string
	Size int64

	Items []Item

	// Listed reports whether this node's children have been fetched at
	// least once. A directory with Listed == false contributes nothing
	// to ConstituentFiles.
	Listed bool

	MarkedForDeletion bool
}

func (d *Directory) ItemName() string   { return d.Name }
func (d *Directory) ItemPath() string   { return d.Path }
func (d *Directory) ItemType() ItemType { return TypeDirectory }

// ItemSize returns the server-reported size if present, otherwise the
// aggregate of all known constituent files.
func (d *Directory) ItemSize() int64 {
	if d.Size > 0 {
		return d.Size
	}
	var total int64
	for _, f := range d.ConstituentFiles() {
		total += f.Size
	}
	return total
}

// JoinPath builds a child path. Paths are slash-separated and relative to
// the account root, with no leading slash at the root.
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// BaseName returns the leaf display name of a path.
func BaseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ParentPath returns the path of the directory containing path, or "" for
// a top-level item.
func ParentPath(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return ""
}

// DirectoryFromListing builds a directory node at path from a server
// listing. Children keep the listing order; a duplicate name keeps the
// first occurrence, so names stay unique within the directory. Child
// directories are created empty and unlisted.
func DirectoryFromListing(path string, entries []ListEntry) *Directory {
	d := &Directory{
		Name:   BaseName(path),
		Path:   path,
		Listed: true,
	}
	d.ReplaceListing(entries)
	return d
}

// ReplaceListing rebuilds the directory's children from a fresh listing,
// discarding any previously cached subtree.
func (d *Directory) ReplaceListing(entries []ListEntry) {
	d.Items = make([]Item, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))

	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		if _, dup := seen[e.Name]; dup {
			continue
		}
		seen[e.Name] = struct{}{}

		childPath := JoinPath(d.Path, e.Name)
		switch e.Type {
		case TypeDirectory:
			d.Items = append(d.Items, &Directory{Name: e.Name, Path: childPath, Size: e.sizeBytes()})
		default:
			d.Items = append(d.Items, &File{Name: e.Name, Path: childPath, Size: e.sizeBytes()})
		}
	}
	d.Listed = true
}

// ChildByName returns the direct child with the given name, or nil.
func (d *Directory) ChildByName(name string) Item {
	for _, item := range d.Items {
		if item.ItemName() == name {
			return item
		}
	}
	return nil
}

// FindByPath walks the known subtree for the item with the given path.
// Returns nil if the path is outside the subtree or not yet listed.
func (d *Directory) FindByPath(path string) Item {
	if path == d.Path {
		return d
	}
	for _, item := range d.Items {
		if item.ItemPath() == path {
			return item
		}
		if sub, ok := item.(*Directory); ok && strings.HasPrefix(path, sub.Path+"/") {
			return sub.FindByPath(path)
		}
	}
	return nil
}

// ConstituentFiles flattens all known file descendants in depth-first
// pre-order. Unlisted child directories contribute nothing until they are
// navigated into.
func (d *Directory) ConstituentFiles() []*File {
	var files []*File
	for _, item := range d.Items {
		switch it := item.(type) {
		case *File:
			files = append(files, it)
		case *Directory:
			files = append(files, it.ConstituentFiles()...)
		}
	}
	return files
}
