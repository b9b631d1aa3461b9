package services

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/mkarpenko/cryptdrive/internal/client/models"
	"github.com/mkarpenko/cryptdrive/internal/common"
	"github.com/mkarpenko/cryptdrive/internal/cryptox"
)

// folder names: alphanumeric plus "+ - _ =" and space
var folderNameRe = regexp.MustCompile(`^[A-Za-z0-9+\-_= ]+$`)

// UploadFile encrypts the local file at localPath and uploads it into the
// active directory under its base name. The target must not already exist
// on the server; there is no implicit overwrite. On success the containing
// directory's listing is refreshed.
func (s *Session) UploadFile(ctx context.Context, localPath string, onProgress ProgressFunc) error {
	key, iv, err := s.sessionKey()
	if err != nil {
		return err
	}

	s.mu.Lock()
	active := s.activeLocked()
	s.mu.Unlock()
	if active == nil {
		return common.ErrNotLoggedIn
	}

	name := filepath.Base(localPath)
	target := models.JoinPath(active.Path, name)

	exists, err := s.client.PathExists(ctx, target)
	if err != nil {
		return fmt.Errorf("checking %s: %w", target, err)
	}
	if exists {
		return fmt.Errorf("%s: %w", target, common.ErrAlreadyExists)
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", localPath, err)
	}
	plainSize := info.Size()

	// scratch ciphertext goes to the OS temp dir, never into the sandbox
	scratch := filepath.Join(os.TempDir(), uuid.NewString()+".encrypted")
	defer os.Remove(scratch)

	err = cryptox.EncryptFile(localPath, scratch, key, iv, s.chunkSize(), func(n int64) {
		onProgress.report(Progress{Path: target, Phase: PhaseEncrypting, Bytes: n, Total: plainSize})
	})
	if err != nil {
		return fmt.Errorf("encrypting %s: %w", name, err)
	}

	if err := s.upload(ctx, target, scratch, mimeTypeFor(name), onProgress); err != nil {
		return err
	}

	s.log.Info(ctx, "uploaded", "path", target, "bytes", plainSize)
	return s.Refresh(ctx)
}

func (s *Session) upload(ctx context.Context, target, scratch, mimeType string, onProgress ProgressFunc) error {
	f, err := os.Open(scratch)
	if err != nil {
		return fmt.Errorf("opening scratch file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	err = s.client.CreateFile(ctx, target, f, info.Size(), mimeType, func(sent, total int64) {
		onProgress.report(Progress{Path: target, Phase: PhaseUploading, Bytes: sent, Total: total})
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", target, err)
	}
	return nil
}

func mimeTypeFor(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// CreateFolder creates a directory with the given name inside the active
// directory. The name must be non-blank and limited to letters, digits,
// "+ - _ =" and spaces. An existing target is rejected before any create
// call reaches the server.
func (s *Session) CreateFolder(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" || !folderNameRe.MatchString(name) {
		return fmt.Errorf("%q: %w", name, common.ErrInvalidName)
	}

	s.mu.Lock()
	active := s.activeLocked()
	s.mu.Unlock()
	if active == nil {
		return common.ErrNotLoggedIn
	}

	target := models.JoinPath(active.Path, name)

	exists, err := s.client.PathExists(ctx, target)
	if err != nil {
		return fmt.Errorf("checking %s: %w", target, err)
	}
	if exists {
		return fmt.Errorf("%s: %w", target, common.ErrAlreadyExists)
	}

	if err := s.client.CreateDirectory(ctx, target); err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}

	s.log.Info(ctx, "folder created", "path", target)
	return s.Refresh(ctx)
}

// MarkForLocalDeletion flags an item for local deletion, opening the undo
// window. Nothing is removed until ConfirmLocalDeletion.
func (s *Session) MarkForLocalDeletion(item models.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setDeletionMark(item, true)
}

// UndoLocalDeletion clears a pending local deletion.
func (s *Session) UndoLocalDeletion(item models.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	setDeletionMark(item, false)
}

// ConfirmLocalDeletion removes the item's synced local copy (recursively
// for directories) and clears the deletion mark. The remote copy is
// untouched.
func (s *Session) ConfirmLocalDeletion(item models.Item) error {
	if err := s.store.DeleteRecursive(item.ItemPath()); err != nil {
		return fmt.Errorf("deleting local copy of %s: %w", item.ItemPath(), err)
	}
	s.mu.Lock()
	setDeletionMark(item, false)
	s.mu.Unlock()
	return nil
}

func setDeletionMark(item models.Item, marked bool) {
	switch it := item.(type) {
	case *models.File:
		it.MarkedForDeletion = marked
	case *models.Directory:
		it.MarkedForDeletion = marked
	}
}

// DeleteRemote irreversibly deletes the item on the server; for directories
// the server cascades to all descendants. The caller is expected to have
// confirmed the action. The containing listing is refreshed on success.
func (s *Session) DeleteRemote(ctx context.Context, item models.Item) error {
	if err := s.client.DeleteItem(ctx, item.ItemPath()); err != nil {
		return fmt.Errorf("deleting %s: %w", item.ItemPath(), err)
	}
	s.log.Info(ctx, "remote item deleted", "path", item.ItemPath())
	return s.Refresh(ctx)
}
