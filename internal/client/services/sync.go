package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mkarpenko/cryptdrive/internal/client/models"
	"github.com/mkarpenko/cryptdrive/internal/cryptox"
)

// Phase distinguishes what a transfer is currently doing.
type Phase string

const (
	PhaseDownloading Phase = "downloading"
	PhaseDecrypting  Phase = "decrypting"
	PhaseEncrypting  Phase = "encrypting"
	PhaseUploading   Phase = "uploading"
)

// Progress is a snapshot of one in-flight operation. For directory syncs
// FileIndex/FileCount carry the "file N of M" position; both are zero for
// single-file operations. Total is -1 when unknown.
type Progress struct {
	Path      string
	Phase     Phase
	Bytes     int64
	Total     int64
	FileIndex int
	FileCount int
}

// ProgressFunc receives progress snapshots. May be nil.
type ProgressFunc func(Progress)

func (f ProgressFunc) report(p Progress) {
	if f != nil {
		f(p)
	}
}

// SyncItem makes the remote item's plaintext available locally.
//
// Files already present locally are a no-op: no network call, no rewrite.
// A file sync downloads the ciphertext to a temporary "<path>.encrypted"
// scratch file, stream-decrypts it into the final path, and removes the
// scratch file on every exit path. A directory sync walks the constituent
// files sequentially in pre-order; each file fails or succeeds
// independently and the aggregate error reports the ones that failed, so a
// retry re-attempts only those.
func (s *Session) SyncItem(ctx context.Context, item models.Item, onProgress ProgressFunc) error {
	switch it := item.(type) {
	case *models.File:
		return s.syncFile(ctx, it, onProgress, 0, 0)
	case *models.Directory:
		return s.syncDirectory(ctx, it, onProgress)
	default:
		return fmt.Errorf("sync: unsupported item %T", item)
	}
}

func (s *Session) syncDirectory(ctx context.Context, dir *models.Directory, onProgress ProgressFunc) error {
	if err := s.expand(ctx, dir); err != nil {
		return err
	}

	files := dir.ConstituentFiles()
	var failures []error

	for i, f := range files {
		if err := s.syncFile(ctx, f, onProgress, i+1, len(files)); err != nil {
			s.log.Error(ctx, "file sync failed", "path", f.Path, "err", err)
			failures = append(failures, fmt.Errorf("%s: %w", f.Path, err))
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("synced %d of %d files: %w",
			len(files)-len(failures), len(files), errors.Join(failures...))
	}
	s.log.Info(ctx, "directory synced", "path", displayPath(dir.Path), "files", len(files))
	return nil
}

// expand lists not-yet-fetched child directories so ConstituentFiles covers
// the whole remote subtree.
func (s *Session) expand(ctx context.Context, dir *models.Directory) error {
	if !dir.Listed {
		entries, err := s.client.ListDirectory(ctx, dir.Path)
		if err != nil {
			return fmt.Errorf("listing %s: %w", displayPath(dir.Path), err)
		}
		s.mu.Lock()
		dir.ReplaceListing(entries)
		s.mu.Unlock()
	}
	for _, item := range dir.Items {
		if sub, ok := item.(*models.Directory); ok {
			if err := s.expand(ctx, sub); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Session) syncFile(ctx context.Context, f *models.File, onProgress ProgressFunc, index, count int) error {
	if s.store.FileExists(f.Path) {
		return nil
	}

	key, iv, err := s.sessionKey()
	if err != nil {
		return err
	}

	scratch := f.Path + ".encrypted"
	if err := s.download(ctx, f, scratch, onProgress, index, count); err != nil {
		s.store.DeleteRecursive(scratch)
		return err
	}
	defer s.store.DeleteRecursive(scratch)

	encAbs, err := s.store.Abs(scratch)
	if err != nil {
		return err
	}
	plainAbs, err := s.store.Abs(f.Path)
	if err != nil {
		return err
	}
	// the decrypt output file needs its parent directories in place
	if parent := models.ParentPath(f.Path); parent != "" {
		if err := s.store.CreateDir(parent); err != nil {
			return err
		}
	}

	encSize := f.Size
	err = cryptox.DecryptFile(encAbs, plainAbs, key, iv, s.chunkSize(), func(n int64) {
		onProgress.report(Progress{
			Path: f.Path, Phase: PhaseDecrypting,
			Bytes: n, Total: encSize,
			FileIndex: index, FileCount: count,
		})
	})
	if err != nil {
		return fmt.Errorf("decrypting %s: %w", f.Path, err)
	}

	s.log.Debug(ctx, "file synced", "path", f.Path)
	return nil
}

func (s *Session) download(ctx context.Context, f *models.File, scratch string, onProgress ProgressFunc, index, count int) error {
	stream, err := s.client.GetFileStream(ctx, f.Path, func(received, total int64) {
		onProgress.report(Progress{
			Path: f.Path, Phase: PhaseDownloading,
			Bytes: received, Total: total,
			FileIndex: index, FileCount: count,
		})
	})
	if err != nil {
		return fmt.Errorf("downloading %s: %w", f.Path, err)
	}
	defer stream.Close()

	out, err := s.store.Create(scratch)
	if err != nil {
		return fmt.Errorf("creating scratch file: %w", err)
	}

	if _, err := io.Copy(out, stream); err != nil {
		out.Close()
		return fmt.Errorf("downloading %s: %w", f.Path, err)
	}
	return out.Close()
}

// IsSynced reports a file's sync status from local presence alone; no
// checksum comparison, no network.
func (s *Session) IsSynced(f *models.File) bool {
	return s.store.FileExists(f.Path)
}

// CheckSync verifies an item against the server. For a file, local presence
// is the answer. For a directory, the server's subtree is listed
// recursively and every reported descendant file must exist locally; a
// directory with no descendant files, or any listing failure, is
// conservatively reported as not synced.
func (s *Session) CheckSync(ctx context.Context, item models.Item) (bool, error) {
	switch it := item.(type) {
	case *models.File:
		return s.store.FileExists(it.Path), nil
	case *models.Directory:
		covered, err := s.checkDirSync(ctx, it.Path)
		if err != nil {
			if errors.Is(err, errNotCovered) {
				return false, nil
			}
			return false, err
		}
		return covered > 0, nil
	default:
		return false, fmt.Errorf("check sync: unsupported item %T", item)
	}
}

// checkDirSync returns how many descendant files are covered locally, or an
// error as soon as one is missing or a listing fails.
func (s *Session) checkDirSync(ctx context.Context, path string) (int, error) {
	entries, err := s.client.ListDirectory(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("listing %s: %w", displayPath(path), err)
	}

	covered := 0
	for _, e := range entries {
		childPath := models.JoinPath(path, e.Name)
		switch e.Type {
		case models.TypeDirectory:
			n, err := s.checkDirSync(ctx, childPath)
			if err != nil {
				return 0, err
			}
			covered += n
		default:
			if !s.store.FileExists(childPath) {
				return 0, fmt.Errorf("%s: %w", childPath, errNotCovered)
			}
			covered++
		}
	}
	return covered, nil
}

var errNotCovered = errors.New("missing locally")
