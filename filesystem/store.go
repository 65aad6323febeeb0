// Package filesystem provides the local directory backend for duplo pools.
// Every operation goes through an os.Root, so names can never escape the
// pool directory, and new files are always created exclusively.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/sagarc03/duplo"
)

// createAttempts bounds how many names CreateNew tries before giving up.
const createAttempts = 20

// Store provides file system storage operations for one flat directory.
type Store struct {
	root *os.Root
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// CreateNew creates name exclusively. If name is taken it tries name.1,
// name.2 and so on, returning duplo.ErrConflict after createAttempts tries.
func (s *Store) CreateNew(ctx context.Context, name string) (io.WriteCloser, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	candidate := name
	for i := 1; i <= createAttempts; i++ {
		f, err := s.root.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("could not create file %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s.%d", name, i)
	}

	return nil, "", fmt.Errorf("could not create file %s: %w", name, duplo.ErrConflict)
}

// Open opens a file for reading. Returns duplo.ErrNotFound if the file does not exist.
func (s *Store) Open(ctx context.Context, name string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, duplo.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return f, nil
}

// Stat describes name without following symlinks.
func (s *Store) Stat(ctx context.Context, name string) (duplo.Entry, error) {
	if err := ctx.Err(); err != nil {
		return duplo.Entry{}, err
	}

	info, err := s.root.Lstat(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return duplo.Entry{}, duplo.ErrNotFound
		}
		return duplo.Entry{}, fmt.Errorf("could not stat file: %w", err)
	}

	return entryFromInfo(name, info.Mode(), info, nil), nil
}

// Remove deletes a file. Returns duplo.ErrNotFound if the file does not exist.
func (s *Store) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.root.Remove(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return duplo.ErrNotFound
		}
		return fmt.Errorf("could not delete file: %w", err)
	}
	return nil
}

// RenameNoReplace links from under its new name and then unlinks the old
// one, so an existing target is never overwritten. On filesystems without
// hard links it falls back to a check followed by a rename.
func (s *Store) RenameNoReplace(ctx context.Context, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	linkErr := s.root.Link(from, to)
	switch {
	case linkErr == nil:
		if err := s.root.Remove(from); err != nil {
			if rbErr := s.root.Remove(to); rbErr != nil {
				slog.Warn("failed to undo link after rename error", "from", from, "to", to, "err", rbErr)
			}
			return fmt.Errorf("could not rename file: %w", err)
		}
		return nil
	case errors.Is(linkErr, fs.ErrExist):
		return fmt.Errorf("could not rename file to %s: %w", to, duplo.ErrConflict)
	case errors.Is(linkErr, fs.ErrNotExist):
		return duplo.ErrNotFound
	}

	slog.Debug("hard link failed, falling back to rename", "from", from, "to", to, "err", linkErr)

	if _, err := s.root.Lstat(to); err == nil {
		return fmt.Errorf("could not rename file to %s: %w", to, duplo.ErrConflict)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not rename file: %w", err)
	}

	if err := s.root.Rename(from, to); err != nil {
		return fmt.Errorf("could not rename file: %w", err)
	}
	return nil
}

// List reads the directory once. Entries whose metadata cannot be read are
// returned with Err set rather than failing the whole listing.
func (s *Store) List(ctx context.Context) ([]duplo.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	entries := make([]duplo.Entry, 0, len(dirEntries))
	for _, d := range dirEntries {
		info, infoErr := d.Info()
		entries = append(entries, entryFromInfo(d.Name(), d.Type(), info, infoErr))
	}

	return entries, nil
}

func entryFromInfo(name string, mode fs.FileMode, info fs.FileInfo, err error) duplo.Entry {
	e := duplo.Entry{Name: name, Kind: kindOf(mode), Err: err}
	if err == nil && info != nil {
		e.Size = info.Size()
		e.ModTime = info.ModTime()
	}
	return e
}

func kindOf(mode fs.FileMode) duplo.EntryKind {
	switch {
	case mode.IsRegular():
		return duplo.KindRegular
	case mode.IsDir():
		return duplo.KindDir
	case mode&fs.ModeSymlink != 0:
		return duplo.KindSymlink
	default:
		return duplo.KindOther
	}
}
