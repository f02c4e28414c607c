package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"kanban-board/domain"
)

// FileStorage keeps the board as a single JSON document on disk.
type FileStorage struct {
	path string
}

// NewFileStorage returns storage backed by the file at path. The file is
// created on first save.
func NewFileStorage(path string) (*FileStorage, error) {
	if path == "" {
		return nil, errors.New("storage.NewFileStorage: path is empty")
	}
	return &FileStorage{path: path}, nil
}

// Path returns the snapshot location.
func (f *FileStorage) Path() string { return f.path }

// Load reads the snapshot. A missing file is an empty board.
func (f *FileStorage) Load(ctx context.Context) (domain.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return emptySnapshot(), nil
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read %s: %w", f.path, err)
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s: %w", f.path, err)
	}
	return snap, nil
}

// Save rewrites the whole document and returns once it is durable.
func (f *FileStorage) Save(ctx context.Context, snap domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}

// writeFileAtomic writes to a sibling temp file, syncs it, renames it over
// path and syncs the directory so a crash leaves either the old or the new
// document.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
