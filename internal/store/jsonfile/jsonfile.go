// Package jsonfile is the default store backend: one JSON file per collection
// and a backups/ directory of point-in-time copies of boards.json.
//
// Layout under the data directory:
//
//	users.json
//	boards.json
//	backups/boards-<timestamp>.json
//
// Every write goes through atomicwriter: the new content lands in a temp file
// in the same directory and is renamed over the old one, so readers see either
// the old document or the new one, never a truncated mix.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"

	"github.com/sakif/kanban-boards/internal/store"
)

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// compile-time check that *Backend implements store.Backend
var _ store.Backend = (*Backend)(nil)

// Backend keeps collections as files under Dir.
type Backend struct {
	dir       string
	backupDir string
}

// Open prepares the data and backup directories (like `mkdir -p`).
func Open(dir string) (*Backend, error) {
	b := &Backend{
		dir:       dir,
		backupDir: filepath.Join(dir, "backups"),
	}
	if err := os.MkdirAll(b.backupDir, dirPerm); err != nil {
		return nil, fmt.Errorf("jsonfile: creating data directories: %w", err)
	}
	return b, nil
}

// Dir is the data directory.
func (b *Backend) Dir() string { return b.dir }

// BackupDir is where board backups are written.
func (b *Backend) BackupDir() string { return b.backupDir }

func (b *Backend) path(c store.Collection) string {
	return filepath.Join(b.dir, string(c)+".json")
}

func (b *Backend) Read(_ context.Context, c store.Collection) ([]byte, error) {
	doc, err := os.ReadFile(b.path(c))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrNoDocument
		}
		return nil, fmt.Errorf("jsonfile: reading %s: %w", c, err)
	}
	return doc, nil
}

func (b *Backend) Write(_ context.Context, c store.Collection, doc []byte) error {
	if err := atomicwriter.WriteFile(b.path(c), doc, filePerm); err != nil {
		return fmt.Errorf("jsonfile: writing %s: %w", c, err)
	}
	return nil
}

func (b *Backend) Snapshot(ctx context.Context, c store.Collection, name string) error {
	doc, err := b.Read(ctx, c)
	if err != nil {
		return err
	}
	if err := atomicwriter.WriteFile(filepath.Join(b.backupDir, name), doc, filePerm); err != nil {
		return fmt.Errorf("jsonfile: writing backup %s: %w", name, err)
	}
	return nil
}

func (b *Backend) ListSnapshots(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(b.backupDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("jsonfile: listing backups: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (b *Backend) RemoveSnapshot(_ context.Context, name string) error {
	if err := os.Remove(filepath.Join(b.backupDir, name)); err != nil {
		return fmt.Errorf("jsonfile: removing backup %s: %w", name, err)
	}
	return nil
}

// Close is a no-op; files are opened per call.
func (b *Backend) Close() error { return nil }
