package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marmos91/dittoh5/pkg/snapshot"
	"github.com/spf13/afero"
)

// Sink stores snapshots as files under a base directory of an afero
// filesystem.
//
// Writes go to a temporary file that is renamed over the target, so a reader
// never sees a partially written snapshot.
type Sink struct {
	fs      afero.Fs
	baseDir string
}

// NewSink creates a filesystem sink rooted at baseDir, creating the
// directory if needed. Production callers pass afero.NewOsFs(); tests use
// afero.NewMemMapFs().
func NewSink(fsys afero.Fs, baseDir string) (*Sink, error) {
	if fsys == nil {
		return nil, fmt.Errorf("filesystem is required")
	}
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	if err := fsys.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory %s: %w", baseDir, err)
	}

	return &Sink{fs: fsys, baseDir: baseDir}, nil
}

// Name implements snapshot.Sink.
func (s *Sink) Name() string {
	return "filesystem"
}

func (s *Sink) path(key string) string {
	return filepath.Join(s.baseDir, key)
}

// Put implements snapshot.Sink.
func (s *Sink) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := s.path(key)
	tmp := target + ".tmp"

	if err := afero.WriteFile(s.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", key, err)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to commit snapshot %s: %w", key, err)
	}
	return nil
}

// Get implements snapshot.Sink.
func (s *Sink) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", key, snapshot.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", key, err)
	}
	return data, nil
}
