package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Sink receives generated artifacts. Writing a name that already exists
// replaces the previous content.
type Sink interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
}

// DirSink writes artifacts into a local directory.
type DirSink struct {
	Dir string
}

func (s *DirSink) Put(_ context.Context, name, _ string, data []byte) error {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("artifact name %q must not contain a directory", name)
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	// Write then rename so readers never see a half-written file.
	tmp, err := os.CreateTemp(s.Dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.Dir, name))
}

// Path returns the on-disk location of an artifact.
func (s *DirSink) Path(name string) string {
	return filepath.Join(s.Dir, filepath.Base(name))
}

// MultiSink writes to every sink in order and stops at the first error.
type MultiSink []Sink

func (m MultiSink) Put(ctx context.Context, name, contentType string, data []byte) error {
	for _, s := range m {
		if err := s.Put(ctx, name, contentType, data); err != nil {
			return err
		}
	}
	return nil
}
