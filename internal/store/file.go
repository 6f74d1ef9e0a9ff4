package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/YannKr/certgen/internal/model"
)

// FileStore keeps the config as a JSON document at Path.
type FileStore struct {
	Path string
}

func (s *FileStore) Save(_ context.Context, cfg model.RenderConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

func (s *FileStore) Load(_ context.Context) (model.RenderConfig, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.RenderConfig{}, ErrNotFound
	}
	if err != nil {
		return model.RenderConfig{}, fmt.Errorf("read config: %w", err)
	}
	var cfg model.RenderConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return model.RenderConfig{}, fmt.Errorf("decode %s: %w", s.Path, err)
	}
	return cfg, nil
}
