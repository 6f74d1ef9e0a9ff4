// Package store persists the render layout between sessions.
package store

import (
	"context"
	"errors"

	"github.com/YannKr/certgen/internal/model"
)

var ErrNotFound = errors.New("no saved render config")

// Store saves and restores one RenderConfig. Load returns ErrNotFound when
// nothing has been saved yet.
type Store interface {
	Save(ctx context.Context, cfg model.RenderConfig) error
	Load(ctx context.Context) (model.RenderConfig, error)
}

// LoadOrDefault returns the saved config, or the default layout when
// nothing is saved.
func LoadOrDefault(ctx context.Context, s Store) (model.RenderConfig, error) {
	cfg, err := s.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return model.DefaultRenderConfig(), nil
	}
	return cfg, err
}
