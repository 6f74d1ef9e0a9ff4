package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/YannKr/certgen/internal/db"
	"github.com/YannKr/certgen/internal/model"
)

// SQLStore keeps one config row per profile in the service database.
type SQLStore struct {
	DB      *sql.DB
	Profile string
}

func (s *SQLStore) Save(_ context.Context, cfg model.RenderConfig) error {
	if err := db.SaveRenderConfig(s.DB, s.Profile, cfg); err != nil {
		return fmt.Errorf("save config %q: %w", s.Profile, err)
	}
	return nil
}

func (s *SQLStore) Load(_ context.Context) (model.RenderConfig, error) {
	cfg, err := db.GetRenderConfig(s.DB, s.Profile)
	if err != nil {
		return model.RenderConfig{}, fmt.Errorf("load config %q: %w", s.Profile, err)
	}
	if cfg == nil {
		return model.RenderConfig{}, ErrNotFound
	}
	return *cfg, nil
}
