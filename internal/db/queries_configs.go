package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/YannKr/certgen/internal/model"
)

func SaveRenderConfig(database *sql.DB, profile string, cfg model.RenderConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = database.Exec(
		`INSERT INTO render_configs (profile, config) VALUES (?, ?)
		 ON CONFLICT(profile) DO UPDATE SET config = excluded.config,
		        updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		profile, string(data),
	)
	return err
}

// GetRenderConfig returns nil, nil when nothing is saved under profile.
func GetRenderConfig(database *sql.DB, profile string) (*model.RenderConfig, error) {
	var data string
	err := database.QueryRow(`SELECT config FROM render_configs WHERE profile = ?`, profile).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg model.RenderConfig
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return nil, fmt.Errorf("decode config %q: %w", profile, err)
	}
	return &cfg, nil
}
