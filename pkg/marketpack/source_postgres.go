package marketpack

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// ConfigSource supplies per-tenant market-pack overrides.
// A nil map with a nil error means "no override configured".
type ConfigSource interface {
	GetMarketConfig(ctx context.Context, marketID string) (map[string]any, error)
}

// PostgresConfigSource reads market overrides from a JSONB column.
type PostgresConfigSource struct {
	db *sql.DB
}

const pgConfigSchema = `
CREATE TABLE IF NOT EXISTS market_pack_config (
	market_id TEXT PRIMARY KEY,
	config_json JSONB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// NewPostgresConfigSource wraps an existing connection pool. It creates the
// backing table on first use.
func NewPostgresConfigSource(ctx context.Context, db *sql.DB) (*PostgresConfigSource, error) {
	if _, err := db.ExecContext(ctx, pgConfigSchema); err != nil {
		return nil, fmt.Errorf("market config schema: %w", err)
	}
	return &PostgresConfigSource{db: db}, nil
}

// GetMarketConfig returns the stored override for a normalized market id.
func (s *PostgresConfigSource) GetMarketConfig(ctx context.Context, marketID string) (map[string]any, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT config_json FROM market_pack_config WHERE market_id = $1`,
		NormalizeMarket(marketID),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("market config query: %w", err)
	}

	var cfg map[string]any
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("market config for %s is not valid JSON: %w", marketID, err)
	}
	return cfg, nil
}

// PutMarketConfig upserts an override. Used by operator tooling and tests.
func (s *PostgresConfigSource) PutMarketConfig(ctx context.Context, marketID string, cfg map[string]any) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("market config marshal: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO market_pack_config (market_id, config_json, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (market_id) DO UPDATE SET config_json = $2, updated_at = $3`,
		NormalizeMarket(marketID), raw, time.Now().UTC(),
	)
	return err
}
