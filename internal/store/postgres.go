package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/milsabores/storefront-gateway/internal/config"

	_ "github.com/lib/pq"
)

// postgresStore keeps every key as one row in a single jsonb table. The state
// model is key→document, so no relational schema is needed.
type postgresStore struct {
	DB *sql.DB
}

// OpenPostgres opens the instrumented connection and ensures the state table.
func OpenPostgres(cfg *config.Config) (*sql.DB, error) {
	db, err := otelsql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS client_state (
			key TEXT PRIMARY KEY,
			value JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to ensure client_state table: %w", err)
	}

	return db, nil
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{DB: db}
}

func (s *postgresStore) Get(ctx context.Context, key Key, dest any) (bool, error) {
	query := `
		SELECT value
		FROM client_state
		WHERE key = $1
	`

	var raw []byte

	err := s.DB.QueryRowContext(ctx, query, string(key)).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}

		return false, fmt.Errorf("querying client state: %w", err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal state for key %s: %w", key, err)
	}

	return true, nil
}

func (s *postgresStore) Set(ctx context.Context, key Key, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal state for key %s: %w", key, err)
	}

	query := `
		INSERT INTO client_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()
	`

	if _, err := s.DB.ExecContext(ctx, query, string(key), raw); err != nil {
		return fmt.Errorf("failed to write state for key %s: %w", key, err)
	}

	return nil
}

func (s *postgresStore) Delete(ctx context.Context, key Key) error {
	query := `
		DELETE FROM client_state
		WHERE key = $1
	`

	if _, err := s.DB.ExecContext(ctx, query, string(key)); err != nil {
		return fmt.Errorf("failed to delete state for key %s: %w", key, err)
	}

	return nil
}

func (s *postgresStore) Close() error {
	return s.DB.Close()
}
