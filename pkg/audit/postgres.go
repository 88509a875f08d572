package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"

	_ "github.com/lib/pq"
)

// PostgresAuditStore persists audit entries in Postgres. It implements
// contracts.AuditSink.
type PostgresAuditStore struct {
	db *sql.DB
}

// NewPostgresAuditStore migrates the schema and returns the store.
func NewPostgresAuditStore(db *sql.DB) (*PostgresAuditStore, error) {
	s := &PostgresAuditStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenPostgresAuditStore connects with the given DSN and migrates.
func OpenPostgresAuditStore(dsn string) (*PostgresAuditStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: open postgres: %w", err)
	}
	return NewPostgresAuditStore(db)
}

func (s *PostgresAuditStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_logs (
		audit_id    UUID PRIMARY KEY,
		actor_id    TEXT,
		actor_email TEXT NOT NULL,
		action      TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id   TEXT NOT NULL,
		changes     JSONB,
		metadata    JSONB,
		ip_address  TEXT,
		user_agent  TEXT,
		request_id  TEXT,
		created_at  TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_logs (entity_type, entity_id);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *PostgresAuditStore) CreateAuditLog(ctx context.Context, entry *contracts.AuditEntry) (string, error) {
	id := uuid.New().String()
	changesJSON, _ := json.Marshal(entry.Changes)
	metadataJSON, _ := json.Marshal(entry.Metadata)

	query := `INSERT INTO audit_logs (
		audit_id, actor_id, actor_email, action, entity_type, entity_id, changes, metadata, ip_address, user_agent, request_id, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.db.ExecContext(ctx, query,
		id, entry.ActorID, entry.ActorEmail, entry.Action, entry.EntityType, entry.EntityID,
		string(changesJSON), string(metadataJSON), entry.IPAddress, entry.UserAgent, entry.RequestID,
		time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("audit: insert audit log: %w", err)
	}
	return id, nil
}

// Close releases the underlying database handle.
func (s *PostgresAuditStore) Close() error {
	return s.db.Close()
}
