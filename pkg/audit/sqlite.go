package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"

	_ "modernc.org/sqlite"
)

// SQLiteCheckStore persists compliance-check entries in SQLite. It implements
// contracts.ComplianceCheckSink.
type SQLiteCheckStore struct {
	db *sql.DB
}

// NewSQLiteCheckStore migrates the schema and returns the store.
func NewSQLiteCheckStore(db *sql.DB) (*SQLiteCheckStore, error) {
	s := &SQLiteCheckStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenSQLiteCheckStore opens (or creates) the database at path and migrates it.
func OpenSQLiteCheckStore(path string) (*SQLiteCheckStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open sqlite: %w", err)
	}
	return NewSQLiteCheckStore(db)
}

func (s *SQLiteCheckStore) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS compliance_checks (
        check_id TEXT PRIMARY KEY,
        entity_type TEXT NOT NULL,
        entity_id TEXT NOT NULL,
        market_id TEXT NOT NULL,
        check_type TEXT NOT NULL,
        status TEXT NOT NULL,
        severity TEXT NOT NULL,
        title TEXT,
        description TEXT,
        details JSON,
        recommendation TEXT,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_checks_entity ON compliance_checks (entity_type, entity_id);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLiteCheckStore) CreateComplianceCheck(ctx context.Context, entry *contracts.ComplianceCheckEntry) (string, error) {
	id := uuid.New().String()
	detailsJSON, _ := json.Marshal(entry.Details)

	query := `INSERT INTO compliance_checks (
		check_id, entity_type, entity_id, market_id, check_type, status, severity, title, description, details, recommendation, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		id, entry.EntityType, entry.EntityID, entry.MarketID, entry.CheckType,
		string(entry.Status), string(entry.Severity), entry.Title, entry.Description,
		string(detailsJSON), entry.Recommendation, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("audit: insert compliance check: %w", err)
	}
	return id, nil
}

// ListForEntity returns the stored checks for an entity, newest first.
func (s *SQLiteCheckStore) ListForEntity(ctx context.Context, entityType, entityID string, limit int) ([]*contracts.ComplianceCheckEntry, error) {
	query := `
        SELECT entity_type, entity_id, market_id, check_type, status, severity, title, description, details, recommendation
        FROM compliance_checks
        WHERE entity_type = ? AND entity_id = ?
        ORDER BY created_at DESC
        LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*contracts.ComplianceCheckEntry
	for rows.Next() {
		var e contracts.ComplianceCheckEntry
		var status, severity, details string
		if err := rows.Scan(&e.EntityType, &e.EntityID, &e.MarketID, &e.CheckType,
			&status, &severity, &e.Title, &e.Description, &details, &e.Recommendation); err != nil {
			return nil, err
		}
		e.Status = contracts.CheckStatus(status)
		e.Severity = contracts.Severity(severity)
		if details != "" {
			_ = json.Unmarshal([]byte(details), &e.Details)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close releases the underlying database handle.
func (s *SQLiteCheckStore) Close() error {
	return s.db.Close()
}
