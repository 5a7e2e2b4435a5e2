// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"intake-reconciler/internal/models"
)

const uniqueViolation = "23505"

// PostgresStore persists canonical records in the client_records table. The
// unique index on key supplies the concurrent-create guarantee: the loser of
// a create race gets ErrDuplicateKey and re-resolves. Timestamps are set by
// the database, not the caller.
//
//	CREATE TABLE client_records (
//	    id         TEXT PRIMARY KEY,
//	    key        TEXT NOT NULL UNIQUE,
//	    attributes JSONB NOT NULL DEFAULT '{}',
//	    status     TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByKey(ctx context.Context, key string) (*models.ClientRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, key, attributes, status, created_at, updated_at
		FROM client_records
		WHERE key = $1`, key)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: key %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("%w: find failed: %v", ErrUnavailable, err)
	}
	return rec, nil
}

func (s *PostgresStore) Create(ctx context.Context, key string, attributes map[string]interface{}, status string) (*models.ClientRecord, error) {
	attrsJSON, err := json.Marshal(attributes)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal attributes: %v", ErrUnavailable, err)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO client_records (id, key, attributes, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, key, attributes, status, created_at, updated_at`,
		uuid.New().String(), key, attrsJSON, status)

	rec, err := scanRecord(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, fmt.Errorf("%w: key %s", ErrDuplicateKey, key)
		}
		return nil, fmt.Errorf("%w: insert failed: %v", ErrUnavailable, err)
	}
	return rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, recordID string, delta map[string]interface{}, status string) (*models.ClientRecord, error) {
	deltaJSON, err := json.Marshal(delta)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal delta: %v", ErrUnavailable, err)
	}

	// JSONB concatenation keeps merge semantics: only supplied keys change.
	row := s.db.QueryRowContext(ctx, `
		UPDATE client_records
		SET attributes = attributes || $2::jsonb,
		    status     = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, key, attributes, status, created_at, updated_at`,
		recordID, deltaJSON, status)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %s", ErrNotFound, recordID)
		}
		return nil, fmt.Errorf("%w: update failed: %v", ErrUnavailable, err)
	}
	return rec, nil
}

func scanRecord(row *sql.Row) (*models.ClientRecord, error) {
	var rec models.ClientRecord
	var attrsJSON []byte

	err := row.Scan(&rec.ID, &rec.Key, &attrsJSON, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(attrsJSON) > 0 {
		if err := json.Unmarshal(attrsJSON, &rec.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal attributes: %w", err)
		}
	}
	if rec.Attributes == nil {
		rec.Attributes = map[string]interface{}{}
	}
	return &rec, nil
}
