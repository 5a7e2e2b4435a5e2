// Package store defines the canonical record store contract the
// reconciliation engine depends on, plus the provided backends. The engine
// requires only that no two concurrent creates for the same not-yet-existing
// key both succeed; each backend documents how it provides that.
package store

import (
	"context"
	"errors"

	"intake-reconciler/internal/models"
)

var (
	// ErrNotFound means no record exists for the key or record id.
	ErrNotFound = errors.New("RECORD_NOT_FOUND")
	// ErrDuplicateKey means a create raced with another create for the same
	// key. Callers recover by re-resolving and converting to an update.
	ErrDuplicateKey = errors.New("DUPLICATE_KEY")
	// ErrUnavailable wraps transient connectivity or query failures.
	ErrUnavailable = errors.New("STORE_UNAVAILABLE")
)

// RecordStore is the persistence contract for canonical client records.
// Create and Update are atomic single-record operations; Update has merge
// semantics, changing only the supplied attribute keys.
type RecordStore interface {
	FindByKey(ctx context.Context, key string) (*models.ClientRecord, error)
	Create(ctx context.Context, key string, attributes map[string]interface{}, status string) (*models.ClientRecord, error)
	Update(ctx context.Context, recordID string, delta map[string]interface{}, status string) (*models.ClientRecord, error)
}
