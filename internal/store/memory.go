// internal/store/memory.go
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"intake-reconciler/internal/models"
)

// MemoryStore is an in-process RecordStore for tests and local runs. The
// mutex serializes find+create, which gives the same-key uniqueness
// guarantee the engine requires.
type MemoryStore struct {
	mu      sync.RWMutex
	byKey   map[string]*models.ClientRecord
	byID    map[string]*models.ClientRecord
	nowFunc func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey:   make(map[string]*models.ClientRecord),
		byID:    make(map[string]*models.ClientRecord),
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) FindByKey(ctx context.Context, key string) (*models.ClientRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: key %s", ErrNotFound, key)
	}
	return cloneRecord(rec), nil
}

func (s *MemoryStore) Create(ctx context.Context, key string, attributes map[string]interface{}, status string) (*models.ClientRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byKey[key]; exists {
		return nil, fmt.Errorf("%w: key %s", ErrDuplicateKey, key)
	}

	now := s.nowFunc()
	rec := &models.ClientRecord{
		ID:         uuid.New().String(),
		Key:        key,
		Attributes: cloneAttributes(attributes),
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.byKey[key] = rec
	s.byID[rec.ID] = rec

	return cloneRecord(rec), nil
}

func (s *MemoryStore) Update(ctx context.Context, recordID string, delta map[string]interface{}, status string) (*models.ClientRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[recordID]
	if !ok {
		return nil, fmt.Errorf("%w: id %s", ErrNotFound, recordID)
	}

	if rec.Attributes == nil {
		rec.Attributes = make(map[string]interface{}, len(delta))
	}
	for k, v := range delta {
		rec.Attributes[k] = v
	}
	rec.Status = status
	rec.UpdatedAt = s.nowFunc()

	return cloneRecord(rec), nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}

func cloneRecord(rec *models.ClientRecord) *models.ClientRecord {
	out := *rec
	out.Attributes = cloneAttributes(rec.Attributes)
	return &out
}

func cloneAttributes(attrs map[string]interface{}) map[string]interface{} {
	if attrs == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
