package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostgresStore(db), mock
}

func recordRows(id, key, attrs, status string, at time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "key", "attributes", "status", "created_at", "updated_at"}).
		AddRow(id, key, []byte(attrs), status, at, at)
}

func TestPostgresStore_FindByKey(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, key, attributes, status, created_at, updated_at`).
		WithArgs("jane@example.com").
		WillReturnRows(recordRows("rec-1", "jane@example.com", `{"first_name":"Jane"}`, "Lead - Info Requested", now))

	rec, err := s.FindByKey(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "Jane", rec.Attributes["first_name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByKey_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, key, attributes, status, created_at, updated_at`).
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "key", "attributes", "status", "created_at", "updated_at"}))

	_, err := s.FindByKey(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_Create(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO client_records`).
		WithArgs(sqlmock.AnyArg(), "jane@example.com", []byte(`{"first_name":"Jane"}`), "Lead - Info Requested").
		WillReturnRows(recordRows("rec-1", "jane@example.com", `{"first_name":"Jane"}`, "Lead - Info Requested", now))

	rec, err := s.Create(context.Background(), "jane@example.com",
		map[string]interface{}{"first_name": "Jane"}, "Lead - Info Requested")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", rec.Key)
	assert.Equal(t, "Lead - Info Requested", rec.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Create_UniqueViolation(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO client_records`).
		WithArgs(sqlmock.AnyArg(), "jane@example.com", sqlmock.AnyArg(), "Lead - Info Requested").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := s.Create(context.Background(), "jane@example.com", nil, "Lead - Info Requested")
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestPostgresStore_Update(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`UPDATE client_records`).
		WithArgs("rec-1", []byte(`{"street_address":"12 Main St"}`), "Active Client").
		WillReturnRows(recordRows("rec-1", "jane@example.com",
			`{"first_name":"Jane","street_address":"12 Main St"}`, "Active Client", now))

	rec, err := s.Update(context.Background(), "rec-1",
		map[string]interface{}{"street_address": "12 Main St"}, "Active Client")
	require.NoError(t, err)
	assert.Equal(t, "Active Client", rec.Status)
	assert.Equal(t, "12 Main St", rec.Attributes["street_address"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Update_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE client_records`).
		WithArgs("rec-missing", sqlmock.AnyArg(), "Active Client").
		WillReturnRows(sqlmock.NewRows([]string{"id", "key", "attributes", "status", "created_at", "updated_at"}))

	_, err := s.Update(context.Background(), "rec-missing", nil, "Active Client")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_QueryFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, key, attributes, status, created_at, updated_at`).
		WithArgs("jane@example.com").
		WillReturnError(assert.AnError)

	_, err := s.FindByKey(context.Background(), "jane@example.com")
	assert.ErrorIs(t, err, ErrUnavailable)
}
