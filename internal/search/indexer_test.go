package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake-reconciler/internal/common/errors"
	"intake-reconciler/internal/common/logger"
	"intake-reconciler/internal/models"
)

func newTestIndexer(t *testing.T, handler http.HandlerFunc) *Indexer {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{srv.URL},
	})
	require.NoError(t, err)

	return NewIndexer(client, "client-records", logger.NewNoOpLogger())
}

func testRecord() *models.ClientRecord {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &models.ClientRecord{
		ID:  "rec-1",
		Key: "jane@example.com",
		Attributes: map[string]interface{}{
			"first_name": "Jane",
		},
		Status:    "Lead - Info Requested",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestIndexRecord_UpsertsUnderRecordID(t *testing.T) {
	var gotPath string
	var gotDoc map[string]interface{}

	idx := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotDoc)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	})

	err := idx.IndexRecord(context.Background(), testRecord())
	require.NoError(t, err)

	assert.Equal(t, "/client-records/_doc/rec-1", gotPath)
	assert.Equal(t, "jane@example.com", gotDoc["key"])
	assert.Equal(t, "Lead - Info Requested", gotDoc["status"])
	assert.Equal(t, "2026-03-01T10:00:00Z", gotDoc["updatedAt"])
}

func TestIndexRecord_ServerErrorReported(t *testing.T) {
	idx := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"unavailable"}`))
	})

	err := idx.IndexRecord(context.Background(), testRecord())
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeSearchIndexFailed, stdErr.Code)
}
