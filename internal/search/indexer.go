// Package search mirrors reconciled records into an Elasticsearch index for
// operational reporting. The index is a read model only: reconciliation never
// reads it back, and an indexing failure never fails the reconciliation.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"intake-reconciler/internal/common/errors"
	"intake-reconciler/internal/common/logger"
	"intake-reconciler/internal/models"
)

type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	return &Indexer{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "record-indexer"}),
	}
}

// indexDoc is the flattened projection stored per record. Attributes are
// kept nested so ad hoc queries can reach any form field.
type indexDoc struct {
	Key        string                 `json:"key"`
	Status     string                 `json:"status"`
	Attributes map[string]interface{} `json:"attributes"`
	CreatedAt  string                 `json:"createdAt"`
	UpdatedAt  string                 `json:"updatedAt"`
}

// IndexRecord upserts the record's current state under its record id, so
// repeated reconciliations overwrite rather than accumulate.
func (i *Indexer) IndexRecord(ctx context.Context, rec *models.ClientRecord) error {
	doc := indexDoc{
		Key:        rec.Key,
		Status:     rec.Status,
		Attributes: rec.Attributes,
		CreatedAt:  rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:  rec.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return errors.NewSearchIndexFailedError(err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: rec.ID,
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, i.client)
	if err != nil {
		return errors.NewSearchIndexFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewSearchIndexFailedError(fmt.Errorf("index request: %s", res.Status()))
	}

	i.logger.Debug("record indexed", map[string]interface{}{
		"record_id": rec.ID,
		"index":     i.index,
	})
	return nil
}
