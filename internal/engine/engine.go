// Package engine reconciles intake-form submissions into canonical client
// records. One submission produces at most one record mutation: create when
// the normalized key is new, merge-update when it already exists. Lifecycle
// status only ever moves forward.
package engine

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"intake-reconciler/internal/common/errors"
	"intake-reconciler/internal/common/logger"
	"intake-reconciler/internal/common/metrics"
	"intake-reconciler/internal/lifecycle"
	"intake-reconciler/internal/models"
	"intake-reconciler/internal/schema"
	"intake-reconciler/internal/store"
)

// Engine validates, projects and persists submissions against a RecordStore
// using the kind registry's field mappings.
type Engine struct {
	registry *schema.Registry
	records  store.RecordStore
	logger   logger.Logger
}

func New(registry *schema.Registry, records store.RecordStore, log logger.Logger) *Engine {
	return &Engine{
		registry: registry,
		records:  records,
		logger:   log.WithFields(map[string]interface{}{"component": "reconcile-engine"}),
	}
}

// Reconcile processes one submission end to end. A submission that fails
// validation is reported, not errored: the returned outcome carries every
// violation and no store call is made. A non-nil error means the submission
// could not be judged at all (unknown kind, store failure) and the caller
// should retry or escalate.
func (e *Engine) Reconcile(ctx context.Context, sub *models.Submission) (*models.Outcome, error) {
	start := time.Now()

	kind, err := e.registry.Kind(sub.KindID)
	if err != nil {
		metrics.SubmissionsFailed.WithLabelValues(sub.KindID, string(errors.ErrCodeUnknownFormKind)).Inc()
		return nil, err
	}

	key, delta, fieldErrors := e.project(kind, sub)
	if len(fieldErrors) > 0 {
		outcome := &models.Outcome{
			Key:    key,
			KindID: kind.KindID,
			Action: models.ActionRejected,
			Errors: fieldErrors,
		}
		metrics.SubmissionsFailed.WithLabelValues(kind.KindID, string(errors.ErrCodeValidationFailed)).Inc()
		e.logger.Warn("submission rejected", map[string]interface{}{
			"kind":       kind.KindID,
			"violations": outcome.ErrorMessages(),
		})
		return outcome, nil
	}

	outcome, err := e.apply(ctx, kind, key, delta)
	if err != nil {
		return nil, err
	}

	metrics.SubmissionsProcessed.WithLabelValues(kind.KindID, string(outcome.Action)).Inc()
	metrics.SubmissionDuration.WithLabelValues(kind.KindID).Observe(time.Since(start).Seconds())
	if outcome.PreviousStatus != outcome.NewStatus && outcome.PreviousStatus != "" {
		metrics.StatusTransitions.WithLabelValues(outcome.PreviousStatus, outcome.NewStatus).Inc()
	}

	e.logger.Info("submission reconciled", map[string]interface{}{
		"kind":      kind.KindID,
		"key":       outcome.Key,
		"record_id": outcome.RecordID,
		"action":    string(outcome.Action),
		"status":    outcome.NewStatus,
	})
	return outcome, nil
}

// project turns submission fields into the normalized key and the typed
// attribute delta, collecting every violation instead of stopping at the
// first. Fields the kind does not map are ignored; mapped fields absent from
// the submission stay out of the delta so they never clobber stored values.
func (e *Engine) project(kind schema.KindDefinition, sub *models.Submission) (string, map[string]interface{}, []models.FieldError) {
	var fieldErrors []models.FieldError
	delta := make(map[string]interface{}, len(kind.Mappings))
	key := ""

	for _, m := range kind.Mappings {
		raw, present := sub.Field(m.SourceField)
		if !present || strings.TrimSpace(raw) == "" {
			if m.Required {
				fieldErrors = append(fieldErrors, models.FieldError{
					Field:   m.SourceField,
					Message: "required field is missing",
				})
			}
			continue
		}

		if m.SourceField == kind.KeyField {
			key = NormalizeKey(raw)
			if key == "" {
				fieldErrors = append(fieldErrors, models.FieldError{
					Field:   m.SourceField,
					Message: "key is empty after normalization",
				})
			}
			continue
		}

		value, err := m.Convert(raw)
		if err != nil {
			fieldErrors = append(fieldErrors, models.FieldError{
				Field:   m.SourceField,
				Message: err.Error(),
			})
			continue
		}
		delta[m.Attribute] = value
	}

	return key, delta, fieldErrors
}

// apply resolves the key against the store and performs the single create or
// merge-update. The loser of a concurrent create race for a new key gets a
// duplicate-key failure from the store; it re-resolves once and converts the
// create into an update against the winner's record.
func (e *Engine) apply(ctx context.Context, kind schema.KindDefinition, key string, delta map[string]interface{}) (*models.Outcome, error) {
	existing, err := e.records.FindByKey(ctx, key)
	switch {
	case err == nil:
		return e.update(ctx, kind, existing, delta)

	case stderrors.Is(err, store.ErrNotFound):
		created, err := e.records.Create(ctx, key, delta, kind.ResultingStatus)
		if err == nil {
			return &models.Outcome{
				Key:       key,
				RecordID:  created.ID,
				KindID:    kind.KindID,
				Action:    models.ActionCreated,
				NewStatus: created.Status,
			}, nil
		}
		if !stderrors.Is(err, store.ErrDuplicateKey) {
			return nil, errors.NewStoreUnavailableError(err)
		}

		// Lost the create race: the record exists now.
		metrics.DuplicateKeyRecoveries.Inc()
		existing, err := e.records.FindByKey(ctx, key)
		if err != nil {
			return nil, errors.NewStoreUnavailableError(err)
		}
		return e.update(ctx, kind, existing, delta)

	default:
		return nil, errors.NewStoreUnavailableError(err)
	}
}

func (e *Engine) update(ctx context.Context, kind schema.KindDefinition, existing *models.ClientRecord, delta map[string]interface{}) (*models.Outcome, error) {
	current, _ := lifecycle.Parse(existing.Status)
	resulting := lifecycle.Later(current, lifecycle.Status(kind.ResultingStatus))

	updated, err := e.records.Update(ctx, existing.ID, delta, string(resulting))
	if err != nil {
		return nil, errors.NewStoreUnavailableError(err)
	}

	return &models.Outcome{
		Key:            updated.Key,
		RecordID:       updated.ID,
		KindID:         kind.KindID,
		Action:         models.ActionUpdated,
		PreviousStatus: existing.Status,
		NewStatus:      updated.Status,
	}, nil
}

// NormalizeKey canonicalizes a raw key value: surrounding whitespace is
// stripped and the result lowered, so "  Jane@Example.COM " and
// "jane@example.com" resolve to the same record.
func NormalizeKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
