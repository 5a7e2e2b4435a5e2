package submission

import (
	"intake-reconciler/internal/models"
)

// Input is the job variable payload: one raw intake-form submission.
type Input struct {
	KindID string            `json:"kindId"`
	Fields map[string]string `json:"fields"`
}

// Output is written back to the process instance when the job completes.
// A rejected submission still completes the job; the workflow branches on
// the rejected flag.
type Output struct {
	Action         string              `json:"action"`
	Key            string              `json:"key,omitempty"`
	RecordID       string              `json:"recordId,omitempty"`
	Status         string              `json:"status,omitempty"`
	PreviousStatus string              `json:"previousStatus,omitempty"`
	Rejected       bool                `json:"rejected"`
	Errors         []models.FieldError `json:"errors,omitempty"`
}
