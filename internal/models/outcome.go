// internal/models/outcome.go
package models

// Action describes what a reconciliation did to the canonical record.
type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionRejected Action = "rejected"
)

// FieldError is one validation violation on a submission field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Outcome is the per-submission reconciliation report. A rejected outcome
// carries every violated field, not just the first.
type Outcome struct {
	Key            string       `json:"key"`
	RecordID       string       `json:"recordId,omitempty"`
	KindID         string       `json:"kindId"`
	Action         Action       `json:"action"`
	PreviousStatus string       `json:"previousStatus,omitempty"`
	NewStatus      string       `json:"newStatus,omitempty"`
	Errors         []FieldError `json:"errors,omitempty"`
}

// Rejected reports whether the submission was rejected before any store call.
func (o *Outcome) Rejected() bool {
	return o.Action == ActionRejected
}

// ErrorMessages flattens Errors into "field: message" strings.
func (o *Outcome) ErrorMessages() []string {
	if len(o.Errors) == 0 {
		return nil
	}
	msgs := make([]string, len(o.Errors))
	for i, e := range o.Errors {
		msgs[i] = e.Field + ": " + e.Message
	}
	return msgs
}
