// internal/models/submission.go
package models

import "time"

// Submission is one inbound intake-form payload. It is consumed and
// discarded after producing a record mutation; it is never persisted.
type Submission struct {
	KindID     string            `json:"kindId"`
	Fields     map[string]string `json:"fields"`
	ReceivedAt time.Time         `json:"receivedAt,omitempty"`
}

// Field returns the raw value for name and whether it was supplied.
func (s *Submission) Field(name string) (string, bool) {
	v, ok := s.Fields[name]
	return v, ok
}
