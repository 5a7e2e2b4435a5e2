// internal/models/record.go
package models

import "time"

// ClientRecord is the canonical per-person record. Exactly one exists per
// normalized key (email); the store enforces uniqueness.
type ClientRecord struct {
	ID         string                 `json:"id"`
	Key        string                 `json:"key"`
	Attributes map[string]interface{} `json:"attributes"`
	Status     string                 `json:"status"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

// Attribute returns the named attribute value, or nil if never supplied.
func (r *ClientRecord) Attribute(name string) interface{} {
	if r.Attributes == nil {
		return nil
	}
	return r.Attributes[name]
}
