// Package schema holds the form-kind registry: one checked table describing,
// per intake form, how submission fields project onto canonical record
// attributes and which lifecycle status a successful submission assigns.
// Registry content is fixed at construction; the engine never mutates it.
package schema

import (
	"fmt"
	"strings"

	"intake-reconciler/internal/common/errors"
	"intake-reconciler/internal/lifecycle"
)

// reservedAttributes are record columns that no mapping may target.
var reservedAttributes = map[string]bool{
	"status":     true,
	"created_at": true,
	"updated_at": true,
}

// FieldMapping projects one submission field onto one canonical attribute.
// The mapping for a kind's key field carries an empty Attribute: the key is
// a record column, not an attribute.
type FieldMapping struct {
	SourceField string    `json:"sourceField"`
	Attribute   string    `json:"attribute,omitempty"`
	Type        ValueType `json:"type"`
	Required    bool      `json:"required,omitempty"`
}

// KindDefinition describes one supported intake form.
type KindDefinition struct {
	KindID          string         `json:"kindId"`
	KeyField        string         `json:"keyField"`
	ResultingStatus string         `json:"resultingStatus"`
	Mappings        []FieldMapping `json:"mappings"`
}

// KeyMapping returns the mapping for the kind's key field.
func (k *KindDefinition) KeyMapping() (FieldMapping, bool) {
	for _, m := range k.Mappings {
		if m.SourceField == k.KeyField {
			return m, true
		}
	}
	return FieldMapping{}, false
}

// Registry is the validated lookup table of form kinds.
type Registry struct {
	kinds map[string]KindDefinition
	order []string
}

// NewRegistry validates the kind definitions once and builds the lookup
// table. Any violation fails fast with an INVALID_SCHEMA error so a typo in
// an attribute name can never silently create a new, unintended attribute at
// request time.
func NewRegistry(kinds []KindDefinition) (*Registry, error) {
	if len(kinds) == 0 {
		return nil, errors.NewInvalidSchemaError("no form kinds defined")
	}

	var violations []string
	attrTypes := map[string]ValueType{}

	byID := make(map[string]KindDefinition, len(kinds))
	order := make([]string, 0, len(kinds))

	for _, kind := range kinds {
		if kind.KindID == "" {
			violations = append(violations, "kind with empty kindId")
			continue
		}
		if _, dup := byID[kind.KindID]; dup {
			violations = append(violations, fmt.Sprintf("%s: duplicate kindId", kind.KindID))
			continue
		}

		violations = append(violations, validateKind(kind, attrTypes)...)

		byID[kind.KindID] = kind
		order = append(order, kind.KindID)
	}

	if len(violations) > 0 {
		return nil, errors.NewInvalidSchemaError(strings.Join(violations, "; "))
	}

	return &Registry{kinds: byID, order: order}, nil
}

func validateKind(kind KindDefinition, attrTypes map[string]ValueType) []string {
	var violations []string
	prefix := kind.KindID

	if !lifecycle.Status(kind.ResultingStatus).IsValid() {
		violations = append(violations,
			fmt.Sprintf("%s: unknown resulting status %q", prefix, kind.ResultingStatus))
	}
	if kind.KeyField == "" {
		violations = append(violations, prefix+": empty keyField")
	}

	keyCount := 0
	seenSource := map[string]bool{}
	seenAttr := map[string]bool{}

	for _, m := range kind.Mappings {
		if m.SourceField == "" {
			violations = append(violations, prefix+": mapping with empty sourceField")
			continue
		}
		if seenSource[m.SourceField] {
			violations = append(violations,
				fmt.Sprintf("%s: duplicate sourceField %q", prefix, m.SourceField))
		}
		seenSource[m.SourceField] = true

		if !m.Type.IsValid() {
			violations = append(violations,
				fmt.Sprintf("%s: field %q has unknown type %q", prefix, m.SourceField, m.Type))
		}

		if m.SourceField == kind.KeyField {
			keyCount++
			if !m.Required {
				violations = append(violations,
					fmt.Sprintf("%s: key field %q must be required", prefix, kind.KeyField))
			}
			if m.Attribute != "" {
				violations = append(violations,
					fmt.Sprintf("%s: key field %q must not target an attribute", prefix, kind.KeyField))
			}
			continue
		}

		if m.Attribute == "" {
			violations = append(violations,
				fmt.Sprintf("%s: field %q has empty attribute", prefix, m.SourceField))
			continue
		}
		if reservedAttributes[strings.ToLower(m.Attribute)] {
			violations = append(violations,
				fmt.Sprintf("%s: field %q targets reserved attribute %q", prefix, m.SourceField, m.Attribute))
		}
		if seenAttr[m.Attribute] {
			violations = append(violations,
				fmt.Sprintf("%s: duplicate attribute target %q", prefix, m.Attribute))
		}
		seenAttr[m.Attribute] = true

		// The same attribute declared by another kind must keep one type, or
		// two forms would write incompatible values into one column.
		if prev, ok := attrTypes[m.Attribute]; ok {
			if prev != m.Type {
				violations = append(violations,
					fmt.Sprintf("%s: attribute %q redeclared as %s (previously %s)",
						prefix, m.Attribute, m.Type, prev))
			}
		} else {
			attrTypes[m.Attribute] = m.Type
		}
	}

	if keyCount != 1 {
		violations = append(violations,
			fmt.Sprintf("%s: key field %q must appear exactly once in mappings (found %d)",
				prefix, kind.KeyField, keyCount))
	}

	return violations
}

// Kind returns the definition for kindID. Unknown kinds fail with an
// UNKNOWN_FORM_KIND error.
func (r *Registry) Kind(kindID string) (KindDefinition, error) {
	kind, ok := r.kinds[kindID]
	if !ok {
		return KindDefinition{}, errors.NewUnknownFormKindError(kindID)
	}
	return kind, nil
}

// KindIDs returns the registered kind identifiers in declaration order.
func (r *Registry) KindIDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
