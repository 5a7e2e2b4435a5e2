// internal/schema/value.go
package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueType is the canonical attribute type a mapping produces.
type ValueType string

const (
	TypeText        ValueType = "text"
	TypeNumber      ValueType = "number"
	TypeDate        ValueType = "date"
	TypeSelect      ValueType = "select"
	TypeMultiSelect ValueType = "multi_select"
)

func (t ValueType) IsValid() bool {
	switch t {
	case TypeText, TypeNumber, TypeDate, TypeSelect, TypeMultiSelect:
		return true
	default:
		return false
	}
}

// dateLayouts are accepted submission date formats, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"01/02/2006",
}

// Convert coerces a raw submission value into the mapping's canonical typed
// value. The result is JSON-serializable (string, float64 or []string) so it
// can land in a JSONB attributes column unchanged.
func (m FieldMapping) Convert(raw string) (interface{}, error) {
	trimmed := strings.TrimSpace(raw)

	switch m.Type {
	case TypeText, TypeSelect:
		return trimmed, nil

	case TypeNumber:
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", raw)
		}
		return n, nil

	case TypeDate:
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, trimmed); err == nil {
				return ts.Format("2006-01-02"), nil
			}
		}
		return nil, fmt.Errorf("not a date: %q", raw)

	case TypeMultiSelect:
		parts := strings.Split(trimmed, ",")
		choices := make([]string, 0, len(parts))
		for _, p := range parts {
			if c := strings.TrimSpace(p); c != "" {
				choices = append(choices, c)
			}
		}
		return choices, nil

	default:
		return nil, fmt.Errorf("unknown value type: %q", m.Type)
	}
}
