// internal/schema/loader.go
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"intake-reconciler/internal/common/errors"
)

// kindsFileSchema validates the shape of an operator-supplied kinds file
// before unmarshalling, so a malformed file reports field-level errors
// instead of a decode failure.
const kindsFileSchema = `{
	"type": "object",
	"required": ["kinds"],
	"properties": {
		"kinds": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["kindId", "keyField", "resultingStatus", "mappings"],
				"properties": {
					"kindId": {"type": "string", "minLength": 1},
					"keyField": {"type": "string", "minLength": 1},
					"resultingStatus": {"type": "string", "minLength": 1},
					"mappings": {
						"type": "array",
						"minItems": 1,
						"items": {
							"type": "object",
							"required": ["sourceField", "type"],
							"properties": {
								"sourceField": {"type": "string", "minLength": 1},
								"attribute": {"type": "string"},
								"type": {
									"type": "string",
									"enum": ["text", "number", "date", "select", "multi_select"]
								},
								"required": {"type": "boolean"}
							}
						}
					}
				}
			}
		}
	}
}`

type kindsFile struct {
	Kinds []KindDefinition `json:"kinds"`
}

// LoadFile reads form-kind definitions from a JSON file and builds a
// validated Registry. Operators can extend the intake forms without
// recompiling.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kinds file: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(kindsFileSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validate kinds file: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, errors.NewInvalidSchemaError(
			fmt.Sprintf("%s: %s", path, strings.Join(msgs, "; ")))
	}

	var file kindsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse kinds file: %w", err)
	}

	return NewRegistry(file.Kinds)
}
