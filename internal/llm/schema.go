package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"huoltokirja/constants"
)

// BuildFieldsJSONSchema returns a JSON-Schema (draft 2020-12 subset) for the
// fallback reply as a generic map. Nothing is required, the model may return
// any subset, but every present field must be well typed.
func BuildFieldsJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			constants.FieldDate: map[string]any{
				"type":    "string",
				"pattern": `^\d{4}-\d{2}-\d{2}$`,
			},
			constants.FieldAmount:    map[string]any{"type": "number", "minimum": 0.0},
			constants.FieldVATAmount: map[string]any{"type": "number", "minimum": 0.0},
			constants.FieldInvoiceNumber: map[string]any{
				"type":    "string",
				"pattern": `^\d+$`,
			},
			constants.FieldOdometerKM: map[string]any{"type": "integer", "minimum": 0},
			constants.FieldCompany:    map[string]any{"type": "string", "minLength": 1},
			constants.FieldWorkDescription: map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
