package llmjson

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/karimbenali/docpipe/internal/core/domain"
)

// FieldSetSchema describes the canonical extraction payload: canonical keys,
// when present, must be strings. Extra keys are tolerated with any type (the
// model sometimes volunteers an address or phone number and we keep those).
// Absent canonical keys are filled by the normalizer, so none is required.
func FieldSetSchema() map[string]any {
	props := make(map[string]any, len(domain.CanonicalFields))
	for _, key := range domain.CanonicalFields {
		props[key] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties":           props,
	}
}

// ValidateAgainstSchema validates data against a schema map. A validation
// failure is treated by callers the same way as a decode failure.
func ValidateAgainstSchema(schemaMap map[string]any, data []byte) error {
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
