package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// RecordFields lists every key the model may return, in report order.
var RecordFields = []string{
	"certificate_name", "participant_name", "identification", "institution", "city",
	"issue_date", "expiration_date", "hours", "target_audience", "specialization_area",
	"level", "guidelines", "instructor", "institution_nit",
}

// BuildCertificateJSONSchema returns the JSON Schema (draft 2020-12 subset) the sanitized model
// output must satisfy. Every field is nullable.
func BuildCertificateJSONSchema() map[string]any {
	props := map[string]any{}
	for _, k := range RecordFields {
		props[k] = nullable(map[string]any{"type": "string", "minLength": 1})
	}
	props["identification"] = nullable(map[string]any{"type": "string", "pattern": `^\d+$`})
	props["issue_date"] = nullable(dateProp())
	props["expiration_date"] = nullable(dateProp())
	props["hours"] = map[string]any{"type": []any{"number", "null"}, "minimum": 0}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

func nullable(p map[string]any) map[string]any {
	return map[string]any{"anyOf": []any{p, map[string]any{"type": "null"}}}
}

func dateProp() map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": `^\d{4}-\d{2}-\d{2}`,
	}
}

var (
	certSchemaOnce sync.Once
	certSchema     *jsonschema.Schema
	certSchemaErr  error
)

// ValidateRecordJSON validates data against the certificate schema.
func ValidateRecordJSON(data []byte) error {
	certSchemaOnce.Do(func() {
		certSchema, certSchemaErr = compileSchema(BuildCertificateJSONSchema())
	})
	if certSchemaErr != nil {
		return certSchemaErr
	}
	return validate(certSchema, data)
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	schema, err := compileSchema(schemaMap)
	if err != nil {
		return err
	}
	return validate(schema, data)
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func validate(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
