package strategy

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidateShape checks a parsed content record against a JSON schema,
// grounded on internal/providers/structured_output.go's
// validateStructuredJSON in the teacher. A nil/empty schema is treated as
// "no shape constraint" since not every strategy needs one. Exported so
// internal/router can run the same check against RouterAnalysis payloads
// before building a plan from them.
func ValidateShape(schemaRaw []byte, content map[string]interface{}) error {
	if len(schemaRaw) == 0 {
		return nil
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaRaw)); err != nil {
		return fmt.Errorf("failed to load strategy schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("failed to compile strategy schema: %w", err)
	}

	normalized, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to re-encode parsed content for validation: %w", err)
	}
	var doc any
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return fmt.Errorf("failed to decode content for validation: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("content does not match strategy schema: %w", err)
	}
	return nil
}
