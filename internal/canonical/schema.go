package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// rawSchema describes the shape the extraction service must return: the
// canonical keys with loosely typed values (numbers may arrive as formatted
// strings) plus an optional per-field confidence block.
var rawSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		KeyVendorName:    map[string]any{"type": []string{"string", "null"}},
		KeyInvoiceNumber: map[string]any{"type": []string{"string", "number", "null"}},
		KeyDate:          map[string]any{"type": []string{"string", "null"}},
		KeyTotalAmount:   map[string]any{"type": []string{"string", "number", "null"}},
		KeyLineItems: map[string]any{
			"type": []string{"array", "null"},
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"description": map[string]any{"type": []string{"string", "null"}},
					"quantity":    map[string]any{"type": []string{"string", "number", "null"}},
					"unit_price":  map[string]any{"type": []string{"string", "number", "null"}},
					"line_total":  map[string]any{"type": []string{"string", "number", "null"}},
				},
			},
		},
		"confidence": map[string]any{
			"type":                 []string{"object", "null"},
			"additionalProperties": map[string]any{"type": "number"},
		},
	},
}

var compiledRawSchema = mustCompileRawSchema()

func mustCompileRawSchema() *jsonschema.Schema {
	b, err := json.Marshal(rawSchema)
	if err != nil {
		panic(fmt.Sprintf("marshal raw extraction schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("raw_extraction.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add raw extraction schema: %v", err))
	}
	schema, err := compiler.Compile("raw_extraction.json")
	if err != nil {
		panic(fmt.Sprintf("compile raw extraction schema: %v", err))
	}
	return schema
}

// ValidateRaw checks that a decoded extraction payload matches the expected
// shape. Adapters call this before normalization so garbage output becomes a
// typed malformed-response failure instead of a half-populated record.
func ValidateRaw(payload map[string]any) error {
	if err := compiledRawSchema.Validate(any(payload)); err != nil {
		return fmt.Errorf("raw extraction does not match target schema: %w", err)
	}
	return nil
}
