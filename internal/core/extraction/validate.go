package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator checks model responses against the page field schema. Compile the
// schema once and reuse the validator across pages.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	b, err := json.Marshal(FieldSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal page schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("page.schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add page schema: %w", err)
	}
	schema, err := compiler.Compile("page.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile page schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate reports whether data conforms to the page field schema.
func (v *Validator) Validate(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("response does not match schema: %w", err)
	}
	return nil
}
