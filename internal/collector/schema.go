package collector

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/report-v2.json
var reportSchemaV2 string

const reportSchemaURL = "https://gentoostats.invalid/schema/report-v2.json"

// Validator checks uploads against the protocol 2 schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(reportSchemaURL, bytes.NewReader([]byte(reportSchemaV2))); err != nil {
		return nil, fmt.Errorf("load report schema: %w", err)
	}
	schema, err := c.Compile(reportSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile report schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate decodes raw and checks it against the schema. The decoded
// document is returned for further processing.
func (v *Validator) Validate(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return nil, err
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("upload is not a JSON object")
	}
	return obj, nil
}
