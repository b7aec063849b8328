package configutil

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidateWithSchema validates a rule configuration against a JSON Schema
// document given as plain Go values.
func ValidateWithSchema(config any, schema map[string]any) error {
	if config == nil {
		return nil
	}

	doc, err := JSONValue(schema)
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("rule-config.json", doc); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	sch, err := c.Compile("rule-config.json")
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	inst, err := JSONValue(config)
	if err != nil {
		return err
	}
	return sch.Validate(inst)
}

// JSONValue converts v to the value model the validator expects by
// round-tripping it through JSON.
func JSONValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}
