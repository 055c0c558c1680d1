package ai

import (
	"encoding/json"
	"fmt"

	"github.com/unillm/unillm/internal/jsonschema"
	"github.com/unillm/unillm/internal/utils"
)

// SchemaFor generates the JSON-schema parameters object for a tool from the
// struct type T, so tools can be declared from plain Go types:
//
//	type weatherArgs struct {
//	    Location string `json:"location" jsonschema:"description=City name"`
//	    Unit     string `json:"unit,omitempty" jsonschema:"enum=celsius|fahrenheit"`
//	}
//
//	params, err := ai.SchemaFor[weatherArgs]()
//	tool := ai.FunctionTool("get_weather", "Look up current weather", params)
func SchemaFor[T any]() (json.RawMessage, error) {
	schema, err := jsonschema.GenerateJSONSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return raw, nil
}

// ParseArguments decodes a tool call's argument string into a typed struct.
// Model-produced JSON is occasionally slightly malformed (single quotes,
// trailing commas, unquoted keys); a repair pass is attempted before the
// parse is declared failed.
func ParseArguments[T any](arguments string) (*T, error) {
	parsed, err := utils.ParseStringAs[T](arguments)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
