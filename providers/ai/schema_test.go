package ai

import (
	"encoding/json"
	"strings"
	"testing"
)

type weatherQuery struct {
	Location string `json:"location" jsonschema:"description=City name,required"`
	Unit     string `json:"unit,omitempty" jsonschema:"enum=celsius|fahrenheit"`
	Days     int    `json:"days,omitempty"`
}

// ========== SchemaFor tests ==========

func TestSchemaFor_GeneratesObjectSchema(t *testing.T) {
	raw, err := SchemaFor[weatherQuery]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var schema struct {
		Type       string                     `json:"type"`
		Required   []string                   `json:"required"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(raw, &schema); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}

	if schema.Type != "object" {
		t.Errorf("expected type %q, got %q", "object", schema.Type)
	}
	for _, field := range []string{"location", "unit", "days"} {
		if _, ok := schema.Properties[field]; !ok {
			t.Errorf("expected property %q in schema", field)
		}
	}
	if len(schema.Required) != 1 || schema.Required[0] != "location" {
		t.Errorf("expected only %q required, got %v", "location", schema.Required)
	}
}

func TestSchemaFor_UsableAsToolParameters(t *testing.T) {
	params, err := SchemaFor[weatherQuery]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tool := FunctionTool("get_weather", "Look up current weather", params)

	encoded, err := json.Marshal(tool)
	if err != nil {
		t.Fatalf("tool failed to marshal: %v", err)
	}
	if !strings.Contains(string(encoded), `"location"`) {
		t.Errorf("expected serialized tool to embed the schema, got %s", encoded)
	}
}

// ========== ParseArguments tests ==========

func TestParseArguments_ValidJSON_Decodes(t *testing.T) {
	args, err := ParseArguments[weatherQuery](`{"location":"Tokyo","unit":"celsius","days":3}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if args.Location != "Tokyo" || args.Unit != "celsius" || args.Days != 3 {
		t.Errorf("unexpected arguments: %+v", args)
	}
}

func TestParseArguments_MalformedJSON_Repaired(t *testing.T) {
	// Single quotes and a trailing comma, the classic model output slips.
	args, err := ParseArguments[weatherQuery](`{'location': 'Paris', 'days': 2,}`)
	if err != nil {
		t.Fatalf("expected repair to succeed, got %v", err)
	}
	if args.Location != "Paris" || args.Days != 2 {
		t.Errorf("unexpected arguments: %+v", args)
	}
}

func TestParseArguments_WrongShape_ReturnsError(t *testing.T) {
	if _, err := ParseArguments[weatherQuery](`[1,2`); err == nil {
		t.Fatal("expected error for non-object arguments")
	}
}
