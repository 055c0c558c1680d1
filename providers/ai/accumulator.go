package ai

import "strings"

// ToolCallAccumulator merges streamed tool call deltas into complete tool
// calls. Deltas are applied by index; the builder list grows as new indices
// appear. Within one index, id and name are replaced when a delta carries
// them and argument fragments are concatenated in arrival order.
type ToolCallAccumulator struct {
	builders []toolCallBuilder
}

// toolCallBuilder accumulates incremental tool call deltas into a complete ToolCall.
type toolCallBuilder struct {
	id        string
	name      string
	arguments strings.Builder
}

// Add merges a delta into the running builders. Nil deltas are ignored.
func (a *ToolCallAccumulator) Add(delta *ToolCallDelta) {
	if delta == nil {
		return
	}

	// Expand the builders slice if this is a new index
	for len(a.builders) <= delta.Index {
		a.builders = append(a.builders, toolCallBuilder{})
	}

	builder := &a.builders[delta.Index]

	if delta.ID != "" {
		builder.id = delta.ID
	}
	if delta.Name != "" {
		builder.name = delta.Name
	}
	if delta.Arguments != "" {
		builder.arguments.WriteString(delta.Arguments)
	}
}

// Finalize returns the completed tool calls in index order. Builders that
// never received an id are dropped; some providers emit phantom entries
// (an arguments fragment at a fresh index with no preceding id) that must
// not surface as calls.
func (a *ToolCallAccumulator) Finalize() []ToolCall {
	var calls []ToolCall
	for _, builder := range a.builders {
		if builder.id == "" {
			continue
		}
		calls = append(calls, ToolCall{
			ID:   builder.id,
			Type: "function",
			Function: FunctionCall{
				Name:      builder.name,
				Arguments: builder.arguments.String(),
			},
		})
	}
	return calls
}
