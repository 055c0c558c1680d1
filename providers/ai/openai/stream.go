package openai

import (
	"encoding/json"
	"fmt"

	"github.com/unillm/unillm/providers/ai"
)

// doneSentinel is accepted for terminal recognition even though the
// Responses API signals completion with a response.completed event; some
// gateways append it anyway and it must not surface as a parse error.
const doneSentinel = "[DONE]"

// streamDecoder decodes Responses API named events. Argument deltas do not
// repeat the call id or function name, so the decoder remembers them from
// the output_item.added event and stamps every fragment until the matching
// arguments.done closes the call.
type streamDecoder struct {
	pendingToolID   string
	pendingToolName string
	toolIndex       int
}

// IsTerminal implements [ai.EventDecoder].
func (d *streamDecoder) IsTerminal(data string) bool {
	return data == doneSentinel
}

// Decode implements [ai.EventDecoder].
func (d *streamDecoder) Decode(data string) ([]ai.StreamChunk, error) {
	var event responseStreamEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return nil, ai.NewParseError(fmt.Sprintf("failed to decode responses event: %v", err))
	}

	switch event.Type {
	case "response.created", "response.in_progress",
		"response.content_part.added", "response.content_part.done",
		"response.output_item.done", "response.output_text.done":
		return nil, nil

	case "response.output_item.added":
		if event.Item != nil && event.Item.Type == "function_call" {
			d.pendingToolID = event.Item.CallID
			if d.pendingToolID == "" {
				d.pendingToolID = event.Item.ID
			}
			d.pendingToolName = event.Item.Name
		}
		return nil, nil

	case "response.output_text.delta":
		return []ai.StreamChunk{{Kind: ai.ChunkText, Text: event.Delta}}, nil

	case "response.function_call_arguments.delta":
		return []ai.StreamChunk{{
			Kind: ai.ChunkToolDelta,
			ToolCallDelta: &ai.ToolCallDelta{
				Index:     d.toolIndex,
				ID:        d.pendingToolID,
				Name:      d.pendingToolName,
				Arguments: event.Delta,
			},
		}}, nil

	case "response.function_call_arguments.done":
		d.toolIndex++
		d.pendingToolID = ""
		d.pendingToolName = ""
		return nil, nil

	case "response.completed":
		chunk := ai.StreamChunk{Kind: ai.ChunkUnknown}
		if event.Response != nil {
			chunk.FinishReason = mapStatus(event.Response.Status)
			if event.Response.Usage != nil {
				usage := event.Response.Usage.toUsage()
				chunk.Usage = &usage
			}
		}
		return []ai.StreamChunk{chunk}, nil

	case "error":
		message := "stream error"
		if event.Error != nil {
			message = event.Error.Message
		}
		return nil, ai.NewAPIError(0, message)
	}

	// Unrecognized event types are skipped so new API events do not break
	// in-flight streams.
	return nil, nil
}
