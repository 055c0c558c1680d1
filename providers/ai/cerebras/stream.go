package cerebras

import (
	"encoding/json"
	"fmt"

	"github.com/unillm/unillm/providers/ai"
)

// doneSentinel terminates OpenAI-compatible streams.
const doneSentinel = "[DONE]"

// maxToolCallIndex bounds the wire-supplied tool call index. Real streams
// number parallel calls from zero; anything outside this range is a
// malformed event, not a sparse stream.
const maxToolCallIndex = 127

// streamDecoder decodes OpenAI-compatible chat completion chunks. It is
// stateless: every event is self-contained, including tool call fragments
// which carry their own index.
type streamDecoder struct{}

// IsTerminal implements [ai.EventDecoder].
func (d *streamDecoder) IsTerminal(data string) bool {
	return data == doneSentinel
}

// Decode implements [ai.EventDecoder]. One event may produce several chunks:
// a text delta plus one tool-delta per tool_calls entry. The event's
// finish_reason and usage attach to the last chunk it produced, or to an
// unknown-kind chunk when the event carried nothing else.
func (d *streamDecoder) Decode(data string) ([]ai.StreamChunk, error) {
	var event chatCompletionChunk
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return nil, ai.NewParseError(fmt.Sprintf("failed to decode chat completion chunk: %v", err))
	}

	// The include_usage closing event has no choices, only final counters.
	if len(event.Choices) == 0 {
		if event.Usage != nil {
			usage := event.Usage.toUsage()
			return []ai.StreamChunk{{Kind: ai.ChunkUsageOnly, Usage: &usage}}, nil
		}
		return nil, nil
	}

	choice := event.Choices[0]

	var chunks []ai.StreamChunk
	if choice.Delta.Content != "" {
		chunks = append(chunks, ai.StreamChunk{Kind: ai.ChunkText, Text: choice.Delta.Content})
	}
	for _, call := range choice.Delta.ToolCalls {
		if call.Index < 0 || call.Index > maxToolCallIndex {
			return nil, ai.NewParseError(fmt.Sprintf("tool call index %d out of range", call.Index))
		}
		chunks = append(chunks, ai.StreamChunk{
			Kind: ai.ChunkToolDelta,
			ToolCallDelta: &ai.ToolCallDelta{
				Index:     call.Index,
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}

	var finish ai.FinishReason
	if choice.FinishReason != "" {
		finish = mapFinishReason(choice.FinishReason)
	}
	var usage *ai.Usage
	if event.Usage != nil {
		u := event.Usage.toUsage()
		usage = &u
	}

	if len(chunks) == 0 {
		if finish == "" && usage == nil {
			return nil, nil
		}
		return []ai.StreamChunk{{Kind: ai.ChunkUnknown, FinishReason: finish, Usage: usage}}, nil
	}

	last := &chunks[len(chunks)-1]
	last.FinishReason = finish
	last.Usage = usage
	return chunks, nil
}
