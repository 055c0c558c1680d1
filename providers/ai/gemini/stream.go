package gemini

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/unillm/unillm/providers/ai"
)

// streamDecoder decodes generateContent stream events. Gemini repeats
// cumulative usageMetadata on most events, so the latest snapshot is kept
// and attached to every emitted chunk; the aggregator's max-merge then
// lands on the final counts.
type streamDecoder struct {
	lastUsage *ai.Usage
}

// IsTerminal implements [ai.EventDecoder]. Gemini has no sentinel; the
// stream ends when the body closes.
func (d *streamDecoder) IsTerminal(data string) bool {
	return false
}

// Decode implements [ai.EventDecoder].
func (d *streamDecoder) Decode(data string) ([]ai.StreamChunk, error) {
	var event generateContentResponse
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return nil, ai.NewParseError(fmt.Sprintf("failed to decode generateContent event: %v", err))
	}

	if event.UsageMetadata != nil {
		usage := event.UsageMetadata.toUsage()
		d.lastUsage = &usage
	}

	if len(event.Candidates) == 0 {
		if d.lastUsage != nil {
			usage := *d.lastUsage
			return []ai.StreamChunk{{Kind: ai.ChunkUsageOnly, Usage: &usage}}, nil
		}
		return nil, nil
	}

	candidate := event.Candidates[0]

	var text strings.Builder
	var toolDelta *ai.ToolCallDelta
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				text.WriteString(part.Text)
			}
			if toolDelta == nil && part.FunctionCall != nil {
				// Gemini delivers complete arguments in one part and no
				// call id, so one is synthesized.
				toolDelta = &ai.ToolCallDelta{
					Index:     0,
					ID:        fmt.Sprintf("call_%d", rand.Uint32()),
					Name:      part.FunctionCall.Name,
					Arguments: argumentsString(part.FunctionCall.Args),
				}
			}
		}
	}

	var chunk ai.StreamChunk
	switch {
	case text.Len() > 0:
		chunk = ai.StreamChunk{Kind: ai.ChunkText, Text: text.String()}
	case toolDelta != nil:
		chunk = ai.StreamChunk{Kind: ai.ChunkToolDelta, ToolCallDelta: toolDelta}
	default:
		chunk = ai.StreamChunk{Kind: ai.ChunkUnknown}
	}

	if candidate.FinishReason != "" {
		chunk.FinishReason = mapFinishReason(candidate.FinishReason)
	}
	if d.lastUsage != nil {
		usage := *d.lastUsage
		chunk.Usage = &usage
	}

	return []ai.StreamChunk{chunk}, nil
}
