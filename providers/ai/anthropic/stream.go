package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/unillm/unillm/providers/ai"
)

// streamDecoder decodes Messages API named events. Input JSON deltas do not
// repeat the tool id or name, so the decoder remembers them from
// content_block_start and stamps every fragment until content_block_stop
// closes the block. Usage arrives split across message_start (input side)
// and message_delta (final output count), so a running snapshot is kept and
// attached to the terminal chunk.
type streamDecoder struct {
	usage     *ai.Usage
	blockType string
	toolID    string
	toolName  string
	toolIndex int
}

// IsTerminal implements [ai.EventDecoder]. Anthropic has no [DONE]
// sentinel; the stream ends when the body closes after message_stop.
func (d *streamDecoder) IsTerminal(data string) bool {
	return false
}

// Decode implements [ai.EventDecoder].
func (d *streamDecoder) Decode(data string) ([]ai.StreamChunk, error) {
	var event messagesStreamEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return nil, ai.NewParseError(fmt.Sprintf("failed to decode messages event: %v", err))
	}

	switch event.Type {
	case "message_start":
		if event.Message != nil {
			usage := event.Message.Usage.toUsage()
			d.usage = &usage
		}
		return nil, nil

	case "content_block_start":
		if event.ContentBlock != nil {
			d.blockType = event.ContentBlock.Type
			if d.blockType == "tool_use" {
				d.toolID = event.ContentBlock.ID
				d.toolName = event.ContentBlock.Name
			}
		}
		return nil, nil

	case "content_block_delta":
		if event.Delta == nil {
			return nil, nil
		}
		switch event.Delta.Type {
		case "text_delta":
			return []ai.StreamChunk{{Kind: ai.ChunkText, Text: event.Delta.Text}}, nil
		case "input_json_delta":
			return []ai.StreamChunk{{
				Kind: ai.ChunkToolDelta,
				ToolCallDelta: &ai.ToolCallDelta{
					Index:     d.toolIndex,
					ID:        d.toolID,
					Name:      d.toolName,
					Arguments: event.Delta.PartialJSON,
				},
			}}, nil
		}
		// thinking_delta and signature_delta are internal reasoning
		// traffic and produce no chunks.
		return nil, nil

	case "content_block_stop":
		if d.blockType == "tool_use" {
			d.toolIndex++
		}
		d.blockType = ""
		d.toolID = ""
		d.toolName = ""
		return nil, nil

	case "message_delta":
		if event.Usage != nil {
			if d.usage == nil {
				usage := event.Usage.toUsage()
				d.usage = &usage
			} else {
				d.usage.OutputTokens = event.Usage.OutputTokens
			}
		}
		chunk := ai.StreamChunk{Kind: ai.ChunkUnknown}
		if d.usage != nil {
			usage := *d.usage
			chunk.Usage = &usage
		}
		if event.Delta != nil && event.Delta.StopReason != "" {
			chunk.FinishReason = mapStopReason(event.Delta.StopReason)
		}
		return []ai.StreamChunk{chunk}, nil

	case "message_stop", "ping":
		return nil, nil

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
