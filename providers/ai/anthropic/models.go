package anthropic

import (
	"encoding/json"

	"github.com/unillm/unillm/providers/ai"
)

/*
	MESSAGES API - RESPONSE TYPES
*/

// messagesResponse is the terminal `/v1/messages` body.
type messagesResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      messagesUsage  `json:"usage"`
}

// contentBlock is one element of the response content array. Text blocks
// carry text; tool_use blocks carry an id, a tool name and the input object.
type contentBlock struct {
	Type string `json:"type"` // "text", "tool_use", "thinking"
	Text string `json:"text,omitempty"`

	// Tool use fields.
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type messagesUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
}

func (u messagesUsage) toUsage() ai.Usage {
	return ai.Usage{
		InputTokens:              u.InputTokens,
		OutputTokens:             u.OutputTokens,
		CacheReadInputTokens:     u.CacheReadInputTokens,
		CacheCreationInputTokens: u.CacheCreationInputTokens,
	}
}

/*
	MESSAGES API - STREAM EVENT TYPES
*/

// messagesStreamEvent is the envelope for every named SSE event. Only the
// fields relevant to the event's `type` are populated.
type messagesStreamEvent struct {
	Type         string              `json:"type"`
	Message      *messageSnapshot    `json:"message,omitempty"`
	Index        int                 `json:"index,omitempty"`
	ContentBlock *streamContentBlock `json:"content_block,omitempty"`
	Delta        *streamEventDelta   `json:"delta,omitempty"`
	Usage        *messagesUsage      `json:"usage,omitempty"`
	Error        *messagesErrorInfo  `json:"error,omitempty"`
}

// messageSnapshot is the message object inside message_start. Only its
// usage is consumed; content arrives through subsequent block events.
type messageSnapshot struct {
	Usage messagesUsage `json:"usage"`
}

// streamContentBlock announces a new content block. For tool_use blocks it
// names the tool and carries the call id that input deltas will belong to.
type streamContentBlock struct {
	Type string `json:"type"` // "text", "tool_use", "thinking"
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// streamEventDelta carries both content_block_delta payloads (text or JSON
// fragments) and the message_delta stop_reason.
type streamEventDelta struct {
	Type        string `json:"type,omitempty"` // "text_delta", "input_json_delta", "thinking_delta", "signature_delta"
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	StopReason  string `json:"stop_reason,omitempty"`
}

type messagesErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
