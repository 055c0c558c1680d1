package openai

import "github.com/unillm/unillm/providers/ai"

/*
	RESPONSES API - RESPONSE TYPES
*/

// responsesResponse is the terminal `/v1/responses` body.
type responsesResponse struct {
	ID     string          `json:"id"`
	Model  string          `json:"model"`
	Status string          `json:"status"` // "completed", "incomplete", "failed", ...
	Output []outputItem    `json:"output"`
	Usage  *responsesUsage `json:"usage,omitempty"`
}

// outputItem is one element of the `output` array. Message items carry
// content parts; function_call items carry a name and an arguments string.
type outputItem struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"` // "message", "function_call", "reasoning", ...
	Content []outputContent `json:"content,omitempty"`

	// Function call fields.
	Name      string `json:"name,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type outputContent struct {
	Type string `json:"type"` // "output_text", "refusal", ...
	Text string `json:"text,omitempty"`
}

type responsesUsage struct {
	InputTokens        int `json:"input_tokens"`
	OutputTokens       int `json:"output_tokens"`
	TotalTokens        int `json:"total_tokens"`
	InputTokensDetails *struct {
		CachedTokens int `json:"cached_tokens"`
	} `json:"input_tokens_details,omitempty"`
}

func (u *responsesUsage) toUsage() ai.Usage {
	usage := ai.Usage{
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
	}
	if u.InputTokensDetails != nil {
		usage.CacheReadInputTokens = u.InputTokensDetails.CachedTokens
	}
	return usage
}

/*
	RESPONSES API - STREAM EVENT TYPES
*/

// responseStreamEvent is the envelope for every named SSE event. Only the
// fields relevant to the event's `type` are populated.
type responseStreamEvent struct {
	Type     string             `json:"type"`
	Delta    string             `json:"delta,omitempty"`
	Item     *streamOutputItem  `json:"item,omitempty"`
	Response *responseSnapshot  `json:"response,omitempty"`
	Error    *responseErrorInfo `json:"error,omitempty"`
}

// streamOutputItem announces a new output item. For function calls it names
// the tool and carries the call id that argument deltas will belong to.
type streamOutputItem struct {
	ID     string `json:"id"`
	Type   string `json:"type"` // "message", "function_call", ...
	CallID string `json:"call_id,omitempty"`
	Name   string `json:"name,omitempty"`
}

// responseSnapshot is the response object attached to lifecycle events.
// Only the terminal snapshot's status and usage are consumed.
type responseSnapshot struct {
	Status string          `json:"status"`
	Usage  *responsesUsage `json:"usage,omitempty"`
}

type responseErrorInfo struct {
	Message string `json:"message"`
}
