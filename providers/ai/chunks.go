package ai

// ChunkKind identifies the kind of delta carried by a StreamChunk.
type ChunkKind string

const (
	// ChunkText indicates a text content delta.
	ChunkText ChunkKind = "text"
	// ChunkUsageOnly indicates a chunk carrying only token usage, with no
	// content (typically the final event of an OpenAI-compatible stream).
	ChunkUsageOnly ChunkKind = "usage_only"
	// ChunkToolDelta indicates an incremental tool call delta (id, name, or
	// arguments fragment).
	ChunkToolDelta ChunkKind = "tool_delta"
	// ChunkThinking indicates a reasoning/thinking content delta.
	ChunkThinking ChunkKind = "thinking"
	// ChunkPing indicates a provider keep-alive with no payload.
	ChunkPing ChunkKind = "ping"
	// ChunkUnknown indicates an event that carried no recognized payload but
	// may still attach a finish reason or usage.
	ChunkUnknown ChunkKind = "unknown"
)

// ToolCallDelta represents an incremental update to a tool call being streamed.
// The Index field identifies which tool call is being updated (there may be
// multiple concurrent tool calls). ID and Name are typically present only on
// the first chunk for a given index; subsequent chunks carry only Arguments
// fragments.
type ToolCallDelta struct {
	Index     int    `json:"index"`               // Position in the tool calls list
	ID        string `json:"id,omitempty"`        // Tool call ID (first chunk only)
	Name      string `json:"name,omitempty"`      // Function name (first chunk only)
	Arguments string `json:"arguments,omitempty"` // Incremental JSON argument fragment
}

// StreamChunk is one neutral delta decoded from a provider stream event.
// Kind identifies the primary payload; FinishReason and Usage may ride along
// on any chunk when the provider reports them in the same wire event.
type StreamChunk struct {
	Kind          ChunkKind      `json:"kind"`
	Text          string         `json:"text,omitempty"`            // Text delta (Kind == ChunkText)
	ToolCallDelta *ToolCallDelta `json:"tool_call_delta,omitempty"` // Tool call delta (Kind == ChunkToolDelta)
	FinishReason  FinishReason   `json:"finish_reason,omitempty"`   // Non-empty once the provider reports it
	Usage         *Usage         `json:"usage,omitempty"`           // Token usage snapshot, merged by the stream
}

// Completion is the final aggregate of a request: the full content, the
// merged usage, and any tool calls the model produced. Streaming requests
// build one via [CompletionStream.Finalize]; non-streaming requests get one
// directly from the provider's terminal response.
type Completion struct {
	Content      string       `json:"content"`
	ToolCalls    []ToolCall   `json:"tool_calls,omitempty"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`
	Usage        Usage        `json:"usage"`
	Model        string       `json:"model,omitempty"`
}
