package ai

import (
	"encoding/json"
	"strings"
)

/*
	##### IDENTIFIERS #####
*/

// ModelID identifies a model as a provider/model pair, e.g.
// "anthropic/claude-sonnet-4-5" or "cerebras/llama-3.3-70b". The provider
// half selects the adapter and API key; the model half is passed to the
// vendor verbatim.
type ModelID struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// ParseModelID splits a "provider/model" identifier at the first slash.
// Model names may themselves contain slashes (e.g. vendor-prefixed Gemini
// models), so only the first separator is significant. An identifier with
// no slash, or with an empty half, yields an invalid-model error.
func ParseModelID(s string) (ModelID, error) {
	provider, model, found := strings.Cut(s, "/")
	if !found || provider == "" || model == "" {
		return ModelID{}, NewInvalidModelError(s)
	}
	return ModelID{Provider: provider, Model: model}, nil
}

// String reassembles the "provider/model" form. ParseModelID(id.String())
// returns id unchanged for any valid identifier.
func (id ModelID) String() string {
	return id.Provider + "/" + id.Model
}

/*
	##### MESSAGES #####
*/

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Model response from a previous turn
	RoleTool      MessageRole = "tool"      // Tool/function output
)

// Message represents a single message in a conversation
type Message struct {
	// Core fields (always present)
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`

	// Multi-modal content. When non-empty, Parts carries the payload and
	// Content is ignored. Only user and assistant messages may carry parts;
	// tool messages are text-only.
	Parts []ContentPart `json:"parts,omitempty"`

	// Tool calling fields
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // For role=assistant requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // For role=tool, links to the tool call being responded to
	Name       string     `json:"name,omitempty"`         // Optional participant name
}

// UserMessage creates a plain-text user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// SystemMessage creates a system message carrying instructions for the model.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// AssistantMessage creates an assistant message, typically echoing a prior
// model turn back into the conversation history.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolResultMessage creates a tool message carrying the result of executing
// the tool call identified by toolCallID.
func ToolResultMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, ToolCallID: toolCallID, Content: content}
}

// UserMessageParts creates a user message from a list of content parts,
// e.g. mixed text and image references.
func UserMessageParts(parts ...ContentPart) Message {
	return Message{Role: RoleUser, Parts: parts}
}

// ContentPart is one element of a multi-modal message payload: either a
// text fragment or an image reference.
type ContentPart struct {
	Type     ContentPartType `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *ImageURL       `json:"image_url,omitempty"`
}

// ContentPartType discriminates the payload of a ContentPart.
type ContentPartType string

const (
	ContentPartText  ContentPartType = "text"
	ContentPartImage ContentPartType = "image_url"
)

// ImageURL references an image by URL. A data: URI with inline base64 is
// carried verbatim; each provider decodes it into its own wire form.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"` // Optional resolution hint ("low", "high", "auto")
}

// TextPart creates a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: ContentPartText, Text: text}
}

// ImagePart creates an image content part from a URL or data: URI.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: ContentPartImage, ImageURL: &ImageURL{URL: url}}
}

/*
	##### TOOLS #####
*/

// Tool describes a function the model may call. Type is always "function".
type Tool struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition is the callable half of a Tool: a name, an optional
// description, and a JSON-schema object describing the parameters.
type FunctionDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// FunctionTool creates a function tool from a name, description, and raw
// JSON-schema parameters. Use [SchemaFor] to derive the schema from a Go
// struct instead of writing it by hand.
func FunctionTool(name, description string, parameters json.RawMessage) Tool {
	return Tool{
		Type: "function",
		Function: FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// ToolChoice controls whether and how the model may call tools. The zero
// value leaves the decision to the provider's default. Any other value is
// the name of a specific function the model must call.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"     // Model decides whether to call a tool
	ToolChoiceNone     ToolChoice = "none"     // Tool calls disabled
	ToolChoiceRequired ToolChoice = "required" // Model must call some tool
)

// ToolCall represents a function/tool call request from the model
type ToolCall struct {
	ID       string       `json:"id,omitempty"` // Unique identifier for this tool call
	Type     string       `json:"type"`         // "function"
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string, passed through exactly as the vendor produced it
}

/*
	##### USAGE #####
*/

// Usage holds token counters for one request. Counters only ever grow over
// the lifetime of a stream; see [Usage.Merge].
type Usage struct {
	InputTokens              int `json:"input_tokens,omitempty"`
	OutputTokens             int `json:"output_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`     // Prompt tokens served from the provider's cache
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"` // Prompt tokens written to the provider's cache
}

// TotalTokens returns input plus output tokens.
func (u Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// Merge combines two usage snapshots by taking the field-wise maximum.
// Providers report usage at different points of a stream (a prompt-only
// snapshot up front, output counts at the end), so the running total is the
// max of everything seen rather than a sum.
func (u Usage) Merge(other Usage) Usage {
	return Usage{
		InputTokens:              max(u.InputTokens, other.InputTokens),
		OutputTokens:             max(u.OutputTokens, other.OutputTokens),
		CacheReadInputTokens:     max(u.CacheReadInputTokens, other.CacheReadInputTokens),
		CacheCreationInputTokens: max(u.CacheCreationInputTokens, other.CacheCreationInputTokens),
	}
}

/*
	##### FINISH REASONS #####
*/

// FinishReason explains why the model stopped generating. The empty string
// means the reason is not yet known (mid-stream).
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"           // Natural end of turn
	FinishReasonLength        FinishReason = "length"         // Token limit reached
	FinishReasonToolCalls     FinishReason = "tool_calls"     // Model requested tool execution
	FinishReasonContentFilter FinishReason = "content_filter" // Provider safety filter triggered
	FinishReasonUnknown       FinishReason = "unknown"        // Provider reported something unrecognized
)

/*
	##### REQUEST CONFIG #####
*/

// RequestConfig carries the optional knobs of a completion request. Nil
// pointer fields and zero values are omitted from the provider body.
type RequestConfig struct {
	MaxTokens   int        // Maximum tokens to generate; 0 means provider default
	Temperature *float64   // Sampling temperature; nil means provider default
	TopP        *float64   // Nucleus sampling cutoff; nil means provider default
	Stop        []string   // Stop sequences
	Tools       []Tool     // Tools the model may call
	ToolChoice  ToolChoice // How the model may use the tools
	System      string     // System prompt applied when the messages carry none

	// Extra is shallow-merged into the provider request body after all other
	// fields, overwriting on key collision. It is the escape hatch for
	// vendor-specific parameters the neutral config does not model.
	Extra map[string]any
}
