package ai

import (
	"github.com/unillm/unillm/internal/utils"
)

// Provider is the adapter interface every vendor implementation satisfies.
// A provider is stateless: it translates neutral messages and config into
// its own wire format (URLs, headers, request bodies) and interprets the
// responses, while the client owns transport, retries, and streaming.
type Provider interface {
	// Name returns the canonical provider name used in model identifiers,
	// e.g. "anthropic" in "anthropic/claude-sonnet-4-5".
	Name() string

	// DefaultBaseURL returns the provider's production API base URL, used
	// unless the client configures an override.
	DefaultBaseURL() string

	// Headers returns the HTTP headers carrying authentication and any
	// version headers the API requires. Content-Type is handled by the
	// transport layer.
	Headers(apiKey string) []utils.HeaderOption

	// StreamURL returns the full endpoint URL for a streaming request.
	// Providers that authenticate via query parameter fold the key in here.
	StreamURL(baseURL, model, apiKey string) string

	// TerminalURL returns the full endpoint URL for a non-streaming request.
	TerminalURL(baseURL, model, apiKey string) string

	// BuildStreamBody constructs the JSON request body for a streaming
	// completion. Bodies are maps so that optional fields stay absent and
	// cfg.Extra can be shallow-merged on top.
	BuildStreamBody(model string, messages []Message, cfg *RequestConfig) (map[string]any, error)

	// BuildTerminalBody constructs the JSON request body for a
	// non-streaming completion.
	BuildTerminalBody(model string, messages []Message, cfg *RequestConfig) (map[string]any, error)

	// NewDecoder returns a fresh stateful decoder for one stream. Decoders
	// are never shared between streams.
	NewDecoder() EventDecoder

	// ParseTerminal interprets a complete non-streaming response body.
	ParseTerminal(body []byte) (*Completion, error)
}

// EventDecoder turns the data payload of one SSE event into neutral stream
// chunks. Implementations are stateful (several providers spread one logical
// delta across multiple events) and single-stream.
type EventDecoder interface {
	// Decode parses one event payload. One wire event may carry several
	// chunks (an OpenAI-compatible delta can hold multiple tool_calls
	// entries), so a slice is returned; empty means the event contributed
	// nothing. A malformed payload returns a parse error.
	Decode(data string) ([]StreamChunk, error)

	// IsTerminal reports whether the payload is the provider's end-of-stream
	// sentinel. Only the OpenAI-flavored protocols use one ("[DONE]");
	// decoders for providers without a sentinel always return false.
	IsTerminal(data string) bool
}
