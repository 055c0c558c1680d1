// Package ai defines the shared, provider-agnostic types and interfaces used
// across all LLM provider implementations (Cerebras, OpenAI, Anthropic,
// Gemini). Each provider adapter maps these types to its own wire format,
// keeping the rest of the codebase decoupled from provider-specific details.
//
// The central interface is [Provider]: a stateless translator between the
// neutral request types ([Message], [Tool], [RequestConfig]) and a vendor's
// URLs, headers, and JSON bodies. Streaming responses flow through a
// [CompletionStream], which frames the SSE byte stream, decodes events via
// the provider's [EventDecoder], and accumulates the chunks into a final
// [Completion]. Request failures are classified into the [Error] taxonomy
// so callers can branch on [ErrorKind] rather than error strings.
package ai
