// Package anthropic implements [ai.Provider] for the Anthropic Messages
// API. Auth is an x-api-key header plus a pinned anthropic-version, the
// system prompt is a top-level field, and max_tokens is mandatory (defaulted
// to 4096). Streams are named events: content deltas arrive per content
// block, token usage is split across message_start and message_delta, and
// the stream ends when the body closes after message_stop rather than with
// a sentinel.
package anthropic
