// Package openai implements [ai.Provider] for the OpenAI Responses API.
// Requests go to /v1/responses with the conversation as an `input` array and
// the system prompt as top-level `instructions`. The stream is a sequence of
// named events (response.output_text.delta, response.function_call_arguments
// .delta, ...) that the decoder folds back into neutral chunks; completion
// is signaled by a response.completed event carrying final usage, not by a
// sentinel.
package openai
