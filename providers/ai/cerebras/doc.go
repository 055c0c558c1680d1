// Package cerebras implements [ai.Provider] for Cerebras' OpenAI-compatible
// chat completions API. Both streaming and terminal requests go to
// /chat/completions; streams end with the OpenAI "[DONE]" sentinel and, when
// stream_options.include_usage is set (always, here), report final token
// usage in a trailing choices-less event.
package cerebras
