package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across different components of the system.

// --- LLM Provider Attributes ---

const (
	// AttrLLMProvider is the name of the LLM provider (e.g., "openai", "anthropic")
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier (e.g., "gpt-4.1", "claude-sonnet-4")
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the API endpoint URL
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMStream indicates whether the request is streamed
	AttrLLMStream = "llm.stream"

	// AttrLLMFinishReason is the reason the generation finished
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMTemperature is the sampling temperature used
	AttrLLMTemperature = "llm.temperature"

	// AttrLLMMaxTokens is the maximum tokens allowed
	AttrLLMMaxTokens = "llm.max_tokens" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- Token Usage Attributes ---

const (
	// AttrLLMTokensPrompt is the number of prompt tokens
	AttrLLMTokensPrompt = "llm.tokens.prompt" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrLLMTokensCompletion is the number of completion tokens
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrLLMTokensTotal is the total number of tokens
	AttrLLMTokensTotal = "llm.tokens.total" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrLLMTokensCacheRead is the number of prompt tokens served from cache
	AttrLLMTokensCacheRead = "llm.tokens.cache_read" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- Retry Attributes ---

const (
	// AttrRetryAttempt is the 1-based attempt number of the current try
	AttrRetryAttempt = "retry.attempt"

	// AttrRetryBackoff is the delay applied before the next attempt
	AttrRetryBackoff = "retry.backoff"

	// AttrRetryAfter is the server-provided Retry-After value, if any
	AttrRetryAfter = "retry.after"
)

// --- Request/Response Attributes ---

const (
	// AttrRequestMessagesCount is the number of messages in the request
	AttrRequestMessagesCount = "request.messages_count"

	// AttrRequestToolsCount is the number of tools in the request
	AttrRequestToolsCount = "request.tools_count"

	// AttrResponseContent is the response content from the LLM
	AttrResponseContent = "response.content"

	// AttrResponseToolCalls is the number of tool calls in the response
	AttrResponseToolCalls = "response.tool_calls"
)

// --- Tool Attributes ---

const (
	// AttrToolName is the name of the tool referenced by a tool call
	AttrToolName = "tool.name"

	// AttrToolCallID is the provider-assigned identifier of a tool call
	AttrToolCallID = "tool.call_id"
)

// --- HTTP Attributes ---

const (
	// AttrHTTPMethod is the HTTP method (GET, POST, etc.)
	AttrHTTPMethod = "http.method"

	// AttrHTTPStatusCode is the HTTP response status code
	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPURL is the full request URL
	AttrHTTPURL = "http.url"

	// AttrHTTPRequestBodySize is the request body size in bytes
	AttrHTTPRequestBodySize = "http.request.body.size"

	// AttrHTTPResponseBodySize is the response body size in bytes
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- Cost Attributes ---

const (
	// AttrCostInput is the accumulated input cost in USD
	AttrCostInput = "cost.input_usd"

	// AttrCostOutput is the accumulated output cost in USD
	AttrCostOutput = "cost.output_usd"

	// AttrCostTotal is the accumulated total cost in USD
	AttrCostTotal = "cost.total_usd"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrErrorType is the error type/class
	AttrErrorType = "error.type"

	// AttrDuration is the operation duration
	AttrDuration = "duration"

	// AttrStatus is the operation status
	AttrStatus = "status"

	// AttrStatusDescription is the status description
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	// SpanClientStream is the span name for streaming completion requests
	SpanClientStream = "client.stream"

	// SpanClientComplete is the span name for non-streaming completion requests
	SpanClientComplete = "client.complete"

	// SpanLLMRequest is the span name for a single LLM HTTP attempt
	SpanLLMRequest = "llm.request"
)

// --- Event Names ---

const (
	// EventLLMRequestStart marks the start of an LLM request
	EventLLMRequestStart = "llm.request.start"

	// EventLLMRequestEnd marks the end of an LLM request
	EventLLMRequestEnd = "llm.request.end"

	// EventLLMRequestRetry marks a retry of an LLM request after a retryable failure
	EventLLMRequestRetry = "llm.request.retry"

	// EventStreamFinalized marks the aggregation of a stream into a completion
	EventStreamFinalized = "llm.stream.finalized"

	// EventTokensReceived marks when token usage is reported by the provider
	EventTokensReceived = "llm.tokens.received" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- Metric Names ---

const (
	// MetricClientRequestCount is the counter for client requests
	MetricClientRequestCount = "unillm.client.request.count"

	// MetricClientRequestDuration is the histogram for request duration
	MetricClientRequestDuration = "unillm.client.request.duration"

	// MetricClientRetryCount is the counter for retried attempts
	MetricClientRetryCount = "unillm.client.retry.count"

	// MetricClientTokensTotal is the counter for total tokens
	MetricClientTokensTotal = "unillm.client.tokens.total"

	// MetricClientTokensPrompt is the counter for prompt tokens
	MetricClientTokensPrompt = "unillm.client.tokens.prompt"

	// MetricClientTokensCompletion is the counter for completion tokens
	MetricClientTokensCompletion = "unillm.client.tokens.completion"
)
