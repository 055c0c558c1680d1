package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/unillm/unillm/providers/ai"
)

// sseResponse writes a sequence of SSE data payloads and flushes after each,
// the way the live provider endpoints deliver them.
func sseResponse(w http.ResponseWriter, payloads ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	flusher := w.(http.Flusher)
	for _, payload := range payloads {
		_, _ = io.WriteString(w, payload)
		flusher.Flush()
	}
}

// drain consumes a stream to its end and returns the finalized completion.
func drain(t *testing.T, stream *ai.CompletionStream) *ai.Completion {
	t.Helper()
	for {
		_, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected stream error: %v", err)
		}
	}
	completion, err := stream.Finalize()
	if err != nil {
		t.Fatalf("unexpected finalize error: %v", err)
	}
	return completion
}

// ========== Streaming end-to-end ==========

func TestStream_Cerebras_TextDeltasAndUsage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("expected bearer auth, got %q", r.Header.Get("Authorization"))
		}
		sseResponse(w,
			"data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n",
			"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n",
			"data: {\"choices\":[{\"delta\":{\"content\":\"!\"}}]}\n\n",
			"data: {\"choices\":[],\"usage\":{\"prompt_tokens\":5,\"completion_tokens\":3}}\n\n",
			"data: [DONE]\n\n",
		)
	}))
	defer server.Close()

	c := newTestClient(t, "cerebras", server.URL)

	stream, err := c.Stream("cerebras/llama3.1-8b", []ai.Message{ai.UserMessage("hi")}).
		Send(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	completion := drain(t, stream)
	if completion.Content != "Hello!" {
		t.Errorf("expected content %q, got %q", "Hello!", completion.Content)
	}
	if completion.Usage.InputTokens != 5 || completion.Usage.OutputTokens != 3 {
		t.Errorf("expected usage 5/3, got %+v", completion.Usage)
	}
	if completion.FinishReason != ai.FinishReasonStop {
		t.Errorf("expected finish stop, got %v", completion.FinishReason)
	}
}

func TestStream_Anthropic_ToolCallAcrossDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("expected x-api-key auth, got %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("expected pinned version header, got %q", r.Header.Get("anthropic-version"))
		}
		sseResponse(w,
			"event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"usage\":{\"input_tokens\":10,\"output_tokens\":0}}}\n\n",
			"event: content_block_start\ndata: {\"type\":\"content_block_start\",\"index\":0,\"content_block\":{\"type\":\"tool_use\",\"id\":\"tu_1\",\"name\":\"get_weather\"}}\n\n",
			"event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"input_json_delta\",\"partial_json\":\"{\\\"loc\"}}\n\n",
			"event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"input_json_delta\",\"partial_json\":\"ation\\\":\\\"Tok\"}}\n\n",
			"event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"input_json_delta\",\"partial_json\":\"yo\\\"}\"}}\n\n",
			"event: content_block_stop\ndata: {\"type\":\"content_block_stop\",\"index\":0}\n\n",
			"event: message_delta\ndata: {\"type\":\"message_delta\",\"delta\":{\"stop_reason\":\"tool_use\"},\"usage\":{\"output_tokens\":7}}\n\n",
			"event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n",
		)
	}))
	defer server.Close()

	c := newTestClient(t, "anthropic", server.URL)

	stream, err := c.Stream("anthropic/claude-3-5-haiku-20241022", []ai.Message{ai.UserMessage("weather in Tokyo?")}).
		Send(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	completion := drain(t, stream)
	if len(completion.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(completion.ToolCalls))
	}
	call := completion.ToolCalls[0]
	if call.ID != "tu_1" || call.Function.Name != "get_weather" {
		t.Errorf("expected tu_1/get_weather, got %s/%s", call.ID, call.Function.Name)
	}
	if call.Function.Arguments != `{"location":"Tokyo"}` {
		t.Errorf("expected reassembled arguments, got %q", call.Function.Arguments)
	}
	if completion.FinishReason != ai.FinishReasonToolCalls {
		t.Errorf("expected finish tool_calls, got %v", completion.FinishReason)
	}
	if completion.Usage.InputTokens != 10 || completion.Usage.OutputTokens != 7 {
		t.Errorf("expected usage 10/7, got %+v", completion.Usage)
	}
}

func TestStream_Gemini_NoSentinel_EndsOnClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("expected x-goog-api-key auth, got %q", r.Header.Get("x-goog-api-key"))
		}
		if !strings.HasSuffix(r.URL.Path, ":streamGenerateContent") || r.URL.Query().Get("alt") != "sse" {
			t.Errorf("expected streamGenerateContent?alt=sse, got %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		sseResponse(w,
			"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"Once upon\"}]}}],\"usageMetadata\":{\"promptTokenCount\":4,\"candidatesTokenCount\":2}}\n\n",
			"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\" a time\"}]},\"finishReason\":\"STOP\"}],\"usageMetadata\":{\"promptTokenCount\":4,\"candidatesTokenCount\":5}}\n\n",
		)
	}))
	defer server.Close()

	c := newTestClient(t, "gemini", server.URL)

	stream, err := c.Stream("gemini/gemini-2.0-flash", []ai.Message{ai.UserMessage("tell me a story")}).
		Send(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	completion := drain(t, stream)
	if completion.Content != "Once upon a time" {
		t.Errorf("expected concatenated text, got %q", completion.Content)
	}
	if completion.Usage.InputTokens != 4 || completion.Usage.OutputTokens != 5 {
		t.Errorf("expected usage from last event, got %+v", completion.Usage)
	}
	if completion.FinishReason != ai.FinishReasonStop {
		t.Errorf("expected finish stop, got %v", completion.FinishReason)
	}
}

func TestStream_OpenAI_FunctionCallArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sseResponse(w,
			"event: response.created\ndata: {\"type\":\"response.created\"}\n\n",
			"event: response.output_item.added\ndata: {\"type\":\"response.output_item.added\",\"item\":{\"type\":\"function_call\",\"call_id\":\"call_9\",\"name\":\"lookup\"}}\n\n",
			"event: response.function_call_arguments.delta\ndata: {\"type\":\"response.function_call_arguments.delta\",\"delta\":\"{\\\"q\\\":\"}\n\n",
			"event: response.function_call_arguments.delta\ndata: {\"type\":\"response.function_call_arguments.delta\",\"delta\":\"\\\"go\\\"}\"}\n\n",
			"event: response.function_call_arguments.done\ndata: {\"type\":\"response.function_call_arguments.done\"}\n\n",
			"event: response.completed\ndata: {\"type\":\"response.completed\",\"response\":{\"status\":\"completed\",\"usage\":{\"input_tokens\":12,\"output_tokens\":6}}}\n\n",
			"data: [DONE]\n\n",
		)
	}))
	defer server.Close()

	c := newTestClient(t, "openai", server.URL)

	stream, err := c.Stream("openai/gpt-4o", []ai.Message{ai.UserMessage("look up go")}).
		Send(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	completion := drain(t, stream)
	if len(completion.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(completion.ToolCalls))
	}
	call := completion.ToolCalls[0]
	if call.ID != "call_9" || call.Function.Name != "lookup" || call.Function.Arguments != `{"q":"go"}` {
		t.Errorf("unexpected tool call %+v", call)
	}
	if completion.FinishReason != ai.FinishReasonToolCalls {
		t.Errorf("expected finish tool_calls, got %v", completion.FinishReason)
	}
	if completion.Usage.InputTokens != 12 || completion.Usage.OutputTokens != 6 {
		t.Errorf("expected usage 12/6, got %+v", completion.Usage)
	}
}

// ========== Retry policy ==========

func TestRetry_RateLimit_HonorsRetryAfter(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		sseResponse(w,
			"data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n",
			"data: [DONE]\n\n",
		)
	}))
	defer server.Close()

	c := newTestClient(t, "cerebras", server.URL)

	start := time.Now()
	stream, err := c.Stream("cerebras/llama3.1-8b", []ai.Message{ai.UserMessage("hi")}).
		Send(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elapsed := time.Since(start)

	if got := attempts.Load(); got != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", got)
	}
	// Retry-After: 1 replaces the 1ms test backoff; the jittered sleep is
	// at least 0.85s.
	if elapsed < 850*time.Millisecond {
		t.Errorf("expected ~1s sleep from Retry-After, slept %v", elapsed)
	}

	completion := drain(t, stream)
	if completion.Content != "ok" {
		t.Errorf("expected content %q, got %q", "ok", completion.Content)
	}
}

func TestRetry_ServerErrors_ExhaustAttempts(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(t, "cerebras", server.URL)

	_, err := c.Stream("cerebras/llama3.1-8b", []ai.Message{ai.UserMessage("hi")}).
		Send(context.Background())
	aiErr, ok := err.(*ai.Error)
	if !ok || aiErr.Kind != ai.ErrorKindServer {
		t.Fatalf("expected server error, got %v", err)
	}
	if aiErr.Status != 500 {
		t.Errorf("expected status 500, got %d", aiErr.Status)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("expected exactly 3 attempts (default max), got %d", got)
	}
}

func TestRetry_Unauthorized_NoRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := newTestClient(t, "cerebras", server.URL)

	_, err := c.Complete("cerebras/llama3.1-8b", []ai.Message{ai.UserMessage("hi")}).
		SendComplete(context.Background())
	if kind := errorKind(t, err); kind != ai.ErrorKindUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", kind)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("expected a single attempt, got %d", got)
	}
}

func TestRetry_APIError_ExtractsMessage(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error": {"message": "model not found", "type": "invalid_request_error"}}`)
	}))
	defer server.Close()

	c := newTestClient(t, "cerebras", server.URL)

	_, err := c.Complete("cerebras/nonexistent", []ai.Message{ai.UserMessage("hi")}).
		SendComplete(context.Background())
	aiErr, ok := err.(*ai.Error)
	if !ok || aiErr.Kind != ai.ErrorKindAPI {
		t.Fatalf("expected api error, got %v", err)
	}
	if aiErr.Status != 404 || aiErr.Message != "model not found" {
		t.Errorf("expected extracted message, got status=%d message=%q", aiErr.Status, aiErr.Message)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("expected a single attempt, got %d", got)
	}
}

func TestRetry_APIError_FallsBackToRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "plain text failure")
	}))
	defer server.Close()

	c := newTestClient(t, "cerebras", server.URL)

	_, err := c.Complete("cerebras/llama3.1-8b", []ai.Message{ai.UserMessage("hi")}).
		SendComplete(context.Background())
	aiErr, ok := err.(*ai.Error)
	if !ok || aiErr.Kind != ai.ErrorKindAPI {
		t.Fatalf("expected api error, got %v", err)
	}
	if aiErr.Message != "plain text failure" {
		t.Errorf("expected raw body as message, got %q", aiErr.Message)
	}
}

func TestRetry_HTTPDateRetryAfter_KeepsBackoff(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "Wed, 21 Oct 2026 07:28:00 GMT")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		sseResponse(w,
			"data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n",
			"data: [DONE]\n\n",
		)
	}))
	defer server.Close()

	c := newTestClient(t, "cerebras", server.URL)

	start := time.Now()
	stream, err := c.Stream("cerebras/llama3.1-8b", []ai.Message{ai.UserMessage("hi")}).
		Send(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The HTTP-date form is not parsed; the 1ms test backoff applies.
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("expected the configured backoff, slept %v", elapsed)
	}
	drain(t, stream)
}

func TestRetry_CancelledContext_StopsSleeping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newTestClient(t, "cerebras", server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Stream("cerebras/llama3.1-8b", []ai.Message{ai.UserMessage("hi")}).Send(ctx)
	if err == nil {
		t.Fatal("expected an error from the cancelled backoff sleep")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("expected the sleep to end with the context, waited %v", elapsed)
	}
}

func TestRetry_InitialBackoffAboveCap_IsCapped(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		sseResponse(w,
			"data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n",
			"data: [DONE]\n\n",
		)
	}))
	defer server.Close()

	c, err := NewBuilder().
		APIKey("cerebras", "test-key").
		BaseURL("cerebras", server.URL).
		RetryBackoff(10 * time.Second).
		MaxBackoff(10 * time.Millisecond).
		Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}

	start := time.Now()
	stream, err := c.Stream("cerebras/llama3.1-8b", []ai.Message{ai.UserMessage("hi")}).
		Send(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("expected the first sleep capped at MaxBackoff, slept %v", elapsed)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
	drain(t, stream)
}

func TestComplete_Gemini_TerminalEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("expected generateContent endpoint, got %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{
			"candidates": [{"content": {"parts": [{"text": "Paris"}], "role": "model"}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 8, "candidatesTokenCount": 1}
		}`)
	}))
	defer server.Close()

	c := newTestClient(t, "gemini", server.URL)

	completion, err := c.Complete("gemini/gemini-2.0-flash", []ai.Message{ai.UserMessage("capital of France?")}).
		SendComplete(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completion.Content != "Paris" {
		t.Errorf("expected content %q, got %q", "Paris", completion.Content)
	}
	if completion.Usage.InputTokens != 8 || completion.Usage.OutputTokens != 1 {
		t.Errorf("expected usage 8/1, got %+v", completion.Usage)
	}
}
