package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/unillm/unillm/providers/observability"
)

// HeaderOption is a single HTTP header to apply to an outgoing request.
// Providers use header options to carry their authentication scheme
// (Authorization bearer tokens, x-api-key, x-goog-api-key) and any
// version headers the API requires.
type HeaderOption struct {
	Key   string
	Value string
}

// DoPost performs a synchronous HTTP POST with a JSON body and returns the
// response together with its fully read body. It handles observability
// tracing, header application, and proper resource cleanup.
//
// Error Handling Strategy:
//   - Context errors (timeout, cancellation) are propagated immediately
//   - Transport errors (connection failures, handshake timeouts) return the error
//   - Non-2xx statuses are NOT errors here: the response and body are returned
//     so the caller can classify the failure from the status code and payload
//   - Response body close errors are logged but don't override primary errors
//
// The body read is capped at maxResponseBodySize to bound memory use.
func DoPost(ctx context.Context, client *http.Client, url string, body any, headers ...HeaderOption) (*http.Response, []byte, error) {
	// Get observer from context if available
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("error marshaling body: %w", err)
	}

	if span != nil {
		span.AddEvent("http.request.prepared",
			observability.String(observability.AttrHTTPMethod, "POST"),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, len(jsonBody)),
		)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	requestStart := time.Now()
	res, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)

	if err != nil {
		if span != nil {
			span.AddEvent("http.request.error",
				observability.Error(err),
				observability.Duration("http.request.duration", requestDuration),
			)
		}
		return res, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer CloseWithLog(res.Body)

	respBody, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodySize))
	if err != nil {
		return res, nil, fmt.Errorf("error reading response body: %w", err)
	}

	if span != nil {
		span.AddEvent("http.response.received",
			observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
			observability.Int(observability.AttrHTTPResponseBodySize, len(respBody)),
			observability.Duration("http.request.duration", requestDuration),
		)
	}

	return res, respBody, nil
}

// CloseWithLog closes closer and logs any close error via slog without
// propagating it. Intended for deferred response-body cleanup where the
// primary error, if any, must take precedence.
func CloseWithLog(closer io.Closer) {
	if err := closer.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error())
	}
}
