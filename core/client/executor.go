package client

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/unillm/unillm/internal/utils"
	"github.com/unillm/unillm/providers/ai"
)

// executeStream runs the attempt loop for a streaming request. On success
// it hands the open response body to a [ai.CompletionStream]; the stream
// owns the body from then on. Failed attempts retry per the retry policy;
// a stream that fails after its first byte is never retried here, that is
// the stream's own terminal error.
func (c *Client) executeStream(ctx context.Context, resolved resolvedRequest, body map[string]any, obs *requestObserver) (*ai.CompletionStream, error) {
	url := resolved.provider.StreamURL(resolved.baseURL, resolved.model, resolved.apiKey)
	headers := resolved.provider.Headers(resolved.apiKey)

	attempt := 0
	backoff := c.config.initialBackoff()

	for {
		attempt++

		response, errorBody, err := utils.DoPostStream(ctx, c.http, url, body, headers...)

		var requestErr *ai.Error
		switch {
		case err != nil:
			requestErr = classifyTransportError(err)
		case response.StatusCode >= 200 && response.StatusCode < 300:
			return ai.NewCompletionStream(ctx, response.Body, resolved.provider.NewDecoder(), resolved.model), nil
		default:
			requestErr = classifyResponse(response.StatusCode, response.Header, errorBody)
		}

		if !requestErr.Retryable() || attempt >= c.config.MaxRetries {
			return nil, requestErr
		}

		if requestErr.Kind == ai.ErrorKindRateLimited && requestErr.RetryAfter > 0 {
			backoff = requestErr.RetryAfter
		}

		obs.retry(ctx, attempt, backoff, requestErr)
		if err := sleepBackoff(ctx, withJitter(backoff)); err != nil {
			return nil, err
		}
		backoff = c.config.nextBackoff(backoff)
	}
}

// executeTerminal runs the attempt loop for a non-streaming request and
// parses the response body on success. Parse failures are terminal: the
// provider answered, it just answered garbage.
func (c *Client) executeTerminal(ctx context.Context, resolved resolvedRequest, body map[string]any, obs *requestObserver) (*ai.Completion, error) {
	url := resolved.provider.TerminalURL(resolved.baseURL, resolved.model, resolved.apiKey)
	headers := resolved.provider.Headers(resolved.apiKey)

	attempt := 0
	backoff := c.config.initialBackoff()

	for {
		attempt++

		response, responseBody, err := utils.DoPost(ctx, c.http, url, body, headers...)

		var requestErr *ai.Error
		switch {
		case err != nil:
			requestErr = classifyTransportError(err)
		case response.StatusCode >= 200 && response.StatusCode < 300:
			completion, parseErr := resolved.provider.ParseTerminal(responseBody)
			if parseErr != nil {
				return nil, parseErr
			}
			if completion.Model == "" {
				completion.Model = resolved.model
			}
			return completion, nil
		default:
			requestErr = classifyResponse(response.StatusCode, response.Header, responseBody)
		}

		if !requestErr.Retryable() || attempt >= c.config.MaxRetries {
			return nil, requestErr
		}

		if requestErr.Kind == ai.ErrorKindRateLimited && requestErr.RetryAfter > 0 {
			backoff = requestErr.RetryAfter
		}

		obs.retry(ctx, attempt, backoff, requestErr)
		if err := sleepBackoff(ctx, withJitter(backoff)); err != nil {
			return nil, err
		}
		backoff = c.config.nextBackoff(backoff)
	}
}

// classifyResponse maps a non-2xx response onto the error taxonomy.
func classifyResponse(status int, header http.Header, body []byte) *ai.Error {
	switch {
	case status == http.StatusUnauthorized:
		return ai.NewUnauthorizedError()
	case status == http.StatusTooManyRequests:
		return ai.NewRateLimitedError(parseRetryAfter(header))
	case status >= 500:
		return ai.NewServerError(status)
	default:
		return ai.NewAPIError(status, extractErrorMessage(body))
	}
}

// classifyTransportError maps a failed POST onto the error taxonomy:
// timeouts (dial, TLS, response header, or a context deadline) are
// retryable; every other network failure, connection refused included,
// is terminal.
func classifyTransportError(err error) *ai.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ai.NewTimeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ai.NewTimeoutError(err)
	}
	return ai.NewTransportError(err)
}

// parseRetryAfter reads an integer-seconds Retry-After value. The HTTP-date
// form is not parsed; it reports zero so the caller keeps its current
// backoff.
func parseRetryAfter(header http.Header) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// extractErrorMessage pulls the conventional error.message field out of an
// error body, falling back to the raw body when the shape does not match.
// All four providers use the {"error": {"message": ...}} envelope.
func extractErrorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return string(body)
}

// withJitter scales a backoff by a random factor in [0.85, 1.15) so
// synchronized clients do not retry in lockstep.
func withJitter(backoff time.Duration) time.Duration {
	factor := 0.85 + rand.Float64()*0.3
	return time.Duration(float64(backoff) * factor)
}

// sleepBackoff waits for the backoff duration or until the context ends,
// whichever comes first.
func sleepBackoff(ctx context.Context, backoff time.Duration) error {
	select {
	case <-ctx.Done():
		return classifyTransportError(ctx.Err())
	case <-time.After(backoff):
		return nil
	}
}
