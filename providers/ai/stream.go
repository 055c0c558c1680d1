package ai

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/unillm/unillm/internal/sse"
	"github.com/unillm/unillm/internal/utils"
	"github.com/unillm/unillm/providers/observability"
)

const streamReadBufferSize = 4096

// CompletionStream delivers a streaming completion as a sequence of
// [StreamChunk] values while accumulating them into a final [Completion].
// It owns the HTTP response body and the SSE framing for one request.
//
// Important: callers must consume the stream, either by calling Next until
// it returns io.EOF or by calling Close to abandon it early. The underlying
// HTTP response body is only released when the stream ends, errors, or is
// closed; constructing a CompletionStream and never draining or closing it
// will leak the connection. Finalize after an early Close is valid and
// returns the partially accumulated state.
//
// CompletionStream is not safe for concurrent use.
type CompletionStream struct {
	body    io.ReadCloser
	parser  *sse.Parser
	decoder EventDecoder
	model   string

	span  observability.Span
	timer *utils.Timer

	readBuf []byte
	pending []StreamChunk
	eof     bool
	done    bool
	err     error

	content     strings.Builder
	usage       Usage
	finish      FinishReason
	accumulator ToolCallAccumulator

	finalized bool
	closeOnce sync.Once
	closeErr  error
}

// NewCompletionStream binds a stream to an open response body and a fresh
// provider decoder. The context is only used to pick up the active
// observability span; cancellation is enforced by the HTTP request the body
// belongs to.
func NewCompletionStream(ctx context.Context, body io.ReadCloser, decoder EventDecoder, model string) *CompletionStream {
	return &CompletionStream{
		body:    body,
		parser:  sse.NewParser(),
		decoder: decoder,
		model:   model,
		span:    observability.SpanFromContext(ctx),
		timer:   utils.NewTimer(),
		readBuf: make([]byte, streamReadBufferSize),
	}
}

// Next returns the next chunk of the stream. It returns io.EOF when the
// stream has ended normally (terminal sentinel or byte stream close) and a
// classified error on a malformed payload or a mid-stream network failure.
// Any error, including io.EOF, means the stream is done and the response
// body has been released.
//
// Returned chunks have already been folded into the accumulated state
// observable via [CompletionStream.CurrentContent] and
// [CompletionStream.CurrentUsage].
func (s *CompletionStream) Next() (*StreamChunk, error) {
	for {
		// Chunks decoded from an earlier event drain first; one wire event
		// may have produced several.
		if len(s.pending) > 0 {
			chunk := s.pending[0]
			s.pending = s.pending[1:]
			s.accumulate(&chunk)
			return &chunk, nil
		}

		if s.done {
			if s.err != nil {
				return nil, s.err
			}
			return nil, io.EOF
		}

		if event, ok := s.parser.Next(); ok {
			if s.decoder.IsTerminal(event.Data) {
				s.markDone(nil)
				continue
			}
			chunks, err := s.decoder.Decode(event.Data)
			if err != nil {
				parseErr := asParseError(err)
				s.markDone(parseErr)
				return nil, parseErr
			}
			s.pending = append(s.pending, chunks...)
			continue
		}

		if s.eof {
			// All complete events have been decoded; whatever remains in the
			// parser is an unterminated fragment.
			s.markDone(nil)
			continue
		}

		n, err := s.body.Read(s.readBuf)
		if n > 0 {
			s.parser.Feed(s.readBuf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				// The final Read may return bytes together with EOF; loop
				// once more so buffered events are still yielded.
				s.eof = true
				continue
			}
			readErr := classifyStreamError(err)
			s.markDone(readErr)
			return nil, readErr
		}
	}
}

// markDone marks the stream done, records the terminal error if any, and
// releases the response body.
func (s *CompletionStream) markDone(err error) {
	s.done = true
	if err != nil && s.err == nil {
		s.err = err
	}
	_ = s.Close()
}

// accumulate folds one chunk into the running completion state.
func (s *CompletionStream) accumulate(chunk *StreamChunk) {
	if chunk.Kind == ChunkText {
		s.content.WriteString(chunk.Text)
	}
	if chunk.ToolCallDelta != nil {
		s.accumulator.Add(chunk.ToolCallDelta)
	}
	if chunk.Usage != nil {
		s.usage = s.usage.Merge(*chunk.Usage)
	}
	if chunk.FinishReason != "" {
		s.finish = chunk.FinishReason
	}
}

// Finalize closes the stream and returns the accumulated completion. It may
// be called exactly once, at any point: after draining to io.EOF for the
// full result, after an early Close for the partial one, or after a failed
// Next. A second call returns a stream-consumed error.
func (s *CompletionStream) Finalize() (*Completion, error) {
	if s.finalized {
		return nil, NewStreamConsumedError()
	}
	s.finalized = true
	s.done = true
	_ = s.Close()

	toolCalls := s.accumulator.Finalize()
	finishReason := s.finish
	if len(toolCalls) > 0 {
		// A completion carrying tool calls finished because of them, whatever
		// the provider reported.
		finishReason = FinishReasonToolCalls
	} else if finishReason == "" {
		finishReason = FinishReasonStop
	}

	s.timer.Stop()
	if s.span != nil {
		s.span.AddEvent(observability.EventStreamFinalized,
			observability.String(observability.AttrLLMModel, s.model),
			observability.String(observability.AttrLLMFinishReason, string(finishReason)),
			observability.Int(observability.AttrLLMTokensPrompt, s.usage.InputTokens),
			observability.Int(observability.AttrLLMTokensCompletion, s.usage.OutputTokens),
			observability.Int(observability.AttrResponseToolCalls, len(toolCalls)),
			observability.Duration(observability.AttrDuration, s.timer.GetDuration()),
		)
	}

	return &Completion{
		Content:      s.content.String(),
		ToolCalls:    toolCalls,
		FinishReason: finishReason,
		Usage:        s.usage,
		Model:        s.model,
	}, nil
}

// CurrentContent returns the text accumulated so far without consuming
// the stream.
func (s *CompletionStream) CurrentContent() string {
	return s.content.String()
}

// CurrentUsage returns the usage merged so far without consuming the stream.
func (s *CompletionStream) CurrentUsage() Usage {
	return s.usage
}

// IsDone reports whether the stream has ended (normally or with an error).
func (s *CompletionStream) IsDone() bool {
	return s.done
}

// Close releases the underlying response body. It is idempotent and safe to
// call at any point, including after Next returned io.EOF (terminal paths
// close the body themselves). Closing an undrained stream abandons it; the
// accumulated partial state stays available to Finalize.
func (s *CompletionStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}

// asParseError coerces a decoder error into a parse-kind [Error], leaving
// already-classified errors untouched.
func asParseError(err error) error {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr
	}
	return NewParseError(err.Error())
}

// classifyStreamError maps a mid-stream read failure to the error taxonomy:
// timeouts (including a context deadline firing mid-read) are retryable
// timeout errors in principle, though the stream itself is never retried;
// everything else is a terminal transport error.
func classifyStreamError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(err)
	}
	return NewTransportError(err)
}
