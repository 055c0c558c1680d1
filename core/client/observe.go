package client

import (
	"context"
	"time"

	"github.com/unillm/unillm/internal/utils"
	"github.com/unillm/unillm/providers/ai"
	"github.com/unillm/unillm/providers/observability"
)

// requestObserver records one request's tracing span, metrics, and logs.
// All methods are no-ops when the context carried no observer, so the
// executor never branches on observability being configured.
type requestObserver struct {
	observer observability.Provider
	span     observability.Span
	timer    *utils.Timer
	model    string
}

// startObservation opens the request span when an observer is attached to
// the context and returns the context enriched with it, so the HTTP
// helpers and the completion stream attach their events to the same span.
func startObservation(ctx context.Context, spanName, model string, messageCount int) (context.Context, *requestObserver) {
	observer := observability.ObserverFromContext(ctx)
	if observer == nil {
		return ctx, &requestObserver{}
	}

	ctx, span := observer.StartSpan(ctx, spanName,
		observability.String(observability.AttrLLMModel, model),
	)
	ctx = observability.ContextWithSpan(ctx, span)

	observer.Debug(ctx, "llm request",
		observability.String(observability.AttrLLMModel, model),
		observability.Int(observability.AttrRequestMessagesCount, messageCount),
	)

	return ctx, &requestObserver{
		observer: observer,
		span:     span,
		timer:    utils.NewTimer(),
		model:    model,
	}
}

// retry records one failed attempt that is about to be retried.
func (o *requestObserver) retry(ctx context.Context, attempt int, backoff time.Duration, err error) {
	if o.observer == nil {
		return
	}

	o.span.AddEvent(observability.EventLLMRequestRetry,
		observability.Int(observability.AttrRetryAttempt, attempt),
		observability.Duration(observability.AttrRetryBackoff, backoff),
		observability.Error(err),
	)

	o.observer.Counter(observability.MetricClientRetryCount).Add(ctx, 1,
		observability.String(observability.AttrLLMModel, o.model),
	)

	o.observer.Warn(ctx, "llm request retrying",
		observability.String(observability.AttrLLMModel, o.model),
		observability.Int(observability.AttrRetryAttempt, attempt),
		observability.Duration(observability.AttrRetryBackoff, backoff),
		observability.Error(err),
	)
}

// fail closes the span on the error path.
func (o *requestObserver) fail(ctx context.Context, err error) {
	if o.observer == nil {
		return
	}
	o.timer.Stop()

	o.span.RecordError(err)
	o.span.SetStatus(observability.StatusError, "llm request failed")
	o.span.End()

	o.observer.Error(ctx, "llm request failed",
		observability.Error(err),
		observability.Duration(observability.AttrDuration, o.timer.GetDuration()),
		observability.String(observability.AttrLLMModel, o.model),
	)

	o.observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, "error"),
		observability.String(observability.AttrLLMModel, o.model),
	)
}

// streamStarted closes the span once the stream is handed to the caller.
// The recorded duration is time to first byte; the stream itself reports
// aggregation through the span it captured at construction.
func (o *requestObserver) streamStarted(ctx context.Context) {
	if o.observer == nil {
		return
	}
	o.timer.Stop()
	elapsed := o.timer.GetDuration()

	o.observer.Histogram(observability.MetricClientRequestDuration).Record(ctx, elapsed.Seconds(),
		observability.String(observability.AttrLLMModel, o.model),
	)
	o.observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, "success"),
		observability.String(observability.AttrLLMModel, o.model),
	)

	o.observer.Info(ctx, "llm stream started",
		observability.String(observability.AttrLLMModel, o.model),
		observability.Duration(observability.AttrDuration, elapsed),
	)

	o.span.SetStatus(observability.StatusOK, "stream started")
	o.span.End()
}

// complete closes the span on a successful terminal response and records
// the completion's usage.
func (o *requestObserver) complete(ctx context.Context, completion *ai.Completion) {
	if o.observer == nil {
		return
	}
	o.timer.Stop()
	elapsed := o.timer.GetDuration()

	o.observer.Histogram(observability.MetricClientRequestDuration).Record(ctx, elapsed.Seconds(),
		observability.String(observability.AttrLLMModel, o.model),
	)
	o.observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, "success"),
		observability.String(observability.AttrLLMModel, o.model),
	)
	o.observer.Counter(observability.MetricClientTokensPrompt).Add(ctx, int64(completion.Usage.InputTokens),
		observability.String(observability.AttrLLMModel, o.model),
	)
	o.observer.Counter(observability.MetricClientTokensCompletion).Add(ctx, int64(completion.Usage.OutputTokens),
		observability.String(observability.AttrLLMModel, o.model),
	)
	o.observer.Counter(observability.MetricClientTokensTotal).Add(ctx, int64(completion.Usage.TotalTokens()),
		observability.String(observability.AttrLLMModel, o.model),
	)

	o.span.SetAttributes(
		observability.Int(observability.AttrLLMTokensPrompt, completion.Usage.InputTokens),
		observability.Int(observability.AttrLLMTokensCompletion, completion.Usage.OutputTokens),
		observability.String(observability.AttrLLMFinishReason, string(completion.FinishReason)),
	)

	logAttrs := []observability.Attribute{
		observability.String(observability.AttrLLMModel, o.model),
		observability.String(observability.AttrLLMFinishReason, string(completion.FinishReason)),
		observability.Duration(observability.AttrDuration, elapsed),
		observability.Int(observability.AttrLLMTokensPrompt, completion.Usage.InputTokens),
		observability.Int(observability.AttrLLMTokensCompletion, completion.Usage.OutputTokens),
	}
	if len(completion.ToolCalls) > 0 {
		logAttrs = append(logAttrs,
			observability.Int(observability.AttrResponseToolCalls, len(completion.ToolCalls)),
		)
	}
	if completion.Content != "" {
		logAttrs = append(logAttrs,
			observability.String(observability.AttrResponseContent, observability.TruncateString(completion.Content, 100)),
		)
	}
	o.observer.Info(ctx, "llm request completed", logAttrs...)

	o.span.SetStatus(observability.StatusOK, "success")
	o.span.End()
}
