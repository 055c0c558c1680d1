package client

import (
	"context"

	"github.com/unillm/unillm/providers/ai"
	"github.com/unillm/unillm/providers/observability"
)

// Request is a completion request under construction. Chain the option
// setters and finish with [Request.Send] (streaming) or
// [Request.SendComplete] (non-streaming):
//
//	stream, err := c.Stream("anthropic/claude-3-5-haiku-20241022", messages).
//	    MaxTokens(1024).
//	    Temperature(0.2).
//	    Send(ctx)
//
// A Request is single-use and not safe for concurrent use.
type Request struct {
	client    *Client
	model     string
	messages  []ai.Message
	config    ai.RequestConfig
	streaming bool
}

// MaxTokens sets the maximum number of tokens to generate.
func (r *Request) MaxTokens(tokens int) *Request {
	r.config.MaxTokens = tokens
	return r
}

// Temperature sets the sampling temperature.
func (r *Request) Temperature(temperature float64) *Request {
	r.config.Temperature = &temperature
	return r
}

// TopP sets the nucleus sampling cutoff.
func (r *Request) TopP(p float64) *Request {
	r.config.TopP = &p
	return r
}

// Stop sets the stop sequences.
func (r *Request) Stop(sequences ...string) *Request {
	r.config.Stop = sequences
	return r
}

// Tools sets the tools the model may call.
func (r *Request) Tools(tools ...ai.Tool) *Request {
	r.config.Tools = tools
	return r
}

// ToolChoice constrains how the model may use the tools.
func (r *Request) ToolChoice(choice ai.ToolChoice) *Request {
	r.config.ToolChoice = choice
	return r
}

// System sets the system prompt applied when the messages carry none.
func (r *Request) System(system string) *Request {
	r.config.System = system
	return r
}

// Extra adds provider-specific body fields, merged over the built request
// body on key collision. The escape hatch for parameters the neutral
// config does not model.
func (r *Request) Extra(extra map[string]any) *Request {
	r.config.Extra = extra
	return r
}

// Send executes a streaming request and hands back the open stream. The
// caller must drain or close it. The context bounds every retry attempt
// and the stream reads that follow.
//
// The request span ends when the stream is handed off; the stream reports
// its own completion as an event on the same span.
func (r *Request) Send(ctx context.Context) (*ai.CompletionStream, error) {
	if !r.streaming {
		return nil, ai.NewConfigError("use SendComplete for non-streaming requests")
	}

	ctx, obs := startObservation(ctx, observability.SpanClientStream, r.model, len(r.messages))

	resolved, err := r.resolve()
	if err != nil {
		obs.fail(ctx, err)
		return nil, err
	}

	body, err := resolved.provider.BuildStreamBody(resolved.model, r.messages, &r.config)
	if err != nil {
		obs.fail(ctx, err)
		return nil, err
	}

	stream, err := r.client.executeStream(ctx, resolved, body, obs)
	if err != nil {
		obs.fail(ctx, err)
		return nil, err
	}

	obs.streamStarted(ctx)
	return stream, nil
}

// SendComplete executes a non-streaming request and returns the parsed
// completion. It works on requests built with either [Client.Stream] or
// [Client.Complete]; the request body is built for the terminal endpoint
// regardless.
func (r *Request) SendComplete(ctx context.Context) (*ai.Completion, error) {
	ctx, obs := startObservation(ctx, observability.SpanClientComplete, r.model, len(r.messages))

	resolved, err := r.resolve()
	if err != nil {
		obs.fail(ctx, err)
		return nil, err
	}

	body, err := resolved.provider.BuildTerminalBody(resolved.model, r.messages, &r.config)
	if err != nil {
		obs.fail(ctx, err)
		return nil, err
	}

	completion, err := r.client.executeTerminal(ctx, resolved, body, obs)
	if err != nil {
		obs.fail(ctx, err)
		return nil, err
	}

	obs.complete(ctx, completion)
	return completion, nil
}

// resolvedRequest is a request bound to its adapter, credentials, and
// endpoint base.
type resolvedRequest struct {
	provider ai.Provider
	model    string
	apiKey   string
	baseURL  string
}

// resolve parses the model identifier and binds the request to its
// provider adapter, API key, and base URL.
func (r *Request) resolve() (resolvedRequest, error) {
	id, err := ai.ParseModelID(r.model)
	if err != nil {
		return resolvedRequest{}, err
	}

	name := canonicalProvider(id.Provider)
	provider := providerFor(name)
	if provider == nil {
		return resolvedRequest{}, ai.NewInvalidModelError("unknown provider: " + id.Provider)
	}

	apiKey := r.client.apiKeys[name]
	if apiKey == "" {
		return resolvedRequest{}, ai.NewMissingAPIKeyError(name)
	}

	baseURL := provider.DefaultBaseURL()
	if override, ok := r.client.baseURLs[name]; ok {
		baseURL = override
	}

	return resolvedRequest{
		provider: provider,
		model:    id.Model,
		apiKey:   apiKey,
		baseURL:  baseURL,
	}, nil
}
