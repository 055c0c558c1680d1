package client

import (
	"net/http"

	"github.com/unillm/unillm/providers/ai"
	"github.com/unillm/unillm/providers/ai/anthropic"
	"github.com/unillm/unillm/providers/ai/cerebras"
	"github.com/unillm/unillm/providers/ai/gemini"
	"github.com/unillm/unillm/providers/ai/openai"
)

// Client issues completion requests against any registered provider,
// selected per request by the "provider/model" identifier. It owns the
// HTTP transport, the retry policy, and error classification; the
// provider adapters only translate wire formats.
//
// A Client is immutable after [Builder.Build] and safe for concurrent use.
type Client struct {
	http     *http.Client
	apiKeys  map[string]string
	baseURLs map[string]string
	config   Config
}

// FromEnv builds a client configured entirely from the environment.
// Shorthand for NewBuilder().FromEnv().Build().
func FromEnv() (*Client, error) {
	return NewBuilder().FromEnv().Build()
}

// Stream starts building a streaming request. The returned request is
// sent with [Request.Send].
func (c *Client) Stream(model string, messages []ai.Message) *Request {
	return &Request{
		client:    c,
		model:     model,
		messages:  messages,
		streaming: true,
	}
}

// Complete starts building a non-streaming request. The returned request
// is sent with [Request.SendComplete].
func (c *Client) Complete(model string, messages []ai.Message) *Request {
	return &Request{
		client:   c,
		model:    model,
		messages: messages,
	}
}

// canonicalProvider folds legacy provider spellings into the canonical
// name. "claude" predates the "anthropic" naming and stays accepted in
// model identifiers, builder keys, and pricing lookups.
func canonicalProvider(name string) string {
	if name == "claude" {
		return "anthropic"
	}
	return name
}

// providerFor returns the adapter for a canonical provider name, or nil
// for an unknown one. Adapters are stateless, so a fresh value per call
// is free.
func providerFor(name string) ai.Provider {
	switch name {
	case "cerebras":
		return cerebras.New()
	case "openai":
		return openai.New()
	case "anthropic":
		return anthropic.New()
	case "gemini":
		return gemini.New()
	default:
		return nil
	}
}
