package client

import (
	"net"
	"net/http"
	"os"
	"time"

	"github.com/unillm/unillm/providers/ai"
)

// Config holds the transport and retry tuning for a [Client].
type Config struct {
	// Timeout bounds connection establishment: dial, TLS handshake, and
	// the wait for the first response header each get this budget. It is
	// deliberately not an end-to-end deadline, so a long-lived stream is
	// never cut off mid-read. Zero disables the bounds.
	// Default: 120s.
	Timeout time.Duration

	// MaxRetries is the total number of attempts per request, including
	// the first one. A value of 3 means at most 3 POSTs.
	// Default: 3.
	MaxRetries int

	// RetryBackoff is the wait before the first retry. Subsequent waits
	// grow by BackoffMultiplier up to MaxBackoff. A 429 Retry-After header
	// replaces the current backoff.
	// Default: 500ms.
	RetryBackoff time.Duration

	// MaxBackoff caps the grown backoff.
	// Default: 30s.
	MaxBackoff time.Duration

	// BackoffMultiplier is the exponential growth factor applied after
	// each retry.
	// Default: 2.0.
	BackoffMultiplier float64
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:           120 * time.Second,
		MaxRetries:        3,
		RetryBackoff:      500 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// initialBackoff is the wait before the first retry. The cap applies here
// too, so RetryBackoff above MaxBackoff never produces a sleep above the
// configured ceiling.
func (c Config) initialBackoff() time.Duration {
	if c.RetryBackoff > c.MaxBackoff {
		return c.MaxBackoff
	}
	return c.RetryBackoff
}

// nextBackoff grows the backoff by the multiplier, capped at MaxBackoff.
func (c Config) nextBackoff(backoff time.Duration) time.Duration {
	next := time.Duration(float64(backoff) * c.BackoffMultiplier)
	if next > c.MaxBackoff {
		next = c.MaxBackoff
	}
	return next
}

// Builder assembles a [Client]. Chain the configuration calls and finish
// with [Builder.Build]:
//
//	c, err := client.NewBuilder().
//	    APIKey("anthropic", key).
//	    MaxRetries(5).
//	    Build()
type Builder struct {
	apiKeys  map[string]string
	baseURLs map[string]string
	config   Config
}

// NewBuilder returns a builder initialized with [DefaultConfig].
func NewBuilder() *Builder {
	return &Builder{
		apiKeys:  make(map[string]string),
		baseURLs: make(map[string]string),
		config:   DefaultConfig(),
	}
}

// APIKey registers the API key for a provider.
func (b *Builder) APIKey(provider, key string) *Builder {
	b.apiKeys[canonicalProvider(provider)] = key
	return b
}

// BaseURL overrides a provider's base URL, e.g. to point at a proxy or a
// mock server in tests.
func (b *Builder) BaseURL(provider, url string) *Builder {
	b.baseURLs[canonicalProvider(provider)] = url
	return b
}

// Timeout sets the connection-establishment budget. See [Config.Timeout].
func (b *Builder) Timeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// MaxRetries sets the total number of attempts per request.
func (b *Builder) MaxRetries(retries int) *Builder {
	b.config.MaxRetries = retries
	return b
}

// RetryBackoff sets the initial retry backoff.
func (b *Builder) RetryBackoff(backoff time.Duration) *Builder {
	b.config.RetryBackoff = backoff
	return b
}

// MaxBackoff caps the grown retry backoff.
func (b *Builder) MaxBackoff(backoff time.Duration) *Builder {
	b.config.MaxBackoff = backoff
	return b
}

// BackoffMultiplier sets the exponential backoff growth factor.
func (b *Builder) BackoffMultiplier(multiplier float64) *Builder {
	b.config.BackoffMultiplier = multiplier
	return b
}

// envProviders maps provider names to their environment variables.
var envProviders = []struct {
	name   string
	keyVar string
	urlVar string
}{
	{"cerebras", "CEREBRAS_API_KEY", "CEREBRAS_API_BASE_URL"},
	{"openai", "OPENAI_API_KEY", "OPENAI_API_BASE_URL"},
	{"anthropic", "ANTHROPIC_API_KEY", "ANTHROPIC_API_BASE_URL"},
	{"gemini", "GEMINI_API_KEY", "GEMINI_API_BASE_URL"},
}

// FromEnv loads API keys and base-URL overrides from the process
// environment: <PROVIDER>_API_KEY and <PROVIDER>_API_BASE_URL for
// cerebras, openai, anthropic, and gemini. Set variables overwrite keys
// registered earlier on the builder; unset ones are skipped.
func (b *Builder) FromEnv() *Builder {
	for _, p := range envProviders {
		if key := os.Getenv(p.keyVar); key != "" {
			b.apiKeys[p.name] = key
		}
		if url := os.Getenv(p.urlVar); url != "" {
			b.baseURLs[p.name] = url
		}
	}
	return b
}

// Build validates the configuration and returns the client. The client is
// read-only after Build and safe for concurrent use.
func (b *Builder) Build() (*Client, error) {
	if err := validate(b.config); err != nil {
		return nil, err
	}

	apiKeys := make(map[string]string, len(b.apiKeys))
	for provider, key := range b.apiKeys {
		apiKeys[provider] = key
	}
	baseURLs := make(map[string]string, len(b.baseURLs))
	for provider, url := range b.baseURLs {
		baseURLs[provider] = url
	}

	return &Client{
		http:     newHTTPClient(b.config),
		apiKeys:  apiKeys,
		baseURLs: baseURLs,
		config:   b.config,
	}, nil
}

func validate(config Config) error {
	if config.Timeout < 0 {
		return ai.NewConfigError("timeout must be non-negative")
	}
	if config.MaxRetries < 1 {
		return ai.NewConfigError("max retries must be at least 1")
	}
	if config.RetryBackoff < 0 {
		return ai.NewConfigError("retry backoff must be non-negative")
	}
	if config.MaxBackoff < 0 {
		return ai.NewConfigError("max backoff must be non-negative")
	}
	if config.BackoffMultiplier < 1 {
		return ai.NewConfigError("backoff multiplier must be at least 1")
	}
	return nil
}

// newHTTPClient builds the shared HTTP client. The timeout is applied to
// each connection phase rather than as http.Client.Timeout, which would
// also cover body reads and kill long streams.
func newHTTPClient(config Config) *http.Client {
	dialer := &net.Dialer{
		Timeout:   config.Timeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   config.Timeout,
		ResponseHeaderTimeout: config.Timeout,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{Transport: transport}
}
