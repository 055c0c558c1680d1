// Package client provides the unified entry point for completion requests
// across providers. One [Client] serves every registered provider; the
// request's "provider/model" identifier picks the adapter, and the same
// builder, retry policy, and error taxonomy apply regardless of vendor.
//
// Construction goes through [Builder] (or [FromEnv] for pure environment
// configuration), requests through [Client.Stream] and [Client.Complete].
// Requests are built fluently and sent with [Request.Send] or
// [Request.SendComplete].
//
// Retries cover rate limits, 5xx responses, and connection timeouts with
// exponential backoff and jitter; a Retry-After header takes precedence
// over the computed backoff. Everything else fails fast with a classified
// error from the providers/ai taxonomy.
package client
