// Package utils provides shared low-level helpers used throughout the unillm
// internals: HTTP POST helpers for synchronous and streaming (SSE) exchanges
// with LLM provider APIs, resilient string-to-type parsing, a generic pointer
// helper, and a simple elapsed-time timer.
//
// Key entry points: [DoPost] for synchronous JSON round-trips, [DoPostStream]
// for requests whose body is consumed as a Server-Sent Events stream,
// [ParseStringAs] for decoding model-produced JSON, [Ptr] for taking the
// address of a literal, and [Timer] for measuring latency.
package utils
