// Package slogobs implements observability.Provider on top of the standard
// library's log/slog: spans become paired start/end log records, metrics are
// kept in memory, and log events pass straight through to the handler.
//
// Construct one with [New] and attach it to a request context via
// observability.ContextWithObserver. Output format and level come from
// UNILLM_LOG_FORMAT / UNILLM_LOG_LEVEL by default and can be overridden with
// [WithFormat], [WithLevel], [WithOutput], [WithColors], or [WithLogger].
package slogobs
