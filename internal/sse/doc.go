// Package sse implements an incremental parser for Server-Sent Events byte
// streams. Bytes arrive in arbitrary slices via [Parser.Feed]; complete
// events are pulled with [Parser.Next], which reports not-ready until a
// terminating blank line has been seen. The parser handles CRLF and LF line
// endings, multi-line data fields, comment lines, and compacts its internal
// buffer so long-lived streams stay bounded in memory.
//
// The parser is payload-agnostic: sentinel values such as [DONE] are the
// caller's concern.
package sse
