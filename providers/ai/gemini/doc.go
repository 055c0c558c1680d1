// Package gemini implements [ai.Provider] for the Google Gemini
// generateContent API. Endpoints embed the model name and select the mode:
// :generateContent returns one body, :streamGenerateContent?alt=sse streams
// partial snapshots of the same shape. Auth is the x-goog-api-key header or
// an opt-in ?key= query parameter. Streams carry cumulative usage on every
// event and end on connection close without a sentinel.
package gemini
