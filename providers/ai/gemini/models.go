package gemini

import (
	"encoding/json"

	"github.com/unillm/unillm/providers/ai"
)

/*
	GENERATECONTENT API - RESPONSE TYPES
*/

// generateContentResponse is both the terminal body and the per-event
// stream payload; streaming events are partial snapshots of the same shape.
type generateContentResponse struct {
	Candidates    []candidate    `json:"candidates"`
	UsageMetadata *usageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

type candidate struct {
	Content      *candidateContent `json:"content,omitempty"`
	FinishReason string            `json:"finishReason,omitempty"`
}

type candidateContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []responsePart `json:"parts"`
}

// responsePart is one output part: generated text or a function call with
// its arguments as a JSON object.
type responsePart struct {
	Text         string        `json:"text,omitempty"`
	FunctionCall *functionCall `json:"functionCall,omitempty"`
}

type functionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type usageMetadata struct {
	PromptTokenCount        int `json:"promptTokenCount"`
	CandidatesTokenCount    int `json:"candidatesTokenCount"`
	TotalTokenCount         int `json:"totalTokenCount"`
	CachedContentTokenCount int `json:"cachedContentTokenCount"`
}

func (u *usageMetadata) toUsage() ai.Usage {
	return ai.Usage{
		InputTokens:          u.PromptTokenCount,
		OutputTokens:         u.CandidatesTokenCount,
		CacheReadInputTokens: u.CachedContentTokenCount,
	}
}
