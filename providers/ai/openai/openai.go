package openai

import (
	"encoding/json"
	"fmt"

	"github.com/unillm/unillm/internal/utils"
	"github.com/unillm/unillm/providers/ai"
)

const (
	// defaultBaseURL is the OpenAI API host. The versioned path lives in
	// responsesEndpoint because other deployments mount it elsewhere.
	defaultBaseURL = "https://api.openai.com"

	// responsesEndpoint serves both streaming and terminal requests.
	responsesEndpoint = "/v1/responses"
)

// OpenAIProvider speaks the OpenAI Responses API, the successor to chat
// completions. Instead of a messages array it takes an `input` list plus
// top-level `instructions`, and its stream is a sequence of named events
// rather than uniform deltas.
type OpenAIProvider struct{}

// New returns a ready-to-use [OpenAIProvider].
func New() *OpenAIProvider {
	return &OpenAIProvider{}
}

// Name implements [ai.Provider].
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// DefaultBaseURL implements [ai.Provider].
func (p *OpenAIProvider) DefaultBaseURL() string {
	return defaultBaseURL
}

// Headers implements [ai.Provider].
func (p *OpenAIProvider) Headers(apiKey string) []utils.HeaderOption {
	return []utils.HeaderOption{
		{Key: "Authorization", Value: "Bearer " + apiKey},
	}
}

// StreamURL implements [ai.Provider].
func (p *OpenAIProvider) StreamURL(baseURL, model, apiKey string) string {
	return baseURL + responsesEndpoint
}

// TerminalURL implements [ai.Provider].
func (p *OpenAIProvider) TerminalURL(baseURL, model, apiKey string) string {
	return baseURL + responsesEndpoint
}

// BuildStreamBody implements [ai.Provider].
func (p *OpenAIProvider) BuildStreamBody(model string, messages []ai.Message, cfg *ai.RequestConfig) (map[string]any, error) {
	body := p.buildBody(model, messages, cfg)
	body["stream"] = true
	return mergeExtra(body, cfg), nil
}

// BuildTerminalBody implements [ai.Provider].
func (p *OpenAIProvider) BuildTerminalBody(model string, messages []ai.Message, cfg *ai.RequestConfig) (map[string]any, error) {
	body := p.buildBody(model, messages, cfg)
	body["stream"] = false
	return mergeExtra(body, cfg), nil
}

// buildBody assembles the shared request shape. The system prompt does not
// travel in `input`: the Responses API wants it as top-level `instructions`,
// so the first system message is hoisted out and the rest of the
// conversation is converted as-is.
func (p *OpenAIProvider) buildBody(model string, messages []ai.Message, cfg *ai.RequestConfig) map[string]any {
	body := map[string]any{
		"model": model,
		"input": encodeInput(messages),
	}

	if instructions := systemInstructions(messages, cfg); instructions != "" {
		body["instructions"] = instructions
	}

	if cfg != nil {
		if cfg.MaxTokens > 0 {
			body["max_output_tokens"] = cfg.MaxTokens
		}
		if cfg.Temperature != nil {
			body["temperature"] = *cfg.Temperature
		}
		if cfg.TopP != nil {
			body["top_p"] = *cfg.TopP
		}
		if len(cfg.Tools) > 0 {
			body["tools"] = encodeTools(cfg.Tools)
		}
		if cfg.ToolChoice != "" {
			body["tool_choice"] = encodeToolChoice(cfg.ToolChoice)
		}
	}

	return body
}

func mergeExtra(body map[string]any, cfg *ai.RequestConfig) map[string]any {
	if cfg != nil {
		for key, value := range cfg.Extra {
			body[key] = value
		}
	}
	return body
}

// systemInstructions resolves the `instructions` field: the first system
// message's text wins, then the configured system prompt.
func systemInstructions(messages []ai.Message, cfg *ai.RequestConfig) string {
	for _, msg := range messages {
		if msg.Role != ai.RoleSystem {
			continue
		}
		if msg.Content != "" {
			return msg.Content
		}
		break
	}
	if cfg != nil {
		return cfg.System
	}
	return ""
}

// encodeInput converts the conversation into Responses API input items,
// dropping system messages that were hoisted into `instructions`.
func encodeInput(messages []ai.Message) []map[string]any {
	input := make([]map[string]any, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == ai.RoleSystem {
			continue
		}
		item := map[string]any{"role": string(msg.Role)}
		if len(msg.Parts) > 0 {
			item["content"] = encodeParts(msg.Parts)
		} else {
			item["content"] = msg.Content
		}
		input = append(input, item)
	}
	return input
}

func encodeParts(parts []ai.ContentPart) []map[string]any {
	encoded := make([]map[string]any, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case ai.ContentPartText:
			encoded = append(encoded, map[string]any{
				"type": "text",
				"text": part.Text,
			})
		case ai.ContentPartImage:
			if part.ImageURL == nil {
				continue
			}
			image := map[string]any{"url": part.ImageURL.URL}
			if part.ImageURL.Detail != "" {
				image["detail"] = part.ImageURL.Detail
			}
			encoded = append(encoded, map[string]any{
				"type":      "image_url",
				"image_url": image,
			})
		}
	}
	return encoded
}

// encodeTools produces the FLAT Responses tool shape. Unlike chat
// completions there is no nested function object.
func encodeTools(tools []ai.Tool) []map[string]any {
	encoded := make([]map[string]any, 0, len(tools))
	for _, tool := range tools {
		entry := map[string]any{
			"type": "function",
			"name": tool.Function.Name,
		}
		if tool.Function.Description != "" {
			entry["description"] = tool.Function.Description
		}
		if len(tool.Function.Parameters) > 0 {
			entry["parameters"] = tool.Function.Parameters
		}
		encoded = append(encoded, entry)
	}
	return encoded
}

// encodeToolChoice passes the auto/none/required keywords through and wraps
// anything else as a flat specific-function selector.
func encodeToolChoice(choice ai.ToolChoice) any {
	switch choice {
	case ai.ToolChoiceAuto, ai.ToolChoiceNone, ai.ToolChoiceRequired:
		return string(choice)
	default:
		return map[string]any{
			"type": "function",
			"name": string(choice),
		}
	}
}

// NewDecoder implements [ai.Provider].
func (p *OpenAIProvider) NewDecoder() ai.EventDecoder {
	return &streamDecoder{}
}

// ParseTerminal implements [ai.Provider]. Text is concatenated across all
// output_text parts of message items; function_call items become tool calls.
func (p *OpenAIProvider) ParseTerminal(body []byte) (*ai.Completion, error) {
	var resp responsesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, ai.NewParseError(fmt.Sprintf("failed to decode responses body: %v", err))
	}

	completion := &ai.Completion{Model: resp.Model}

	for _, item := range resp.Output {
		switch item.Type {
		case "message":
			for _, content := range item.Content {
				if content.Type == "output_text" {
					completion.Content += content.Text
				}
			}
		case "function_call":
			id := item.CallID
			if id == "" {
				id = item.ID
			}
			completion.ToolCalls = append(completion.ToolCalls, ai.ToolCall{
				ID:   id,
				Type: "function",
				Function: ai.FunctionCall{
					Name:      item.Name,
					Arguments: item.Arguments,
				},
			})
		}
	}

	if len(completion.ToolCalls) > 0 {
		completion.FinishReason = ai.FinishReasonToolCalls
	} else {
		completion.FinishReason = mapStatus(resp.Status)
	}

	if resp.Usage != nil {
		completion.Usage = resp.Usage.toUsage()
	}

	return completion, nil
}

// mapStatus converts a terminal response status into a finish reason.
func mapStatus(status string) ai.FinishReason {
	switch status {
	case "completed":
		return ai.FinishReasonStop
	case "incomplete":
		return ai.FinishReasonLength
	default:
		return ai.FinishReasonUnknown
	}
}
