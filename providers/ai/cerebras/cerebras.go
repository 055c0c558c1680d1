package cerebras

import (
	"encoding/json"
	"fmt"

	"github.com/unillm/unillm/internal/utils"
	"github.com/unillm/unillm/providers/ai"
)

const (
	// defaultBaseURL is the canonical base URL for Cerebras' OpenAI-compatible API.
	defaultBaseURL = "https://api.cerebras.ai/v1"

	// completionsEndpoint is the path for the chat completions endpoint,
	// used for both streaming and terminal requests.
	completionsEndpoint = "/chat/completions"
)

// CerebrasProvider implements [ai.Provider] for Cerebras' OpenAI-compatible
// chat completions API. It is stateless; the client supplies the API key and
// base URL on every call.
type CerebrasProvider struct{}

// New returns a ready-to-use [CerebrasProvider].
func New() *CerebrasProvider {
	return &CerebrasProvider{}
}

// Name implements [ai.Provider].
func (p *CerebrasProvider) Name() string {
	return "cerebras"
}

// DefaultBaseURL implements [ai.Provider].
func (p *CerebrasProvider) DefaultBaseURL() string {
	return defaultBaseURL
}

// Headers implements [ai.Provider]. Cerebras authenticates with a standard
// Bearer token.
func (p *CerebrasProvider) Headers(apiKey string) []utils.HeaderOption {
	return []utils.HeaderOption{
		{Key: "Authorization", Value: "Bearer " + apiKey},
	}
}

// StreamURL implements [ai.Provider]. Streaming and terminal requests share
// the chat completions endpoint; the body's stream flag selects the mode.
func (p *CerebrasProvider) StreamURL(baseURL, model, apiKey string) string {
	return baseURL + completionsEndpoint
}

// TerminalURL implements [ai.Provider].
func (p *CerebrasProvider) TerminalURL(baseURL, model, apiKey string) string {
	return baseURL + completionsEndpoint
}

// BuildStreamBody implements [ai.Provider]. Streaming bodies additionally
// request the final usage event via stream_options.include_usage.
func (p *CerebrasProvider) BuildStreamBody(model string, messages []ai.Message, cfg *ai.RequestConfig) (map[string]any, error) {
	return p.buildBody(model, messages, cfg, true)
}

// BuildTerminalBody implements [ai.Provider].
func (p *CerebrasProvider) BuildTerminalBody(model string, messages []ai.Message, cfg *ai.RequestConfig) (map[string]any, error) {
	return p.buildBody(model, messages, cfg, false)
}

func (p *CerebrasProvider) buildBody(model string, messages []ai.Message, cfg *ai.RequestConfig, stream bool) (map[string]any, error) {
	body := map[string]any{
		"model":    model,
		"messages": encodeMessages(messages, cfg),
	}

	if cfg != nil {
		if cfg.MaxTokens > 0 {
			body["max_tokens"] = cfg.MaxTokens
		}
		if cfg.Temperature != nil {
			body["temperature"] = *cfg.Temperature
		}
		if cfg.TopP != nil {
			body["top_p"] = *cfg.TopP
		}
		if len(cfg.Stop) > 0 {
			body["stop"] = cfg.Stop
		}
		if len(cfg.Tools) > 0 {
			body["tools"] = encodeTools(cfg.Tools)
		}
		if cfg.ToolChoice != "" {
			body["tool_choice"] = encodeToolChoice(cfg.ToolChoice)
		}
	}

	if stream {
		body["stream"] = true
		body["stream_options"] = map[string]any{"include_usage": true}
	} else {
		body["stream"] = false
	}

	if cfg != nil {
		for key, value := range cfg.Extra {
			body[key] = value
		}
	}

	return body, nil
}

// encodeMessages converts neutral messages to the OpenAI message shape. A
// configured system prompt is prepended only when the conversation carries no
// system message of its own, so an explicit message always wins.
func encodeMessages(messages []ai.Message, cfg *ai.RequestConfig) []map[string]any {
	encoded := make([]map[string]any, 0, len(messages)+1)

	if cfg != nil && cfg.System != "" && !hasSystemMessage(messages) {
		encoded = append(encoded, map[string]any{
			"role":    "system",
			"content": cfg.System,
		})
	}

	for _, msg := range messages {
		encoded = append(encoded, encodeMessage(msg))
	}

	return encoded
}

func hasSystemMessage(messages []ai.Message) bool {
	for _, msg := range messages {
		if msg.Role == ai.RoleSystem {
			return true
		}
	}
	return false
}

func encodeMessage(msg ai.Message) map[string]any {
	encoded := map[string]any{
		"role": string(msg.Role),
	}

	if len(msg.Parts) > 0 {
		encoded["content"] = encodeParts(msg.Parts)
	} else {
		encoded["content"] = msg.Content
	}

	if msg.Name != "" {
		encoded["name"] = msg.Name
	}
	if msg.ToolCallID != "" {
		encoded["tool_call_id"] = msg.ToolCallID
	}
	if len(msg.ToolCalls) > 0 {
		toolCalls := make([]map[string]any, 0, len(msg.ToolCalls))
		for _, call := range msg.ToolCalls {
			toolCalls = append(toolCalls, map[string]any{
				"id":   call.ID,
				"type": "function",
				"function": map[string]any{
					"name":      call.Function.Name,
					"arguments": call.Function.Arguments,
				},
			})
		}
		encoded["tool_calls"] = toolCalls
	}

	return encoded
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

// encodeTools produces the nested OpenAI tool shape
// {type:function, function:{name, description, parameters}}.
func encodeTools(tools []ai.Tool) []map[string]any {
	encoded := make([]map[string]any, 0, len(tools))
	for _, tool := range tools {
		function := map[string]any{"name": tool.Function.Name}
		if tool.Function.Description != "" {
			function["description"] = tool.Function.Description
		}
		if len(tool.Function.Parameters) > 0 {
			function["parameters"] = tool.Function.Parameters
		}
		encoded = append(encoded, map[string]any{
			"type":     "function",
			"function": function,
		})
	}
	return encoded
}

// encodeToolChoice maps the neutral tool choice to the OpenAI form: the
// mode keywords pass through as strings, anything else is a specific
// function selector.
func encodeToolChoice(choice ai.ToolChoice) any {
	switch choice {
	case ai.ToolChoiceAuto, ai.ToolChoiceNone, ai.ToolChoiceRequired:
		return string(choice)
	default:
		return map[string]any{
			"type":     "function",
			"function": map[string]any{"name": string(choice)},
		}
	}
}

// NewDecoder implements [ai.Provider].
func (p *CerebrasProvider) NewDecoder() ai.EventDecoder {
	return &streamDecoder{}
}

// ParseTerminal implements [ai.Provider] for non-streaming responses.
func (p *CerebrasProvider) ParseTerminal(body []byte) (*ai.Completion, error) {
	var response chatCompletionResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, ai.NewParseError(fmt.Sprintf("failed to decode chat completion: %v", err))
	}
	if len(response.Choices) == 0 {
		return nil, ai.NewParseError("chat completion has no choices")
	}

	choice := response.Choices[0]
	completion := &ai.Completion{
		Content:      choice.Message.Content,
		Model:        response.Model,
		FinishReason: mapFinishReason(choice.FinishReason),
	}
	if response.Usage != nil {
		completion.Usage = response.Usage.toUsage()
	}
	for _, call := range choice.Message.ToolCalls {
		completion.ToolCalls = append(completion.ToolCalls, ai.ToolCall{
			ID:   call.ID,
			Type: "function",
			Function: ai.FunctionCall{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}

	return completion, nil
}

// mapFinishReason converts an OpenAI finish_reason value to the canonical
// [ai.FinishReason].
func mapFinishReason(reason string) ai.FinishReason {
	switch reason {
	case "stop":
		return ai.FinishReasonStop
	case "length":
		return ai.FinishReasonLength
	case "tool_calls":
		return ai.FinishReasonToolCalls
	case "content_filter":
		return ai.FinishReasonContentFilter
	default:
		return ai.FinishReasonUnknown
	}
}
