package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/unillm/unillm/internal/utils"
	"github.com/unillm/unillm/providers/ai"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	messagesEndpoint = "/v1/messages"

	// anthropicVersion pins the Messages API revision. Every request must
	// send it or the API rejects the call.
	anthropicVersion = "2023-06-01"

	// defaultMaxTokens is used when the caller does not set a limit.
	// Anthropic requires max_tokens on every request.
	defaultMaxTokens = 4096
)

// AnthropicProvider speaks the Anthropic Messages API. It differs from the
// OpenAI family in several ways: auth is an x-api-key header, the system
// prompt is a top-level field, max_tokens is mandatory, and tool results
// travel as user-role tool_result content blocks.
type AnthropicProvider struct{}

// New returns a ready-to-use [AnthropicProvider].
func New() *AnthropicProvider {
	return &AnthropicProvider{}
}

// Name implements [ai.Provider].
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// DefaultBaseURL implements [ai.Provider].
func (p *AnthropicProvider) DefaultBaseURL() string {
	return defaultBaseURL
}

// Headers implements [ai.Provider].
func (p *AnthropicProvider) Headers(apiKey string) []utils.HeaderOption {
	return []utils.HeaderOption{
		{Key: "x-api-key", Value: apiKey},
		{Key: "anthropic-version", Value: anthropicVersion},
	}
}

// StreamURL implements [ai.Provider].
func (p *AnthropicProvider) StreamURL(baseURL, model, apiKey string) string {
	return baseURL + messagesEndpoint
}

// TerminalURL implements [ai.Provider].
func (p *AnthropicProvider) TerminalURL(baseURL, model, apiKey string) string {
	return baseURL + messagesEndpoint
}

// BuildStreamBody implements [ai.Provider].
func (p *AnthropicProvider) BuildStreamBody(model string, messages []ai.Message, cfg *ai.RequestConfig) (map[string]any, error) {
	return p.buildBody(model, messages, cfg, true)
}

// BuildTerminalBody implements [ai.Provider].
func (p *AnthropicProvider) BuildTerminalBody(model string, messages []ai.Message, cfg *ai.RequestConfig) (map[string]any, error) {
	return p.buildBody(model, messages, cfg, false)
}

func (p *AnthropicProvider) buildBody(model string, messages []ai.Message, cfg *ai.RequestConfig, stream bool) (map[string]any, error) {
	maxTokens := defaultMaxTokens
	if cfg != nil && cfg.MaxTokens > 0 {
		maxTokens = cfg.MaxTokens
	}

	body := map[string]any{
		"model":      model,
		"messages":   encodeMessages(messages),
		"max_tokens": maxTokens,
	}

	if system := systemPrompt(messages, cfg); system != "" {
		body["system"] = system
	}

	if cfg != nil {
		if cfg.Temperature != nil {
			body["temperature"] = *cfg.Temperature
		}
		if cfg.TopP != nil {
			body["top_p"] = *cfg.TopP
		}
		if len(cfg.Stop) > 0 {
			body["stop_sequences"] = cfg.Stop
		}
		if len(cfg.Tools) > 0 {
			body["tools"] = encodeTools(cfg.Tools)
		}
		if cfg.ToolChoice != "" {
			body["tool_choice"] = encodeToolChoice(cfg.ToolChoice)
		}
	}

	body["stream"] = stream

	if cfg != nil {
		for key, value := range cfg.Extra {
			body[key] = value
		}
	}

	return body, nil
}

// systemPrompt resolves the top-level system field: the first system
// message's text wins, then the configured system prompt.
func systemPrompt(messages []ai.Message, cfg *ai.RequestConfig) string {
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

// encodeMessages converts the conversation into Anthropic message objects.
// System messages are hoisted into the top-level system field and skipped
// here. Anthropic requires alternating user/assistant turns, so consecutive
// tool results (as produced by parallel tool calls) are folded into a single
// user message with multiple tool_result blocks.
func encodeMessages(messages []ai.Message) []map[string]any {
	encoded := make([]map[string]any, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleSystem:
			continue

		case ai.RoleAssistant:
			encoded = append(encoded, encodeAssistantMessage(msg))

		case ai.RoleTool:
			block := map[string]any{
				"type":        "tool_result",
				"tool_use_id": msg.ToolCallID,
				"content":     msg.Content,
			}
			if last := len(encoded) - 1; last >= 0 && isToolResultMessage(encoded[last]) {
				blocks := encoded[last]["content"].([]map[string]any)
				encoded[last]["content"] = append(blocks, block)
				continue
			}
			encoded = append(encoded, map[string]any{
				"role":    "user",
				"content": []map[string]any{block},
			})

		default:
			item := map[string]any{"role": "user"}
			if len(msg.Parts) > 0 {
				item["content"] = encodeParts(msg.Parts)
			} else {
				item["content"] = msg.Content
			}
			encoded = append(encoded, item)
		}
	}

	return encoded
}

// encodeAssistantMessage represents prior assistant turns. Tool calls the
// assistant made become tool_use blocks so the API can match subsequent
// tool_result blocks against them.
func encodeAssistantMessage(msg ai.Message) map[string]any {
	if len(msg.ToolCalls) == 0 && len(msg.Parts) == 0 {
		return map[string]any{"role": "assistant", "content": msg.Content}
	}

	var blocks []map[string]any
	if msg.Content != "" {
		blocks = append(blocks, map[string]any{"type": "text", "text": msg.Content})
	}
	if len(msg.Parts) > 0 {
		blocks = append(blocks, encodeParts(msg.Parts)...)
	}
	for _, call := range msg.ToolCalls {
		input := json.RawMessage(call.Function.Arguments)
		if len(input) == 0 {
			input = json.RawMessage("{}")
		}
		blocks = append(blocks, map[string]any{
			"type":  "tool_use",
			"id":    call.ID,
			"name":  call.Function.Name,
			"input": input,
		})
	}

	return map[string]any{"role": "assistant", "content": blocks}
}

// isToolResultMessage reports whether a previously encoded message is a
// user turn consisting only of tool_result blocks, and can therefore absorb
// another one.
func isToolResultMessage(msg map[string]any) bool {
	if msg["role"] != "user" {
		return false
	}
	blocks, ok := msg["content"].([]map[string]any)
	if !ok || len(blocks) == 0 {
		return false
	}
	for _, block := range blocks {
		if block["type"] != "tool_result" {
			return false
		}
	}
	return true
}

func encodeParts(parts []ai.ContentPart) []map[string]any {
	blocks := make([]map[string]any, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case ai.ContentPartText:
			blocks = append(blocks, map[string]any{"type": "text", "text": part.Text})
		case ai.ContentPartImage:
			if part.ImageURL == nil {
				continue
			}
			blocks = append(blocks, encodeImage(part.ImageURL.URL))
		}
	}
	return blocks
}

// encodeImage converts an image reference into an Anthropic image block.
// Inline data URIs are unpacked into the base64 source form; anything
// else is passed through as a URL source.
func encodeImage(url string) map[string]any {
	if rest, ok := strings.CutPrefix(url, "data:"); ok {
		if mediaType, data, found := strings.Cut(rest, ";base64,"); found {
			return map[string]any{
				"type": "image",
				"source": map[string]any{
					"type":       "base64",
					"media_type": mediaType,
					"data":       data,
				},
			}
		}
	}
	return map[string]any{
		"type": "image",
		"source": map[string]any{
			"type": "url",
			"url":  url,
		},
	}
}

// encodeTools produces Anthropic tool definitions. The schema field is
// named input_schema rather than parameters.
func encodeTools(tools []ai.Tool) []map[string]any {
	encoded := make([]map[string]any, 0, len(tools))
	for _, tool := range tools {
		entry := map[string]any{"name": tool.Function.Name}
		if tool.Function.Description != "" {
			entry["description"] = tool.Function.Description
		}
		if len(tool.Function.Parameters) > 0 {
			entry["input_schema"] = tool.Function.Parameters
		}
		encoded = append(encoded, entry)
	}
	return encoded
}

func encodeToolChoice(choice ai.ToolChoice) map[string]any {
	switch choice {
	case ai.ToolChoiceAuto:
		return map[string]any{"type": "auto"}
	case ai.ToolChoiceNone:
		return map[string]any{"type": "none"}
	case ai.ToolChoiceRequired:
		return map[string]any{"type": "any"}
	default:
		return map[string]any{"type": "tool", "name": string(choice)}
	}
}

// NewDecoder implements [ai.Provider].
func (p *AnthropicProvider) NewDecoder() ai.EventDecoder {
	return &streamDecoder{}
}

// ParseTerminal implements [ai.Provider]. Text blocks are concatenated and
// tool_use blocks become tool calls with their input re-serialized as an
// arguments string.
func (p *AnthropicProvider) ParseTerminal(body []byte) (*ai.Completion, error) {
	var resp messagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, ai.NewParseError(fmt.Sprintf("failed to decode messages body: %v", err))
	}

	completion := &ai.Completion{
		Model:        resp.Model,
		FinishReason: mapStopReason(resp.StopReason),
		Usage:        resp.Usage.toUsage(),
	}

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			completion.Content += block.Text
		case "tool_use":
			arguments := string(block.Input)
			if arguments == "" {
				arguments = "{}"
			}
			completion.ToolCalls = append(completion.ToolCalls, ai.ToolCall{
				ID:   block.ID,
				Type: "function",
				Function: ai.FunctionCall{
					Name:      block.Name,
					Arguments: arguments,
				},
			})
		}
	}

	return completion, nil
}

// mapStopReason converts an Anthropic stop_reason into a finish reason.
func mapStopReason(reason string) ai.FinishReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return ai.FinishReasonStop
	case "max_tokens":
		return ai.FinishReasonLength
	case "tool_use":
		return ai.FinishReasonToolCalls
	default:
		return ai.FinishReasonUnknown
	}
}
