package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/unillm/unillm/internal/utils"
	"github.com/unillm/unillm/providers/ai"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// defaultImageMIME is assumed for image URLs that are not data URIs,
	// matching the API's most common inline type.
	defaultImageMIME = "image/jpeg"
)

// GeminiProvider speaks the Google Gemini generateContent API. It is the
// odd one out among the providers: endpoints embed the model name, the
// request body is identical for streaming and terminal calls (the endpoint
// decides), generation parameters are camelCase under generationConfig, and
// streams end on connection close with no sentinel event.
type GeminiProvider struct {
	queryAuth bool
}

// New returns a ready-to-use [GeminiProvider] using header authentication.
func New() *GeminiProvider {
	return &GeminiProvider{}
}

// WithQueryAuth switches authentication from the x-goog-api-key header to
// the ?key= query parameter, which some proxies require.
func (p *GeminiProvider) WithQueryAuth() *GeminiProvider {
	p.queryAuth = true
	return p
}

// Name implements [ai.Provider].
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// DefaultBaseURL implements [ai.Provider].
func (p *GeminiProvider) DefaultBaseURL() string {
	return defaultBaseURL
}

// Headers implements [ai.Provider]. With query auth enabled the key travels
// in the URL instead and no auth header is sent.
func (p *GeminiProvider) Headers(apiKey string) []utils.HeaderOption {
	if p.queryAuth {
		return nil
	}
	return []utils.HeaderOption{
		{Key: "x-goog-api-key", Value: apiKey},
	}
}

// StreamURL implements [ai.Provider]. The alt=sse parameter switches the
// response from a JSON array to an SSE event stream.
func (p *GeminiProvider) StreamURL(baseURL, model, apiKey string) string {
	url := baseURL + "/models/" + model + ":streamGenerateContent?alt=sse"
	if p.queryAuth {
		url += "&key=" + apiKey
	}
	return url
}

// TerminalURL implements [ai.Provider].
func (p *GeminiProvider) TerminalURL(baseURL, model, apiKey string) string {
	url := baseURL + "/models/" + model + ":generateContent"
	if p.queryAuth {
		url += "?key=" + apiKey
	}
	return url
}

// BuildStreamBody implements [ai.Provider]. Gemini bodies carry no stream
// flag; the endpoint determines the response mode.
func (p *GeminiProvider) BuildStreamBody(model string, messages []ai.Message, cfg *ai.RequestConfig) (map[string]any, error) {
	return p.buildBody(messages, cfg), nil
}

// BuildTerminalBody implements [ai.Provider].
func (p *GeminiProvider) BuildTerminalBody(model string, messages []ai.Message, cfg *ai.RequestConfig) (map[string]any, error) {
	return p.buildBody(messages, cfg), nil
}

func (p *GeminiProvider) buildBody(messages []ai.Message, cfg *ai.RequestConfig) map[string]any {
	body := map[string]any{
		"contents": encodeContents(messages),
	}

	if system := systemInstruction(messages, cfg); system != "" {
		body["system_instruction"] = map[string]any{
			"parts": []map[string]any{{"text": system}},
		}
	}

	if cfg != nil {
		if generationConfig := encodeGenerationConfig(cfg); len(generationConfig) > 0 {
			body["generationConfig"] = generationConfig
		}
		if len(cfg.Tools) > 0 {
			body["tools"] = encodeTools(cfg.Tools)
		}
		if cfg.ToolChoice != "" {
			body["tool_config"] = encodeToolConfig(cfg.ToolChoice)
		}
		for key, value := range cfg.Extra {
			body[key] = value
		}
	}

	return body
}

// systemInstruction resolves the system_instruction text. Unlike the other
// providers the configured system prompt overrides a system message.
func systemInstruction(messages []ai.Message, cfg *ai.RequestConfig) string {
	if cfg != nil && cfg.System != "" {
		return cfg.System
	}
	for _, msg := range messages {
		if msg.Role == ai.RoleSystem {
			return msg.Content
		}
	}
	return ""
}

// encodeContents converts the conversation into Gemini content objects.
// System messages are hoisted into system_instruction and skipped here;
// assistant turns use the "model" role and tool results the "function" role.
func encodeContents(messages []ai.Message) []map[string]any {
	contents := make([]map[string]any, 0, len(messages))

	for _, msg := range messages {
		var role string
		switch msg.Role {
		case ai.RoleSystem:
			continue
		case ai.RoleAssistant:
			role = "model"
		case ai.RoleTool:
			role = "function"
		default:
			role = "user"
		}

		var parts []map[string]any
		if len(msg.Parts) > 0 {
			parts = encodeParts(msg.Parts)
		} else {
			parts = []map[string]any{{"text": msg.Content}}
		}

		contents = append(contents, map[string]any{
			"role":  role,
			"parts": parts,
		})
	}

	return contents
}

func encodeParts(parts []ai.ContentPart) []map[string]any {
	encoded := make([]map[string]any, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case ai.ContentPartText:
			encoded = append(encoded, map[string]any{"text": part.Text})
		case ai.ContentPartImage:
			if part.ImageURL == nil {
				continue
			}
			encoded = append(encoded, encodeImage(part.ImageURL.URL))
		}
	}
	return encoded
}

// encodeImage converts an image reference into an inline_data part. Data
// URIs are unpacked into their declared MIME type and payload; anything
// else is passed through with a default MIME type.
func encodeImage(url string) map[string]any {
	mimeType := defaultImageMIME
	data := url
	if rest, ok := strings.CutPrefix(url, "data:"); ok {
		if declared, payload, found := strings.Cut(rest, ";base64,"); found {
			mimeType = declared
			data = payload
		}
	}
	return map[string]any{
		"inline_data": map[string]any{
			"mime_type": mimeType,
			"data":      data,
		},
	}
}

// encodeGenerationConfig maps sampling parameters to their camelCase names.
func encodeGenerationConfig(cfg *ai.RequestConfig) map[string]any {
	generationConfig := map[string]any{}
	if cfg.MaxTokens > 0 {
		generationConfig["maxOutputTokens"] = cfg.MaxTokens
	}
	if cfg.Temperature != nil {
		generationConfig["temperature"] = *cfg.Temperature
	}
	if cfg.TopP != nil {
		generationConfig["topP"] = *cfg.TopP
	}
	if len(cfg.Stop) > 0 {
		generationConfig["stopSequences"] = cfg.Stop
	}
	return generationConfig
}

// encodeTools wraps all function declarations in the single tools entry
// Gemini expects.
func encodeTools(tools []ai.Tool) []map[string]any {
	declarations := make([]map[string]any, 0, len(tools))
	for _, tool := range tools {
		declaration := map[string]any{"name": tool.Function.Name}
		if tool.Function.Description != "" {
			declaration["description"] = tool.Function.Description
		}
		if len(tool.Function.Parameters) > 0 {
			declaration["parameters"] = tool.Function.Parameters
		}
		declarations = append(declarations, declaration)
	}
	return []map[string]any{
		{"function_declarations": declarations},
	}
}

func encodeToolConfig(choice ai.ToolChoice) map[string]any {
	config := map[string]any{}
	switch choice {
	case ai.ToolChoiceAuto:
		config["mode"] = "AUTO"
	case ai.ToolChoiceNone:
		config["mode"] = "NONE"
	case ai.ToolChoiceRequired:
		config["mode"] = "ANY"
	default:
		config["mode"] = "ANY"
		config["allowed_function_names"] = []string{string(choice)}
	}
	return map[string]any{"function_calling_config": config}
}

// NewDecoder implements [ai.Provider].
func (p *GeminiProvider) NewDecoder() ai.EventDecoder {
	return &streamDecoder{}
}

// ParseTerminal implements [ai.Provider]. Only the first candidate is
// consumed. Function-call parts have no vendor ids, so synthetic call_N
// ids are assigned in order.
func (p *GeminiProvider) ParseTerminal(body []byte) (*ai.Completion, error) {
	var resp generateContentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, ai.NewParseError(fmt.Sprintf("failed to decode generateContent body: %v", err))
	}
	if len(resp.Candidates) == 0 {
		return nil, ai.NewParseError("generateContent response has no candidates")
	}

	candidate := resp.Candidates[0]
	completion := &ai.Completion{
		Model:        resp.ModelVersion,
		FinishReason: mapFinishReason(candidate.FinishReason),
	}

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				completion.Content += part.Text
			}
			if part.FunctionCall != nil {
				completion.ToolCalls = append(completion.ToolCalls, ai.ToolCall{
					ID:   fmt.Sprintf("call_%d", len(completion.ToolCalls)),
					Type: "function",
					Function: ai.FunctionCall{
						Name:      part.FunctionCall.Name,
						Arguments: argumentsString(part.FunctionCall.Args),
					},
				})
			}
		}
	}

	if resp.UsageMetadata != nil {
		completion.Usage = resp.UsageMetadata.toUsage()
	}

	return completion, nil
}

func argumentsString(args json.RawMessage) string {
	if len(args) == 0 {
		return "{}"
	}
	return string(args)
}

// mapFinishReason converts a Gemini finish reason into the neutral form.
func mapFinishReason(reason string) ai.FinishReason {
	switch reason {
	case "STOP":
		return ai.FinishReasonStop
	case "MAX_TOKENS":
		return ai.FinishReasonLength
	case "TOOL_CALLS":
		return ai.FinishReasonToolCalls
	case "SAFETY":
		return ai.FinishReasonContentFilter
	default:
		return ai.FinishReasonUnknown
	}
}
