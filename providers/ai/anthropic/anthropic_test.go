package anthropic

import (
	"testing"

	"github.com/unillm/unillm/providers/ai"
)

// ========== Endpoint and header tests ==========

func TestAnthropicProvider_Identity(t *testing.T) {
	p := New()

	if p.Name() != "anthropic" {
		t.Errorf("expected name %q, got %q", "anthropic", p.Name())
	}
	if p.DefaultBaseURL() != "https://api.anthropic.com" {
		t.Errorf("unexpected base URL %q", p.DefaultBaseURL())
	}
}

func TestAnthropicProvider_URLs_ShareMessagesEndpoint(t *testing.T) {
	p := New()

	want := "https://api.anthropic.com/v1/messages"
	if got := p.StreamURL(p.DefaultBaseURL(), "claude-sonnet-4-20250514", "sk-x"); got != want {
		t.Errorf("expected stream URL %q, got %q", want, got)
	}
	if got := p.TerminalURL(p.DefaultBaseURL(), "claude-sonnet-4-20250514", "sk-x"); got != want {
		t.Errorf("expected terminal URL %q, got %q", want, got)
	}
}

func TestAnthropicProvider_Headers_APIKeyAndVersion(t *testing.T) {
	headers := New().Headers("sk-ant-test")

	if len(headers) != 2 {
		t.Fatalf("expected 2 headers, got %d", len(headers))
	}
	if headers[0].Key != "x-api-key" || headers[0].Value != "sk-ant-test" {
		t.Errorf("unexpected auth header: %v", headers[0])
	}
	if headers[1].Key != "anthropic-version" || headers[1].Value != "2023-06-01" {
		t.Errorf("unexpected version header: %v", headers[1])
	}
}

// ========== Body construction tests ==========

func TestBuildBody_MaxTokens_DefaultsTo4096(t *testing.T) {
	body, err := New().BuildTerminalBody("claude-sonnet-4-20250514", []ai.Message{ai.UserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if body["max_tokens"] != 4096 {
		t.Errorf("expected default max_tokens 4096, got %v", body["max_tokens"])
	}
}

func TestBuildBody_MaxTokens_ExplicitWins(t *testing.T) {
	cfg := &ai.RequestConfig{MaxTokens: 1024}

	body, _ := New().BuildTerminalBody("m", nil, cfg)

	if body["max_tokens"] != 1024 {
		t.Errorf("expected max_tokens 1024, got %v", body["max_tokens"])
	}
}

func TestBuildBody_StreamFlag(t *testing.T) {
	p := New()

	streamBody, _ := p.BuildStreamBody("m", nil, nil)
	if streamBody["stream"] != true {
		t.Error("expected stream: true on stream body")
	}
	terminalBody, _ := p.BuildTerminalBody("m", nil, nil)
	if terminalBody["stream"] != false {
		t.Error("expected stream: false on terminal body")
	}
}

func TestBuildBody_SystemMessage_HoistedToSystemField(t *testing.T) {
	messages := []ai.Message{
		ai.SystemMessage("be brief"),
		ai.UserMessage("hi"),
	}

	body, _ := New().BuildTerminalBody("m", messages, nil)

	if body["system"] != "be brief" {
		t.Errorf("expected system field, got %v", body["system"])
	}
	encoded := body["messages"].([]map[string]any)
	if len(encoded) != 1 || encoded[0]["role"] != "user" {
		t.Errorf("expected system message filtered from messages, got %v", encoded)
	}
}

func TestBuildBody_ConfigSystem_UsedWhenNoSystemMessage(t *testing.T) {
	cfg := &ai.RequestConfig{System: "from config"}

	body, _ := New().BuildTerminalBody("m", []ai.Message{ai.UserMessage("hi")}, cfg)

	if body["system"] != "from config" {
		t.Errorf("expected config system prompt, got %v", body["system"])
	}
}

func TestBuildBody_NoSystemAnywhere_OmitsField(t *testing.T) {
	body, _ := New().BuildTerminalBody("m", []ai.Message{ai.UserMessage("hi")}, nil)

	if _, present := body["system"]; present {
		t.Error("expected no system field")
	}
}

func TestBuildBody_Stop_RenamedToStopSequences(t *testing.T) {
	cfg := &ai.RequestConfig{Stop: []string{"END", "HALT"}}

	body, _ := New().BuildTerminalBody("m", nil, cfg)

	sequences, ok := body["stop_sequences"].([]string)
	if !ok || len(sequences) != 2 {
		t.Fatalf("expected stop_sequences, got %v", body["stop_sequences"])
	}
	if _, present := body["stop"]; present {
		t.Error("expected no stop field")
	}
}

func TestBuildBody_Tools_InputSchemaShape(t *testing.T) {
	cfg := &ai.RequestConfig{
		Tools: []ai.Tool{ai.FunctionTool("get_weather", "weather lookup", []byte(`{"type":"object"}`))},
	}

	body, _ := New().BuildTerminalBody("m", nil, cfg)

	tools := body["tools"].([]map[string]any)
	if tools[0]["name"] != "get_weather" {
		t.Errorf("expected tool name, got %v", tools[0]["name"])
	}
	if _, present := tools[0]["input_schema"]; !present {
		t.Error("expected input_schema field")
	}
	if _, present := tools[0]["parameters"]; present {
		t.Error("expected no parameters field in Anthropic tool shape")
	}
}

func TestBuildBody_ToolChoice_Variants(t *testing.T) {
	tests := []struct {
		name     string
		choice   ai.ToolChoice
		wantType string
		wantName string
	}{
		{name: "auto", choice: ai.ToolChoiceAuto, wantType: "auto"},
		{name: "none", choice: ai.ToolChoiceNone, wantType: "none"},
		{name: "required becomes any", choice: ai.ToolChoiceRequired, wantType: "any"},
		{name: "specific tool", choice: "get_weather", wantType: "tool", wantName: "get_weather"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := New().BuildTerminalBody("m", nil, &ai.RequestConfig{ToolChoice: tt.choice})
			choice := body["tool_choice"].(map[string]any)
			if choice["type"] != tt.wantType {
				t.Errorf("expected type %q, got %v", tt.wantType, choice["type"])
			}
			if tt.wantName != "" && choice["name"] != tt.wantName {
				t.Errorf("expected name %q, got %v", tt.wantName, choice["name"])
			}
		})
	}
}

func TestBuildBody_ToolMessage_BecomesUserToolResult(t *testing.T) {
	messages := []ai.Message{ai.ToolResultMessage("toolu_1", `{"temp":15}`)}

	body, _ := New().BuildTerminalBody("m", messages, nil)

	encoded := body["messages"].([]map[string]any)
	if encoded[0]["role"] != "user" {
		t.Errorf("expected user role, got %v", encoded[0]["role"])
	}
	blocks := encoded[0]["content"].([]map[string]any)
	if blocks[0]["type"] != "tool_result" || blocks[0]["tool_use_id"] != "toolu_1" {
		t.Errorf("unexpected tool_result block: %v", blocks[0])
	}
	if blocks[0]["content"] != `{"temp":15}` {
		t.Errorf("unexpected tool_result content: %v", blocks[0]["content"])
	}
}

func TestBuildBody_ConsecutiveToolResults_MergedIntoOneTurn(t *testing.T) {
	messages := []ai.Message{
		ai.UserMessage("weather in two cities?"),
		ai.ToolResultMessage("toolu_1", "15C"),
		ai.ToolResultMessage("toolu_2", "22C"),
	}

	body, _ := New().BuildTerminalBody("m", messages, nil)

	encoded := body["messages"].([]map[string]any)
	if len(encoded) != 2 {
		t.Fatalf("expected tool results merged into one message, got %d messages", len(encoded))
	}
	blocks := encoded[1]["content"].([]map[string]any)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 tool_result blocks, got %d", len(blocks))
	}
	if blocks[0]["tool_use_id"] != "toolu_1" || blocks[1]["tool_use_id"] != "toolu_2" {
		t.Errorf("unexpected block order: %v", blocks)
	}
}

func TestBuildBody_AssistantToolCalls_BecomeToolUseBlocks(t *testing.T) {
	messages := []ai.Message{{
		Role:    ai.RoleAssistant,
		Content: "checking",
		ToolCalls: []ai.ToolCall{{
			ID:       "toolu_1",
			Type:     "function",
			Function: ai.FunctionCall{Name: "get_weather", Arguments: `{"location":"Tokyo"}`},
		}},
	}}

	body, _ := New().BuildTerminalBody("m", messages, nil)

	encoded := body["messages"].([]map[string]any)
	blocks := encoded[0]["content"].([]map[string]any)
	if len(blocks) != 2 {
		t.Fatalf("expected text + tool_use blocks, got %d", len(blocks))
	}
	if blocks[0]["type"] != "text" || blocks[1]["type"] != "tool_use" {
		t.Errorf("unexpected block types: %v", blocks)
	}
	if blocks[1]["id"] != "toolu_1" || blocks[1]["name"] != "get_weather" {
		t.Errorf("unexpected tool_use block: %v", blocks[1])
	}
}

func TestBuildBody_DataURI_UnpackedToBase64Source(t *testing.T) {
	messages := []ai.Message{ai.UserMessageParts(
		ai.ImagePart("data:image/png;base64,iVBORw0KGgo="),
	)}

	body, _ := New().BuildTerminalBody("m", messages, nil)

	encoded := body["messages"].([]map[string]any)
	blocks := encoded[0]["content"].([]map[string]any)
	source := blocks[0]["source"].(map[string]any)
	if source["type"] != "base64" {
		t.Errorf("expected base64 source, got %v", source["type"])
	}
	if source["media_type"] != "image/png" || source["data"] != "iVBORw0KGgo=" {
		t.Errorf("unexpected source: %v", source)
	}
}

func TestBuildBody_HTTPImageURL_KeptAsURLSource(t *testing.T) {
	messages := []ai.Message{ai.UserMessageParts(
		ai.ImagePart("https://example.com/cat.png"),
	)}

	body, _ := New().BuildTerminalBody("m", messages, nil)

	encoded := body["messages"].([]map[string]any)
	blocks := encoded[0]["content"].([]map[string]any)
	source := blocks[0]["source"].(map[string]any)
	if source["type"] != "url" || source["url"] != "https://example.com/cat.png" {
		t.Errorf("unexpected source: %v", source)
	}
}

func TestBuildBody_ExtraFields_MergedLast(t *testing.T) {
	cfg := &ai.RequestConfig{
		MaxTokens: 100,
		Extra:     map[string]any{"max_tokens": 8192, "metadata": map[string]any{"user_id": "u1"}},
	}

	body, _ := New().BuildTerminalBody("m", nil, cfg)

	if body["max_tokens"] != 8192 {
		t.Errorf("expected extra to override max_tokens, got %v", body["max_tokens"])
	}
	if _, present := body["metadata"]; !present {
		t.Error("expected vendor extension to pass through")
	}
}

// ========== Terminal parse tests ==========

func TestParseTerminal_TextContent(t *testing.T) {
	body := []byte(`{
		"id": "msg_1",
		"model": "claude-sonnet-4-20250514",
		"content": [{"type": "text", "text": "Hello "}, {"type": "text", "text": "there"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 9, "output_tokens": 3}
	}`)

	completion, err := New().ParseTerminal(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completion.Content != "Hello there" {
		t.Errorf("expected concatenated text, got %q", completion.Content)
	}
	if completion.FinishReason != ai.FinishReasonStop {
		t.Errorf("expected finish stop, got %q", completion.FinishReason)
	}
	if completion.Usage.InputTokens != 9 || completion.Usage.OutputTokens != 3 {
		t.Errorf("unexpected usage: %+v", completion.Usage)
	}
}

func TestParseTerminal_ToolUse(t *testing.T) {
	body := []byte(`{
		"model": "claude-sonnet-4-20250514",
		"content": [{"type": "tool_use", "id": "toolu_1", "name": "get_weather",
			"input": {"location": "Tokyo"}}],
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 20, "output_tokens": 11}
	}`)

	completion, err := New().ParseTerminal(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completion.FinishReason != ai.FinishReasonToolCalls {
		t.Errorf("expected finish tool_calls, got %q", completion.FinishReason)
	}
	call := completion.ToolCalls[0]
	if call.ID != "toolu_1" || call.Function.Name != "get_weather" {
		t.Errorf("unexpected tool call: %+v", call)
	}
	if call.Function.Arguments != `{"location": "Tokyo"}` {
		t.Errorf("expected input re-serialized as arguments, got %q", call.Function.Arguments)
	}
}

func TestParseTerminal_StopReasons(t *testing.T) {
	tests := []struct {
		name   string
		reason string
		want   ai.FinishReason
	}{
		{name: "end turn", reason: "end_turn", want: ai.FinishReasonStop},
		{name: "stop sequence", reason: "stop_sequence", want: ai.FinishReasonStop},
		{name: "max tokens", reason: "max_tokens", want: ai.FinishReasonLength},
		{name: "tool use", reason: "tool_use", want: ai.FinishReasonToolCalls},
		{name: "unrecognized", reason: "pause_turn", want: ai.FinishReasonUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapStopReason(tt.reason); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseTerminal_CacheCounters(t *testing.T) {
	body := []byte(`{
		"model": "m",
		"content": [],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 50, "output_tokens": 5,
			"cache_read_input_tokens": 30, "cache_creation_input_tokens": 20}
	}`)

	completion, err := New().ParseTerminal(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completion.Usage.CacheReadInputTokens != 30 {
		t.Errorf("expected 30 cache read tokens, got %d", completion.Usage.CacheReadInputTokens)
	}
	if completion.Usage.CacheCreationInputTokens != 20 {
		t.Errorf("expected 20 cache creation tokens, got %d", completion.Usage.CacheCreationInputTokens)
	}
}

func TestParseTerminal_MalformedBody_ParseError(t *testing.T) {
	_, err := New().ParseTerminal([]byte(`{"content": [`))

	aiErr, ok := err.(*ai.Error)
	if !ok || aiErr.Kind != ai.ErrorKindParse {
		t.Fatalf("expected parse error, got %v", err)
	}
}
