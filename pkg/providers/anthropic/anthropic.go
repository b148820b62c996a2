// Package anthropic provides a streaming modeladapter.Streamer for the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/germanamz/koinonia/pkg/chats/content"
	"github.com/germanamz/koinonia/pkg/chats/message"
	"github.com/germanamz/koinonia/pkg/chats/role"
	"github.com/germanamz/koinonia/pkg/modeladapter"
	"github.com/germanamz/koinonia/pkg/tools/toolbox"
)

const (
	messagesPath    = "/v1/messages"
	countTokensPath = "/v1/messages/count_tokens"

	// DefaultBaseURL is the public Anthropic API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"
	// DefaultMaxTokens is the response token cap used when a request sets none.
	DefaultMaxTokens = 64000
)

var (
	_ modeladapter.Streamer     = (*Adapter)(nil)
	_ modeladapter.TokenCounter = (*Adapter)(nil)
)

// Adapter implements modeladapter.Streamer and modeladapter.TokenCounter for
// the Anthropic Messages API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter configured for the Anthropic API.
// The baseURL should be "https://api.anthropic.com" (no trailing slash).
func New(baseURL, apiKey, model string) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	a := &Adapter{}
	a.BaseURL = baseURL
	a.Auth = modeladapter.Auth{
		Key:    apiKey,
		Header: "x-api-key",
	}
	a.Name = model
	a.MaxTokens = DefaultMaxTokens
	a.Headers = map[string]string{
		"anthropic-version": "2023-06-01",
	}
	a.HeaderParser = modeladapter.ParseAnthropicRateLimitHeaders

	return a
}

// Stream opens a streamed Messages API round.
func (a *Adapter) Stream(ctx context.Context, req modeladapter.Request) (modeladapter.Stream, error) {
	body, err := a.PostStream(ctx, messagesPath, a.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	return newStream(body, &a.Usage), nil
}

// CountTokens returns the input tokens req would consume.
func (a *Adapter) CountTokens(ctx context.Context, req modeladapter.Request) (int, error) {
	full := a.buildRequest(req)

	var resp struct {
		InputTokens int `json:"input_tokens"`
	}
	if err := a.PostJSON(ctx, countTokensPath, apiCountRequest{
		Model:    full.Model,
		System:   full.System,
		Messages: full.Messages,
		Tools:    full.Tools,
		Thinking: full.Thinking,
	}, &resp); err != nil {
		return 0, fmt.Errorf("anthropic: count tokens: %w", err)
	}

	return resp.InputTokens, nil
}

// --- request types ---

type apiRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	Stream    bool             `json:"stream"`
	System    []apiSystemBlock `json:"system,omitempty"`
	Messages  []apiMessage     `json:"messages"`
	Tools     []apiToolDef     `json:"tools,omitempty"`
	Thinking  *apiThinking     `json:"thinking,omitempty"`
}

type apiCountRequest struct {
	Model    string           `json:"model"`
	System   []apiSystemBlock `json:"system,omitempty"`
	Messages []apiMessage     `json:"messages"`
	Tools    []apiToolDef     `json:"tools,omitempty"`
	Thinking *apiThinking     `json:"thinking,omitempty"`
}

type apiSystemBlock struct {
	Type         string           `json:"type"`
	Text         string           `json:"text"`
	CacheControl *apiCacheControl `json:"cache_control,omitempty"`
}

type apiCacheControl struct {
	Type string `json:"type"`
}

type apiThinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type apiMessage struct {
	Role    string       `json:"role"`
	Content []apiContent `json:"content"`
}

type apiContent struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	Thinking  string          `json:"thinking,omitempty"`
	Signature string          `json:"signature,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type apiToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// --- conversion helpers ---

func (a *Adapter) buildRequest(r modeladapter.Request) apiRequest {
	model := r.Model
	if model == "" {
		model = a.Name
	}
	maxTokens := r.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.MaxTokens
	}

	req := apiRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Stream:    true,
	}

	// Every system block is marked cacheable; the persona prompt is stable
	// across requests and the panel block across a conversation.
	for _, s := range r.System {
		if s == "" {
			continue
		}
		req.System = append(req.System, apiSystemBlock{
			Type:         "text",
			Text:         s,
			CacheControl: &apiCacheControl{Type: "ephemeral"},
		})
	}

	if r.ThinkingBudget > 0 {
		req.Thinking = &apiThinking{Type: "enabled", BudgetTokens: r.ThinkingBudget}
	}

	if len(r.Tools) > 0 {
		req.Tools = toolDefs(r.Tools)
	}

	req.Messages = make([]apiMessage, 0, len(r.Messages))
	for _, m := range r.Messages {
		appendMessage(&req.Messages, m)
	}

	return req
}

func toolDefs(tools []toolbox.Tool) []apiToolDef {
	defs := make([]apiToolDef, len(tools))
	for i, t := range tools {
		schema := t.InputSchema
		if schema == nil {
			schema = json.RawMessage(`{"type":"object"}`)
		}
		defs[i] = apiToolDef{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		}
	}
	return defs
}

func appendMessage(msgs *[]apiMessage, m message.Message) {
	msgRole := mapRole(m.Role)

	for _, p := range m.Parts {
		block := partToBlock(p)
		if block == nil {
			continue
		}

		// Merge into the last message if it has the same role.
		if len(*msgs) > 0 && (*msgs)[len(*msgs)-1].Role == msgRole {
			(*msgs)[len(*msgs)-1].Content = append((*msgs)[len(*msgs)-1].Content, *block)
			continue
		}

		*msgs = append(*msgs, apiMessage{
			Role:    msgRole,
			Content: []apiContent{*block},
		})
	}
}

func partToBlock(p content.Part) *apiContent {
	switch v := p.(type) {
	case content.Text:
		if v.Text == "" {
			return nil
		}
		return &apiContent{Type: "text", Text: v.Text}
	case content.Thinking:
		// Unsigned thinking is rejected by the API.
		if v.Signature == "" {
			return nil
		}
		return &apiContent{Type: "thinking", Thinking: v.Text, Signature: v.Signature}
	case content.ToolCall:
		input := json.RawMessage(v.Arguments)
		if len(input) == 0 || !json.Valid(input) {
			input = json.RawMessage(`{}`)
		}
		return &apiContent{Type: "tool_use", ID: v.ID, Name: v.Name, Input: input}
	case content.ToolResult:
		return &apiContent{Type: "tool_result", ToolUseID: v.ToolCallID, Content: v.Content, IsError: v.IsError}
	default:
		return nil
	}
}

func mapRole(r role.Role) string {
	if r == role.Assistant {
		return "assistant"
	}
	return "user"
}
