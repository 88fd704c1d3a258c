package llm

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/haasonsaas/agentcore/pkg/models"
	openai "github.com/sashabaranov/go-openai"
)

// Usage carries token-usage counts from a chat-completion call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the LLM client's raw result (§4.C5): content flattened to a
// string, zero or more parsed tool calls, usage, and the model identifier.
type Response struct {
	Content   string
	ToolCalls []models.ToolCall
	Usage     Usage
	Model     string
}

// authTransport injects the internal proxy's shared-secret header on every
// request.
type authTransport struct {
	apiKey string
	base   http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.apiKey != "" {
		req.Header.Set("X-Internal-Auth", t.apiKey)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// Client wraps github.com/sashabaranov/go-openai against the internal LLM
// proxy (§6): the wire format used for chat completions is exactly this
// library's ChatCompletionResponse shape, so no hand-rolled HTTP codec is
// needed here.
type Client struct {
	oai *openai.Client
}

// NewClient builds a Client pointed at baseURL (LLM_PROXY_URL) and
// authenticated with apiKey (INTERNAL_API_KEY).
func NewClient(baseURL, apiKey string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Transport: &authTransport{apiKey: apiKey}}
	return &Client{oai: openai.NewClientWithConfig(cfg)}
}

// ChatCompletion performs a single-shot (non-streaming) chat-completion call
// (§4.C5). It does not retry and does not consult a circuit breaker — those
// concerns live one layer up (§4.C14), composed by the dialogue engine.
func (c *Client) ChatCompletion(ctx context.Context, model string, messages []models.Message, tools []models.ToolSpec) (*Response, error) {
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAIMessages(messages),
		Stream:   false,
	}
	if len(tools) > 0 {
		req.Tools = toOpenAITools(tools)
	}

	resp, err := c.oai.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, NewProviderError(0, "llm proxy returned zero choices", nil)
	}

	choice := resp.Choices[0].Message
	return &Response{
		Content:   choice.Content,
		ToolCalls: toModelToolCalls(choice.ToolCalls),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Model: resp.Model,
	}, nil
}

func toOpenAIMessages(messages []models.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		for _, tc := range m.ToolCalls {
			argsJSON, _ := json.Marshal(tc.Arguments)
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.ToolName,
					Arguments: string(argsJSON),
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func toOpenAITools(tools []models.ToolSpec) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		props := map[string]any{}
		required := make([]string, 0, len(t.Parameters))
		for name, p := range t.Parameters {
			props[name] = map[string]any{"type": p.Type, "description": p.Description}
			if p.Required {
				required = append(required, name)
			}
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name: t.Name,
				Parameters: map[string]any{
					"type":       "object",
					"properties": props,
					"required":   required,
				},
			},
		})
	}
	return out
}

func toModelToolCalls(calls []openai.ToolCall) []models.ToolCall {
	out := make([]models.ToolCall, 0, len(calls))
	for _, tc := range calls {
		var args map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		out = append(out, models.ToolCall{
			ID:        tc.ID,
			ToolName:  tc.Function.Name,
			Arguments: args,
		})
	}
	return out
}

// classifyOpenAIError maps the go-openai client's error shape to the core's
// FailoverReason taxonomy (§4.C5/§7).
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if ok := asAPIError(err, &apiErr); ok {
		return NewProviderError(apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if ok := asRequestError(err, &reqErr); ok {
		return NewProviderError(reqErr.HTTPStatusCode, reqErr.Error(), err)
	}
	return NewTransportError(err)
}

func asAPIError(err error, target **openai.APIError) bool {
	if e, ok := err.(*openai.APIError); ok {
		*target = e
		return true
	}
	return false
}

func asRequestError(err error, target **openai.RequestError) bool {
	if e, ok := err.(*openai.RequestError); ok {
		*target = e
		return true
	}
	return false
}
