package llm

import (
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/agentcore/internal/errs"
	"github.com/haasonsaas/agentcore/pkg/models"
)

func TestToOpenAIMessagesCarriesToolCallsAndIDs(t *testing.T) {
	msgs := []models.Message{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleTool, Content: "result", ToolCallID: "call-1"},
		{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{
			{ID: "call-1", ToolName: "read_file", Arguments: map[string]any{"path": "a.go"}},
		}},
	}

	out := toOpenAIMessages(msgs)
	require.Len(t, out, 3)
	require.Equal(t, "call-1", out[1].ToolCallID)
	require.Len(t, out[2].ToolCalls, 1)
	require.Equal(t, "read_file", out[2].ToolCalls[0].Function.Name)
	require.Contains(t, out[2].ToolCalls[0].Function.Arguments, "a.go")
}

func TestToOpenAIToolsMarksRequiredFields(t *testing.T) {
	tools := []models.ToolSpec{{
		Name: "write_file",
		Parameters: map[string]models.ParamSchema{
			"path":    {Type: "string", Required: true},
			"comment": {Type: "string", Required: false},
		},
	}}

	out := toOpenAITools(tools)
	require.Len(t, out, 1)
	required, ok := out[0].Function.Parameters.(map[string]any)["required"].([]string)
	require.True(t, ok)
	require.Equal(t, []string{"path"}, required)
}

func TestToModelToolCallsParsesJSONArguments(t *testing.T) {
	calls := []openai.ToolCall{{
		ID:       "call-1",
		Function: openai.FunctionCall{Name: "read_file", Arguments: `{"path":"a.go"}`},
	}}

	out := toModelToolCalls(calls)
	require.Len(t, out, 1)
	require.Equal(t, "read_file", out[0].ToolName)
	require.Equal(t, "a.go", out[0].Arguments["path"])
}

func TestClassifyOpenAIErrorMapsAPIError(t *testing.T) {
	err := classifyOpenAIError(&openai.APIError{HTTPStatusCode: 429, Message: "slow down"})
	require.ErrorIs(t, err, errs.ErrTransientLLM)
}

func TestClassifyOpenAIErrorMapsUnknownToTransport(t *testing.T) {
	err := classifyOpenAIError(errors.New("dial tcp: connection refused"))
	require.ErrorIs(t, err, errs.ErrTransientLLM)
}
