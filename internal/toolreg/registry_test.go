package toolreg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haasonsaas/agentcore/pkg/models"
)

func TestGetKnownAndUnknownTool(t *testing.T) {
	r := NewDefaultRegistry()

	spec, ok := r.Get("read_file")
	require.True(t, ok)
	require.Equal(t, models.PermissionRead, spec.Permission)

	_, ok = r.Get("nope")
	require.False(t, ok)
}

func TestFilterNilReturnsEverything(t *testing.T) {
	r := NewDefaultRegistry()
	specs, warnings := r.Filter(nil)
	require.Empty(t, warnings)
	require.Len(t, specs, 9)
}

func TestFilterUnknownNameWarnsWithoutFailing(t *testing.T) {
	r := NewDefaultRegistry()
	specs, warnings := r.Filter([]string{"read_file", "nonexistent_tool"})
	require.Len(t, specs, 1)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "nonexistent_tool")
}

func TestValidateMissingRequiredField(t *testing.T) {
	r := NewDefaultRegistry()
	err := r.Validate(models.ToolCall{ToolName: "write_file", Arguments: map[string]any{"path": "a.go"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "content")
}

func TestValidateWrongType(t *testing.T) {
	r := NewDefaultRegistry()
	err := r.Validate(models.ToolCall{ToolName: "read_file", Arguments: map[string]any{"path": 5}})
	require.Error(t, err)
}

func TestValidateUnknownTool(t *testing.T) {
	r := NewDefaultRegistry()
	err := r.Validate(models.ToolCall{ToolName: "ghost"})
	require.Error(t, err)
}

func TestValidateAccepts(t *testing.T) {
	r := NewDefaultRegistry()
	err := r.Validate(models.ToolCall{ToolName: "write_file", Arguments: map[string]any{"path": "a.go", "content": "x"}})
	require.NoError(t, err)
}
