package hitl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPolicySafeBinsNeverRequireApproval(t *testing.T) {
	p := DefaultPolicy()
	for _, tool := range []string{"read_file", "list_files", "search"} {
		requires, _ := p.RequiresApproval(tool)
		require.False(t, requires, tool)
	}
}

func TestDefaultPolicyMutatingToolsRequireApproval(t *testing.T) {
	p := DefaultPolicy()
	for _, tool := range []string{"write_file", "delete_file", "move_file", "run_command"} {
		requires, reason := p.RequiresApproval(tool)
		require.True(t, requires, tool)
		require.NotEmpty(t, reason)
	}
}

func TestDisabledPolicyNeverRequiresApproval(t *testing.T) {
	p := DefaultPolicy()
	p.Enabled = false
	requires, _ := p.RequiresApproval("run_command")
	require.False(t, requires)
}

func TestDenylistOverridesSafeBins(t *testing.T) {
	p := DefaultPolicy()
	p.Denylist = []string{"read_file"}
	requires, reason := p.RequiresApproval("read_file")
	require.True(t, requires)
	require.Equal(t, "denylisted tool", reason)
}

func TestAllowlistOverridesDenylist(t *testing.T) {
	p := DefaultPolicy()
	p.Denylist = []string{"write_file"}
	p.Allowlist = []string{"write_file"}
	requires, reason := p.RequiresApproval("write_file")
	require.True(t, requires, "denylist is checked before allowlist")
	require.Equal(t, "denylisted tool", reason)
}

func TestDefaultRequiresAppliesWhenNoRuleMatches(t *testing.T) {
	p := DefaultPolicy()
	p.Rules = nil
	p.SafeBins = nil
	p.DefaultRequires = true
	requires, reason := p.RequiresApproval("some_future_tool")
	require.True(t, requires)
	require.Equal(t, "default policy", reason)
}

func TestGlobPatternMatching(t *testing.T) {
	p := DefaultPolicy()
	p.Rules = []Rule{{Pattern: "git_*", RequiresApproval: true, Reason: "vcs mutation"}}
	p.SafeBins = nil
	requires, reason := p.RequiresApproval("git_push")
	require.True(t, requires)
	require.Equal(t, "vcs mutation", reason)
}
