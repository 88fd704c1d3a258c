// Package hitl implements the human-in-the-loop approval gate (§4.C4): a
// glob-rule policy plus a pending-approval store.
package hitl

import (
	"path/filepath"
)

// Rule is one glob-matched policy entry.
type Rule struct {
	Pattern          string
	RequiresApproval bool
	Reason           string
}

// Policy decides whether a tool call requires human approval (§4.C4).
// Evaluation order: if globally disabled, nothing requires approval; else
// the denylist and allowlist (always-approve / never-approve overrides) are
// checked first, then the safe-bins set, then the glob rule list in order,
// then the default. With the override lists empty, this reduces to a plain
// first-match-wins scan over Rules.
type Policy struct {
	Enabled         bool
	Denylist        []string
	Allowlist       []string
	SafeBins        []string
	Rules           []Rule
	DefaultRequires bool
}

// DefaultPolicy returns the core's built-in rule set (§4.C4): file-mutating,
// directory-creating, and command-executing tools require approval; reads,
// listings, and searches are explicitly allowed.
func DefaultPolicy() *Policy {
	return &Policy{
		Enabled:  true,
		SafeBins: []string{"read_file", "list_files", "search"},
		Rules: []Rule{
			{Pattern: "write_file", RequiresApproval: true, Reason: "file mutation"},
			{Pattern: "delete_file", RequiresApproval: true, Reason: "file mutation"},
			{Pattern: "move_file", RequiresApproval: true, Reason: "file mutation"},
			{Pattern: "run_command", RequiresApproval: true, Reason: "command execution"},
			{Pattern: "read_file", RequiresApproval: false, Reason: "read-only"},
			{Pattern: "list_files", RequiresApproval: false, Reason: "read-only"},
			{Pattern: "search", RequiresApproval: false, Reason: "read-only"},
		},
		DefaultRequires: false,
	}
}

// RequiresApproval evaluates the policy for toolName, satisfying
// llm.ApprovalEvaluator.
func (p *Policy) RequiresApproval(toolName string) (bool, string) {
	if !p.Enabled {
		return false, ""
	}

	for _, pattern := range p.Denylist {
		if matches(pattern, toolName) {
			return true, "denylisted tool"
		}
	}
	for _, pattern := range p.Allowlist {
		if matches(pattern, toolName) {
			return false, "allowlisted tool"
		}
	}
	for _, bin := range p.SafeBins {
		if matches(bin, toolName) {
			return false, "safe bin"
		}
	}
	for _, rule := range p.Rules {
		if matches(rule.Pattern, toolName) {
			return rule.RequiresApproval, rule.Reason
		}
	}
	return p.DefaultRequires, "default policy"
}

func matches(pattern, name string) bool {
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}
