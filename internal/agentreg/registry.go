// Package agentreg is the static agent-capability table (§4.C2): one
// capability record per fixed agent type, used to validate switches and
// look up per-agent tool/prompt configuration.
package agentreg

import "github.com/haasonsaas/agentcore/pkg/models"

// Registry holds one capability record per agent type.
type Registry struct {
	capabilities map[models.AgentType]models.Capabilities
}

// NewDefaultRegistry builds the registry with the core's built-in agent
// capability table. The architect may only touch markdown files; debug and
// ask may not switch further; coder and debug may delegate back to the
// orchestrator.
func NewDefaultRegistry() *Registry {
	allTools := func(names ...string) map[string]bool {
		m := make(map[string]bool, len(names))
		for _, n := range names {
			m[n] = true
		}
		return m
	}

	r := &Registry{capabilities: make(map[models.AgentType]models.Capabilities)}

	r.capabilities[models.AgentOrchestrator] = models.Capabilities{
		AllowedTools:   allTools("create_plan", "switch_mode"),
		MaxSwitches:    50,
		CanDelegate:    true,
		SystemPromptID: "orchestrator.v1",
		CanSwitchTo: map[models.AgentType]bool{
			models.AgentCoder: true, models.AgentArchitect: true,
			models.AgentDebug: true, models.AgentAsk: true,
		},
	}
	r.capabilities[models.AgentCoder] = models.Capabilities{
		AllowedTools:     allTools("read_file", "write_file", "list_files", "search", "run_command", "switch_mode"),
		MaxSwitches:      50,
		RequiresApproval: true,
		SystemPromptID:   "coder.v1",
		CanSwitchTo:      map[models.AgentType]bool{models.AgentOrchestrator: true, models.AgentDebug: true},
	}
	r.capabilities[models.AgentArchitect] = models.Capabilities{
		AllowedTools:     allTools("read_file", "write_file", "list_files", "search", "switch_mode"),
		MaxSwitches:      50,
		RequiresApproval: true,
		SystemPromptID:   "architect.v1",
		FilePathAllowed:  func(path string) bool { return hasSuffix(path, ".md") },
		CanSwitchTo:      map[models.AgentType]bool{models.AgentOrchestrator: true, models.AgentCoder: true},
	}
	r.capabilities[models.AgentDebug] = models.Capabilities{
		AllowedTools:     allTools("read_file", "write_file", "list_files", "search", "run_command"),
		MaxSwitches:      50,
		CanDelegate:      true,
		RequiresApproval: true,
		SystemPromptID:   "debug.v1",
		CanSwitchTo:      map[models.AgentType]bool{models.AgentOrchestrator: true, models.AgentCoder: true},
	}
	r.capabilities[models.AgentAsk] = models.Capabilities{
		AllowedTools:   allTools("read_file", "list_files", "search"),
		MaxSwitches:    50,
		SystemPromptID: "ask.v1",
	}
	r.capabilities[models.AgentUniversal] = models.Capabilities{
		AllowedTools:     allTools("read_file", "write_file", "list_files", "search", "run_command", "switch_mode"),
		MaxSwitches:      50,
		RequiresApproval: true,
		SystemPromptID:   "universal.v1",
		CanSwitchTo: map[models.AgentType]bool{
			models.AgentOrchestrator: true, models.AgentCoder: true,
			models.AgentArchitect: true, models.AgentDebug: true, models.AgentAsk: true,
		},
	}

	return r
}

func hasSuffix(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	return s[len(s)-len(suffix):] == suffix
}

// Get returns the capability record for an agent type.
func (r *Registry) Get(t models.AgentType) (models.Capabilities, bool) {
	c, ok := r.capabilities[t]
	return c, ok
}

// CanUseTool reports whether agent type t may invoke the named tool.
func (r *Registry) CanUseTool(t models.AgentType, toolName string) bool {
	c, ok := r.capabilities[t]
	if !ok {
		return false
	}
	return c.AllowedTools[toolName]
}

// CanEditFile reports whether agent type t may write to path, given its
// file-path restriction predicate (absent predicate means unrestricted).
func (r *Registry) CanEditFile(t models.AgentType, path string) bool {
	c, ok := r.capabilities[t]
	if !ok {
		return false
	}
	if c.FilePathAllowed == nil {
		return true
	}
	return c.FilePathAllowed(path)
}

// CanSwitch reports whether agent type t is permitted to switch to target.
func (r *Registry) CanSwitch(t, target models.AgentType) bool {
	c, ok := r.capabilities[t]
	if !ok {
		return false
	}
	return c.CanSwitchTo[target]
}
