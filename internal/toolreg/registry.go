// Package toolreg holds canonical tool specifications and the per-call
// filtering and validation described in §4.C3.
package toolreg

import (
	"fmt"

	"github.com/haasonsaas/agentcore/pkg/models"
)

// Registry holds the canonical tool spec set, keyed by name.
type Registry struct {
	specs map[string]models.ToolSpec
}

// NewDefaultRegistry builds the registry with the core's built-in tool specs.
// The actual execution of these tools happens on the remote editor host,
// out of scope here (§1); the core only validates shape and policy.
func NewDefaultRegistry() *Registry {
	r := &Registry{specs: make(map[string]models.ToolSpec)}
	add := func(spec models.ToolSpec) { r.specs[spec.Name] = spec }

	add(models.ToolSpec{
		Name:       "read_file",
		Category:   models.ToolCategoryFile,
		Permission: models.PermissionRead,
		Mode:       models.ExecutionModeHost,
		Parameters: map[string]models.ParamSchema{
			"path": {Type: "string", Required: true},
		},
	})
	add(models.ToolSpec{
		Name:       "write_file",
		Category:   models.ToolCategoryFile,
		Permission: models.PermissionWrite,
		Mode:       models.ExecutionModeHost,
		Parameters: map[string]models.ParamSchema{
			"path":    {Type: "string", Required: true},
			"content": {Type: "string", Required: true},
		},
	})
	add(models.ToolSpec{
		Name:       "delete_file",
		Category:   models.ToolCategoryFile,
		Permission: models.PermissionWrite,
		Mode:       models.ExecutionModeHost,
		Parameters: map[string]models.ParamSchema{
			"path": {Type: "string", Required: true},
		},
	})
	add(models.ToolSpec{
		Name:       "move_file",
		Category:   models.ToolCategoryFile,
		Permission: models.PermissionWrite,
		Mode:       models.ExecutionModeHost,
		Parameters: map[string]models.ParamSchema{
			"from": {Type: "string", Required: true},
			"to":   {Type: "string", Required: true},
		},
	})
	add(models.ToolSpec{
		Name:       "list_files",
		Category:   models.ToolCategorySearch,
		Permission: models.PermissionRead,
		Mode:       models.ExecutionModeHost,
		Parameters: map[string]models.ParamSchema{
			"path": {Type: "string", Required: false},
		},
	})
	add(models.ToolSpec{
		Name:       "search",
		Category:   models.ToolCategorySearch,
		Permission: models.PermissionRead,
		Mode:       models.ExecutionModeHost,
		Parameters: map[string]models.ParamSchema{
			"query": {Type: "string", Required: true},
		},
	})
	add(models.ToolSpec{
		Name:       "run_command",
		Category:   models.ToolCategoryShell,
		Permission: models.PermissionAdmin,
		Mode:       models.ExecutionModeHost,
		Parameters: map[string]models.ParamSchema{
			"command": {Type: "string", Required: true},
		},
	})
	add(models.ToolSpec{
		Name:       "switch_mode",
		Category:   models.ToolCategoryControl,
		Permission: models.PermissionRead,
		Mode:       models.ExecutionModeInternal,
		Parameters: map[string]models.ParamSchema{
			"target_agent": {Type: "string", Required: true},
			"reason":       {Type: "string", Required: false},
		},
	})
	add(models.ToolSpec{
		Name:       "create_plan",
		Category:   models.ToolCategoryControl,
		Permission: models.PermissionRead,
		Mode:       models.ExecutionModeInternal,
		Parameters: map[string]models.ParamSchema{
			"goal":     {Type: "string", Required: true},
			"subtasks": {Type: "array", Required: true},
		},
	})

	return r
}

// Get returns the spec for name, if registered.
func (r *Registry) Get(name string) (models.ToolSpec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

// Filter returns the subset of the registry's specs named in allowedTools.
// A nil allowedTools means "all". Unknown names produce a warning but do not
// fail filtering (§4.C3).
func (r *Registry) Filter(allowedTools []string) (specs []models.ToolSpec, warnings []string) {
	if allowedTools == nil {
		specs = make([]models.ToolSpec, 0, len(r.specs))
		for _, s := range r.specs {
			specs = append(specs, s)
		}
		return specs, nil
	}

	for _, name := range allowedTools {
		spec, ok := r.specs[name]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown tool name in allowedTools: %s", name))
			continue
		}
		specs = append(specs, spec)
	}
	return specs, warnings
}

// Validate checks a tool call against its spec: the tool must exist, and
// every required field must be present with the correct type tag.
func (r *Registry) Validate(call models.ToolCall) error {
	spec, ok := r.specs[call.ToolName]
	if !ok {
		return fmt.Errorf("unknown tool: %s", call.ToolName)
	}
	for name, param := range spec.Parameters {
		if !param.Required {
			continue
		}
		val, present := call.Arguments[name]
		if !present {
			return fmt.Errorf("tool %s: missing required field %q", call.ToolName, name)
		}
		if !matchesType(val, param.Type) {
			return fmt.Errorf("tool %s: field %q has wrong type, want %s", call.ToolName, name, param.Type)
		}
	}
	return nil
}

func matchesType(val any, typ string) bool {
	switch typ {
	case "string":
		_, ok := val.(string)
		return ok
	case "number":
		switch val.(type) {
		case float64, int, int64:
			return true
		}
		return false
	case "boolean":
		_, ok := val.(bool)
		return ok
	case "array":
		_, ok := val.([]any)
		return ok
	case "object":
		_, ok := val.(map[string]any)
		return ok
	default:
		return true
	}
}
