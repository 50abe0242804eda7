package skill

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownTool is returned by Dispatch for a tool no skill provides.
var ErrUnknownTool = errors.New("unknown tool")

// RegistryBuilder accumulates skills during the construction phase.
// Call Build() to produce an immutable Registry ready for use.
type RegistryBuilder struct {
	skills []Skill
}

// NewRegistryBuilder returns a fresh RegistryBuilder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{}
}

// WithSkill adds a skill and returns the builder, enabling chaining.
func (b *RegistryBuilder) WithSkill(s Skill) *RegistryBuilder {
	b.skills = append(b.skills, s)
	return b
}

// Build indexes every tool by name. Two skills advertising the same tool
// name is an error.
func (b *RegistryBuilder) Build() (*Registry, error) {
	r := &Registry{
		owners: make(map[string]Skill),
		tools:  make(map[string]ToolDescriptor),
	}
	for _, s := range b.skills {
		for _, td := range s.ListTools() {
			if prev, ok := r.owners[td.Name]; ok {
				return nil, fmt.Errorf("tool %q provided by both %s and %s", td.Name, prev.Name(), s.Name())
			}
			r.owners[td.Name] = s
			r.tools[td.Name] = td
		}
		r.skills = append(r.skills, s)
	}
	return r, nil
}

// Registry routes tool calls to the skill that advertised the tool.
type Registry struct {
	skills []Skill
	owners map[string]Skill
	tools  map[string]ToolDescriptor
}

// Skills returns the registered skills in registration order.
func (r *Registry) Skills() []Skill {
	return append([]Skill(nil), r.skills...)
}

// Tools returns every tool descriptor sorted by name.
func (r *Registry) Tools() []ToolDescriptor {
	list := make([]ToolDescriptor, 0, len(r.tools))
	for _, td := range r.tools {
		list = append(list, td)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Lookup returns the descriptor of the named tool.
func (r *Registry) Lookup(name string) (ToolDescriptor, bool) {
	td, ok := r.tools[name]
	return td, ok
}

// Definitions returns all tool definitions in OpenAI function-calling format.
func (r *Registry) Definitions() []map[string]any {
	tools := r.Tools()
	list := make([]map[string]any, 0, len(tools))
	for _, td := range tools {
		list = append(list, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        td.Name,
				"description": td.Description,
				"parameters":  td.InputSchema,
			},
		})
	}
	return list
}

// Dispatch executes call on the owning skill. Skill errors are returned
// wrapped with the tool name.
func (r *Registry) Dispatch(ctx context.Context, call ToolCall, hc HostContext) (Result, error) {
	s, ok := r.owners[call.Name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}
	res, err := s.Execute(ctx, call, hc)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", call.Name, err)
	}
	return res, nil
}
