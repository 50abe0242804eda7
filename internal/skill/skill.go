// Package skill defines the contract between the host and pluggable skill
// modules: the tools a skill advertises and how the host invokes them.
package skill

import (
	"context"
	"encoding/json"
	"fmt"
)

// Property describes one input field of a tool.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Schema is the JSON-Schema-shaped input contract of a tool.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// ObjectSchema builds an object schema from properties and required names.
func ObjectSchema(props map[string]Property, required ...string) Schema {
	return Schema{Type: "object", Properties: props, Required: required}
}

// ToolDescriptor advertises one tool of a skill.
type ToolDescriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"input_schema"`
}

// ToolCall is an invocation request. Arguments is the JSON-encoded argument
// object; the skill parses it itself.
type ToolCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// DecodeArguments parses the call arguments into v. Empty arguments decode
// as an empty object.
func (c ToolCall) DecodeArguments(v any) error {
	args := c.Arguments
	if args == "" {
		args = "{}"
	}
	if err := json.Unmarshal([]byte(args), v); err != nil {
		return fmt.Errorf("%s: invalid arguments: %w", c.Name, err)
	}
	return nil
}

// HostContext is supplied by the host with each call. Skills must not rely
// on any field being set.
type HostContext struct {
	ChatID   int64
	ThreadID int64
	SenderID int64
	Values   map[string]string
}

// Result is the single value a tool execution returns.
type Result struct {
	Content string `json:"content"`
}

// Skill is a module exposing tools to the host.
type Skill interface {
	Name() string
	ListTools() []ToolDescriptor
	Execute(ctx context.Context, call ToolCall, hc HostContext) (Result, error)
}
