package skill

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type echoSkill struct {
	name  string
	tools []string
	seen  []HostContext
}

func (s *echoSkill) Name() string { return s.name }

func (s *echoSkill) ListTools() []ToolDescriptor {
	var out []ToolDescriptor
	for _, n := range s.tools {
		out = append(out, ToolDescriptor{
			Name:        n,
			Description: "echo " + n,
			InputSchema: ObjectSchema(map[string]Property{"text": {Type: "string"}}, "text"),
		})
	}
	return out
}

func (s *echoSkill) Execute(_ context.Context, call ToolCall, hc HostContext) (Result, error) {
	s.seen = append(s.seen, hc)
	var args struct {
		Text string `json:"text"`
	}
	if err := call.DecodeArguments(&args); err != nil {
		return Result{}, err
	}
	if args.Text == "" {
		return Result{}, errors.New("text is required")
	}
	return Result{Content: call.Name + ":" + args.Text}, nil
}

func TestRegistry_ToolsSorted(t *testing.T) {
	r, err := NewRegistryBuilder().
		WithSkill(&echoSkill{name: "b", tools: []string{"zeta", "alpha"}}).
		WithSkill(&echoSkill{name: "a", tools: []string{"mid"}}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	tools := r.Tools()
	want := []string{"alpha", "mid", "zeta"}
	if len(tools) != len(want) {
		t.Fatalf("got %d tools, want %d", len(tools), len(want))
	}
	for i, n := range want {
		if tools[i].Name != n {
			t.Errorf("tools[%d] = %s, want %s", i, tools[i].Name, n)
		}
	}
	if len(r.Skills()) != 2 {
		t.Errorf("expected 2 skills, got %d", len(r.Skills()))
	}
}

func TestRegistry_DuplicateTool(t *testing.T) {
	_, err := NewRegistryBuilder().
		WithSkill(&echoSkill{name: "one", tools: []string{"send"}}).
		WithSkill(&echoSkill{name: "two", tools: []string{"send"}}).
		Build()
	if err == nil || !strings.Contains(err.Error(), "send") {
		t.Fatalf("expected duplicate tool error, got %v", err)
	}
}

func TestRegistry_Dispatch(t *testing.T) {
	s := &echoSkill{name: "echo", tools: []string{"say"}}
	r, err := NewRegistryBuilder().WithSkill(s).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	hc := HostContext{ChatID: 42}
	res, err := r.Dispatch(context.Background(), ToolCall{Name: "say", Arguments: `{"text":"hi"}`}, hc)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Content != "say:hi" {
		t.Errorf("content = %q", res.Content)
	}
	if len(s.seen) != 1 || s.seen[0].ChatID != 42 {
		t.Errorf("host context not passed through: %+v", s.seen)
	}
}

func TestRegistry_DispatchErrors(t *testing.T) {
	r, err := NewRegistryBuilder().WithSkill(&echoSkill{name: "echo", tools: []string{"say"}}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	_, err = r.Dispatch(context.Background(), ToolCall{Name: "missing"}, HostContext{})
	if !errors.Is(err, ErrUnknownTool) {
		t.Errorf("expected ErrUnknownTool, got %v", err)
	}

	_, err = r.Dispatch(context.Background(), ToolCall{Name: "say", Arguments: "{not json"}, HostContext{})
	if err == nil || !strings.Contains(err.Error(), "invalid arguments") {
		t.Errorf("expected argument error, got %v", err)
	}

	_, err = r.Dispatch(context.Background(), ToolCall{Name: "say"}, HostContext{})
	if err == nil || !strings.Contains(err.Error(), "text is required") {
		t.Errorf("expected skill error, got %v", err)
	}
}

func TestRegistry_Definitions(t *testing.T) {
	r, err := NewRegistryBuilder().WithSkill(&echoSkill{name: "echo", tools: []string{"say"}}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	defs := r.Definitions()
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}
	if defs[0]["type"] != "function" {
		t.Errorf("type = %v", defs[0]["type"])
	}
	fn := defs[0]["function"].(map[string]any)
	if fn["name"] != "say" {
		t.Errorf("name = %v", fn["name"])
	}
	params := fn["parameters"].(Schema)
	if params.Type != "object" || len(params.Required) != 1 || params.Required[0] != "text" {
		t.Errorf("parameters = %+v", params)
	}
}
