package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/crystaldolphin/crystalgate/internal/gateway"
	"github.com/crystaldolphin/crystalgate/internal/skill"
)

// fakeAPI is a Bot API stand-in recording every request body.
type fakeAPI struct {
	mu     sync.Mutex
	bodies []map[string]any
	// rejectHTML makes sendMessage fail with 400 when parse_mode is set.
	rejectHTML bool
	updates    string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	body := map[string]any{}
	_ = json.Unmarshal(data, &body)

	f.mu.Lock()
	f.bodies = append(f.bodies, body)
	n := len(f.bodies)
	f.mu.Unlock()

	switch {
	case strings.HasSuffix(r.URL.Path, "/getUpdates"):
		w.Write([]byte(f.updates))
	case f.rejectHTML && body["parse_mode"] != nil:
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: can't parse entities"}`))
	default:
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": map[string]any{
				"message_id": 100 + n,
				"date":       1700000000,
				"chat":       map[string]any{"id": body["chat_id"]},
				"text":       body["text"],
			},
		})
	}
}

func newTestSkill(t *testing.T, api *fakeAPI) *Skill {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return New(gateway.New(gateway.WithBaseURL(srv.URL)), "tok")
}

func TestListTools(t *testing.T) {
	s := New(nil, "tok")
	tools := s.ListTools()
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	if tools[0].Name != ToolSendMessage || tools[1].Name != ToolGetUpdates {
		t.Errorf("unexpected tool names: %s, %s", tools[0].Name, tools[1].Name)
	}
	if len(tools[0].InputSchema.Required) != 1 || tools[0].InputSchema.Required[0] != "text" {
		t.Errorf("send_message required = %v", tools[0].InputSchema.Required)
	}
}

func TestSendMessage_UsesHostContext(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSkill(t, api)

	res, err := s.Execute(context.Background(),
		skill.ToolCall{Name: ToolSendMessage, Arguments: `{"text":"hello"}`},
		skill.HostContext{ChatID: 555, ThreadID: 7})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(res.Content, "chat 555") {
		t.Errorf("content = %q", res.Content)
	}
	if len(api.bodies) != 1 {
		t.Fatalf("expected 1 request, got %d", len(api.bodies))
	}
	b := api.bodies[0]
	if b["chat_id"] != float64(555) || b["message_thread_id"] != float64(7) || b["text"] != "hello" {
		t.Errorf("body = %v", b)
	}
	if _, ok := b["parse_mode"]; ok {
		t.Errorf("plain text must not set parse_mode")
	}
}

func TestSendMessage_ExplicitChatOverridesContext(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSkill(t, api)

	_, err := s.Execute(context.Background(),
		skill.ToolCall{Name: ToolSendMessage, Arguments: `{"text":"x","chat_id":9}`},
		skill.HostContext{ChatID: 555})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if api.bodies[0]["chat_id"] != float64(9) {
		t.Errorf("chat_id = %v, want 9", api.bodies[0]["chat_id"])
	}
	if _, ok := api.bodies[0]["message_thread_id"]; ok {
		t.Errorf("thread must be omitted")
	}
}

func TestSendMessage_Markdown(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSkill(t, api)

	_, err := s.Execute(context.Background(),
		skill.ToolCall{Name: ToolSendMessage, Arguments: `{"text":"**bold** <x>","format":"markdown"}`},
		skill.HostContext{ChatID: 1})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	b := api.bodies[0]
	if b["parse_mode"] != "HTML" {
		t.Errorf("parse_mode = %v", b["parse_mode"])
	}
	if b["text"] != "<b>bold</b> &lt;x&gt;" {
		t.Errorf("text = %q", b["text"])
	}
}

func TestSendMessage_MarkdownFallsBackToPlain(t *testing.T) {
	api := &fakeAPI{rejectHTML: true}
	s := newTestSkill(t, api)

	_, err := s.Execute(context.Background(),
		skill.ToolCall{Name: ToolSendMessage, Arguments: `{"text":"**bold**","format":"markdown"}`},
		skill.HostContext{ChatID: 1})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(api.bodies) != 2 {
		t.Fatalf("expected HTML attempt plus plain retry, got %d requests", len(api.bodies))
	}
	if api.bodies[1]["text"] != "**bold**" {
		t.Errorf("retry text = %v", api.bodies[1]["text"])
	}
	if _, ok := api.bodies[1]["parse_mode"]; ok {
		t.Errorf("retry must not set parse_mode")
	}
}

func TestSendMessage_HTMLErrorPropagates(t *testing.T) {
	api := &fakeAPI{rejectHTML: true}
	s := newTestSkill(t, api)

	_, err := s.Execute(context.Background(),
		skill.ToolCall{Name: ToolSendMessage, Arguments: `{"text":"<b>","format":"html"}`},
		skill.HostContext{ChatID: 1})
	gwErr, ok := gateway.AsError(err)
	if !ok || gwErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 gateway error, got %v", err)
	}
}

func TestSendMessage_SplitsLongText(t *testing.T) {
	api := &fakeAPI{}
	s := newTestSkill(t, api)

	text := strings.Repeat("word ", 1000) // 5000 chars
	res, err := s.Execute(context.Background(),
		skill.ToolCall{Name: ToolSendMessage, Arguments: `{"text":"` + text + `"}`},
		skill.HostContext{ChatID: 1})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(api.bodies) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(api.bodies))
	}
	if !strings.HasPrefix(res.Content, "Sent 2 message(s)") {
		t.Errorf("content = %q", res.Content)
	}
}

func TestSendMessage_Validation(t *testing.T) {
	s := New(nil, "tok")
	cases := []struct {
		name string
		args string
		hc   skill.HostContext
		want string
	}{
		{"empty text", `{"text":"  "}`, skill.HostContext{ChatID: 1}, "text is required"},
		{"no chat", `{"text":"hi"}`, skill.HostContext{}, "no target chat"},
		{"bad format", `{"text":"hi","format":"rtf"}`, skill.HostContext{ChatID: 1}, "unsupported format"},
		{"bad json", `{"text":`, skill.HostContext{ChatID: 1}, "invalid arguments"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Execute(context.Background(), skill.ToolCall{Name: ToolSendMessage, Arguments: tc.args}, tc.hc)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestGetUpdates(t *testing.T) {
	api := &fakeAPI{updates: `{"ok":true,"result":[
		{"update_id":7,"message":{"message_id":1,"date":1700000000,"chat":{"id":10,"type":"private"},"from":{"id":3,"username":"ann"},"text":"hi"}},
		{"update_id":8,"message":{"message_id":2,"date":1700000001,"chat":{"id":11,"type":"supergroup"},"from":{"id":4},"message_thread_id":5,"text":"yo"}}
	]}`}
	s := newTestSkill(t, api)

	res, err := s.Execute(context.Background(),
		skill.ToolCall{Name: ToolGetUpdates, Arguments: `{"offset":7}`}, skill.HostContext{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if api.bodies[0]["offset"] != float64(7) || api.bodies[0]["timeout"] != float64(0) {
		t.Errorf("body = %v", api.bodies[0])
	}

	var got []updateSummary
	if err := json.Unmarshal([]byte(res.Content), &got); err != nil {
		t.Fatalf("content is not JSON: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(got))
	}
	if got[0].From != "ann" || got[0].ChatID != 10 || got[0].Text != "hi" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].From != "4" || got[1].ThreadID != 5 {
		t.Errorf("second = %+v", got[1])
	}
}

func TestGetUpdates_ChatLimits(t *testing.T) {
	api := &fakeAPI{updates: `{"ok":true,"result":[]}`}
	s := newTestSkill(t, api)
	fromChat := skill.HostContext{ChatID: 10}

	_, err := s.Execute(context.Background(),
		skill.ToolCall{Name: ToolGetUpdates, Arguments: `{"timeout":100000}`}, fromChat)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if api.bodies[0]["timeout"] != float64(maxToolPollTimeout) {
		t.Errorf("timeout = %v, want %d", api.bodies[0]["timeout"], maxToolPollTimeout)
	}

	_, err = s.Execute(context.Background(),
		skill.ToolCall{Name: ToolGetUpdates, Arguments: `{"offset":99}`}, fromChat)
	if err == nil || !strings.Contains(err.Error(), "offset") {
		t.Errorf("err = %v, want offset rejected", err)
	}
	if len(api.bodies) != 1 {
		t.Errorf("rejected call reached the API: %d requests", len(api.bodies))
	}
}

func TestExecute_UnknownTool(t *testing.T) {
	_, err := New(nil, "tok").Execute(context.Background(), skill.ToolCall{Name: "nope"}, skill.HostContext{})
	if err == nil || !strings.Contains(err.Error(), "unknown tool") {
		t.Errorf("err = %v", err)
	}
}
