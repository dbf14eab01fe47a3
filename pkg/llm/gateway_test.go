package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kart-io/newsloom/pkg/llm/prompt"
	errs "github.com/kart-io/newsloom/pkg/utils/errors"
)

type fakeRegistry struct {
	tpl *prompt.Template
}

func (r *fakeRegistry) Get(_ context.Context, _ string) (*prompt.Template, error) {
	return r.tpl, nil
}

type fakeChatProvider struct {
	generateOutputs []string
	chatOutputs     []string
	generateCalls   int
	chatCalls       int
	lastMessages    []Message
	err             error
}

func (p *fakeChatProvider) Chat(_ context.Context, messages []Message) (string, error) {
	p.chatCalls++
	p.lastMessages = messages
	if p.err != nil {
		return "", p.err
	}
	out := p.chatOutputs[0]
	if len(p.chatOutputs) > 1 {
		p.chatOutputs = p.chatOutputs[1:]
	}
	return out, nil
}

func (p *fakeChatProvider) Generate(_ context.Context, _ string, _ string) (string, error) {
	p.generateCalls++
	if p.err != nil {
		return "", p.err
	}
	out := p.generateOutputs[0]
	if len(p.generateOutputs) > 1 {
		p.generateOutputs = p.generateOutputs[1:]
	}
	return out, nil
}

func (p *fakeChatProvider) Name() string { return "fake" }

type overviewOutput struct {
	Title   string `json:"title" validate:"required"`
	Summary string `json:"summary" validate:"required"`
}

func testRegistry() prompt.Registry {
	return &fakeRegistry{tpl: &prompt.Template{
		Name:         "articles-overview",
		SystemPrompt: "You are an assistant.",
		UserTemplate: "Summarize: {{articles}}",
	}}
}

func TestGatewayCallParsesFencedJSON(t *testing.T) {
	provider := &fakeChatProvider{
		generateOutputs: []string{"Here you go:\n```json\n{\"title\":\"AI week\",\"summary\":\"Busy.\"}\n```"},
	}
	gw := NewGateway(provider, testRegistry(), nil)

	var out overviewOutput
	err := gw.Call(context.Background(), "articles-overview", map[string]string{"articles": "a, b"}, &out)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out.Title != "AI week" || out.Summary != "Busy." {
		t.Errorf("out = %+v", out)
	}
	if provider.chatCalls != 0 {
		t.Error("no corrective retry expected on valid output")
	}
}

func TestGatewayCorrectiveRetry(t *testing.T) {
	provider := &fakeChatProvider{
		generateOutputs: []string{`{"title":"AI week"}`},
		chatOutputs:     []string{`{"title":"AI week","summary":"Busy."}`},
	}
	gw := NewGateway(provider, testRegistry(), nil)

	var out overviewOutput
	err := gw.Call(context.Background(), "articles-overview", map[string]string{"articles": "a"}, &out)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if out.Summary != "Busy." {
		t.Errorf("out = %+v", out)
	}
	if provider.chatCalls != 1 {
		t.Fatalf("chatCalls = %d, want 1", provider.chatCalls)
	}

	last := provider.lastMessages[len(provider.lastMessages)-1]
	if last.Role != RoleUser || !strings.Contains(last.Content, "rejected") {
		t.Errorf("correction message missing, got %+v", last)
	}
}

func TestGatewayInvalidAfterRetry(t *testing.T) {
	provider := &fakeChatProvider{
		generateOutputs: []string{"not json at all"},
		chatOutputs:     []string{"still not json"},
	}
	gw := NewGateway(provider, testRegistry(), nil)

	var out overviewOutput
	err := gw.Call(context.Background(), "articles-overview", map[string]string{"articles": "a"}, &out)
	if !errs.IsCode(err, errs.ErrLLMResponseInvalid.Code) {
		t.Fatalf("err = %v, want ErrLLMResponseInvalid", err)
	}
}

func TestGatewayTransportFailure(t *testing.T) {
	provider := &fakeChatProvider{err: errors.New("connection refused")}
	gw := NewGateway(provider, testRegistry(), nil)

	var out overviewOutput
	err := gw.Call(context.Background(), "articles-overview", map[string]string{"articles": "a"}, &out)
	if !errs.IsCode(err, errs.ErrLLMUnavailable.Code) {
		t.Fatalf("err = %v, want ErrLLMUnavailable", err)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prefix {\"a\":1} suffix", `{"a":1}`},
		{`[1,2]`, `[1,2]`},
		{"no json here", ""},
	}
	for _, c := range cases {
		if got := extractJSON(c.in); got != c.want {
			t.Errorf("extractJSON(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
