package prompt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTemplateRender(t *testing.T) {
	tpl := &Template{
		Name:         "greeting",
		SystemPrompt: "Respond in {{language}}.",
		UserTemplate: "Say hello to {{name}}.",
	}

	system, user, err := tpl.Render(map[string]string{
		"language": "en",
		"name":     "world",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if system != "Respond in en." {
		t.Errorf("system = %q", system)
	}
	if user != "Say hello to world." {
		t.Errorf("user = %q", user)
	}
}

func TestTemplateRenderUnboundVariable(t *testing.T) {
	tpl := &Template{
		Name:         "greeting",
		UserTemplate: "Say hello to {{name}}.",
	}

	if _, _, err := tpl.Render(nil); err == nil {
		t.Fatal("Render with unbound variable must fail")
	}
}

func TestStaticRegistryCoversPipelinePrompts(t *testing.T) {
	reg := NewStaticRegistry()
	ctx := context.Background()

	for _, name := range []string{ArticlesOverview, ClusterEval, ArticleEval, BigSummary, ConversationStarters} {
		tpl, err := reg.Get(ctx, name)
		if err != nil {
			t.Fatalf("Get(%s): %v", name, err)
		}
		if tpl.UserTemplate == "" {
			t.Errorf("builtin %s has empty user template", name)
		}
	}

	if _, err := reg.Get(ctx, "unknown-prompt"); err == nil {
		t.Error("unknown prompt must fail")
	}
}

func TestHTTPRegistryGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/prompts/cluster-eval") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"cluster-eval","system_prompt":"sys","user_template":"user {{x}}"}`))
	}))
	defer srv.Close()

	reg := NewHTTPRegistry(srv.URL, 2*time.Second, 0, nil)
	tpl, err := reg.Get(context.Background(), ClusterEval)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tpl.SystemPrompt != "sys" || tpl.UserTemplate != "user {{x}}" {
		t.Errorf("unexpected template: %+v", tpl)
	}
}

func TestHTTPRegistryFallsBackToBuiltin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	reg := NewHTTPRegistry(srv.URL, 2*time.Second, 0, NewStaticRegistry())
	tpl, err := reg.Get(context.Background(), BigSummary)
	if err != nil {
		t.Fatalf("Get with fallback: %v", err)
	}
	if tpl.Name != BigSummary {
		t.Errorf("fallback template name = %s", tpl.Name)
	}
}
