package biz

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kart-io/newsloom/internal/model"
	"github.com/kart-io/newsloom/pkg/llm/prompt"
	"github.com/kart-io/newsloom/pkg/utils/json"
)

type gatewayCall struct {
	prompt string
	vars   map[string]string
}

// fakeGateway 返回按提示词名配置的 JSON 响应。
type fakeGateway struct {
	mu    sync.Mutex
	calls []gatewayCall
	reply func(promptName string, vars map[string]string) (string, error)
}

func (g *fakeGateway) Call(_ context.Context, promptName string, vars map[string]string, out any) error {
	g.mu.Lock()
	g.calls = append(g.calls, gatewayCall{prompt: promptName, vars: vars})
	g.mu.Unlock()

	raw, err := g.reply(promptName, vars)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

func (g *fakeGateway) callsFor(promptName string) []gatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []gatewayCall
	for _, c := range g.calls {
		if c.prompt == promptName {
			out = append(out, c)
		}
	}
	return out
}

func testWorkspace() *model.Workspace {
	return &model.Workspace{
		ID:          "ws-1",
		Name:        "AI infra",
		Description: "AI infrastructure news",
		Language:    model.LanguageEnglish,
		Enabled:     true,
	}
}

func testArticles(n int) []*model.Article {
	out := make([]*model.Article, n)
	for i := range out {
		out[i] = &model.Article{
			ID:      string(rune('a' + i)),
			Title:   "title " + string(rune('a'+i)),
			URL:     "https://example.com/" + string(rune('a'+i)),
			Body:    "body " + string(rune('a'+i)),
			Content: "content " + string(rune('a'+i)),
			Date:    time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
			Source:  "example.com",
		}
	}
	return out
}

func TestOverviewGeneratorMapsOutput(t *testing.T) {
	gw := &fakeGateway{reply: func(name string, _ map[string]string) (string, error) {
		if name != prompt.ArticlesOverview {
			t.Fatalf("prompt = %s, want %s", name, prompt.ArticlesOverview)
		}
		return `{"title":"GPU supply","summary":"Shortage continues."}`, nil
	}}
	gen := NewOverviewGenerator(gw, nil, &OverviewConfig{MaxArticles: 30, IncludeContents: true})

	overview, firstImage, err := gen.Generate(context.Background(), testWorkspace(), testArticles(3))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if overview.Title != "GPU supply" || overview.Summary != "Shortage continues." {
		t.Errorf("overview = %+v", overview)
	}
	if firstImage != "" {
		t.Errorf("firstImage = %q, want empty without probe", firstImage)
	}

	call := gw.callsFor(prompt.ArticlesOverview)[0]
	if call.vars["language"] != model.LanguageEnglish {
		t.Errorf("language = %q", call.vars["language"])
	}
	if !strings.Contains(call.vars["articles"], "content a") {
		t.Errorf("articles block missing contents: %q", call.vars["articles"])
	}
}

func TestOverviewGeneratorCapsArticles(t *testing.T) {
	gw := &fakeGateway{reply: func(_ string, _ map[string]string) (string, error) {
		return `{"title":"t","summary":"s"}`, nil
	}}
	gen := NewOverviewGenerator(gw, nil, &OverviewConfig{MaxArticles: 2, IncludeContents: false})

	if _, _, err := gen.Generate(context.Background(), testWorkspace(), testArticles(5)); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	block := gw.callsFor(prompt.ArticlesOverview)[0].vars["articles"]
	if strings.Count(block, "title: ") != 2 {
		t.Errorf("articles in prompt = %d, want 2", strings.Count(block, "title: "))
	}
	if strings.Contains(block, "content ") {
		t.Errorf("articles block should not include contents: %q", block)
	}
}

func TestOverviewGeneratorPropagatesError(t *testing.T) {
	gw := &fakeGateway{reply: func(_ string, _ map[string]string) (string, error) {
		return "", errors.New("provider down")
	}}
	gen := NewOverviewGenerator(gw, nil, nil)

	if _, _, err := gen.Generate(context.Background(), testWorkspace(), testArticles(3)); err == nil {
		t.Fatal("Generate should fail when the gateway fails")
	}
}
