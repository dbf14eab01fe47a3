package biz

import (
	"context"
	"strings"
	"testing"

	"github.com/kart-io/newsloom/internal/model"
	"github.com/kart-io/newsloom/pkg/llm/prompt"
)

func TestClusterEvaluatorInclude(t *testing.T) {
	gw := &fakeGateway{reply: func(_ string, _ map[string]string) (string, error) {
		return `{"decision":"include","justification":"on topic"}`, nil
	}}
	e := NewClusterEvaluator(gw)

	eval, err := e.Evaluate(context.Background(), testWorkspace(), &model.ClusterOverview{Title: "t", Summary: "s"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Decision != model.DecisionInclude {
		t.Errorf("decision = %s, want include", eval.Decision)
	}
	if eval.Justification != "on topic" {
		t.Errorf("justification = %q", eval.Justification)
	}
	if eval.IrrelevancyReason != "" {
		t.Errorf("included cluster must not carry an irrelevancy reason, got %q", eval.IrrelevancyReason)
	}
}

func TestClusterEvaluatorExclude(t *testing.T) {
	gw := &fakeGateway{reply: func(_ string, _ map[string]string) (string, error) {
		return `{"decision":"exclude","justification":"off topic"}`, nil
	}}
	e := NewClusterEvaluator(gw)

	eval, err := e.Evaluate(context.Background(), testWorkspace(), &model.ClusterOverview{Title: "t", Summary: "s"})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Decision != model.DecisionExclude {
		t.Errorf("decision = %s, want exclude", eval.Decision)
	}
	if eval.IrrelevancyReason != "off topic" {
		t.Errorf("irrelevancy_reason = %q", eval.IrrelevancyReason)
	}
}

func TestClusterEvaluatorPromptVars(t *testing.T) {
	gw := &fakeGateway{reply: func(_ string, _ map[string]string) (string, error) {
		return `{"decision":"include","justification":"ok"}`, nil
	}}
	e := NewClusterEvaluator(gw)

	workspace := testWorkspace()
	workspace.RelevanceCriteria = "only datacenter stories"
	if _, err := e.Evaluate(context.Background(), workspace, &model.ClusterOverview{Title: "T1", Summary: "S1"}); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	call := gw.callsFor(prompt.ClusterEval)[0]
	if call.vars["title"] != "T1" || call.vars["summary"] != "S1" {
		t.Errorf("vars = %v", call.vars)
	}
	focus := call.vars["workspace_description"]
	if !strings.Contains(focus, workspace.Description) || !strings.Contains(focus, "only datacenter stories") {
		t.Errorf("workspace focus missing description or criteria: %q", focus)
	}
}
