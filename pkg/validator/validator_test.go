package validator

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	Name     string `json:"name" validate:"required"`
	Language string `json:"language" validate:"required,oneof=fr en de"`
}

func TestValidateUsesJSONTagNames(t *testing.T) {
	v := New()

	err := v.Validate(&sampleRequest{Language: "en"})
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if !strings.Contains(err.Error(), "name") || strings.Contains(err.Error(), "Name") {
		t.Errorf("field name should come from the json tag, got %q", err.Error())
	}
}

func TestValidateWithLangTranslates(t *testing.T) {
	v := New()

	failures := v.ValidateWithLang(&sampleRequest{Name: "x", Language: "xx"}, LangZH)
	if !failures.HasErrors() {
		t.Fatal("expected validation failure")
	}
	if failures.Errors[0].Field != "language" {
		t.Errorf("field = %q, want language", failures.Errors[0].Field)
	}
	if failures.First() == "" {
		t.Error("translated message missing")
	}

	if v.ValidateWithLang(&sampleRequest{Name: "x", Language: "en"}, LangZH) != nil {
		t.Error("valid struct should produce no failures")
	}
}

func TestStructUsesGlobal(t *testing.T) {
	if err := Struct(&sampleRequest{Name: "x", Language: "fr"}); err != nil {
		t.Errorf("Struct: %v", err)
	}
	if err := Struct(&sampleRequest{}); err == nil {
		t.Error("expected validation failure")
	}
}
