package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMakeCodeParseCode(t *testing.T) {
	code := MakeCode(ServiceAnalysis, CategoryResource, 2)
	if code != 2004002 {
		t.Errorf("MakeCode() = %d, want 2004002", code)
	}

	service, category, sequence := ParseCode(code)
	if service != ServiceAnalysis || category != CategoryResource || sequence != 2 {
		t.Errorf("ParseCode(%d) = (%d, %d, %d)", code, service, category, sequence)
	}
}

func TestWithCausePreservesCode(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrVectorFetch.WithCause(cause)

	if err.Code != ErrVectorFetch.Code {
		t.Errorf("WithCause changed code: %d != %d", err.Code, ErrVectorFetch.Code)
	}
	if !errors.Is(err, ErrVectorFetch) {
		t.Error("errors.Is should match the base errno")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should unwrap to the cause")
	}

	// Original must stay untouched
	if ErrVectorFetch.cause != nil {
		t.Error("WithCause must not mutate the registered errno")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil) != nil {
		t.Error("FromError(nil) should be nil")
	}

	plain := errors.New("boom")
	e := FromError(plain)
	if e.Code != ErrInternal.Code {
		t.Errorf("FromError(plain).Code = %d, want %d", e.Code, ErrInternal.Code)
	}

	wrapped := fmt.Errorf("store: %w", ErrWorkspaceNotFound)
	e = FromError(wrapped)
	if e.Code != ErrWorkspaceNotFound.Code {
		t.Errorf("FromError(wrapped).Code = %d, want %d", e.Code, ErrWorkspaceNotFound.Code)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{ErrVectorFetch, true},
		{ErrLLMTimeout, true},
		{ErrLLMUnavailable, true},
		{ErrWorkspaceNotFound, false},
		{ErrLLMResponseInvalid, false},
		{errors.New("plain"), false},
	}
	for _, c := range cases {
		if got := IsTransient(c.err); got != c.want {
			t.Errorf("IsTransient(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestHTTPStatusFallback(t *testing.T) {
	e := &Errno{Code: 1}
	if e.HTTPStatus() != http.StatusInternalServerError {
		t.Errorf("HTTPStatus() = %d, want 500", e.HTTPStatus())
	}
	if ErrWorkspaceNotFound.HTTPStatus() != http.StatusNotFound {
		t.Errorf("ErrWorkspaceNotFound.HTTPStatus() = %d, want 404", ErrWorkspaceNotFound.HTTPStatus())
	}
}
