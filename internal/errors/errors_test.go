package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessageChainsCause(t *testing.T) {
	cause := New("underlying failure")
	err := Wrap(cause, "loading config")
	if got, want := err.Error(), "loading config: underlying failure"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestWrapOfNilIsLikeNew(t *testing.T) {
	err := Wrap(nil, "no cause here")
	if err.Error() != "no cause here" {
		t.Fatalf("Error() = %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Fatal("expected Unwrap() to return nil when cause is nil")
	}
}

func TestUnwrapAndIsFollowTheChain(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := Wrap(sentinel, "context")
	if !Is(err, sentinel) {
		t.Fatal("expected Is to find the wrapped sentinel")
	}
	if Unwrap(err) != sentinel {
		t.Fatalf("Unwrap(err) = %v, want sentinel", Unwrap(err))
	}
}

func TestStackIsCapturedAtConstruction(t *testing.T) {
	err := New("boom")
	if len(err.Stack()) == 0 {
		t.Fatal("expected a non-empty captured stack trace")
	}
}

func TestFormatPlusVIncludesStack(t *testing.T) {
	err := New("boom")
	full := fmt.Sprintf("%+v", err)
	if !strings.Contains(full, "boom") {
		t.Fatalf("expected %%+v output to include the message, got %q", full)
	}
	if !strings.Contains(full, "at ") {
		t.Fatalf("expected %%+v output to include a stack frame, got %q", full)
	}
}
