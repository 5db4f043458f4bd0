package stack

import (
	"strings"
	"testing"
)

func TestNewCapturesCallers(t *testing.T) {
	s := New(0)
	if len(s) == 0 {
		t.Fatal("expected a non-empty stack")
	}
}

func TestStringIncludesAtPrefix(t *testing.T) {
	s := New(0)
	if !strings.Contains(s.String(), "\tat ") {
		t.Fatalf("expected formatted stack to contain frame lines, got %q", s.String())
	}
}

func TestFramesReturnsInnermostFirst(t *testing.T) {
	s := New(0)
	frames := s.Frames()
	if len(frames) == 0 {
		t.Fatal("expected at least one frame")
	}
	if !strings.Contains(frames[0].Function, "TestFramesReturnsInnermostFirst") {
		t.Fatalf("expected the innermost frame to be this test function, got %q", frames[0].Function)
	}
}
