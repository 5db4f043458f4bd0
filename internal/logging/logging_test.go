package logging

import (
	"context"
	"testing"
	"time"
)

func TestContextLogIsNoOpWithoutSink(t *testing.T) {
	ContextLog(context.Background(), "hello")
}

func TestContextLogRoutesToAttachedSink(t *testing.T) {
	var got string
	ctx := NewContext(context.Background(), func(msg string) { got = msg })
	ContextLogf(ctx, "count=%d", 3)
	if got != "count=3" {
		t.Fatalf("got %q, want %q", got, "count=3")
	}
}

func TestMultiLoggerFansOutAndRemoves(t *testing.T) {
	a := &BufferLogger{}
	b := &BufferLogger{}
	ml := NewMultiLogger(a, b)
	ml.Log(LevelInfo, time.Time{}, "first")
	if a.String() != "first" || b.String() != "first" {
		t.Fatalf("expected both loggers to receive the message: a=%q b=%q", a.String(), b.String())
	}

	ml.RemoveLogger(a)
	ml.Log(LevelInfo, time.Time{}, "second")
	if a.String() != "first" {
		t.Fatalf("expected a removed logger to stop receiving messages, got %q", a.String())
	}
	if b.String() != "first\nsecond" {
		t.Fatalf("expected b to accumulate both messages, got %q", b.String())
	}
}

func TestBufferLoggerJoinsWithNewlines(t *testing.T) {
	b := &BufferLogger{}
	b.Log(LevelDebug, time.Time{}, "a")
	b.Log(LevelDebug, time.Time{}, "b")
	if b.String() != "a\nb" {
		t.Fatalf("String() = %q", b.String())
	}
}

