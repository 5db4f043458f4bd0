// Package events is the buffered channel wrapper around model.Event the
// external interface (spec.md §6 "Event stream") streams to a renderer.
// Grounded in the teacher's internal/control package, which frames its own
// RunStart/EntityStart/.../RunEnd messages over a JSON pipe to a
// cross-process reader; here the transport is an in-process Go channel of
// the closed model.Event sum type instead, since cross-process parallelism
// is out of scope (spec.md §1 Non-goals).
package events

import "gotest/internal/model"

// defaultBufferSize bounds how many events may be queued before a sender
// blocks waiting for the consumer to drain the stream.
const defaultBufferSize = 64

// Stream is a single run's event channel, opened with RunStarted and closed
// with RunEnded (spec.md §6).
type Stream struct {
	ch chan model.Event
}

// NewStream creates a Stream with the default buffer size.
func NewStream() *Stream {
	return &Stream{ch: make(chan model.Event, defaultBufferSize)}
}

// Events returns the receive-only channel a renderer reads from.
func (s *Stream) Events() <-chan model.Event {
	return s.ch
}

// Emit sends ev, blocking if the channel is full. It is safe to call from
// multiple goroutines.
func (s *Stream) Emit(ev model.Event) {
	s.ch <- ev
}

// Close closes the underlying channel. Callers must not call Emit after
// Close.
func (s *Stream) Close() {
	close(s.ch)
}

// Collect drains every event from ch into a slice, for tests and any
// renderer that doesn't need true streaming.
func Collect(ch <-chan model.Event) []model.Event {
	var out []model.Event
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}
