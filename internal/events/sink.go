// Package events carries the process-scoped log sink. Every line logged
// before a task's own engine log exists is retained, so the dispatcher can
// replay accumulated startup messages into each engine it constructs.
package events

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Event is one log line produced during a run.
type Event struct {
	Dir     string // working directory the line concerns, may be empty
	Task    string // task name, empty for the bare task
	Message string
	Time    time.Time
}

// Line renders the event in the canonical console shape.
func (e Event) Line() string {
	return fmt.Sprintf("SVY [%s] %s", e.Dir, e.Message)
}

// Sink collects log lines for the lifetime of one process invocation. Lines
// are mirrored to the console writer, retained for early-log replay, and
// fanned out to subscribers over buffered channels. Publish never blocks:
// events are dropped for subscribers whose buffer is full.
type Sink struct {
	mu     sync.Mutex
	out    io.Writer
	early  []string
	subs   []chan Event
	closed bool
}

// NewSink creates a sink writing console lines to out.
func NewSink(out io.Writer) *Sink {
	return &Sink{out: out}
}

// Logf records a log line for the given directory and task.
func (s *Sink) Logf(dir, task, format string, args ...any) {
	ev := Event{
		Dir:     dir,
		Task:    task,
		Message: fmt.Sprintf(format, args...),
		Time:    time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.early = append(s.early, ev.Line())
	if s.out != nil {
		fmt.Fprintln(s.out, ev.Line())
	}

	if s.closed {
		return
	}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Early returns a copy of every line logged so far.
func (s *Sink) Early() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]string, len(s.early))
	copy(lines, s.early)
	return lines
}

// Subscribe returns a channel receiving every subsequent event. bufSize
// defaults to 256 if <= 0.
func (s *Sink) Subscribe(bufSize int) <-chan Event {
	if bufSize <= 0 {
		bufSize = 256
	}
	ch := make(chan Event, bufSize)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(ch)
		return ch
	}
	s.subs = append(s.subs, ch)
	return ch
}

// Close closes all subscriber channels. Safe to call multiple times.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for _, ch := range s.subs {
		close(ch)
	}
}
