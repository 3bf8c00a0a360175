package events

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

// TestSinkEarlyAccumulation verifies lines are retained in order and mirrored
// to the console writer in the canonical shape.
func TestSinkEarlyAccumulation(t *testing.T) {
	var buf bytes.Buffer
	s := NewSink(&buf)

	s.Logf("x_p", "p", "Moving directory '%s' to '%s'.", "x_p", "x_p.bak000")
	s.Logf("x_p", "p", "Removing directory '%s'.", "x_p")

	want := []string{
		"SVY [x_p] Moving directory 'x_p' to 'x_p.bak000'.",
		"SVY [x_p] Removing directory 'x_p'.",
	}
	if got := s.Early(); !reflect.DeepEqual(got, want) {
		t.Errorf("Early() = %q, want %q", got, want)
	}
	if got := buf.String(); got != strings.Join(want, "\n")+"\n" {
		t.Errorf("console output = %q", got)
	}
}

// TestSinkEarlyCopy verifies Early returns a copy, not the internal slice.
func TestSinkEarlyCopy(t *testing.T) {
	s := NewSink(nil)
	s.Logf("d", "", "one")

	early := s.Early()
	early[0] = "mutated"

	if got := s.Early()[0]; got == "mutated" {
		t.Error("Early() exposed internal state")
	}
}

// TestSinkSubscribe verifies fan-out and idempotent close.
func TestSinkSubscribe(t *testing.T) {
	s := NewSink(nil)
	ch := s.Subscribe(4)

	s.Logf("d", "p", "hello")

	ev := <-ch
	if ev.Message != "hello" || ev.Task != "p" || ev.Dir != "d" {
		t.Errorf("unexpected event: %+v", ev)
	}

	s.Close()
	s.Close() // idempotent

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed")
	}

	// Logging after close must not panic and still retains the line.
	s.Logf("d", "p", "late")
	if got := len(s.Early()); got != 2 {
		t.Errorf("Early() has %d lines, want 2", got)
	}
}

// TestSinkNonBlockingPublish verifies a full subscriber buffer drops events
// instead of blocking the logger.
func TestSinkNonBlockingPublish(t *testing.T) {
	s := NewSink(nil)
	ch := s.Subscribe(1)

	s.Logf("d", "", "first")
	s.Logf("d", "", "second") // dropped for this subscriber

	ev := <-ch
	if ev.Message != "first" {
		t.Errorf("message = %q, want %q", ev.Message, "first")
	}
	select {
	case ev := <-ch:
		t.Errorf("unexpected second event: %+v", ev)
	default:
	}
}
