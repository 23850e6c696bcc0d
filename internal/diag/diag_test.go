package diag

import (
	"fmt"
	"testing"
)

func TestRingKeepsMostRecent(t *testing.T) {
	r := NewRing(4)
	for i := 0; i < 10; i++ {
		r.Record(Info, "event %d", i)
	}

	events := r.Recent(0)
	if len(events) != 4 {
		t.Fatalf("len = %d, want 4", len(events))
	}
	for i, ev := range events {
		want := fmt.Sprintf("event %d", 6+i)
		if ev.Message != want {
			t.Fatalf("events[%d] = %q, want %q", i, ev.Message, want)
		}
	}
	if r.Dropped() != 6 {
		t.Fatalf("dropped = %d, want 6", r.Dropped())
	}
}

func TestRecentLimit(t *testing.T) {
	r := NewRing(8)
	for i := 0; i < 5; i++ {
		r.Record(Warning, "w%d", i)
	}
	events := r.Recent(2)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Message != "w3" || events[1].Message != "w4" {
		t.Fatalf("events = %v", events)
	}
}

func TestSeverityString(t *testing.T) {
	if Info.String() != "info" || Warning.String() != "warning" || Error.String() != "error" {
		t.Fatalf("severity strings wrong")
	}
}
