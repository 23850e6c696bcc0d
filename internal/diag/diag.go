// Package diag collects compositor diagnostics in a bounded ring so a
// flood of substrate errors cannot grow memory without bound. Every
// recorded event is also mirrored to the process log.
package diag

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Severity classifies a diagnostic event.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one recorded diagnostic.
type Event struct {
	Time     time.Time
	Severity Severity
	Message  string
}

// Ring is a fixed-capacity diagnostic buffer. Oldest events are dropped
// once the capacity is reached. Safe for concurrent use; the IPC server
// reads it from its own goroutine.
type Ring struct {
	mu      sync.Mutex
	events  []Event
	start   int
	count   int
	dropped uint64
}

const defaultCapacity = 256

// NewRing creates a ring holding at most capacity events. A non-positive
// capacity falls back to the default.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Ring{events: make([]Event, capacity)}
}

// Record appends an event, evicting the oldest if the ring is full.
func (r *Ring) Record(sev Severity, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[%s] %s", sev, msg)

	r.mu.Lock()
	defer r.mu.Unlock()
	ev := Event{Time: time.Now(), Severity: sev, Message: msg}
	if r.count < len(r.events) {
		r.events[(r.start+r.count)%len(r.events)] = ev
		r.count++
		return
	}
	r.events[r.start] = ev
	r.start = (r.start + 1) % len(r.events)
	r.dropped++
}

// Recent returns up to n most recent events, oldest first.
func (r *Ring) Recent(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n <= 0 || n > r.count {
		n = r.count
	}
	out := make([]Event, 0, n)
	for i := r.count - n; i < r.count; i++ {
		out = append(out, r.events[(r.start+i)%len(r.events)])
	}
	return out
}

// Dropped reports how many events were evicted to make room.
func (r *Ring) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
