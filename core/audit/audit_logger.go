package audit

import (
	"log"
	"sort"
	"strings"
	"sync"
	"time"
)

// Event is one security-relevant action on the dev node.
type Event struct {
	Timestamp time.Time
	Type      string // e.g. "Auth", "Transact", "Mine", "RateLimit"
	Entity    string // remote address, wallet address or token subject
	Result    string // "success" or "failure"
	Reason    string
	Metadata  map[string]string
}

// Logger records audit events.
type Logger interface {
	LogEvent(event Event)
}

// StdLogger writes events through the standard logger.
type StdLogger struct{}

// LogEvent writes one "[AUDIT]" line.
func (StdLogger) LogEvent(e Event) {
	log.Printf("[AUDIT] [%s] Entity: %s, Result: %s, Reason: %s%s", e.Type, e.Entity, e.Result, e.Reason, formatMeta(e.Metadata))
}

func formatMeta(meta map[string]string) string {
	if len(meta) == 0 {
		return ""
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(", Metadata:")
	for _, k := range keys {
		b.WriteString(" " + k + "=" + meta[k])
	}
	return b.String()
}

// Memory keeps events in order; tests use it to assert on what was recorded.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

// LogEvent appends e.
func (m *Memory) LogEvent(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

// Events returns a copy of everything recorded so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// OfType returns the recorded events of type t.
func (m *Memory) OfType(t string) []Event {
	var out []Event
	for _, e := range m.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
