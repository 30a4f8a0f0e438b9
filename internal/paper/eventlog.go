// Package paper implements the virtual trading books: spot and leveraged
// margin accounting, plus the event log and trade recorder presentation reads.
package paper

import (
	"fmt"
	"sync"
	"time"
)

// EventLogSize caps how many entries the log retains.
const EventLogSize = 100

// EventLog keeps a bounded, newest-first list of human-readable lines. It is
// observational only: nothing in the trading path reads it back.
type EventLog struct {
	mu      sync.Mutex
	entries []string
}

// NewEventLog returns an empty log.
func NewEventLog() *EventLog {
	return &EventLog{entries: make([]string, 0, EventLogSize)}
}

// Addf prepends a timestamped entry, dropping the oldest once full.
func (l *EventLog) Addf(format string, args ...any) {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]string{line}, l.entries...)
	if len(l.entries) > EventLogSize {
		l.entries = l.entries[:EventLogSize]
	}
}

// Entries returns a copy of the log, newest first.
func (l *EventLog) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}
