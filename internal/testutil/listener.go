package testutil

import (
	"fmt"
	"sync"

	"github.com/standin-dev/standin/internal/call"
	"github.com/standin-dev/standin/internal/rule"
)

// EventLog is an ordered record of listener notifications shared by the
// capture listeners of one test.
type EventLog struct {
	mu     sync.Mutex
	events []string
}

// Append adds an event to the log.
func (l *EventLog) Append(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

// Events returns the logged events in order.
func (l *EventLog) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	copy(out, l.events)
	return out
}

// CaptureListener records before/after notifications into a shared log as
// "before:<name>" and "after:<name>" entries, so tests can assert the
// nesting order of the listener chain.
type CaptureListener struct {
	Name string
	Log  *EventLog
}

// OnBeforeCallIntercepted implements the interception listener contract.
func (l *CaptureListener) OnBeforeCallIntercepted(c *call.Call) {
	l.Log.Append(fmt.Sprintf("before:%s", l.Name))
}

// OnAfterCallIntercepted implements the interception listener contract.
func (l *CaptureListener) OnAfterCallIntercepted(c *call.Completed, selected rule.Rule) {
	l.Log.Append(fmt.Sprintf("after:%s", l.Name))
}
