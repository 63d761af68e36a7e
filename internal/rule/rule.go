// Package rule defines the behavior objects dispatched by the interception
// engine: the Rule capability interface, the counted Entry wrapper stored
// in chains, and the ordered Chain with first-match selection.
package rule

import (
	"github.com/standin-dev/standin/internal/call"
)

// Rule is an open polymorphic behavior with exactly three capabilities:
// whether it applies to a call, executing against a call, and an optional
// cap on how many times it may fire.
//
// Reserved system rules are fixed variants constructed once by the manager;
// user rules are runtime-supplied implementations of the same interface.
// Apply may fail; the engine propagates that failure unchanged.
type Rule interface {
	// AppliesTo reports whether the rule handles the given call.
	AppliesTo(c *call.Call) bool

	// Apply executes the rule against the call. The call is writable for
	// the duration of Apply and for no longer.
	Apply(c *call.Call) error

	// MaxInvocations returns the maximum number of times the rule may
	// fire, and whether such a bound exists. Absent means unbounded.
	MaxInvocations() (int, bool)
}

// Entry wraps a Rule with its invocation counter. Entries are the unit
// stored in rule chains.
//
// INVARIANT: the counter never exceeds the rule's bound when one exists.
// This is enforced by exclusion from selection, never by refusing an
// execution that was already selected.
type Entry struct {
	rule        Rule
	invocations int
}

// NewEntry wraps a rule in a fresh entry with a zero counter.
func NewEntry(r Rule) *Entry {
	return &Entry{rule: r}
}

// Rule returns the wrapped rule.
func (e *Entry) Rule() Rule {
	return e.rule
}

// Invocations returns how many times this entry has been selected and
// applied.
func (e *Entry) Invocations() int {
	return e.invocations
}

// RecordInvocation increments the counter. Called exactly once per
// selection, immediately before Apply.
func (e *Entry) RecordInvocation() {
	e.invocations++
}

// WithinQuota reports whether the entry may still be selected.
func (e *Entry) WithinQuota() bool {
	max, ok := e.rule.MaxInvocations()
	if !ok {
		return true
	}
	return e.invocations < max
}

// funcRule adapts explicit capability functions into a Rule. Used for user
// rules built from fixtures, harness scenarios, and tests.
type funcRule struct {
	name    string
	applies func(c *call.Call) bool
	apply   func(c *call.Call) error
	max     int
	bounded bool
}

// New returns a rule built from capability functions, with no invocation
// bound. A nil applies function matches every call.
func New(name string, applies func(c *call.Call) bool, apply func(c *call.Call) error) Rule {
	return &funcRule{name: name, applies: applies, apply: apply}
}

// NewLimited returns a rule that may fire at most max times.
func NewLimited(name string, applies func(c *call.Call) bool, apply func(c *call.Call) error, max int) Rule {
	return &funcRule{name: name, applies: applies, apply: apply, max: max, bounded: true}
}

func (r *funcRule) AppliesTo(c *call.Call) bool {
	if r.applies == nil {
		return true
	}
	return r.applies(c)
}

func (r *funcRule) Apply(c *call.Call) error {
	if r.apply == nil {
		return nil
	}
	return r.apply(c)
}

func (r *funcRule) MaxInvocations() (int, bool) {
	return r.max, r.bounded
}

// String returns the rule's name for trace output.
func (r *funcRule) String() string {
	return r.name
}
