package rule

import (
	"slices"

	"github.com/standin-dev/standin/internal/call"
)

// Chain is an ordered sequence of rule entries. Insertion order determines
// priority: selection scans front to back and picks the first qualifying
// entry, deterministically and without backtracking.
//
// Reserved chains are populated at construction and never mutated after;
// the user chain is fully mutable. A Chain has no internal locking; the
// engine is single-threaded per manager.
type Chain struct {
	entries []*Entry
}

// NewChain creates a chain pre-populated with entries in priority order.
func NewChain(entries ...*Entry) *Chain {
	return &Chain{entries: entries}
}

// AddFirst inserts an entry at the front, giving it highest priority.
func (ch *Chain) AddFirst(e *Entry) {
	ch.entries = append([]*Entry{e}, ch.entries...)
}

// AddLast appends an entry at the back, giving it lowest priority.
func (ch *Chain) AddLast(e *Entry) {
	ch.entries = append(ch.entries, e)
}

// Remove removes the given entry from the chain by identity.
// Returns true if the entry was present.
func (ch *Chain) Remove(e *Entry) bool {
	for i, got := range ch.entries {
		if got == e {
			ch.entries = slices.Delete(ch.entries, i, i+1)
			return true
		}
	}
	return false
}

// RemoveFirst removes the first entry whose wrapped rule equals r.
// Returns true if a match was removed; a miss is a no-op.
func (ch *Chain) RemoveFirst(r Rule) bool {
	for i, e := range ch.entries {
		if e.rule == r {
			ch.entries = slices.Delete(ch.entries, i, i+1)
			return true
		}
	}
	return false
}

// TakeFirst removes and returns the first entry whose wrapped rule equals
// r, preserving its invocation counter. Used to move an entry to the front
// of the chain without resetting its quota.
func (ch *Chain) TakeFirst(r Rule) (*Entry, bool) {
	for i, e := range ch.entries {
		if e.rule == r {
			ch.entries = slices.Delete(ch.entries, i, i+1)
			return e, true
		}
	}
	return nil, false
}

// Contains reports whether any entry wraps a rule equal to r.
func (ch *Chain) Contains(r Rule) bool {
	for _, e := range ch.entries {
		if e.rule == r {
			return true
		}
	}
	return false
}

// Clear drops every entry.
func (ch *Chain) Clear() {
	ch.entries = nil
}

// Len returns the number of entries.
func (ch *Chain) Len() int {
	return len(ch.entries)
}

// Snapshot returns the entries in priority order. The returned slice is a
// copy; the entries themselves are shared.
func (ch *Chain) Snapshot() []*Entry {
	out := make([]*Entry, len(ch.entries))
	copy(out, ch.entries)
	return out
}

// SelectFirst returns the first entry that applies to the call and is
// within its invocation quota. Entries at quota are excluded from
// selection, so later entries see the calls that fall through.
func (ch *Chain) SelectFirst(c *call.Call) (*Entry, bool) {
	for _, e := range ch.entries {
		if e.WithinQuota() && e.rule.AppliesTo(c) {
			return e, true
		}
	}
	return nil, false
}
