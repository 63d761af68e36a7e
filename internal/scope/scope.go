// Package scope implements the interception scope stack.
//
// A scope is the context that tracks which recorded calls belong to which
// logical test scope and where dynamically-added rules are spliced. Child
// scopes record the rules added while they are active and remove them from
// their managers when the scope closes, so configuration made inside a
// scope unwinds automatically.
//
// Managers hold their scope explicitly; there is no ambient current scope.
package scope

import (
	"sync"

	"github.com/standin-dev/standin/internal/call"
	"github.com/standin-dev/standin/internal/manager"
	"github.com/standin-dev/standin/internal/rule"
)

// Scope is one level of the scope stack. The zero value is not usable;
// create the root with NewRoot and children with Begin.
//
// Thread-safety: bookkeeping is guarded by a mutex because one scope is
// shared across managers; the managers themselves remain single-threaded.
type Scope struct {
	mu         sync.Mutex
	parent     *Scope
	closed     bool
	calls      map[*manager.Manager][]*call.Completed
	insertions []insertion
}

type insertion struct {
	m *manager.Manager
	e *rule.Entry
}

// NewRoot creates the root scope. The root lives for the life of the
// process and never unwinds rule insertions.
func NewRoot() *Scope {
	return &Scope{
		calls: make(map[*manager.Manager][]*call.Completed),
	}
}

// Begin opens a child scope. Rules added through the child are removed
// from their managers when the child closes; calls recorded in the child
// are also visible to every ancestor.
func (s *Scope) Begin() *Scope {
	return &Scope{
		parent: s,
		calls:  make(map[*manager.Manager][]*call.Completed),
	}
}

// Close ends the scope: rules inserted while it was active are removed
// from their managers in reverse insertion order. Closing the root or
// closing twice is a no-op.
func (s *Scope) Close() {
	s.mu.Lock()
	if s.closed || s.parent == nil {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unwind := s.insertions
	s.insertions = nil
	s.mu.Unlock()

	for i := len(unwind) - 1; i >= 0; i-- {
		unwind[i].m.DiscardEntry(unwind[i].e)
	}
}

// AddRuleFirst splices the entry at the front of m's user chain and, in a
// child scope, records it for unwinding.
func (s *Scope) AddRuleFirst(m *manager.Manager, e *rule.Entry) {
	m.InsertRuleFirst(e)
	s.recordInsertion(m, e)
}

// AddRuleLast splices the entry at the back of m's user chain and, in a
// child scope, records it for unwinding.
func (s *Scope) AddRuleLast(m *manager.Manager, e *rule.Entry) {
	m.InsertRuleLast(e)
	s.recordInsertion(m, e)
}

// AddInterceptedCall records a completed call against m in this scope and
// every ancestor, so outer scopes see the calls of the scopes they
// enclose.
func (s *Scope) AddInterceptedCall(m *manager.Manager, c *call.Completed) {
	for sc := s; sc != nil; sc = sc.parent {
		sc.mu.Lock()
		sc.calls[m] = append(sc.calls[m], c)
		sc.mu.Unlock()
	}
}

// CallsWithin returns the calls recorded against m while this scope has
// been active, in completion order.
func (s *Scope) CallsWithin(m *manager.Manager) []*call.Completed {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*call.Completed, len(s.calls[m]))
	copy(out, s.calls[m])
	return out
}

func (s *Scope) recordInsertion(m *manager.Manager, e *rule.Entry) {
	if s.parent == nil {
		return
	}
	s.mu.Lock()
	s.insertions = append(s.insertions, insertion{m: m, e: e})
	s.mu.Unlock()
}
