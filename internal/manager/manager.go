// Package manager implements the call-interception and rule-dispatch core
// bound to each substitute instance.
//
// ARCHITECTURE:
//
// One manager per substitute. The proxy layer raises intercepted calls into
// Manager.Intercept, which runs the pipeline synchronously:
//
//  1. Before-listeners, newest registration first
//  2. First-match rule selection across pre ++ user ++ post chains
//  3. Counter increment, then rule application (may fail)
//  4. Guaranteed finalization: freeze the call, record it into the active
//     scope and the manager's lifetime history, then after-listeners in
//     reverse registration order. The original apply error propagates
//     unchanged after finalization.
//
// The pre chain holds the event-raising rule; the post chain holds, in
// fixed order, the identity-method, auto-property, property-setter, and
// default-return rules. The catch-all default-return rule has no
// applicability restriction, so selection cannot come up empty on a
// correctly constructed manager.
//
// INVARIANTS:
//   - preRules and postRules never change after construction
//   - history is append-only; reentrant interceptions interleave in
//     completion order (seq stamps from the logical clock)
//   - an entry's invocation counter never exceeds its rule's bound
//
// The engine has no internal locking: use is single-threaded and
// synchronous per manager. Reentrancy is supported; a rule's Apply may
// trigger nested interceptions on the same or other managers.
package manager

import (
	"log/slog"
	"reflect"

	"github.com/google/uuid"

	"github.com/standin-dev/standin/internal/call"
	"github.com/standin-dev/standin/internal/rule"
	"github.com/standin-dev/standin/internal/weakref"
)

// Scope is the context a manager records into and delegates rule insertion
// to. A scope decides the actual splice point for added rules, which lets
// nested scopes stack rules that unwind automatically when the scope ends.
//
// Managers hold their scope explicitly; there is no ambient current scope.
type Scope interface {
	// AddRuleFirst splices a fresh entry at the chosen high-priority
	// position of m's user chain.
	AddRuleFirst(m *Manager, e *rule.Entry)

	// AddRuleLast splices a fresh entry at the chosen low-priority
	// position of m's user chain.
	AddRuleLast(m *Manager, e *rule.Entry)

	// AddInterceptedCall records a completed call against m.
	AddInterceptedCall(m *Manager, c *call.Completed)

	// CallsWithin returns the calls recorded against m while the scope
	// has been active.
	CallsWithin(m *Manager) []*call.Completed
}

// CallSource is the signal source exposed by the proxy layer: it raises
// every intercepted call of one substitute. A manager subscribes exactly
// once, at attachment.
type CallSource interface {
	Subscribe(handler func(c *call.Call) error)
}

// EventHandler reacts to an event-raising call matched by the reserved
// pre-rule.
type EventHandler func(c *call.Call) error

// Tagged is the capability a substitute exposes so identity-equality can
// compare managers instead of proxy object identities.
type Tagged interface {
	ManagerTag() *Manager
}

// Manager orchestrates interception for a single substitute instance.
type Manager struct {
	token     string
	scope     Scope
	fakedType reflect.Type
	object    weakref.Ref
	attached  bool

	preRules  *rule.Chain
	userRules *rule.Chain
	postRules *rule.Chain

	recorded  []*call.Completed
	listeners []Listener
	clock     *call.Clock

	events map[call.Method]EventHandler
	props  map[string]any
}

// New creates a manager bound to the given scope, with the reserved rule
// chains populated. The user chain and call history start empty.
func New(scope Scope) *Manager {
	m := &Manager{
		token:     uuid.Must(uuid.NewV7()).String(),
		scope:     scope,
		userRules: rule.NewChain(),
		clock:     call.NewClock(),
		events:    make(map[call.Method]EventHandler),
		props:     make(map[string]any),
	}

	m.preRules = rule.NewChain(
		rule.NewEntry(&eventRaisingRule{m: m}),
	)

	// Order within the post chain is significant and fixed: the
	// default-return rule is the catch-all and must come last.
	m.postRules = rule.NewChain(
		rule.NewEntry(&identityMethodRule{m: m}),
		rule.NewEntry(&autoPropertyRule{m: m}),
		rule.NewEntry(&propertySetterRule{m: m}),
		rule.NewEntry(&defaultReturnRule{}),
	)

	return m
}

// Attach binds the manager to its substitute: sets the faked type and the
// non-owning object handle exactly once and subscribes to the call source.
//
// Attaching twice is a programmer error and panics.
func (m *Manager) Attach(fakedType reflect.Type, object weakref.Ref, source CallSource) {
	if m.attached {
		panic(&DispatchError{
			Code:      ErrCodeAlreadyAttached,
			Message:   "manager is already attached to a substitute",
			FakedType: call.TypeName(m.fakedType),
		})
	}
	m.attached = true
	m.fakedType = fakedType
	m.object = object

	source.Subscribe(m.Intercept)

	slog.Debug("manager attached",
		"token", m.token,
		"faked_type", call.TypeName(fakedType),
	)
}

// Token returns the manager's unique identity token.
func (m *Manager) Token() string {
	return m.token
}

// FakedType returns the declared type being substituted.
func (m *Manager) FakedType() reflect.Type {
	return m.fakedType
}

// FakedTypeName returns the full name of the substituted type.
func (m *Manager) FakedTypeName() string {
	return call.TypeName(m.fakedType)
}

// Object resolves the substitute instance. Once the substitute has been
// collected this yields absence, not an error; the manager never keeps the
// substitute alive.
func (m *Manager) Object() (any, bool) {
	if m.object == nil {
		return nil, false
	}
	return m.object.Resolve()
}

// AddRuleFirst wraps the rule in a fresh entry and delegates the splice
// point to the active scope, giving the rule highest user priority.
func (m *Manager) AddRuleFirst(r rule.Rule) {
	m.scope.AddRuleFirst(m, rule.NewEntry(r))
}

// AddRuleLast wraps the rule in a fresh entry and delegates the splice
// point to the active scope, giving the rule lowest user priority.
func (m *Manager) AddRuleLast(r rule.Rule) {
	m.scope.AddRuleLast(m, rule.NewEntry(r))
}

// RemoveRule removes the first user entry wrapping a rule equal to r.
// A nil rule is a caller error; an unregistered rule is a no-op.
func (m *Manager) RemoveRule(r rule.Rule) error {
	if r == nil {
		return newNilRuleError("RemoveRule")
	}
	m.userRules.RemoveFirst(r)
	return nil
}

// MoveRuleToFront locates the entry wrapping r across all rule chains.
// A match in the user chain is reinserted at the front with its invocation
// counter preserved; reserved entries are never moved. No match is a no-op.
//
// Used internally to give a just-triggered configuration temporary highest
// priority.
func (m *Manager) MoveRuleToFront(r rule.Rule) {
	if e, ok := m.userRules.TakeFirst(r); ok {
		m.userRules.AddFirst(e)
		return
	}
	if m.preRules.Contains(r) || m.postRules.Contains(r) {
		// Reserved rules hold their fixed positions.
		return
	}
}

// ClearUserRules drops all user rules, leaving both reserved chains
// untouched and still selectable.
func (m *Manager) ClearUserRules() {
	m.userRules.Clear()
}

// Rules returns the active user rules in priority order.
func (m *Manager) Rules() []rule.Rule {
	entries := m.userRules.Snapshot()
	out := make([]rule.Rule, len(entries))
	for i, e := range entries {
		out[i] = e.Rule()
	}
	return out
}

// UserEntries returns the user chain's entries in priority order.
// Exposed for verification layers that need invocation counts.
func (m *Manager) UserEntries() []*rule.Entry {
	return m.userRules.Snapshot()
}

// AllRecordedCalls returns the manager's lifetime call history in
// completion order.
func (m *Manager) AllRecordedCalls() []*call.Completed {
	out := make([]*call.Completed, len(m.recorded))
	copy(out, m.recorded)
	return out
}

// RecordedCallsInScope returns the calls recorded while the active scope
// has been current.
func (m *Manager) RecordedCallsInScope() []*call.Completed {
	return m.scope.CallsWithin(m)
}

// AddListener prepends a listener: the most recently added listener fires
// first in the before-phase and last in the after-phase.
func (m *Manager) AddListener(l Listener) {
	m.listeners = append([]Listener{l}, m.listeners...)
}

// RegisterEventHandler binds a handler to an event-raising method. Calls to
// that method are then handled by the reserved pre-rule ahead of all user
// rules.
func (m *Manager) RegisterEventHandler(method call.Method, h EventHandler) {
	m.events[method] = h
}

// InsertRuleFirst splices an entry at the front of the user chain.
// For scope implementations; configuration layers use AddRuleFirst.
func (m *Manager) InsertRuleFirst(e *rule.Entry) {
	m.userRules.AddFirst(e)
}

// InsertRuleLast splices an entry at the back of the user chain.
// For scope implementations; configuration layers use AddRuleLast.
func (m *Manager) InsertRuleLast(e *rule.Entry) {
	m.userRules.AddLast(e)
}

// DiscardEntry removes a specific entry from the user chain. For scope
// implementations unwinding rules added inside a closed scope.
func (m *Manager) DiscardEntry(e *rule.Entry) {
	m.userRules.Remove(e)
}
