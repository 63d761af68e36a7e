package manager

import (
	"log/slog"

	"github.com/standin-dev/standin/internal/call"
	"github.com/standin-dev/standin/internal/rule"
)

// Intercept is the single entry point of the interception pipeline. The
// call source invokes it once per raised call.
//
// Finalization (recording + after-notification) is guaranteed: it runs via
// defer whether Apply returns cleanly, returns an error, or panics. The
// original apply outcome always wins; finalization never suppresses or
// replaces it.
func (m *Manager) Intercept(c *call.Call) error {
	// Before-phase: newest-registered listener first.
	for _, l := range m.listeners {
		l.OnBeforeCallIntercepted(c)
	}

	entry, ok := m.selectEntry(c)
	if !ok {
		// Unreachable with the catch-all installed; construction
		// invariant was violated if we get here.
		slog.Error("no rule qualified for intercepted call",
			"token", m.token,
			"method", c.Method().String(),
			"faked_type", m.FakedTypeName(),
		)
		return newUnhandledCallError(c.Method().String(), m.FakedTypeName())
	}

	entry.RecordInvocation()
	selected := entry.Rule()

	slog.Debug("rule selected",
		"token", m.token,
		"method", c.Method().String(),
		"rule", DescribeRule(selected),
		"invocations", entry.Invocations(),
	)

	defer m.finalize(c, selected)

	return selected.Apply(c)
}

// finalize freezes the call, records it into the active scope and the
// lifetime history, and runs the after-phase in reverse registration order
// (oldest listener last to register fires first here, mirroring the
// before-phase so outer listeners wrap inner ones).
func (m *Manager) finalize(c *call.Call, selected rule.Rule) {
	completed := c.Freeze(m.clock.Next())

	m.scope.AddInterceptedCall(m, completed)
	m.recorded = append(m.recorded, completed)

	for i := len(m.listeners) - 1; i >= 0; i-- {
		m.listeners[i].OnAfterCallIntercepted(completed, selected)
	}
}

// selectEntry scans pre ++ user ++ post in fixed order and returns the
// first qualifying entry. Deterministic, first-match, no backtracking.
func (m *Manager) selectEntry(c *call.Call) (*rule.Entry, bool) {
	if e, ok := m.preRules.SelectFirst(c); ok {
		return e, true
	}
	if e, ok := m.userRules.SelectFirst(c); ok {
		return e, true
	}
	return m.postRules.SelectFirst(c)
}

// DescribeRule names a rule for logs and traces, preferring its own
// Stringer when it has one.
func DescribeRule(r rule.Rule) string {
	if s, ok := r.(interface{ String() string }); ok {
		return s.String()
	}
	return "rule"
}
