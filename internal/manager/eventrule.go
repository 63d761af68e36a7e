package manager

import "github.com/standin-dev/standin/internal/call"

// eventRaisingRule is the single reserved pre-rule. It applies when the
// manager has an event handler registered for the call's method, and its
// fixed position ahead of all user rules guarantees user configuration can
// never block event raising.
type eventRaisingRule struct {
	m *Manager
}

func (r *eventRaisingRule) AppliesTo(c *call.Call) bool {
	_, ok := r.m.events[c.Method()]
	return ok
}

func (r *eventRaisingRule) Apply(c *call.Call) error {
	return r.m.events[c.Method()](c)
}

func (r *eventRaisingRule) MaxInvocations() (int, bool) {
	return 0, false
}

func (r *eventRaisingRule) String() string {
	return "event-raising"
}
