package manager

import (
	"github.com/standin-dev/standin/internal/call"
	"github.com/standin-dev/standin/internal/rule"
)

// Listener observes the interception pipeline around each call.
//
// Listener ordering follows a nesting discipline: the most recently added
// listener fires first in the before-phase and last in the after-phase, so
// outer listeners wrap inner ones like scoped resource acquisition.
//
// Listeners do not return errors. A listener that fails internally (for
// example a persistence-backed recorder) must log and continue; listener
// failures never alter the outcome of the intercepted call.
type Listener interface {
	// OnBeforeCallIntercepted runs before rule selection, while the call
	// is still writable. Listeners must not mutate the call.
	OnBeforeCallIntercepted(c *call.Call)

	// OnAfterCallIntercepted runs after finalization with the completed
	// call and the rule that handled it. It runs even when the rule's
	// Apply failed.
	OnAfterCallIntercepted(c *call.Completed, selected rule.Rule)
}
