package manager

import (
	"fmt"
	"hash/fnv"

	"github.com/standin-dev/standin/internal/call"
	"github.com/standin-dev/standin/internal/identity"
)

// identityMethodRule is the reserved post-rule handling the three
// universally-defined identity methods. It matches against the fixed
// method-identity table and nothing else.
//
// Behavior on match:
//   - string conversion: a fixed-format label embedding the faked type's
//     full name
//   - hash computation: a stable digest of the manager's token, so all
//     calls on the same substitute hash consistently regardless of proxy
//     identity quirks
//   - equality: true iff the single argument exposes the manager tag and
//     that tag is this manager; two substitutes sharing a manager compare
//     equal even as distinct proxy objects
type identityMethodRule struct {
	m *Manager
}

func (r *identityMethodRule) AppliesTo(c *call.Call) bool {
	_, ok := identity.Lookup(c.Method())
	return ok
}

func (r *identityMethodRule) Apply(c *call.Call) error {
	kind, ok := identity.Lookup(c.Method())
	if !ok {
		// AppliesTo gates Apply; the table is immutable.
		return fmt.Errorf("identity method %s disappeared from the table", c.Method())
	}

	switch kind {
	case identity.KindString:
		c.SetReturn(0, fmt.Sprintf("Faked %s", r.m.FakedTypeName()))
	case identity.KindHash:
		c.SetReturn(0, r.m.identityHash())
	case identity.KindEqual:
		c.SetReturn(0, r.equalsManagerOf(c.Arg(0)))
	}
	return nil
}

func (r *identityMethodRule) MaxInvocations() (int, bool) {
	return 0, false
}

func (r *identityMethodRule) String() string {
	return "identity-method"
}

// equalsManagerOf reports whether other is tagged with this rule's manager.
func (r *identityMethodRule) equalsManagerOf(other any) bool {
	t, ok := other.(Tagged)
	if !ok {
		return false
	}
	return t.ManagerTag() == r.m
}

// identityHash digests the manager token. Stable for the manager's
// lifetime.
func (m *Manager) identityHash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(m.token))
	return h.Sum64()
}
