package manager

import (
	"strings"

	"github.com/standin-dev/standin/internal/call"
)

// autoPropertyRule is the reserved post-rule serving getter-shaped calls
// (no arguments, one return) for properties whose value was previously
// recorded by the property-setter rule. Getters with no recorded value fall
// through to the default-return catch-all.
type autoPropertyRule struct {
	m *Manager
}

func (r *autoPropertyRule) AppliesTo(c *call.Call) bool {
	m := c.Method()
	if m.NumIn != 0 || m.NumOut != 1 {
		return false
	}
	_, ok := r.m.props[m.Name]
	return ok
}

func (r *autoPropertyRule) Apply(c *call.Call) error {
	c.SetReturn(0, r.m.props[c.Method().Name])
	return nil
}

func (r *autoPropertyRule) MaxInvocations() (int, bool) {
	return 0, false
}

func (r *autoPropertyRule) String() string {
	return "auto-property"
}

// propertySetterRule is the reserved post-rule matching setter-shaped
// calls: SetX with one argument and no returns. The value is stored under
// the property name X for the matching getter.
type propertySetterRule struct {
	m *Manager
}

func (r *propertySetterRule) AppliesTo(c *call.Call) bool {
	m := c.Method()
	return m.NumIn == 1 && m.NumOut == 0 && isSetterName(m.Name)
}

func (r *propertySetterRule) Apply(c *call.Call) error {
	r.m.props[propertyName(c.Method().Name)] = c.Arg(0)
	return nil
}

func (r *propertySetterRule) MaxInvocations() (int, bool) {
	return 0, false
}

func (r *propertySetterRule) String() string {
	return "property-setter"
}

func isSetterName(name string) bool {
	return len(name) > 3 && strings.HasPrefix(name, "Set")
}

func propertyName(setterName string) string {
	return strings.TrimPrefix(setterName, "Set")
}
