package fixture

import (
	"fmt"
	"reflect"

	"github.com/standin-dev/standin/internal/call"
	"github.com/standin-dev/standin/internal/manager"
	"github.com/standin-dev/standin/internal/rule"
)

// Rules builds one user rule per stub, in declaration order.
func (f *Fixture) Rules() []rule.Rule {
	rules := make([]rule.Rule, 0, len(f.Stubs))
	for _, stub := range f.Stubs {
		rules = append(rules, stub.Rule())
	}
	return rules
}

// Apply registers the fixture's rules with the manager in declaration
// order via AddRuleLast, so earlier stubs keep higher priority.
func (f *Fixture) Apply(m *manager.Manager) {
	for _, r := range f.Rules() {
		m.AddRuleLast(r)
	}
}

// Rule builds the dispatch rule for one stub.
func (s Stub) Rule() rule.Rule {
	name := fmt.Sprintf("fixture:%s", s.Method)
	applies := func(c *call.Call) bool {
		return c.Method().Name == s.Method
	}
	apply := func(c *call.Call) error {
		if s.Panic != "" {
			panic(s.Panic)
		}
		for i, v := range s.Returns {
			if i >= c.NumReturns() {
				return fmt.Errorf("stub %s: %d returns configured, method declares %d",
					s.Method, len(s.Returns), c.NumReturns())
			}
			c.SetReturn(i, convertReturn(v, c.ReturnType(i)))
		}
		return nil
	}

	if s.Times > 0 {
		return rule.NewLimited(name, applies, apply, s.Times)
	}
	return rule.New(name, applies, apply)
}

// convertReturn adapts a fixture literal to the declared return type where
// a conversion exists. CUE integers arrive as int64; declared slots are
// often plain int.
func convertReturn(v any, rt reflect.Type) any {
	if v == nil || rt == nil {
		return v
	}
	rv := reflect.ValueOf(v)
	if rv.Type() == rt {
		return v
	}
	if rv.Type().ConvertibleTo(rt) {
		return rv.Convert(rt).Interface()
	}
	return v
}
