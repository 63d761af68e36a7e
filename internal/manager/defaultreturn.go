package manager

import (
	"reflect"

	"github.com/standin-dev/standin/internal/call"
)

// defaultReturnRule is the reserved catch-all at the tail of the post
// chain. It has no applicability restriction, which is what makes the
// unhandled-call condition unreachable on a correctly constructed manager.
//
// Apply fills every declared return slot with the type's zero value.
type defaultReturnRule struct{}

func (defaultReturnRule) AppliesTo(c *call.Call) bool {
	return true
}

func (defaultReturnRule) Apply(c *call.Call) error {
	for i := 0; i < c.NumReturns(); i++ {
		if rt := c.ReturnType(i); rt != nil {
			c.SetReturn(i, reflect.Zero(rt).Interface())
		}
	}
	return nil
}

func (defaultReturnRule) MaxInvocations() (int, bool) {
	return 0, false
}

func (defaultReturnRule) String() string {
	return "default-return"
}
