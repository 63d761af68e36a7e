package call

import (
	"fmt"
	"reflect"
)

// Method identifies a method on the faked type. It is comparable and is
// used as a map key for event handler registration and identity-method
// lookup.
//
// Type is the full name of the declaring type (package path + type name).
// NumIn and NumOut describe the method shape excluding the receiver.
type Method struct {
	Type   string
	Name   string
	NumIn  int
	NumOut int
}

// String formats the method as "Type.Name".
func (m Method) String() string {
	return fmt.Sprintf("%s.%s", m.Type, m.Name)
}

// MethodOf builds a Method for a named type and method shape.
// The type name should be the full name (package path + type name);
// TypeName can be used to derive it from a reflect.Type.
func MethodOf(typeName, name string, numIn, numOut int) Method {
	return Method{Type: typeName, Name: name, NumIn: numIn, NumOut: numOut}
}

// TypeName returns the full name of t (package path + type name), falling
// back to reflect's string form for unnamed types.
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// Call is the writable view of an intercepted invocation. It is created by
// the call-raising collaborator, mutated by exactly one rule during
// dispatch, and then frozen into a Completed record.
//
// Writable operations are valid only until Freeze is called. A Call is not
// safe for concurrent use; the interception pipeline is synchronous per
// manager.
type Call struct {
	method      Method
	args        []any
	returnTypes []reflect.Type
	returns     []any
	invokeBase  bool
	frozen      bool
}

// New creates a writable call record.
//
// args are the live argument values; returnTypes declare the method's
// return slots so rules (in particular the default-return catch-all) can
// produce typed values for them.
func New(method Method, args []any, returnTypes []reflect.Type) *Call {
	return &Call{
		method:      method,
		args:        args,
		returnTypes: returnTypes,
		returns:     make([]any, len(returnTypes)),
	}
}

// Method returns the method identity of the call.
func (c *Call) Method() Method {
	return c.method
}

// NumArgs returns the number of argument values.
func (c *Call) NumArgs() int {
	return len(c.args)
}

// Arg returns the i-th argument value.
func (c *Call) Arg(i int) any {
	return c.args[i]
}

// SetArg rewrites the i-th argument value. Valid only while the call is
// writable (used for out/ref-style argument production).
func (c *Call) SetArg(i int, v any) {
	c.ensureWritable()
	c.args[i] = v
}

// NumReturns returns the number of declared return slots.
func (c *Call) NumReturns() int {
	return len(c.returnTypes)
}

// ReturnType returns the declared type of the i-th return slot.
func (c *Call) ReturnType(i int) reflect.Type {
	return c.returnTypes[i]
}

// SetReturn sets the i-th return value. Valid only while the call is
// writable.
func (c *Call) SetReturn(i int, v any) {
	c.ensureWritable()
	c.returns[i] = v
}

// InvokeBase marks the call to be forwarded to the real implementation by
// the proxy layer once dispatch completes.
func (c *Call) InvokeBase() {
	c.ensureWritable()
	c.invokeBase = true
}

// InvokesBase reports whether the call was marked for base invocation.
func (c *Call) InvokesBase() bool {
	return c.invokeBase
}

// Freeze transitions the call to its completed, immutable view. The
// transition happens exactly once, at the end of the interception pipeline;
// a second Freeze is an engine bug and panics.
//
// seq is the logical sequence stamp assigned at completion time.
func (c *Call) Freeze(seq int64) *Completed {
	if c.frozen {
		panic("call: Freeze called twice on the same call")
	}
	c.frozen = true

	args := make([]any, len(c.args))
	copy(args, c.args)
	returns := make([]any, len(c.returns))
	copy(returns, c.returns)

	return &Completed{
		method:     c.method,
		args:       args,
		returns:    returns,
		invokeBase: c.invokeBase,
		seq:        seq,
	}
}

func (c *Call) ensureWritable() {
	if c.frozen {
		panic("call: write to a completed call")
	}
}

// Completed is the immutable view of a finished interception. It is valid
// forever, appended to call history, and never mutated or removed.
type Completed struct {
	method     Method
	args       []any
	returns    []any
	invokeBase bool
	seq        int64
}

// Method returns the method identity of the completed call.
func (c *Completed) Method() Method {
	return c.method
}

// Args returns a copy of the final argument values.
func (c *Completed) Args() []any {
	out := make([]any, len(c.args))
	copy(out, c.args)
	return out
}

// Returns returns a copy of the final return values.
func (c *Completed) Returns() []any {
	out := make([]any, len(c.returns))
	copy(out, c.returns)
	return out
}

// Return returns the i-th final return value.
func (c *Completed) Return(i int) any {
	return c.returns[i]
}

// InvokesBase reports whether the call was marked for base invocation.
func (c *Completed) InvokesBase() bool {
	return c.invokeBase
}

// Seq returns the logical sequence stamp assigned at completion.
// Ordering across reentrant interceptions follows completion order.
func (c *Completed) Seq() int64 {
	return c.seq
}
