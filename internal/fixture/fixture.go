// Package fixture compiles CUE fixture files into user rules.
//
// A fixture declares canned behavior per method, so recurring substitute
// configuration ships as data instead of test code:
//
//	fixture: {
//		name: "reader-defaults"
//		stubs: {
//			Read: {
//				returns: [0, "eof"]
//				times:   2
//			}
//			Close: {
//				returns: []
//			}
//		}
//	}
//
// Each stub becomes a rule matching by method name (argument-based
// matching is the matcher layer's job, not the fixture's). A stub with
// times > 0 is bounded by the engine's invocation quota. A stub may
// declare `panic: "message"` instead of returns; it then panics on every
// application.
package fixture

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Stub is the canned behavior for one method.
type Stub struct {
	// Method is the method name the stub matches.
	Method string

	// Returns are the values for the method's return slots, in order.
	Returns []any

	// Times bounds how often the stub may fire; 0 means unbounded.
	Times int

	// Panic, when non-empty, makes the stub panic with this message
	// instead of producing returns.
	Panic string
}

// Fixture is a compiled set of stubs.
type Fixture struct {
	Name  string
	Stubs []Stub
}

// CompileError reports a malformed fixture with its source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("fixture field %q: %s (%s)", e.Field, e.Message, e.Pos)
	}
	return fmt.Sprintf("fixture field %q: %s", e.Field, e.Message)
}

// Load reads and compiles a fixture CUE file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	return Compile(v.LookupPath(cue.ParsePath("fixture")))
}

// Compile parses a CUE value into a Fixture.
// The value should be the fixture struct itself.
func Compile(v cue.Value) (*Fixture, error) {
	if !v.Exists() {
		return nil, &CompileError{
			Field:   "fixture",
			Message: "fixture struct is required",
		}
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	f := &Fixture{}

	// Parse name (optional).
	nameVal := v.LookupPath(cue.ParsePath("name"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		f.Name = name
	}

	// Parse stubs (required, at least one).
	stubsVal := v.LookupPath(cue.ParsePath("stubs"))
	if !stubsVal.Exists() {
		return nil, &CompileError{
			Field:   "stubs",
			Message: "at least one stub is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := stubsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		stub, err := parseStub(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		f.Stubs = append(f.Stubs, stub)
	}

	if len(f.Stubs) == 0 {
		return nil, &CompileError{
			Field:   "stubs",
			Message: "at least one stub is required",
			Pos:     stubsVal.Pos(),
		}
	}

	return f, nil
}

// parseStub parses one method's stub struct.
func parseStub(method string, v cue.Value) (Stub, error) {
	stub := Stub{Method: method}

	panicVal := v.LookupPath(cue.ParsePath("panic"))
	if panicVal.Exists() {
		msg, err := panicVal.String()
		if err != nil {
			return Stub{}, formatCUEError(err)
		}
		stub.Panic = msg
	}

	returnsVal := v.LookupPath(cue.ParsePath("returns"))
	switch {
	case returnsVal.Exists():
		list, err := returnsVal.List()
		if err != nil {
			return Stub{}, formatCUEError(err)
		}
		for list.Next() {
			val, err := parseReturnValue(method, list.Value())
			if err != nil {
				return Stub{}, err
			}
			stub.Returns = append(stub.Returns, val)
		}
	case stub.Panic != "":
		// A panicking stub never produces returns.
	default:
		return Stub{}, &CompileError{
			Field:   method + ".returns",
			Message: "returns list is required (use [] for none)",
			Pos:     v.Pos(),
		}
	}

	timesVal := v.LookupPath(cue.ParsePath("times"))
	if timesVal.Exists() {
		times, err := timesVal.Int64()
		if err != nil {
			return Stub{}, formatCUEError(err)
		}
		if times < 0 {
			return Stub{}, &CompileError{
				Field:   method + ".times",
				Message: "times must not be negative",
				Pos:     timesVal.Pos(),
			}
		}
		stub.Times = int(times)
	}

	return stub, nil
}

// parseReturnValue extracts one concrete return value.
// Supported kinds: string, int, bool, float, null.
func parseReturnValue(method string, v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.StringKind:
		return v.String()
	case cue.IntKind:
		return v.Int64()
	case cue.BoolKind:
		return v.Bool()
	case cue.FloatKind, cue.NumberKind:
		return v.Float64()
	case cue.NullKind:
		return nil, nil
	default:
		return nil, &CompileError{
			Field:   method + ".returns",
			Message: fmt.Sprintf("unsupported return value kind %s", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// formatCUEError flattens a CUE error into a single error value with
// position details.
func formatCUEError(err error) error {
	return fmt.Errorf("cue: %s", cueerrors.Details(err, nil))
}
