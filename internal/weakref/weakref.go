// Package weakref provides non-owning handles to substitute instances.
//
// A manager must never be the sole reason its substitute stays alive:
// unreferenced substitutes and their managers are reclaimed together. The
// handle therefore exposes "resolve or report absent" semantics instead of
// a strong pointer.
package weakref

import "weak"

// Ref is a non-owning handle to an object.
//
// Resolve returns the object and true while it is still alive, and
// (nil, false) once it has been collected. Absence is not an error;
// consumers must tolerate it.
type Ref interface {
	Resolve() (any, bool)
}

// Make returns a weak handle to the object pointed to by p.
// The handle does not keep the object alive.
func Make[T any](p *T) Ref {
	return ptrRef[T]{p: weak.Make(p)}
}

type ptrRef[T any] struct {
	p weak.Pointer[T]
}

func (r ptrRef[T]) Resolve() (any, bool) {
	if v := r.p.Value(); v != nil {
		return v, true
	}
	return nil, false
}

// Strong returns a handle that owns the object. Used by tests and tooling
// where collection semantics are irrelevant.
func Strong(v any) Ref {
	return strongRef{v: v}
}

type strongRef struct {
	v any
}

func (r strongRef) Resolve() (any, bool) {
	if r.v == nil {
		return nil, false
	}
	return r.v, true
}

// None returns a handle that always reports absence. Used to model a
// substitute that has already been collected.
func None() Ref {
	return strongRef{}
}
