// Package identity resolves calls to the universally-defined identity
// methods: equality comparison, string conversion, and hash computation.
//
// The table is a fixed, immutable lookup built once at process start. It
// maps a small closed set of well-known method shapes to handler kinds; it
// never matches anything else. Dispatch of the matched kinds is done by the
// manager's identity-method rule.
package identity

import (
	"golang.org/x/text/unicode/norm"

	"github.com/standin-dev/standin/internal/call"
)

// Kind identifies a well-known identity method.
type Kind int

const (
	// KindEqual is the equality-comparison method: Equal(other) bool.
	KindEqual Kind = iota + 1
	// KindString is the string-conversion method: String() string.
	KindString
	// KindHash is the hash-computation method: Hash() uint64.
	KindHash
)

// String returns the lookup-table label for the kind.
func (k Kind) String() string {
	switch k {
	case KindEqual:
		return "equal"
	case KindString:
		return "string"
	case KindHash:
		return "hash"
	default:
		return "unknown"
	}
}

// shape is the lookup key: NFC-normalized method name plus arity.
// Method names are normalized so that lookups are stable regardless of the
// Unicode form the proxy layer reports.
type shape struct {
	name   string
	numIn  int
	numOut int
}

// table is populated once at init and never mutated after.
var table = map[shape]Kind{
	{name: norm.NFC.String("Equal"), numIn: 1, numOut: 1}:  KindEqual,
	{name: norm.NFC.String("String"), numIn: 0, numOut: 1}: KindString,
	{name: norm.NFC.String("Hash"), numIn: 0, numOut: 1}:   KindHash,
}

// Lookup resolves a method against the fixed identity table.
// Returns the handler kind and true on a match, false for every other
// method.
func Lookup(m call.Method) (Kind, bool) {
	k, ok := table[shape{
		name:   norm.NFC.String(m.Name),
		numIn:  m.NumIn,
		numOut: m.NumOut,
	}]
	return k, ok
}
