package weakref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMake_ResolvesWhileAlive tests that a weak handle resolves while the
// target is reachable.
func TestMake_ResolvesWhileAlive(t *testing.T) {
	obj := &struct{ name string }{name: "target"}
	ref := Make(obj)

	got, ok := ref.Resolve()
	require.True(t, ok)
	assert.Same(t, obj, got)
}

// TestStrong_AlwaysResolves tests the owning handle used by tests/tooling.
func TestStrong_AlwaysResolves(t *testing.T) {
	ref := Strong("value")

	got, ok := ref.Resolve()
	require.True(t, ok)
	assert.Equal(t, "value", got)
}

// TestStrong_NilReportsAbsence tests that a nil target reads as absent.
func TestStrong_NilReportsAbsence(t *testing.T) {
	got, ok := Strong(nil).Resolve()
	assert.False(t, ok)
	assert.Nil(t, got)
}

// TestNone_ReportsAbsence tests the collected-object stand-in.
func TestNone_ReportsAbsence(t *testing.T) {
	got, ok := None().Resolve()
	assert.False(t, ok)
	assert.Nil(t, got)
}
