package manager_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standin-dev/standin/internal/call"
	"github.com/standin-dev/standin/internal/manager"
	"github.com/standin-dev/standin/internal/rule"
	"github.com/standin-dev/standin/internal/scope"
	"github.com/standin-dev/standin/internal/testutil"
	"github.com/standin-dev/standin/internal/weakref"
)

// notifier is the declared type substituted throughout these tests.
type notifier interface {
	Notify(msg string) error
}

func notifierType() reflect.Type {
	return reflect.TypeOf((*notifier)(nil)).Elem()
}

// newAttached builds a manager attached to a fresh root scope and source.
func newAttached(t *testing.T) (*manager.Manager, *testutil.Source, *scope.Scope) {
	t.Helper()

	root := scope.NewRoot()
	m := manager.New(root)
	src := &testutil.Source{}
	target := &struct{}{}
	m.Attach(notifierType(), weakref.Make(target), src)
	require.True(t, src.Subscribed())
	return m, src, root
}

func notifyCall() *call.Call {
	return call.New(
		call.MethodOf(call.TypeName(notifierType()), "Notify", 1, 1),
		[]any{"hello"},
		[]reflect.Type{reflect.TypeOf((*error)(nil)).Elem()},
	)
}

func stringCall() *call.Call {
	return call.New(
		call.MethodOf(call.TypeName(notifierType()), "String", 0, 1),
		nil,
		[]reflect.Type{reflect.TypeOf("")},
	)
}

func hashCall() *call.Call {
	return call.New(
		call.MethodOf(call.TypeName(notifierType()), "Hash", 0, 1),
		nil,
		[]reflect.Type{reflect.TypeOf(uint64(0))},
	)
}

func equalCall(other any) *call.Call {
	return call.New(
		call.MethodOf(call.TypeName(notifierType()), "Equal", 1, 1),
		[]any{other},
		[]reflect.Type{reflect.TypeOf(false)},
	)
}

// taggedSubstitute models a substitute exposing the manager-tag capability.
type taggedSubstitute struct {
	m *manager.Manager
}

func (s *taggedSubstitute) ManagerTag() *manager.Manager {
	return s.m
}

// TestManager_UnconfiguredCallsHitCatchAll tests that every call on an
// unconfigured substitute matches the default rule and never raises the
// unhandled-call condition.
func TestManager_UnconfiguredCallsHitCatchAll(t *testing.T) {
	m, src, _ := newAttached(t)

	for i := 0; i < 5; i++ {
		c := notifyCall()
		err := src.Raise(c)
		require.NoError(t, err)
	}

	recorded := m.AllRecordedCalls()
	require.Len(t, recorded, 5)
	// The catch-all fills return slots with zero values.
	assert.Nil(t, recorded[0].Return(0))
}

// TestManager_AddRuleFirstTakesPriority tests that the most recently
// front-added rule beats earlier rules and all reserved post-rules.
func TestManager_AddRuleFirstTakesPriority(t *testing.T) {
	m, src, _ := newAttached(t)

	var winner string
	record := func(name string) rule.Rule {
		return rule.New(name, nil, func(c *call.Call) error {
			winner = name
			return nil
		})
	}

	m.AddRuleFirst(record("early"))
	m.AddRuleFirst(record("late"))

	require.NoError(t, src.Raise(notifyCall()))
	assert.Equal(t, "late", winner)

	// Reserved post-rules (including the identity rule) lose to user
	// rules for calls both apply to.
	m.AddRuleFirst(record("shadows-identity"))
	require.NoError(t, src.Raise(stringCall()))
	assert.Equal(t, "shadows-identity", winner)
}

// TestManager_MaxInvocationsExcludesAfterQuota tests that a rule bounded to
// N fires for exactly the first N applicable calls.
func TestManager_MaxInvocationsExcludesAfterQuota(t *testing.T) {
	m, src, _ := newAttached(t)

	fired := 0
	limited := rule.NewLimited("twice", nil, func(c *call.Call) error {
		fired++
		return nil
	}, 2)
	m.AddRuleLast(limited)

	for i := 0; i < 3; i++ {
		require.NoError(t, src.Raise(notifyCall()))
	}

	// Third call fell through to the catch-all.
	assert.Equal(t, 2, fired)
	assert.Len(t, m.AllRecordedCalls(), 3)

	entries := m.UserEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Invocations())
}

// TestManager_HistoryGrowsOnRuleError tests that a failing Apply still
// records the call and propagates the original error unchanged.
func TestManager_HistoryGrowsOnRuleError(t *testing.T) {
	m, src, _ := newAttached(t)

	boom := errors.New("boom")
	m.AddRuleFirst(rule.New("failing", nil, func(c *call.Call) error {
		return boom
	}))

	err := src.Raise(notifyCall())
	require.Error(t, err)
	assert.Same(t, boom, err)
	assert.Len(t, m.AllRecordedCalls(), 1)
}

// TestManager_ListenerNestingOrder tests before-phase newest-first and
// after-phase oldest-first ordering.
func TestManager_ListenerNestingOrder(t *testing.T) {
	m, src, _ := newAttached(t)

	log := &testutil.EventLog{}
	m.AddListener(&testutil.CaptureListener{Name: "L1", Log: log})
	m.AddListener(&testutil.CaptureListener{Name: "L2", Log: log})

	require.NoError(t, src.Raise(notifyCall()))

	assert.Equal(t, []string{
		"before:L2", "before:L1",
		"after:L1", "after:L2",
	}, log.Events())
}

// TestManager_ListenersFireAroundFailingRule tests that after-listeners run
// even when the selected rule fails.
func TestManager_ListenersFireAroundFailingRule(t *testing.T) {
	m, src, _ := newAttached(t)

	log := &testutil.EventLog{}
	m.AddListener(&testutil.CaptureListener{Name: "L1", Log: log})
	m.AddRuleFirst(rule.New("failing", nil, func(c *call.Call) error {
		return errors.New("boom")
	}))

	err := src.Raise(notifyCall())
	require.Error(t, err)
	assert.Equal(t, []string{"before:L1", "after:L1"}, log.Events())
}

// TestManager_IdentityString tests the fixed-format label embedding the
// faked type's full name.
func TestManager_IdentityString(t *testing.T) {
	m, src, _ := newAttached(t)

	c := stringCall()
	require.NoError(t, src.Raise(c))

	label, ok := m.AllRecordedCalls()[0].Return(0).(string)
	require.True(t, ok)
	assert.Contains(t, label, "Faked ")
	assert.Contains(t, label, "manager_test.notifier")
}

// TestManager_IdentityHashIsStable tests hash consistency across calls on
// the same substitute.
func TestManager_IdentityHashIsStable(t *testing.T) {
	m, src, _ := newAttached(t)

	require.NoError(t, src.Raise(hashCall()))
	require.NoError(t, src.Raise(hashCall()))

	recorded := m.AllRecordedCalls()
	first := recorded[0].Return(0)
	second := recorded[1].Return(0)
	require.IsType(t, uint64(0), first)
	assert.Equal(t, first, second)
}

// TestManager_IdentityEqualSharedManager tests that substitutes sharing a
// manager compare equal, and anything else compares unequal.
func TestManager_IdentityEqualSharedManager(t *testing.T) {
	m, src, _ := newAttached(t)

	same := &taggedSubstitute{m: m}
	other := &taggedSubstitute{m: manager.New(scope.NewRoot())}

	require.NoError(t, src.Raise(equalCall(same)))
	require.NoError(t, src.Raise(equalCall(other)))
	require.NoError(t, src.Raise(equalCall("untagged")))

	recorded := m.AllRecordedCalls()
	assert.Equal(t, true, recorded[0].Return(0))
	assert.Equal(t, false, recorded[1].Return(0))
	assert.Equal(t, false, recorded[2].Return(0))
}

// TestManager_RemoveRule tests nil-rule failure and unregistered no-op.
func TestManager_RemoveRule(t *testing.T) {
	m, _, _ := newAttached(t)

	err := m.RemoveRule(nil)
	require.Error(t, err)
	assert.True(t, manager.IsNilRule(err))

	registered := rule.New("registered", nil, nil)
	unregistered := rule.New("unregistered", nil, nil)
	m.AddRuleLast(registered)

	require.NoError(t, m.RemoveRule(unregistered))
	assert.Len(t, m.Rules(), 1)

	require.NoError(t, m.RemoveRule(registered))
	assert.Empty(t, m.Rules())
}

// TestManager_ClearUserRulesKeepsReserved tests that clearing user rules
// leaves both reserved sets selectable.
func TestManager_ClearUserRulesKeepsReserved(t *testing.T) {
	m, src, _ := newAttached(t)

	m.AddRuleFirst(rule.New("user", nil, func(c *call.Call) error {
		return errors.New("should be cleared")
	}))
	m.ClearUserRules()
	assert.Empty(t, m.Rules())

	// Catch-all still selectable.
	require.NoError(t, src.Raise(notifyCall()))
	// Identity rule still selectable.
	require.NoError(t, src.Raise(stringCall()))
	assert.Len(t, m.AllRecordedCalls(), 2)
}

// TestManager_EventRuleRunsAheadOfUserRules tests that the reserved
// pre-rule cannot be shadowed by user configuration.
func TestManager_EventRuleRunsAheadOfUserRules(t *testing.T) {
	m, src, _ := newAttached(t)

	method := call.MethodOf(call.TypeName(notifierType()), "Notify", 1, 1)
	var handled []string
	m.RegisterEventHandler(method, func(c *call.Call) error {
		handled = append(handled, c.Arg(0).(string))
		return nil
	})
	m.AddRuleFirst(rule.New("shadow", nil, func(c *call.Call) error {
		t.Fatal("user rule must not shadow the event-raising rule")
		return nil
	}))

	require.NoError(t, src.Raise(notifyCall()))
	assert.Equal(t, []string{"hello"}, handled)
}

// TestManager_AutoProperty tests the setter/getter reserved pair: a set
// value is returned by the matching getter; unset getters fall through to
// the catch-all.
func TestManager_AutoProperty(t *testing.T) {
	m, src, _ := newAttached(t)
	typeName := call.TypeName(notifierType())

	getName := func() *call.Call {
		return call.New(call.MethodOf(typeName, "Name", 0, 1), nil,
			[]reflect.Type{reflect.TypeOf("")})
	}

	// Unset getter: zero value from the catch-all.
	require.NoError(t, src.Raise(getName()))
	assert.Equal(t, "", m.AllRecordedCalls()[0].Return(0))

	// Set then get.
	setName := call.New(call.MethodOf(typeName, "SetName", 1, 0),
		[]any{"alias"}, nil)
	require.NoError(t, src.Raise(setName))
	require.NoError(t, src.Raise(getName()))

	recorded := m.AllRecordedCalls()
	assert.Equal(t, "alias", recorded[2].Return(0))
}

// TestManager_MoveRuleToFront tests priority adjustment with counter
// preservation and reserved-rule immobility.
func TestManager_MoveRuleToFront(t *testing.T) {
	m, src, _ := newAttached(t)

	first := rule.New("first", nil, nil)
	second := rule.NewLimited("second", nil, nil, 5)
	m.AddRuleLast(first)
	m.AddRuleLast(second)

	// Burn one invocation of second via direct interception: move it up
	// first so it wins selection.
	m.MoveRuleToFront(second)
	require.NoError(t, src.Raise(notifyCall()))

	entries := m.UserEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "second", manager.DescribeRule(entries[0].Rule()))
	assert.Equal(t, 1, entries[0].Invocations())

	// Moving it again preserves the counter.
	m.MoveRuleToFront(second)
	assert.Equal(t, 1, m.UserEntries()[0].Invocations())

	// Unknown rules are a no-op.
	m.MoveRuleToFront(rule.New("unknown", nil, nil))
	assert.Len(t, m.UserEntries(), 2)
}

// TestManager_ReentrantInterception tests that a rule triggering a nested
// interception on the same manager leaves history in completion order.
func TestManager_ReentrantInterception(t *testing.T) {
	m, src, _ := newAttached(t)
	typeName := call.TypeName(notifierType())

	inner := call.New(call.MethodOf(typeName, "Inner", 0, 0), nil, nil)
	outerRule := rule.New("outer",
		func(c *call.Call) bool { return c.Method().Name == "Outer" },
		func(c *call.Call) error {
			return src.Raise(inner)
		})
	m.AddRuleFirst(outerRule)

	outer := call.New(call.MethodOf(typeName, "Outer", 0, 0), nil, nil)
	require.NoError(t, src.Raise(outer))

	recorded := m.AllRecordedCalls()
	require.Len(t, recorded, 2)
	// Inner completes first, so it is recorded first with the lower seq.
	assert.Equal(t, "Inner", recorded[0].Method().Name)
	assert.Equal(t, "Outer", recorded[1].Method().Name)
	assert.Less(t, recorded[0].Seq(), recorded[1].Seq())
}

// TestManager_AttachTwicePanics tests the programmer-error condition.
func TestManager_AttachTwicePanics(t *testing.T) {
	m, _, _ := newAttached(t)

	assert.Panics(t, func() {
		m.Attach(notifierType(), weakref.Strong(&struct{}{}), &testutil.Source{})
	})
}

// TestManager_ObjectResolvesWhileAlive tests the non-owning object handle.
func TestManager_ObjectResolvesWhileAlive(t *testing.T) {
	root := scope.NewRoot()
	m := manager.New(root)
	src := &testutil.Source{}
	target := &struct{ id int }{id: 7}
	m.Attach(notifierType(), weakref.Make(target), src)

	got, ok := m.Object()
	require.True(t, ok)
	assert.Same(t, target, got)

	// A collected substitute reads as absent, not as an error.
	collected := manager.New(scope.NewRoot())
	collected.Attach(notifierType(), weakref.None(), &testutil.Source{})
	_, ok = collected.Object()
	assert.False(t, ok)
}

// TestManager_RecordedCallsInScope tests scope-recorded history through the
// manager surface.
func TestManager_RecordedCallsInScope(t *testing.T) {
	m, src, root := newAttached(t)

	require.NoError(t, src.Raise(notifyCall()))
	require.NoError(t, src.Raise(notifyCall()))

	inScope := m.RecordedCallsInScope()
	require.Len(t, inScope, 2)
	assert.Equal(t, root.CallsWithin(m), inScope)
}
