// Package harness executes conformance scenarios against a live
// interception manager and snapshots the resulting dispatch trace.
//
// Scenarios are YAML files declaring a substitute's methods, optional CUE
// fixtures, and a call sequence. The harness drives the calls through the
// real pipeline (no shortcuts around rule selection or listeners) and
// records which rule handled each call, so golden traces pin down dispatch
// behavior end to end.
package harness

import (
	"fmt"
	"path/filepath"
	"reflect"

	"github.com/standin-dev/standin/internal/call"
	"github.com/standin-dev/standin/internal/fixture"
	"github.com/standin-dev/standin/internal/manager"
	"github.com/standin-dev/standin/internal/rule"
	"github.com/standin-dev/standin/internal/scope"
	"github.com/standin-dev/standin/internal/testutil"
	"github.com/standin-dev/standin/internal/weakref"
)

// target is the interface substituted in every scenario run. The faked
// type only surfaces in identity labels and trace metadata, so one
// placeholder serves all scenarios.
type target interface{}

func targetType() reflect.Type {
	return reflect.TypeOf((*target)(nil)).Elem()
}

// TraceEvent is one completed interception in a scenario trace.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Method  string `json:"method"`
	Args    []any  `json:"args,omitempty"`
	Returns []any  `json:"returns,omitempty"`
	Rule    string `json:"rule"`
}

// Trace is the snapshot of a scenario execution.
type Trace struct {
	ScenarioName string       `json:"scenario_name"`
	FakedType    string       `json:"faked_type"`
	Events       []TraceEvent `json:"events"`
}

// Run executes a scenario against a fresh manager and root scope.
// baseDir resolves fixture paths (usually the scenario file's directory).
func Run(s *Scenario, baseDir string) (*Trace, error) {
	root := scope.NewRoot()
	m := manager.New(root)
	src := &testutil.Source{}
	m.Attach(targetType(), weakref.Strong(&struct{}{}), src)

	collector := &collectListener{}
	m.AddListener(collector)

	for _, path := range s.Fixtures {
		f, err := fixture.Load(filepath.Join(baseDir, path))
		if err != nil {
			return nil, fmt.Errorf("fixture %s: %w", path, err)
		}
		f.Apply(m)
	}

	declared := make(map[string]MethodDecl, len(s.Methods))
	for _, decl := range s.Methods {
		declared[decl.Name] = decl
	}

	typeName := m.FakedTypeName()
	for i, step := range s.Steps {
		decl := declared[step.Call]

		returnTypes, err := typesOf(decl.Returns)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}

		c := call.New(
			call.MethodOf(typeName, decl.Name, len(decl.Params), len(decl.Returns)),
			step.Args,
			returnTypes,
		)
		if err := src.Raise(c); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Call, err)
		}

		if err := checkExpectation(step, collector.last()); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Call, err)
		}
	}

	return &Trace{
		ScenarioName: s.Name,
		FakedType:    typeName,
		Events:       collector.events,
	}, nil
}

// checkExpectation validates a step's expected outcome against the traced
// event.
func checkExpectation(step Step, ev *TraceEvent) error {
	if step.Expect == nil {
		return nil
	}
	if ev == nil {
		return fmt.Errorf("no event traced for expectation")
	}

	if step.Expect.Rule != "" && step.Expect.Rule != ev.Rule {
		return fmt.Errorf("expected rule %q, got %q", step.Expect.Rule, ev.Rule)
	}

	if step.Expect.Returns != nil {
		if len(step.Expect.Returns) != len(ev.Returns) {
			return fmt.Errorf("expected %d returns, got %d",
				len(step.Expect.Returns), len(ev.Returns))
		}
		for i, want := range step.Expect.Returns {
			if !looselyEqual(want, ev.Returns[i]) {
				return fmt.Errorf("return %d: expected %v, got %v", i, want, ev.Returns[i])
			}
		}
	}

	return nil
}

// looselyEqual compares a YAML expectation against a live return value.
// YAML integers arrive as int while stubs may produce any integer width,
// so numeric comparison goes through int64.
func looselyEqual(want, got any) bool {
	if reflect.DeepEqual(want, got) {
		return true
	}
	wi, wok := asInt64(want)
	gi, gok := asInt64(got)
	return wok && gok && wi == gi
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	default:
		return 0, false
	}
}

// typesOf resolves declared type names to reflect types.
func typesOf(names []string) ([]reflect.Type, error) {
	out := make([]reflect.Type, len(names))
	for i, name := range names {
		t, ok := typeByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown type %q", name)
		}
		out[i] = t
	}
	return out, nil
}

// typeByName maps scenario type names to reflect types. The set is the
// closed vocabulary scenarios may declare.
func typeByName(name string) (reflect.Type, bool) {
	switch name {
	case "string":
		return reflect.TypeOf(""), true
	case "int":
		return reflect.TypeOf(0), true
	case "int64":
		return reflect.TypeOf(int64(0)), true
	case "uint64":
		return reflect.TypeOf(uint64(0)), true
	case "bool":
		return reflect.TypeOf(false), true
	case "float64":
		return reflect.TypeOf(0.0), true
	case "error":
		return reflect.TypeOf((*error)(nil)).Elem(), true
	default:
		return nil, false
	}
}

// collectListener snapshots every completed interception.
type collectListener struct {
	events []TraceEvent
}

func (l *collectListener) OnBeforeCallIntercepted(c *call.Call) {}

func (l *collectListener) OnAfterCallIntercepted(c *call.Completed, selected rule.Rule) {
	l.events = append(l.events, TraceEvent{
		Seq:     c.Seq(),
		Method:  c.Method().String(),
		Args:    c.Args(),
		Returns: c.Returns(),
		Rule:    manager.DescribeRule(selected),
	})
}

func (l *collectListener) last() *TraceEvent {
	if len(l.events) == 0 {
		return nil
	}
	return &l.events[len(l.events)-1]
}
