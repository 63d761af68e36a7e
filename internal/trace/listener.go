package trace

import (
	"context"
	"log/slog"

	"github.com/standin-dev/standin/internal/call"
	"github.com/standin-dev/standin/internal/manager"
	"github.com/standin-dev/standin/internal/rule"
)

// Recorder is an interception listener that persists every completed call
// of one manager into the store.
//
// Listener failures must never alter the outcome of the intercepted call,
// so write errors are logged with full call context and swallowed here.
type Recorder struct {
	store *Store
	m     *manager.Manager
}

// NewRecorder creates a recorder for m. Register it with
// m.AddListener(recorder).
func NewRecorder(store *Store, m *manager.Manager) *Recorder {
	return &Recorder{store: store, m: m}
}

// OnBeforeCallIntercepted implements the listener contract; recording
// happens only after completion.
func (r *Recorder) OnBeforeCallIntercepted(c *call.Call) {}

// OnAfterCallIntercepted persists the completed call.
func (r *Recorder) OnAfterCallIntercepted(c *call.Completed, selected rule.Rule) {
	rec, err := r.buildRecord(c, selected)
	if err != nil {
		slog.Error("recorded-call marshal failed",
			"error", err,
			"manager_token", r.m.Token(),
			"method", c.Method().String(),
			"seq", c.Seq(),
		)
		return
	}

	if err := r.store.WriteCall(context.Background(), rec); err != nil {
		slog.Error("recorded-call write failed",
			"error", err,
			"manager_token", r.m.Token(),
			"method", c.Method().String(),
			"seq", c.Seq(),
		)
	}
}

func (r *Recorder) buildRecord(c *call.Completed, selected rule.Rule) (CallRecord, error) {
	args, err := marshalPayload(c.Args())
	if err != nil {
		return CallRecord{}, err
	}
	returns, err := marshalPayload(c.Returns())
	if err != nil {
		return CallRecord{}, err
	}

	method := c.Method().String()
	return CallRecord{
		ID:           recordID(r.m.Token(), c.Seq(), method),
		ManagerToken: r.m.Token(),
		FakedType:    r.m.FakedTypeName(),
		Method:       method,
		Rule:         manager.DescribeRule(selected),
		Args:         args,
		Returns:      returns,
		BaseCall:     c.InvokesBase(),
		Seq:          c.Seq(),
	}, nil
}
