// Package testutil provides deterministic collaborators for exercising the
// interception engine in tests and conformance scenarios.
package testutil

import (
	"fmt"

	"github.com/standin-dev/standin/internal/call"
)

// Source is an in-memory call-raising source. It stands in for the proxy
// layer: tests construct writable calls and raise them through the
// subscribed manager.
//
// Subscribe may be called once; a manager subscribes at attachment.
type Source struct {
	handler func(c *call.Call) error
}

// Subscribe binds the interception entry point. Implements the call-source
// contract consumed by Manager.Attach.
func (s *Source) Subscribe(handler func(c *call.Call) error) {
	if s.handler != nil {
		panic("testutil: Source subscribed twice")
	}
	s.handler = handler
}

// Raise signals an intercepted call to the subscriber and returns the
// pipeline's outcome.
func (s *Source) Raise(c *call.Call) error {
	if s.handler == nil {
		return fmt.Errorf("raise before subscribe")
	}
	return s.handler(c)
}

// Subscribed reports whether a manager has attached to this source.
func (s *Source) Subscribed() bool {
	return s.handler != nil
}
