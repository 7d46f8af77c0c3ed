// File: event/event.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Event is the simplest waitable object: one SignalSignaled bit with
// explicit set and reset.

package event

import "github.com/momentics/kernio/api"

// Event is a manually signalled waitable object.
type Event struct {
	core signalCore
}

var (
	_ api.Waitable = (*Event)(nil)
	_ api.Object   = (*Event)(nil)
)

// New creates an unsignalled event.
func New() *Event {
	e := &Event{}
	e.core.init()
	return e
}

// Signal asserts SignalSignaled. Each 0→1 edge reaches every bound
// observer before Signal returns.
func (e *Event) Signal() error {
	e.core.lk.Lock()
	defer e.core.lk.Unlock()
	if e.core.closed {
		return api.ErrBadState
	}
	e.core.raiseLocked(api.SignalSignaled)
	return nil
}

// Reset deasserts SignalSignaled so the next Signal produces a new edge.
func (e *Event) Reset() error {
	e.core.lk.Lock()
	defer e.core.lk.Unlock()
	if e.core.closed {
		return api.ErrBadState
	}
	e.core.clearLocked(api.SignalSignaled)
	return nil
}

// Status returns the currently asserted signal set.
func (e *Event) Status() api.Signals {
	return e.core.status()
}

// Subscribe implements api.Waitable.
func (e *Event) Subscribe(obs api.SignalObserver, mask api.Signals) (api.Subscription, error) {
	return e.core.subscribe(obs, mask)
}

// Close revokes all subscriptions. Idempotent.
func (e *Event) Close() error {
	e.core.close()
	return nil
}
