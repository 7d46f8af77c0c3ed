// File: event/core.go
// Package event provides waitable kernel objects: plain events and
// message pipe pairs. Both expose their signal transitions to IO port
// bindings through the api.Waitable contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package event

import (
	"github.com/momentics/kernio/api"
	"github.com/momentics/kernio/internal/concurrency"
)

// signalCore is the shared observer machinery: an asserted-signal word
// plus the registration list. Guarded by a spinlock because raise runs on
// the signaller's path and holders never sleep; observers are invoked
// under the lock so deliveries from one object can never reorder.
type signalCore struct {
	lk      concurrency.Locker
	signals api.Signals
	regs    []*registration
	closed  bool
}

func (c *signalCore) init() {
	c.lk = concurrency.NewSpinLocker()
}

type registration struct {
	core *signalCore
	obs  api.SignalObserver
	mask api.Signals
	dead bool
}

var _ api.Subscription = (*registration)(nil)

// Update atomically replaces the subscribed mask.
func (r *registration) Update(mask api.Signals) error {
	r.core.lk.Lock()
	defer r.core.lk.Unlock()
	if r.dead || r.core.closed {
		return api.ErrBadState
	}
	r.mask = mask
	return nil
}

// Cancel removes the registration. Idempotent; never calls back into the
// observer.
func (r *registration) Cancel() {
	r.core.lk.Lock()
	defer r.core.lk.Unlock()
	if r.dead {
		return
	}
	r.dead = true
	for i, reg := range r.core.regs {
		if reg == r {
			r.core.regs = append(r.core.regs[:i], r.core.regs[i+1:]...)
			break
		}
	}
}

// subscribe registers an observer for edges on bits in mask.
func (c *signalCore) subscribe(obs api.SignalObserver, mask api.Signals) (api.Subscription, error) {
	if obs == nil || mask == 0 {
		return nil, api.ErrInvalidArgs
	}
	c.lk.Lock()
	defer c.lk.Unlock()
	if c.closed {
		return nil, api.ErrBadState
	}
	r := &registration{core: c, obs: obs, mask: mask}
	c.regs = append(c.regs, r)
	return r, nil
}

// raiseLocked asserts bits and fans each 0→1 edge out to the interested
// observers, in registration order. Caller holds the core lock.
func (c *signalCore) raiseLocked(bits api.Signals) {
	edges := bits &^ c.signals
	c.signals |= bits
	if edges == 0 {
		return
	}
	for _, r := range c.regs {
		if r.mask&edges != 0 {
			r.obs.OnSignalEdge(c.signals)
		}
	}
}

// clearLocked deasserts bits. Caller holds the core lock.
func (c *signalCore) clearLocked(bits api.Signals) {
	c.signals &^= bits
}

func (c *signalCore) raise(bits api.Signals) {
	c.lk.Lock()
	c.raiseLocked(bits)
	c.lk.Unlock()
}

func (c *signalCore) clear(bits api.Signals) {
	c.lk.Lock()
	c.clearLocked(bits)
	c.lk.Unlock()
}

func (c *signalCore) status() api.Signals {
	c.lk.Lock()
	defer c.lk.Unlock()
	return c.signals
}

// close revokes every registration. Observers are notified outside the
// lock: OnUnsubscribed re-enters the owning port to drop its binding, and
// the port takes its own lock there.
func (c *signalCore) close() {
	c.lk.Lock()
	if c.closed {
		c.lk.Unlock()
		return
	}
	c.closed = true
	revoked := c.regs
	c.regs = nil
	for _, r := range revoked {
		r.dead = true
	}
	c.lk.Unlock()

	for _, r := range revoked {
		r.obs.OnUnsubscribed()
	}
}
