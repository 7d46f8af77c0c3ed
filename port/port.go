// File: port/port.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Port is the top-level IO port object: one packet ring plus the set of
// live bindings. Queue, Bind and Close complete in bounded time; Wait is
// the only suspending operation.

package port

import (
	"sync"

	"code.hybscloud.com/atomix"

	"github.com/momentics/kernio/api"
)

type portState uint32

const (
	stateOpen portState = iota
	stateClosing
	stateClosed
)

// Port owns the ring and the binding set. All methods are safe for
// concurrent use from any number of producers, consumers and signallers.
type Port struct {
	ring *PacketRing

	// Guards the binding set and the state. Signal delivery does not take
	// it; Queue, Bound and Stats read under it, while Bind, Close and
	// target-initiated removal mutate under it.
	mu       sync.RWMutex
	bindings map[bindingID]*binding
	state    portState

	enqueuedUser atomix.Uint64
	enqueuedIO   atomix.Uint64
	dequeued     atomix.Uint64
	droppedIO    atomix.Uint64
}

var (
	_ api.Object           = (*Port)(nil)
	_ api.GracefulShutdown = (*Port)(nil)
)

// New creates a port with the given ring capacity; non-positive capacity
// selects DefaultCapacity.
func New(capacity int) *Port {
	return &Port{
		ring:     NewPacketRing(capacity),
		bindings: make(map[bindingID]*binding),
	}
}

// Queue submits a user packet. The key must be non-negative (negative
// keys belong to bindings) and size must equal the user payload size.
// A full ring reports ErrNotEnoughBuffer; Queue never blocks.
func (p *Port) Queue(key api.Key, payload api.UserPayload, size int) error {
	if key < 0 {
		return api.ErrInvalidArgs
	}
	if size != api.UserPayloadSize {
		return api.ErrInvalidArgs
	}
	p.mu.RLock()
	open := p.state == stateOpen
	p.mu.RUnlock()
	if !open {
		return api.ErrBadState
	}
	err := p.ring.TryEnqueue(api.NewUserPacket(key, payload))
	switch {
	case err == nil:
		p.enqueuedUser.AddAcqRel(1)
		return nil
	case api.IsWouldBlock(err):
		return api.ErrNotEnoughBuffer
	default:
		return err
	}
}

// Wait dequeues the next packet in global FIFO order, blocking until one
// is available or the port closes (ErrDrained). size must match the
// queued packet kind's payload size; a mismatch returns ErrInvalidArgs
// and does not consume the packet.
func (p *Port) Wait(size int) (api.Packet, error) {
	pkt, err := p.ring.WaitDequeue(size)
	if err != nil {
		return api.Packet{}, err
	}
	p.dequeued.AddAcqRel(1)
	return pkt, nil
}

// Bind creates, updates or removes the binding for (target, key).
// The key must be negative. A zero mask removes the binding and is not an
// error when none exists. Rebinding with a non-zero mask atomically
// replaces the previous mask.
func (p *Port) Bind(key api.Key, target api.Waitable, mask api.Signals) error {
	if key >= 0 || target == nil {
		return api.ErrInvalidArgs
	}
	id := bindingID{target: target, key: key}

	if mask == 0 {
		p.mu.Lock()
		b := p.bindings[id]
		delete(p.bindings, id)
		p.mu.Unlock()
		if b != nil {
			b.sub.Cancel()
		}
		return nil
	}

	p.mu.Lock()
	if p.state != stateOpen {
		p.mu.Unlock()
		return api.ErrBadState
	}
	if b, ok := p.bindings[id]; ok {
		b.setMask(mask)
		err := b.sub.Update(mask)
		p.mu.Unlock()
		return err
	}
	b := newBinding(p, id, mask)
	sub, err := target.Subscribe(b, mask)
	if err != nil {
		p.mu.Unlock()
		return api.ErrBadState
	}
	b.sub = sub
	p.bindings[id] = b
	p.mu.Unlock()
	return nil
}

// Close transitions the port to closing, tears down all bindings, then
// closes the ring, waking pending waiters with ErrDrained. Idempotent.
func (p *Port) Close() error {
	p.mu.Lock()
	if p.state != stateOpen {
		p.mu.Unlock()
		return nil
	}
	p.state = stateClosing
	detached := make([]*binding, 0, len(p.bindings))
	for _, b := range p.bindings {
		detached = append(detached, b)
	}
	clear(p.bindings)
	p.mu.Unlock()

	for _, b := range detached {
		b.sub.Cancel()
	}
	p.ring.Close()

	p.mu.Lock()
	p.state = stateClosed
	p.mu.Unlock()
	return nil
}

// Shutdown implements api.GracefulShutdown.
func (p *Port) Shutdown() error { return p.Close() }

// Ring exposes the port's FIFO for capacity and length inspection.
func (p *Port) Ring() api.Ring { return p.ring }

// Bound reports whether a binding exists for (target, key).
func (p *Port) Bound(key api.Key, target api.Waitable) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.bindings[bindingID{target: target, key: key}]
	return ok
}

// Stats returns a snapshot of the port's counters.
func (p *Port) Stats() map[string]any {
	p.mu.RLock()
	nbind := len(p.bindings)
	p.mu.RUnlock()
	return map[string]any{
		"enqueued_user": p.enqueuedUser.LoadAcquire(),
		"enqueued_io":   p.enqueuedIO.LoadAcquire(),
		"dequeued":      p.dequeued.LoadAcquire(),
		"dropped_io":    p.droppedIO.LoadAcquire(),
		"bindings":      nbind,
		"queued":        p.ring.Len(),
		"capacity":      p.ring.Cap(),
	}
}

// enqueueIO is the binding-side enqueue path. It runs in the signaller's
// context and must not block; a full or closed ring is reported back to
// the binding only.
func (p *Port) enqueueIO(pkt api.Packet) error {
	if err := p.ring.TryEnqueue(pkt); err != nil {
		p.droppedIO.AddAcqRel(1)
		return err
	}
	p.enqueuedIO.AddAcqRel(1)
	return nil
}

// removeBinding drops a binding whose target revoked the subscription.
func (p *Port) removeBinding(b *binding) {
	p.mu.Lock()
	if cur, ok := p.bindings[b.id]; ok && cur == b {
		delete(p.bindings, b.id)
	}
	p.mu.Unlock()
}
