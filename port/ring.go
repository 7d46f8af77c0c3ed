// File: port/ring.go
// Package port implements the IO port core: packet ring, bindings and the
// port object itself.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// PacketRing is the bounded FIFO inside a port. Producers never block on
// it; consumers park on a condition variable until a packet or teardown
// arrives. One global enqueue order per ring.

package port

import (
	"sync"

	"golang.org/x/sys/cpu"

	"github.com/momentics/kernio/api"
)

// DefaultCapacity is the reference ring capacity per port.
const DefaultCapacity = 128

// Ensure compile-time interface compliance.
var _ api.Ring = (*PacketRing)(nil)

type ringState uint32

const (
	ringOpen ringState = iota
	// ringDraining rejects enqueues but still delivers queued packets.
	ringDraining
	ringClosed
)

// PacketRing is a fixed-capacity, mutex-guarded FIFO of packet slots.
// Enqueue and dequeue are mutually atomic; the critical section is a few
// loads and stores, never a sleep.
type PacketRing struct {
	mu   sync.Mutex
	cond sync.Cond
	_    cpu.CacheLinePad

	buf   []api.Packet
	head  int
	count int
	state ringState
}

// NewPacketRing allocates a ring. Non-positive capacity selects
// DefaultCapacity.
func NewPacketRing(capacity int) *PacketRing {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	r := &PacketRing{buf: make([]api.Packet, capacity)}
	r.cond.L = &r.mu
	return r
}

// TryEnqueue appends a packet without blocking. Returns ErrWouldBlock on a
// full ring and ErrBadState once the ring stopped accepting.
func (r *PacketRing) TryEnqueue(p api.Packet) error {
	r.mu.Lock()
	if r.state != ringOpen {
		r.mu.Unlock()
		return api.ErrBadState
	}
	if r.count == len(r.buf) {
		r.mu.Unlock()
		return api.ErrWouldBlock
	}
	r.buf[(r.head+r.count)%len(r.buf)] = p
	r.count++
	r.mu.Unlock()
	r.cond.Signal()
	return nil
}

// WaitDequeue blocks until a packet is available or the ring drains.
// size must equal the queued packet kind's payload size exactly; on a
// mismatch the packet stays queued and ErrInvalidArgs is returned. A size
// that matches no packet kind is rejected at once, without blocking.
func (r *PacketRing) WaitDequeue(size int) (api.Packet, error) {
	if size != api.KindUser.PayloadSize() && size != api.KindIO.PayloadSize() {
		return api.Packet{}, api.ErrInvalidArgs
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		if r.count > 0 {
			front := r.buf[r.head]
			if size != front.Kind.PayloadSize() {
				return api.Packet{}, api.ErrInvalidArgs
			}
			r.buf[r.head] = api.Packet{}
			r.head = (r.head + 1) % len(r.buf)
			r.count--
			if r.state == ringDraining && r.count == 0 {
				r.state = ringClosed
				r.cond.Broadcast()
			}
			return front, nil
		}
		if r.state != ringOpen {
			return api.Packet{}, api.ErrDrained
		}
		r.cond.Wait()
	}
}

// Close marks the ring closed, discards queued packets and wakes all
// waiters. Subsequent enqueues fail with ErrBadState.
func (r *PacketRing) Close() {
	r.mu.Lock()
	r.state = ringClosed
	r.head = 0
	r.count = 0
	clear(r.buf)
	r.mu.Unlock()
	r.cond.Broadcast()
}

// DrainAndClose blocks new enqueues while still delivering the queued
// packets; the ring closes once empty.
func (r *PacketRing) DrainAndClose() {
	r.mu.Lock()
	if r.state == ringOpen {
		if r.count == 0 {
			r.state = ringClosed
		} else {
			r.state = ringDraining
		}
	}
	r.mu.Unlock()
	r.cond.Broadcast()
}

// Len returns the number of queued packets.
func (r *PacketRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap returns the fixed capacity.
func (r *PacketRing) Cap() int {
	return len(r.buf)
}
