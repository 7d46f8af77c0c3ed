// File: event/pipe.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pipe is a minimal message pipe whose ends are waitable: SignalReadable
// while messages are pending, SignalPeerClosed after the remote end
// closes. Reads are non-blocking; callers block by binding the pipe to an
// IO port and waiting there.

package event

import "github.com/momentics/kernio/api"

// Pipe is one end of a bidirectional message pipe.
type Pipe struct {
	core signalCore
	msgs [][]byte
	peer *Pipe
}

var (
	_ api.Waitable = (*Pipe)(nil)
	_ api.Object   = (*Pipe)(nil)
)

// NewPipePair creates two connected pipe ends.
func NewPipePair() (*Pipe, *Pipe) {
	a := &Pipe{}
	b := &Pipe{}
	a.core.init()
	b.core.init()
	a.peer = b
	b.peer = a
	return a, b
}

// Write copies msg into the peer's message queue and asserts its
// readable signal.
func (p *Pipe) Write(msg []byte) error {
	peer := p.peer

	p.core.lk.Lock()
	closed := p.core.closed
	p.core.lk.Unlock()
	if closed {
		return api.ErrBadState
	}

	peer.core.lk.Lock()
	if peer.core.closed {
		peer.core.lk.Unlock()
		return api.ErrBadState
	}
	buf := make([]byte, len(msg))
	copy(buf, msg)
	peer.msgs = append(peer.msgs, buf)
	peer.core.raiseLocked(api.SignalReadable)
	peer.core.lk.Unlock()
	return nil
}

// Read pops the oldest pending message without blocking. Returns
// ErrWouldBlock when the queue is empty and ErrBadState when empty with
// the peer gone.
func (p *Pipe) Read() ([]byte, error) {
	p.core.lk.Lock()
	defer p.core.lk.Unlock()
	if p.core.closed {
		return nil, api.ErrBadState
	}
	if len(p.msgs) == 0 {
		if p.core.signals&api.SignalPeerClosed != 0 {
			return nil, api.ErrBadState
		}
		return nil, api.ErrWouldBlock
	}
	msg := p.msgs[0]
	p.msgs = p.msgs[1:]
	if len(p.msgs) == 0 {
		p.core.clearLocked(api.SignalReadable)
	}
	return msg, nil
}

// Status returns the currently asserted signal set.
func (p *Pipe) Status() api.Signals {
	return p.core.status()
}

// Subscribe implements api.Waitable.
func (p *Pipe) Subscribe(obs api.SignalObserver, mask api.Signals) (api.Subscription, error) {
	return p.core.subscribe(obs, mask)
}

// Close tears down this end and raises SignalPeerClosed on the other.
// Idempotent.
func (p *Pipe) Close() error {
	p.core.lk.Lock()
	if p.core.closed {
		p.core.lk.Unlock()
		return nil
	}
	p.core.lk.Unlock()

	p.core.close()
	p.peer.core.raise(api.SignalPeerClosed)
	return nil
}
