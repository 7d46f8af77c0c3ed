// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"sync"

	"github.com/momentics/kernio/api"
)

// Waitable is a hand-driven waitable object for tests: Emit raises signal
// edges directly, and the subscription list is inspectable.
type Waitable struct {
	mu      sync.Mutex
	signals api.Signals
	subs    []*fakeSub
	closed  bool
}

type fakeSub struct {
	w    *Waitable
	obs  api.SignalObserver
	mask api.Signals
	dead bool
}

var _ api.Waitable = (*Waitable)(nil)

func (s *fakeSub) Update(mask api.Signals) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if s.dead {
		return api.ErrBadState
	}
	s.mask = mask
	return nil
}

func (s *fakeSub) Cancel() {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	s.dead = true
}

// Subscribe implements api.Waitable.
func (w *Waitable) Subscribe(obs api.SignalObserver, mask api.Signals) (api.Subscription, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, api.ErrBadState
	}
	s := &fakeSub{w: w, obs: obs, mask: mask}
	w.subs = append(w.subs, s)
	return s, nil
}

// Emit raises the given bits and fans out edges like a real waitable.
func (w *Waitable) Emit(bits api.Signals) {
	w.mu.Lock()
	edges := bits &^ w.signals
	w.signals |= bits
	var notify []*fakeSub
	if edges != 0 {
		for _, s := range w.subs {
			if !s.dead && s.mask&edges != 0 {
				notify = append(notify, s)
			}
		}
	}
	current := w.signals
	w.mu.Unlock()
	for _, s := range notify {
		s.obs.OnSignalEdge(current)
	}
}

// Clear deasserts bits so the next Emit produces fresh edges.
func (w *Waitable) Clear(bits api.Signals) {
	w.mu.Lock()
	w.signals &^= bits
	w.mu.Unlock()
}

// CloseTarget revokes all subscriptions the way a closing object would.
func (w *Waitable) CloseTarget() {
	w.mu.Lock()
	w.closed = true
	subs := w.subs
	w.subs = nil
	for _, s := range subs {
		s.dead = true
	}
	w.mu.Unlock()
	for _, s := range subs {
		s.obs.OnUnsubscribed()
	}
}

// Subscribers reports the number of live subscriptions.
func (w *Waitable) Subscribers() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, s := range w.subs {
		if !s.dead {
			n++
		}
	}
	return n
}
