// Package port tests signal dispatch through bindings.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package port

import (
	"testing"
	"time"

	"github.com/momentics/kernio/api"
	"github.com/momentics/kernio/event"
	"github.com/momentics/kernio/fake"
)

func TestBind_Validation(t *testing.T) {
	p := New(DefaultCapacity)
	defer p.Close()
	w := &fake.Waitable{}

	if err := p.Bind(1, w, api.SignalSignaled); err != api.ErrInvalidArgs {
		t.Errorf("positive key must be rejected, got %v", err)
	}
	if err := p.Bind(0, w, api.SignalSignaled); err != api.ErrInvalidArgs {
		t.Errorf("zero key must be rejected, got %v", err)
	}
	if err := p.Bind(-1, nil, api.SignalSignaled); err != api.ErrInvalidArgs {
		t.Errorf("nil target must be rejected, got %v", err)
	}
	if err := p.Bind(-1, w, api.SignalSignaled); err != nil {
		t.Errorf("valid bind failed: %v", err)
	}
	if err := p.Bind(-1, w, 0); err != nil {
		t.Errorf("unbind failed: %v", err)
	}
	if p.Bound(-1, w) {
		t.Error("binding must be gone after mask 0")
	}
	// Unbinding an absent binding is not an error.
	if err := p.Bind(-2, w, 0); err != nil {
		t.Errorf("unbind of absent binding: %v", err)
	}
}

func TestBind_EdgeProducesIOPacket(t *testing.T) {
	p := New(DefaultCapacity)
	defer p.Close()
	w := &fake.Waitable{}

	if err := p.Bind(-7, w, api.SignalSignaled); err != nil {
		t.Fatalf("bind: %v", err)
	}
	w.Emit(api.SignalSignaled)

	pkt, err := p.Wait(api.IOPayloadSize)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if pkt.Kind != api.KindIO {
		t.Fatalf("expected io packet, got %v", pkt.Kind)
	}
	if pkt.Key != -7 {
		t.Errorf("expected key -7, got %d", pkt.Key)
	}
	if pkt.IO().Signals&api.SignalSignaled == 0 {
		t.Errorf("signal mask missing SIGNALED: %#x", pkt.IO().Signals)
	}
}

func TestBind_MaskFiltersEdges(t *testing.T) {
	p := New(DefaultCapacity)
	defer p.Close()
	w := &fake.Waitable{}

	if err := p.Bind(-1, w, api.SignalReadable); err != nil {
		t.Fatalf("bind: %v", err)
	}
	w.Emit(api.SignalSignaled)
	if p.Ring().Len() != 0 {
		t.Errorf("unsubscribed bit produced a packet")
	}
	w.Emit(api.SignalReadable)
	if p.Ring().Len() != 1 {
		t.Errorf("subscribed bit did not produce a packet")
	}
}

func TestBind_RebindReplacesMask(t *testing.T) {
	p := New(DefaultCapacity)
	defer p.Close()
	w := &fake.Waitable{}

	if err := p.Bind(-1, w, api.SignalSignaled); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := p.Bind(-1, w, api.SignalReadable); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if w.Subscribers() != 1 {
		t.Fatalf("rebind must not add a second subscription, got %d", w.Subscribers())
	}
	w.Emit(api.SignalSignaled)
	if p.Ring().Len() != 0 {
		t.Errorf("old mask still active after rebind")
	}
	w.Clear(api.SignalSignaled)
	w.Emit(api.SignalReadable)
	if p.Ring().Len() != 1 {
		t.Errorf("new mask not active after rebind")
	}
}

// Mirrors the ordering scenario: five bound events poked in a scrambled
// order deliver IO packets in exactly that order.
func TestBind_EventOrdering(t *testing.T) {
	p := New(DefaultCapacity)
	defer p.Close()

	events := make([]*event.Event, 5)
	for i := range events {
		events[i] = event.New()
		defer events[i].Close()
		if err := p.Bind(api.Key(-(i + 1)), events[i], api.SignalSignaled); err != nil {
			t.Fatalf("bind %d: %v", i, err)
		}
	}

	order := []int{2, 1, 0, 4, 3, 1, 2}
	for _, ix := range order {
		if err := events[ix].Signal(); err != nil {
			t.Fatalf("signal %d: %v", ix, err)
		}
		if err := events[ix].Reset(); err != nil {
			t.Fatalf("reset %d: %v", ix, err)
		}
	}

	// Sentinel closes the stream the way a pool owner would.
	if err := p.Queue(api.SentinelKey, api.UserPayload{}, api.UserPayloadSize); err != nil {
		t.Fatalf("queue sentinel: %v", err)
	}

	for i, ix := range order {
		pkt, err := p.Wait(api.IOPayloadSize)
		if err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
		if pkt.Key != api.Key(-(ix + 1)) {
			t.Errorf("packet %d: expected key %d, got %d", i, -(ix + 1), pkt.Key)
		}
		if pkt.IO().Signals&api.SignalSignaled == 0 {
			t.Errorf("packet %d missing SIGNALED: %#x", i, pkt.IO().Signals)
		}
	}

	pkt, err := p.Wait(api.UserPayloadSize)
	if err != nil {
		t.Fatalf("wait sentinel: %v", err)
	}
	if pkt.Key != api.SentinelKey {
		t.Errorf("expected sentinel, got key %d", pkt.Key)
	}
}

// Overflow isolation: with no consumer, excess transitions are dropped
// without blocking the signaller, and the backlog surfaces as an overflow
// flag on the next delivered packet.
func TestBind_OverflowDropsAndFlags(t *testing.T) {
	p := New(DefaultCapacity)
	defer p.Close()
	w := &fake.Waitable{}

	if err := p.Bind(-1, w, api.SignalSignaled); err != nil {
		t.Fatalf("bind: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			w.Emit(api.SignalSignaled)
			w.Clear(api.SignalSignaled)
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("signaller blocked on full ring")
	}

	if got := p.Ring().Len(); got > DefaultCapacity {
		t.Fatalf("ring over capacity: %d", got)
	}

	delivered := 0
	sawOverflow := false
	for p.Ring().Len() > 0 {
		pkt, err := p.Wait(api.IOPayloadSize)
		if err != nil {
			t.Fatalf("wait: %v", err)
		}
		delivered++
		if pkt.IO().Flags&api.FlagOverflow != 0 {
			sawOverflow = true
		}
	}
	if delivered > DefaultCapacity {
		t.Errorf("delivered %d > capacity", delivered)
	}
	if !sawOverflow {
		// Drain once more after the backlog: the first post-drop
		// delivery carries the flag.
		w.Emit(api.SignalSignaled)
		pkt, err := p.Wait(api.IOPayloadSize)
		if err != nil {
			t.Fatalf("wait: %v", err)
		}
		if pkt.IO().Flags&api.FlagOverflow == 0 {
			t.Error("overflow indication never surfaced")
		}
	}
}

func TestBind_UnbindLeavesQueuedPackets(t *testing.T) {
	p := New(DefaultCapacity)
	defer p.Close()
	w := &fake.Waitable{}

	if err := p.Bind(-3, w, api.SignalSignaled); err != nil {
		t.Fatalf("bind: %v", err)
	}
	w.Emit(api.SignalSignaled)
	if err := p.Bind(-3, w, 0); err != nil {
		t.Fatalf("unbind: %v", err)
	}

	pkt, err := p.Wait(api.IOPayloadSize)
	if err != nil {
		t.Fatalf("late packet lost: %v", err)
	}
	if pkt.Key != -3 {
		t.Errorf("expected key -3, got %d", pkt.Key)
	}
}

func TestBind_TargetCloseRemovesBinding(t *testing.T) {
	p := New(DefaultCapacity)
	defer p.Close()
	w := &fake.Waitable{}

	if err := p.Bind(-1, w, api.SignalSignaled); err != nil {
		t.Fatalf("bind: %v", err)
	}
	w.CloseTarget()
	if p.Bound(-1, w) {
		t.Error("binding must be removed when the target closes")
	}
}

func TestBind_PortCloseCancelsSubscriptions(t *testing.T) {
	p := New(DefaultCapacity)
	w := &fake.Waitable{}

	if err := p.Bind(-1, w, api.SignalSignaled); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if w.Subscribers() != 0 {
		t.Errorf("port close left %d live subscriptions", w.Subscribers())
	}
	// A late emit must be harmless.
	w.Emit(api.SignalSignaled)
}

func TestBind_ClosedPortRejectsBind(t *testing.T) {
	p := New(DefaultCapacity)
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	w := &fake.Waitable{}
	if err := p.Bind(-1, w, api.SignalSignaled); err != api.ErrBadState {
		t.Errorf("expected ErrBadState, got %v", err)
	}
}
