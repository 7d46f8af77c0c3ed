// File: port/binding.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A binding is the edge between a port and a waitable target: it observes
// signal transitions under a negative key and converts each observed edge
// into an IO packet on the port's ring. The observer runs in the
// signaller's context and never blocks; a full ring drops the packet and
// leaves a sticky overflow mark for the next successful delivery.

package port

import (
	"code.hybscloud.com/atomix"

	"github.com/momentics/kernio/api"
)

// bindingID identifies a binding within its port. At most one binding per
// (target, key) pair exists at any time.
type bindingID struct {
	target api.Waitable
	key    api.Key
}

type binding struct {
	port   *Port
	id     bindingID
	mask   atomix.Uint64
	sub    api.Subscription
	// dropped counts transitions lost to a full ring since the last
	// delivered IO packet from this binding.
	dropped atomix.Uint64
}

var _ api.SignalObserver = (*binding)(nil)

func newBinding(p *Port, id bindingID, mask api.Signals) *binding {
	b := &binding{port: p, id: id}
	b.mask.StoreRelaxed(uint64(mask))
	return b
}

// setMask atomically replaces the observed mask on rebind.
func (b *binding) setMask(mask api.Signals) {
	b.mask.StoreRelease(uint64(mask))
}

// OnSignalEdge converts one observed transition into an IO packet. Ring
// overflow is recorded on the binding, never reported to the signaller.
func (b *binding) OnSignalEdge(current api.Signals) {
	observed := current & api.Signals(b.mask.LoadAcquire())
	if observed == 0 {
		return
	}
	var flags api.PacketFlags
	backlog := b.dropped.LoadAcquire()
	if backlog > 0 {
		flags |= api.FlagOverflow
	}
	if err := b.port.enqueueIO(api.NewIOPacket(b.id.key, observed, flags)); err != nil {
		b.dropped.AddAcqRel(1)
		return
	}
	if backlog > 0 {
		// Clear only the drops we just reported; later drops stay sticky.
		b.dropped.CompareAndSwapAcqRel(backlog, 0)
	}
}

// OnUnsubscribed detaches the binding when the target tears down first.
// Packets already queued stay valid.
func (b *binding) OnUnsubscribed() {
	b.port.removeBinding(b)
}
