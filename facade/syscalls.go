// File: facade/syscalls.go
// Package facade exposes the syscall-shaped surface of kernio: handles in,
// handles out, kernel status errors. Everything resolves through one
// handle table so call sequences read like the user-space API they model.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package facade

import (
	"github.com/momentics/kernio/api"
	"github.com/momentics/kernio/control"
	"github.com/momentics/kernio/event"
	"github.com/momentics/kernio/handle"
	"github.com/momentics/kernio/port"
)

// Syscalls bundles a handle table with the config store supplying
// defaults.
type Syscalls struct {
	tbl *handle.Table
	cfg *control.ConfigStore
}

// New creates an isolated syscall surface. cfg may be nil.
func New(cfg *control.ConfigStore) *Syscalls {
	if cfg == nil {
		cfg = control.NewConfigStore()
	}
	return &Syscalls{tbl: handle.NewTable(), cfg: cfg}
}

// Table exposes the underlying handle table.
func (s *Syscalls) Table() *handle.Table { return s.tbl }

// PortCreate creates an IO port. options is reserved and must be zero.
func (s *Syscalls) PortCreate(options uint32) (handle.Handle, error) {
	if options != 0 {
		return handle.InvalidHandle, api.ErrInvalidArgs
	}
	capacity := s.cfg.GetInt(control.KeyRingCapacity, port.DefaultCapacity)
	return s.tbl.Add(port.New(capacity)), nil
}

// PortQueue submits a user packet to the port behind h.
func (s *Syscalls) PortQueue(h handle.Handle, key api.Key, payload api.UserPayload, size int) error {
	p, err := handle.GetAs[*port.Port](s.tbl, h)
	if err != nil {
		return err
	}
	return p.Queue(key, payload, size)
}

// PortWait dequeues the next packet from the port behind h, blocking
// until one arrives or the port drains.
func (s *Syscalls) PortWait(h handle.Handle, size int) (api.Packet, error) {
	p, err := handle.GetAs[*port.Port](s.tbl, h)
	if err != nil {
		return api.Packet{}, err
	}
	return p.Wait(size)
}

// PortBind binds the waitable behind target to the port behind h under a
// negative key. A zero mask removes the binding. A target that is not
// waitable is a parameter error, matching the syscall contract.
func (s *Syscalls) PortBind(h handle.Handle, key api.Key, target handle.Handle, mask api.Signals) error {
	p, err := handle.GetAs[*port.Port](s.tbl, h)
	if err != nil {
		return err
	}
	obj, err := s.tbl.Get(target)
	if err != nil {
		return err
	}
	w, ok := obj.(api.Waitable)
	if !ok {
		return api.ErrInvalidArgs
	}
	return p.Bind(key, w, mask)
}

// EventCreate creates an event object. options is reserved and must be
// zero.
func (s *Syscalls) EventCreate(options uint32) (handle.Handle, error) {
	if options != 0 {
		return handle.InvalidHandle, api.ErrInvalidArgs
	}
	return s.tbl.Add(event.New()), nil
}

// EventSignal asserts the event behind h.
func (s *Syscalls) EventSignal(h handle.Handle) error {
	e, err := handle.GetAs[*event.Event](s.tbl, h)
	if err != nil {
		return err
	}
	return e.Signal()
}

// EventReset deasserts the event behind h.
func (s *Syscalls) EventReset(h handle.Handle) error {
	e, err := handle.GetAs[*event.Event](s.tbl, h)
	if err != nil {
		return err
	}
	return e.Reset()
}

// PipeCreate creates a connected message pipe pair.
func (s *Syscalls) PipeCreate() (handle.Handle, handle.Handle, error) {
	a, b := event.NewPipePair()
	return s.tbl.Add(a), s.tbl.Add(b), nil
}

// HandleClose drops one reference through h; the last reference tears the
// object down.
func (s *Syscalls) HandleClose(h handle.Handle) error {
	return s.tbl.Close(h)
}

// HandleDuplicate returns a second handle to the object behind h.
func (s *Syscalls) HandleDuplicate(h handle.Handle) (handle.Handle, error) {
	return s.tbl.Duplicate(h)
}
