// File: handle/table.go
// Package handle maps integer handles to kernel objects. The table is the
// safe stand-in for a pointer-carrying handle slot: user-facing surfaces
// hold handles, the table resolves them, and closing the last handle to an
// object tears the object down.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package handle

import (
	"sync"

	"github.com/momentics/kernio/api"
)

// Handle identifies an object within a table. Handles are positive and
// never reused for the lifetime of the table.
type Handle int64

// InvalidHandle is returned alongside errors.
const InvalidHandle Handle = 0

// refCount is shared between duplicated handles to one object.
type refCount struct {
	n int
}

type entry struct {
	obj api.Object
	ref *refCount
}

// Table is a thread-safe handle table.
type Table struct {
	mu      sync.Mutex
	next    Handle
	entries map[Handle]entry
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		next:    1,
		entries: make(map[Handle]entry),
	}
}

// Add registers an object and returns a fresh handle owning one
// reference.
func (t *Table) Add(obj api.Object) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.next
	t.next++
	t.entries[h] = entry{obj: obj, ref: &refCount{n: 1}}
	return h
}

// Duplicate returns a new handle to the same object, sharing its
// reference count.
func (t *Table) Duplicate(h Handle) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[h]
	if !ok {
		return InvalidHandle, api.ErrBadHandle
	}
	e.ref.n++
	nh := t.next
	t.next++
	t.entries[nh] = e
	return nh, nil
}

// Get resolves a handle to its object.
func (t *Table) Get(h Handle) (api.Object, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[h]
	if !ok {
		return nil, api.ErrBadHandle
	}
	return e.obj, nil
}

// GetAs resolves a handle and asserts its concrete type. A live handle of
// the wrong type is still a bad handle to the caller.
func GetAs[T api.Object](t *Table, h Handle) (T, error) {
	var zero T
	obj, err := t.Get(h)
	if err != nil {
		return zero, err
	}
	typed, ok := obj.(T)
	if !ok {
		return zero, api.ErrBadHandle
	}
	return typed, nil
}

// Close drops one reference through the handle. The last reference closes
// the object itself.
func (t *Table) Close(h Handle) error {
	t.mu.Lock()
	e, ok := t.entries[h]
	if !ok {
		t.mu.Unlock()
		return api.ErrBadHandle
	}
	delete(t.entries, h)
	e.ref.n--
	last := e.ref.n == 0
	t.mu.Unlock()

	if last {
		return e.obj.Close()
	}
	return nil
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
