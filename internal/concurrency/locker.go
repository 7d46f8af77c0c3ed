// File: internal/concurrency/locker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Locker selection for short critical sections. Signal-delivery paths run
// in the signaller's context and never sleep, so they take the spinlock
// flavor; thread-context paths default to the sleeping mutex.

package concurrency

import (
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Locker is the minimal mutual-exclusion contract used by kernio objects.
// Both implementations guard sections that complete in bounded time.
type Locker interface {
	Lock()
	Unlock()
}

// NewMutexLocker returns a sleeping-mutex locker for thread-context paths.
func NewMutexLocker() Locker {
	return &sync.Mutex{}
}

// SpinLocker is a test-and-set spinlock with adaptive backoff. Suited to
// signal-delivery paths where holders never block and hold times are a few
// dozen instructions.
type SpinLocker struct {
	state atomix.Uint64
}

// NewSpinLocker returns an unlocked spinlock.
func NewSpinLocker() *SpinLocker {
	return &SpinLocker{}
}

// Lock acquires the spinlock, spinning with backoff while contended.
func (l *SpinLocker) Lock() {
	sw := spin.Wait{}
	for !l.state.CompareAndSwapAcqRel(0, 1) {
		sw.Once()
	}
}

// Unlock releases the spinlock.
func (l *SpinLocker) Unlock() {
	l.state.StoreRelease(0)
}
