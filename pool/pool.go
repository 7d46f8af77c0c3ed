// File: pool/pool.go
// Package pool implements the consumer-pool protocol on top of an IO
// port: N waiters share one ring, each packet reaches exactly one waiter,
// and the pool shuts down by enqueueing one sentinel per waiter.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"runtime"
	"sync"

	"github.com/bytedance/gopkg/util/gopool"

	"github.com/momentics/kernio/api"
	"github.com/momentics/kernio/internal/concurrency"
	"github.com/momentics/kernio/port"
)

// ExitFunc decides whether a received key terminates the waiter. The
// default exits on api.SentinelKey.
type ExitFunc func(key api.Key) bool

// Options tune a pool.
type Options struct {
	// Workers is the number of concurrent waiters. Defaults to
	// runtime.NumCPU().
	Workers int
	// Exit overrides the termination convention.
	Exit ExitFunc
	// Async dispatches handler invocations to a task executor so slow
	// handlers do not stall the waiter.
	Async bool
}

// Pool runs a set of waiters against one port.
type Pool struct {
	port    *port.Port
	handler api.Handler
	opts    Options
	exec    *concurrency.Executor

	wg sync.WaitGroup

	mu      sync.Mutex
	err     error
	started bool
}

var _ api.GracefulShutdown = (*Pool)(nil)

// New creates a pool over p delivering user packets to h.
func New(p *port.Port, h api.Handler, opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Exit == nil {
		opts.Exit = func(key api.Key) bool { return key == api.SentinelKey }
	}
	pl := &Pool{port: p, handler: h, opts: opts}
	if opts.Async {
		pl.exec = concurrency.NewExecutor(opts.Workers)
	}
	return pl
}

// Start launches the waiters. Safe to call once.
func (pl *Pool) Start() error {
	pl.mu.Lock()
	if pl.started {
		pl.mu.Unlock()
		return api.ErrBadState
	}
	pl.started = true
	pl.mu.Unlock()

	pl.wg.Add(pl.opts.Workers)
	for i := 0; i < pl.opts.Workers; i++ {
		gopool.Go(pl.worker)
	}
	return nil
}

func (pl *Pool) worker() {
	defer pl.wg.Done()
	for {
		pkt, err := pl.port.Wait(api.UserPayloadSize)
		if err != nil {
			// Drained means the port closed under us; anything else is
			// recorded for the owner.
			if err != api.ErrDrained {
				pl.recordErr(err)
			}
			return
		}
		if pl.opts.Exit(pkt.Key) {
			return
		}
		pl.dispatch(pkt)
	}
}

func (pl *Pool) dispatch(pkt api.Packet) {
	key, payload := pkt.Key, pkt.User()
	if pl.exec != nil {
		_ = pl.exec.Submit(func() {
			if err := pl.handler.Handle(key, payload); err != nil {
				pl.recordErr(err)
			}
		})
		return
	}
	if err := pl.handler.Handle(key, payload); err != nil {
		pl.recordErr(err)
	}
}

func (pl *Pool) recordErr(err error) {
	pl.mu.Lock()
	if pl.err == nil {
		pl.err = err
	}
	pl.mu.Unlock()
}

// Err returns the first error observed by a waiter or handler.
func (pl *Pool) Err() error {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.err
}

// Shutdown enqueues one sentinel per waiter, joins them and stops the
// executor. The port stays open.
func (pl *Pool) Shutdown() error {
	var payload api.UserPayload
	for i := 0; i < pl.opts.Workers; i++ {
		for {
			err := pl.port.Queue(api.SentinelKey, payload, api.UserPayloadSize)
			if err == nil {
				break
			}
			if err != api.ErrNotEnoughBuffer {
				return err
			}
			// Ring full: waiters are still draining, give them room.
			runtime.Gosched()
		}
	}
	pl.wg.Wait()
	if pl.exec != nil {
		pl.exec.Close()
	}
	return pl.Err()
}

// Wait joins the waiters without enqueueing sentinels, for pools
// terminated by port close or caller-provided sentinels.
func (pl *Pool) Wait() error {
	pl.wg.Wait()
	if pl.exec != nil {
		pl.exec.Close()
	}
	return pl.Err()
}
