// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Queue-backed executor for asynchronous packet handling in waiter pools.
// Tasks pass through an unbounded FIFO so waiters never stall on slow
// handlers.

package concurrency

import (
	"errors"
	"sync"

	"github.com/eapache/queue"
)

// ErrExecutorClosed is returned by Submit after Close.
var ErrExecutorClosed = errors.New("executor is closed")

// TaskFunc is a unit of deferred work.
type TaskFunc func()

// Executor dispatches tasks to a fixed set of workers through an unbounded
// FIFO queue.
type Executor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  *queue.Queue
	closed bool
	wg     sync.WaitGroup
}

// NewExecutor starts numWorkers workers draining the task queue.
func NewExecutor(numWorkers int) *Executor {
	if numWorkers < 1 {
		numWorkers = 1
	}
	e := &Executor{tasks: queue.New()}
	e.cond = sync.NewCond(&e.mu)
	e.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go e.run()
	}
	return e
}

// Submit enqueues a task for execution in FIFO order.
func (e *Executor) Submit(task TaskFunc) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrExecutorClosed
	}
	e.tasks.Add(task)
	e.mu.Unlock()
	e.cond.Signal()
	return nil
}

// Close stops accepting tasks, drains the queue and joins the workers.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()
	e.cond.Broadcast()
	e.wg.Wait()
}

func (e *Executor) run() {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		for e.tasks.Length() == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.tasks.Length() == 0 {
			e.mu.Unlock()
			return
		}
		task := e.tasks.Remove().(TaskFunc)
		e.mu.Unlock()
		task()
	}
}
