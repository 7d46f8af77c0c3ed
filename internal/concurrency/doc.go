// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package concurrency holds the locking and task-dispatch machinery shared
// by the kernio packages: a selectable short-critical-section locker
// (sleeping mutex or spinlock) and a queue-backed executor for waiter-pool
// task dispatch.
package concurrency
