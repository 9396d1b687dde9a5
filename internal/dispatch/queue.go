// Package dispatch provides strictly serial execution contexts.
//
// A Queue runs submitted functions one at a time, in submission order, on a
// single goroutine. Dispatch never blocks the caller, so a queue can be handed
// to code running on another queue without risk of lock-step deadlock.
package dispatch

import (
	"sync"

	"github.com/lanikai/alohacam/internal/logging"
)

var log = logging.DefaultLogger.WithTag("dispatch")

type Queue struct {
	name string

	box *Mailbox

	// Closed when Close() is requested, to trigger run loop exit.
	quit chan struct{}

	// Closed when run loop actually terminates.
	terminated chan struct{}

	closeOnce sync.Once
}

// NewQueue starts a serial queue. The name only shows up in log messages.
func NewQueue(name string) *Queue {
	q := &Queue{
		name:       name,
		box:        NewMailbox(),
		quit:       make(chan struct{}),
		terminated: make(chan struct{}),
	}
	go q.run()
	return q
}

// Dispatch schedules fn to run after everything previously dispatched. Calls
// after Close are dropped.
func (q *Queue) Dispatch(fn func()) {
	if !q.box.Post(fn) {
		log.Debug("%s: dropping task dispatched after close", q.name)
	}
}

// Sync dispatches fn and waits for it to complete. Must not be called from the
// queue itself.
func (q *Queue) Sync(fn func()) {
	done := make(chan struct{})
	q.Dispatch(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-q.terminated:
	}
}

// Close stops accepting tasks, runs the ones already queued, and waits for the
// run loop to exit.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.box.Close()
		close(q.quit)
	})
	<-q.terminated
}

func (q *Queue) run() {
	defer close(q.terminated)
	log.Debug("%s: started", q.name)

	for {
		select {
		case <-q.box.Wake():
		case <-q.quit:
			// Tasks queued before Close still run, including any they queue.
			for tasks := q.box.Take(); len(tasks) > 0; tasks = q.box.Take() {
				for _, fn := range tasks {
					fn()
				}
			}
			log.Debug("%s: stopped", q.name)
			return
		}

		for _, fn := range q.box.Take() {
			fn()
		}
	}
}
