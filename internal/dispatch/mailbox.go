package dispatch

import (
	"sync"
)

// Mailbox is an unbounded, non-blocking inbox of functions for a goroutine
// that also waits on other channels. The owner selects on Wake and runs what
// Take returns.
type Mailbox struct {
	pending []func()

	// Signalled (non-blocking) whenever pending goes from empty to non-empty.
	wake chan struct{}

	closed bool

	sync.Mutex
}

func NewMailbox() *Mailbox {
	return &Mailbox{wake: make(chan struct{}, 1)}
}

// Post adds fn to the mailbox. It returns false, dropping fn, once the mailbox
// is closed.
func (m *Mailbox) Post(fn func()) bool {
	m.Lock()
	defer m.Unlock()

	if m.closed {
		return false
	}
	m.pending = append(m.pending, fn)
	if len(m.pending) == 1 {
		select {
		case m.wake <- struct{}{}:
		default:
		}
	}
	return true
}

// Wake receives a value when functions are waiting to be taken.
func (m *Mailbox) Wake() <-chan struct{} {
	return m.wake
}

// Take removes and returns everything posted so far, in order.
func (m *Mailbox) Take() []func() {
	m.Lock()
	defer m.Unlock()

	fns := m.pending
	m.pending = nil
	return fns
}

// Close makes later posts fail. Functions already posted can still be taken.
func (m *Mailbox) Close() {
	m.Lock()
	m.closed = true
	m.Unlock()
}
