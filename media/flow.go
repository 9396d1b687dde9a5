package media

import (
	"sync"
	"sync/atomic"
)

// Flow hands samples from capture callback goroutines to the one goroutine
// that owns the recording. Offer never blocks: when the queue is full the
// incoming sample is dropped, the same policy a track applies when it is not
// ready for more data.
type Flow struct {
	ch chan Sample

	dropped [2]uint64 // indexed by Kind

	closed bool

	sync.RWMutex
}

func NewFlow(capacity int) *Flow {
	if capacity <= 0 {
		panic("media.Flow: capacity must be positive")
	}
	return &Flow{ch: make(chan Sample, capacity)}
}

// Offer queues s for the consumer. It returns false if s was dropped because
// the queue is full or the flow is closed.
func (f *Flow) Offer(s Sample) bool {
	f.RLock()
	defer f.RUnlock()

	if f.closed {
		return false
	}
	select {
	case f.ch <- s:
		return true
	default:
		n := atomic.AddUint64(&f.dropped[s.Kind&1], 1)
		if n&(n-1) == 0 {
			// Log on powers of two to keep a stalled consumer from flooding.
			log.Warn("media.Flow: consumer backlogged, %d %v samples dropped", n, s.Kind)
		}
		return false
	}
}

// Samples returns the receive side of the flow. It is closed by Close.
func (f *Flow) Samples() <-chan Sample {
	return f.ch
}

// Dropped returns how many samples of the given kind were dropped because the
// queue was full.
func (f *Flow) Dropped(kind Kind) uint64 {
	return atomic.LoadUint64(&f.dropped[kind&1])
}

// Close stops accepting samples and closes the receive channel. Samples still
// queued can be drained by the consumer.
func (f *Flow) Close() error {
	f.Lock()
	defer f.Unlock()

	if !f.closed {
		f.closed = true
		close(f.ch)
	}
	return nil
}
