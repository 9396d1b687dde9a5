package mp4

import (
	"sync"

	"github.com/lanikai/alohacam/media"
)

// Track queues samples of one kind for the file's write loop.
type Track struct {
	kind  media.Kind
	queue chan media.Sample

	mu       sync.Mutex
	finished bool
}

func newTrack(kind media.Kind, size int) *Track {
	return &Track{
		kind:  kind,
		queue: make(chan media.Sample, size),
	}
}

// ReadyForMoreData reports whether the queue has room.
func (t *Track) ReadyForMoreData() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.finished && len(t.queue) < cap(t.queue)
}

// Append queues s without blocking.
func (t *Track) Append(s media.Sample) error {
	if s.Kind != t.kind {
		log.Panicf("mp4: %v sample appended to %v track", s.Kind, t.kind)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		return ErrTrackFinished
	}
	select {
	case t.queue <- s:
		return nil
	default:
		return ErrTrackBusy
	}
}

func (t *Track) MarkFinished() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.finished {
		t.finished = true
		close(t.queue)
	}
}
