package writer

import (
	"github.com/lanikai/alohacam/media"
)

// Outcome is the terminal status a container reports when it stops writing.
type Outcome int

const (
	Completed Outcome = iota
	Failed
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Track is one elementary stream inside a muxed container.
type Track interface {
	// ReadyForMoreData reports whether Append would be accepted right now.
	// It turns false permanently once the track is marked finished.
	ReadyForMoreData() bool

	Append(s media.Sample) error

	// MarkFinished tells the track no more samples will follow.
	MarkFinished()
}

// Container is a muxed output file with exactly one video and one audio
// track, created together.
type Container interface {
	Path() string

	Video() Track
	Audio() Track

	// StartWriting opens the file.
	StartWriting() error

	// StartSession sets the timeline origin. Samples stamped before it are
	// trimmed from the file.
	StartSession(at media.Timestamp)

	// Finish flushes both tracks and closes the file. done is called exactly
	// once, from any goroutine, with the terminal outcome; err is set only for
	// Failed.
	Finish(done func(Outcome, error))

	// Cancel abandons the file. Finish callbacks still fire, with Cancelled.
	Cancel()
}

// ContainerFactory creates the container, video track and audio track for a
// recording to path.
type ContainerFactory func(path string) (Container, error)
