package writer

import (
	"fmt"

	"github.com/lanikai/alohacam/media"
)

// State is the writer pipeline's lifecycle, one of Idle, Pending, Active or
// Terminal. Anything that holds writer objects holds all three of them.
type State interface {
	fmt.Stringer
	isState()
}

// Idle: no writer exists. Samples are dropped.
type Idle struct{}

// Pending: container and tracks exist but no write session has started.
type Pending struct {
	rec *recording
}

// Active: the write session is open and samples are being appended.
type Active struct {
	rec *recording

	// First audio timestamp seen (audio-led mode) and the session origin.
	audioStart   media.Timestamp
	sessionStart media.Timestamp

	// Last appended timestamp per media.Kind.
	last [2]media.Timestamp

	// Set when Stop has been requested.
	stopping bool
	// Per media.Kind, set once the track is marked finished.
	finished [2]bool
}

// Terminal: both tracks are finished and the container is closing. Samples
// are dropped until the container reports its outcome.
type Terminal struct {
	rec *recording
}

func (Idle) isState()      {}
func (*Pending) isState()  {}
func (*Active) isState()   {}
func (*Terminal) isState() {}

func (Idle) String() string        { return "idle" }
func (s *Pending) String() string  { return "pending " + s.rec.path }
func (s *Active) String() string   { return "active " + s.rec.path }
func (s *Terminal) String() string { return "terminal " + s.rec.path }

// recording groups the container with its two tracks.
type recording struct {
	path      string
	container Container
	tracks    [2]Track // indexed by media.Kind
}

func newRecording(c Container) *recording {
	if c == nil || c.Video() == nil || c.Audio() == nil {
		panic("writer: container must carry both video and audio tracks")
	}
	return &recording{
		path:      c.Path(),
		container: c,
		tracks:    [2]Track{media.Video: c.Video(), media.Audio: c.Audio()},
	}
}
