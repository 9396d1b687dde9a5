// Package media describes the sample buffers that flow from a capture
// platform into a camera session, and the formats they are encoded in.
package media

import (
	"fmt"

	"github.com/lanikai/alohacam/internal/logging"
)

var log = logging.DefaultLogger.WithTag("media")

// Kind tells which capture stream produced a sample. It is decided once, at
// the platform callback boundary.
type Kind int

const (
	Video Kind = iota
	Audio
)

func (k Kind) String() string {
	switch k {
	case Video:
		return "video"
	case Audio:
		return "audio"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// A Sample is one timestamped chunk of encoded media.
//
// Video samples hold one access unit as H.264/HEVC NAL units separated by
// Annex B start codes. Audio samples hold one raw AAC frame (no ADTS header).
type Sample struct {
	Kind Kind

	// Presentation timestamp on the capture clock.
	PTS Timestamp

	Data []byte

	// Set on video samples that can be decoded independently.
	KeyFrame bool
}

func (s Sample) String() string {
	return fmt.Sprintf("%v sample @%v (%d bytes)", s.Kind, s.PTS, len(s.Data))
}
