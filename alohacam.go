//////////////////////////////////////////////////////////////////////////////
//
// Package alohacam wraps a platform camera stack behind a single serialized
// capture session: photo capture, audio/video recording, zoom, torch, flash,
// front/back switching and interruption handling, reported to the host
// application through a Delegate.
//
// Copyright 2019 Lanikai Labs. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package alohacam

import (
	"fmt"

	"github.com/lanikai/alohacam/device"
	"github.com/lanikai/alohacam/internal/logging"
	"github.com/lanikai/alohacam/internal/writer"
)

var log = logging.DefaultLogger.WithTag("alohacam")

// Facing selects the physical camera.
type Facing int

const (
	FacingBack Facing = iota
	FacingFront
)

func (f Facing) position() device.Position {
	if f == FacingFront {
		return device.Front
	}
	return device.Back
}

func (f Facing) String() string {
	return f.position().String()
}

// OutputMode is what the session is configured to produce.
type OutputMode int

const (
	ModePhoto OutputMode = iota
	ModeVideo
	ModeBoth
)

func (m OutputMode) IncludesPhoto() bool { return m == ModePhoto || m == ModeBoth }
func (m OutputMode) IncludesVideo() bool { return m == ModeVideo || m == ModeBoth }

func (m OutputMode) String() string {
	switch m {
	case ModePhoto:
		return "photo"
	case ModeVideo:
		return "video"
	case ModeBoth:
		return "both"
	}
	return fmt.Sprintf("OutputMode(%d)", int(m))
}

// ParseOutputMode is the inverse of OutputMode.String.
func ParseOutputMode(s string) (OutputMode, error) {
	switch s {
	case "photo":
		return ModePhoto, nil
	case "video":
		return ModeVideo, nil
	case "both":
		return ModeBoth, nil
	}
	return ModePhoto, fmt.Errorf("unknown output mode %q", s)
}

// Preset names a session quality level. Platforms map it onto resolutions
// they support.
type Preset string

const (
	PresetHigh      Preset = "high"
	PresetMedium    Preset = "medium"
	PresetLow       Preset = "low"
	PresetPhoto     Preset = "photo"
	Preset1280x720  Preset = "1280x720"
	Preset1920x1080 Preset = "1920x1080"
)

// SyncMode selects how recorded audio and video are aligned.
type SyncMode = writer.SyncMode

const (
	// Open the file a fixed offset after the first audio sample. Video ends
	// once it catches up with the last audio written.
	SyncAudioLead = writer.SyncAudioLead

	// Open the file at the first sample of either kind.
	SyncFirstBuffer = writer.SyncFirstBuffer
)

// Recorded file types, so hosts can supply their own container.
type (
	Container = writer.Container
	Track     = writer.Track
	Outcome   = writer.Outcome
)

const (
	Completed = writer.Completed
	Failed    = writer.Failed
	Cancelled = writer.Cancelled
)
