// Package device models capture hardware and selects the best device for a
// requested camera facing.
package device

import (
	"fmt"
)

// Position is the side of the host hardware a camera faces.
type Position int

const (
	Unspecified Position = iota
	Back
	Front
)

func (p Position) String() string {
	switch p {
	case Back:
		return "back"
	case Front:
		return "front"
	default:
		return "unspecified"
	}
}

// ParsePosition is the inverse of Position.String.
func ParsePosition(s string) (Position, error) {
	switch s {
	case "back":
		return Back, nil
	case "front":
		return Front, nil
	case "", "unspecified":
		return Unspecified, nil
	}
	return Unspecified, fmt.Errorf("unknown camera position %q", s)
}

// Type is the hardware category of a device.
type Type int

const (
	WideAngle Type = iota
	Telephoto
	UltraWide
	Dual
	External
	Microphone
)

func (t Type) String() string {
	switch t {
	case WideAngle:
		return "wide-angle"
	case Telephoto:
		return "telephoto"
	case UltraWide:
		return "ultra-wide"
	case Dual:
		return "dual"
	case External:
		return "external"
	case Microphone:
		return "microphone"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// MediaType is the kind of data a device captures.
type MediaType int

const (
	Video MediaType = iota
	Audio
)

func (m MediaType) String() string {
	if m == Audio {
		return "audio"
	}
	return "video"
}

// Device is one piece of capture hardware as enumerated by the platform.
type Device interface {
	ID() string
	Name() string
	Type() Type
	Position() Position
	MediaType() MediaType
}

// Describe formats a device for log messages.
func Describe(d Device) string {
	if d == nil {
		return "<none>"
	}
	return fmt.Sprintf("%s (%s, %v, %v)", d.Name(), d.ID(), d.Type(), d.Position())
}
