//////////////////////////////////////////////////////////////////////////////
//
// Interfaces a capture platform implements for CameraSession
//
// Copyright 2019 Lanikai Labs. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package alohacam

import (
	"fmt"

	"github.com/lanikai/alohacam/device"
	"github.com/lanikai/alohacam/media"
)

// Platform is the native capture stack. Except where noted, methods are only
// called from the session's own goroutine.
type Platform interface {
	// Devices enumerates capture hardware of one media type, in platform
	// preference order. May be called from any goroutine.
	Devices(mt device.MediaType) []device.Device

	AuthorizationStatus(mt device.MediaType) AuthorizationStatus

	// RequestAccess prompts the user. The channel yields the decision once.
	RequestAccess(mt device.MediaType) <-chan bool

	NewSession() CaptureSession
	NewInput(d device.Device) (Input, error)
	NewPhotoOutput() PhotoOutput
	NewSampleBufferOutput(settings SampleBufferSettings) SampleBufferOutput
	NewMovieFileOutput() MovieFileOutput

	// BeginBackgroundTask asks the host to keep running while a recording
	// finishes. The returned function ends the task.
	BeginBackgroundTask(name string) (end func())
}

type AuthorizationStatus int

const (
	AuthNotDetermined AuthorizationStatus = iota
	AuthRestricted
	AuthDenied
	AuthAuthorized
)

func (a AuthorizationStatus) String() string {
	switch a {
	case AuthNotDetermined:
		return "not determined"
	case AuthRestricted:
		return "restricted"
	case AuthDenied:
		return "denied"
	case AuthAuthorized:
		return "authorized"
	}
	return fmt.Sprintf("AuthorizationStatus(%d)", int(a))
}

// CaptureSession is the graph of inputs and outputs. Graph changes happen
// between BeginConfiguration and CommitConfiguration.
type CaptureSession interface {
	BeginConfiguration()
	CommitConfiguration()

	CanSetPreset(p Preset) bool
	SetPreset(p Preset)

	CanAddInput(in Input) bool
	AddInput(in Input)
	RemoveInput(in Input)

	CanAddOutput(out Output) bool
	AddOutput(out Output)
	RemoveOutput(out Output)

	StartRunning()
	StopRunning()
	IsRunning() bool

	// Events delivers runtime notifications. The channel is the same on every
	// call.
	Events() <-chan Event
}

// Input feeds one capture device into the session.
type Input interface {
	Device() device.Device

	// Controls returns nil for devices without adjustable hardware, such as
	// microphones.
	Controls() Controls
}

// Controls adjusts a camera. Setters require Lock to have succeeded.
type Controls interface {
	Lock() error
	Unlock()

	ZoomRange() (min, max float64)
	Zoom() float64
	SetZoom(zoom float64)

	HasTorch() bool
	SetTorch(on bool)

	HasFlash() bool

	FocusPointSupported() bool
	FocusModeSupported(mode FocusMode) bool
	SetFocusPoint(p Point)
	SetFocusMode(mode FocusMode)

	ExposurePointSupported() bool
	ExposureModeSupported(mode ExposureMode) bool
	SetExposurePoint(p Point)
	SetExposureMode(mode ExposureMode)

	SetSubjectAreaChangeMonitoring(enabled bool)

	// SupportsCodec reports whether the camera can encode video as codec.
	SupportsCodec(codec media.Codec) bool
}

type FocusMode int

const (
	FocusLocked FocusMode = iota
	FocusAuto
	FocusContinuousAuto
)

type ExposureMode int

const (
	ExposureLocked ExposureMode = iota
	ExposureAuto
	ExposureContinuousAuto
)

// Output is a node the session delivers captured data to.
type Output interface {
	// SetVideoOrientation applies to the output's video connection. Only
	// meaningful once attached.
	SetVideoOrientation(o Orientation)
}

type Orientation int

const (
	OrientationPortrait Orientation = iota
	OrientationLandscapeRight
)

type StabilizationMode int

const (
	StabilizationOff StabilizationMode = iota
	StabilizationStandard
	StabilizationAuto
)

type FlashMode int

const (
	FlashOff FlashMode = iota
	FlashOn
	FlashAuto
)

type PhotoSettings struct {
	Codec media.Codec
	Flash FlashMode
}

// PhotoCallbacks report the progress of one capture. They may be called from
// any goroutine.
type PhotoCallbacks struct {
	WillCapture func()
	Processed   func(data []byte, err error)
	Finished    func()
}

type PhotoOutput interface {
	Output
	SupportedCodecs() []media.Codec
	Capture(settings PhotoSettings, cb PhotoCallbacks)
}

// SampleBufferSettings requests encoded formats from a SampleBufferOutput.
type SampleBufferSettings struct {
	Video        media.VideoFormat
	VideoBitrate int
	Audio        media.AudioFormat
}

// SampleBufferOutput delivers encoded video and audio samples from the
// session's camera and microphone.
type SampleBufferOutput interface {
	Output
	SetStabilization(mode StabilizationMode)

	// Formats actually produced. Parameter sets may be missing until the
	// first key frame.
	VideoFormat() media.VideoFormat
	AudioFormat() media.AudioFormat

	// SetSampleHandler installs the function called, from capture goroutines,
	// with every sample. nil stops delivery.
	SetSampleHandler(fn func(media.Sample))
}

// MovieFileCallbacks may be called from any goroutine.
type MovieFileCallbacks struct {
	Started  func()
	Finished func(path string, err error)
}

// MovieFileOutput records to a file on its own.
type MovieFileOutput interface {
	Output
	SetStabilization(mode StabilizationMode)
	StartRecording(path string, codec media.Codec, cb MovieFileCallbacks)
	StopRecording()
}

// Event is a runtime notification from a CaptureSession.
type Event interface {
	isEvent()
}

type RuntimeError struct {
	Err error
}

type Interrupted struct {
	Reason InterruptionReason
}

type InterruptionEnded struct{}

// SubjectAreaChanged reports that the scene in front of the camera changed
// substantially. Only sent while monitoring is enabled.
type SubjectAreaChanged struct{}

type DeviceConnected struct {
	DeviceID string
}

type DeviceDisconnected struct {
	DeviceID string
}

func (RuntimeError) isEvent()       {}
func (Interrupted) isEvent()        {}
func (InterruptionEnded) isEvent()  {}
func (SubjectAreaChanged) isEvent() {}
func (DeviceConnected) isEvent()    {}
func (DeviceDisconnected) isEvent() {}

type InterruptionReason int

const (
	ReasonVideoDeviceNotAvailableInBackground InterruptionReason = iota + 1
	ReasonAudioDeviceInUseByAnotherClient
	ReasonVideoDeviceInUseByAnotherClient
	ReasonVideoDeviceNotAvailableWithMultipleForegroundApps
	ReasonVideoDeviceNotAvailableDueToSystemPressure
)

func (r InterruptionReason) String() string {
	switch r {
	case ReasonVideoDeviceNotAvailableInBackground:
		return "video device not available in background"
	case ReasonAudioDeviceInUseByAnotherClient:
		return "audio device in use by another client"
	case ReasonVideoDeviceInUseByAnotherClient:
		return "video device in use by another client"
	case ReasonVideoDeviceNotAvailableWithMultipleForegroundApps:
		return "video device not available with multiple foreground apps"
	case ReasonVideoDeviceNotAvailableDueToSystemPressure:
		return "video device not available due to system pressure"
	}
	return fmt.Sprintf("InterruptionReason(%d)", int(r))
}

// Resumable reports whether the user can usually resume the session right
// away, as opposed to waiting for the system.
func (r InterruptionReason) Resumable() bool {
	return r == ReasonAudioDeviceInUseByAnotherClient || r == ReasonVideoDeviceInUseByAnotherClient
}
