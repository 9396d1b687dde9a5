package alohacam

import "github.com/pkg/errors"

var (
	ErrSessionNotRunning  = errors.New("capture session is not running")
	ErrNotAuthorized      = errors.New("camera access not authorized")
	ErrDeviceDisconnected = errors.New("capture device disconnected")
	ErrNotSupported       = errors.New("not supported") // "can't do" items
)

// Configuration failure reasons, reported through StatusConfigurationFailed.
const (
	msgNoVideoDevice   = "no video device available"
	msgNoAudioDevice   = "no audio device available"
	msgAddVideoInput   = "could not add video input"
	msgAddAudioInput   = "could not add audio input"
	msgAddPhotoOutput  = "could not add photo output"
	msgAddVideoOutput  = "could not add video output"
	msgNoSessionPreset = "session preset not supported"
)
