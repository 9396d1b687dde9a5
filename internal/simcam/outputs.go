package simcam

import (
	"sync"

	"github.com/lanikai/alohacam"
	"github.com/lanikai/alohacam/media"
)

// connection holds the video connection properties every output has.
type connection struct {
	mu            sync.Mutex
	orientation   alohacam.Orientation
	stabilization alohacam.StabilizationMode
}

func (c *connection) SetVideoOrientation(o alohacam.Orientation) {
	c.mu.Lock()
	c.orientation = o
	c.mu.Unlock()
}

func (c *connection) SetStabilization(m alohacam.StabilizationMode) {
	c.mu.Lock()
	c.stabilization = m
	c.mu.Unlock()
}

// Connection returns the orientation and stabilization last applied.
func (c *connection) Connection() (alohacam.Orientation, alohacam.StabilizationMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orientation, c.stabilization
}

type PhotoOutput struct {
	connection
	platform *Platform

	mu       sync.Mutex
	settings []alohacam.PhotoSettings
}

func (o *PhotoOutput) SupportedCodecs() []media.Codec {
	return []media.Codec{media.HEVC, media.JPEG}
}

// Capture delivers the platform's Photo asynchronously.
func (o *PhotoOutput) Capture(settings alohacam.PhotoSettings, cb alohacam.PhotoCallbacks) {
	o.mu.Lock()
	o.settings = append(o.settings, settings)
	o.mu.Unlock()

	o.platform.mu.Lock()
	photo := append([]byte(nil), o.platform.Photo...)
	o.platform.mu.Unlock()

	go func() {
		cb.WillCapture()
		cb.Processed(photo, nil)
		cb.Finished()
	}()
}

// Settings returns the settings of every capture so far.
func (o *PhotoOutput) Settings() []alohacam.PhotoSettings {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]alohacam.PhotoSettings(nil), o.settings...)
}

type SampleOutput struct {
	connection
	settings alohacam.SampleBufferSettings

	mu      sync.Mutex
	handler func(media.Sample)
}

func (o *SampleOutput) VideoFormat() media.VideoFormat { return o.settings.Video }
func (o *SampleOutput) AudioFormat() media.AudioFormat { return o.settings.Audio }

// Settings returns what the session asked for.
func (o *SampleOutput) Settings() alohacam.SampleBufferSettings { return o.settings }

func (o *SampleOutput) SetSampleHandler(fn func(media.Sample)) {
	o.mu.Lock()
	o.handler = fn
	o.mu.Unlock()
}

// Emit delivers a sample as a capture callback would. It reports whether a
// handler was installed.
func (o *SampleOutput) Emit(s media.Sample) bool {
	o.mu.Lock()
	fn := o.handler
	o.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(s)
	return true
}

type MovieOutput struct {
	connection

	mu        sync.Mutex
	path      string
	codec     media.Codec
	cb        alohacam.MovieFileCallbacks
	recording bool
	// Error to report when the recording finishes.
	FinishErr error
}

func (o *MovieOutput) StartRecording(path string, codec media.Codec, cb alohacam.MovieFileCallbacks) {
	o.mu.Lock()
	o.path, o.codec, o.cb, o.recording = path, codec, cb, true
	o.mu.Unlock()
	go cb.Started()
}

func (o *MovieOutput) StopRecording() {
	o.mu.Lock()
	if !o.recording {
		o.mu.Unlock()
		return
	}
	o.recording = false
	path, cb, err := o.path, o.cb, o.FinishErr
	o.mu.Unlock()
	go cb.Finished(path, err)
}

// Recording returns the path and codec of the current or last recording.
func (o *MovieOutput) Recording() (path string, codec media.Codec, active bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.path, o.codec, o.recording
}
