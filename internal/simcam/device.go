package simcam

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/lanikai/alohacam"
	"github.com/lanikai/alohacam/device"
	"github.com/lanikai/alohacam/media"
)

// Device is a simulated piece of capture hardware.
type Device struct {
	id       string
	name     string
	typ      device.Type
	position device.Position
	media    device.MediaType
}

func (d *Device) ID() string                  { return d.id }
func (d *Device) Name() string                { return d.name }
func (d *Device) Type() device.Type           { return d.typ }
func (d *Device) Position() device.Position   { return d.position }
func (d *Device) MediaType() device.MediaType { return d.media }

// Camera is a simulated camera with adjustable controls. Zero MinZoom and
// MaxZoom mean a fixed lens.
type Camera struct {
	Device

	MinZoom, MaxZoom float64
	Torch            bool
	Flash            bool
	FocusPoint       bool
	ExposurePoint    bool
	Codecs           []media.Codec

	// LockErr, if set, makes Lock fail.
	LockErr error

	mu            sync.Mutex
	locked        bool
	zoom          float64
	torchOn       bool
	focus         alohacam.Point
	focusMode     alohacam.FocusMode
	exposure      alohacam.Point
	exposureMode  alohacam.ExposureMode
	monitoring    bool
	unlockedEdits int
}

// NewCamera returns a wide-angle camera with a 1x-5x zoom, torch, flash and
// H.264/HEVC support.
func NewCamera(id string, position device.Position) *Camera {
	return &Camera{
		Device: Device{
			id:       id,
			name:     "Simulated " + position.String() + " camera",
			typ:      device.WideAngle,
			position: position,
			media:    device.Video,
		},
		MinZoom:       1,
		MaxZoom:       5,
		Torch:         true,
		Flash:         true,
		FocusPoint:    true,
		ExposurePoint: true,
		Codecs:        []media.Codec{media.H264, media.HEVC},
		zoom:          1,
	}
}

// WithType changes the camera type.
func (c *Camera) WithType(t device.Type) *Camera {
	c.typ = t
	return c
}

func NewMicrophone(id string) *Device {
	return &Device{
		id:    id,
		name:  "Simulated microphone",
		typ:   device.Microphone,
		media: device.Audio,
	}
}

func (c *Camera) Lock() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.LockErr != nil {
		return c.LockErr
	}
	if c.locked {
		return errors.New("simcam: device already locked")
	}
	c.locked = true
	return nil
}

func (c *Camera) Unlock() {
	c.mu.Lock()
	c.locked = false
	c.mu.Unlock()
}

// edit runs fn with the mutex held, counting edits made without the device
// lock.
func (c *Camera) edit(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.locked {
		c.unlockedEdits++
	}
	fn()
}

func (c *Camera) ZoomRange() (min, max float64) {
	if c.MinZoom == 0 && c.MaxZoom == 0 {
		return 1, 1
	}
	return c.MinZoom, c.MaxZoom
}

func (c *Camera) Zoom() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoom
}

// SetZoom applies zoom in quarter steps, so the result can differ from the
// request.
func (c *Camera) SetZoom(zoom float64) {
	c.edit(func() { c.zoom = float64(int(zoom*4+0.5)) / 4 })
}

func (c *Camera) HasTorch() bool { return c.Torch }

func (c *Camera) SetTorch(on bool) {
	c.edit(func() { c.torchOn = on })
}

func (c *Camera) TorchOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.torchOn
}

func (c *Camera) HasFlash() bool { return c.Flash }

func (c *Camera) FocusPointSupported() bool                         { return c.FocusPoint }
func (c *Camera) FocusModeSupported(alohacam.FocusMode) bool        { return c.FocusPoint }
func (c *Camera) ExposurePointSupported() bool                      { return c.ExposurePoint }
func (c *Camera) ExposureModeSupported(alohacam.ExposureMode) bool  { return c.ExposurePoint }

func (c *Camera) SetFocusPoint(p alohacam.Point) {
	c.edit(func() { c.focus = p })
}

func (c *Camera) SetFocusMode(m alohacam.FocusMode) {
	c.edit(func() { c.focusMode = m })
}

func (c *Camera) SetExposurePoint(p alohacam.Point) {
	c.edit(func() { c.exposure = p })
}

func (c *Camera) SetExposureMode(m alohacam.ExposureMode) {
	c.edit(func() { c.exposureMode = m })
}

func (c *Camera) SetSubjectAreaChangeMonitoring(enabled bool) {
	c.edit(func() { c.monitoring = enabled })
}

// Focus returns the last focus point, focus mode and monitoring flag set.
func (c *Camera) Focus() (alohacam.Point, alohacam.FocusMode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focus, c.focusMode, c.monitoring
}

// Exposure returns the last exposure point and mode set.
func (c *Camera) Exposure() (alohacam.Point, alohacam.ExposureMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exposure, c.exposureMode
}

// UnlockedEdits counts control changes made without holding the device lock.
func (c *Camera) UnlockedEdits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unlockedEdits
}

func (c *Camera) SupportsCodec(codec media.Codec) bool {
	for _, supported := range c.Codecs {
		if supported == codec {
			return true
		}
	}
	return false
}

// input attaches a device to a session.
type input struct {
	dev    device.Device
	camera *Camera
}

func (in *input) Device() device.Device { return in.dev }

func (in *input) Controls() alohacam.Controls {
	if in.camera == nil {
		return nil
	}
	return in.camera
}
