package linuxcam

import (
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/lanikai/alohacam"
	"github.com/lanikai/alohacam/device"
	"github.com/lanikai/alohacam/internal/v4l2"
	"github.com/lanikai/alohacam/media"
)

type cameraInput struct {
	cam      *camera
	controls *controls
}

func (in *cameraInput) Device() device.Device       { return in.cam }
func (in *cameraInput) Controls() alohacam.Controls { return in.controls }

// Close releases the video node. Sessions do this when the input is removed.
func (in *cameraInput) Close() error { return in.controls.dev.Close() }

type micInput struct {
	mic *microphone
}

func (in *micInput) Device() device.Device       { return in.mic }
func (in *micInput) Controls() alohacam.Controls { return nil }

// controls maps camera controls onto V4L2 controls. A control is supported
// iff the driver answers QUERYCTRL for it.
type controls struct {
	dev *v4l2.Device

	zoom     *v4l2.Control
	flash    *v4l2.Control
	focus    *v4l2.Control
	exposure *v4l2.Control

	mu     sync.Mutex
	locked bool
}

func newControls(dev *v4l2.Device) *controls {
	c := &controls{dev: dev}
	query := func(id uint32) *v4l2.Control {
		ctrl, err := dev.QueryControl(id)
		if err != nil {
			return nil
		}
		log.Debug("%s: %s [%d, %d]", dev.Path(), ctrl.Name, ctrl.Min, ctrl.Max)
		return &ctrl
	}
	c.zoom = query(v4l2.V4L2_CID_ZOOM_ABSOLUTE)
	c.flash = query(v4l2.V4L2_CID_FLASH_LED_MODE)
	c.focus = query(v4l2.V4L2_CID_FOCUS_AUTO)
	c.exposure = query(v4l2.V4L2_CID_EXPOSURE_AUTO)
	return c
}

func (c *controls) Lock() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locked {
		return errors.Errorf("linuxcam: %s is locked for configuration", c.dev.Path())
	}
	c.locked = true
	return nil
}

func (c *controls) Unlock() {
	c.mu.Lock()
	c.locked = false
	c.mu.Unlock()
}

func (c *controls) set(id uint32, value int32) {
	if err := c.dev.SetControl(id, value); err != nil {
		log.Warn("%v", err)
	}
}

// Zoom factors are ZOOM_ABSOLUTE values relative to the widest setting.
// Cameras whose range starts at zero have no meaningful factor.
func (c *controls) ZoomRange() (min, max float64) {
	if c.zoom == nil || c.zoom.Min <= 0 || c.zoom.Max <= c.zoom.Min {
		return 1, 1
	}
	return 1, zoomFactor(*c.zoom, c.zoom.Max)
}

func (c *controls) Zoom() float64 {
	if min, max := c.ZoomRange(); min == max {
		return 1
	}
	v, err := c.dev.GetControl(v4l2.V4L2_CID_ZOOM_ABSOLUTE)
	if err != nil {
		log.Warn("%v", err)
		return 1
	}
	return zoomFactor(*c.zoom, v)
}

func (c *controls) SetZoom(zoom float64) {
	if min, max := c.ZoomRange(); min == max {
		return
	}
	c.set(v4l2.V4L2_CID_ZOOM_ABSOLUTE, zoomValue(*c.zoom, zoom))
}

func zoomFactor(ctrl v4l2.Control, value int32) float64 {
	return float64(value) / float64(ctrl.Min)
}

// zoomValue converts a factor to the nearest valid control value.
func zoomValue(ctrl v4l2.Control, factor float64) int32 {
	v := factor * float64(ctrl.Min)
	if ctrl.Step > 1 {
		steps := math.Round((v - float64(ctrl.Min)) / float64(ctrl.Step))
		v = float64(ctrl.Min) + steps*float64(ctrl.Step)
	}
	v = math.Round(v)
	if v < float64(ctrl.Min) {
		v = float64(ctrl.Min)
	}
	if v > float64(ctrl.Max) {
		v = float64(ctrl.Max)
	}
	return int32(v)
}

func (c *controls) HasTorch() bool {
	return c.flash != nil && c.flash.Max >= v4l2.V4L2_FLASH_LED_MODE_TORCH
}

func (c *controls) SetTorch(on bool) {
	mode := int32(v4l2.V4L2_FLASH_LED_MODE_NONE)
	if on {
		mode = v4l2.V4L2_FLASH_LED_MODE_TORCH
	}
	c.set(v4l2.V4L2_CID_FLASH_LED_MODE, mode)
}

// Stills are single MJPEG frames; there is no strobe to fire with them.
func (c *controls) HasFlash() bool { return false }

// V4L2 has no portable focus or metering regions.
func (c *controls) FocusPointSupported() bool    { return false }
func (c *controls) ExposurePointSupported() bool { return false }

func (c *controls) SetFocusPoint(alohacam.Point)    {}
func (c *controls) SetExposurePoint(alohacam.Point) {}

func (c *controls) FocusModeSupported(m alohacam.FocusMode) bool {
	return c.focus != nil
}

func (c *controls) SetFocusMode(m alohacam.FocusMode) {
	var auto int32
	if m != alohacam.FocusLocked {
		auto = 1
	}
	c.set(v4l2.V4L2_CID_FOCUS_AUTO, auto)
}

func (c *controls) ExposureModeSupported(m alohacam.ExposureMode) bool {
	return c.exposure != nil
}

func (c *controls) SetExposureMode(m alohacam.ExposureMode) {
	if m == alohacam.ExposureLocked {
		c.set(v4l2.V4L2_CID_EXPOSURE_AUTO, v4l2.V4L2_EXPOSURE_MANUAL)
		return
	}
	// Many UVC cameras only offer aperture priority as their automatic mode.
	if err := c.dev.SetControl(v4l2.V4L2_CID_EXPOSURE_AUTO, v4l2.V4L2_EXPOSURE_AUTO); err != nil {
		c.set(v4l2.V4L2_CID_EXPOSURE_AUTO, v4l2.V4L2_EXPOSURE_APERTURE_PRIORITY)
	}
}

func (c *controls) SetSubjectAreaChangeMonitoring(bool) {}

func (c *controls) SupportsCodec(codec media.Codec) bool {
	return codec == media.H264
}
