package main

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lanikai/alohacam"
	"github.com/lanikai/alohacam/internal/linuxcam"
	"github.com/lanikai/alohacam/internal/simcam"
)

// event is a delegate callback as sent to websocket clients.
type event struct {
	Type    string  `json:"type"`
	Status  string  `json:"status,omitempty"`
	Zoom    float64 `json:"zoom,omitempty"`
	On      *bool   `json:"on,omitempty"`
	Running *bool   `json:"running,omitempty"`
	Path    string  `json:"path,omitempty"`
	Error   string  `json:"error,omitempty"`
	Reason  string  `json:"reason,omitempty"`
	State   *state  `json:"state,omitempty"`

	// Photo data, saved by whoever consumes the event.
	data     []byte
	terminal bool
}

// state is the session as seen through its getters.
type state struct {
	Status          string  `json:"status"`
	Facing          string  `json:"facing"`
	Mode            string  `json:"mode"`
	Zoom            float64 `json:"zoom"`
	Torch           bool    `json:"torch"`
	Flash           bool    `json:"flash"`
	Recording       bool    `json:"recording"`
	Running         bool    `json:"running"`
	HasZoom         bool    `json:"hasZoom"`
	HasTorch        bool    `json:"hasTorch"`
	HasBackAndFront bool    `json:"hasBackAndFront"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func boolp(b bool) *bool { return &b }

// eventDelegate turns every callback into an event.
type eventDelegate struct {
	send func(event)
}

func (d eventDelegate) DidChangeStatus(s alohacam.Status) {
	d.send(event{Type: "status", Status: s.String(), terminal: s.Terminal()})
}

func (d eventDelegate) DidChangeZoom(zoom float64) {
	d.send(event{Type: "zoom", Zoom: zoom})
}

func (d eventDelegate) DidChangeTorch(on bool) {
	d.send(event{Type: "torch", On: boolp(on)})
}

func (d eventDelegate) WillCapturePhoto() {
	d.send(event{Type: "willCapture"})
}

func (d eventDelegate) DidCapturePhoto(jpeg []byte, err error) {
	d.send(event{Type: "photo", Error: errString(err), data: jpeg})
}

func (d eventDelegate) DidFinishPhotoCapture() {
	d.send(event{Type: "photoFinished"})
}

func (d eventDelegate) DidStartRecording() {
	d.send(event{Type: "recordingStarted"})
}

func (d eventDelegate) DidFinishRecording(path string, err error) {
	d.send(event{Type: "recordingFinished", Path: path, Error: errString(err)})
}

func (d eventDelegate) DidInterruptWithError(err error) {
	d.send(event{Type: "error", Error: errString(err)})
}

func (d eventDelegate) DidInterrupt(reason alohacam.InterruptionReason) {
	d.send(event{Type: "interrupted", Reason: reason.String()})
}

func (d eventDelegate) DidEndInterruption() {
	d.send(event{Type: "interruptionEnded"})
}

func (d eventDelegate) DidResume(running bool) {
	d.send(event{Type: "resumed", Running: boolp(running)})
}

// newPlatform returns the simulated phone or the V4L2 platform, and a
// function that releases it.
func newPlatform(c daemonConfig) (alohacam.Platform, func(), error) {
	if c.Simulate {
		p := simcam.NewPhone()
		p.Feed = true
		return p, func() {}, nil
	}

	positions, err := linuxcam.ParsePositions(c.Devices.Positions)
	if err != nil {
		return nil, nil, err
	}
	p := linuxcam.New(linuxcam.Config{
		DevDir:           c.Devices.DevDir,
		Positions:        positions,
		AudioPath:        c.Devices.Audio,
		KeyFrameInterval: c.Video.KeyFrameInterval,
		HFlip:            c.Video.HFlip,
		VFlip:            c.Video.VFlip,
	})
	return p, func() {
		if err := p.Close(); err != nil {
			log.Warn("%v", err)
		}
	}, nil
}

// camera is a CameraSession whose delegate callbacks arrive on a channel.
type camera struct {
	session *alohacam.CameraSession
	events  chan event
	closed  chan struct{}
	release func()
}

func openCamera(c daemonConfig, mode alohacam.OutputMode) (*camera, error) {
	sc, err := c.sessionConfig()
	if err != nil {
		return nil, err
	}
	facing, err := parseFacing(c.Session.Facing)
	if err != nil {
		return nil, err
	}
	p, release, err := newPlatform(c)
	if err != nil {
		return nil, err
	}

	cam := &camera{
		session: alohacam.NewCameraSession(p, sc),
		events:  make(chan event, 64),
		closed:  make(chan struct{}),
		release: release,
	}
	cam.session.Initialize(eventDelegate{send: cam.send}, mode, facing, alohacam.Preset(c.Session.Preset))
	return cam, nil
}

// send runs on the session's private UI queue, so blocking here only holds
// back later callbacks.
func (c *camera) send(ev event) {
	select {
	case c.events <- ev:
	case <-c.closed:
	}
}

// Close drops callbacks issued while the session winds down.
func (c *camera) Close() {
	close(c.closed)
	c.session.Close()
	c.release()
}

// waitFor returns the next event of one of the given types. A terminal status
// is an error.
func (c *camera) waitFor(ctx context.Context, types ...string) (event, error) {
	for {
		select {
		case <-ctx.Done():
			return event{}, ctx.Err()
		case ev := <-c.events:
			if ev.terminal {
				return ev, errors.New(ev.Status)
			}
			for _, t := range types {
				if ev.Type == t {
					return ev, nil
				}
			}
			log.Debug("Event %s", ev.Type)
		}
	}
}

func (c *camera) state() *state {
	s := c.session
	return &state{
		Status:          s.Status().String(),
		Facing:          s.Facing().String(),
		Mode:            s.OutputMode().String(),
		Zoom:            s.Zoom(),
		Torch:           s.TorchOn(),
		Flash:           s.FlashEnabled(),
		Recording:       s.IsRecording(),
		Running:         s.IsRunning(),
		HasZoom:         s.HasZoom(),
		HasTorch:        s.HasTorch(),
		HasBackAndFront: s.HasBackAndFront(),
	}
}

// outputPath names a new file in the output directory.
func outputPath(dir, prefix, ext string) string {
	return filepath.Join(dir, prefix+"-"+uuid.NewString()+ext)
}
