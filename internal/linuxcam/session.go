package linuxcam

import (
	"sync"

	"github.com/lanikai/alohacam"
	"github.com/lanikai/alohacam/internal/v4l2"
)

// Frame sizes for each preset when recording settings do not say otherwise.
var presetSizes = map[alohacam.Preset][2]int{
	alohacam.PresetHigh:      {1920, 1080},
	alohacam.PresetMedium:    {1280, 720},
	alohacam.PresetLow:       {640, 480},
	alohacam.PresetPhoto:     {1920, 1080},
	alohacam.Preset1280x720:  {1280, 720},
	alohacam.Preset1920x1080: {1920, 1080},
}

// session drives a single V4L2 stream. The camera encodes either H.264 for
// recording or MJPEG for stills, never both, so the two outputs exclude each
// other.
type session struct {
	p      *Platform
	events chan alohacam.Event

	mu          sync.Mutex
	configuring bool
	preset      alohacam.Preset
	inputs      []alohacam.Input
	outputs     []alohacam.Output
	capture     *capture
}

func newSession(p *Platform) *session {
	return &session{
		p:      p,
		events: make(chan alohacam.Event, 16),
		preset: alohacam.PresetHigh,
	}
}

func (s *session) emit(ev alohacam.Event) {
	select {
	case s.events <- ev:
	default:
		log.Warn("Event queue full, dropping %T", ev)
	}
}

func (s *session) Events() <-chan alohacam.Event {
	return s.events
}

func (s *session) BeginConfiguration() {
	s.mu.Lock()
	s.configuring = true
	s.mu.Unlock()
}

func (s *session) CommitConfiguration() {
	s.mu.Lock()
	s.configuring = false
	running := s.capture != nil
	s.mu.Unlock()

	// A running stream picks up graph changes by restarting.
	if running {
		s.StopRunning()
		s.StartRunning()
	}
}

func (s *session) CanSetPreset(p alohacam.Preset) bool {
	_, ok := presetSizes[p]
	return ok
}

func (s *session) SetPreset(p alohacam.Preset) {
	s.mu.Lock()
	s.preset = p
	s.mu.Unlock()
}

func (s *session) CanAddInput(in alohacam.Input) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, have := range s.inputs {
		if have.Device().MediaType() == in.Device().MediaType() {
			return false
		}
	}
	return true
}

func (s *session) AddInput(in alohacam.Input) {
	s.mu.Lock()
	s.inputs = append(s.inputs, in)
	s.mu.Unlock()
}

func (s *session) RemoveInput(in alohacam.Input) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, have := range s.inputs {
		if have == in {
			s.inputs = append(s.inputs[:i:i], s.inputs[i+1:]...)
			break
		}
	}
	if cam, ok := in.(*cameraInput); ok {
		if s.capture != nil && s.capture.dev == cam.controls.dev {
			s.stopLocked()
		}
		cam.Close()
	}
}

func (s *session) CanAddOutput(out alohacam.Output) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, have := range s.outputs {
		switch have.(type) {
		case *photoOutput, *sampleOutput:
			switch out.(type) {
			case *photoOutput, *sampleOutput:
				return false
			}
		}
	}
	_, movie := out.(movieOutput)
	return !movie
}

func (s *session) AddOutput(out alohacam.Output) {
	s.mu.Lock()
	s.outputs = append(s.outputs, out)
	s.mu.Unlock()
}

func (s *session) RemoveOutput(out alohacam.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, have := range s.outputs {
		if have == out {
			s.outputs = append(s.outputs[:i:i], s.outputs[i+1:]...)
			return
		}
	}
}

func (s *session) StartRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capture != nil || s.configuring {
		return
	}

	var (
		cam    *cameraInput
		mic    *micInput
		photo  *photoOutput
		sample *sampleOutput
	)
	for _, in := range s.inputs {
		switch in := in.(type) {
		case *cameraInput:
			cam = in
		case *micInput:
			mic = in
		}
	}
	for _, out := range s.outputs {
		switch out := out.(type) {
		case *photoOutput:
			photo = out
		case *sampleOutput:
			sample = out
		}
	}
	if cam == nil || (photo == nil && sample == nil) {
		log.Warn("Nothing to capture")
		return
	}

	size := presetSizes[s.preset]
	cfg := v4l2.Config{
		Format:               v4l2.V4L2_PIX_FMT_MJPEG,
		Width:                size[0],
		Height:               size[1],
		HFlip:                s.p.cfg.HFlip,
		VFlip:                s.p.cfg.VFlip,
		KeyFrameInterval:     s.p.cfg.KeyFrameInterval,
		RepeatSequenceHeader: true,
	}
	if sample != nil {
		cfg.Format = v4l2.V4L2_PIX_FMT_H264
		if v := sample.settings.Video; v.Width > 0 && v.Height > 0 {
			cfg.Width, cfg.Height = v.Width, v.Height
		}
		cfg.Bitrate = sample.settings.VideoBitrate
	}

	c, err := startCapture(cam.controls.dev, cfg, sample, photo, s.captureFailed)
	if err != nil {
		log.Error("Could not start capture on %s: %v", cam.cam.ID(), err)
		s.emit(alohacam.RuntimeError{Err: err})
		return
	}
	if sample != nil && mic != nil {
		c.startAudio(mic.mic.path, sample)
	}
	s.capture = c
	log.Info("Capturing from %s", cam.cam.info)
}

// captureFailed runs on its own goroutine when a stream dies.
func (s *session) captureFailed(c *capture, err error) {
	s.mu.Lock()
	current := s.capture == c
	if current {
		s.capture = nil
	}
	s.mu.Unlock()

	if current {
		c.stop()
		s.emit(alohacam.RuntimeError{Err: err})
	}
}

func (s *session) StopRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *session) stopLocked() {
	if s.capture == nil {
		return
	}
	c := s.capture
	s.capture = nil
	// Capture goroutines report failures asynchronously, so they never wait
	// for s.mu.
	c.stop()
}

func (s *session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capture != nil
}
