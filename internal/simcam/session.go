package simcam

import (
	"sync"

	"github.com/lanikai/alohacam"
	"github.com/lanikai/alohacam/device"
)

// Session is a simulated capture graph. Graph changes outside a configuration
// transaction panic, as they would crash a real platform.
type Session struct {
	platform *Platform

	events chan alohacam.Event

	mu          sync.Mutex
	configuring bool
	preset      alohacam.Preset
	inputs      []alohacam.Input
	outputs     []alohacam.Output
	running     bool
	starts      int
	stops       int
	commits     int
	changes     int

	startFails bool

	feed *feeder
}

func newSession(p *Platform) *Session {
	return &Session{
		platform: p,
		events:   make(chan alohacam.Event, 16),
	}
}

func (s *Session) BeginConfiguration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.configuring {
		panic("simcam: nested BeginConfiguration")
	}
	s.configuring = true
}

func (s *Session) CommitConfiguration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.configuring {
		panic("simcam: CommitConfiguration without BeginConfiguration")
	}
	s.configuring = false
	s.commits++
}

func (s *Session) mustConfigure(op string) {
	if !s.configuring {
		panic("simcam: " + op + " outside a configuration transaction")
	}
}

func (s *Session) CanSetPreset(p alohacam.Preset) bool {
	return !s.platform.refuses("preset")
}

func (s *Session) SetPreset(p alohacam.Preset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustConfigure("SetPreset")
	s.preset = p
}

func (s *Session) CanAddInput(in alohacam.Input) bool {
	kind := "camera"
	if in.Device().MediaType() == device.Audio {
		kind = "microphone"
	}
	if s.platform.refuses(kind) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, have := range s.inputs {
		if have.Device().MediaType() == in.Device().MediaType() {
			return false
		}
	}
	return true
}

func (s *Session) AddInput(in alohacam.Input) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustConfigure("AddInput")
	s.inputs = append(s.inputs, in)
	s.changes++
}

func (s *Session) RemoveInput(in alohacam.Input) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustConfigure("RemoveInput")
	for i, have := range s.inputs {
		if have == in {
			s.inputs = append(s.inputs[:i:i], s.inputs[i+1:]...)
			s.changes++
			return
		}
	}
	panic("simcam: removing an input that is not attached")
}

func outputKind(out alohacam.Output) string {
	switch out.(type) {
	case *PhotoOutput:
		return "photo"
	case *SampleOutput:
		return "samples"
	case *MovieOutput:
		return "movie"
	}
	return "unknown"
}

func (s *Session) CanAddOutput(out alohacam.Output) bool {
	return !s.platform.refuses(outputKind(out))
}

func (s *Session) AddOutput(out alohacam.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustConfigure("AddOutput")
	s.outputs = append(s.outputs, out)
	s.changes++
	if so, ok := out.(*SampleOutput); ok && s.running && s.platform.Feed {
		s.feed.add(so)
	}
}

func (s *Session) RemoveOutput(out alohacam.Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustConfigure("RemoveOutput")
	for i, have := range s.outputs {
		if have == out {
			s.outputs = append(s.outputs[:i:i], s.outputs[i+1:]...)
			s.changes++
			return
		}
	}
	panic("simcam: removing an output that is not attached")
}

func (s *Session) StartRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	if s.startFails || s.running {
		return
	}
	s.running = true

	if s.platform.Feed {
		s.feed = newFeeder()
		for _, out := range s.outputs {
			if so, ok := out.(*SampleOutput); ok {
				s.feed.add(so)
			}
		}
	}
}

// FailStarts makes StartRunning leave the session stopped.
func (s *Session) FailStarts(fail bool) {
	s.mu.Lock()
	s.startFails = fail
	s.mu.Unlock()
}

func (s *Session) StopRunning() {
	s.mu.Lock()
	feed := s.feed
	s.feed = nil
	s.stops++
	s.running = false
	s.mu.Unlock()

	if feed != nil {
		feed.stop()
	}
}

func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Session) Events() <-chan alohacam.Event {
	return s.events
}

// Emit delivers a runtime event to the camera session.
func (s *Session) Emit(ev alohacam.Event) {
	s.events <- ev
}

// Interrupt stops the session and reports why.
func (s *Session) Interrupt(reason alohacam.InterruptionReason) {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.Emit(alohacam.Interrupted{Reason: reason})
}

// Stats reports how often the session was started, stopped and committed, and
// how many inputs and outputs were added or removed.
type Stats struct {
	Starts, Stops, Commits, Changes int
}

func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{s.starts, s.stops, s.commits, s.changes}
}

func (s *Session) Preset() alohacam.Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preset
}

// Inputs returns the IDs of attached devices.
func (s *Session) Inputs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, in := range s.inputs {
		ids = append(ids, in.Device().ID())
	}
	return ids
}

// Outputs returns the attached outputs.
func (s *Session) Outputs() []alohacam.Output {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]alohacam.Output(nil), s.outputs...)
}

// SampleOutput returns the attached sample buffer output, or nil.
func (s *Session) SampleOutput() *SampleOutput {
	for _, out := range s.Outputs() {
		if so, ok := out.(*SampleOutput); ok {
			return so
		}
	}
	return nil
}

// MovieOutput returns the attached movie file output, or nil.
func (s *Session) MovieOutput() *MovieOutput {
	for _, out := range s.Outputs() {
		if mo, ok := out.(*MovieOutput); ok {
			return mo
		}
	}
	return nil
}

// PhotoOutput returns the attached photo output, or nil.
func (s *Session) PhotoOutput() *PhotoOutput {
	for _, out := range s.Outputs() {
		if po, ok := out.(*PhotoOutput); ok {
			return po
		}
	}
	return nil
}
