// Package simcam is a scripted capture platform. It backs the tests of the
// camera session and the daemon's --simulate mode.
package simcam

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/lanikai/alohacam"
	"github.com/lanikai/alohacam/device"
	"github.com/lanikai/alohacam/internal/logging"
)

var log = logging.DefaultLogger.WithTag("simcam")

var (
	_ alohacam.Platform           = (*Platform)(nil)
	_ alohacam.CaptureSession     = (*Session)(nil)
	_ alohacam.Controls           = (*Camera)(nil)
	_ alohacam.PhotoOutput        = (*PhotoOutput)(nil)
	_ alohacam.SampleBufferOutput = (*SampleOutput)(nil)
	_ alohacam.MovieFileOutput    = (*MovieOutput)(nil)
)

type Platform struct {
	// Feed makes running sessions generate samples on their own.
	Feed bool

	// JPEG returned by photo captures.
	Photo []byte

	mu sync.Mutex

	cameras     []*Camera
	microphones []*Device

	auth    [2]alohacam.AuthorizationStatus
	answer  [2]bool
	prompts [2]int
	hold    bool

	// Device IDs for which NewInput fails.
	brokenInputs map[string]bool

	refuse map[string]bool

	sessions []*Session

	background      int
	backgroundTotal int

	containers []*Container
}

// New returns a platform with access already granted and no devices.
func New() *Platform {
	return &Platform{
		auth:         [2]alohacam.AuthorizationStatus{alohacam.AuthAuthorized, alohacam.AuthAuthorized},
		brokenInputs: make(map[string]bool),
		refuse:       make(map[string]bool),
		Photo:        []byte{0xff, 0xd8, 0xff, 0xd9},
	}
}

// NewPhone returns a platform with a back camera, a front camera and a
// microphone.
func NewPhone() *Platform {
	p := New()
	p.AddCamera(NewCamera("back", device.Back))
	p.AddCamera(NewCamera("front", device.Front))
	p.AddMicrophone(NewMicrophone("mic"))
	return p
}

// AddCamera plugs in a camera and tells every session.
func (p *Platform) AddCamera(c *Camera) {
	p.mu.Lock()
	p.cameras = append(p.cameras, c)
	p.mu.Unlock()
	p.connected(c.id)
}

func (p *Platform) AddMicrophone(d *Device) {
	p.mu.Lock()
	p.microphones = append(p.microphones, d)
	p.mu.Unlock()
	p.connected(d.id)
}

func (p *Platform) connected(id string) {
	p.mu.Lock()
	sessions := append([]*Session(nil), p.sessions...)
	p.mu.Unlock()

	for _, s := range sessions {
		s.Emit(alohacam.DeviceConnected{DeviceID: id})
	}
}

// RemoveDevice unplugs a device and tells every session.
func (p *Platform) RemoveDevice(id string) {
	p.mu.Lock()
	for i, c := range p.cameras {
		if c.id == id {
			p.cameras = append(p.cameras[:i:i], p.cameras[i+1:]...)
			break
		}
	}
	for i, m := range p.microphones {
		if m.id == id {
			p.microphones = append(p.microphones[:i:i], p.microphones[i+1:]...)
			break
		}
	}
	sessions := append([]*Session(nil), p.sessions...)
	p.mu.Unlock()

	for _, s := range sessions {
		s.Emit(alohacam.DeviceDisconnected{DeviceID: id})
	}
}

// Camera returns the camera with the given ID, or nil.
func (p *Platform) Camera(id string) *Camera {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.cameras {
		if c.id == id {
			return c
		}
	}
	return nil
}

// SetAuthorization sets the status reported for mt, and what the user answers
// if prompted.
func (p *Platform) SetAuthorization(mt device.MediaType, status alohacam.AuthorizationStatus, answer bool) {
	p.mu.Lock()
	p.auth[mt] = status
	p.answer[mt] = answer
	p.mu.Unlock()
}

// HoldPrompts leaves access prompts unanswered, as if the user walked away.
func (p *Platform) HoldPrompts() {
	p.mu.Lock()
	p.hold = true
	p.mu.Unlock()
}

// Prompts counts access prompts shown for mt.
func (p *Platform) Prompts(mt device.MediaType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prompts[mt]
}

// BreakInput makes NewInput fail for the device.
func (p *Platform) BreakInput(id string) {
	p.mu.Lock()
	p.brokenInputs[id] = true
	p.mu.Unlock()
}

// Refuse makes sessions refuse a kind of graph change: "preset", "camera",
// "microphone", "photo", "samples" or "movie".
func (p *Platform) Refuse(kind string) {
	p.mu.Lock()
	p.refuse[kind] = true
	p.mu.Unlock()
}

func (p *Platform) refuses(kind string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refuse[kind]
}

// Sessions returns every session created so far.
func (p *Platform) Sessions() []*Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Session(nil), p.sessions...)
}

// Session returns the most recent session, or nil.
func (p *Platform) Session() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sessions) == 0 {
		return nil
	}
	return p.sessions[len(p.sessions)-1]
}

// BackgroundTasks returns the number of tasks currently active and ever begun.
func (p *Platform) BackgroundTasks() (active, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.background, p.backgroundTotal
}

func (p *Platform) Devices(mt device.MediaType) []device.Device {
	p.mu.Lock()
	defer p.mu.Unlock()

	var devs []device.Device
	if mt == device.Video {
		for _, c := range p.cameras {
			devs = append(devs, c)
		}
	} else {
		for _, m := range p.microphones {
			devs = append(devs, m)
		}
	}
	return devs
}

func (p *Platform) AuthorizationStatus(mt device.MediaType) alohacam.AuthorizationStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.auth[mt]
}

func (p *Platform) RequestAccess(mt device.MediaType) <-chan bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.prompts[mt]++
	if p.hold {
		return make(chan bool)
	}
	granted := p.answer[mt]
	if granted {
		p.auth[mt] = alohacam.AuthAuthorized
	} else {
		p.auth[mt] = alohacam.AuthDenied
	}

	ch := make(chan bool, 1)
	ch <- granted
	return ch
}

func (p *Platform) NewSession() alohacam.CaptureSession {
	s := newSession(p)
	p.mu.Lock()
	p.sessions = append(p.sessions, s)
	p.mu.Unlock()
	return s
}

func (p *Platform) NewInput(d device.Device) (alohacam.Input, error) {
	p.mu.Lock()
	broken := p.brokenInputs[d.ID()]
	p.mu.Unlock()
	if broken {
		return nil, errors.Errorf("simcam: %s is broken", d.ID())
	}

	in := &input{dev: d}
	if c, ok := d.(*Camera); ok {
		in.camera = c
	}
	return in, nil
}

func (p *Platform) NewPhotoOutput() alohacam.PhotoOutput {
	return &PhotoOutput{platform: p}
}

func (p *Platform) NewSampleBufferOutput(settings alohacam.SampleBufferSettings) alohacam.SampleBufferOutput {
	return &SampleOutput{settings: settings}
}

func (p *Platform) NewMovieFileOutput() alohacam.MovieFileOutput {
	return &MovieOutput{}
}

func (p *Platform) BeginBackgroundTask(name string) func() {
	p.mu.Lock()
	p.background++
	p.backgroundTotal++
	p.mu.Unlock()

	log.Debug("Background task %q begun", name)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			p.background--
			p.mu.Unlock()
		})
	}
}
