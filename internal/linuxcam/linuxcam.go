// Package linuxcam implements alohacam.Platform on Linux: cameras are V4L2
// nodes that encode H.264 (or MJPEG for stills) themselves, and the
// microphone is an ADTS stream written by an external encoder, e.g.
//
//	arecord -f S16_LE -r 44100 | faac -P -X -o /run/alohacam/audio.aac -
package linuxcam

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/lanikai/alohacam"
	"github.com/lanikai/alohacam/device"
	"github.com/lanikai/alohacam/internal/logging"
	"github.com/lanikai/alohacam/internal/v4l2"
)

var log = logging.DefaultLogger.WithTag("linuxcam")

type Config struct {
	// Directory holding the video nodes. Defaults to /dev.
	DevDir string

	// Which way each camera faces, keyed by device path. Unlisted cameras are
	// device.Unspecified.
	Positions map[string]device.Position

	// ADTS stream to record audio from (a file or FIFO). Empty means no
	// microphone.
	AudioPath string

	// H.264 key frame interval in frames. Defaults to 30.
	KeyFrameInterval int

	HFlip bool
	VFlip bool
}

type Platform struct {
	cfg Config

	mu       sync.Mutex
	sessions []*session
	watcher  *hotplug
}

func New(cfg Config) *Platform {
	if cfg.DevDir == "" {
		cfg.DevDir = "/dev"
	}
	if cfg.KeyFrameInterval == 0 {
		cfg.KeyFrameInterval = 30
	}
	return &Platform{cfg: cfg}
}

func (p *Platform) Devices(mt device.MediaType) []device.Device {
	var devs []device.Device
	switch mt {
	case device.Video:
		for _, info := range v4l2.Enumerate(p.cfg.DevDir) {
			devs = append(devs, &camera{info: info, position: p.cfg.Positions[info.Path]})
		}
	case device.Audio:
		if p.cfg.AudioPath != "" {
			devs = append(devs, &microphone{path: p.cfg.AudioPath})
		}
	}
	return devs
}

// AuthorizationStatus checks file permissions: the first video node for
// cameras, the audio stream for the microphone.
func (p *Platform) AuthorizationStatus(mt device.MediaType) alohacam.AuthorizationStatus {
	switch mt {
	case device.Video:
		infos := v4l2.Enumerate(p.cfg.DevDir)
		if len(infos) == 0 {
			// Nothing plugged in, or nothing we may open.
			return probe(firstVideoNode(p.cfg.DevDir), os.O_RDWR)
		}
		return alohacam.AuthAuthorized
	default:
		if p.cfg.AudioPath == "" {
			return alohacam.AuthAuthorized
		}
		return probe(p.cfg.AudioPath, os.O_RDONLY|nonBlock)
	}
}

// probe maps the result of opening path to an authorization status.
func probe(path string, flag int) alohacam.AuthorizationStatus {
	if path == "" {
		return alohacam.AuthNotDetermined
	}
	f, err := os.OpenFile(path, flag, 0)
	switch {
	case err == nil:
		f.Close()
		return alohacam.AuthAuthorized
	case errors.Is(err, fs.ErrPermission):
		return alohacam.AuthDenied
	case errors.Is(err, fs.ErrNotExist):
		return alohacam.AuthNotDetermined
	default:
		// Busy or otherwise unavailable, but not forbidden.
		log.Debug("Probing %s: %v", path, err)
		return alohacam.AuthAuthorized
	}
}

func firstVideoNode(dir string) string {
	nodes, _ := videoNodes(dir)
	if len(nodes) == 0 {
		return ""
	}
	return nodes[0]
}

// RequestAccess has nobody to ask: access is granted only if the permissions
// allow it by the time it is requested.
func (p *Platform) RequestAccess(mt device.MediaType) <-chan bool {
	ch := make(chan bool, 1)
	status := p.AuthorizationStatus(mt)
	if status != alohacam.AuthAuthorized {
		log.Warn("No %v access; check permissions of %s", mt, p.describeNodes(mt))
	}
	ch <- status == alohacam.AuthAuthorized
	return ch
}

func (p *Platform) describeNodes(mt device.MediaType) string {
	if mt == device.Audio {
		return p.cfg.AudioPath
	}
	return p.cfg.DevDir + "/video*"
}

func (p *Platform) NewSession() alohacam.CaptureSession {
	s := newSession(p)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions = append(p.sessions, s)
	if p.watcher == nil {
		w, err := watch(p.cfg.DevDir, p.deviceAdded, p.deviceRemoved)
		if err != nil {
			log.Warn("Hot-plug events unavailable: %v", err)
		} else {
			p.watcher = w
		}
	}
	return s
}

func (p *Platform) deviceAdded(path string) {
	p.broadcast(alohacam.DeviceConnected{DeviceID: path})
}

func (p *Platform) deviceRemoved(path string) {
	p.broadcast(alohacam.DeviceDisconnected{DeviceID: path})
}

func (p *Platform) broadcast(ev alohacam.Event) {
	p.mu.Lock()
	sessions := append([]*session(nil), p.sessions...)
	p.mu.Unlock()

	for _, s := range sessions {
		s.emit(ev)
	}
}

// Close stops hot-plug monitoring.
func (p *Platform) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.watcher != nil {
		err := p.watcher.Close()
		p.watcher = nil
		return err
	}
	return nil
}

func (p *Platform) NewInput(d device.Device) (alohacam.Input, error) {
	switch d := d.(type) {
	case *camera:
		dev, err := v4l2.Open(d.info.Path)
		if err != nil {
			return nil, err
		}
		return &cameraInput{cam: d, controls: newControls(dev)}, nil
	case *microphone:
		return &micInput{mic: d}, nil
	}
	return nil, errors.New("linuxcam: not a linuxcam device: " + d.ID())
}

func (p *Platform) NewPhotoOutput() alohacam.PhotoOutput {
	return &photoOutput{frames: make(chan []byte, 1)}
}

func (p *Platform) NewSampleBufferOutput(settings alohacam.SampleBufferSettings) alohacam.SampleBufferOutput {
	return &sampleOutput{settings: settings}
}

func (p *Platform) NewMovieFileOutput() alohacam.MovieFileOutput {
	return movieOutput{}
}

// BeginBackgroundTask has no meaning for a daemon; tasks are only logged.
func (p *Platform) BeginBackgroundTask(name string) func() {
	id := uuid.New()
	log.Debug("Background task %s begun: %s", id, name)
	var once sync.Once
	return func() {
		once.Do(func() { log.Debug("Background task %s ended", id) })
	}
}
