//////////////////////////////////////////////////////////////////////////////
//
// CameraSession owns one platform capture session on a dedicated goroutine.
//
// Copyright 2019 Lanikai Labs. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package alohacam

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lanikai/alohacam/device"
	"github.com/lanikai/alohacam/internal/dispatch"
	"github.com/lanikai/alohacam/internal/writer"
	"github.com/lanikai/alohacam/media"
)

// CameraSession serializes every change to the capture graph onto one
// goroutine. Methods return immediately; outcomes arrive via the Delegate.
type CameraSession struct {
	platform  Platform
	cfg       Config
	discovery *device.Discovery

	ui     Dispatcher
	ownsUI *dispatch.Queue

	// Commands for the session goroutine.
	box *dispatch.Mailbox

	// Samples from capture goroutines.
	flow *media.Flow

	initialized int32
	closeOnce   sync.Once
	closeReq    chan struct{}
	quit        chan struct{}
	terminated  chan struct{}

	// Everything below is owned by the session goroutine.

	delegate Delegate
	status   Status
	facing   Facing
	mode     OutputMode
	preset   Preset

	session   CaptureSession
	events    <-chan Event
	observing bool

	videoInput   Input
	audioInput   Input
	photoOutput  PhotoOutput
	sampleOutput SampleBufferOutput
	movieOutput  MovieFileOutput

	// Video codec chosen for the current camera.
	codec media.Codec

	zoom         float64
	torch        bool
	flashEnabled bool

	recorder       *writer.Pipeline
	movieRecording bool
	endBackground  func()

	closing  bool
	deadline <-chan time.Time

	// Copy of the state above for getters on other goroutines.
	snap   snapshot
	snapMu sync.RWMutex
}

type snapshot struct {
	status          Status
	facing          Facing
	mode            OutputMode
	zoom            float64
	torch           bool
	flash           bool
	recording       bool
	running         bool
	hasZoom         bool
	hasTorch        bool
	hasBackAndFront bool
}

// NewCameraSession starts the session goroutine. Nothing is configured until
// Initialize.
func NewCameraSession(platform Platform, cfg Config) *CameraSession {
	cfg = cfg.withDefaults()

	s := &CameraSession{
		platform:   platform,
		cfg:        cfg,
		discovery:  device.NewDiscovery(platform.Devices),
		ui:         cfg.UI,
		box:        dispatch.NewMailbox(),
		flow:       media.NewFlow(cfg.SampleQueueSize),
		closeReq:   make(chan struct{}),
		quit:       make(chan struct{}),
		terminated: make(chan struct{}),
		delegate:   NopDelegate{},
	}
	if s.ui == nil {
		s.ownsUI = dispatch.NewQueue("ui")
		s.ui = s.ownsUI
	}

	s.recorder = writer.New(writer.Config{
		Mode:         cfg.SyncMode,
		Offset:       cfg.SyncOffset,
		NewContainer: s.newContainer,
		Post:         func(fn func()) { s.box.Post(fn) },
		OnStarted: func() {
			d := s.delegate
			s.ui.Dispatch(d.DidStartRecording)
		},
		OnFinished: s.recordingFinished,
	})

	go s.run()
	return s
}

// Initialize sets the delegate and performs the permission check and first
// configuration. It must be called exactly once; an empty preset means
// PresetHigh.
func (s *CameraSession) Initialize(delegate Delegate, mode OutputMode, facing Facing, preset Preset) {
	if delegate == nil {
		log.Panicf("alohacam: Initialize with nil delegate")
	}
	if !atomic.CompareAndSwapInt32(&s.initialized, 0, 1) {
		log.Panicf("alohacam: Initialize called twice")
	}
	if preset == "" {
		preset = PresetHigh
	}

	s.do(func() {
		s.delegate = delegate
		s.mode = mode
		s.facing = facing
		s.preset = preset

		log.Info("Initializing: mode %v, facing %v, preset %s", mode, facing, preset)
		if !s.authorize() {
			if s.closeRequested() {
				log.Debug("Closed while waiting for access")
				return
			}
			s.setStatus(Status{Kind: StatusNotAuthorized})
			s.deliverStatus()
			return
		}
		s.configure(false)
	})
}

func (s *CameraSession) closeRequested() bool {
	select {
	case <-s.closeReq:
		return true
	default:
		return false
	}
}

// do runs fn on the session goroutine.
func (s *CameraSession) do(fn func()) {
	if !s.box.Post(fn) {
		log.Debug("Session closed, dropping command")
	}
}

func (s *CameraSession) run() {
	defer close(s.terminated)

	samples := s.flow.Samples()
	for {
		select {
		case <-s.box.Wake():
			for _, fn := range s.box.Take() {
				fn()
			}
		case sample, ok := <-samples:
			if !ok {
				samples = nil
				continue
			}
			// Samples never end a recording by themselves; completion is
			// posted to the mailbox.
			s.recorder.Handle(sample)
			continue
		case ev, ok := <-s.events:
			if !ok {
				s.events = nil
				continue
			}
			s.handleEvent(ev)
		case <-s.deadline:
			log.Warn("Recording did not finish within %v, closing anyway", s.cfg.CloseTimeout)
			return
		case <-s.quit:
			return
		}

		s.publish()
		if s.closing && !s.isRecording() {
			return
		}
	}
}

// Close stops any recording, waits for it to be written (up to
// Config.CloseTimeout), stops the capture session and the session goroutine.
func (s *CameraSession) Close() {
	s.closeOnce.Do(func() {
		close(s.closeReq)
		posted := s.box.Post(func() {
			log.Info("Closing session")
			s.closing = true
			if s.isRecording() {
				s.recorder.Flush()
				if s.movieRecording {
					s.movieOutput.StopRecording()
				}
				s.deadline = time.After(s.cfg.CloseTimeout)
			}
		})
		if !posted {
			close(s.quit)
		}
		<-s.terminated

		s.box.Close()
		s.flow.Close()
		if s.sampleOutput != nil {
			s.sampleOutput.SetSampleHandler(nil)
		}
		if s.session != nil && s.session.IsRunning() {
			s.session.StopRunning()
		}
		if s.endBackground != nil {
			s.endBackground()
			s.endBackground = nil
		}
		if s.ownsUI != nil {
			s.ownsUI.Close()
		}
	})
}

// setStatus moves to st unless the current status is terminal.
func (s *CameraSession) setStatus(st Status) {
	if s.status.Terminal() {
		log.Warn("Ignoring status %v: already %v", st, s.status)
		return
	}
	if st != s.status {
		log.Info("Status: %v", st)
	}
	s.status = st
}

func (s *CameraSession) deliverStatus() {
	d, st := s.delegate, s.status
	s.ui.Dispatch(func() { d.DidChangeStatus(st) })
}

func (s *CameraSession) isRecording() bool {
	return s.recorder.Recording() || s.movieRecording
}

func (s *CameraSession) videoControls() Controls {
	if s.videoInput == nil {
		return nil
	}
	return s.videoInput.Controls()
}

// publish refreshes the snapshot read by the getters.
func (s *CameraSession) publish() {
	snap := snapshot{
		status:          s.status,
		facing:          s.facing,
		mode:            s.mode,
		zoom:            s.zoom,
		torch:           s.torch,
		flash:           s.flashEnabled,
		recording:       s.isRecording(),
		running:         s.session != nil && s.session.IsRunning(),
		hasBackAndFront: s.discovery.HasBackAndFront(),
	}
	if c := s.videoControls(); c != nil {
		min, max := c.ZoomRange()
		snap.hasZoom = min < max
		snap.hasTorch = c.HasTorch()
	}

	s.snapMu.Lock()
	s.snap = snap
	s.snapMu.Unlock()
}

func (s *CameraSession) current() snapshot {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snap
}

func (s *CameraSession) Status() Status         { return s.current().status }
func (s *CameraSession) Facing() Facing         { return s.current().facing }
func (s *CameraSession) OutputMode() OutputMode { return s.current().mode }
func (s *CameraSession) Zoom() float64          { return s.current().zoom }
func (s *CameraSession) TorchOn() bool          { return s.current().torch }
func (s *CameraSession) FlashEnabled() bool     { return s.current().flash }
func (s *CameraSession) IsRecording() bool      { return s.current().recording }
func (s *CameraSession) IsRunning() bool        { return s.current().running }
func (s *CameraSession) HasZoom() bool          { return s.current().hasZoom }
func (s *CameraSession) HasTorch() bool         { return s.current().hasTorch }
func (s *CameraSession) HasBackAndFront() bool  { return s.current().hasBackAndFront }

// Sync waits until every command issued so far has run and the getters
// reflect it.
func (s *CameraSession) Sync() {
	done := make(chan struct{})
	if !s.box.Post(func() {
		s.publish()
		close(done)
	}) {
		return
	}
	select {
	case <-done:
	case <-s.terminated:
	}
}
