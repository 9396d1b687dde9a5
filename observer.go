package alohacam

import (
	"github.com/pkg/errors"
)

// observe subscribes to session events. Runs once, after the first successful
// configuration.
func (s *CameraSession) observe() {
	s.events = s.session.Events()
	s.observing = true
	log.Debug("Observing session events")
}

func (s *CameraSession) handleEvent(ev Event) {
	d := s.delegate

	switch ev := ev.(type) {
	case RuntimeError:
		log.Error("Capture session runtime error: %v", ev.Err)
		s.ui.Dispatch(func() { d.DidInterruptWithError(ev.Err) })

	case Interrupted:
		log.Warn("Capture session interrupted: %v", ev.Reason)
		s.ui.Dispatch(func() { d.DidInterrupt(ev.Reason) })

	case InterruptionEnded:
		running := s.session.IsRunning()
		log.Info("Interruption ended, running: %t", running)
		s.ui.Dispatch(func() {
			d.DidEndInterruption()
			d.DidResume(running)
		})

	case SubjectAreaChanged:
		if s.videoInput == nil {
			return
		}
		log.Debug("Subject area changed, refocusing at center")
		center := s.cfg.Preview.DevicePoint(s.cfg.Preview.Center())
		s.focusAndExpose(center, FocusContinuousAuto, ExposureContinuousAuto, false)

	case DeviceConnected:
		log.Debug("Device %s connected", ev.DeviceID)
		s.discovery.Invalidate()

	case DeviceDisconnected:
		s.discovery.Invalidate()
		if !s.usesDevice(ev.DeviceID) {
			log.Debug("Unused device %s disconnected", ev.DeviceID)
			return
		}
		err := errors.Wrap(ErrDeviceDisconnected, ev.DeviceID)
		log.Error("%v", err)
		if s.recorder.Recording() {
			// The tracks will not line up again; close the file as it is.
			s.recorder.Flush()
		}
		s.ui.Dispatch(func() { d.DidInterruptWithError(err) })

	default:
		log.Warn("Unknown session event %T", ev)
	}
}

func (s *CameraSession) usesDevice(id string) bool {
	for _, in := range []Input{s.videoInput, s.audioInput} {
		if in != nil && in.Device().ID() == id {
			return true
		}
	}
	return false
}
