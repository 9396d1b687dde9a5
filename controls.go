package alohacam

// SetFacing switches cameras. Ignored if unchanged, if there is only one
// camera position, or while recording.
func (s *CameraSession) SetFacing(f Facing) {
	s.do(func() {
		if f == s.facing {
			return
		}
		if !s.discovery.HasBackAndFront() {
			log.Debug("Ignoring facing %v: single camera position", f)
			return
		}
		if s.isRecording() {
			log.Debug("Ignoring facing %v while recording", f)
			return
		}

		log.Info("Switching camera to %v", f)
		s.facing = f
		if s.status.Kind != StatusConfigured {
			return
		}
		s.session.StopRunning()
		s.configure(true)
	})
}

// SetOutputMode switches between photo, video and both. Ignored while
// recording.
func (s *CameraSession) SetOutputMode(m OutputMode) {
	s.do(func() {
		if m == s.mode {
			return
		}
		if s.isRecording() {
			log.Debug("Ignoring output mode %v while recording", m)
			return
		}

		log.Info("Output mode %v", m)
		s.mode = m
		if s.status.Kind == StatusConfigured {
			s.configure(false)
		}
	})
}

// SetZoom clamps zoom to what the camera supports. The delegate receives the
// zoom actually applied.
func (s *CameraSession) SetZoom(zoom float64) {
	s.do(func() {
		c := s.videoControls()
		if c == nil {
			return
		}
		min, max := c.ZoomRange()
		if min >= max {
			return
		}
		zoom = clamp(zoom, min, max)

		if err := c.Lock(); err != nil {
			log.Warn("Could not lock device for zoom: %v", err)
			return
		}
		c.SetZoom(zoom)
		actual := c.Zoom()
		c.Unlock()

		s.zoom = actual
		d := s.delegate
		s.ui.Dispatch(func() { d.DidChangeZoom(actual) })
	})
}

func (s *CameraSession) SetTorch(on bool) {
	s.do(func() {
		c := s.videoControls()
		if c == nil || !c.HasTorch() {
			return
		}

		if err := c.Lock(); err != nil {
			log.Warn("Could not lock device for torch: %v", err)
			return
		}
		c.SetTorch(on)
		c.Unlock()

		s.torch = on
		d := s.delegate
		s.ui.Dispatch(func() { d.DidChangeTorch(on) })
	})
}

// SetFlashEnabled sets whether photos use the flash, when the camera has one.
func (s *CameraSession) SetFlashEnabled(enabled bool) {
	s.do(func() {
		s.flashEnabled = enabled
	})
}

// FocusAndExpose focuses and meters at a point in preview coordinates, for
// whichever of the two the camera supports.
func (s *CameraSession) FocusAndExpose(p Point, focus FocusMode, exposure ExposureMode, monitorSubjectArea bool) {
	s.do(func() {
		s.focusAndExpose(s.cfg.Preview.DevicePoint(p), focus, exposure, monitorSubjectArea)
	})
}

func (s *CameraSession) focusAndExpose(p Point, focus FocusMode, exposure ExposureMode, monitorSubjectArea bool) {
	c := s.videoControls()
	if c == nil {
		return
	}

	if err := c.Lock(); err != nil {
		log.Warn("Could not lock device for focus: %v", err)
		return
	}
	defer c.Unlock()

	if c.FocusPointSupported() && c.FocusModeSupported(focus) {
		c.SetFocusPoint(p)
		c.SetFocusMode(focus)
	}
	if c.ExposurePointSupported() && c.ExposureModeSupported(exposure) {
		c.SetExposurePoint(p)
		c.SetExposureMode(exposure)
	}
	c.SetSubjectAreaChangeMonitoring(monitorSubjectArea)
}

// ResumeInterruptedSession restarts the session after an interruption. The
// delegate learns whether it is running again.
func (s *CameraSession) ResumeInterruptedSession() {
	s.do(func() {
		running := false
		if s.session != nil {
			s.session.StartRunning()
			running = s.session.IsRunning()
		}
		if !running {
			log.Warn("Session did not resume")
		}
		d := s.delegate
		s.ui.Dispatch(func() { d.DidResume(running) })
	})
}
