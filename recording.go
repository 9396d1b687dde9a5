package alohacam

// StartRecording records video and audio to path. Ignored if a recording is
// already in progress or no video output is attached. If the session is not
// running, the delegate receives ErrSessionNotRunning.
func (s *CameraSession) StartRecording(path string) {
	s.do(func() {
		d := s.delegate
		if s.isRecording() {
			log.Debug("Ignoring start of %s: already recording", path)
			return
		}
		if !s.hasVideoOutput() {
			log.Debug("Ignoring start of %s: no video output", path)
			return
		}
		if s.session == nil || !s.session.IsRunning() {
			s.ui.Dispatch(func() { d.DidFinishRecording(path, ErrSessionNotRunning) })
			return
		}

		s.endBackground = s.platform.BeginBackgroundTask("recording " + path)

		if s.movieOutput != nil {
			s.movieRecording = true
			s.movieOutput.StartRecording(path, s.codec, MovieFileCallbacks{
				Started: func() {
					s.ui.Dispatch(d.DidStartRecording)
				},
				Finished: func(path string, err error) {
					s.do(func() {
						s.movieRecording = false
						s.recordingFinished(path, err)
					})
				},
			})
			return
		}

		if err := s.recorder.Start(path); err != nil {
			log.Error("Could not start recording: %v", err)
			s.recordingFinished(path, err)
		}
	})
}

// StopRecording ends the current recording. The delegate is told once the
// file is complete. Does nothing when not recording.
func (s *CameraSession) StopRecording() {
	s.do(func() {
		if !s.isRecording() {
			return
		}
		log.Info("Stopping recording")
		if s.movieRecording {
			s.movieOutput.StopRecording()
			return
		}
		s.recorder.Stop()
	})
}

func (s *CameraSession) recordingFinished(path string, err error) {
	if err != nil {
		log.Error("Recording %s failed: %v", path, err)
	} else {
		log.Info("Recording %s finished", path)
	}
	if s.endBackground != nil {
		s.endBackground()
		s.endBackground = nil
	}
	d := s.delegate
	s.ui.Dispatch(func() { d.DidFinishRecording(path, err) })
}
