package alohacam

import (
	"github.com/pkg/errors"

	"github.com/lanikai/alohacam/device"
	"github.com/lanikai/alohacam/media"
)

// authorize runs the one-time permission check. Camera access is always
// needed, microphone access only when recording video. Blocks the session
// goroutine while a prompt is showing.
func (s *CameraSession) authorize() bool {
	if !s.authorizeMedia(device.Video) {
		return false
	}
	if s.mode.IncludesVideo() && !s.authorizeMedia(device.Audio) {
		return false
	}
	return true
}

func (s *CameraSession) authorizeMedia(mt device.MediaType) bool {
	status := s.platform.AuthorizationStatus(mt)
	log.Debug("%v authorization: %v", mt, status)

	switch status {
	case AuthAuthorized:
		return true
	case AuthNotDetermined:
		select {
		case granted := <-s.platform.RequestAccess(mt):
			log.Info("%v access granted: %t", mt, granted)
			return granted
		case <-s.closeReq:
			return false
		}
	default:
		return false
	}
}

func fail(message string) error {
	return errors.New(message)
}

func failWith(message string, cause error) error {
	return errors.Wrap(cause, message)
}

// configure brings the capture graph in line with the desired facing and
// output mode. With resetVideo, the video input and video outputs are
// replaced first, as needed after a camera switch.
func (s *CameraSession) configure(resetVideo bool) {
	if s.status.Terminal() {
		log.Debug("Not configuring: %v", s.status)
		return
	}

	if s.session == nil {
		s.session = s.platform.NewSession()
	}
	sess := s.session

	sess.BeginConfiguration()
	if resetVideo {
		s.removeVideo()
	}
	err := s.configureGraph()
	sess.CommitConfiguration()

	if err != nil {
		log.Error("Configuration failed: %v", err)
		s.setStatus(ConfigurationFailed(err.Error()))
		s.deliverStatus()
		return
	}

	if !s.observing {
		s.observe()
	}

	s.setStatus(Status{Kind: StatusConfigured})
	if !sess.IsRunning() {
		sess.StartRunning()
	}
	s.deliverStatus()
}

func (s *CameraSession) configureGraph() error {
	sess := s.session

	if sess.CanSetPreset(s.preset) {
		sess.SetPreset(s.preset)
	} else {
		log.Warn("%s: %s", msgNoSessionPreset, s.preset)
	}

	if s.videoInput == nil {
		if err := s.addVideoInput(); err != nil {
			return err
		}
	}

	needVideo := s.mode.IncludesVideo()
	switch {
	case needVideo && s.audioInput == nil:
		if err := s.addAudioInput(); err != nil {
			return err
		}
	case !needVideo && s.audioInput != nil:
		sess.RemoveInput(s.audioInput)
		s.audioInput = nil
	}

	needPhoto := s.mode.IncludesPhoto()
	switch {
	case needPhoto && s.photoOutput == nil:
		out := s.platform.NewPhotoOutput()
		if !sess.CanAddOutput(out) {
			return fail(msgAddPhotoOutput)
		}
		sess.AddOutput(out)
		out.SetVideoOrientation(OrientationPortrait)
		s.photoOutput = out
	case !needPhoto && s.photoOutput != nil:
		sess.RemoveOutput(s.photoOutput)
		s.photoOutput = nil
	}

	switch {
	case needVideo && !s.hasVideoOutput():
		if err := s.addVideoOutput(); err != nil {
			return err
		}
	case !needVideo && s.hasVideoOutput():
		s.removeVideoOutput()
	}

	return nil
}

func (s *CameraSession) addVideoInput() error {
	dev := s.discovery.BestMatch(device.Video, s.cfg.VideoDeviceType, s.facing.position())
	if dev == nil {
		return fail(msgNoVideoDevice)
	}
	in, err := s.platform.NewInput(dev)
	if err != nil {
		return failWith(msgAddVideoInput, err)
	}
	if !s.session.CanAddInput(in) {
		return fail(msgAddVideoInput)
	}
	s.session.AddInput(in)
	s.videoInput = in
	log.Info("Video input: %s", device.Describe(dev))

	s.codec = s.chooseCodec()
	s.zoom, s.torch = 1, false
	if c := in.Controls(); c != nil {
		s.zoom = c.Zoom()
	}
	return nil
}

func (s *CameraSession) addAudioInput() error {
	dev := s.discovery.BestMatch(device.Audio, device.Microphone, device.Unspecified)
	if dev == nil {
		return fail(msgNoAudioDevice)
	}
	in, err := s.platform.NewInput(dev)
	if err != nil {
		return failWith(msgAddAudioInput, err)
	}
	if !s.session.CanAddInput(in) {
		return fail(msgAddAudioInput)
	}
	s.session.AddInput(in)
	s.audioInput = in
	log.Info("Audio input: %s", device.Describe(dev))
	return nil
}

// chooseCodec picks the preferred video codec if both the camera and the
// recorder can handle it.
func (s *CameraSession) chooseCodec() media.Codec {
	c := s.videoControls()
	preferred := s.cfg.PreferredCodec
	if c != nil && c.SupportsCodec(preferred) &&
		(s.cfg.Recorder == RecorderMovieFile || s.cfg.ContainerSupports(preferred)) {
		return preferred
	}
	log.Debug("%s unavailable, using %s", preferred, s.cfg.FallbackCodec)
	return s.cfg.FallbackCodec
}

func (s *CameraSession) hasVideoOutput() bool {
	return s.sampleOutput != nil || s.movieOutput != nil
}

func (s *CameraSession) addVideoOutput() error {
	var out interface {
		Output
		SetStabilization(StabilizationMode)
	}

	switch s.cfg.Recorder {
	case RecorderMovieFile:
		movie := s.platform.NewMovieFileOutput()
		if !s.session.CanAddOutput(movie) {
			return fail(msgAddVideoOutput)
		}
		s.movieOutput, out = movie, movie
	default:
		samples := s.platform.NewSampleBufferOutput(SampleBufferSettings{
			Video: media.VideoFormat{
				Codec:  s.codec,
				Width:  s.cfg.VideoWidth,
				Height: s.cfg.VideoHeight,
			},
			VideoBitrate: s.cfg.VideoBitrate,
			Audio: media.AudioFormat{
				Codec:      media.AAC,
				SampleRate: s.cfg.AudioSampleRate,
				Channels:   s.cfg.AudioChannels,
			},
		})
		if !s.session.CanAddOutput(samples) {
			return fail(msgAddVideoOutput)
		}
		s.sampleOutput, out = samples, samples
		samples.SetSampleHandler(s.offerSample)
	}

	s.session.AddOutput(out)
	out.SetVideoOrientation(OrientationPortrait)
	out.SetStabilization(s.cfg.Stabilization)
	return nil
}

// offerSample runs on capture goroutines.
func (s *CameraSession) offerSample(sample media.Sample) {
	s.flow.Offer(sample)
}

func (s *CameraSession) removeVideoOutput() {
	if s.sampleOutput != nil {
		s.sampleOutput.SetSampleHandler(nil)
		s.session.RemoveOutput(s.sampleOutput)
		s.sampleOutput = nil
	}
	if s.movieOutput != nil {
		s.session.RemoveOutput(s.movieOutput)
		s.movieOutput = nil
	}
}

// removeVideo detaches the camera and everything bound to it.
func (s *CameraSession) removeVideo() {
	if s.videoInput != nil {
		s.session.RemoveInput(s.videoInput)
		s.videoInput = nil
	}
	s.removeVideoOutput()
}

// newContainer creates the file for a sample-buffer recording, in the formats
// the output currently produces.
func (s *CameraSession) newContainer(path string) (Container, error) {
	if s.sampleOutput == nil {
		return nil, errors.New("no sample buffer output attached")
	}
	return s.cfg.ContainerFactory(path, s.sampleOutput.VideoFormat(), s.sampleOutput.AudioFormat())
}
