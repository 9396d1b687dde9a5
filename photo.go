package alohacam

import (
	"github.com/lanikai/alohacam/media"
)

// CapturePhoto takes a JPEG still. Without a running session and photo
// output, the delegate receives ErrSessionNotRunning instead.
func (s *CameraSession) CapturePhoto() {
	s.do(func() {
		d := s.delegate
		if s.session == nil || !s.session.IsRunning() || s.photoOutput == nil {
			s.ui.Dispatch(func() { d.DidCapturePhoto(nil, ErrSessionNotRunning) })
			return
		}

		settings := PhotoSettings{
			Codec: photoCodec(s.photoOutput.SupportedCodecs()),
			Flash: FlashOff,
		}
		if c := s.videoControls(); s.flashEnabled && c != nil && c.HasFlash() {
			settings.Flash = FlashOn
		}
		log.Debug("Capturing photo: %s, flash %v", settings.Codec, settings.Flash == FlashOn)

		s.photoOutput.Capture(settings, PhotoCallbacks{
			WillCapture: func() {
				s.ui.Dispatch(d.WillCapturePhoto)
			},
			Processed: func(data []byte, err error) {
				if err != nil {
					log.Warn("Photo capture failed: %v", err)
				}
				s.ui.Dispatch(func() { d.DidCapturePhoto(data, err) })
			},
			Finished: func() {
				s.ui.Dispatch(d.DidFinishPhotoCapture)
			},
		})
	})
}

// JPEG when available, otherwise whatever the output offers first.
func photoCodec(supported []media.Codec) media.Codec {
	for _, c := range supported {
		if c == media.JPEG {
			return c
		}
	}
	if len(supported) > 0 {
		return supported[0]
	}
	return media.JPEG
}
