package alohacam

// Delegate receives the outcome of every CameraSession operation. All methods
// are called on the UI dispatcher (Config.UI), one at a time.
type Delegate interface {
	DidChangeStatus(status Status)
	DidChangeZoom(zoom float64)
	DidChangeTorch(on bool)

	// Called before the shutter fires, e.g. to flash the preview.
	WillCapturePhoto()
	DidCapturePhoto(jpeg []byte, err error)
	// Called once all photo data has been delivered.
	DidFinishPhotoCapture()

	DidStartRecording()
	DidFinishRecording(path string, err error)

	DidInterruptWithError(err error)
	DidInterrupt(reason InterruptionReason)
	DidEndInterruption()
	DidResume(running bool)
}

// NopDelegate ignores every event. Embed it to handle only some of them.
type NopDelegate struct{}

func (NopDelegate) DidChangeStatus(Status)                {}
func (NopDelegate) DidChangeZoom(float64)                 {}
func (NopDelegate) DidChangeTorch(bool)                   {}
func (NopDelegate) WillCapturePhoto()                     {}
func (NopDelegate) DidCapturePhoto([]byte, error)         {}
func (NopDelegate) DidFinishPhotoCapture()                {}
func (NopDelegate) DidStartRecording()                    {}
func (NopDelegate) DidFinishRecording(string, error)      {}
func (NopDelegate) DidInterruptWithError(error)           {}
func (NopDelegate) DidInterrupt(InterruptionReason)       {}
func (NopDelegate) DidEndInterruption()                   {}
func (NopDelegate) DidResume(bool)                        {}

var _ Delegate = NopDelegate{}
