package alohacam_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanikai/alohacam"
	"github.com/lanikai/alohacam/device"
	"github.com/lanikai/alohacam/internal/dispatch"
	"github.com/lanikai/alohacam/internal/simcam"
	"github.com/lanikai/alohacam/media"
)

// event is one delegate call.
type event struct {
	name string
	args []interface{}
}

// recordingDelegate logs every delegate call in order.
type recordingDelegate struct {
	mu     sync.Mutex
	events []event
}

func (d *recordingDelegate) add(name string, args ...interface{}) {
	d.mu.Lock()
	d.events = append(d.events, event{name, args})
	d.mu.Unlock()
}

// named returns the calls of one delegate method.
func (d *recordingDelegate) named(name string) []event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []event
	for _, e := range d.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

func (d *recordingDelegate) names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, e := range d.events {
		out = append(out, e.name)
	}
	return out
}

func (d *recordingDelegate) statuses() []alohacam.Status {
	var out []alohacam.Status
	for _, e := range d.named("status") {
		out = append(out, e.args[0].(alohacam.Status))
	}
	return out
}

func (d *recordingDelegate) DidChangeStatus(st alohacam.Status)  { d.add("status", st) }
func (d *recordingDelegate) DidChangeZoom(zoom float64)          { d.add("zoom", zoom) }
func (d *recordingDelegate) DidChangeTorch(on bool)              { d.add("torch", on) }
func (d *recordingDelegate) WillCapturePhoto()                   { d.add("willCapture") }
func (d *recordingDelegate) DidCapturePhoto(b []byte, err error) { d.add("photo", b, err) }
func (d *recordingDelegate) DidFinishPhotoCapture()              { d.add("photoFinished") }
func (d *recordingDelegate) DidStartRecording()                  { d.add("recordingStarted") }
func (d *recordingDelegate) DidFinishRecording(path string, err error) {
	d.add("recordingFinished", path, err)
}
func (d *recordingDelegate) DidInterruptWithError(err error)             { d.add("error", err) }
func (d *recordingDelegate) DidInterrupt(r alohacam.InterruptionReason) { d.add("interrupted", r) }
func (d *recordingDelegate) DidEndInterruption()                        { d.add("interruptionEnded") }
func (d *recordingDelegate) DidResume(running bool)                     { d.add("resumed", running) }

type harness struct {
	t        *testing.T
	platform *simcam.Platform
	ui       *dispatch.Queue
	session  *alohacam.CameraSession
	delegate *recordingDelegate
}

func newHarness(t *testing.T, p *simcam.Platform, cfg alohacam.Config) *harness {
	ui := dispatch.NewQueue("test-ui")
	cfg.UI = ui
	h := &harness{
		t:        t,
		platform: p,
		ui:       ui,
		session:  alohacam.NewCameraSession(p, cfg),
		delegate: &recordingDelegate{},
	}
	t.Cleanup(func() {
		h.session.Close()
		ui.Close()
	})
	return h
}

// initialize runs the permission check and first configuration, and waits
// for the delegate to hear about it.
func (h *harness) initialize(mode alohacam.OutputMode, facing alohacam.Facing) {
	h.session.Initialize(h.delegate, mode, facing, "")
	h.settle()
}

// settle waits for queued commands and the delegate calls they made.
func (h *harness) settle() {
	h.session.Sync()
	h.ui.Sync(func() {})
}

// eventually waits for n calls of a delegate method.
func (h *harness) eventually(name string, n int) []event {
	require.Eventually(h.t, func() bool {
		return len(h.delegate.named(name)) >= n
	}, 2*time.Second, 5*time.Millisecond, "waiting for %d %s", n, name)
	return h.delegate.named(name)
}

func TestInitializeConfigures(t *testing.T) {
	p := simcam.NewPhone()
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModeBoth, alohacam.FacingBack)

	assert.Equal(t, []alohacam.Status{{Kind: alohacam.StatusConfigured}}, h.delegate.statuses())
	assert.Equal(t, alohacam.StatusConfigured, h.session.Status().Kind)
	assert.True(t, h.session.IsRunning())
	assert.True(t, h.session.HasZoom())
	assert.True(t, h.session.HasTorch())
	assert.True(t, h.session.HasBackAndFront())
	assert.Equal(t, 1.0, h.session.Zoom())

	sess := p.Session()
	require.NotNil(t, sess)
	assert.Equal(t, []string{"back", "mic"}, sess.Inputs())
	assert.Equal(t, alohacam.PresetHigh, sess.Preset())
	assert.Equal(t, simcam.Stats{Starts: 1, Commits: 1, Changes: 4}, sess.Stats())

	require.NotNil(t, sess.PhotoOutput())
	orientation, _ := sess.PhotoOutput().Connection()
	assert.Equal(t, alohacam.OrientationPortrait, orientation)
	require.NotNil(t, sess.SampleOutput())
	assert.Nil(t, sess.MovieOutput())
}

func TestInitializePhotoModeSkipsMicrophone(t *testing.T) {
	p := simcam.NewPhone()
	p.SetAuthorization(device.Audio, alohacam.AuthDenied, false)
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingFront)

	assert.Equal(t, alohacam.StatusConfigured, h.session.Status().Kind)
	assert.Equal(t, []string{"front"}, p.Session().Inputs())
	assert.Nil(t, p.Session().SampleOutput())
	assert.Equal(t, 0, p.Prompts(device.Audio))
}

func TestInitializeTwicePanics(t *testing.T) {
	h := newHarness(t, simcam.NewPhone(), alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)
	assert.Panics(t, func() {
		h.session.Initialize(h.delegate, alohacam.ModePhoto, alohacam.FacingBack, "")
	})

	other := alohacam.NewCameraSession(simcam.New(), alohacam.Config{})
	defer other.Close()
	assert.Panics(t, func() {
		other.Initialize(nil, alohacam.ModePhoto, alohacam.FacingBack, "")
	})
}

func TestAuthorizationDenied(t *testing.T) {
	for _, tc := range []struct {
		name    string
		status  alohacam.AuthorizationStatus
		prompts int
	}{
		{"denied", alohacam.AuthDenied, 0},
		{"restricted", alohacam.AuthRestricted, 0},
		{"prompt refused", alohacam.AuthNotDetermined, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := simcam.NewPhone()
			p.SetAuthorization(device.Video, tc.status, false)
			h := newHarness(t, p, alohacam.Config{})
			h.initialize(alohacam.ModeBoth, alohacam.FacingBack)

			assert.Equal(t, []alohacam.Status{{Kind: alohacam.StatusNotAuthorized}}, h.delegate.statuses())
			assert.Empty(t, p.Sessions(), "no capture session without access")
			assert.Equal(t, tc.prompts, p.Prompts(device.Video))
			assert.Equal(t, 0, p.Prompts(device.Audio))
		})
	}
}

func TestAuthorizationPromptGranted(t *testing.T) {
	p := simcam.NewPhone()
	p.SetAuthorization(device.Video, alohacam.AuthNotDetermined, true)
	p.SetAuthorization(device.Audio, alohacam.AuthNotDetermined, true)
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModeVideo, alohacam.FacingBack)

	assert.Equal(t, alohacam.StatusConfigured, h.session.Status().Kind)
	assert.Equal(t, 1, p.Prompts(device.Video))
	assert.Equal(t, 1, p.Prompts(device.Audio))
}

func TestCloseDuringPermissionPrompt(t *testing.T) {
	p := simcam.NewPhone()
	p.SetAuthorization(device.Video, alohacam.AuthNotDetermined, true)
	p.HoldPrompts()
	h := newHarness(t, p, alohacam.Config{})
	h.session.Initialize(h.delegate, alohacam.ModeVideo, alohacam.FacingBack, "")
	require.Eventually(t, func() bool { return p.Prompts(device.Video) == 1 },
		2*time.Second, 5*time.Millisecond)

	h.session.Close()
	h.ui.Sync(func() {})
	assert.Empty(t, h.delegate.statuses(), "closing is not a denial")
	assert.Equal(t, alohacam.StatusUndefined, h.session.Status().Kind)
}

func TestMicrophoneDenied(t *testing.T) {
	p := simcam.NewPhone()
	p.SetAuthorization(device.Audio, alohacam.AuthDenied, false)
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModeVideo, alohacam.FacingBack)

	assert.Equal(t, []alohacam.Status{{Kind: alohacam.StatusNotAuthorized}}, h.delegate.statuses())
}

func TestConfigurationFailures(t *testing.T) {
	for _, tc := range []struct {
		name    string
		setup   func(p *simcam.Platform)
		message string
	}{
		{"no camera", func(p *simcam.Platform) {
			p.RemoveDevice("back")
			p.RemoveDevice("front")
		}, "no video device available"},
		{"camera refused", func(p *simcam.Platform) { p.Refuse("camera") }, "could not add video input"},
		{"camera broken", func(p *simcam.Platform) { p.BreakInput("back") }, "could not add video input: simcam: back is broken"},
		{"no microphone", func(p *simcam.Platform) { p.RemoveDevice("mic") }, "no audio device available"},
		{"microphone refused", func(p *simcam.Platform) { p.Refuse("microphone") }, "could not add audio input"},
		{"photo output refused", func(p *simcam.Platform) { p.Refuse("photo") }, "could not add photo output"},
		{"video output refused", func(p *simcam.Platform) { p.Refuse("samples") }, "could not add video output"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := simcam.NewPhone()
			tc.setup(p)
			h := newHarness(t, p, alohacam.Config{})
			h.initialize(alohacam.ModeBoth, alohacam.FacingBack)

			assert.Equal(t, []alohacam.Status{alohacam.ConfigurationFailed(tc.message)}, h.delegate.statuses())
			assert.False(t, h.session.IsRunning())
			assert.Equal(t, 0, p.Session().Stats().Starts)
		})
	}
}

func TestPresetFallback(t *testing.T) {
	p := simcam.NewPhone()
	p.Refuse("preset")
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)

	assert.Equal(t, alohacam.StatusConfigured, h.session.Status().Kind)
	assert.Equal(t, alohacam.Preset(""), p.Session().Preset())
}

func TestTerminalStatusIsSticky(t *testing.T) {
	p := simcam.NewPhone()
	p.Refuse("camera")
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)

	h.session.SetOutputMode(alohacam.ModeVideo)
	h.session.SetFacing(alohacam.FacingFront)
	h.session.ResumeInterruptedSession()
	h.settle()

	require.Len(t, h.delegate.statuses(), 1)
	assert.True(t, h.session.Status().Terminal())
	assert.Equal(t, alohacam.ConfigurationFailed("could not add video input"), h.session.Status())
	assert.Equal(t, 1, p.Session().Stats().Commits)
}

func TestSetFacing(t *testing.T) {
	p := simcam.NewPhone()
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModeBoth, alohacam.FacingBack)

	h.session.SetFacing(alohacam.FacingFront)
	h.settle()

	sess := p.Session()
	assert.Equal(t, alohacam.FacingFront, h.session.Facing())
	assert.ElementsMatch(t, []string{"front", "mic"}, sess.Inputs())
	assert.Equal(t, 2, sess.Stats().Starts)
	assert.Equal(t, 1, sess.Stats().Stops)
	assert.NotNil(t, sess.SampleOutput(), "video output replaced")
	assert.Len(t, h.delegate.statuses(), 2)

	// Same facing again is a no-op.
	h.session.SetFacing(alohacam.FacingFront)
	h.settle()
	assert.Equal(t, 2, sess.Stats().Commits)
}

func TestSetFacingSingleCamera(t *testing.T) {
	p := simcam.New()
	p.AddCamera(simcam.NewCamera("back", device.Back))
	p.AddMicrophone(simcam.NewMicrophone("mic"))
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)

	assert.False(t, h.session.HasBackAndFront())
	h.session.SetFacing(alohacam.FacingFront)
	h.settle()
	assert.Equal(t, alohacam.FacingBack, h.session.Facing())
	assert.Equal(t, []string{"back"}, p.Session().Inputs())
}

func TestFacingFindsCameraPluggedInLater(t *testing.T) {
	p := simcam.New()
	p.AddCamera(simcam.NewCamera("back", device.Back))
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingFront)
	assert.Equal(t, []string{"back"}, p.Session().Inputs(), "falls back to the only camera")

	p.AddCamera(simcam.NewCamera("front", device.Front))
	h.settle()

	h.session.SetFacing(alohacam.FacingBack)
	h.settle()
	h.session.SetFacing(alohacam.FacingFront)
	h.settle()
	assert.Equal(t, alohacam.FacingFront, h.session.Facing())
	assert.Equal(t, []string{"front"}, p.Session().Inputs())
}

func TestSetOutputMode(t *testing.T) {
	p := simcam.NewPhone()
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)
	sess := p.Session()
	assert.Nil(t, sess.SampleOutput())

	h.session.SetOutputMode(alohacam.ModeVideo)
	h.settle()
	assert.Equal(t, alohacam.ModeVideo, h.session.OutputMode())
	assert.Equal(t, []string{"back", "mic"}, sess.Inputs())
	assert.Nil(t, sess.PhotoOutput())
	assert.NotNil(t, sess.SampleOutput())
	assert.Equal(t, 1, sess.Stats().Starts, "mode changes do not restart the session")

	h.session.SetOutputMode(alohacam.ModePhoto)
	h.settle()
	assert.Equal(t, []string{"back"}, sess.Inputs())
	assert.NotNil(t, sess.PhotoOutput())
	assert.Nil(t, sess.SampleOutput())
}

func TestZoom(t *testing.T) {
	p := simcam.NewPhone()
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)

	h.session.SetZoom(10)
	h.session.SetZoom(2.1)
	h.session.SetZoom(0)
	h.settle()

	var zooms []float64
	for _, e := range h.delegate.named("zoom") {
		zooms = append(zooms, e.args[0].(float64))
	}
	assert.Equal(t, []float64{5, 2, 1}, zooms)
	assert.Equal(t, 1.0, h.session.Zoom())
	assert.Equal(t, 0, p.Camera("back").UnlockedEdits())
}

func TestZoomFixedLens(t *testing.T) {
	p := simcam.New()
	cam := simcam.NewCamera("back", device.Back)
	cam.MinZoom, cam.MaxZoom = 0, 0
	p.AddCamera(cam)
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)

	assert.False(t, h.session.HasZoom())
	h.session.SetZoom(2)
	h.settle()
	assert.Empty(t, h.delegate.named("zoom"))
}

func TestZoomLockFailure(t *testing.T) {
	p := simcam.NewPhone()
	p.Camera("back").LockErr = fmt.Errorf("busy")
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)

	h.session.SetZoom(3)
	h.settle()
	assert.Empty(t, h.delegate.named("zoom"))
	assert.Equal(t, 1.0, p.Camera("back").Zoom())
}

func TestTorch(t *testing.T) {
	p := simcam.NewPhone()
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)

	h.session.SetTorch(true)
	h.settle()
	assert.True(t, h.session.TorchOn())
	assert.True(t, p.Camera("back").TorchOn())
	assert.Equal(t, []interface{}{true}, h.delegate.named("torch")[0].args)

	p2 := simcam.New()
	cam := simcam.NewCamera("back", device.Back)
	cam.Torch = false
	p2.AddCamera(cam)
	h2 := newHarness(t, p2, alohacam.Config{})
	h2.initialize(alohacam.ModePhoto, alohacam.FacingBack)
	h2.session.SetTorch(true)
	h2.settle()
	assert.False(t, h2.session.HasTorch())
	assert.Empty(t, h2.delegate.named("torch"))
}

func TestFocusAndExpose(t *testing.T) {
	p := simcam.NewPhone()
	h := newHarness(t, p, alohacam.Config{
		Preview: alohacam.PreviewGeometry{Width: 100, Height: 200, Orientation: alohacam.OrientationPortrait},
	})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)
	cam := p.Camera("back")

	h.session.FocusAndExpose(alohacam.Point{X: 25, Y: 50}, alohacam.FocusAuto, alohacam.ExposureAuto, true)
	h.settle()

	want := alohacam.Point{X: 0.25, Y: 0.75}
	point, mode, monitoring := cam.Focus()
	assert.Equal(t, want, point)
	assert.Equal(t, alohacam.FocusAuto, mode)
	assert.True(t, monitoring)
	point, emode := cam.Exposure()
	assert.Equal(t, want, point)
	assert.Equal(t, alohacam.ExposureAuto, emode)

	// A subject area change returns to continuous focus at the center.
	p.Session().Emit(alohacam.SubjectAreaChanged{})
	require.Eventually(t, func() bool {
		_, mode, _ := cam.Focus()
		return mode == alohacam.FocusContinuousAuto
	}, time.Second, 5*time.Millisecond)
	point, _, monitoring = cam.Focus()
	assert.Equal(t, alohacam.Point{X: 0.5, Y: 0.5}, point)
	assert.False(t, monitoring)
	_, emode = cam.Exposure()
	assert.Equal(t, alohacam.ExposureContinuousAuto, emode)
	assert.Equal(t, 0, cam.UnlockedEdits())
}

func TestFocusUnsupported(t *testing.T) {
	p := simcam.New()
	cam := simcam.NewCamera("back", device.Back)
	cam.FocusPoint = false
	p.AddCamera(cam)
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)

	h.session.FocusAndExpose(alohacam.Point{X: 0.2, Y: 0.2}, alohacam.FocusAuto, alohacam.ExposureAuto, false)
	h.settle()
	_, mode, _ := cam.Focus()
	assert.Equal(t, alohacam.FocusLocked, mode, "focus untouched")
	_, emode := cam.Exposure()
	assert.Equal(t, alohacam.ExposureAuto, emode, "exposure still applied")
}

func TestPreviewGeometry(t *testing.T) {
	g := alohacam.PreviewGeometry{Width: 100, Height: 200}
	assert.Equal(t, alohacam.Point{X: 0.5, Y: 0.5}, g.DevicePoint(g.Center()))
	assert.Equal(t, alohacam.Point{X: 0, Y: 1}, g.DevicePoint(alohacam.Point{X: -10, Y: -10}))

	g.Mirrored = true
	assert.Equal(t, alohacam.Point{X: 0.25, Y: 0.1}, g.DevicePoint(alohacam.Point{X: 10, Y: 50}))

	g = alohacam.PreviewGeometry{Width: 200, Height: 100, Orientation: alohacam.OrientationLandscapeRight}
	assert.Equal(t, alohacam.Point{X: 0.25, Y: 0.5}, g.DevicePoint(alohacam.Point{X: 50, Y: 50}))
}

func TestCapturePhoto(t *testing.T) {
	p := simcam.NewPhone()
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)

	h.session.SetFlashEnabled(true)
	h.session.CapturePhoto()
	h.eventually("photoFinished", 1)

	assert.Equal(t, []string{"status", "willCapture", "photo", "photoFinished"}, h.delegate.names())
	photo := h.delegate.named("photo")[0]
	assert.Equal(t, p.Photo, photo.args[0])
	assert.Nil(t, photo.args[1])
	assert.True(t, h.session.FlashEnabled())
	assert.Equal(t, []alohacam.PhotoSettings{{Codec: media.JPEG, Flash: alohacam.FlashOn}}, p.Session().PhotoOutput().Settings())
}

func TestCapturePhotoWithoutFlash(t *testing.T) {
	p := simcam.New()
	cam := simcam.NewCamera("back", device.Back)
	cam.Flash = false
	p.AddCamera(cam)
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)

	h.session.SetFlashEnabled(true)
	h.session.CapturePhoto()
	h.eventually("photoFinished", 1)
	assert.Equal(t, alohacam.FlashOff, p.Session().PhotoOutput().Settings()[0].Flash)
}

func TestCapturePhotoNotRunning(t *testing.T) {
	for _, tc := range []struct {
		name  string
		setup func(h *harness)
	}{
		{"not configured", func(h *harness) { h.platform.Refuse("camera") }},
		{"video only", func(h *harness) {}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, simcam.NewPhone(), alohacam.Config{})
			tc.setup(h)
			h.initialize(alohacam.ModeVideo, alohacam.FacingBack)

			h.session.CapturePhoto()
			photos := h.eventually("photo", 1)
			assert.Nil(t, photos[0].args[0])
			assert.Equal(t, alohacam.ErrSessionNotRunning, photos[0].args[1])
			assert.Empty(t, h.delegate.named("willCapture"))
		})
	}
}

func TestInterruption(t *testing.T) {
	p := simcam.NewPhone()
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)
	sess := p.Session()

	sess.Interrupt(alohacam.ReasonVideoDeviceInUseByAnotherClient)
	interrupted := h.eventually("interrupted", 1)
	assert.Equal(t, alohacam.ReasonVideoDeviceInUseByAnotherClient, interrupted[0].args[0])

	sess.Emit(alohacam.InterruptionEnded{})
	resumed := h.eventually("resumed", 1)
	assert.Equal(t, []interface{}{false}, resumed[0].args, "still stopped")
	assert.Len(t, h.delegate.named("interruptionEnded"), 1)

	h.session.ResumeInterruptedSession()
	resumed = h.eventually("resumed", 2)
	assert.Equal(t, []interface{}{true}, resumed[1].args)
	h.settle()
	assert.True(t, h.session.IsRunning())
}

func TestResumeFails(t *testing.T) {
	p := simcam.NewPhone()
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)
	sess := p.Session()

	sess.Interrupt(alohacam.ReasonVideoDeviceNotAvailableInBackground)
	h.eventually("interrupted", 1)
	sess.FailStarts(true)
	h.session.ResumeInterruptedSession()
	resumed := h.eventually("resumed", 1)
	assert.Equal(t, []interface{}{false}, resumed[0].args)
}

func TestRuntimeError(t *testing.T) {
	p := simcam.NewPhone()
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)

	boom := fmt.Errorf("media services reset")
	p.Session().Emit(alohacam.RuntimeError{Err: boom})
	errs := h.eventually("error", 1)
	assert.Equal(t, boom, errs[0].args[0])
}

func TestUnusedDeviceDisconnect(t *testing.T) {
	p := simcam.NewPhone()
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)

	p.RemoveDevice("front")
	h.settle()
	require.Eventually(t, func() bool {
		h.session.Sync()
		return !h.session.HasBackAndFront()
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, h.delegate.named("error"))
}

func TestCloseIdle(t *testing.T) {
	p := simcam.NewPhone()
	h := newHarness(t, p, alohacam.Config{})
	h.initialize(alohacam.ModePhoto, alohacam.FacingBack)

	h.session.Close()
	assert.False(t, p.Session().IsRunning())

	// Commands after Close are dropped.
	h.session.SetZoom(2)
	h.session.Sync()
	h.ui.Sync(func() {})
	assert.Empty(t, h.delegate.named("zoom"))
}
