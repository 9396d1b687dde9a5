package linuxcam

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/lanikai/alohacam"
	"github.com/lanikai/alohacam/media"
)

// Longest wait for the next MJPEG frame when taking a photo.
var photoTimeout = 2 * time.Second

type photoOutput struct {
	mu          sync.Mutex
	orientation alohacam.Orientation

	// Latest frame only.
	frames chan []byte
}

func (o *photoOutput) SetVideoOrientation(or alohacam.Orientation) {
	o.mu.Lock()
	o.orientation = or
	o.mu.Unlock()
}

func (o *photoOutput) SupportedCodecs() []media.Codec {
	return []media.Codec{media.JPEG}
}

// offer replaces any frame nobody has taken yet.
func (o *photoOutput) offer(jpeg []byte) {
	for {
		select {
		case o.frames <- jpeg:
			return
		default:
		}
		select {
		case <-o.frames:
		default:
		}
	}
}

// Capture takes the next frame the camera produces. Settings other than the
// codec have no V4L2 equivalent.
func (o *photoOutput) Capture(settings alohacam.PhotoSettings, cb alohacam.PhotoCallbacks) {
	go func() {
		cb.WillCapture()
		// Drop the stale frame so the photo is taken after the request.
		select {
		case <-o.frames:
		default:
		}
		select {
		case data := <-o.frames:
			cb.Processed(data, nil)
		case <-time.After(photoTimeout):
			cb.Processed(nil, errors.New("linuxcam: no frame from camera"))
		}
		cb.Finished()
	}()
}

type sampleOutput struct {
	settings alohacam.SampleBufferSettings

	mu            sync.Mutex
	handler       func(media.Sample)
	video         media.VideoFormat
	audio         media.AudioFormat
	stabilization alohacam.StabilizationMode
	orientation   alohacam.Orientation
}

func (o *sampleOutput) SetVideoOrientation(or alohacam.Orientation) {
	o.mu.Lock()
	o.orientation = or
	o.mu.Unlock()
}

// UVC encoders do not stabilize; the mode is only remembered.
func (o *sampleOutput) SetStabilization(m alohacam.StabilizationMode) {
	o.mu.Lock()
	o.stabilization = m
	o.mu.Unlock()
}

func (o *sampleOutput) setSize(width, height int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.video.Width != width || o.video.Height != height {
		o.video = media.VideoFormat{Codec: media.H264, Width: width, Height: height}
	}
}

func (o *sampleOutput) VideoFormat() media.VideoFormat {
	o.mu.Lock()
	defer o.mu.Unlock()
	v := o.video
	if v.Codec == "" {
		v = media.VideoFormat{Codec: media.H264, Width: o.settings.Video.Width, Height: o.settings.Video.Height}
	}
	return v
}

// AudioFormat reports what the ADTS stream carries once a frame has been
// read, and the requested format before that.
func (o *sampleOutput) AudioFormat() media.AudioFormat {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.audio.Codec != "" {
		return o.audio
	}
	a := o.settings.Audio
	a.Codec = media.AAC
	return a
}

func (o *sampleOutput) SetSampleHandler(fn func(media.Sample)) {
	o.mu.Lock()
	o.handler = fn
	o.mu.Unlock()
}

// deliver hands a sample to the installed handler, learning the stream
// formats on the way.
func (o *sampleOutput) deliver(s media.Sample) {
	o.mu.Lock()
	switch {
	case s.Kind == media.Video && s.KeyFrame && o.video.SPS == nil:
		for _, nalu := range media.SplitAnnexB(s.Data) {
			switch media.NALUType(nalu) {
			case media.NALUTypeSPS:
				o.video.SPS = append([]byte(nil), nalu...)
			case media.NALUTypePPS:
				o.video.PPS = append([]byte(nil), nalu...)
			}
		}
	case s.Kind == media.Audio && o.audio.Codec == "":
		o.audio = media.AudioFormat{
			Codec:      media.AAC,
			SampleRate: int(s.PTS.Timescale),
			Channels:   o.settings.Audio.Channels,
		}
	}
	fn := o.handler
	o.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

// movieOutput exists so the session can be asked for one; CanAddOutput always
// refuses it, since a V4L2 node cannot write files by itself.
type movieOutput struct{}

func (movieOutput) SetVideoOrientation(alohacam.Orientation)     {}
func (movieOutput) SetStabilization(alohacam.StabilizationMode) {}
func (movieOutput) StopRecording()                              {}

func (movieOutput) StartRecording(path string, codec media.Codec, cb alohacam.MovieFileCallbacks) {
	go cb.Finished(path, alohacam.ErrNotSupported)
}
