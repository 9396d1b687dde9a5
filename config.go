package alohacam

import (
	"time"

	"github.com/lanikai/alohacam/device"
	"github.com/lanikai/alohacam/internal/mp4"
	"github.com/lanikai/alohacam/media"
)

// Dispatcher runs functions one at a time, in order. dispatch.Queue is one.
type Dispatcher interface {
	Dispatch(fn func())
}

// RecorderKind selects the output used for video.
type RecorderKind int

const (
	// Encoded samples are muxed into the file by the session itself.
	RecorderSampleBuffer RecorderKind = iota
	// The platform writes the file.
	RecorderMovieFile
)

// ContainerFactory creates the file for a sample-buffer recording.
type ContainerFactory func(path string, video media.VideoFormat, audio media.AudioFormat) (Container, error)

// Config contains configuration data for CameraSession. Zero fields take
// defaults.
type Config struct {
	// Where Delegate methods run. Defaults to a private serial queue.
	UI Dispatcher

	Recorder RecorderKind

	SyncMode SyncMode
	// Delay between the first audio sample and the start of the recorded
	// timeline, for SyncAudioLead. Defaults to 200ms; negative means none.
	SyncOffset time.Duration

	// Samples buffered between the capture callbacks and the session. When
	// full, new samples are dropped.
	SampleQueueSize int

	// Preferred camera type when matching devices.
	VideoDeviceType device.Type

	VideoWidth   int
	VideoHeight  int
	VideoBitrate int

	AudioSampleRate int
	AudioChannels   int

	// Video codec used when camera and container both support it, otherwise
	// FallbackCodec.
	PreferredCodec media.Codec
	FallbackCodec  media.Codec

	Stabilization StabilizationMode

	ContainerFactory  ContainerFactory
	ContainerSupports func(media.Codec) bool

	Preview PreviewGeometry

	// How long Close waits for a recording to finish writing.
	CloseTimeout time.Duration
}

const (
	DefaultSampleQueueSize = 64
	DefaultCloseTimeout    = 5 * time.Second
)

func (c Config) withDefaults() Config {
	if c.SampleQueueSize <= 0 {
		c.SampleQueueSize = DefaultSampleQueueSize
	}
	if c.VideoWidth == 0 || c.VideoHeight == 0 {
		c.VideoWidth, c.VideoHeight = 1280, 720
	}
	if c.VideoBitrate == 0 {
		c.VideoBitrate = 2000000
	}
	if c.AudioSampleRate == 0 {
		c.AudioSampleRate = 44100
	}
	if c.AudioChannels == 0 {
		c.AudioChannels = 1
	}
	if c.PreferredCodec == "" {
		c.PreferredCodec = media.HEVC
	}
	if c.FallbackCodec == "" {
		c.FallbackCodec = media.H264
	}
	if c.ContainerFactory == nil {
		c.ContainerFactory = func(path string, video media.VideoFormat, audio media.AudioFormat) (Container, error) {
			return mp4.NewFactory(mp4.Config{Video: video, Audio: audio})(path)
		}
		if c.ContainerSupports == nil {
			c.ContainerSupports = mp4.Supports
		}
	}
	if c.ContainerSupports == nil {
		c.ContainerSupports = func(media.Codec) bool { return true }
	}
	if c.Preview.Width == 0 || c.Preview.Height == 0 {
		c.Preview = PreviewGeometry{Width: 1, Height: 1, Orientation: OrientationPortrait}
	}
	if c.CloseTimeout == 0 {
		c.CloseTimeout = DefaultCloseTimeout
	}
	return c
}

// Point is a position either in preview coordinates or, for device
// coordinates, normalized to [0,1] in the sensor's landscape frame.
type Point struct {
	X, Y float64
}

// PreviewGeometry describes how the preview shows the camera image.
type PreviewGeometry struct {
	Width, Height float64
	Orientation   Orientation
	Mirrored      bool
}

// DevicePoint converts a preview point to device coordinates.
func (g PreviewGeometry) DevicePoint(p Point) Point {
	x, y := clamp(p.X/g.Width, 0, 1), clamp(p.Y/g.Height, 0, 1)
	if g.Orientation == OrientationLandscapeRight {
		if g.Mirrored {
			x = 1 - x
		}
		return Point{X: x, Y: y}
	}
	// The sensor is rotated a quarter turn from a portrait preview.
	if g.Mirrored {
		return Point{X: y, Y: x}
	}
	return Point{X: y, Y: 1 - x}
}

// Center is the middle of the preview.
func (g PreviewGeometry) Center() Point {
	return Point{X: g.Width / 2, Y: g.Height / 2}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
