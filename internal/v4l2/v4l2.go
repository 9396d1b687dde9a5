// Package v4l2 talks to Video4Linux2 capture devices: capability queries,
// pixel formats, camera and codec controls, and memory-mapped streaming.
package v4l2

import (
	"fmt"
	"time"

	"golang.org/x/xerrors"

	"github.com/lanikai/alohacam/internal/logging"
)

var log = logging.DefaultLogger.WithTag("v4l2")

var (
	ErrUnsupported = xerrors.New("v4l2: not supported on this platform")

	// Returned by QueryControl for controls the driver lacks or disables.
	ErrNoControl = xerrors.New("v4l2: no such control")
)

// FourCC builds a pixel format code.
func FourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

var (
	V4L2_PIX_FMT_H264  = FourCC('H', '2', '6', '4')
	V4L2_PIX_FMT_MJPEG = FourCC('M', 'J', 'P', 'G')
)

const (
	V4L2_CAP_VIDEO_CAPTURE = 0x00000001
	V4L2_CAP_STREAMING     = 0x04000000
	V4L2_CAP_DEVICE_CAPS   = 0x80000000
)

// Control IDs.
const (
	V4L2_CID_HFLIP = 0x00980914
	V4L2_CID_VFLIP = 0x00980915

	V4L2_CTRL_CLASS_MPEG                  = 0x00990000
	V4L2_CID_MPEG_VIDEO_BITRATE           = 0x009909cf
	V4L2_CID_MPEG_VIDEO_REPEAT_SEQ_HEADER = 0x009909e2
	V4L2_CID_MPEG_VIDEO_H264_I_PERIOD     = 0x00990a66

	V4L2_CID_EXPOSURE_AUTO  = 0x009a0901
	V4L2_CID_FOCUS_ABSOLUTE = 0x009a090a
	V4L2_CID_FOCUS_AUTO     = 0x009a090c
	V4L2_CID_ZOOM_ABSOLUTE  = 0x009a090d

	V4L2_CID_FLASH_LED_MODE = 0x009c0901
)

// Values of V4L2_CID_EXPOSURE_AUTO.
const (
	V4L2_EXPOSURE_AUTO              = 0
	V4L2_EXPOSURE_MANUAL            = 1
	V4L2_EXPOSURE_APERTURE_PRIORITY = 3
)

// Values of V4L2_CID_FLASH_LED_MODE.
const (
	V4L2_FLASH_LED_MODE_NONE  = 0
	V4L2_FLASH_LED_MODE_FLASH = 1
	V4L2_FLASH_LED_MODE_TORCH = 2
)

// Info identifies a video device node.
type Info struct {
	Path    string
	Driver  string
	Card    string
	BusInfo string

	// Capabilities of this node (device_caps when the driver reports them).
	Capabilities uint32
}

// CanCapture reports whether the node streams captured video.
func (i Info) CanCapture() bool {
	const want = V4L2_CAP_VIDEO_CAPTURE | V4L2_CAP_STREAMING
	return i.Capabilities&want == want
}

func (i Info) String() string {
	return fmt.Sprintf("%s (%s, %s)", i.Path, i.Card, i.BusInfo)
}

// Control describes the range of an integer or menu control.
type Control struct {
	ID      uint32
	Name    string
	Min     int32
	Max     int32
	Step    int32
	Default int32
}

// Frame is one dequeued capture buffer.
type Frame struct {
	Data []byte

	// Driver timestamp, usually on the monotonic clock.
	Timestamp time.Duration

	// Set by encoders that flag key frames.
	KeyFrame bool
}
