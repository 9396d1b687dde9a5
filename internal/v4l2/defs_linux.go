//go:build linux && (amd64 || arm64)

package v4l2

import (
	"bytes"
	"encoding/binary"
	"unsafe"
)

// Struct layouts below match <linux/videodev2.h> on 64-bit kernels.

var nativeEndian = binary.LittleEndian

const (
	VIDIOC_QUERYCAP    = 0x80685600
	VIDIOC_S_FMT       = 0xC0D05605
	VIDIOC_REQBUFS     = 0xC0145608
	VIDIOC_QUERYBUF    = 0xC0585609
	VIDIOC_QBUF        = 0xC058560F
	VIDIOC_DQBUF       = 0xC0585611
	VIDIOC_STREAMON    = 0x40045612
	VIDIOC_STREAMOFF   = 0x40045613
	VIDIOC_G_CTRL      = 0xC008561B
	VIDIOC_S_CTRL      = 0xC008561C
	VIDIOC_QUERYCTRL   = 0xC0445624
	VIDIOC_S_EXT_CTRLS = 0xC0205648
)

const (
	V4L2_BUF_TYPE_VIDEO_CAPTURE = 1
	V4L2_MEMORY_MMAP            = 1
	V4L2_FIELD_ANY              = 0

	V4L2_BUF_FLAG_KEYFRAME = 0x00000008

	V4L2_CTRL_FLAG_DISABLED = 0x0001
)

type v4l2_capability struct {
	driver       [16]byte
	card         [32]byte
	bus_info     [32]byte
	version      uint32
	capabilities uint32
	device_caps  uint32
	reserved     [3]uint32
}

type v4l2_requestbuffers struct {
	count    uint32
	typ      uint32
	memory   uint32
	reserved [2]uint32
}

type v4l2_timeval struct {
	sec  int64
	usec int64
}

type v4l2_buffer struct {
	index     uint32
	typ       uint32
	bytesused uint32
	flags     uint32
	field     uint32
	_         uint32
	timestamp v4l2_timeval
	timecode  [16]byte
	sequence  uint32
	memory    uint32
	m         [8]byte // union { offset; userptr; planes; fd }
	length    uint32
	reserved2 uint32
	requestFD int32
	_         uint32
}

type v4l2_pix_format struct {
	width        uint32
	height       uint32
	pixelformat  uint32
	field        uint32
	bytesperline uint32
	sizeimage    uint32
	colorspace   uint32
	priv         uint32
	flags        uint32
	ycbcr_enc    uint32
	quantization uint32
	xfer_func    uint32
}

// marshal encodes the pixel format into the v4l2_format union.
func (p v4l2_pix_format) marshal() (out [200]byte) {
	var buf bytes.Buffer
	binary.Write(&buf, nativeEndian, p)
	copy(out[:], buf.Bytes())
	return
}

type v4l2_format struct {
	typ uint32
	_   uint32
	fmt [200]byte
}

type v4l2_control struct {
	id    uint32
	value int32
}

// Packed in the kernel headers: 20 bytes.
type v4l2_ext_control struct {
	id        uint32
	size      uint32
	reserved2 uint32
	value     [8]byte
}

type v4l2_ext_controls struct {
	ctrl_class uint32
	count      uint32
	error_idx  uint32
	request_fd int32
	reserved   uint32
	controls   unsafe.Pointer
}

type v4l2_queryctrl struct {
	id            uint32
	typ           uint32
	name          [32]byte
	minimum       int32
	maximum       int32
	step          int32
	default_value int32
	flags         uint32
	reserved      [2]uint32
}

// cstring converts a NUL-padded kernel string.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
