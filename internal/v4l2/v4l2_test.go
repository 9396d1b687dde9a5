package v4l2

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFourCC(t *testing.T) {
	assert.Equal(t, uint32(0x34363248), V4L2_PIX_FMT_H264)
	assert.Equal(t, uint32(0x47504a4d), V4L2_PIX_FMT_MJPEG)
}

func TestInfoCanCapture(t *testing.T) {
	assert.True(t, Info{Capabilities: V4L2_CAP_VIDEO_CAPTURE | V4L2_CAP_STREAMING}.CanCapture())
	assert.False(t, Info{Capabilities: V4L2_CAP_VIDEO_CAPTURE}.CanCapture(), "read() only")
	assert.False(t, Info{Capabilities: V4L2_CAP_STREAMING}.CanCapture(), "metadata node")
}

func TestEnumerateEmptyDir(t *testing.T) {
	assert.Empty(t, Enumerate(t.TempDir()))
}
