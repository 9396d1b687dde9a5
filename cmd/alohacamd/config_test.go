package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lanikai/alohacam"
	"github.com/lanikai/alohacam/device"
	"github.com/lanikai/alohacam/internal/simcam"
	"github.com/lanikai/alohacam/media"
)

const testConfig = `
devices:
  dev_dir: /tmp/dev
  audio: /run/alohacam/audio.aac
  positions:
    /dev/video0: back
    /dev/video2: front
video:
  width: 1920
  height: 1080
  codec: hevc
  stabilization: standard
session:
  facing: front
  sync: first-buffer
  sync_offset: 350ms
  recorder: movie-file
server:
  port: 9000
`

func writeConfig(t *testing.T, text string) string {
	path := filepath.Join(t.TempDir(), "alohacamd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	c, err := loadConfig(viper.New(), writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/dev", c.Devices.DevDir)
	assert.Equal(t, "/run/alohacam/audio.aac", c.Devices.Audio)
	assert.Equal(t, map[string]string{"/dev/video0": "back", "/dev/video2": "front"}, c.Devices.Positions)
	assert.Equal(t, 1920, c.Video.Width)
	assert.Equal(t, 1080, c.Video.Height)
	assert.Equal(t, 350*time.Millisecond, c.Session.SyncOffset)
	assert.Equal(t, 9000, c.Server.Port)

	// Defaults fill in what the file leaves out.
	assert.Equal(t, 2000000, c.Video.Bitrate)
	assert.Equal(t, 44100, c.Audio.SampleRate)
	assert.Equal(t, "video", c.Session.Mode)
	assert.Equal(t, alohacam.DefaultSampleQueueSize, c.Session.QueueSize)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ALOHACAMD_SERVER_PORT", "9100")

	c, err := loadConfig(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 1280, c.Video.Width)
	assert.Equal(t, 200*time.Millisecond, c.Session.SyncOffset)
	assert.Equal(t, "back", c.Session.Facing)
	assert.Equal(t, 9100, c.Server.Port)
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := loadConfig(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	_, err = loadConfig(viper.New(), writeConfig(t, "video: [unclosed"))
	assert.Error(t, err)
}

func TestSessionConfig(t *testing.T) {
	c, err := loadConfig(viper.New(), writeConfig(t, testConfig))
	require.NoError(t, err)

	sc, err := c.sessionConfig()
	require.NoError(t, err)
	assert.Equal(t, alohacam.RecorderMovieFile, sc.Recorder)
	assert.Equal(t, alohacam.SyncFirstBuffer, sc.SyncMode)
	assert.Equal(t, 350*time.Millisecond, sc.SyncOffset)
	assert.Equal(t, media.HEVC, sc.PreferredCodec)
	assert.Equal(t, alohacam.StabilizationStandard, sc.Stabilization)
	assert.Equal(t, device.External, sc.VideoDeviceType)

	c.Session.Sync = "sometimes"
	_, err = c.sessionConfig()
	assert.Error(t, err)

	c.Session.Sync = ""
	c.Session.Recorder = "vcr"
	_, err = c.sessionConfig()
	assert.Error(t, err)
}

func TestConfigRoundTripsThroughYAML(t *testing.T) {
	c, err := loadConfig(viper.New(), writeConfig(t, testConfig))
	require.NoError(t, err)

	out, err := yaml.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(out), "sync_offset: 350ms")

	again, err := loadConfig(viper.New(), writeConfig(t, string(out)))
	require.NoError(t, err)
	assert.Equal(t, c, again)
}

func TestParseFacing(t *testing.T) {
	f, err := parseFacing("front")
	require.NoError(t, err)
	assert.Equal(t, alohacam.FacingFront, f)

	f, err = parseFacing("unspecified")
	require.NoError(t, err)
	assert.Equal(t, alohacam.FacingBack, f)

	_, err = parseFacing("up")
	assert.Error(t, err)
}

func TestListDevices(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, listDevices(&out, simcam.NewPhone()))

	text := out.String()
	assert.Contains(t, text, "Simulated back camera")
	assert.Contains(t, text, "Simulated front camera")
	assert.Contains(t, text, "zoom 1x-5x, torch, flash, autofocus, autoexposure")
	assert.Contains(t, text, "mic")
	assert.Contains(t, text, "authorized")
}
