package main

import (
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lanikai/alohacam"
	"github.com/lanikai/alohacam/device"
	"github.com/lanikai/alohacam/media"
)

type daemonConfig struct {
	Simulate bool   `mapstructure:"simulate" yaml:"simulate"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level,omitempty"`

	Devices devicesConfig `mapstructure:"devices" yaml:"devices"`
	Video   videoConfig   `mapstructure:"video" yaml:"video"`
	Audio   audioConfig   `mapstructure:"audio" yaml:"audio"`
	Session sessionConfig `mapstructure:"session" yaml:"session"`
	Output  outputConfig  `mapstructure:"output" yaml:"output"`
	Server  serverConfig  `mapstructure:"server" yaml:"server"`
}

type devicesConfig struct {
	DevDir string `mapstructure:"dev_dir" yaml:"dev_dir"`
	// Camera positions keyed by device node, e.g. {"/dev/video0": "back"}.
	Positions map[string]string `mapstructure:"positions" yaml:"positions,omitempty"`
	// ADTS stream to record audio from.
	Audio string `mapstructure:"audio" yaml:"audio,omitempty"`
}

type videoConfig struct {
	Width            int    `mapstructure:"width" yaml:"width"`
	Height           int    `mapstructure:"height" yaml:"height"`
	Bitrate          int    `mapstructure:"bitrate" yaml:"bitrate"`
	KeyFrameInterval int    `mapstructure:"key_frame_interval" yaml:"key_frame_interval"`
	HFlip            bool   `mapstructure:"hflip" yaml:"hflip"`
	VFlip            bool   `mapstructure:"vflip" yaml:"vflip"`
	Codec            string `mapstructure:"codec" yaml:"codec"`
	Stabilization    string `mapstructure:"stabilization" yaml:"stabilization"`
}

type audioConfig struct {
	SampleRate int `mapstructure:"sample_rate" yaml:"sample_rate"`
	Channels   int `mapstructure:"channels" yaml:"channels"`
}

type sessionConfig struct {
	Facing     string        `mapstructure:"facing" yaml:"facing"`
	Mode       string        `mapstructure:"mode" yaml:"mode"`
	Preset     string        `mapstructure:"preset" yaml:"preset"`
	Recorder   string        `mapstructure:"recorder" yaml:"recorder"`
	Sync       string        `mapstructure:"sync" yaml:"sync"`
	SyncOffset time.Duration `mapstructure:"sync_offset" yaml:"sync_offset"`
	QueueSize  int           `mapstructure:"queue_size" yaml:"queue_size"`
}

type outputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
}

type serverConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("video.width", 1280)
	v.SetDefault("video.height", 720)
	v.SetDefault("video.bitrate", 2000000)
	v.SetDefault("video.key_frame_interval", 30)
	v.SetDefault("video.codec", string(media.H264))
	v.SetDefault("video.stabilization", "auto")
	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.channels", 1)
	v.SetDefault("session.facing", "back")
	v.SetDefault("session.mode", "video")
	v.SetDefault("session.preset", string(alohacam.PresetHigh))
	v.SetDefault("session.recorder", "sample-buffer")
	v.SetDefault("session.sync", "audio-lead")
	v.SetDefault("session.sync_offset", 200*time.Millisecond)
	v.SetDefault("session.queue_size", alohacam.DefaultSampleQueueSize)
	v.SetDefault("server.port", 8000)
}

// bind makes flags override the configuration keys they are mapped to.
func bind(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			log.Panicf("binding --%s: %v", name, err)
		}
	}
}

// loadConfig reads path, or the default location if path is empty. Only an
// explicitly named file has to exist. ALOHACAMD_* environment variables
// override the file.
func loadConfig(v *viper.Viper, path string) (daemonConfig, error) {
	setDefaults(v)

	explicit := path != ""
	if !explicit {
		path = os.ExpandEnv("$HOME/.config/alohacamd.yaml")
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ALOHACAMD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return daemonConfig{}, errors.Wrapf(err, "failed to load config %s", path)
		}
		log.Debug("No config at %s, using defaults", path)
	}

	var c daemonConfig
	if err := v.Unmarshal(&c); err != nil {
		return daemonConfig{}, errors.Wrap(err, "failed to parse config")
	}
	return c, nil
}

func parseFacing(s string) (alohacam.Facing, error) {
	pos, err := device.ParsePosition(s)
	if err != nil {
		return alohacam.FacingBack, err
	}
	if pos == device.Front {
		return alohacam.FacingFront, nil
	}
	return alohacam.FacingBack, nil
}

func parseStabilization(s string) (alohacam.StabilizationMode, error) {
	switch s {
	case "off":
		return alohacam.StabilizationOff, nil
	case "standard":
		return alohacam.StabilizationStandard, nil
	case "auto", "":
		return alohacam.StabilizationAuto, nil
	}
	return alohacam.StabilizationAuto, errors.Errorf("unknown stabilization mode %q", s)
}

// sessionConfig translates the daemon configuration for NewCameraSession.
func (c daemonConfig) sessionConfig() (alohacam.Config, error) {
	sc := alohacam.Config{
		SyncOffset:      c.Session.SyncOffset,
		SampleQueueSize: c.Session.QueueSize,
		VideoWidth:      c.Video.Width,
		VideoHeight:     c.Video.Height,
		VideoBitrate:    c.Video.Bitrate,
		AudioSampleRate: c.Audio.SampleRate,
		AudioChannels:   c.Audio.Channels,
		PreferredCodec:  media.Codec(strings.ToUpper(c.Video.Codec)),
	}
	// V4L2 cameras are all external; the simulated phone has wide-angle ones.
	sc.VideoDeviceType = device.External
	if c.Simulate {
		sc.VideoDeviceType = device.WideAngle
	}

	switch c.Session.Recorder {
	case "sample-buffer", "":
		sc.Recorder = alohacam.RecorderSampleBuffer
	case "movie-file":
		sc.Recorder = alohacam.RecorderMovieFile
	default:
		return sc, errors.Errorf("unknown recorder %q", c.Session.Recorder)
	}

	switch c.Session.Sync {
	case "audio-lead", "":
		sc.SyncMode = alohacam.SyncAudioLead
	case "first-buffer":
		sc.SyncMode = alohacam.SyncFirstBuffer
	default:
		return sc, errors.Errorf("unknown sync mode %q", c.Session.Sync)
	}

	var err error
	if sc.Stabilization, err = parseStabilization(c.Video.Stabilization); err != nil {
		return sc, err
	}
	return sc, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "error marshaling config")
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}
