package v4l2

type Config struct {
	Format uint32 // Pixel format (e.g. V4L2_PIX_FMT_H264)
	Width  int    // Video width in pixels
	Height int    // Video height in pixels

	Bitrate int // Encoder bitrate in bits per second, for H.264

	// Key frame interval in frames, for H.264. Zero keeps the driver default.
	KeyFrameInterval int

	HFlip bool // Flip video horizontally
	VFlip bool // Flip video vertically

	// Repeat sequence headers (i.e. sequence/picture parameter sets) for
	// H.264 pixel format. Each key frame then carries its own parameter sets,
	// which recordings starting mid-stream need.
	RepeatSequenceHeader bool
}

// Configure applies cfg to an open device.
func (dev *Device) Configure(cfg Config) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 1280, 720
	}
	if cfg.Format == 0 {
		cfg.Format = V4L2_PIX_FMT_H264
	}
	if err := dev.SetPixelFormat(cfg.Width, cfg.Height, cfg.Format); err != nil {
		return err
	}
	if cfg.HFlip {
		if err := dev.SetControl(V4L2_CID_HFLIP, 1); err != nil {
			return err
		}
	}
	if cfg.VFlip {
		if err := dev.SetControl(V4L2_CID_VFLIP, 1); err != nil {
			return err
		}
	}

	if cfg.Format != V4L2_PIX_FMT_H264 {
		return nil
	}
	if cfg.Bitrate > 0 {
		if err := dev.SetBitrate(cfg.Bitrate); err != nil {
			return err
		}
	}
	if cfg.KeyFrameInterval > 0 {
		if err := dev.setCodecControl(V4L2_CID_MPEG_VIDEO_H264_I_PERIOD, int32(cfg.KeyFrameInterval)); err != nil {
			log.Warn("%s: key frame interval not supported: %v", dev.path, err)
		}
	}
	return dev.SetRepeatSequenceHeader(cfg.RepeatSequenceHeader)
}
