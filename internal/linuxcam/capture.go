package linuxcam

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/lanikai/alohacam/internal/v4l2"
	"github.com/lanikai/alohacam/media"
)

// Video timestamps use the MPEG clock rate.
const videoTimescale = 90000

// How long to wait for an audio writer to show up on the FIFO.
const audioRetry = 100 * time.Millisecond

// capture streams one configured V4L2 device, and optionally an ADTS audio
// stream, into the session's outputs.
type capture struct {
	dev *v4l2.Device

	quit     chan struct{}
	stopOnce sync.Once
	done     sync.WaitGroup

	audioMu sync.Mutex
	audio   io.Closer

	failed func(*capture, error)
}

func startCapture(dev *v4l2.Device, cfg v4l2.Config, sample *sampleOutput, photo *photoOutput, failed func(*capture, error)) (*capture, error) {
	if err := dev.Configure(cfg); err != nil {
		return nil, err
	}
	if err := dev.Start(); err != nil {
		dev.Stop()
		return nil, err
	}
	if sample != nil {
		sample.setSize(cfg.Width, cfg.Height)
	}

	c := &capture{
		dev:    dev,
		quit:   make(chan struct{}),
		failed: failed,
	}
	c.done.Add(1)
	go c.readVideo(sample, photo)
	return c, nil
}

func (c *capture) stopping() bool {
	select {
	case <-c.quit:
		return true
	default:
		return false
	}
}

// fail reports a stream error unless the capture is being stopped anyway.
func (c *capture) fail(err error) {
	if c.stopping() {
		return
	}
	log.Error("%s: %v", c.dev.Path(), err)
	go c.failed(c, err)
}

func (c *capture) readVideo(sample *sampleOutput, photo *photoOutput) {
	defer c.done.Done()
	for {
		f, err := c.dev.ReadFrame()
		if err != nil {
			if err == io.EOF {
				err = errors.Errorf("%s: stream ended", c.dev.Path())
			}
			c.fail(err)
			return
		}
		if len(f.Data) == 0 {
			continue
		}

		if sample != nil {
			sample.deliver(media.Sample{
				Kind:     media.Video,
				PTS:      media.NewTimestamp(f.Timestamp, videoTimescale),
				Data:     f.Data,
				KeyFrame: f.KeyFrame || media.ContainsIDR(f.Data),
			})
		}
		if photo != nil {
			photo.offer(f.Data)
		}
	}
}

// startAudio reads AAC frames from the ADTS stream at path until the capture
// stops.
func (c *capture) startAudio(path string, sample *sampleOutput) {
	c.done.Add(1)
	go func() {
		defer c.done.Done()
		for !c.stopping() {
			f, err := os.OpenFile(path, os.O_RDONLY|nonBlock, 0)
			if err != nil {
				c.fail(errors.Wrap(err, "audio"))
				return
			}
			c.setAudio(f)

			err = readAudio(media.NewADTSReader(f), monotonic, sample.deliver)
			f.Close()
			if err != io.EOF {
				c.fail(errors.Wrapf(err, "audio: %s", path))
				return
			}

			// The writer went away, or has not started yet.
			select {
			case <-c.quit:
			case <-time.After(audioRetry):
			}
		}
	}()
}

func (c *capture) setAudio(f io.Closer) {
	c.audioMu.Lock()
	defer c.audioMu.Unlock()
	if c.stopping() {
		f.Close()
		return
	}
	c.audio = f
}

// readAudio timestamps frames by counting samples from the arrival of the
// first one, so jitter in the pipe does not show up in the recording.
func readAudio(r *media.ADTSReader, now func() time.Duration, deliver func(media.Sample)) error {
	var (
		pts   media.Timestamp
		count int64
	)
	for {
		frame, samples, err := r.ReadFrame()
		if err != nil {
			return err
		}
		rate := int32(r.Format.SampleRate)
		if !pts.Valid() || pts.Timescale != rate {
			pts = media.NewTimestamp(now(), rate)
			count = 0
		}

		s := pts
		s.Value += count
		count += int64(samples)
		deliver(media.Sample{
			Kind: media.Audio,
			PTS:  s,
			Data: frame,
		})
	}
}

// stop halts both streams and waits for the readers to exit. Safe to call
// more than once.
func (c *capture) stop() {
	c.stopOnce.Do(func() {
		c.audioMu.Lock()
		close(c.quit)
		if c.audio != nil {
			c.audio.Close()
		}
		c.audioMu.Unlock()

		if err := c.dev.Stop(); err != nil {
			log.Warn("%v", err)
		}
	})
	c.done.Wait()
}
