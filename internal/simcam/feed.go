package simcam

import (
	"sync"
	"time"

	"github.com/lanikai/alohacam/media"
)

// Parameter sets for a 64x48 baseline H.264 stream.
var (
	SPS = []byte{0x67, 0x42, 0xc0, 0x1e, 0xda, 0x11, 0xe4}
	PPS = []byte{0x68, 0xce, 0x3c, 0x80}
)

var (
	idrSlice = []byte{0x65, 0x88, 0x84, 0x21, 0xa0}
	pSlice   = []byte{0x41, 0x9a, 0x02, 0x10}

	// A silent AAC-LC frame.
	silence = []byte{0x21, 0x10, 0x04, 0x60, 0x8c, 0x1c}
)

const (
	frameRate     = 30
	gopLength     = 30
	audioRate     = 44100
	audioFrameLen = 1024
)

var startCode = []byte{0, 0, 0, 1}

// VideoFrame returns the Annex B access unit for frame n of the simulated
// stream. Every gopLength-th frame is a key frame with parameter sets.
func VideoFrame(n int) (data []byte, key bool) {
	if n%gopLength == 0 {
		for _, nalu := range [][]byte{SPS, PPS, idrSlice} {
			data = append(data, startCode...)
			data = append(data, nalu...)
		}
		return data, true
	}
	return append(append([]byte(nil), startCode...), pSlice...), false
}

// feeder generates samples in real time for the outputs of a running session.
type feeder struct {
	mu      sync.Mutex
	outputs []*SampleOutput

	quit chan struct{}
	done sync.WaitGroup
}

func newFeeder() *feeder {
	f := &feeder{quit: make(chan struct{})}
	origin := time.Now()
	f.done.Add(2)
	go f.video(origin)
	go f.audio(origin)
	return f
}

func (f *feeder) add(o *SampleOutput) {
	f.mu.Lock()
	f.outputs = append(f.outputs, o)
	f.mu.Unlock()
}

func (f *feeder) emit(s media.Sample) {
	f.mu.Lock()
	outputs := append([]*SampleOutput(nil), f.outputs...)
	f.mu.Unlock()
	for _, o := range outputs {
		o.Emit(s)
	}
}

func (f *feeder) stop() {
	close(f.quit)
	f.done.Wait()
}

func (f *feeder) video(origin time.Time) {
	defer f.done.Done()
	ticker := time.NewTicker(time.Second / frameRate)
	defer ticker.Stop()

	for n := 0; ; n++ {
		select {
		case <-f.quit:
			return
		case now := <-ticker.C:
			data, key := VideoFrame(n)
			f.emit(media.Sample{
				Kind:     media.Video,
				PTS:      media.NewTimestamp(now.Sub(origin), 90000),
				Data:     data,
				KeyFrame: key,
			})
		}
	}
}

func (f *feeder) audio(origin time.Time) {
	defer f.done.Done()
	frame := time.Duration(audioFrameLen) * time.Second / audioRate
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	// Audio is stamped by sample count, starting when the first frame fills.
	first := time.Since(origin) + frame
	for n := int64(0); ; n++ {
		select {
		case <-f.quit:
			return
		case <-ticker.C:
			pts := media.NewTimestamp(first, audioRate)
			pts.Value += n * audioFrameLen
			f.emit(media.Sample{
				Kind: media.Audio,
				PTS:  pts,
				Data: silence,
			})
		}
	}
}
