package simcam

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/lanikai/alohacam"
	"github.com/lanikai/alohacam/media"
)

var (
	_ alohacam.Container = (*Container)(nil)
	_ alohacam.Track     = (*Track)(nil)
)

// Container records what a camera session writes instead of muxing it.
// Finish completes asynchronously with Outcome (Completed by default).
type Container struct {
	path  string
	video *Track
	audio *Track

	// Formats the session asked for.
	VideoFormat media.VideoFormat
	AudioFormat media.AudioFormat

	mu           sync.Mutex
	started      bool
	sessionStart media.Timestamp
	finishes     int
	cancelled    bool
	outcome      alohacam.Outcome
	err          error
}

// NewContainer is an alohacam.ContainerFactory. Containers are kept for
// inspection with Containers.
func (p *Platform) NewContainer(path string, video media.VideoFormat, audio media.AudioFormat) (alohacam.Container, error) {
	c := &Container{
		path:        path,
		video:       &Track{kind: media.Video},
		audio:       &Track{kind: media.Audio},
		VideoFormat: video,
		AudioFormat: audio,
	}
	p.mu.Lock()
	p.containers = append(p.containers, c)
	p.mu.Unlock()
	return c, nil
}

// Containers returns every container created so far.
func (p *Platform) Containers() []*Container {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Container(nil), p.containers...)
}

func (c *Container) Path() string           { return c.path }
func (c *Container) Video() alohacam.Track  { return c.video }
func (c *Container) Audio() alohacam.Track  { return c.audio }
func (c *Container) VideoTrack() *Track     { return c.video }
func (c *Container) AudioTrack() *Track     { return c.audio }

func (c *Container) StartWriting() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = true
	return nil
}

func (c *Container) StartSession(at media.Timestamp) {
	c.mu.Lock()
	c.sessionStart = at
	c.mu.Unlock()
}

// SessionStart returns the timeline origin, invalid until the session starts.
func (c *Container) SessionStart() media.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionStart
}

// Fail makes Finish report Failed with err.
func (c *Container) Fail(err error) {
	c.mu.Lock()
	c.outcome, c.err = alohacam.Failed, err
	c.mu.Unlock()
}

func (c *Container) Finish(done func(alohacam.Outcome, error)) {
	c.mu.Lock()
	c.finishes++
	outcome, err := c.outcome, c.err
	if c.cancelled {
		outcome, err = alohacam.Cancelled, nil
	}
	if outcome == alohacam.Completed && !(c.video.Finished() && c.audio.Finished()) {
		outcome, err = alohacam.Failed, errors.New("simcam: finished with open tracks")
	}
	c.mu.Unlock()

	go done(outcome, err)
}

func (c *Container) Cancel() {
	c.mu.Lock()
	c.cancelled = true
	c.mu.Unlock()
}

// Finishes counts Finish calls.
func (c *Container) Finishes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finishes
}

// Track collects appended samples. SetReady(false) simulates a busy writer.
type Track struct {
	kind media.Kind

	mu       sync.Mutex
	busy     bool
	finished bool
	samples  []media.Sample
}

func (t *Track) ReadyForMoreData() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.busy && !t.finished
}

func (t *Track) Append(s media.Sample) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return errors.Errorf("simcam: append to finished %v track", t.kind)
	}
	t.samples = append(t.samples, s)
	return nil
}

func (t *Track) MarkFinished() {
	t.mu.Lock()
	t.finished = true
	t.mu.Unlock()
}

func (t *Track) SetReady(ready bool) {
	t.mu.Lock()
	t.busy = !ready
	t.mu.Unlock()
}

func (t *Track) Finished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finished
}

// Samples returns the samples appended so far.
func (t *Track) Samples() []media.Sample {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]media.Sample(nil), t.samples...)
}
