package writer

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanikai/alohacam/media"
)

// events is shared by a fake container and its tracks, so tests can check
// the relative order of operations across them.
type events []string

func (e *events) add(format string, a ...interface{}) {
	*e = append(*e, fmt.Sprintf(format, a...))
}

func (e events) index(s string) int {
	for i, v := range e {
		if v == s {
			return i
		}
	}
	return -1
}

type fakeTrack struct {
	kind     media.Kind
	ev       *events
	busy     bool
	finished bool
	appended []media.Timestamp
}

func (t *fakeTrack) ReadyForMoreData() bool { return !t.busy && !t.finished }

func (t *fakeTrack) Append(s media.Sample) error {
	if t.finished {
		return errors.New("append after finish")
	}
	t.appended = append(t.appended, s.PTS)
	t.ev.add("%v append %v", t.kind, s.PTS)
	return nil
}

func (t *fakeTrack) MarkFinished() {
	t.finished = true
	t.ev.add("%v finished", t.kind)
}

type fakeContainer struct {
	path         string
	ev           events
	video, audio *fakeTrack
	started      bool
	sessionStart media.Timestamp
	startErr     error
	cancelled    bool
	done         func(Outcome, error)
}

func newFakeContainer(path string) *fakeContainer {
	c := &fakeContainer{path: path}
	c.video = &fakeTrack{kind: media.Video, ev: &c.ev}
	c.audio = &fakeTrack{kind: media.Audio, ev: &c.ev}
	return c
}

func (c *fakeContainer) Path() string { return c.path }
func (c *fakeContainer) Video() Track { return c.video }
func (c *fakeContainer) Audio() Track { return c.audio }

func (c *fakeContainer) StartWriting() error {
	c.started = true
	return c.startErr
}

func (c *fakeContainer) StartSession(at media.Timestamp) {
	c.sessionStart = at
	c.ev.add("session %v", at)
}

func (c *fakeContainer) Finish(done func(Outcome, error)) {
	c.ev.add("container finish")
	c.done = done
}

func (c *fakeContainer) Cancel() {
	c.cancelled = true
	c.ev.add("container cancel")
}

// complete reports the container outcome, as the real writer would once its
// file is closed.
func (c *fakeContainer) complete(outcome Outcome, err error) {
	done := c.done
	c.done = nil
	done(outcome, err)
}

type finished struct {
	path string
	err  error
}

type harness struct {
	p        *Pipeline
	c        *fakeContainer
	started  int
	finished []finished
}

func newHarness(t *testing.T, mode SyncMode, offset time.Duration) *harness {
	h := &harness{}
	h.p = New(Config{
		Mode:   mode,
		Offset: offset,
		NewContainer: func(path string) (Container, error) {
			h.c = newFakeContainer(path)
			return h.c, nil
		},
		OnStarted: func() { h.started++ },
		OnFinished: func(path string, err error) {
			h.finished = append(h.finished, finished{path, err})
		},
	})
	require.NoError(t, h.p.Start("/tmp/a.mp4"))
	return h
}

// Sample timestamps use the natural timescale of each stream.
func audioAt(ms int64) media.Sample {
	return media.Sample{Kind: media.Audio, PTS: media.Timestamp{Value: ms * 44100 / 1000, Timescale: 44100}}
}

func videoAt(ms int64) media.Sample {
	return media.Sample{Kind: media.Video, PTS: media.Timestamp{Value: ms * 90, Timescale: 90000}}
}

func TestSessionStartsAtFirstAudioPlusOffset(t *testing.T) {
	h := newHarness(t, SyncAudioLead, 0)

	// Video is ignored until audio arrives.
	h.p.Handle(videoAt(900))
	assert.IsType(t, &Pending{}, h.p.State())
	assert.False(t, h.c.started)

	h.p.Handle(audioAt(1000))
	require.IsType(t, &Active{}, h.p.State())
	assert.True(t, h.c.started)
	assert.Equal(t, 1, h.started)

	want := audioAt(1000).PTS.Add(DefaultSyncOffset)
	assert.Equal(t, want, h.c.sessionStart)
	assert.Equal(t, int32(44100), h.c.sessionStart.Timescale)
	assert.Equal(t, []media.Timestamp{audioAt(1000).PTS}, h.c.audio.appended)
}

func TestVideoBeforeFirstAudioIsDropped(t *testing.T) {
	h := newHarness(t, SyncAudioLead, 0)

	h.p.Handle(audioAt(1000))
	h.p.Handle(videoAt(950))
	h.p.Handle(videoAt(1000))
	h.p.Handle(videoAt(1033))

	assert.Equal(t, []media.Timestamp{videoAt(1000).PTS, videoAt(1033).PTS}, h.c.video.appended)
	assert.Equal(t, 1, h.p.Stats().Early)
	for _, ts := range h.c.video.appended {
		assert.False(t, ts.Before(audioAt(1000).PTS))
	}
}

func TestConfigurableOffset(t *testing.T) {
	h := newHarness(t, SyncAudioLead, 50*time.Millisecond)
	h.p.Handle(audioAt(1000))
	assert.Equal(t, 1050*time.Millisecond, h.c.sessionStart.Duration())

	h = newHarness(t, SyncAudioLead, -1)
	h.p.Handle(audioAt(1000))
	assert.Equal(t, time.Second, h.c.sessionStart.Duration())
}

func TestAudioStallFinishesVideo(t *testing.T) {
	h := newHarness(t, SyncAudioLead, 0)

	for ms := int64(1000); ms <= 2000; ms += 100 {
		h.p.Handle(audioAt(ms))
	}
	h.p.Handle(videoAt(1900))
	assert.False(t, h.c.video.finished)

	h.c.audio.busy = true
	h.p.Handle(videoAt(2050))

	assert.True(t, h.c.video.finished)
	assert.True(t, h.c.audio.finished)
	assert.NotNil(t, h.c.done, "container finish requested at this callback")
	assert.IsType(t, &Terminal{}, h.p.State())
	assert.NotContains(t, h.c.video.appended, videoAt(2050).PTS)

	ev := h.c.ev
	assert.Less(t, ev.index("audio finished"), ev.index("video finished"))
	assert.Less(t, ev.index("video finished"), ev.index("container finish"))
}

func TestStopFinishesAudioThenVideoCatchesUp(t *testing.T) {
	h := newHarness(t, SyncAudioLead, 0)

	h.p.Handle(audioAt(1000))
	h.p.Handle(videoAt(1100))
	h.p.Handle(audioAt(1500))

	h.p.Stop()
	assert.True(t, h.c.audio.finished)
	assert.False(t, h.c.video.finished)
	assert.Nil(t, h.c.done)
	assert.True(t, h.p.Recording())

	// Late audio is no longer written.
	h.p.Handle(audioAt(1600))
	assert.Len(t, h.c.audio.appended, 2)

	// Video still behind the last audio keeps being appended.
	h.p.Handle(videoAt(1400))
	assert.Contains(t, h.c.video.appended, videoAt(1400).PTS)
	assert.False(t, h.c.video.finished)

	// Passing the last audio closes the file.
	h.p.Handle(videoAt(1533))
	assert.True(t, h.c.video.finished)
	require.NotNil(t, h.c.done)

	// Buffers arriving while the container closes are dropped.
	h.p.Handle(videoAt(1566))
	assert.NotContains(t, h.c.video.appended, videoAt(1566).PTS)

	h.c.complete(Completed, nil)
	assert.IsType(t, Idle{}, h.p.State())
	assert.False(t, h.p.Recording())
	require.Len(t, h.finished, 1)
	assert.Equal(t, "/tmp/a.mp4", h.finished[0].path)
	assert.NoError(t, h.finished[0].err)

	ev := h.c.ev
	assert.Less(t, ev.index("audio finished"), ev.index("video finished"))
}

func TestFailedOutcomeReportsError(t *testing.T) {
	h := newHarness(t, SyncAudioLead, 0)
	h.p.Handle(audioAt(1000))
	h.p.Flush()

	diskFull := errors.New("disk full")
	h.c.complete(Failed, diskFull)
	require.Len(t, h.finished, 1)
	assert.Equal(t, diskFull, h.finished[0].err)
}

func TestCancelledOutcomeReportsNoError(t *testing.T) {
	h := newHarness(t, SyncAudioLead, 0)
	h.p.Handle(audioAt(1000))
	h.p.Flush()

	h.c.complete(Cancelled, errors.New("ignored"))
	require.Len(t, h.finished, 1)
	assert.NoError(t, h.finished[0].err)
}

func TestStopWhilePendingCancels(t *testing.T) {
	h := newHarness(t, SyncAudioLead, 0)
	h.p.Stop()
	assert.True(t, h.c.cancelled)

	h.c.complete(Cancelled, nil)
	require.Len(t, h.finished, 1)
	assert.NoError(t, h.finished[0].err)
	assert.Equal(t, 0, h.started)
}

func TestStopWhenIdleIsNoop(t *testing.T) {
	calls := 0
	p := New(Config{OnFinished: func(string, error) { calls++ }})
	p.Stop()
	p.Flush()
	assert.Equal(t, 0, calls)
	assert.IsType(t, Idle{}, p.State())
}

func TestStartTwice(t *testing.T) {
	h := newHarness(t, SyncAudioLead, 0)
	first := h.c
	assert.Equal(t, ErrAlreadyRecording, h.p.Start("/tmp/b.mp4"))
	assert.Same(t, first, h.c)
}

func TestStartWritingFailure(t *testing.T) {
	h := &harness{}
	h.p = New(Config{
		NewContainer: func(path string) (Container, error) {
			h.c = newFakeContainer(path)
			h.c.startErr = errors.New("read-only filesystem")
			return h.c, nil
		},
		OnStarted:  func() { h.started++ },
		OnFinished: func(path string, err error) { h.finished = append(h.finished, finished{path, err}) },
	})
	require.NoError(t, h.p.Start("/ro/a.mp4"))
	h.p.Handle(audioAt(1000))

	assert.Equal(t, 0, h.started)
	require.Len(t, h.finished, 1)
	assert.EqualError(t, h.finished[0].err, "read-only filesystem")
	assert.IsType(t, Idle{}, h.p.State())
}

func TestBackpressureDropsInsteadOfBlocking(t *testing.T) {
	h := newHarness(t, SyncAudioLead, 0)
	h.p.Handle(audioAt(1000))

	h.c.video.busy = true
	h.p.Handle(videoAt(1033))
	h.p.Handle(videoAt(1066))
	h.c.video.busy = false
	h.p.Handle(videoAt(1100))

	assert.Equal(t, []media.Timestamp{videoAt(1100).PTS}, h.c.video.appended)
	assert.Equal(t, 2, h.p.Stats().Dropped[media.Video])
	assert.False(t, h.c.video.finished)
}

func TestFirstBufferMode(t *testing.T) {
	h := newHarness(t, SyncFirstBuffer, 0)

	h.p.Handle(videoAt(1000))
	require.IsType(t, &Active{}, h.p.State())
	assert.Equal(t, videoAt(1000).PTS, h.c.sessionStart)
	assert.Equal(t, 1, h.started)

	h.p.Handle(audioAt(990)) // before the session start
	h.p.Handle(audioAt(1010))
	h.p.Handle(videoAt(1033))
	h.p.Handle(audioAt(1030))

	// Video is ahead, so it is finished first.
	h.p.Stop()
	assert.True(t, h.c.video.finished)
	assert.False(t, h.c.audio.finished)

	h.p.Handle(audioAt(1032))
	assert.False(t, h.c.audio.finished)
	h.p.Handle(audioAt(1050))
	assert.True(t, h.c.audio.finished)
	require.NotNil(t, h.c.done)

	assert.Equal(t, []media.Timestamp{audioAt(1010).PTS, audioAt(1030).PTS, audioAt(1032).PTS}, h.c.audio.appended)

	h.c.complete(Completed, nil)
	require.Len(t, h.finished, 1)
	assert.NoError(t, h.finished[0].err)
}
