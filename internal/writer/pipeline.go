// Package writer muxes audio and video sample buffers from two independent
// capture streams into a single container file.
//
// A Pipeline is not safe for concurrent use. It belongs to one goroutine,
// which feeds it samples and runs the functions it posts back (Config.Post).
package writer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/lanikai/alohacam/internal/logging"
	"github.com/lanikai/alohacam/media"
)

var log = logging.DefaultLogger.WithTag("writer")

var (
	ErrAlreadyRecording = errors.New("writer: recording already in progress")
	ErrNoContainer      = errors.New("writer: no container factory")
)

// SyncMode selects how the write session is started and stopped.
type SyncMode int

const (
	// SyncAudioLead waits for the first audio sample, opens the session a
	// fixed offset after it, and on stop finishes audio first, letting video
	// catch up before closing.
	SyncAudioLead SyncMode = iota

	// SyncFirstBuffer opens the session at the first sample of either kind.
	// On stop, the track that is ahead is finished and the other closes once
	// it passes the same point.
	SyncFirstBuffer
)

// DefaultSyncOffset delays the session start after the first audio sample.
// Opening exactly at the first sample glitches playback on slow encoders that
// lag behind real time.
const DefaultSyncOffset = 200 * time.Millisecond

type Config struct {
	Mode SyncMode

	// Delay between the first audio sample and the session start, for
	// SyncAudioLead. Zero means DefaultSyncOffset; use a negative value for no
	// delay.
	Offset time.Duration

	NewContainer ContainerFactory

	// Post runs fn later on the goroutine that owns the pipeline. Container
	// completion arrives on arbitrary goroutines and is funnelled through it.
	Post func(fn func())

	OnStarted  func()
	OnFinished func(path string, err error)
}

// Stats counts samples per media.Kind over the current or last recording.
type Stats struct {
	Appended [2]int
	Dropped  [2]int
	// Video samples discarded for preceding the first audio sample.
	Early int
}

type Pipeline struct {
	cfg   Config
	state State
	stats Stats
}

func New(cfg Config) *Pipeline {
	if cfg.Offset == 0 {
		cfg.Offset = DefaultSyncOffset
	} else if cfg.Offset < 0 {
		cfg.Offset = 0
	}
	if cfg.Post == nil {
		cfg.Post = func(fn func()) { fn() }
	}
	if cfg.OnStarted == nil {
		cfg.OnStarted = func() {}
	}
	if cfg.OnFinished == nil {
		cfg.OnFinished = func(string, error) {}
	}
	return &Pipeline{cfg: cfg, state: Idle{}}
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return p.state
}

// Recording reports whether a recording exists, from Start until the
// container reports its outcome.
func (p *Pipeline) Recording() bool {
	_, idle := p.state.(Idle)
	return !idle
}

func (p *Pipeline) Stats() Stats {
	return p.stats
}

// Start creates the container and both tracks for a recording to path. No
// data is written until the session starts.
func (p *Pipeline) Start(path string) error {
	if p.Recording() {
		return ErrAlreadyRecording
	}
	if p.cfg.NewContainer == nil {
		return ErrNoContainer
	}

	c, err := p.cfg.NewContainer(path)
	if err != nil {
		return errors.Wrapf(err, "writer: create %s", path)
	}

	p.stats = Stats{}
	p.state = &Pending{rec: newRecording(c)}
	log.Info("Recording to %s, waiting for first %s sample", path, p.firstKind())
	return nil
}

func (p *Pipeline) firstKind() string {
	if p.cfg.Mode == SyncAudioLead {
		return "audio"
	}
	return "media"
}

// Handle consumes one sample. It never blocks: samples the tracks cannot take
// right now are dropped.
func (p *Pipeline) Handle(s media.Sample) {
	switch st := p.state.(type) {
	case Idle, *Terminal:
		// No active writer.
	case *Pending:
		if p.cfg.Mode == SyncAudioLead && s.Kind != media.Audio {
			p.stats.Dropped[s.Kind]++
			return
		}
		p.begin(st, s)
	case *Active:
		if p.cfg.Mode == SyncAudioLead {
			p.handleAudioLead(st, s)
		} else {
			p.handleFirstBuffer(st, s)
		}
	}
}

// begin opens the write session using s as the first sample.
func (p *Pipeline) begin(st *Pending, s media.Sample) {
	rec := st.rec

	start := s.PTS
	if p.cfg.Mode == SyncAudioLead {
		start = s.PTS.Add(p.cfg.Offset)
	}

	if err := rec.container.StartWriting(); err != nil {
		log.Error("Failed to start writing %s: %v", rec.path, err)
		p.state = &Terminal{rec: rec}
		rec.container.Cancel()
		p.complete(rec, Failed, err)
		return
	}
	rec.container.StartSession(start)

	act := &Active{
		rec:          rec,
		audioStart:   s.PTS,
		sessionStart: start,
	}
	p.state = act
	p.append(act, s)
	// The first sample marks the point later samples are measured against,
	// even if its track could not take it.
	act.last[s.Kind] = s.PTS

	log.Info("Write session for %s started at %v (first %v sample at %v)", rec.path, start, s.Kind, s.PTS)
	p.cfg.OnStarted()
}

func (p *Pipeline) append(act *Active, s media.Sample) bool {
	track := act.rec.tracks[s.Kind]
	if !track.ReadyForMoreData() {
		p.stats.Dropped[s.Kind]++
		return false
	}
	if err := track.Append(s); err != nil {
		log.Warn("Append %v failed: %v", s, err)
		p.stats.Dropped[s.Kind]++
		return false
	}
	p.stats.Appended[s.Kind]++
	act.last[s.Kind] = s.PTS
	return true
}

func (p *Pipeline) handleAudioLead(act *Active, s media.Sample) {
	audio := act.rec.tracks[media.Audio]

	if s.Kind == media.Audio {
		if act.finished[media.Audio] {
			p.stats.Dropped[media.Audio]++
			return
		}
		p.append(act, s)
		return
	}

	// Frames before the first audio sample fall outside the muxed timeline.
	if s.PTS.Before(act.audioStart) {
		p.stats.Early++
		return
	}

	video := act.rec.tracks[media.Video]
	if !video.ReadyForMoreData() {
		p.stats.Dropped[media.Video]++
		return
	}

	// Audio has stopped taking data and video has caught up with the last
	// audio written: close both.
	if !audio.ReadyForMoreData() && s.PTS.After(act.last[media.Audio]) {
		p.finish(act)
		return
	}
	p.append(act, s)
}

func (p *Pipeline) handleFirstBuffer(act *Active, s media.Sample) {
	kind, other := s.Kind, 1-s.Kind

	if act.finished[kind] {
		p.stats.Dropped[kind]++
		return
	}
	if s.PTS.Before(act.sessionStart) {
		p.stats.Early++
		return
	}

	if act.finished[other] {
		otherLast := act.last[other]
		if !otherLast.Valid() || s.PTS.After(otherLast) || !act.rec.tracks[kind].ReadyForMoreData() {
			p.finish(act)
			return
		}
	}
	p.append(act, s)
}

// Stop requests the end of the recording. Closing completes asynchronously;
// OnFinished fires once the container is done.
func (p *Pipeline) Stop() {
	switch st := p.state.(type) {
	case Idle, *Terminal:
		return
	case *Pending:
		// Nothing written yet.
		log.Info("Recording to %s stopped before the session started", st.rec.path)
		p.state = &Terminal{rec: st.rec}
		p.closeContainer(st.rec, true)
	case *Active:
		if st.stopping {
			return
		}
		st.stopping = true
		if p.cfg.Mode == SyncAudioLead {
			p.markFinished(st, media.Audio)
			return
		}

		// Finish whichever track is ahead; the other catches up.
		ahead := media.Audio
		if !st.last[media.Audio].Valid() ||
			(st.last[media.Video].Valid() && st.last[media.Video].After(st.last[media.Audio])) {
			ahead = media.Video
		}
		p.markFinished(st, ahead)
		if !st.last[1-ahead].Valid() {
			p.finish(st)
		}
	}
}

// Flush closes an active recording immediately, without waiting for the
// tracks to line up. Used when capture is going away.
func (p *Pipeline) Flush() {
	switch st := p.state.(type) {
	case *Pending:
		p.Stop()
	case *Active:
		st.stopping = true
		p.finish(st)
	}
}

func (p *Pipeline) markFinished(act *Active, kind media.Kind) {
	if act.finished[kind] {
		return
	}
	act.finished[kind] = true
	act.rec.tracks[kind].MarkFinished()
	log.Debug("%v track finished at %v", kind, act.last[kind])
}

// finish marks both tracks finished, audio first, and closes the container.
func (p *Pipeline) finish(act *Active) {
	p.markFinished(act, media.Audio)
	p.markFinished(act, media.Video)
	p.state = &Terminal{rec: act.rec}
	p.closeContainer(act.rec, false)
}

func (p *Pipeline) closeContainer(rec *recording, cancel bool) {
	done := func(outcome Outcome, err error) {
		p.cfg.Post(func() { p.complete(rec, outcome, err) })
	}
	if cancel {
		rec.container.Cancel()
	}
	rec.container.Finish(done)
}

func (p *Pipeline) complete(rec *recording, outcome Outcome, err error) {
	st, ok := p.state.(*Terminal)
	if !ok || st.rec != rec {
		log.Panicf("writer: completion for %s in state %v", rec.path, p.state)
	}
	p.state = Idle{}

	log.Info("Recording %s %v: appended %d video / %d audio, dropped %d video / %d audio, %d early",
		rec.path, outcome,
		p.stats.Appended[media.Video], p.stats.Appended[media.Audio],
		p.stats.Dropped[media.Video], p.stats.Dropped[media.Audio], p.stats.Early)

	if outcome != Failed {
		err = nil
	} else if err == nil {
		err = errors.New("writer: container failed")
	}
	p.cfg.OnFinished(rec.path, err)
}
