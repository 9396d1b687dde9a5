// Package mp4 writes one video and one audio track into an MP4 file using the
// joy4 muxer. Tracks accept samples through small bounded queues, so that the
// recording pipeline can tell when the file writer is falling behind.
package mp4

import (
	"encoding/binary"
	"os"
	"sync"
	"time"

	"github.com/nareix/joy4/av"
	"github.com/nareix/joy4/codec/aacparser"
	"github.com/nareix/joy4/codec/h264parser"
	"github.com/nareix/joy4/format/mp4"
	"golang.org/x/xerrors"

	"github.com/lanikai/alohacam/internal/logging"
	"github.com/lanikai/alohacam/internal/writer"
	"github.com/lanikai/alohacam/media"
)

var log = logging.DefaultLogger.WithTag("mp4")

var (
	ErrTrackFinished    = xerrors.New("mp4: track finished")
	ErrTrackBusy        = xerrors.New("mp4: track queue full")
	ErrUnsupportedCodec = xerrors.New("mp4: unsupported codec")
	ErrNoVideo          = xerrors.New("mp4: no video key frame received")
)

// DefaultQueueSize is the number of samples a track buffers ahead of the file
// writer. About one second of 30fps video.
const DefaultQueueSize = 30

// Audio held back while waiting for the first video key frame.
const maxHeldAudio = 256

// Supports reports whether the muxer can store codec.
func Supports(codec media.Codec) bool {
	switch codec {
	case media.H264, media.AAC:
		return true
	}
	return false
}

type Config struct {
	Video media.VideoFormat
	Audio media.AudioFormat

	// Per-track queue capacity. Zero means DefaultQueueSize.
	QueueSize int
}

// NewFactory returns a writer.ContainerFactory creating files with cfg.
func NewFactory(cfg Config) writer.ContainerFactory {
	return func(path string) (writer.Container, error) {
		f, err := Create(path, cfg)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

// File is a writer.Container backed by an MP4 file on disk.
type File struct {
	path string
	cfg  Config

	video *Track
	audio *Track

	videoCodec av.CodecData
	audioCodec av.CodecData

	sync.Mutex
	started      bool
	cancelled    bool
	finishing    bool
	sessionStart media.Timestamp

	// Closed by the write loop once both queues are drained.
	done chan struct{}
	// Result of the write loop, valid once done is closed.
	err error
}

// Create validates the formats and prepares a file at path. Nothing touches
// the filesystem until StartWriting.
func Create(path string, cfg Config) (*File, error) {
	if !Supports(cfg.Video.Codec) {
		return nil, xerrors.Errorf("video %s: %w", cfg.Video.Codec, ErrUnsupportedCodec)
	}
	if cfg.Audio.Codec != media.AAC {
		return nil, xerrors.Errorf("audio %s: %w", cfg.Audio.Codec, ErrUnsupportedCodec)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}

	f := &File{
		path:  path,
		cfg:   cfg,
		video: newTrack(media.Video, cfg.QueueSize),
		audio: newTrack(media.Audio, cfg.QueueSize),
		done:  make(chan struct{}),
	}

	asc := cfg.Audio.AudioSpecificConfig()
	if asc == nil {
		return nil, xerrors.Errorf("mp4: no AAC config for %d Hz", cfg.Audio.SampleRate)
	}
	audioCodec, err := aacparser.NewCodecDataFromMPEG4AudioConfigBytes(asc)
	if err != nil {
		return nil, xerrors.Errorf("mp4: audio config: %w", err)
	}
	f.audioCodec = audioCodec

	if len(cfg.Video.SPS) > 0 && len(cfg.Video.PPS) > 0 {
		videoCodec, err := h264parser.NewCodecDataFromSPSAndPPS(cfg.Video.SPS, cfg.Video.PPS)
		if err != nil {
			return nil, xerrors.Errorf("mp4: video parameter sets: %w", err)
		}
		f.videoCodec = videoCodec
	}

	return f, nil
}

func (f *File) Path() string        { return f.path }
func (f *File) Video() writer.Track { return f.video }
func (f *File) Audio() writer.Track { return f.audio }

func (f *File) StartWriting() error {
	f.Lock()
	defer f.Unlock()

	if f.started {
		return xerrors.New("mp4: already writing")
	}
	if f.cancelled {
		return xerrors.New("mp4: cancelled")
	}

	out, err := os.Create(f.path)
	if err != nil {
		return xerrors.Errorf("mp4: %w", err)
	}
	f.started = true

	log.Debug("Writing %s", f.path)
	go f.writeLoop(out)
	return nil
}

func (f *File) StartSession(at media.Timestamp) {
	f.Lock()
	defer f.Unlock()
	f.sessionStart = at
}

func (f *File) session() media.Timestamp {
	f.Lock()
	defer f.Unlock()
	return f.sessionStart
}

// Finish closes both tracks and calls done once the trailer is written. The
// file is removed unless the outcome is Completed.
func (f *File) Finish(done func(writer.Outcome, error)) {
	f.Lock()
	if f.finishing {
		f.Unlock()
		log.Panicf("mp4: Finish called twice for %s", f.path)
	}
	f.finishing = true
	started := f.started
	f.Unlock()

	// Whatever was not finished explicitly ends here.
	f.audio.MarkFinished()
	f.video.MarkFinished()

	go func() {
		if started {
			<-f.done
		}

		f.Lock()
		cancelled, err := f.cancelled, f.err
		f.Unlock()

		// Partial files are unplayable without a trailer.
		if started && (cancelled || err != nil) {
			if rerr := os.Remove(f.path); rerr != nil {
				log.Warn("Removing %s: %v", f.path, rerr)
			}
		}

		switch {
		case cancelled:
			done(writer.Cancelled, nil)
		case err != nil:
			done(writer.Failed, err)
		case !started:
			done(writer.Failed, xerrors.New("mp4: file was never opened"))
		default:
			done(writer.Completed, nil)
		}
	}()
}

func (f *File) Cancel() {
	f.Lock()
	f.cancelled = true
	f.Unlock()

	f.audio.MarkFinished()
	f.video.MarkFinished()
}

func (f *File) isCancelled() bool {
	f.Lock()
	defer f.Unlock()
	return f.cancelled
}

// writeLoop owns the muxer. It drains both track queues until they are closed,
// then writes the trailer.
func (f *File) writeLoop(out *os.File) {
	err := f.mux(out)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = xerrors.Errorf("mp4: close: %w", cerr)
	}
	if err != nil {
		log.Error("Writing %s failed: %v", f.path, err)
	}

	f.Lock()
	f.err = err
	f.Unlock()
	close(f.done)
}

func (f *File) mux(out *os.File) error {
	m := &muxState{
		file:       f,
		muxer:      mp4.NewMuxer(out),
		videoCodec: f.videoCodec,
	}

	videoQ, audioQ := f.video.queue, f.audio.queue
	for videoQ != nil || audioQ != nil {
		var s media.Sample
		var ok bool
		select {
		case s, ok = <-videoQ:
			if !ok {
				videoQ = nil
				continue
			}
		case s, ok = <-audioQ:
			if !ok {
				audioQ = nil
				continue
			}
		}

		if m.err != nil || f.isCancelled() {
			// Drain without writing.
			continue
		}
		m.err = m.write(s)
	}

	if m.err != nil || f.isCancelled() {
		return m.err
	}
	if !m.headerWritten {
		return ErrNoVideo
	}
	if err := m.muxer.WriteTrailer(); err != nil {
		return xerrors.Errorf("mp4: trailer: %w", err)
	}
	log.Info("Wrote %s: %d video, %d audio packets", f.path, m.packets[media.Video], m.packets[media.Audio])
	return nil
}

// muxState is the write loop's private state.
type muxState struct {
	file  *File
	muxer *mp4.Muxer

	videoCodec    av.CodecData
	headerWritten bool
	keyFrameSeen  bool

	held []av.Packet

	// Per media.Kind.
	lastTime [2]time.Duration
	packets  [2]int

	err error
}

func (m *muxState) write(s media.Sample) error {
	start := m.file.session()
	if !start.Valid() || s.PTS.Before(start) {
		// Trimmed from the timeline.
		return nil
	}
	pkt := av.Packet{
		Idx:  int8(s.Kind),
		Time: s.PTS.Sub(start),
	}

	switch s.Kind {
	case media.Video:
		data, sps, pps := toAVCC(s.Data)
		if m.videoCodec == nil && sps != nil && pps != nil {
			codec, err := h264parser.NewCodecDataFromSPSAndPPS(sps, pps)
			if err != nil {
				return xerrors.Errorf("mp4: video parameter sets: %w", err)
			}
			m.videoCodec = codec
		}
		key := s.KeyFrame || media.ContainsIDR(s.Data)
		if !m.keyFrameSeen && !key {
			return nil
		}
		if m.videoCodec == nil {
			log.Warn("Dropping video at %v: no parameter sets yet", s.PTS)
			return nil
		}
		if len(data) == 0 {
			return nil
		}
		m.keyFrameSeen = true
		pkt.IsKeyFrame = key
		pkt.Data = data
	case media.Audio:
		pkt.Data = s.Data
	}

	if !m.headerWritten {
		if !m.keyFrameSeen {
			// The file starts at a video key frame. Audio waits for it.
			if len(m.held) == maxHeldAudio {
				m.held = m.held[1:]
			}
			m.held = append(m.held, pkt)
			return nil
		}
		if err := m.muxer.WriteHeader([]av.CodecData{media.Video: m.videoCodec, media.Audio: m.file.audioCodec}); err != nil {
			return xerrors.Errorf("mp4: header: %w", err)
		}
		m.headerWritten = true

		held := m.held
		m.held = nil
		for _, p := range held {
			if err := m.writePacket(p); err != nil {
				return err
			}
		}
	}
	return m.writePacket(pkt)
}

func (m *muxState) writePacket(pkt av.Packet) error {
	kind := media.Kind(pkt.Idx)
	if m.packets[kind] > 0 && pkt.Time < m.lastTime[kind] {
		log.Debug("Dropping out of order %v packet at %v", kind, pkt.Time)
		return nil
	}
	if err := m.muxer.WritePacket(pkt); err != nil {
		return xerrors.Errorf("mp4: write %v packet: %w", kind, err)
	}
	m.lastTime[kind] = pkt.Time
	m.packets[kind]++
	return nil
}

// toAVCC converts an Annex B access unit into length-prefixed NAL units,
// pulling out parameter sets and access unit delimiters.
func toAVCC(data []byte) (avcc, sps, pps []byte) {
	for _, nalu := range media.SplitAnnexB(data) {
		switch media.NALUType(nalu) {
		case media.NALUTypeSPS:
			sps = nalu
		case media.NALUTypePPS:
			pps = nalu
		case media.NALUTypeAUD:
		default:
			var n [4]byte
			binary.BigEndian.PutUint32(n[:], uint32(len(nalu)))
			avcc = append(avcc, n[:]...)
			avcc = append(avcc, nalu...)
		}
	}
	return
}
