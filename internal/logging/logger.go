package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// sink is the destination shared by a logger and everything derived from it.
// Lines are written whole under mu so goroutines never interleave.
type sink struct {
	mu  sync.Mutex
	out io.Writer
}

func (s *sink) write(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(line); err != nil {
		panic(fmt.Sprintf("Failed to log to %v: %v", s.out, err))
	}
}

// Logger writes tagged, leveled lines. The zero value is not usable; derive
// loggers from DefaultLogger.
type Logger struct {
	// Level is the threshold for pinned loggers and the tag-less default.
	// Unpinned loggers consult the LOGLEVEL directives for their tag.
	Level

	Tag string

	pinned bool
	sink   *sink
}

var DefaultLogger = &Logger{Level: defaultLevel, sink: &sink{out: os.Stderr}}

// SetDestination redirects this logger and every logger sharing its sink.
func (log *Logger) SetDestination(out io.Writer) {
	log.sink.mu.Lock()
	log.sink.out = out
	log.sink.mu.Unlock()
}

func (log *Logger) WithTag(tag string) *Logger {
	derived := *log
	derived.Tag = tag
	derived.pinned = false
	return &derived
}

// WithDefaultLevel pins the derived logger to level, ignoring LOGLEVEL.
func (log *Logger) WithDefaultLevel(level Level) *Logger {
	derived := *log
	derived.Level = level
	derived.pinned = true
	return &derived
}

func (log *Logger) Enabled(level Level) bool {
	threshold := log.Level
	if !log.pinned {
		threshold = determineLevel(log.Tag, defaultLevel)
	}
	return level <= threshold
}

var linePool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, 256)
		return &b
	},
}

// header renders "<time> <L>/<tag>[file:line] ".
func (log *Logger) header(b []byte, level Level, file string, line int) []byte {
	b = append(b, headerColor.Sprint(time.Now().Format(timestampFormat))...)
	b = append(b, ' ')
	b = append(b, level.color().Sprintf("%c/%s", level.letter(), log.Tag)...)
	b = append(b, '[')
	b = append(b, filepath.Base(file)...)
	b = append(b, ':')
	b = strconv.AppendInt(b, int64(line), 10)
	return append(b, "] "...)
}

// Log writes a message at level, attributed to the caller calldepth frames
// above Log's caller.
func (log *Logger) Log(level Level, calldepth int, format string, a ...interface{}) {
	if !log.Enabled(level) {
		return
	}

	_, file, line, ok := runtime.Caller(calldepth + 1)
	if !ok {
		file, line = "?", 0
	}

	bp := linePool.Get().(*[]byte)
	b := log.header((*bp)[:0], level, file, line)
	b = fmt.Appendf(b, format, a...)
	if len(b) == 0 || b[len(b)-1] != '\n' {
		b = append(b, '\n')
	}
	log.sink.write(b)

	*bp = b
	linePool.Put(bp)
}

func (log *Logger) Error(format string, a ...interface{}) { log.Log(Error, 1, format, a...) }
func (log *Logger) Warn(format string, a ...interface{})  { log.Log(Warn, 1, format, a...) }
func (log *Logger) Info(format string, a ...interface{})  { log.Log(Info, 1, format, a...) }
func (log *Logger) Debug(format string, a ...interface{}) { log.Log(Debug, 1, format, a...) }

// Trace logs at numeric level n, above Debug.
func (log *Logger) Trace(n int, format string, a ...interface{}) {
	log.Log(Level(n), 1, format, a...)
}
