package logging

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is a verbosity threshold. A logger writes messages at or below its
// level, so higher levels are chattier.
type Level int

const (
	Error Level = iota - 2
	Warn
	Info
	Debug

	// Numeric trace levels run from Debug+1 up to MaxLevel.
	MaxLevel Level = 9
)

// Level used for tags without a LOGLEVEL directive.
var defaultLevel = Info

var levelNames = map[Level]string{
	Error: "Error",
	Warn:  "Warn",
	Info:  "Info",
	Debug: "Debug",
}

// parseLevel accepts a level name, its first letter, "trace", or a number
// between Error and MaxLevel.
func parseLevel(s string) (Level, error) {
	for level, name := range levelNames {
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:1]) {
			return level, nil
		}
	}
	if strings.EqualFold(s, "trace") || strings.EqualFold(s, "t") {
		return MaxLevel, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid logging level %q", s)
	}
	if level := Level(n); level >= Error && level <= MaxLevel {
		return level, nil
	}
	return 0, fmt.Errorf("logging level %d out of range", n)
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return strconv.Itoa(int(l))
}

// letter is the one-character level shown in each log line.
func (l Level) letter() byte {
	if name, ok := levelNames[l]; ok {
		return name[0]
	}
	return byte('0' + l)
}
