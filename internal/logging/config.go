package logging

import (
	"fmt"
	"os"
	"strings"
)

// LOGLEVEL holds comma-separated directives such as "info,session=debug,writer=7".
// A bare level sets the default; "tag=level" overrides one tag.
const envVar = "LOGLEVEL"

var tagLevels = map[string]Level{}

func init() {
	Configure(os.Getenv(envVar))
}

// Configure applies directives on top of any already in effect. Bad
// directives are reported on stderr and skipped.
func Configure(directives string) {
	for _, d := range strings.Split(directives, ",") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		tag, value, tagged := strings.Cut(d, "=")
		if !tagged {
			value = tag
		}
		level, err := parseLevel(value)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ignoring %s directive %q: %v\n", envVar, d, err)
			continue
		}
		if tagged {
			tagLevels[tag] = level
		} else {
			defaultLevel = level
		}
	}
	DefaultLogger.Level = defaultLevel
}

func determineLevel(tag string, fallback Level) Level {
	if level, ok := tagLevels[tag]; ok {
		return level
	}
	return fallback
}
