//go:build !linux

package linuxcam

import "time"

const nonBlock = 0

var processStart = time.Now()

func monotonic() time.Duration {
	return time.Since(processStart)
}
