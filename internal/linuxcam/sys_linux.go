//go:build linux

package linuxcam

import (
	"time"

	"golang.org/x/sys/unix"
)

// Opening a FIFO for reading must not wait for the writer.
const nonBlock = unix.O_NONBLOCK

// monotonic reads the clock V4L2 drivers stamp buffers with.
func monotonic() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		log.Panicf("clock_gettime: %v", err)
	}
	return time.Duration(ts.Nano())
}
