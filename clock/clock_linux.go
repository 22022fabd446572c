//go:build linux

package clock

import (
	"golang.org/x/sys/unix"

	"github.com/karasz/gtleap/convert"
)

// kernelTAI reads CLOCK_TAI. A kernel without a configured offset returns
// the UTC clock there, which is detected by comparing with CLOCK_REALTIME.
func kernelTAI() (convert.Instant, error) {
	var tai, utc unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_TAI, &tai); err != nil {
		return convert.Instant{}, err
	}
	if err := unix.ClockGettime(unix.CLOCK_REALTIME, &utc); err != nil {
		return convert.Instant{}, err
	}
	if tai.Sec-utc.Sec < 1 {
		return convert.Instant{}, ErrTAIOffsetUnset
	}
	sec, nsec := tai.Unix()
	return convert.TAI(sec, int32(nsec)), nil
}
