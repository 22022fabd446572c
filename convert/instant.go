package convert

import (
	"fmt"
	"strings"
	"time"
)

// Scale names the time scale an Instant is expressed in.
type Scale uint8

const (
	ScaleUTC Scale = iota
	ScaleTAI
)

func (s Scale) String() string {
	switch s {
	case ScaleUTC:
		return "UTC"
	case ScaleTAI:
		return "TAI"
	default:
		return fmt.Sprintf("Scale(%d)", uint8(s))
	}
}

// Instant is a point in time on one scale.
//
// Sec counts seconds since 1970-01-01T00:00:00 on that scale; for UTC the
// count excludes leap seconds. Leap is set only on UTC instants and labels
// the inserted second that follows Sec (written 23:59:60), which has no
// POSIX second of its own.
type Instant struct {
	Scale Scale
	Sec   int64
	Nsec  int32
	Leap  bool
}

// TAI returns a TAI instant. Nanoseconds outside [0, 1e9) carry into sec.
func TAI(sec int64, nsec int32) Instant {
	sec, nsec = norm(sec, nsec)
	return Instant{Scale: ScaleTAI, Sec: sec, Nsec: nsec}
}

// UTC returns an ordinary UTC instant. Nanoseconds outside [0, 1e9) carry
// into sec.
func UTC(sec int64, nsec int32) Instant {
	sec, nsec = norm(sec, nsec)
	return Instant{Scale: ScaleUTC, Sec: sec, Nsec: nsec}
}

// LeapLabel returns the UTC leap second label that follows UTC second sec.
// Nanoseconds outside [0, 1e9) leave the leap second: a negative nsec lands
// in second sec, a full second or more lands after the label.
func LeapLabel(sec int64, nsec int32) Instant {
	switch {
	case nsec < 0:
		return UTC(sec+1, nsec)
	case nsec >= 1e9:
		return UTC(sec+1, nsec-1e9)
	}
	return Instant{Scale: ScaleUTC, Sec: sec, Nsec: nsec, Leap: true}
}

func norm(sec int64, nsec int32) (int64, int32) {
	sec += int64(nsec / 1e9)
	nsec %= 1e9
	if nsec < 0 {
		sec--
		nsec += 1e9
	}
	return sec, nsec
}

// Valid reports whether Nsec lies in [0, 1e9) and only a UTC instant
// carries the leap flag.
func (i Instant) Valid() bool {
	return i.Nsec >= 0 && i.Nsec < 1e9 && (!i.Leap || i.Scale == ScaleUTC)
}

// FromTime returns the UTC instant of t.
func FromTime(t time.Time) Instant {
	return UTC(t.Unix(), int32(t.Nanosecond()))
}

// Time returns the instant as a time.Time whose fields read on the
// instant's own scale. A leap label is clamped to the last nanosecond of the
// preceding second, the closest value time.Time can hold.
func (i Instant) Time() time.Time {
	if i.Leap {
		return time.Unix(i.Sec, 999999999).UTC()
	}
	return time.Unix(i.Sec, int64(i.Nsec)).UTC()
}

// Compare orders two instants of the same scale; a leap label sorts after
// every nanosecond of the second it follows.
func (i Instant) Compare(j Instant) int {
	switch {
	case i.Sec != j.Sec:
		return cmp(i.Sec, j.Sec)
	case i.Leap != j.Leap:
		if i.Leap {
			return 1
		}
		return -1
	default:
		return cmp(int64(i.Nsec), int64(j.Nsec))
	}
}

func cmp(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Before reports whether i is earlier than j.
func (i Instant) Before(j Instant) bool {
	return i.Compare(j) < 0
}

// Add returns the TAI instant d after i. Only TAI instants take part in
// arithmetic: TAI seconds are all the same length, UTC seconds are not.
func (i Instant) Add(d time.Duration) (Instant, error) {
	if i.Scale != ScaleTAI || !i.Valid() {
		return Instant{}, fmt.Errorf("%w: Add needs a TAI instant, got %s", ErrScale, i)
	}
	t := i.Time().Add(d)
	return TAI(t.Unix(), int32(t.Nanosecond())), nil
}

// Sub returns the elapsed time i-j between two TAI instants, including any
// leap seconds in between. The result saturates like time.Time.Sub.
func (i Instant) Sub(j Instant) (time.Duration, error) {
	if i.Scale != ScaleTAI || j.Scale != ScaleTAI || !i.Valid() || !j.Valid() {
		return 0, fmt.Errorf("%w: Sub needs TAI instants, got %s and %s", ErrScale, i, j)
	}
	return i.Time().Sub(j.Time()), nil
}

// String renders the instant as RFC 3339 with a "Z" suffix for UTC and a
// " TAI" suffix for TAI. Leap labels show second 60.
func (i Instant) String() string {
	t := time.Unix(i.Sec, 0).UTC()
	sec := t.Second()
	if i.Leap {
		sec++
	}
	var b strings.Builder
	b.WriteString(t.Format("2006-01-02T15:04:"))
	fmt.Fprintf(&b, "%02d", sec)
	if i.Nsec != 0 {
		b.WriteString(strings.TrimRight(fmt.Sprintf(".%09d", i.Nsec), "0"))
	}
	if i.Scale == ScaleTAI {
		b.WriteString(" TAI")
	} else {
		b.WriteString("Z")
	}
	return b.String()
}

// ParseUTC parses an RFC 3339 UTC timestamp. Second 60 is accepted and
// yields a leap label; whether that label exists is checked on conversion.
func ParseUTC(s string) (Instant, error) {
	leap := false
	// "2006-01-02T15:04:05": the seconds sit at offset 17.
	if len(s) >= 19 && s[17:19] == "60" {
		s = s[:17] + "59" + s[19:]
		leap = true
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Instant{}, err
	}
	in := FromTime(t)
	in.Leap = leap
	return in, nil
}

const taiLayout = "2006-01-02T15:04:05.999999999"

// ParseTAI parses a TAI timestamp written like RFC 3339 without a zone,
// optionally followed by "TAI".
func ParseTAI(s string) (Instant, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "TAI"))
	t, err := time.ParseInLocation(taiLayout, s, time.UTC)
	if err != nil {
		return Instant{}, err
	}
	return TAI(t.Unix(), int32(t.Nanosecond())), nil
}
