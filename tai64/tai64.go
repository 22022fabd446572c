// Package tai64 converts between TAI instants and TAI64/TAI64N external
// labels.
//
// A label counts TAI seconds from 2^62 at 1970-01-01 00:00:00 TAI, so
// @400000002a2b2c2d is 1992-06-02 08:07:09 TAI.
package tai64

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/karasz/glibtai"

	"github.com/karasz/gtleap/convert"
)

// Base is the label of 1970-01-01 00:00:00 TAI.
const Base = uint64(1) << 62

const (
	// TAILabelLength is the length of "@" plus 16 hex digits.
	TAILabelLength = 1 + 2*glibtai.TAILength
	// TAINLabelLength is the length of "@" plus 24 hex digits.
	TAINLabelLength = 1 + 2*glibtai.TAINLength
)

// ErrLabel is returned for text that is not a TAI64 or TAI64N label.
var ErrLabel = errors.New("invalid TAI64 label")

// Parse reads a TAI64 ("@" + 16 hex digits) or TAI64N ("@" + 24 hex digits)
// label. TAI64 labels parse with zero nanoseconds.
func Parse(s string) (glibtai.TAIN, error) {
	if len(s) == 0 || s[0] != '@' {
		return glibtai.TAIN{}, fmt.Errorf("%w: %q does not begin with '@'", ErrLabel, s)
	}
	switch len(s) {
	case TAINLabelLength:
		t, err := glibtai.TAINfromString(s)
		if err != nil {
			return glibtai.TAIN{}, fmt.Errorf("%w: %w", ErrLabel, err)
		}
		buf := glibtai.TAINPack(t)
		if binary.BigEndian.Uint32(buf[glibtai.TAILength:]) > 999999999 {
			return glibtai.TAIN{}, fmt.Errorf("%w: %q has more than 999999999 nanoseconds", ErrLabel, s)
		}
		return t, checkSeconds(s, buf)
	case TAILabelLength:
		t, err := glibtai.TAIfromString(s)
		if err != nil {
			return glibtai.TAIN{}, fmt.Errorf("%w: %w", ErrLabel, err)
		}
		buf := make([]byte, glibtai.TAINLength)
		copy(buf, glibtai.TAIPack(t))
		return glibtai.TAINUnpack(buf), checkSeconds(s, buf)
	default:
		return glibtai.TAIN{}, fmt.Errorf("%w: %q has length %d", ErrLabel, s, len(s))
	}
}

// checkSeconds rejects labels at or above 2^63, which are reserved.
func checkSeconds(s string, buf []byte) error {
	if binary.BigEndian.Uint64(buf) >= 1<<63 {
		return fmt.Errorf("%w: %q is beyond the TAI64 range", ErrLabel, s)
	}
	return nil
}

// ToInstant returns the TAI instant labelled by t.
func ToInstant(t glibtai.TAIN) convert.Instant {
	buf := glibtai.TAINPack(t)
	sec := int64(binary.BigEndian.Uint64(buf) - Base)
	return convert.TAI(sec, int32(binary.BigEndian.Uint32(buf[glibtai.TAILength:])))
}

// FromInstant returns the TAI64N label of TAI instant in.
func FromInstant(in convert.Instant) (glibtai.TAIN, error) {
	if in.Scale != convert.ScaleTAI {
		return glibtai.TAIN{}, fmt.Errorf("%w: TAI64 labels a TAI instant, got %s", convert.ErrScale, in)
	}
	if !in.Valid() {
		return glibtai.TAIN{}, fmt.Errorf("%w: nanoseconds %d", convert.ErrInstant, in.Nsec)
	}
	buf := make([]byte, glibtai.TAINLength)
	binary.BigEndian.PutUint64(buf, Base+uint64(in.Sec))
	binary.BigEndian.PutUint32(buf[glibtai.TAILength:], uint32(in.Nsec))
	return glibtai.TAINUnpack(buf), nil
}

// Format renders TAI instant in as a TAI64N label.
func Format(in convert.Instant) (string, error) {
	t, err := FromInstant(in)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}
