// Package clock supplies the current instant to the converter.
//
// Reading a clock is kept out of the conversion packages; callers pick a
// Source and hand its instant to convert.
package clock

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/karasz/gtleap/convert"
)

var (
	// ErrUnsupported is returned by KernelTAI on platforms without a
	// kernel TAI clock.
	ErrUnsupported = errors.New("kernel TAI clock not supported on this platform")

	// ErrTAIOffsetUnset is returned by KernelTAI when the kernel TAI clock
	// reads the same as the UTC clock, which means nobody told the kernel
	// the current TAI-UTC offset.
	ErrTAIOffsetUnset = errors.New("kernel TAI offset is not set")
)

// Source reports the current instant.
type Source interface {
	Now() (convert.Instant, error)
}

// System reads the system UTC clock.
type System struct{}

// Now returns the current UTC instant.
func (System) Now() (convert.Instant, error) {
	return convert.FromTime(time.Now()), nil
}

// KernelTAI reads the kernel's TAI clock. The returned instant is on the
// TAI scale.
type KernelTAI struct{}

// Now returns the current TAI instant.
func (KernelTAI) Now() (convert.Instant, error) {
	return kernelTAI()
}

// Fallback reads Primary and, when that fails, Secondary.
type Fallback struct {
	Primary   Source
	Secondary Source
}

// Now returns the primary reading, or the secondary one if the primary
// clock errors. It fails only if both do.
func (f Fallback) Now() (convert.Instant, error) {
	in, err := f.Primary.Now()
	if err == nil {
		return in, nil
	}
	in, err2 := f.Secondary.Now()
	if err2 != nil {
		return convert.Instant{}, errors.Join(err, err2)
	}
	return in, nil
}

// Fixed always reports the same instant.
type Fixed struct {
	At convert.Instant
}

// Now returns f.At.
func (f Fixed) Now() (convert.Instant, error) {
	return f.At, nil
}

// New returns the Source named by kind: "system", "tai", "tai-or-system"
// (the kernel TAI clock, falling back to the system clock) or
// "fixed:<RFC3339>".
func New(kind string) (Source, error) {
	if at, ok := strings.CutPrefix(kind, "fixed:"); ok {
		in, err := convert.ParseUTC(at)
		if err != nil {
			return nil, fmt.Errorf("fixed clock: %w", err)
		}
		return Fixed{At: in}, nil
	}
	switch kind {
	case "", "system":
		return System{}, nil
	case "tai":
		return KernelTAI{}, nil
	case "tai-or-system":
		return Fallback{Primary: KernelTAI{}, Secondary: System{}}, nil
	default:
		return nil, fmt.Errorf("unknown clock %q", kind)
	}
}
