// Package convert converts instants between TAI and UTC against a leap
// second table.
//
// Both conversions are pure functions of their arguments and may be called
// concurrently on a shared table.
package convert

import (
	"errors"
	"fmt"

	"github.com/karasz/gtleap/expiry"
	"github.com/karasz/gtleap/leapsecs"
)

var (
	// ErrNotLeapSecond is returned when a leap label names a second that
	// is not followed by an inserted leap second in the table.
	ErrNotLeapSecond = errors.New("not a leap second")

	// ErrScale is returned when an instant is on the wrong scale.
	ErrScale = errors.New("wrong time scale")

	// ErrInstant is returned for an instant built by hand with
	// nanoseconds outside [0, 1e9) or a leap flag on a TAI instant.
	ErrInstant = errors.New("malformed instant")
)

// Boundary tags results that touch a leap second.
type Boundary int

const (
	// None is an ordinary instant.
	None Boundary = iota
	// LeapWindow is the UTC second right before an inserted leap second.
	// Its UTC label is followed by the leap second itself.
	LeapWindow
	// LeapSecond is the inserted second, UTC 23:59:60.
	LeapSecond
	// SkippedSecond is a UTC second removed by a negative leap second.
	// It is mapped onto the TAI instant of the next existing UTC second.
	SkippedSecond
)

func (b Boundary) String() string {
	switch b {
	case None:
		return "none"
	case LeapWindow:
		return "leap-window"
	case LeapSecond:
		return "leap-second"
	case SkippedSecond:
		return "skipped-second"
	default:
		return fmt.Sprintf("Boundary(%d)", int(b))
	}
}

// Result is the outcome of a conversion.
type Result struct {
	Instant    Instant
	Confidence expiry.Confidence
	Boundary   Boundary
}

// Scale returns the scale of the converted instant.
func (r Result) Scale() Scale {
	return r.Instant.Scale
}

// TAIToUTC converts TAI instant t to UTC. Every covered TAI instant maps to
// exactly one UTC instant or leap label.
func TAIToUTC(t Instant, tbl *leapsecs.Table) (Result, error) {
	if t.Scale != ScaleTAI || t.Leap {
		return Result{}, fmt.Errorf("%w: TAIToUTC needs a TAI instant, got %s", ErrScale, t)
	}
	if !t.Valid() {
		return Result{}, fmt.Errorf("%w: nanoseconds %d", ErrInstant, t.Nsec)
	}
	off, idx, err := tbl.LookupTAI(t.Sec)
	if err != nil {
		return Result{}, err
	}

	u := UTC(t.Sec-off, t.Nsec)
	b := None
	if next := idx + 1; tbl.IsInsertion(next) {
		e := tbl.Entry(next)
		switch {
		case t.Sec >= e.EffectiveUTC+off:
			// The one TAI second between the old and new offset.
			u = LeapLabel(e.EffectiveUTC-1, t.Nsec)
			b = LeapSecond
		case u.Sec == e.EffectiveUTC-1:
			b = LeapWindow
		}
	}
	return Result{Instant: u, Confidence: expiry.Classify(u.Sec, tbl), Boundary: b}, nil
}

// UTCToTAI converts UTC instant u to TAI. A leap label (u.Leap) must name
// the second before an inserted leap second and converts to that second.
func UTCToTAI(u Instant, tbl *leapsecs.Table) (Result, error) {
	if u.Scale != ScaleUTC {
		return Result{}, fmt.Errorf("%w: UTCToTAI needs a UTC instant, got %s", ErrScale, u)
	}
	if !u.Valid() {
		return Result{}, fmt.Errorf("%w: nanoseconds %d", ErrInstant, u.Nsec)
	}
	off, idx, err := tbl.LookupUTC(u.Sec)
	if err != nil {
		return Result{}, err
	}
	conf := expiry.Classify(u.Sec, tbl)

	next := idx + 1
	if u.Leap {
		if !tbl.IsInsertion(next) || tbl.Entry(next).EffectiveUTC-1 != u.Sec {
			return Result{}, fmt.Errorf("%w: %s", ErrNotLeapSecond, u)
		}
		return Result{Instant: TAI(u.Sec+off+1, u.Nsec), Confidence: conf, Boundary: LeapSecond}, nil
	}

	b := None
	if next < tbl.Len() && tbl.Entry(next).EffectiveUTC-1 == u.Sec {
		switch {
		case tbl.IsInsertion(next):
			b = LeapWindow
		case tbl.IsRemoval(next):
			return Result{Instant: TAI(tbl.Entry(next).EffectiveTAI(), 0), Confidence: conf, Boundary: SkippedSecond}, nil
		}
	}
	return Result{Instant: TAI(u.Sec+off, u.Nsec), Confidence: conf, Boundary: b}, nil
}
