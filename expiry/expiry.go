// Package expiry classifies how far a conversion result can be trusted.
package expiry

import "fmt"

// Confidence tags a conversion result.
type Confidence int

const (
	// Authoritative means the instant lies within the table's declared
	// validity horizon.
	Authoritative Confidence = iota
	// StaleTable means the instant lies after the table's expiration: leap
	// seconds published later may be missing, so the result can be off by
	// whole seconds.
	StaleTable
	// BeforeTableCoverage means the instant precedes the table's source
	// epoch. Conversions fail instead of returning it.
	BeforeTableCoverage
)

func (c Confidence) String() string {
	switch c {
	case Authoritative:
		return "authoritative"
	case StaleTable:
		return "stale-table"
	case BeforeTableCoverage:
		return "before-table-coverage"
	default:
		return fmt.Sprintf("Confidence(%d)", int(c))
	}
}

// Horizon is the read-only view of a table that classification needs.
type Horizon interface {
	SourceEpoch() int64
	ExpiresAt() int64
}

// Classify rates UTC second sec against h.
func Classify(sec int64, h Horizon) Confidence {
	switch {
	case sec < h.SourceEpoch():
		return BeforeTableCoverage
	case sec > h.ExpiresAt():
		return StaleTable
	default:
		return Authoritative
	}
}
