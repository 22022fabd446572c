package leapsecs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTable is returned when leap second data is malformed or
	// internally inconsistent. No table is produced when it is returned.
	ErrInvalidTable = errors.New("invalid leap second table")

	// ErrOutOfRange is returned when an instant precedes the source epoch
	// of a table.
	ErrOutOfRange = errors.New("instant out of table range")
)

// TableError describes why a set of entries was rejected.
// Index is the offending entry or -1 when the problem is table wide.
type TableError struct {
	Index  int
	Reason string
}

func (e *TableError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s", ErrInvalidTable, e.Reason)
	}
	return fmt.Sprintf("%v: entry %d: %s", ErrInvalidTable, e.Index, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidTable.
func (e *TableError) Unwrap() error {
	return ErrInvalidTable
}

// RangeError reports a lookup before the table's coverage.
// Sec and Epoch are expressed in the scale named by Scale.
type RangeError struct {
	Scale string
	Sec   int64
	Epoch int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%v: %s second %d precedes table epoch %d", ErrOutOfRange, e.Scale, e.Sec, e.Epoch)
}

// Unwrap lets errors.Is match ErrOutOfRange.
func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// IsInvalidTable reports whether err is, or wraps, ErrInvalidTable.
func IsInvalidTable(err error) bool {
	return errors.Is(err, ErrInvalidTable)
}

// IsOutOfRange reports whether err is, or wraps, ErrOutOfRange.
func IsOutOfRange(err error) bool {
	return errors.Is(err, ErrOutOfRange)
}

func invalid(index int, format string, args ...any) error {
	return &TableError{Index: index, Reason: fmt.Sprintf(format, args...)}
}
