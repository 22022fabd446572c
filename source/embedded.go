package source

import (
	"slices"
	"time"
)

// Embedded is a compiled-in list of records valid up to Cutoff.
type Embedded struct {
	Entries []Record
	Epoch   time.Time
	Cutoff  time.Time
}

// Records returns a copy of the embedded records.
func (e Embedded) Records() (Raw, error) {
	return Raw{
		Records: slices.Clone(e.Entries),
		Epoch:   e.Epoch,
		Expires: e.Cutoff,
	}, nil
}

// Builtin returns the table shipped with the package: the IERS leap seconds
// from 1972-01-01 (TAI-UTC = 10 s) to 2017-01-01 (37 s), as published in the
// IETF leap-seconds.list that expires on 2023-06-28.
func Builtin() Embedded {
	return Embedded{
		Entries: []Record{
			{date(1972, time.January, 1), 10},
			{date(1972, time.July, 1), 11},
			{date(1973, time.January, 1), 12},
			{date(1974, time.January, 1), 13},
			{date(1975, time.January, 1), 14},
			{date(1976, time.January, 1), 15},
			{date(1977, time.January, 1), 16},
			{date(1978, time.January, 1), 17},
			{date(1979, time.January, 1), 18},
			{date(1980, time.January, 1), 19},
			{date(1981, time.July, 1), 20},
			{date(1982, time.July, 1), 21},
			{date(1983, time.July, 1), 22},
			{date(1985, time.July, 1), 23},
			{date(1988, time.January, 1), 24},
			{date(1990, time.January, 1), 25},
			{date(1991, time.January, 1), 26},
			{date(1992, time.July, 1), 27},
			{date(1993, time.July, 1), 28},
			{date(1994, time.July, 1), 29},
			{date(1996, time.January, 1), 30},
			{date(1997, time.July, 1), 31},
			{date(1999, time.January, 1), 32},
			{date(2006, time.January, 1), 33},
			{date(2009, time.January, 1), 34},
			{date(2012, time.July, 1), 35},
			{date(2015, time.July, 1), 36},
			{date(2017, time.January, 1), 37},
		},
		Epoch:  date(1972, time.January, 1),
		Cutoff: date(2023, time.June, 28),
	}
}
