// Package source turns external leap second data into validated tables.
//
// Every shape of input (a compiled-in list, incremental records handed over by
// a platform adapter, a bulletin file) implements Source. Load is the single
// place where a Source becomes a leapsecs.Table, so all of them are validated
// the same way.
package source

import (
	"errors"
	"fmt"
	"time"

	"github.com/karasz/gtleap/leapsecs"
)

// Record is one raw (date, cumulative offset) pair: from Date onwards
// TAI - UTC equals Offset seconds.
type Record struct {
	Date   time.Time
	Offset int64
}

// Raw is what a Source produces: ordered records and the horizons they are
// valid for. A zero Epoch means the first record's date.
type Raw struct {
	Records []Record
	Epoch   time.Time
	Expires time.Time
}

// Source produces raw leap second records.
type Source interface {
	Records() (Raw, error)
}

// Load reads src and builds a table from it. Every error it returns wraps
// leapsecs.ErrInvalidTable; on error no table is returned.
func Load(src Source) (*leapsecs.Table, error) {
	raw, err := src.Records()
	if err != nil {
		return nil, invalidTable(err)
	}
	return raw.Table()
}

// Table validates r and builds a table from it.
func (r Raw) Table() (*leapsecs.Table, error) {
	if len(r.Records) == 0 {
		return nil, invalidTable(errors.New("no leap second records"))
	}
	if r.Expires.IsZero() {
		return nil, invalidTable(errors.New("no expiration date"))
	}
	entries := make([]leapsecs.Entry, len(r.Records))
	for i, rec := range r.Records {
		if rec.Date.Nanosecond() != 0 {
			return nil, invalidTable(fmt.Errorf("record %d: %s is not a whole second", i, rec.Date))
		}
		entries[i] = leapsecs.Entry{EffectiveUTC: rec.Date.Unix(), TAIMinusUTC: rec.Offset}
	}
	epoch := r.Epoch
	if epoch.IsZero() {
		epoch = r.Records[0].Date
	}
	return leapsecs.New(entries, epoch.Unix(), r.Expires.Unix())
}

func invalidTable(err error) error {
	if errors.Is(err, leapsecs.ErrInvalidTable) {
		return err
	}
	return fmt.Errorf("%w: %w", leapsecs.ErrInvalidTable, err)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
