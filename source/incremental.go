package source

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"time"
)

// Incremental appends records newer than Base, the way a platform registry
// extends a table frozen at release time.
//
// Records in Added identical to one already present are dropped. Any other
// record must lie at or after Base's expiry, follow the newest entry and
// change the offset by exactly one second; such records also need an
// explicit Expires. The merged table expires at the later of Base's expiry
// and Expires.
type Incremental struct {
	Base    Source
	Added   []Record
	Expires time.Time
}

// Records merges the incremental records into the base records.
func (inc Incremental) Records() (Raw, error) {
	if inc.Base == nil {
		return Raw{}, errors.New("incremental source without a base")
	}
	base, err := inc.Base.Records()
	if err != nil {
		return Raw{}, err
	}
	if len(base.Records) == 0 {
		return Raw{}, errors.New("incremental source with an empty base")
	}

	merged := slices.Clone(base.Records)
	for i, rec := range inc.Added {
		if slices.ContainsFunc(merged, rec.equal) {
			continue
		}
		if rec.Date.Before(base.Expires) {
			return Raw{}, fmt.Errorf("incremental record %d (%s) precedes the base expiry %s",
				i, rec.Date.Format(time.DateOnly), base.Expires.Format(time.DateOnly))
		}
		last := merged[len(merged)-1]
		if !rec.Date.After(last.Date) {
			return Raw{}, fmt.Errorf("incremental record %d (%s) does not follow %s",
				i, rec.Date.Format(time.DateOnly), last.Date.Format(time.DateOnly))
		}
		if step := rec.Offset - last.Offset; step != 1 && step != -1 {
			return Raw{}, fmt.Errorf("incremental record %d changes TAI-UTC from %d to %d",
				i, last.Offset, rec.Offset)
		}
		if inc.Expires.IsZero() {
			return Raw{}, fmt.Errorf("incremental record %d (%s) is past the base expiry %s and no expiry was given",
				i, rec.Date.Format(time.DateOnly), base.Expires.Format(time.DateOnly))
		}
		merged = append(merged, rec)
	}

	expires := base.Expires
	if inc.Expires.After(expires) {
		expires = inc.Expires
	}
	return Raw{Records: merged, Epoch: base.Epoch, Expires: expires}, nil
}

func (r Record) equal(o Record) bool {
	return r.Date.Equal(o.Date) && r.Offset == o.Offset
}

// RegistryRecordSize is the size of one leap second record in the platform
// registry blob: six little-endian uint16 values.
const RegistryRecordSize = 12

// RegistryBaseOffset is TAI-UTC when the registry started tracking leap
// seconds (June 2018).
const RegistryBaseOffset = 37

// DecodeRegistry decodes a registry leap second blob into incremental
// records. Each record holds year, month, day, hour, a negative flag and a
// reserved word; the leap second is the last second of that hour and the new
// offset takes effect one second later. Offsets accumulate from base.
func DecodeRegistry(b []byte, base int64) ([]Record, error) {
	if len(b)%RegistryRecordSize != 0 {
		return nil, fmt.Errorf("registry blob of %d bytes is not a multiple of %d", len(b), RegistryRecordSize)
	}
	out := make([]Record, 0, len(b)/RegistryRecordSize)
	offset := base
	for i := 0; i < len(b); i += RegistryRecordSize {
		rec := b[i : i+RegistryRecordSize]
		year := int(binary.LittleEndian.Uint16(rec[0:]))
		month := int(binary.LittleEndian.Uint16(rec[2:]))
		day := int(binary.LittleEndian.Uint16(rec[4:]))
		hour := int(binary.LittleEndian.Uint16(rec[6:]))
		negative := binary.LittleEndian.Uint16(rec[8:]) != 0

		n := i / RegistryRecordSize
		if month < 1 || month > 12 || hour > 23 {
			return nil, fmt.Errorf("registry record %d: invalid date %04d-%02d-%02d hour %d", n, year, month, day, hour)
		}
		t := time.Date(year, time.Month(month), day, hour, 59, 59, 0, time.UTC)
		if t.Day() != day {
			return nil, fmt.Errorf("registry record %d: invalid date %04d-%02d-%02d", n, year, month, day)
		}
		if negative {
			offset--
		} else {
			offset++
		}
		out = append(out, Record{Date: t.Add(time.Second), Offset: offset})
	}
	return out, nil
}
