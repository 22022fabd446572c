// Package leapsecs holds the canonical in-memory leap second table.
//
// Instants are whole seconds. UTC seconds are counted the POSIX way from
// 1970-01-01T00:00:00Z, without counting leap seconds; TAI seconds are counted
// from 1970-01-01T00:00:00 TAI, so that TAI = UTC + TAIMinusUTC.
package leapsecs

import (
	"fmt"
	"sort"
	"time"
)

// Entry is one leap second event: from EffectiveUTC onwards the difference
// TAI - UTC equals TAIMinusUTC seconds.
type Entry struct {
	EffectiveUTC int64
	TAIMinusUTC  int64
}

// EffectiveTAI returns the TAI second at which the entry takes effect.
func (e Entry) EffectiveTAI() int64 {
	return e.EffectiveUTC + e.TAIMinusUTC
}

// Date returns the effective instant as a time.Time in UTC.
func (e Entry) Date() time.Time {
	return time.Unix(e.EffectiveUTC, 0).UTC()
}

// Table is an immutable, ordered set of leap second entries.
// A Table is safe for concurrent use; it is never modified after New returns.
type Table struct {
	entries     []Entry
	sourceEpoch int64
	expiresAt   int64
}

// New validates entries and builds a Table from a private copy of them.
// sourceEpoch is the first UTC second the table is authoritative for and
// expiresAt the UTC second after which further leap seconds may exist.
// The first entry's offset is in force from sourceEpoch up to the first entry.
func New(entries []Entry, sourceEpoch, expiresAt int64) (*Table, error) {
	if err := validate(entries, sourceEpoch, expiresAt); err != nil {
		return nil, err
	}
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	return &Table{entries: cp, sourceEpoch: sourceEpoch, expiresAt: expiresAt}, nil
}

func validate(entries []Entry, sourceEpoch, expiresAt int64) error {
	if len(entries) == 0 {
		return invalid(-1, "no entries")
	}
	if entries[0].EffectiveUTC < sourceEpoch {
		return invalid(0, "effective %s precedes source epoch %s",
			stamp(entries[0].EffectiveUTC), stamp(sourceEpoch))
	}
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if cur.EffectiveUTC <= prev.EffectiveUTC {
			return invalid(i, "effective %s is not after %s", stamp(cur.EffectiveUTC), stamp(prev.EffectiveUTC))
		}
		// Leap seconds insert or remove exactly one second.
		if step := cur.TAIMinusUTC - prev.TAIMinusUTC; step != 1 && step != -1 {
			return invalid(i, "offset changes by %d seconds (from %d to %d)", step, prev.TAIMinusUTC, cur.TAIMinusUTC)
		}
		if cur.EffectiveTAI() <= prev.EffectiveTAI() {
			return invalid(i, "TAI effective instant does not advance")
		}
	}
	last := entries[len(entries)-1]
	if expiresAt <= last.EffectiveUTC {
		return invalid(-1, "expires %s, not after last entry %s", stamp(expiresAt), stamp(last.EffectiveUTC))
	}
	return nil
}

// SourceEpoch returns the earliest UTC second covered by the table.
func (t *Table) SourceEpoch() int64 {
	return t.sourceEpoch
}

// SourceEpochTAI returns the earliest TAI second covered by the table.
func (t *Table) SourceEpochTAI() int64 {
	return t.sourceEpoch + t.entries[0].TAIMinusUTC
}

// ExpiresAt returns the UTC second after which the table may be missing
// leap seconds.
func (t *Table) ExpiresAt() int64 {
	return t.expiresAt
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entry returns the i-th entry. It panics if i is out of bounds.
func (t *Table) Entry(i int) Entry {
	return t.entries[i]
}

// Last returns the newest entry.
func (t *Table) Last() Entry {
	return t.entries[len(t.entries)-1]
}

// Entries returns a copy of the entries.
func (t *Table) Entries() []Entry {
	cp := make([]Entry, len(t.entries))
	copy(cp, t.entries)
	return cp
}

// IsInsertion reports whether entry i inserted a second, i.e. its offset is
// one more than the previous entry's. The first entry is never an insertion.
func (t *Table) IsInsertion(i int) bool {
	return i > 0 && i < len(t.entries) && t.entries[i].TAIMinusUTC > t.entries[i-1].TAIMinusUTC
}

// IsRemoval reports whether entry i removed a second.
func (t *Table) IsRemoval(i int) bool {
	return i > 0 && i < len(t.entries) && t.entries[i].TAIMinusUTC < t.entries[i-1].TAIMinusUTC
}

// LookupUTC returns the offset in force at UTC second sec and the index of the
// entry that provides it. The index is -1 when sec lies between the source
// epoch and the first entry, where the first entry's offset is extrapolated.
func (t *Table) LookupUTC(sec int64) (offset int64, index int, err error) {
	if sec < t.sourceEpoch {
		return 0, 0, &RangeError{Scale: "UTC", Sec: sec, Epoch: t.sourceEpoch}
	}
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].EffectiveUTC > sec
	}) - 1
	return t.offsetAt(i), i, nil
}

// LookupTAI is the reverse of LookupUTC: it returns the offset of the last
// entry whose TAI effective instant is at or before sec. During an inserted
// second this is still the previous entry; callers detect the inserted
// second by comparing sec with the next entry's EffectiveUTC plus offset.
func (t *Table) LookupTAI(sec int64) (offset int64, index int, err error) {
	if epoch := t.SourceEpochTAI(); sec < epoch {
		return 0, 0, &RangeError{Scale: "TAI", Sec: sec, Epoch: epoch}
	}
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].EffectiveTAI() > sec
	}) - 1
	return t.offsetAt(i), i, nil
}

func (t *Table) offsetAt(i int) int64 {
	if i < 0 {
		return t.entries[0].TAIMinusUTC
	}
	return t.entries[i].TAIMinusUTC
}

// Equal reports whether both tables hold the same entries, epoch and expiry.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.sourceEpoch != o.sourceEpoch || t.expiresAt != o.expiresAt || len(t.entries) != len(o.entries) {
		return false
	}
	for i := range t.entries {
		if t.entries[i] != o.entries[i] {
			return false
		}
	}
	return true
}

func (t *Table) String() string {
	last := t.Last()
	return fmt.Sprintf("%d entries, epoch %s, last %s TAI-UTC=%d, expires %s",
		len(t.entries), stamp(t.sourceEpoch), stamp(last.EffectiveUTC), last.TAIMinusUTC, stamp(t.expiresAt))
}

func stamp(sec int64) string {
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}
