package convert

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karasz/gtleap/expiry"
	"github.com/karasz/gtleap/leapsecs"
	"github.com/karasz/gtleap/source"
)

func builtin(t *testing.T) *leapsecs.Table {
	t.Helper()
	tbl, err := source.Load(source.Builtin())
	require.NoError(t, err)
	return tbl
}

func utcOf(t *testing.T, s string) Instant {
	t.Helper()
	in, err := ParseUTC(s)
	require.NoError(t, err)
	return in
}

func taiOf(t *testing.T, s string) Instant {
	t.Helper()
	in, err := ParseTAI(s)
	require.NoError(t, err)
	return in
}

func TestUTCToTAI(t *testing.T) {
	tbl := builtin(t)

	tests := []struct {
		utc      string
		tai      string
		boundary Boundary
	}{
		// The TAI64 documentation example.
		{"1992-06-02T08:06:43Z", "1992-06-02T08:07:09", None},
		{"1972-01-01T00:00:00Z", "1972-01-01T00:00:10", None},
		{"2016-12-31T23:59:58Z", "2017-01-01T00:00:34", None},
		{"2016-12-31T23:59:59Z", "2017-01-01T00:00:35", LeapWindow},
		{"2016-12-31T23:59:59.75Z", "2017-01-01T00:00:35.75", LeapWindow},
		{"2016-12-31T23:59:60Z", "2017-01-01T00:00:36", LeapSecond},
		{"2016-12-31T23:59:60.25Z", "2017-01-01T00:00:36.25", LeapSecond},
		{"2017-01-01T00:00:00Z", "2017-01-01T00:00:37", None},
		{"1972-06-30T23:59:60Z", "1972-07-01T00:00:10", LeapSecond},
	}
	for _, tt := range tests {
		t.Run(tt.utc, func(t *testing.T) {
			res, err := UTCToTAI(utcOf(t, tt.utc), tbl)
			require.NoError(t, err)
			assert.Equal(t, taiOf(t, tt.tai), res.Instant)
			assert.Equal(t, ScaleTAI, res.Scale())
			assert.Equal(t, tt.boundary, res.Boundary)
			assert.Equal(t, expiry.Authoritative, res.Confidence)
		})
	}
}

func TestTAIToUTC(t *testing.T) {
	tbl := builtin(t)

	tests := []struct {
		tai      string
		utc      string
		boundary Boundary
	}{
		{"1992-06-02T08:07:09", "1992-06-02T08:06:43Z", None},
		{"2017-01-01T00:00:34", "2016-12-31T23:59:58Z", None},
		{"2017-01-01T00:00:35.5", "2016-12-31T23:59:59.5Z", LeapWindow},
		{"2017-01-01T00:00:36", "2016-12-31T23:59:60Z", LeapSecond},
		{"2017-01-01T00:00:36.999", "2016-12-31T23:59:60.999Z", LeapSecond},
		{"2017-01-01T00:00:37", "2017-01-01T00:00:00Z", None},
	}
	for _, tt := range tests {
		t.Run(tt.tai, func(t *testing.T) {
			res, err := TAIToUTC(taiOf(t, tt.tai), tbl)
			require.NoError(t, err)
			assert.Equal(t, tt.utc, res.Instant.String())
			assert.Equal(t, ScaleUTC, res.Scale())
			assert.Equal(t, tt.boundary, res.Boundary)
		})
	}
}

func TestRoundTripAroundEveryLeap(t *testing.T) {
	tbl := builtin(t)
	for _, e := range tbl.Entries()[1:] {
		for d := int64(-5); d <= 5; d++ {
			for _, nsec := range []int32{0, 500000000, 999999999} {
				in := TAI(e.EffectiveTAI()+d, nsec)
				u, err := TAIToUTC(in, tbl)
				require.NoError(t, err)
				back, err := UTCToTAI(u.Instant, tbl)
				require.NoError(t, err)
				assert.Equal(t, in, back.Instant, "via %s", u.Instant)
				assert.Equal(t, u.Boundary, back.Boundary)
			}
		}
	}
}

func TestRoundTripSampled(t *testing.T) {
	tbl := builtin(t)
	start := tbl.SourceEpochTAI()
	end := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	for sec := start; sec < end; sec += 86400*3 + 4177 {
		in := TAI(sec, 123)
		u, err := TAIToUTC(in, tbl)
		require.NoError(t, err)
		back, err := UTCToTAI(u.Instant, tbl)
		require.NoError(t, err)
		require.Equal(t, in, back.Instant)
	}
}

func TestOffsetConsistency(t *testing.T) {
	tbl := builtin(t)
	for i := 0; i+1 < tbl.Len(); i++ {
		a, b := tbl.Entry(i), tbl.Entry(i+1)
		mid := UTC((a.EffectiveUTC+b.EffectiveUTC)/2, 42)
		res, err := UTCToTAI(mid, tbl)
		require.NoError(t, err)
		assert.Equal(t, mid.Sec+a.TAIMinusUTC, res.Instant.Sec)
		back, err := TAIToUTC(res.Instant, tbl)
		require.NoError(t, err)
		assert.Equal(t, mid, back.Instant)
	}
}

func TestMonotonicTAIToUTC(t *testing.T) {
	tbl := builtin(t)
	for _, e := range tbl.Entries()[1:] {
		var prev Instant
		for ns := int64(-3e9); ns <= 3e9; ns += 250e6 {
			sec, nsec := e.EffectiveTAI()+ns/1e9, ns%1e9
			if nsec < 0 {
				sec--
				nsec += 1e9
			}
			res, err := TAIToUTC(TAI(sec, int32(nsec)), tbl)
			require.NoError(t, err)
			if prev != (Instant{}) {
				assert.True(t, prev.Before(res.Instant), "%s then %s", prev, res.Instant)
			}
			prev = res.Instant
		}
	}
}

func TestMonotonicUTCToTAI(t *testing.T) {
	tbl := builtin(t)
	for i := 1; i < tbl.Len(); i++ {
		eff := tbl.Entry(i).EffectiveUTC
		seq := []Instant{
			UTC(eff-2, 0), UTC(eff-2, 500000000),
			UTC(eff-1, 0), UTC(eff-1, 500000000),
			LeapLabel(eff-1, 0), LeapLabel(eff-1, 500000000),
			UTC(eff, 0), UTC(eff, 500000000), UTC(eff+1, 0),
		}
		for j := 1; j < len(seq); j++ {
			require.True(t, seq[j-1].Before(seq[j]))
			a, err := UTCToTAI(seq[j-1], tbl)
			require.NoError(t, err)
			b, err := UTCToTAI(seq[j], tbl)
			require.NoError(t, err)
			assert.True(t, a.Instant.Before(b.Instant), "%s -> %s, %s -> %s", seq[j-1], a.Instant, seq[j], b.Instant)
		}
	}
}

func TestOutOfRange(t *testing.T) {
	tbl := builtin(t)

	_, err := UTCToTAI(utcOf(t, "1971-12-31T00:00:00Z"), tbl)
	require.Error(t, err)
	assert.True(t, leapsecs.IsOutOfRange(err))

	_, err = TAIToUTC(taiOf(t, "1972-01-01T00:00:09.999"), tbl)
	require.Error(t, err)
	assert.True(t, leapsecs.IsOutOfRange(err))

	res, err := TAIToUTC(taiOf(t, "1972-01-01T00:00:10"), tbl)
	require.NoError(t, err)
	assert.Equal(t, "1972-01-01T00:00:00Z", res.Instant.String())
}

func TestStaleTable(t *testing.T) {
	tbl := builtin(t)

	res, err := UTCToTAI(utcOf(t, "2023-07-01T00:00:00Z"), tbl)
	require.NoError(t, err)
	assert.Equal(t, expiry.StaleTable, res.Confidence)
	assert.Equal(t, taiOf(t, "2023-07-01T00:00:37"), res.Instant)

	back, err := TAIToUTC(res.Instant, tbl)
	require.NoError(t, err)
	assert.Equal(t, expiry.StaleTable, back.Confidence)

	res, err = UTCToTAI(utcOf(t, "2023-06-28T00:00:00Z"), tbl)
	require.NoError(t, err)
	assert.Equal(t, expiry.Authoritative, res.Confidence)
}

func TestNotLeapSecond(t *testing.T) {
	tbl := builtin(t)
	for _, s := range []string{
		"2017-06-30T23:59:60Z",
		"2017-01-01T00:00:60Z",
		"2015-06-30T23:58:60Z",
		"1971-12-31T23:59:60Z",
	} {
		t.Run(s, func(t *testing.T) {
			_, err := UTCToTAI(utcOf(t, s), tbl)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotLeapSecond) || leapsecs.IsOutOfRange(err))
		})
	}
	_, err := UTCToTAI(utcOf(t, "2017-06-30T23:59:60Z"), tbl)
	assert.ErrorIs(t, err, ErrNotLeapSecond)
}

func TestWrongScale(t *testing.T) {
	tbl := builtin(t)
	_, err := UTCToTAI(TAI(1e9, 0), tbl)
	assert.ErrorIs(t, err, ErrScale)
	_, err = TAIToUTC(UTC(1e9, 0), tbl)
	assert.ErrorIs(t, err, ErrScale)
	_, err = TAIToUTC(Instant{Scale: ScaleTAI, Sec: 1e9, Leap: true}, tbl)
	assert.ErrorIs(t, err, ErrScale)
}

func negativeTable(t *testing.T) *leapsecs.Table {
	t.Helper()
	day := func(y int, m time.Month, d int) int64 {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
	}
	tbl, err := leapsecs.New([]leapsecs.Entry{
		{EffectiveUTC: day(1972, time.January, 1), TAIMinusUTC: 10},
		{EffectiveUTC: day(1972, time.July, 1), TAIMinusUTC: 11},
		{EffectiveUTC: day(1973, time.January, 1), TAIMinusUTC: 10},
	}, day(1972, time.January, 1), day(1973, time.June, 28))
	require.NoError(t, err)
	return tbl
}

// No negative leap second has happened yet, so this table is synthetic.
func TestNegativeLeapSecond(t *testing.T) {
	tbl := negativeTable(t)

	res, err := UTCToTAI(utcOf(t, "1972-12-31T23:59:58Z"), tbl)
	require.NoError(t, err)
	assert.Equal(t, taiOf(t, "1973-01-01T00:00:09"), res.Instant)
	assert.Equal(t, None, res.Boundary)

	skipped, err := UTCToTAI(utcOf(t, "1972-12-31T23:59:59.5Z"), tbl)
	require.NoError(t, err)
	assert.Equal(t, SkippedSecond, skipped.Boundary)

	next, err := UTCToTAI(utcOf(t, "1973-01-01T00:00:00Z"), tbl)
	require.NoError(t, err)
	assert.Equal(t, taiOf(t, "1973-01-01T00:00:10"), next.Instant)
	assert.Equal(t, next.Instant, skipped.Instant)

	_, err = UTCToTAI(utcOf(t, "1972-12-31T23:59:60Z"), tbl)
	assert.ErrorIs(t, err, ErrNotLeapSecond)

	for _, s := range []string{"1973-01-01T00:00:09.5", "1973-01-01T00:00:10"} {
		in := taiOf(t, s)
		u, err := TAIToUTC(in, tbl)
		require.NoError(t, err)
		back, err := UTCToTAI(u.Instant, tbl)
		require.NoError(t, err)
		assert.Equal(t, in, back.Instant)
	}
	u, err := TAIToUTC(taiOf(t, "1973-01-01T00:00:10"), tbl)
	require.NoError(t, err)
	assert.Equal(t, "1973-01-01T00:00:00Z", u.Instant.String())
}

func TestExtrapolatedEpoch(t *testing.T) {
	entries := []leapsecs.Entry{{EffectiveUTC: 63072000, TAIMinusUTC: 10}} // 1972-01-01
	tbl, err := leapsecs.New(entries, 0, 63072000+86400)
	require.NoError(t, err)

	res, err := TAIToUTC(TAI(10, 0), tbl)
	require.NoError(t, err)
	assert.Equal(t, UTC(0, 0), res.Instant)
	assert.Equal(t, None, res.Boundary)
}

func TestConcurrentConversions(t *testing.T) {
	tbl := builtin(t)
	in := utcOf(t, "2016-12-31T23:59:60Z")
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				r, err := UTCToTAI(in, tbl)
				assert.NoError(t, err)
				back, err := TAIToUTC(r.Instant, tbl)
				assert.NoError(t, err)
				assert.Equal(t, in, back.Instant)
			}
		}()
	}
	wg.Wait()
}

func TestBoundaryString(t *testing.T) {
	assert.Equal(t, "leap-second", LeapSecond.String())
	assert.Equal(t, "skipped-second", SkippedSecond.String())
	assert.Equal(t, "Boundary(9)", Boundary(9).String())
}

func TestElapsedAcrossLeapSeconds(t *testing.T) {
	tbl := builtin(t)

	tests := []struct {
		name     string
		from, to Instant
	}{
		{"one leap", utcOf(t, "2016-12-31T23:59:59Z"), utcOf(t, "2017-01-01T00:00:00Z")},
		{"all leaps", utcOf(t, "1972-06-30T23:59:59Z"), FromTime(time.Now())},
		{"no leap", utcOf(t, "2018-01-01T00:00:00Z"), utcOf(t, "2019-01-01T00:00:00.5Z")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leaps := 0
			for _, e := range tbl.Entries()[1:] {
				if e.EffectiveUTC > tt.from.Sec && e.EffectiveUTC <= tt.to.Sec {
					leaps++
				}
			}

			a, err := UTCToTAI(tt.from, tbl)
			require.NoError(t, err)
			b, err := UTCToTAI(tt.to, tbl)
			require.NoError(t, err)
			elapsed, err := b.Instant.Sub(a.Instant)
			require.NoError(t, err)

			civil := tt.to.Time().Sub(tt.from.Time())
			assert.Equal(t, time.Duration(leaps)*time.Second, elapsed-civil)

			later, err := a.Instant.Add(elapsed)
			require.NoError(t, err)
			assert.Equal(t, b.Instant, later)
		})
	}
}

func TestAddThroughLeapSecond(t *testing.T) {
	tbl := builtin(t)
	start, err := UTCToTAI(utcOf(t, "2016-12-31T23:59:59.5Z"), tbl)
	require.NoError(t, err)

	var got []string
	for _, d := range []time.Duration{0, time.Second, 2 * time.Second, -time.Second} {
		in, err := start.Instant.Add(d)
		require.NoError(t, err)
		res, err := TAIToUTC(in, tbl)
		require.NoError(t, err)
		got = append(got, res.Instant.String())
	}
	assert.Equal(t, []string{
		"2016-12-31T23:59:59.5Z",
		"2016-12-31T23:59:60.5Z",
		"2017-01-01T00:00:00.5Z",
		"2016-12-31T23:59:58.5Z",
	}, got)
}

func TestArithmeticNeedsTAI(t *testing.T) {
	_, err := UTC(1e9, 0).Add(time.Second)
	assert.ErrorIs(t, err, ErrScale)
	_, err = LeapLabel(1483228799, 0).Add(time.Second)
	assert.ErrorIs(t, err, ErrScale)
	_, err = TAI(1e9, 0).Sub(UTC(1e9, 0))
	assert.ErrorIs(t, err, ErrScale)
	_, err = UTC(1e9, 0).Sub(TAI(1e9, 0))
	assert.ErrorIs(t, err, ErrScale)

	d, err := TAI(1e9, 0).Sub(TAI(1e9-3, 750000000))
	require.NoError(t, err)
	assert.Equal(t, 2250*time.Millisecond, d)
}

func TestConstructorsNormalize(t *testing.T) {
	tests := []struct {
		name string
		got  Instant
		want Instant
	}{
		{"tai carry", TAI(10, 1500000000), Instant{Scale: ScaleTAI, Sec: 11, Nsec: 500000000}},
		{"tai borrow", TAI(10, -250000000), Instant{Scale: ScaleTAI, Sec: 9, Nsec: 750000000}},
		{"utc carry", UTC(10, 2000000000), Instant{Scale: ScaleUTC, Sec: 12}},
		{"utc in range", UTC(10, 999999999), Instant{Scale: ScaleUTC, Sec: 10, Nsec: 999999999}},
		{"leap past end", LeapLabel(10, 1500000000), Instant{Scale: ScaleUTC, Sec: 11, Nsec: 500000000}},
		{"leap before start", LeapLabel(10, -250000000), Instant{Scale: ScaleUTC, Sec: 10, Nsec: 750000000}},
		{"leap in range", LeapLabel(10, 5), Instant{Scale: ScaleUTC, Sec: 10, Nsec: 5, Leap: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
			assert.True(t, tt.got.Valid())
		})
	}

	assert.Equal(t, "1970-01-01T00:00:11.5 TAI", TAI(10, 1500000000).String())
	assert.True(t, TAI(10, 999999999).Before(TAI(10, 1000000000)))
}

func TestMalformedInstant(t *testing.T) {
	tbl := builtin(t)
	sec := utcOf(t, "2000-01-01T00:00:00Z").Sec

	_, err := UTCToTAI(Instant{Scale: ScaleUTC, Sec: sec, Nsec: 1500000000}, tbl)
	assert.ErrorIs(t, err, ErrInstant)
	_, err = TAIToUTC(Instant{Scale: ScaleTAI, Sec: sec, Nsec: -1}, tbl)
	assert.ErrorIs(t, err, ErrInstant)
}
