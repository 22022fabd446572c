package source

import (
	"bufio"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/karasz/gtleap/leapsecs"
)

// Format selects the bulletin dialect.
type Format int

const (
	// FormatIETF is the NIST/IETF leap-seconds.list: NTP seconds and
	// TAI-UTC per line, "#@" expiration, "#$" update time, "#h" hash.
	FormatIETF Format = iota
	// FormatTZDB is the tz database leapseconds file: "Leap" lines with
	// the inserted or removed second and an "Expires" line.
	FormatTZDB
	// FormatDated holds "YYYY-MM-DD offset YYYY-MM-DD" triples where the
	// last field is the expiration date.
	FormatDated
)

var formatNames = map[Format]string{
	FormatIETF:  "ietf",
	FormatTZDB:  "tzdb",
	FormatDated: "dated",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, error) {
	for f, n := range formatNames {
		if strings.EqualFold(n, name) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown bulletin format %q (want ietf, tzdb or dated)", name)
}

// ntpEpochOffset is the number of seconds between 1900-01-01 and 1970-01-01.
const ntpEpochOffset = 2208988800

// tzdbInitialOffset is TAI-UTC on 1972-01-01, which tzdb files leave implicit.
const tzdbInitialOffset = 10

// Bulletin reads a line-oriented leap second file from R.
// A malformed data line fails the whole load.
type Bulletin struct {
	R      io.Reader
	Format Format
	// VerifyHash checks the "#h" SHA-1 line of IETF lists.
	VerifyHash bool
}

// ParseError locates a malformed bulletin line.
type ParseError struct {
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: line %d: %s: %q", leapsecs.ErrInvalidTable, e.Line, e.Msg, e.Text)
}

// Unwrap lets errors.Is match leapsecs.ErrInvalidTable.
func (e *ParseError) Unwrap() error {
	return leapsecs.ErrInvalidTable
}

// Records parses the bulletin.
func (b Bulletin) Records() (Raw, error) {
	if b.R == nil {
		return Raw{}, errors.New("bulletin without a reader")
	}
	switch b.Format {
	case FormatIETF:
		return b.parseIETF()
	case FormatTZDB:
		return parseTZDB(b.R)
	case FormatDated:
		return parseDated(b.R)
	default:
		return Raw{}, fmt.Errorf("unsupported bulletin format %v", b.Format)
	}
}

// scanLines calls fn with every line and its 1-based number.
func scanLines(r io.Reader, fn func(n int, line string) error) error {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		if err := fn(n, sc.Text()); err != nil {
			return err
		}
	}
	return sc.Err()
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

func (b Bulletin) parseIETF() (Raw, error) {
	var (
		raw             Raw
		updated, expiry string
		hashLine        string
		hashLineNo      int
		digest          = sha1.New()
		data            []string
	)
	err := scanLines(b.R, func(n int, line string) error {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#$"):
			updated = strings.TrimSpace(trimmed[2:])
			if _, err := strconv.ParseInt(updated, 10, 64); err != nil {
				return &ParseError{Line: n, Text: line, Msg: "bad update time"}
			}
			return nil
		case strings.HasPrefix(trimmed, "#@"):
			expiry = strings.TrimSpace(trimmed[2:])
			sec, err := strconv.ParseInt(expiry, 10, 64)
			if err != nil {
				return &ParseError{Line: n, Text: line, Msg: "bad expiration time"}
			}
			raw.Expires = time.Unix(sec-ntpEpochOffset, 0).UTC()
			return nil
		case strings.HasPrefix(trimmed, "#h"):
			hashLine, hashLineNo = strings.TrimSpace(trimmed[2:]), n
			return nil
		}

		fields := strings.Fields(stripComment(line))
		if len(fields) == 0 {
			return nil
		}
		if len(fields) != 2 {
			return &ParseError{Line: n, Text: line, Msg: "want NTP time and offset"}
		}
		sec, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return &ParseError{Line: n, Text: line, Msg: "bad NTP time"}
		}
		off, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return &ParseError{Line: n, Text: line, Msg: "bad offset"}
		}
		raw.Records = append(raw.Records, Record{Date: time.Unix(sec-ntpEpochOffset, 0).UTC(), Offset: off})
		data = append(data, fields[0], fields[1])
		return nil
	})
	if err != nil {
		return Raw{}, err
	}
	if expiry == "" {
		return Raw{}, errors.New("leap-seconds.list has no #@ expiration line")
	}
	if b.VerifyHash {
		if hashLine == "" {
			return Raw{}, errors.New("leap-seconds.list has no #h hash line")
		}
		_, _ = io.WriteString(digest, updated)
		_, _ = io.WriteString(digest, expiry)
		for _, d := range data {
			_, _ = io.WriteString(digest, d)
		}
		if !hashMatches(hashLine, digest.Sum(nil)) {
			return Raw{}, &ParseError{Line: hashLineNo, Text: hashLine, Msg: "hash mismatch"}
		}
	}
	return raw, nil
}

// hashMatches compares the five 32-bit words of a "#h" line with sum.
// Words may be printed without leading zeros.
func hashMatches(line string, sum []byte) bool {
	words := strings.Fields(line)
	if len(words) != 5 || len(sum) != 20 {
		return false
	}
	for i, w := range words {
		v, err := strconv.ParseUint(w, 16, 32)
		if err != nil {
			return false
		}
		if fmt.Sprintf("%08x", v) != hex.EncodeToString(sum[i*4:i*4+4]) {
			return false
		}
	}
	return true
}

var tzdbMonths = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// tzdbTime parses "YEAR MON DAY HH:MM:SS" fields. Second 60 is folded onto
// 59; the returned flag reports that it was 60.
func tzdbTime(fields []string) (time.Time, bool, error) {
	year, err := strconv.Atoi(fields[0])
	if err != nil {
		return time.Time{}, false, errors.New("bad year")
	}
	month, ok := tzdbMonths[fields[1]]
	if !ok {
		return time.Time{}, false, errors.New("bad month")
	}
	day, err := strconv.Atoi(fields[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false, errors.New("bad day")
	}
	hms := strings.Split(fields[3], ":")
	if len(hms) != 3 {
		return time.Time{}, false, errors.New("bad time of day")
	}
	var v [3]int
	for i, s := range hms {
		if v[i], err = strconv.Atoi(s); err != nil {
			return time.Time{}, false, errors.New("bad time of day")
		}
	}
	if v[0] > 23 || v[1] > 59 || v[2] > 60 || v[0] < 0 || v[1] < 0 || v[2] < 0 {
		return time.Time{}, false, errors.New("bad time of day")
	}
	leap := v[2] == 60
	if leap {
		v[2] = 59
	}
	t := time.Date(year, month, day, v[0], v[1], v[2], 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false, errors.New("bad day")
	}
	return t, leap, nil
}

func parseTZDB(r io.Reader) (Raw, error) {
	raw := Raw{
		Records: []Record{{Date: date(1972, time.January, 1), Offset: tzdbInitialOffset}},
		Epoch:   date(1972, time.January, 1),
	}
	var commentExpiry time.Time
	offset := int64(tzdbInitialOffset)

	err := scanLines(r, func(n int, line string) error {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#expires") {
			fields := strings.Fields(trimmed)
			if len(fields) < 2 {
				return &ParseError{Line: n, Text: line, Msg: "bad #expires comment"}
			}
			sec, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return &ParseError{Line: n, Text: line, Msg: "bad #expires comment"}
			}
			// Current tzdata writes POSIX seconds, older releases NTP ones.
			if sec >= ntpEpochOffset {
				sec -= ntpEpochOffset
			}
			commentExpiry = time.Unix(sec, 0).UTC()
			return nil
		}

		fields := strings.Fields(stripComment(line))
		if len(fields) == 0 {
			return nil
		}
		switch fields[0] {
		case "Leap":
			if len(fields) != 7 {
				return &ParseError{Line: n, Text: line, Msg: "want 7 fields in Leap line"}
			}
			t, sixty, err := tzdbTime(fields[1:5])
			if err != nil {
				return &ParseError{Line: n, Text: line, Msg: err.Error()}
			}
			if fields[6] != "S" && fields[6] != "R" {
				return &ParseError{Line: n, Text: line, Msg: "want S or R"}
			}
			switch fields[5] {
			case "+":
				offset++
			case "-":
				if sixty {
					return &ParseError{Line: n, Text: line, Msg: "removed second cannot be :60"}
				}
				offset--
			default:
				return &ParseError{Line: n, Text: line, Msg: "want + or -"}
			}
			// The new offset takes effect at the second following the
			// listed one.
			raw.Records = append(raw.Records, Record{Date: t.Add(time.Second), Offset: offset})
		case "Expires":
			if len(fields) != 5 {
				return &ParseError{Line: n, Text: line, Msg: "want 5 fields in Expires line"}
			}
			t, _, err := tzdbTime(fields[1:5])
			if err != nil {
				return &ParseError{Line: n, Text: line, Msg: err.Error()}
			}
			raw.Expires = t
		default:
			return &ParseError{Line: n, Text: line, Msg: "unknown directive"}
		}
		return nil
	})
	if err != nil {
		return Raw{}, err
	}
	if raw.Expires.IsZero() {
		raw.Expires = commentExpiry
	}
	if raw.Expires.IsZero() {
		return Raw{}, errors.New("leapseconds file has no expiration")
	}
	return raw, nil
}

func parseDated(r io.Reader) (Raw, error) {
	var raw Raw
	err := scanLines(r, func(n int, line string) error {
		fields := strings.Fields(stripComment(line))
		if len(fields) == 0 {
			return nil
		}
		if len(fields) != 3 {
			return &ParseError{Line: n, Text: line, Msg: "want date, offset and expiration"}
		}
		d, err := time.Parse(time.DateOnly, fields[0])
		if err != nil {
			return &ParseError{Line: n, Text: line, Msg: "bad date"}
		}
		off, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return &ParseError{Line: n, Text: line, Msg: "bad offset"}
		}
		exp, err := time.Parse(time.DateOnly, fields[2])
		if err != nil {
			return &ParseError{Line: n, Text: line, Msg: "bad expiration"}
		}
		if !raw.Expires.IsZero() && !raw.Expires.Equal(exp) {
			return &ParseError{Line: n, Text: line, Msg: "expiration differs from previous lines"}
		}
		raw.Expires = exp
		raw.Records = append(raw.Records, Record{Date: d, Offset: off})
		return nil
	})
	if err != nil {
		return Raw{}, err
	}
	if raw.Expires.IsZero() {
		return Raw{}, errors.New("dated bulletin has no entries")
	}
	return raw, nil
}
