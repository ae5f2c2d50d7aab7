// Package window computes the calendar day a daily log covers and buckets
// source messages into it by hour.
package window

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// JST is the fixed +09:00 offset every window is cut in, regardless of the
// process' local timezone.
var JST = time.FixedZone("JST", 9*60*60)

const dateLayout = "2006-01-02"

// Target is one calendar day in a fixed offset, spanning
// [midnight, next midnight).
type Target struct {
	start time.Time
}

// Yesterday returns the day before now's calendar date in loc.
func Yesterday(now time.Time, loc *time.Location) Target {
	y, m, d := now.In(loc).Date()
	return Target{start: time.Date(y, m, d-1, 0, 0, 0, 0, loc)}
}

// ParseDate returns the window for a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (Target, error) {
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return Target{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Target{start: t}, nil
}

// Start returns midnight of the target day.
func (t Target) Start() time.Time { return t.start }

// End returns midnight of the following day, exclusive.
func (t Target) End() time.Time { return t.start.AddDate(0, 0, 1) }

// Location returns the fixed offset the window was cut in.
func (t Target) Location() *time.Location { return t.start.Location() }

// Contains reports whether ts falls on the target calendar date in the
// window's offset.
func (t Target) Contains(ts time.Time) bool {
	y, m, d := ts.In(t.start.Location()).Date()
	ty, tm, td := t.start.Date()
	return y == ty && m == tm && d == td
}

// String formats the target as YYYY-MM-DD.
func (t Target) String() string { return t.start.Format(dateLayout) }

var errNotFinite = errors.New("not a finite number")

// MalformedTimestampError is returned when a message timestamp is not a
// decimal number of seconds.
type MalformedTimestampError struct {
	Value string
	Err   error
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp %q: %v", e.Value, e.Err)
}

func (e *MalformedTimestampError) Unwrap() error { return e.Err }

// ParseTimestamp parses textual decimal seconds since epoch, truncating the
// fractional part toward zero.
func ParseTimestamp(ts string) (time.Time, error) {
	if !isDecimal(ts) {
		return time.Time{}, &MalformedTimestampError{
			Value: ts,
			Err:   &strconv.NumError{Func: "ParseFloat", Num: ts, Err: strconv.ErrSyntax},
		}
	}
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Time{}, &MalformedTimestampError{Value: ts, Err: err}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return time.Time{}, &MalformedTimestampError{Value: ts, Err: errNotFinite}
	}
	return time.Unix(int64(f), 0), nil
}

// isDecimal rejects the hex and underscore forms ParseFloat also accepts.
func isDecimal(s string) bool {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9', c == '.', c == 'e', c == 'E', c == '+', c == '-':
		default:
			return false
		}
	}
	return true
}
