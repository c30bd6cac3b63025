// Package timeliteral normalizes the time-of-day shapes that punch clients send
// (kiosk clock objects, browser time inputs, ISO datetimes) into a canonical
// zero-padded "HH:MM:SS" literal.
package timeliteral

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical wire format for time-of-day values.
const Layout = "15:04:05"

// ClockValue is any structured value exposing wall-clock fields.
// time.Time and Clock both satisfy it.
type ClockValue interface {
	Hour() int
	Minute() int
	Second() int
}

// Clock is a validated time of day with second precision.
type Clock struct {
	hour   int
	minute int
	second int
}

// New builds a Clock, reporting false when any field is out of range.
func New(hour, minute, second int) (Clock, bool) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return Clock{}, false
	}
	return Clock{hour: hour, minute: minute, second: second}, true
}

// MustParse is like ParseString but panics on invalid input. Intended for
// fixtures and tests.
func MustParse(s string) Clock {
	c, ok := Parse(s)
	if !ok {
		panic(fmt.Sprintf("timeliteral: invalid time %q", s))
	}
	return c
}

// FromTime takes the wall-clock fields of t literally, ignoring its location.
func FromTime(t time.Time) Clock {
	return Clock{hour: t.Hour(), minute: t.Minute(), second: t.Second()}
}

func (c Clock) Hour() int   { return c.hour }
func (c Clock) Minute() int { return c.minute }
func (c Clock) Second() int { return c.second }

// Seconds returns the number of seconds since midnight.
func (c Clock) Seconds() int {
	return c.hour*3600 + c.minute*60 + c.second
}

// String renders the canonical HH:MM:SS form.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.hour, c.minute, c.second)
}

// On places the clock on the calendar date of d, in d's location.
func (c Clock) On(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), c.hour, c.minute, c.second, 0, d.Location())
}

// MinutesSince returns c - other in whole minutes, truncated toward zero.
// The result is negative when c is earlier than other.
func (c Clock) MinutesSince(other Clock) int {
	return (c.Seconds() - other.Seconds()) / 60
}

// Before reports whether c is strictly earlier than other.
func (c Clock) Before(other Clock) bool {
	return c.Seconds() < other.Seconds()
}

var (
	isoFragment = regexp.MustCompile(`T(\d{2}):(\d{2})(?::(\d{2})(?:\.\d+)?)?(?:$|[^\d:.])`)
	twelveHour  = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp][Mm])$`)
	twentyFour  = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2})(?:\.\d+)?)?$`)
)

// Parse normalizes input into a Clock. Accepted inputs, in priority order:
//
//  1. a structured clock value (Clock, time.Time, *time.Time, ClockValue, or a
//     decoded JSON object with "hour", "minute" and optional "second")
//  2. a string containing an ISO fragment "THH:MM[:SS]", read literally with no
//     timezone conversion; the fragment must end the string or be followed by
//     a zone designator
//  3. a 12-hour string "H:MM[:SS] AM|PM"
//  4. a 24-hour string "H:MM[:SS]"
//
// Anything else, or any field out of range, reports false.
func Parse(input any) (Clock, bool) {
	switch v := input.(type) {
	case nil:
		return Clock{}, false
	case Clock:
		return New(v.hour, v.minute, v.second)
	case *Clock:
		if v == nil {
			return Clock{}, false
		}
		return New(v.hour, v.minute, v.second)
	case *time.Time:
		if v == nil {
			return Clock{}, false
		}
		return FromTime(*v), true
	case string:
		return parseString(v)
	case *string:
		if v == nil {
			return Clock{}, false
		}
		return parseString(*v)
	case []byte:
		return parseString(string(v))
	case map[string]any:
		return fromFields(v)
	case ClockValue:
		return New(v.Hour(), v.Minute(), v.Second())
	}
	return Clock{}, false
}

// ParseString returns the canonical HH:MM:SS literal for s.
func ParseString(s string) (string, bool) {
	c, ok := parseString(s)
	if !ok {
		return "", false
	}
	return c.String(), true
}

func parseString(raw string) (Clock, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Clock{}, false
	}

	if m := isoFragment.FindStringSubmatch(s); m != nil {
		return fromParts(m[1], m[2], m[3])
	}

	if m := twelveHour.FindStringSubmatch(s); m != nil {
		h, err := strconv.Atoi(m[1])
		if err != nil || h < 1 || h > 12 {
			return Clock{}, false
		}
		pm := strings.EqualFold(m[4], "pm")
		switch {
		case h == 12 && !pm:
			h = 0
		case h != 12 && pm:
			h += 12
		}
		return fromParts(strconv.Itoa(h), m[2], m[3])
	}

	if m := twentyFour.FindStringSubmatch(s); m != nil {
		return fromParts(m[1], m[2], m[3])
	}

	return Clock{}, false
}

func fromParts(hs, ms, ss string) (Clock, bool) {
	h, err := strconv.Atoi(hs)
	if err != nil {
		return Clock{}, false
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		return Clock{}, false
	}
	sec := 0
	if ss != "" {
		sec, err = strconv.Atoi(ss)
		if err != nil {
			return Clock{}, false
		}
	}
	return New(h, m, sec)
}

func fromFields(m map[string]any) (Clock, bool) {
	h, ok := wholeNumber(m["hour"])
	if !ok {
		return Clock{}, false
	}
	min, ok := wholeNumber(m["minute"])
	if !ok {
		return Clock{}, false
	}
	sec := 0
	if raw, present := m["second"]; present {
		if sec, ok = wholeNumber(raw); !ok {
			return Clock{}, false
		}
	}
	return New(h, min, sec)
}

func wholeNumber(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using the same rules as Parse.
func (c *Clock) UnmarshalText(b []byte) error {
	parsed, ok := parseString(string(b))
	if !ok {
		return fmt.Errorf("timeliteral: invalid time %q", string(b))
	}
	*c = parsed
	return nil
}
