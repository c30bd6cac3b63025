package shift

import (
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
)

// DefaultGracePeriodMinutes applies when a shift is created without a grace period.
const DefaultGracePeriodMinutes = 5

type ShiftDefinition struct {
	ID                 string
	Name               string
	Times              SlotTimes
	GracePeriodMinutes int
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Weekdays  []Weekday
	Overrides []DayOverride
}

// SlotTimes holds the required clock time for each of the four daily punches.
type SlotTimes struct {
	MorningIn    timeliteral.Clock
	MorningOut   timeliteral.Clock
	AfternoonIn  timeliteral.Clock
	AfternoonOut timeliteral.Clock
}

// DayOverride replaces some or all of a shift's base values on one weekday.
// Nil fields fall back to the base definition.
type DayOverride struct {
	ID                 string
	ShiftID            string
	Weekday            Weekday
	MorningIn          *timeliteral.Clock
	MorningOut         *timeliteral.Clock
	AfternoonIn        *timeliteral.Clock
	AfternoonOut       *timeliteral.Clock
	GracePeriodMinutes *int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// WeekdayRule is what the store knows about one (shift, weekday) pair.
type WeekdayRule struct {
	Shift      ShiftDefinition
	Associated bool
	Override   *DayOverride
}

// Allotment binds an employee to a shift over [EffectiveFrom, EffectiveTo].
// A nil EffectiveTo is open-ended.
type Allotment struct {
	ID            string
	EmployeeID    string
	ShiftID       string
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Covers reports whether date falls inside the allotment's range.
func (a Allotment) Covers(date time.Time) bool {
	d := timeliteral.DateOf(date)
	if d.Before(a.EffectiveFrom) {
		return false
	}
	return a.EffectiveTo == nil || !d.After(*a.EffectiveTo)
}

// ResolvedShift is the effective window for one employee on one date, after
// per-day overrides have been applied.
type ResolvedShift struct {
	ShiftID            string
	ShiftName          string
	AllotmentID        string
	Date               time.Time
	Weekday            Weekday
	Times              SlotTimes
	GracePeriodMinutes int
	Overridden         bool
}

// Weekday numbers days Monday=1 through Sunday=7.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = map[string]Weekday{
	"monday": Monday, "mon": Monday,
	"tuesday": Tuesday, "tue": Tuesday,
	"wednesday": Wednesday, "wed": Wednesday,
	"thursday": Thursday, "thu": Thursday,
	"friday": Friday, "fri": Friday,
	"saturday": Saturday, "sat": Saturday,
	"sunday": Sunday, "sun": Sunday,
}

// WeekdayOf maps time.Weekday (Sunday=0) onto the Monday=1..Sunday=7 scale.
func WeekdayOf(t time.Time) Weekday {
	wd := int(t.Weekday())
	if wd == 0 {
		return Sunday
	}
	return Weekday(wd)
}

// ParseWeekday accepts 1-7, 0 (Sunday) or an English day name in any case.
func ParseWeekday(v any) (Weekday, bool) {
	switch d := v.(type) {
	case Weekday:
		return normalizeWeekday(int(d))
	case int:
		return normalizeWeekday(d)
	case float64:
		if d != float64(int(d)) {
			return 0, false
		}
		return normalizeWeekday(int(d))
	case string:
		s := strings.ToLower(strings.TrimSpace(d))
		if wd, ok := weekdayNames[s]; ok {
			return wd, true
		}
		if n, err := strconv.Atoi(s); err == nil {
			return normalizeWeekday(n)
		}
	}
	return 0, false
}

func normalizeWeekday(n int) (Weekday, bool) {
	if n == 0 {
		return Sunday, true
	}
	if n < 1 || n > 7 {
		return 0, false
	}
	return Weekday(n), true
}

// ParseWeekdays keeps the recognised values, deduplicated and sorted.
// Unknown values are dropped.
func ParseWeekdays(values []any) []Weekday {
	var seen [8]bool
	for _, v := range values {
		if wd, ok := ParseWeekday(v); ok {
			seen[wd] = true
		}
	}
	out := make([]Weekday, 0, 7)
	for wd := Monday; wd <= Sunday; wd++ {
		if seen[wd] {
			out = append(out, wd)
		}
	}
	return out
}

func (w Weekday) String() string {
	if w < Monday || w > Sunday {
		return "Weekday(" + strconv.Itoa(int(w)) + ")"
	}
	// time.Weekday counts from Sunday=0.
	return time.Weekday(int(w) % 7).String()
}
