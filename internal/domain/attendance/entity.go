package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
)

// Record is the single attendance row per (employee, date). It is created on
// the first punch of the day and updated by every later punch.
type Record struct {
	ID                string
	EmployeeID        string
	Date              time.Time
	ShiftID           *string
	MorningIn         *timeliteral.Clock
	MorningOut        *timeliteral.Clock
	AfternoonIn       *timeliteral.Clock
	AfternoonOut      *timeliteral.Clock
	MinutesLate       int
	MinutesEarlyLeave int
	Status            Status
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Punch returns the captured time for slot, nil when not yet punched.
func (r Record) Punch(slot LogType) *timeliteral.Clock {
	switch slot {
	case LogTypeMorningIn:
		return r.MorningIn
	case LogTypeMorningOut:
		return r.MorningOut
	case LogTypeAfternoonIn:
		return r.AfternoonIn
	case LogTypeAfternoonOut:
		return r.AfternoonOut
	}
	return nil
}

// SetPunch stores at into slot, overwriting any earlier value.
func (r *Record) SetPunch(slot LogType, at timeliteral.Clock) {
	switch slot {
	case LogTypeMorningIn:
		r.MorningIn = &at
	case LogTypeMorningOut:
		r.MorningOut = &at
	case LogTypeAfternoonIn:
		r.AfternoonIn = &at
	case LogTypeAfternoonOut:
		r.AfternoonOut = &at
	}
}

// IsEmpty reports whether no punch has been captured.
func (r Record) IsEmpty() bool {
	return r.MorningIn == nil && r.MorningOut == nil && r.AfternoonIn == nil && r.AfternoonOut == nil
}

// NextSlot walks the fixed punch sequence and returns the first empty slot.
// ok is false once all four punches are captured.
func (r Record) NextSlot() (LogType, bool) {
	for _, slot := range LogTypeSequence {
		if r.Punch(slot) == nil {
			return slot, true
		}
	}
	return "", false
}

type LogType string

const (
	LogTypeMorningIn    LogType = "MORNING_IN"
	LogTypeMorningOut   LogType = "MORNING_OUT"
	LogTypeAfternoonIn  LogType = "AFTERNOON_IN"
	LogTypeAfternoonOut LogType = "AFTERNOON_OUT"
)

// LogTypeSequence is the order in which the auto-detect path fills slots.
var LogTypeSequence = []LogType{
	LogTypeMorningIn,
	LogTypeMorningOut,
	LogTypeAfternoonIn,
	LogTypeAfternoonOut,
}

// ParseLogType accepts the four slot names case-insensitively.
func ParseLogType(s string) (LogType, error) {
	lt := LogType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range LogTypeSequence {
		if lt == known {
			return lt, nil
		}
	}
	return "", ErrInvalidLogType
}

// IsEntry reports whether the slot starts a work segment.
func (lt LogType) IsEntry() bool {
	return lt == LogTypeMorningIn || lt == LogTypeAfternoonIn
}

type Status string

const (
	StatusOnTime     Status = "On-Time"
	StatusLate       Status = "Late"
	StatusEarlyLeave Status = "Early Leave"
	StatusPresent    Status = "Present"
	StatusAbsent     Status = "Absent"
)

// SlotClass is the display classification of one punch slot.
type SlotClass string

const (
	SlotAbsent   SlotClass = "Absent"
	SlotMissing  SlotClass = "Missing"
	SlotEarlyIn  SlotClass = "Early-In"
	SlotEarlyOut SlotClass = "Early-Out"
	SlotLate     SlotClass = "Late"
	SlotLateOut  SlotClass = "Late-Out"
	SlotOnTime   SlotClass = "On-Time"
	SlotNoShift  SlotClass = "No Shift"
)
