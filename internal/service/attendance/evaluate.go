package attendance

import (
	"math"
	"strings"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/flexi-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/flexi-attendance/internal/domain/shift"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
)

// Evaluation is the effect of one punch. Status is empty for slots that only
// record a time.
type Evaluation struct {
	MinutesLate  int
	MinutesEarly int
	Status       attendance.Status
}

// Evaluate scores a punch against the resolved shift. Lateness is only
// measured on MORNING_IN (after grace) and early leave only on AFTERNOON_OUT
// (no grace).
func Evaluate(slot attendance.LogType, actual timeliteral.Clock, rs shift.ResolvedShift) Evaluation {
	switch slot {
	case attendance.LogTypeMorningIn:
		late := max(0, actual.MinutesSince(rs.Times.MorningIn)-rs.GracePeriodMinutes)
		if late > 0 {
			return Evaluation{MinutesLate: late, Status: attendance.StatusLate}
		}
		return Evaluation{Status: attendance.StatusOnTime}

	case attendance.LogTypeAfternoonOut:
		early := max(0, rs.Times.AfternoonOut.MinutesSince(actual))
		if early > 0 {
			return Evaluation{MinutesEarly: early, Status: attendance.StatusEarlyLeave}
		}
		return Evaluation{Status: attendance.StatusOnTime}
	}
	return Evaluation{}
}

// Apply stores the punch on rec and folds the evaluation into its running
// totals. The latest computed status wins.
func Apply(rec *attendance.Record, slot attendance.LogType, actual timeliteral.Clock, rs shift.ResolvedShift) Evaluation {
	ev := Evaluate(slot, actual, rs)
	rec.SetPunch(slot, actual)
	rec.MinutesLate += ev.MinutesLate
	rec.MinutesEarlyLeave += ev.MinutesEarly
	if ev.Status != "" {
		rec.Status = ev.Status
	}
	return ev
}

func requiredTime(times shift.SlotTimes, slot attendance.LogType) timeliteral.Clock {
	switch slot {
	case attendance.LogTypeMorningOut:
		return times.MorningOut
	case attendance.LogTypeAfternoonIn:
		return times.AfternoonIn
	case attendance.LogTypeAfternoonOut:
		return times.AfternoonOut
	default:
		return times.MorningIn
	}
}

// ClassifySlot labels one captured punch against its required time, with the
// grace window applied on both sides.
func ClassifySlot(slot attendance.LogType, actual *timeliteral.Clock, required timeliteral.Clock, grace int) attendance.SlotClass {
	if actual == nil {
		return attendance.SlotMissing
	}

	diff := actual.MinutesSince(required)
	if slot.IsEntry() {
		switch {
		case diff > grace:
			return attendance.SlotLate
		case diff < -grace:
			return attendance.SlotEarlyIn
		}
		return attendance.SlotOnTime
	}

	switch {
	case diff < -grace:
		return attendance.SlotEarlyOut
	case diff > grace:
		return attendance.SlotLateOut
	}
	return attendance.SlotOnTime
}

// Summarize derives the display view of one employee-day. rec and rs may each
// be nil.
func Summarize(emp employee.Employee, date time.Time, rec *attendance.Record, rs *shift.ResolvedShift) attendance.DailySummary {
	summary := attendance.DailySummary{
		EmployeeID:   emp.ID,
		EmployeeCode: emp.Code,
		EmployeeName: emp.FullName(),
		Date:         timeliteral.FormatDate(date),
		Slots:        make([]attendance.SlotSummary, 0, len(attendance.LogTypeSequence)),
		Status:       attendance.StatusAbsent,
	}
	if rs != nil {
		summary.ShiftID = &rs.ShiftID
		summary.ShiftName = &rs.ShiftName
	}

	empty := rec == nil || rec.IsEmpty()
	if rec != nil {
		summary.MinutesLate = rec.MinutesLate
		summary.MinutesEarlyLeave = rec.MinutesEarlyLeave
		summary.Status = rec.Status
		summary.DutyMinutes = DutyMinutes(*rec)
		summary.DutyHours = hours(summary.DutyMinutes)
	}

	var late, earlyOut bool
	for _, slot := range attendance.LogTypeSequence {
		s := attendance.SlotSummary{LogType: slot}
		var actual *timeliteral.Clock
		if rec != nil {
			actual = rec.Punch(slot)
		}
		if actual != nil {
			v := actual.String()
			s.Actual = &v
		}

		switch {
		case rs == nil:
			s.Class = attendance.SlotNoShift
		case empty:
			s.Class = attendance.SlotAbsent
		default:
			s.Class = ClassifySlot(slot, actual, requiredTime(rs.Times, slot), rs.GracePeriodMinutes)
		}
		if rs != nil {
			v := requiredTime(rs.Times, slot).String()
			s.Required = &v
		}

		late = late || (slot.IsEntry() && s.Class == attendance.SlotLate)
		earlyOut = earlyOut || (!slot.IsEntry() && s.Class == attendance.SlotEarlyOut)
		summary.Slots = append(summary.Slots, s)
	}

	switch {
	case empty:
		summary.Summary = string(attendance.StatusAbsent)
	case late:
		summary.Summary = string(attendance.StatusLate)
	case earlyOut:
		summary.Summary = string(attendance.StatusEarlyLeave)
	case rec.Status != "":
		summary.Summary = string(rec.Status)
	default:
		summary.Summary = string(attendance.StatusPresent)
	}

	return summary
}

// DutyMinutes sums the morning and afternoon segments whose out is after in,
// counted in whole minutes.
func DutyMinutes(rec attendance.Record) int {
	total := 0
	for _, seg := range [][2]*timeliteral.Clock{
		{rec.MorningIn, rec.MorningOut},
		{rec.AfternoonIn, rec.AfternoonOut},
	} {
		in, out := seg[0], seg[1]
		if in == nil || out == nil {
			continue
		}
		if d := out.Seconds()/60 - in.Seconds()/60; d > 0 {
			total += d
		}
	}
	return total
}

func hours(minutes int) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}

// Tally counts report rows by their summary label. A row may land in more
// than one bucket ("Late" and "Late-Out" both contain "late").
func Tally(rows []attendance.DailySummary) attendance.ReportTotals {
	totals := attendance.ReportTotals{Total: len(rows)}
	for _, row := range rows {
		label := row.Summary
		if label == "" {
			label = string(row.Status)
		}
		s := strings.ToLower(label)

		if strings.Contains(s, "late") {
			totals.Late++
		}
		if strings.Contains(s, "early leave") || strings.Contains(s, "early-out") {
			totals.Early++
		}
		if strings.Contains(s, "absent") {
			totals.Absent++
		}
		if strings.Contains(s, "on-time") || s == "on time" || s == "present" {
			totals.OnTime++
		}
	}
	return totals
}
