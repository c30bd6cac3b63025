package attendance

import (
	"testing"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/flexi-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/flexi-attendance/internal/domain/shift"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func officeShift(grace int) shift.ResolvedShift {
	return shift.ResolvedShift{
		ShiftID:   "office",
		ShiftName: "Office",
		Times: shift.SlotTimes{
			MorningIn:    timeliteral.MustParse("08:00:00"),
			MorningOut:   timeliteral.MustParse("12:00:00"),
			AfternoonIn:  timeliteral.MustParse("13:00:00"),
			AfternoonOut: timeliteral.MustParse("17:00:00"),
		},
		GracePeriodMinutes: grace,
	}
}

func clockPtr(s string) *timeliteral.Clock {
	c := timeliteral.MustParse(s)
	return &c
}

func TestEvaluate(t *testing.T) {
	rs := officeShift(5)

	cases := []struct {
		name   string
		slot   attendance.LogType
		actual string
		want   Evaluation
	}{
		{"late beyond grace", attendance.LogTypeMorningIn, "08:10:00", Evaluation{MinutesLate: 5, Status: attendance.StatusLate}},
		{"within grace", attendance.LogTypeMorningIn, "08:03:00", Evaluation{Status: attendance.StatusOnTime}},
		{"grace boundary", attendance.LogTypeMorningIn, "08:05:59", Evaluation{Status: attendance.StatusOnTime}},
		{"early arrival", attendance.LogTypeMorningIn, "07:30:00", Evaluation{Status: attendance.StatusOnTime}},
		{"early leave has no grace", attendance.LogTypeAfternoonOut, "16:58:00", Evaluation{MinutesEarly: 2, Status: attendance.StatusEarlyLeave}},
		{"leave on time", attendance.LogTypeAfternoonOut, "17:00:00", Evaluation{Status: attendance.StatusOnTime}},
		{"leave late", attendance.LogTypeAfternoonOut, "18:30:00", Evaluation{Status: attendance.StatusOnTime}},
		{"lunch out is recorded only", attendance.LogTypeMorningOut, "11:00:00", Evaluation{}},
		{"lunch in is recorded only", attendance.LogTypeAfternoonIn, "14:00:00", Evaluation{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.slot, timeliteral.MustParse(tc.actual), rs)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestApply_AccumulatesAndOverwritesStatus(t *testing.T) {
	rs := officeShift(5)
	rec := attendance.Record{Status: attendance.StatusPresent}

	Apply(&rec, attendance.LogTypeMorningIn, timeliteral.MustParse("08:10:00"), rs)
	assert.Equal(t, 5, rec.MinutesLate)
	assert.Equal(t, attendance.StatusLate, rec.Status)

	Apply(&rec, attendance.LogTypeMorningOut, timeliteral.MustParse("12:00:00"), rs)
	assert.Equal(t, attendance.StatusLate, rec.Status, "recording-only slots keep the status")

	Apply(&rec, attendance.LogTypeMorningIn, timeliteral.MustParse("08:20:00"), rs)
	assert.Equal(t, 20, rec.MinutesLate, "a repeated punch adds to the total")
	assert.Equal(t, "08:20:00", rec.MorningIn.String())

	Apply(&rec, attendance.LogTypeAfternoonOut, timeliteral.MustParse("17:05:00"), rs)
	assert.Equal(t, attendance.StatusOnTime, rec.Status, "latest computed status wins")
	assert.Equal(t, 0, rec.MinutesEarlyLeave)
}

func TestClassifySlot(t *testing.T) {
	required := timeliteral.MustParse("08:00:00")

	cases := []struct {
		slot   attendance.LogType
		actual *timeliteral.Clock
		want   attendance.SlotClass
	}{
		{attendance.LogTypeMorningIn, nil, attendance.SlotMissing},
		{attendance.LogTypeMorningIn, clockPtr("08:05:00"), attendance.SlotOnTime},
		{attendance.LogTypeMorningIn, clockPtr("08:06:00"), attendance.SlotLate},
		{attendance.LogTypeMorningIn, clockPtr("07:54:00"), attendance.SlotEarlyIn},
		{attendance.LogTypeAfternoonIn, clockPtr("07:55:00"), attendance.SlotOnTime},
		{attendance.LogTypeMorningOut, clockPtr("07:54:00"), attendance.SlotEarlyOut},
		{attendance.LogTypeAfternoonOut, clockPtr("08:06:00"), attendance.SlotLateOut},
		{attendance.LogTypeAfternoonOut, clockPtr("08:05:00"), attendance.SlotOnTime},
	}

	for _, tc := range cases {
		got := ClassifySlot(tc.slot, tc.actual, required, 5)
		assert.Equal(t, tc.want, got, "%s at %v", tc.slot, tc.actual)
	}
}

func TestSummarize_Precedence(t *testing.T) {
	emp := employee.Employee{ID: "e1", Code: "E1", FirstName: "Ayu"}
	day := timeliteral.DateOf(mustDate("2024-01-08"))
	rs := officeShift(5)

	t.Run("no record is absent", func(t *testing.T) {
		s := Summarize(emp, day, nil, &rs)
		assert.Equal(t, "Absent", s.Summary)
		for _, slot := range s.Slots {
			assert.Equal(t, attendance.SlotAbsent, slot.Class)
			require.NotNil(t, slot.Required)
		}
	})

	t.Run("empty day without shift is still absent", func(t *testing.T) {
		s := Summarize(emp, day, &attendance.Record{Status: attendance.StatusPresent}, nil)
		assert.Equal(t, "Absent", s.Summary)
		assert.Equal(t, attendance.SlotNoShift, s.Slots[0].Class)
	})

	t.Run("late entry beats early exit", func(t *testing.T) {
		rec := attendance.Record{
			AfternoonIn:  clockPtr("13:30:00"),
			AfternoonOut: clockPtr("16:00:00"),
			Status:       attendance.StatusEarlyLeave,
		}
		s := Summarize(emp, day, &rec, &rs)
		assert.Equal(t, "Late", s.Summary)
		assert.Equal(t, attendance.SlotMissing, s.Slots[0].Class)
		assert.Equal(t, attendance.SlotLate, s.Slots[2].Class)
		assert.Equal(t, attendance.SlotEarlyOut, s.Slots[3].Class)
	})

	t.Run("early exit", func(t *testing.T) {
		rec := attendance.Record{
			MorningIn:  clockPtr("08:00:00"),
			MorningOut: clockPtr("11:00:00"),
			Status:     attendance.StatusOnTime,
		}
		assert.Equal(t, "Early Leave", Summarize(emp, day, &rec, &rs).Summary)
	})

	t.Run("falls back to stored status", func(t *testing.T) {
		rec := attendance.Record{MorningIn: clockPtr("08:00:00"), Status: attendance.StatusOnTime}
		assert.Equal(t, "On-Time", Summarize(emp, day, &rec, &rs).Summary)

		rec.Status = ""
		assert.Equal(t, "Present", Summarize(emp, day, &rec, &rs).Summary)
	})

	t.Run("record without shift keeps status", func(t *testing.T) {
		rec := attendance.Record{MorningIn: clockPtr("09:00:00"), Status: attendance.StatusLate}
		s := Summarize(emp, day, &rec, nil)
		assert.Equal(t, "Late", s.Summary)
		assert.Nil(t, s.ShiftName)
		assert.Nil(t, s.Slots[0].Required)
	})
}

func TestDutyMinutes(t *testing.T) {
	full := attendance.Record{
		MorningIn:    clockPtr("08:00:00"),
		MorningOut:   clockPtr("12:00:00"),
		AfternoonIn:  clockPtr("13:00:00"),
		AfternoonOut: clockPtr("17:00:00"),
	}
	assert.Equal(t, 480, DutyMinutes(full))
	assert.Equal(t, 8.0, hours(DutyMinutes(full)))

	inverted := attendance.Record{
		MorningIn:   clockPtr("12:00:00"),
		MorningOut:  clockPtr("08:00:00"),
		AfternoonIn: clockPtr("13:00:00"),
	}
	assert.Equal(t, 0, DutyMinutes(inverted))

	assert.Equal(t, 0.83, hours(50))
}

func TestTally(t *testing.T) {
	rows := []attendance.DailySummary{
		{Summary: "Late"},
		{Summary: "On-Time"},
		{Summary: "Present"},
		{Summary: "Early Leave"},
		{Summary: "Absent"},
		{Status: attendance.StatusOnTime},
	}
	assert.Equal(t, attendance.ReportTotals{Total: 6, Late: 1, OnTime: 3, Early: 1, Absent: 1}, Tally(rows))
}
