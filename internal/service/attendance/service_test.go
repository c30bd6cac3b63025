package attendance

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/flexi-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/flexi-attendance/internal/domain/shift"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/audit"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/sse"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
	"github.com/cmlabs-hris/flexi-attendance/internal/repository/memory"
	shiftservice "github.com/cmlabs-hris/flexi-attendance/internal/service/shift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingEmitter) Emit(_ context.Context, ev audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

type fixture struct {
	repos   memory.Repositories
	svc     attendance.AttendanceService
	hub     *sse.Hub
	auditor *recordingEmitter
	empID   string
}

func mustDate(s string) time.Time {
	d, ok := timeliteral.ParseDate(s)
	if !ok {
		panic("bad date " + s)
	}
	return d
}

func at(date, clock string) time.Time {
	c := timeliteral.MustParse(clock)
	return c.On(mustDate(date))
}

// newFixture registers E1 on the Office shift (Mon-Fri, 08:00/12:00/13:00/17:00,
// grace 5) from 2024-01-01, and E2 with no shift.
func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	repos := memory.NewRepositories()
	shifts := shiftservice.NewShiftService(repos.Store, repos.Shifts, repos.Allotments, repos.Employees, nil, shiftservice.Options{})

	office, err := shifts.CreateShift(ctx, shift.CreateShiftRequest{
		Name:         "Office",
		MorningIn:    "08:00",
		MorningOut:   "12:00",
		AfternoonIn:  "13:00",
		AfternoonOut: "17:00",
		Weekdays:     []any{1, 2, 3, 4, 5},
	})
	require.NoError(t, err)

	e1, err := repos.Employees.Create(ctx, employee.Employee{Code: "E1", FirstName: "Ayu", EmploymentStatus: employee.EmploymentStatusActive})
	require.NoError(t, err)
	_, err = repos.Employees.Create(ctx, employee.Employee{Code: "E2", FirstName: "Budi", EmploymentStatus: employee.EmploymentStatusActive})
	require.NoError(t, err)

	_, err = shifts.AssignShift(ctx, shift.AssignShiftRequest{
		ShiftID:       office.ID,
		EmployeeIDs:   []string{e1.ID},
		EffectiveFrom: "2024-01-01",
	})
	require.NoError(t, err)

	hub := sse.NewHub()
	auditor := &recordingEmitter{}
	svc := NewAttendanceService(repos.Store, repos.Attendance, repos.Employees, shifts, hub, auditor)
	return fixture{repos: repos, svc: svc, hub: hub, auditor: auditor, empID: e1.ID}
}

func TestLogAttendance_MorningIn(t *testing.T) {
	ctx := context.Background()

	t.Run("late after grace", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.LogAttendance(ctx, attendance.LogPunchRequest{EmployeeCode: "E1", LogType: "MORNING_IN"}, at("2024-01-08", "08:10:00"))
		require.NoError(t, err)
		assert.Equal(t, 5, res.MinutesLate)
		assert.Equal(t, attendance.StatusLate, res.Status)
		assert.Equal(t, "Office", res.ShiftName)
		assert.Equal(t, "2024-01-08", res.Date)
		require.NotNil(t, res.NextSlot)
		assert.Equal(t, "MORNING_OUT", *res.NextSlot)
	})

	t.Run("within grace", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.LogAttendance(ctx, attendance.LogPunchRequest{EmployeeCode: "E1", LogType: "morning_in"}, at("2024-01-08", "08:03:00"))
		require.NoError(t, err)
		assert.Equal(t, 0, res.MinutesLate)
		assert.Equal(t, attendance.StatusOnTime, res.Status)
	})
}

func TestLogAttendance_OutOfOrderIsAccepted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.LogAttendance(ctx, attendance.LogPunchRequest{EmployeeCode: "E1", LogType: "AFTERNOON_OUT"}, at("2024-01-08", "16:30:00"))
	require.NoError(t, err)
	assert.Equal(t, 30, res.MinutesEarly)
	assert.Equal(t, attendance.StatusEarlyLeave, res.Status)
	require.NotNil(t, res.NextSlot)
	assert.Equal(t, "MORNING_IN", *res.NextSlot)
}

func TestLogAttendance_Rejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	monday := at("2024-01-08", "08:00:00")

	_, err := f.svc.LogAttendance(ctx, attendance.LogPunchRequest{EmployeeCode: "E1", LogType: "LUNCH"}, monday)
	assert.ErrorIs(t, err, attendance.ErrInvalidLogType)

	_, err = f.svc.LogAttendance(ctx, attendance.LogPunchRequest{EmployeeCode: "nobody", LogType: "MORNING_IN"}, monday)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	_, err = f.svc.LogAttendance(ctx, attendance.LogPunchRequest{EmployeeCode: "E2", LogType: "MORNING_IN"}, monday)
	assert.ErrorIs(t, err, attendance.ErrNoShiftAssigned)

	_, err = f.svc.LogAttendance(ctx, attendance.LogPunchRequest{EmployeeCode: "E1", LogType: "MORNING_IN"}, at("2024-01-06", "08:00:00"))
	assert.ErrorIs(t, err, attendance.ErrNoShiftAssigned, "Saturday is not an Office day")

	_, err = f.svc.LogAttendance(ctx, attendance.LogPunchRequest{LogType: "MORNING_IN"}, monday)
	assert.Error(t, err)

	rec, err := f.repos.Attendance.GetByEmployeeAndDate(ctx, f.empID, mustDate("2024-01-08"))
	require.NoError(t, err)
	assert.Nil(t, rec, "rejected punches leave no record")
}

func TestAutoDetectPunch_FillsSequence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	punches := []struct {
		clock string
		slot  attendance.LogType
	}{
		{"08:00:00", attendance.LogTypeMorningIn},
		{"12:01:00", attendance.LogTypeMorningOut},
		{"12:58:00", attendance.LogTypeAfternoonIn},
		{"16:50:00", attendance.LogTypeAfternoonOut},
	}
	var last attendance.PunchResult
	for _, p := range punches {
		res, err := f.svc.AutoDetectPunch(ctx, attendance.AutoDetectRequest{
			EmployeeCode: "E1",
			Metadata:     map[string]any{"device_id": "kiosk-1"},
		}, at("2024-01-08", p.clock))
		require.NoError(t, err)
		assert.Equal(t, p.slot, res.LogType)
		last = res
	}

	assert.Nil(t, last.NextSlot)
	assert.Equal(t, 10, last.MinutesEarly)
	assert.Equal(t, 10, last.TotalMinutesEarlyLeave)
	assert.Equal(t, attendance.StatusEarlyLeave, last.Status)

	_, err := f.svc.AutoDetectPunch(ctx, attendance.AutoDetectRequest{EmployeeCode: "E1"}, at("2024-01-08", "17:30:00"))
	assert.ErrorIs(t, err, attendance.ErrAttendanceAlreadyComplete)

	require.Len(t, f.auditor.events, 4)
	assert.Equal(t, audit.ActionAutoPunch, f.auditor.events[0].Action)
	assert.Nil(t, f.auditor.events[0].Before)
	assert.NotNil(t, f.auditor.events[1].Before)
	after := f.auditor.events[3].After.(map[string]any)
	assert.Equal(t, map[string]any{"device_id": "kiosk-1"}, after["metadata"])
}

func TestAutoDetectPunch_ConcurrentScansTakeDistinctSlots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		slots = make(map[attendance.LogType]int)
	)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.AutoDetectPunch(ctx, attendance.AutoDetectRequest{EmployeeCode: "E1"}, at("2024-01-08", "09:00:00"))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			slots[res.LogType]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, slots, 4)
	for slot, n := range slots {
		assert.Equal(t, 1, n, slot)
	}

	rec, err := f.repos.Attendance.GetByEmployeeAndDate(ctx, f.empID, mustDate("2024-01-08"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	_, open := rec.NextSlot()
	assert.False(t, open)
	assert.Equal(t, 55, rec.MinutesLate)
}

func TestPunch_PublishesToStream(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	events, unsubscribe := f.hub.Subscribe(sse.TopicAttendance)
	defer unsubscribe()

	_, err := f.svc.AutoDetectPunch(ctx, attendance.AutoDetectRequest{EmployeeCode: "E1"}, at("2024-01-08", "07:58:00"))
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, "punch", ev.Event)
		res, ok := ev.Data.(attendance.PunchResult)
		require.True(t, ok)
		assert.Equal(t, "E1", res.EmployeeCode)
		assert.Equal(t, "07:58:00", res.PunchTime)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestDailySummaries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.LogAttendance(ctx, attendance.LogPunchRequest{EmployeeCode: "E1", LogType: "MORNING_IN"}, at("2024-01-08", "08:10:00"))
	require.NoError(t, err)

	summary, err := f.svc.GetDailySummary(ctx, f.empID, mustDate("2024-01-08"))
	require.NoError(t, err)
	assert.Equal(t, "Late", summary.Summary)
	assert.Equal(t, attendance.SlotLate, summary.Slots[0].Class)
	assert.Equal(t, attendance.SlotMissing, summary.Slots[1].Class)

	tuesday, err := f.svc.GetDailySummary(ctx, f.empID, mustDate("2024-01-09"))
	require.NoError(t, err)
	assert.Equal(t, "Absent", tuesday.Summary)

	rows, err := f.svc.ListDailySummaries(ctx, mustDate("2024-01-08"))
	require.NoError(t, err)
	require.Len(t, rows, 1, "E2 has neither a shift nor a record")
	assert.Equal(t, "E1", rows[0].EmployeeCode)

	_, err = f.svc.GetDailySummary(ctx, "missing", mustDate("2024-01-08"))
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestReport_Week(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, p := range []struct{ clock, slot string }{
		{"08:10:00", "MORNING_IN"},
		{"12:00:00", "MORNING_OUT"},
		{"13:00:00", "AFTERNOON_IN"},
		{"17:00:00", "AFTERNOON_OUT"},
	} {
		_, err := f.svc.LogAttendance(ctx, attendance.LogPunchRequest{EmployeeCode: "E1", LogType: p.slot}, at("2024-01-08", p.clock))
		require.NoError(t, err)
	}
	_, err := f.svc.LogAttendance(ctx, attendance.LogPunchRequest{EmployeeCode: "E1", LogType: "MORNING_IN"}, at("2024-01-09", "07:59:00"))
	require.NoError(t, err)

	anchor := "2024-01-10"
	report, err := f.svc.Report(ctx, attendance.ReportFilter{Range: attendance.RangeWeek, Anchor: &anchor}, at("2024-01-10", "18:00:00"))
	require.NoError(t, err)

	assert.Equal(t, "2024-01-08", report.From)
	assert.Equal(t, "2024-01-14", report.To)
	require.Len(t, report.Rows, 5, "weekend days have no shift and no record")
	assert.Equal(t, "2024-01-08", report.Rows[0].Date)
	assert.Equal(t, "Late", report.Rows[0].Summary)
	assert.Equal(t, "On-Time", report.Rows[1].Summary)
	assert.Equal(t, attendance.ReportTotals{Total: 5, Late: 1, OnTime: 1, Absent: 3}, report.Totals)
	assert.Equal(t, 7.83, report.TotalDutyHours)

	_, err = f.svc.Report(ctx, attendance.ReportFilter{Range: "fortnight"}, time.Now())
	assert.Error(t, err)
}

func TestExportReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.LogAttendance(ctx, attendance.LogPunchRequest{EmployeeCode: "E1", LogType: "MORNING_IN"}, at("2024-01-08", "08:00:00"))
	require.NoError(t, err)

	var buf bytes.Buffer
	from, to := "2024-01-08", "2024-01-09"
	err = f.svc.ExportReport(ctx, attendance.ReportFilter{Range: attendance.RangeCustom, From: &from, To: &to}, time.Now(), &buf)
	require.NoError(t, err)

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Attendance")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Date", rows[0][0])
	assert.Equal(t, "2024-01-08", rows[1][0])
	assert.Equal(t, "08:00:00", rows[1][4])

	summary, err := book.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"Total", "2"}, summary[3])
}
