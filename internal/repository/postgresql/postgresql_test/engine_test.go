package postgresql_test

import (
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
	"github.com/cmlabs-hris/flexi-attendance/internal/repository/postgresql"
	attendanceservice "github.com/cmlabs-hris/flexi-attendance/internal/service/attendance"
	shiftservice "github.com/cmlabs-hris/flexi-attendance/internal/service/shift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engine struct {
	employees  employee.EmployeeRepository
	shifts     shift.ShiftService
	attendance attendance.AttendanceService
}

func newEngine(t *testing.T) (*TestDatabaseSetup, engine) {
	setup := NewTestDatabase(t)
	db := setup.DB

	tx := postgresql.NewTransactor(db)
	employees := postgresql.NewEmployeeRepository(db)
	shifts := shiftservice.NewShiftService(tx, postgresql.NewShiftRepository(db), postgresql.NewAllotmentRepository(db), employees, nil, shiftservice.Options{})
	att := attendanceservice.NewAttendanceService(tx, postgresql.NewAttendanceRepository(db), employees, shifts, sse.NewHub(), nil)
	return setup, engine{employees: employees, shifts: shifts, attendance: att}
}

func at(date, clock string) time.Time {
	d, _ := timeliteral.ParseDate(date)
	return timeliteral.MustParse(clock).On(d)
}

func TestEngine_ResolveAndPunch(t *testing.T) {
	_, e := newEngine(t)
	ctx := context.Background()

	grace := 10
	office, err := e.shifts.CreateShift(ctx, shift.CreateShiftRequest{
		Name:         "Office",
		MorningIn:    "08:00",
		MorningOut:   "12:00",
		AfternoonIn:  "13:00",
		AfternoonOut: "17:00",
		Weekdays:     []any{1, 2, 3, 4},
		Patterns: []shift.PatternRequest{{
			Weekdays:           []any{"fri"},
			MorningIn:          "08:00",
			MorningOut:         "11:30",
			AfternoonIn:        "13:00",
			AfternoonOut:       "16:00",
			GracePeriodMinutes: &grace,
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, office.Weekdays)

	emp, err := e.employees.Create(ctx, employee.Employee{Code: "E1", FirstName: "Ayu", EmploymentStatus: employee.EmploymentStatusActive})
	require.NoError(t, err)

	_, err = e.shifts.AssignShift(ctx, shift.AssignShiftRequest{
		ShiftID:       office.ID,
		EmployeeIDs:   []string{emp.ID},
		EffectiveFrom: "2024-01-01",
	})
	require.NoError(t, err)

	friday, err := e.shifts.ResolveShift(ctx, emp.ID, at("2024-01-12", "00:00:00"))
	require.NoError(t, err)
	require.NotNil(t, friday)
	assert.Equal(t, "11:30:00", friday.Times.MorningOut.String())
	assert.Equal(t, 10, friday.GracePeriodMinutes)

	saturday, err := e.shifts.ResolveShift(ctx, emp.ID, at("2024-01-13", "00:00:00"))
	require.NoError(t, err)
	assert.Nil(t, saturday)

	res, err := e.attendance.LogAttendance(ctx, attendance.LogPunchRequest{EmployeeCode: "E1", LogType: "MORNING_IN"}, at("2024-01-08", "08:10:00"))
	require.NoError(t, err)
	assert.Equal(t, 5, res.MinutesLate)
	assert.Equal(t, attendance.StatusLate, res.Status)
}

func TestEngine_TruncatesEarlierAllotment(t *testing.T) {
	_, e := newEngine(t)
	ctx := context.Background()

	emp, err := e.employees.Create(ctx, employee.Employee{Code: "E1", FirstName: "Ayu", EmploymentStatus: employee.EmploymentStatusActive})
	require.NoError(t, err)

	var ids []string
	for _, name := range []string{"Day", "Night"} {
		s, err := e.shifts.CreateShift(ctx, shift.CreateShiftRequest{
			Name: name, MorningIn: "08:00", MorningOut: "12:00", AfternoonIn: "13:00", AfternoonOut: "17:00",
			Weekdays: []any{1, 2, 3, 4, 5, 6, 7},
		})
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}

	_, err = e.shifts.AssignShift(ctx, shift.AssignShiftRequest{ShiftID: ids[0], EmployeeIDs: []string{emp.ID}, EffectiveFrom: "2024-01-01"})
	require.NoError(t, err)
	resp, err := e.shifts.AssignShift(ctx, shift.AssignShiftRequest{ShiftID: ids[1], EmployeeIDs: []string{emp.ID}, EffectiveFrom: "2024-02-01"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Truncated)

	allotments, err := e.shifts.ListAllotments(ctx, emp.ID)
	require.NoError(t, err)
	require.Len(t, allotments, 2)
	require.NotNil(t, allotments[0].EffectiveTo)
	assert.Equal(t, "2024-01-31", *allotments[0].EffectiveTo)
	assert.True(t, allotments[1].IsOpenEnded)
}

func TestEngine_MalformedIDsAreNotFound(t *testing.T) {
	_, e := newEngine(t)
	ctx := context.Background()

	_, err := e.shifts.GetShift(ctx, "abc")
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)

	err = e.shifts.DeleteShift(ctx, "abc")
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)

	_, err = e.shifts.AssignShift(ctx, shift.AssignShiftRequest{ShiftID: "abc", EmployeeIDs: []string{"def"}, EffectiveFrom: "2024-01-01"})
	assert.ErrorIs(t, err, shift.ErrShiftNotFound)

	_, err = e.employees.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	office, err := e.shifts.CreateShift(ctx, shift.CreateShiftRequest{
		Name: "Office", MorningIn: "08:00", MorningOut: "12:00", AfternoonIn: "13:00", AfternoonOut: "17:00",
		Weekdays: []any{1, 2, 3, 4, 5},
	})
	require.NoError(t, err)
	_, err = e.shifts.AssignShift(ctx, shift.AssignShiftRequest{ShiftID: office.ID, EmployeeIDs: []string{"def"}, EffectiveFrom: "2024-01-01"})
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	resolved, err := e.shifts.ResolveShift(ctx, "abc", at("2024-01-08", "00:00:00"))
	require.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestEngine_ConcurrentScansTakeDistinctSlots(t *testing.T) {
	_, e := newEngine(t)
	ctx := context.Background()

	s, err := e.shifts.CreateShift(ctx, shift.CreateShiftRequest{
		Name: "Office", MorningIn: "08:00", MorningOut: "12:00", AfternoonIn: "13:00", AfternoonOut: "17:00",
		Weekdays: []any{1, 2, 3, 4, 5},
	})
	require.NoError(t, err)
	emp, err := e.employees.Create(ctx, employee.Employee{Code: "E1", FirstName: "Ayu", EmploymentStatus: employee.EmploymentStatusActive})
	require.NoError(t, err)
	_, err = e.shifts.AssignShift(ctx, shift.AssignShiftRequest{ShiftID: s.ID, EmployeeIDs: []string{emp.ID}, EffectiveFrom: "2024-01-01"})
	require.NoError(t, err)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		slots = map[attendance.LogType]int{}
	)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.attendance.AutoDetectPunch(ctx, attendance.AutoDetectRequest{EmployeeCode: "E1"}, at("2024-01-08", "09:00:00"))
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
}

func TestAuditSink_Write(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()

	env, err := audit.NewEnvelope(ctx, audit.Event{
		Action:    audit.ActionCreate,
		TableName: "shifts",
		RecordID:  "s1",
		After:     map[string]any{"name": "Office"},
	}, time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, postgresql.NewAuditSink(setup.DB).Write(ctx, env))

	var actor, action string
	err = setup.DB.QueryRow(ctx, `SELECT actor, action FROM audit_logs WHERE id = $1`, env.ID).Scan(&actor, &action)
	require.NoError(t, err)
	assert.Equal(t, audit.SystemActor, actor)
	assert.Equal(t, audit.ActionCreate, action)
}
