package attendance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/flexi-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/flexi-attendance/internal/domain/shift"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/audit"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/database"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/sse"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
)

// ShiftResolver answers which shift applies to an employee on a date.
// shift.ShiftService satisfies it.
type ShiftResolver interface {
	ResolveShift(ctx context.Context, employeeID string, date time.Time) (*shift.ResolvedShift, error)
}

type AttendanceServiceImpl struct {
	db             database.Transactor
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
	resolver       ShiftResolver
	hub            *sse.Hub
	auditor        audit.Emitter
}

func NewAttendanceService(
	db database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	resolver ShiftResolver,
	hub *sse.Hub,
	auditor audit.Emitter,
) attendance.AttendanceService {
	if auditor == nil {
		auditor = audit.Discard{}
	}
	return &AttendanceServiceImpl{
		db:             db,
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		resolver:       resolver,
		hub:            hub,
		auditor:        auditor,
	}
}

// slotPicker chooses the slot to fill given the current record.
type slotPicker func(rec attendance.Record) (attendance.LogType, error)

// LogAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) LogAttendance(ctx context.Context, req attendance.LogPunchRequest, now time.Time) (attendance.PunchResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.PunchResult{}, err
	}

	slot, err := attendance.ParseLogType(req.LogType)
	if err != nil {
		return attendance.PunchResult{}, err
	}

	return a.punch(ctx, req.EmployeeCode, now, audit.ActionPunch, nil, func(attendance.Record) (attendance.LogType, error) {
		return slot, nil
	})
}

// AutoDetectPunch implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) AutoDetectPunch(ctx context.Context, req attendance.AutoDetectRequest, now time.Time) (attendance.PunchResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.PunchResult{}, err
	}

	return a.punch(ctx, req.EmployeeCode, now, audit.ActionAutoPunch, req.Metadata, func(rec attendance.Record) (attendance.LogType, error) {
		next, ok := rec.NextSlot()
		if !ok {
			return "", attendance.ErrAttendanceAlreadyComplete
		}
		return next, nil
	})
}

func (a *AttendanceServiceImpl) punch(
	ctx context.Context,
	employeeCode string,
	now time.Time,
	action string,
	metadata map[string]any,
	pick slotPicker,
) (attendance.PunchResult, error) {
	emp, err := a.employeeRepo.GetByEmployeeCode(ctx, strings.TrimSpace(employeeCode))
	if err != nil {
		return attendance.PunchResult{}, err
	}
	if emp.EmploymentStatus != employee.EmploymentStatusActive {
		return attendance.PunchResult{}, employee.ErrEmployeeInactive
	}

	today := timeliteral.DateOf(now)
	at := timeliteral.FromTime(now)

	rs, err := a.resolver.ResolveShift(ctx, emp.ID, today)
	if err != nil {
		return attendance.PunchResult{}, fmt.Errorf("failed to resolve shift: %w", err)
	}
	if rs == nil {
		return attendance.PunchResult{}, attendance.ErrNoShiftAssigned
	}

	var (
		before *attendance.Record
		rec    attendance.Record
		slot   attendance.LogType
		eval   Evaluation
	)
	err = a.db.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := a.attendanceRepo.LockDay(ctx, emp.ID, today); err != nil {
			return err
		}

		existing, err := a.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, today)
		if err != nil {
			return err
		}
		if existing == nil {
			shiftID := rs.ShiftID
			created, err := a.attendanceRepo.Create(ctx, attendance.Record{
				EmployeeID: emp.ID,
				Date:       today,
				ShiftID:    &shiftID,
				Status:     attendance.StatusPresent,
			})
			if err != nil {
				return err
			}
			existing = &created
		} else {
			snapshot := *existing
			before = &snapshot
		}

		rec = *existing
		if slot, err = pick(rec); err != nil {
			return err
		}

		eval = Apply(&rec, slot, at, *rs)
		if rec.ShiftID == nil {
			shiftID := rs.ShiftID
			rec.ShiftID = &shiftID
		}
		return a.attendanceRepo.Update(ctx, rec)
	})
	if err != nil {
		return attendance.PunchResult{}, fmt.Errorf("failed to record attendance: %w", err)
	}

	result := newPunchResult(emp, rec, *rs, slot, at, eval)

	if a.hub != nil {
		a.hub.Publish(sse.Event{
			Topic: sse.TopicAttendance,
			Event: "punch",
			Data:  result,
		})
	}

	after := map[string]any{"record": recordView(rec), "result": result}
	if len(metadata) > 0 {
		after["metadata"] = metadata
	}
	ev := audit.Event{
		Action:    action,
		TableName: "attendance_records",
		RecordID:  rec.ID,
		After:     after,
	}
	if before != nil {
		ev.Before = recordView(*before)
	}
	a.auditor.Emit(ctx, ev)

	return result, nil
}

func newPunchResult(emp employee.Employee, rec attendance.Record, rs shift.ResolvedShift, slot attendance.LogType, at timeliteral.Clock, eval Evaluation) attendance.PunchResult {
	result := attendance.PunchResult{
		EmployeeID:             emp.ID,
		EmployeeCode:           emp.Code,
		EmployeeName:           emp.FullName(),
		Date:                   timeliteral.FormatDate(rec.Date),
		ShiftName:              rs.ShiftName,
		LogType:                slot,
		PunchTime:              at.String(),
		MinutesLate:            eval.MinutesLate,
		MinutesEarly:           eval.MinutesEarly,
		Status:                 rec.Status,
		TotalMinutesLate:       rec.MinutesLate,
		TotalMinutesEarlyLeave: rec.MinutesEarlyLeave,
	}
	if next, ok := rec.NextSlot(); ok {
		s := string(next)
		result.NextSlot = &s
	}
	return result
}

// recordView is the audit representation of a record.
func recordView(rec attendance.Record) map[string]any {
	view := map[string]any{
		"id":                  rec.ID,
		"employee_id":         rec.EmployeeID,
		"attendance_date":     timeliteral.FormatDate(rec.Date),
		"shift_id":            rec.ShiftID,
		"minutes_late":        rec.MinutesLate,
		"minutes_early_leave": rec.MinutesEarlyLeave,
		"status":              rec.Status,
	}
	for _, slot := range attendance.LogTypeSequence {
		var v *string
		if c := rec.Punch(slot); c != nil {
			s := c.String()
			v = &s
		}
		view[strings.ToLower(string(slot))] = v
	}
	return view
}

// GetDailySummary implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetDailySummary(ctx context.Context, employeeID string, date time.Time) (attendance.DailySummary, error) {
	emp, err := a.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return attendance.DailySummary{}, err
	}

	date = timeliteral.DateOf(date)
	rs, err := a.resolver.ResolveShift(ctx, emp.ID, date)
	if err != nil {
		return attendance.DailySummary{}, fmt.Errorf("failed to resolve shift: %w", err)
	}

	rec, err := a.attendanceRepo.GetByEmployeeAndDate(ctx, emp.ID, date)
	if err != nil {
		return attendance.DailySummary{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	return Summarize(emp, date, rec, rs), nil
}

// ListDailySummaries implements attendance.AttendanceService. Employees with
// neither a shift nor a record on date are left out.
func (a *AttendanceServiceImpl) ListDailySummaries(ctx context.Context, date time.Time) ([]attendance.DailySummary, error) {
	date = timeliteral.DateOf(date)
	return a.summaries(ctx, nil, date, date)
}
