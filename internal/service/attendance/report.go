package attendance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/flexi-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
	"golang.org/x/sync/errgroup"
)

// reportConcurrency caps per-employee resolution goroutines.
const reportConcurrency = 8

type dayKey struct {
	employeeID string
	date       string
}

// Report implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Report(ctx context.Context, filter attendance.ReportFilter, now time.Time) (attendance.ReportResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ReportResponse{}, err
	}

	from, to, err := filter.Bounds(now)
	if err != nil {
		return attendance.ReportResponse{}, err
	}

	var employeeID *string
	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		employeeID = filter.EmployeeID
	}

	rows, err := a.summaries(ctx, employeeID, from, to)
	if err != nil {
		return attendance.ReportResponse{}, err
	}

	dutyMinutes := 0
	for _, row := range rows {
		dutyMinutes += row.DutyMinutes
	}

	return attendance.ReportResponse{
		Range:          filter.Range,
		From:           timeliteral.FormatDate(from),
		To:             timeliteral.FormatDate(to),
		Totals:         Tally(rows),
		TotalDutyHours: hours(dutyMinutes),
		Rows:           rows,
	}, nil
}

// summaries builds one row per (employee, date) that has a resolved shift or
// a record, ordered by date then employee code. A nil employeeID covers every
// active employee.
func (a *AttendanceServiceImpl) summaries(ctx context.Context, employeeID *string, from, to time.Time) ([]attendance.DailySummary, error) {
	employees, err := a.reportEmployees(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	records, err := a.attendanceRepo.ListByRange(ctx, from, to, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	byDay := make(map[dayKey]*attendance.Record, len(records))
	for i := range records {
		rec := &records[i]
		byDay[dayKey{rec.EmployeeID, timeliteral.FormatDate(rec.Date)}] = rec
	}

	perEmployee := make([][]attendance.DailySummary, len(employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reportConcurrency)
	for i, emp := range employees {
		g.Go(func() error {
			var rows []attendance.DailySummary
			for d := from; !d.After(to); d = timeliteral.AddDays(d, 1) {
				rs, err := a.resolver.ResolveShift(gctx, emp.ID, d)
				if err != nil {
					return fmt.Errorf("failed to resolve shift for %s on %s: %w", emp.Code, timeliteral.FormatDate(d), err)
				}
				rec := byDay[dayKey{emp.ID, timeliteral.FormatDate(d)}]
				if rs == nil && rec == nil {
					continue
				}
				rows = append(rows, Summarize(emp, d, rec, rs))
			}
			perEmployee[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rows []attendance.DailySummary
	for _, r := range perEmployee {
		rows = append(rows, r...)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return rows[i].EmployeeCode < rows[j].EmployeeCode
	})
	if rows == nil {
		rows = []attendance.DailySummary{}
	}
	return rows, nil
}

func (a *AttendanceServiceImpl) reportEmployees(ctx context.Context, employeeID *string) ([]employee.Employee, error) {
	if employeeID != nil {
		emp, err := a.employeeRepo.GetByID(ctx, *employeeID)
		if err != nil {
			return nil, err
		}
		return []employee.Employee{emp}, nil
	}

	ids, err := a.employeeRepo.GetActiveIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	employees := make([]employee.Employee, 0, len(ids))
	for _, id := range ids {
		emp, err := a.employeeRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, nil
}
