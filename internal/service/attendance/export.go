package attendance

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/attendance"
	"github.com/xuri/excelize/v2"
)

const (
	sheetAttendance = "Attendance"
	sheetSummary    = "Summary"
)

var exportHeaders = []any{
	"Date", "Employee Code", "Employee Name", "Shift",
	"Morning In", "Morning Out", "Afternoon In", "Afternoon Out",
	"Minutes Late", "Minutes Early Leave", "Status", "Summary", "Duty Hours",
}

// ExportReport implements attendance.AttendanceService. The workbook has the
// per-day rows on one sheet and the totals on another.
func (a *AttendanceServiceImpl) ExportReport(ctx context.Context, filter attendance.ReportFilter, now time.Time, w io.Writer) error {
	report, err := a.Report(ctx, filter, now)
	if err != nil {
		return err
	}

	f, err := buildWorkbook(report)
	if err != nil {
		return fmt.Errorf("failed to build report workbook: %w", err)
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write report workbook: %w", err)
	}
	return nil
}

func buildWorkbook(report attendance.ReportResponse) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetAttendance); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheetAttendance, "A1", &exportHeaders); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetAttendance, "A1", lastHeader, bold); err != nil {
		return nil, err
	}

	for i, row := range report.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{
			row.Date,
			row.EmployeeCode,
			row.EmployeeName,
			deref(row.ShiftName),
			slotActual(row, 0),
			slotActual(row, 1),
			slotActual(row, 2),
			slotActual(row, 3),
			row.MinutesLate,
			row.MinutesEarlyLeave,
			string(row.Status),
			row.Summary,
			row.DutyHours,
		}
		if err := f.SetSheetRow(sheetAttendance, cell, &values); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(sheetAttendance, "A", "M", 16); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(sheetSummary); err != nil {
		return nil, err
	}
	summary := [][]any{
		{"Range", report.Range},
		{"From", report.From},
		{"To", report.To},
		{"Total", report.Totals.Total},
		{"On Time", report.Totals.OnTime},
		{"Late", report.Totals.Late},
		{"Early Leave", report.Totals.Early},
		{"Absent", report.Totals.Absent},
		{"Total Duty Hours", report.TotalDutyHours},
	}
	for i, values := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetSummary, cell, &values); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(sheetSummary, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return nil, err
	}

	return f, nil
}

func slotActual(row attendance.DailySummary, i int) string {
	if i >= len(row.Slots) {
		return ""
	}
	return deref(row.Slots[i].Actual)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
