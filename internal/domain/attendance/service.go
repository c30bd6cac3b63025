package attendance

import (
	"context"
	"io"
	"time"
)

// AttendanceService evaluates punches against the employee's resolved shift.
// now is injected so evaluation never reads the wall clock itself.
type AttendanceService interface {
	// LogAttendance records an explicit slot. No sequencing is enforced.
	LogAttendance(ctx context.Context, req LogPunchRequest, now time.Time) (PunchResult, error)

	// AutoDetectPunch fills the next expected slot for today.
	AutoDetectPunch(ctx context.Context, req AutoDetectRequest, now time.Time) (PunchResult, error)

	GetDailySummary(ctx context.Context, employeeID string, date time.Time) (DailySummary, error)
	ListDailySummaries(ctx context.Context, date time.Time) ([]DailySummary, error)

	Report(ctx context.Context, filter ReportFilter, now time.Time) (ReportResponse, error)
	ExportReport(ctx context.Context, filter ReportFilter, now time.Time, w io.Writer) error
}
