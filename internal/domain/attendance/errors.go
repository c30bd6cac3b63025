package attendance

import "github.com/cmlabs-hris/flexi-attendance/internal/pkg/apperr"

var (
	ErrNoShiftAssigned           = apperr.State("NO_SHIFT_ASSIGNED", "no shift is assigned for today")
	ErrInvalidLogType            = apperr.Validation("INVALID_LOG_TYPE", "log_type must be one of: MORNING_IN, MORNING_OUT, AFTERNOON_IN, AFTERNOON_OUT")
	ErrAttendanceAlreadyComplete = apperr.Conflict("ATTENDANCE_ALREADY_COMPLETE", "all punches for today are already recorded")
	ErrAttendanceNotFound        = apperr.NotFound("ATTENDANCE_NOT_FOUND", "attendance record not found")
	ErrInvalidReportRange        = apperr.Validation("INVALID_REPORT_RANGE", "invalid report range")
)
