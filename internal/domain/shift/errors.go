package shift

import "github.com/cmlabs-hris/flexi-attendance/internal/pkg/apperr"

var (
	// Shift Errors
	ErrShiftNotFound   = apperr.NotFound("SHIFT_NOT_FOUND", "shift not found")
	ErrShiftNameExists = apperr.Conflict("SHIFT_NAME_EXISTS", "shift with this name already exists")

	// Allotment Errors
	ErrAllotmentNotFound   = apperr.NotFound("ALLOTMENT_NOT_FOUND", "shift allotment not found")
	ErrInvalidDateRange    = apperr.Validation("INVALID_DATE_RANGE", "invalid date range")
	ErrNoEmployeesSelected = apperr.Validation("NO_EMPLOYEES_SELECTED", "select at least one employee or assign_all")
)

// Validation messages for shift payloads. Field-level failures are reported as
// validator.ValidationErrors so callers can render the offending field.
const (
	msgInvalidTimeFormat = "invalid time format, expected HH:MM[:SS], H:MM[:SS] AM|PM or an ISO datetime"
	msgPatternWeekdays   = "pattern must specify at least one weekday"
)
