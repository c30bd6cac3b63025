package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/validator"
)

// ========================================
// PUNCH DTOs
// ========================================

type LogPunchRequest struct {
	EmployeeCode string `json:"employee_code" validate:"required,max=50"`
	LogType      string `json:"log_type" validate:"required"`
}

func (r *LogPunchRequest) Validate() error {
	return validator.ValidateStruct(r)
}

// AutoDetectRequest is sent by the face-scan kiosk. Metadata carries device
// details (device id, match confidence) and is passed through to the audit
// envelope untouched.
type AutoDetectRequest struct {
	EmployeeCode string         `json:"employee_code" validate:"required,max=50"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func (r *AutoDetectRequest) Validate() error {
	return validator.ValidateStruct(r)
}

type PunchResult struct {
	EmployeeID             string  `json:"employee_id"`
	EmployeeCode           string  `json:"employee_code"`
	EmployeeName           string  `json:"employee_name"`
	Date                   string  `json:"date"`
	ShiftName              string  `json:"shift_name"`
	LogType                LogType `json:"log_type"`
	PunchTime              string  `json:"punch_time"`
	MinutesLate            int     `json:"minutes_late"`
	MinutesEarly           int     `json:"minutes_early"`
	Status                 Status  `json:"status"`
	TotalMinutesLate       int     `json:"total_minutes_late"`
	TotalMinutesEarlyLeave int     `json:"total_minutes_early_leave"`
	NextSlot               *string `json:"next_slot"`
}

// ========================================
// SUMMARY DTOs
// ========================================

type SlotSummary struct {
	LogType  LogType   `json:"log_type"`
	Required *string   `json:"required,omitempty"`
	Actual   *string   `json:"actual,omitempty"`
	Class    SlotClass `json:"class"`
}

type DailySummary struct {
	EmployeeID        string        `json:"employee_id"`
	EmployeeCode      string        `json:"employee_code"`
	EmployeeName      string        `json:"employee_name"`
	Date              string        `json:"date"`
	ShiftID           *string       `json:"shift_id,omitempty"`
	ShiftName         *string       `json:"shift_name,omitempty"`
	Slots             []SlotSummary `json:"slots"`
	MinutesLate       int           `json:"minutes_late"`
	MinutesEarlyLeave int           `json:"minutes_early_leave"`
	Status            Status        `json:"status"`
	Summary           string        `json:"summary"`
	DutyMinutes       int           `json:"duty_minutes"`
	DutyHours         float64       `json:"duty_hours"`
}

// ========================================
// REPORT DTOs
// ========================================

const (
	RangeToday  = "today"
	RangeWeek   = "week"
	RangeMonth  = "month"
	RangeYear   = "year"
	RangeCustom = "custom"
)

// MaxReportDays bounds custom report ranges.
const MaxReportDays = 366

type ReportFilter struct {
	Range      string  `json:"range" validate:"omitempty,oneof=today week month year custom"`
	Anchor     *string `json:"anchor,omitempty" validate:"omitempty,datetime=2006-01-02"`
	From       *string `json:"from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	To         *string `json:"to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EmployeeID *string `json:"employee_id,omitempty"`
}

func (f *ReportFilter) Validate() error {
	if f.Range == "" {
		f.Range = RangeToday
	}
	if err := validator.ValidateStruct(f); err != nil {
		return err
	}

	if f.Range == RangeCustom {
		var errs validator.ValidationErrors
		if validator.IsEmptyPtr(f.From) {
			errs = append(errs, validator.ValidationError{
				Field:   "from",
				Message: "from is required for a custom range",
			})
		}
		if validator.IsEmptyPtr(f.To) {
			errs = append(errs, validator.ValidationError{
				Field:   "to",
				Message: "to is required for a custom range",
			})
		}
		if len(errs) > 0 {
			return errs
		}
	}

	return nil
}

// Bounds returns the inclusive date range the filter selects. Weeks run
// Monday to Sunday. The anchor defaults to now's date.
func (f *ReportFilter) Bounds(now time.Time) (time.Time, time.Time, error) {
	anchor := timeliteral.DateOf(now)
	if !validator.IsEmptyPtr(f.Anchor) {
		d, ok := timeliteral.ParseDate(*f.Anchor)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: anchor %q is not a valid date", ErrInvalidReportRange, *f.Anchor)
		}
		anchor = d
	}

	switch f.Range {
	case "", RangeToday:
		return anchor, anchor, nil
	case RangeWeek:
		offset := int(anchor.Weekday()) - 1
		if offset < 0 {
			offset = 6
		}
		start := timeliteral.AddDays(anchor, -offset)
		return start, timeliteral.AddDays(start, 6), nil
	case RangeMonth:
		start := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1), nil
	case RangeYear:
		start := time.Date(anchor.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, time.Date(anchor.Year(), time.December, 31, 0, 0, 0, 0, time.UTC), nil
	case RangeCustom:
		if f.From == nil || f.To == nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: custom range needs from and to", ErrInvalidReportRange)
		}
		from, okFrom := timeliteral.ParseDate(*f.From)
		to, okTo := timeliteral.ParseDate(*f.To)
		if !okFrom || !okTo {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: from and to must be YYYY-MM-DD dates", ErrInvalidReportRange)
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: to %s is before from %s", ErrInvalidReportRange, *f.To, *f.From)
		}
		if days := int(to.Sub(from).Hours()/24) + 1; days > MaxReportDays {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: range spans %d days, at most %d allowed", ErrInvalidReportRange, days, MaxReportDays)
		}
		return from, to, nil
	}

	return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown range %q", ErrInvalidReportRange, f.Range)
}

type ReportTotals struct {
	Total  int `json:"total"`
	Late   int `json:"late"`
	OnTime int `json:"on_time"`
	Early  int `json:"early"`
	Absent int `json:"absent"`
}

type ReportResponse struct {
	Range          string         `json:"range"`
	From           string         `json:"from"`
	To             string         `json:"to"`
	Totals         ReportTotals   `json:"totals"`
	TotalDutyHours float64        `json:"total_duty_hours"`
	Rows           []DailySummary `json:"rows"`
}
