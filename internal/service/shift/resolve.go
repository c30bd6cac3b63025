package shift

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/shift"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
)

// ResolveShift implements shift.ShiftService. A nil result with a nil error
// means no shift is scheduled for the employee on date.
func (s *shiftServiceImpl) ResolveShift(ctx context.Context, employeeID string, date time.Time) (*shift.ResolvedShift, error) {
	date = timeliteral.DateOf(date)

	covering, err := s.allotmentRepo.CoveringDate(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to find allotments: %w", err)
	}

	allotment := Timeline(covering).At(date)
	if allotment == nil {
		return nil, nil
	}

	rule, err := s.shiftRepo.GetWeekdayRule(ctx, allotment.ShiftID, shift.WeekdayOf(date))
	if err != nil {
		return nil, fmt.Errorf("failed to load shift %s: %w", allotment.ShiftID, err)
	}

	return shift.Resolve(rule, *allotment, date), nil
}
