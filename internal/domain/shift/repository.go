package shift

import (
	"context"
	"time"
)

type ShiftRepository interface {
	// Create stores the definition row only.
	Create(ctx context.Context, def ShiftDefinition) (ShiftDefinition, error)
	// GetByID loads the definition with its weekdays and overrides.
	GetByID(ctx context.Context, id string) (ShiftDefinition, error)
	List(ctx context.Context) ([]ShiftDefinition, error)
	// Delete removes the definition and cascades to its day rows.
	Delete(ctx context.Context, id string) error

	AddWeekdays(ctx context.Context, shiftID string, weekdays []Weekday) error
	// UpsertOverride replaces any existing override for (ShiftID, Weekday).
	UpsertOverride(ctx context.Context, override DayOverride) (DayOverride, error)
	// GetWeekdayRule answers shiftsForWeekday(shiftID, weekday).
	GetWeekdayRule(ctx context.Context, shiftID string, weekday Weekday) (WeekdayRule, error)
}

type AllotmentRepository interface {
	Create(ctx context.Context, allotment Allotment) (Allotment, error)
	// GetByEmployeeID returns the employee's allotments ordered by EffectiveFrom.
	GetByEmployeeID(ctx context.Context, employeeID string) ([]Allotment, error)
	// CoveringDate answers allotmentsCoveringDate(employeeID, date), latest
	// EffectiveFrom first.
	CoveringDate(ctx context.Context, employeeID string, date time.Time) ([]Allotment, error)
	UpdateRange(ctx context.Context, id string, effectiveFrom time.Time, effectiveTo *time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByShiftID(ctx context.Context, shiftID string) (int64, error)
	// LockEmployee serialises timeline rewrites for one employee until the
	// surrounding transaction ends.
	LockEmployee(ctx context.Context, employeeID string) error
}
