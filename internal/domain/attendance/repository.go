package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	// LockDay serialises read-modify-write of the (employee, date) record
	// until the surrounding transaction ends.
	LockDay(ctx context.Context, employeeID string, date time.Time) error

	// GetByEmployeeAndDate returns nil, nil when no record exists yet.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Record, error)

	Create(ctx context.Context, record Record) (Record, error)
	Update(ctx context.Context, record Record) error

	// ListByRange returns records with from <= date <= to, ordered by date.
	ListByRange(ctx context.Context, from, to time.Time, employeeID *string) ([]Record, error)
}
