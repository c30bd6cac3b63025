package shift

import (
	"context"
	"time"
)

type ShiftService interface {
	// Shift
	CreateShift(ctx context.Context, req CreateShiftRequest) (ShiftResponse, error)
	GetShift(ctx context.Context, id string) (ShiftResponse, error)
	ListShifts(ctx context.Context) ([]ShiftResponse, error)
	DeleteShift(ctx context.Context, id string) error

	// Allotment
	AssignShift(ctx context.Context, req AssignShiftRequest) (AssignShiftResponse, error)
	ListAllotments(ctx context.Context, employeeID string) ([]AllotmentResponse, error)

	// ResolveShift returns nil, nil when no shift applies on date.
	ResolveShift(ctx context.Context, employeeID string, date time.Time) (*ResolvedShift, error)
}
