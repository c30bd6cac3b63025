package shift

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/flexi-attendance/internal/domain/shift"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/audit"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/database"
)

type Options struct {
	// TrimFutureAllotments extends last-writer-wins to allotments that start
	// after the new one.
	TrimFutureAllotments bool
	// DefaultGraceMinutes applies to shifts created without a grace period.
	// Nil keeps shift.DefaultGracePeriodMinutes.
	DefaultGraceMinutes *int
}

type shiftServiceImpl struct {
	db            database.Transactor
	shiftRepo     shift.ShiftRepository
	allotmentRepo shift.AllotmentRepository
	employeeRepo  employee.EmployeeRepository
	auditor       audit.Emitter
	opts          Options
}

func NewShiftService(
	db database.Transactor,
	shiftRepo shift.ShiftRepository,
	allotmentRepo shift.AllotmentRepository,
	employeeRepo employee.EmployeeRepository,
	auditor audit.Emitter,
	opts Options,
) shift.ShiftService {
	if auditor == nil {
		auditor = audit.Discard{}
	}
	return &shiftServiceImpl{
		db:            db,
		shiftRepo:     shiftRepo,
		allotmentRepo: allotmentRepo,
		employeeRepo:  employeeRepo,
		auditor:       auditor,
		opts:          opts,
	}
}

// CreateShift implements shift.ShiftService.
func (s *shiftServiceImpl) CreateShift(ctx context.Context, req shift.CreateShiftRequest) (shift.ShiftResponse, error) {
	if req.GracePeriodMinutes == nil && s.opts.DefaultGraceMinutes != nil {
		grace := *s.opts.DefaultGraceMinutes
		req.GracePeriodMinutes = &grace
	}
	if err := req.Validate(); err != nil {
		return shift.ShiftResponse{}, err
	}
	def, overrides := req.ToDefinition()

	var created shift.ShiftDefinition
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.shiftRepo.Create(ctx, def)
		if err != nil {
			return err
		}

		if err := s.shiftRepo.AddWeekdays(ctx, created.ID, def.Weekdays); err != nil {
			return err
		}

		for _, o := range overrides {
			o.ShiftID = created.ID
			if _, err := s.shiftRepo.UpsertOverride(ctx, o); err != nil {
				return err
			}
		}

		created, err = s.shiftRepo.GetByID(ctx, created.ID)
		return err
	})
	if err != nil {
		return shift.ShiftResponse{}, fmt.Errorf("failed to create shift: %w", err)
	}

	resp := shift.NewShiftResponse(created)
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionCreate,
		TableName: "shifts",
		RecordID:  created.ID,
		After:     resp,
	})

	return resp, nil
}

// GetShift implements shift.ShiftService.
func (s *shiftServiceImpl) GetShift(ctx context.Context, id string) (shift.ShiftResponse, error) {
	def, err := s.shiftRepo.GetByID(ctx, id)
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	return shift.NewShiftResponse(def), nil
}

// ListShifts implements shift.ShiftService.
func (s *shiftServiceImpl) ListShifts(ctx context.Context) ([]shift.ShiftResponse, error) {
	defs, err := s.shiftRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}

	resp := make([]shift.ShiftResponse, 0, len(defs))
	for _, def := range defs {
		resp = append(resp, shift.NewShiftResponse(def))
	}
	return resp, nil
}

// DeleteShift implements shift.ShiftService. Allotments that reference the
// shift are removed first, then the shift with its day rows.
func (s *shiftServiceImpl) DeleteShift(ctx context.Context, id string) error {
	var (
		before  shift.ShiftDefinition
		removed int64
	)
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if before, err = s.shiftRepo.GetByID(ctx, id); err != nil {
			return err
		}
		if removed, err = s.allotmentRepo.DeleteByShiftID(ctx, id); err != nil {
			return err
		}
		return s.shiftRepo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}

	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionDelete,
		TableName: "shifts",
		RecordID:  id,
		Before:    shift.NewShiftResponse(before),
		After:     map[string]any{"deleted": true, "allotments_removed": removed},
	})

	return nil
}
