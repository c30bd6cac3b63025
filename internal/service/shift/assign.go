package shift

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/shift"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/audit"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
)

// AssignShift implements shift.ShiftService. Every target employee is
// processed in one transaction; any failure leaves all timelines untouched.
func (s *shiftServiceImpl) AssignShift(ctx context.Context, req shift.AssignShiftRequest) (shift.AssignShiftResponse, error) {
	if err := req.Validate(); err != nil {
		return shift.AssignShiftResponse{}, err
	}

	if _, err := s.shiftRepo.GetByID(ctx, req.ShiftID); err != nil {
		return shift.AssignShiftResponse{}, err
	}

	from, to, err := req.DateRange()
	if err != nil {
		return shift.AssignShiftResponse{}, err
	}

	targets := dedupe(req.EmployeeIDs)
	if req.AssignAll {
		if targets, err = s.employeeRepo.GetActiveIDs(ctx); err != nil {
			return shift.AssignShiftResponse{}, fmt.Errorf("failed to list active employees: %w", err)
		}
	}
	// assign_all over an empty roster is a no-op, not a bad request.
	if len(targets) == 0 && !req.AssignAll {
		return shift.AssignShiftResponse{}, shift.ErrNoEmployeesSelected
	}

	resp := shift.AssignShiftResponse{
		ShiftID:       req.ShiftID,
		EffectiveFrom: timeliteral.FormatDate(from),
	}
	if to != nil {
		formatted := timeliteral.FormatDate(*to)
		resp.EffectiveTo = &formatted
	}

	var events []audit.Event
	err = s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		resp.AssignedCount, resp.Truncated, resp.Replaced = 0, 0, 0
		events = events[:0]

		for _, employeeID := range targets {
			if !req.AssignAll {
				if _, err := s.employeeRepo.GetByID(ctx, employeeID); err != nil {
					return fmt.Errorf("employee %s: %w", employeeID, err)
				}
			}

			if err := s.allotmentRepo.LockEmployee(ctx, employeeID); err != nil {
				return err
			}
			existing, err := s.allotmentRepo.GetByEmployeeID(ctx, employeeID)
			if err != nil {
				return err
			}

			plan := PlanAssignment(existing, shift.Allotment{
				EmployeeID:    employeeID,
				ShiftID:       req.ShiftID,
				EffectiveFrom: from,
				EffectiveTo:   to,
			}, s.opts.TrimFutureAllotments)

			created, err := s.applyPlan(ctx, existing, plan)
			if err != nil {
				return err
			}

			truncated, replaced := plan.Changes()
			resp.AssignedCount++
			resp.Truncated += truncated
			resp.Replaced += replaced

			events = append(events, audit.Event{
				Action:    audit.ActionAssign,
				TableName: "employee_shift_allotments",
				RecordID:  created.ID,
				Before:    allotmentResponses(existing),
				After:     shift.NewAllotmentResponse(created, ""),
			})
		}
		return nil
	})
	if err != nil {
		return shift.AssignShiftResponse{}, fmt.Errorf("failed to assign shift: %w", err)
	}

	for _, ev := range events {
		s.auditor.Emit(ctx, ev)
	}

	return resp, nil
}

func (s *shiftServiceImpl) applyPlan(ctx context.Context, existing Timeline, plan Plan) (shift.Allotment, error) {
	byID := make(map[string]shift.Allotment, len(existing))
	for _, a := range existing {
		byID[a.ID] = a
	}

	for _, id := range plan.Deletes {
		if err := s.allotmentRepo.Delete(ctx, id); err != nil {
			return shift.Allotment{}, err
		}
	}
	for _, tr := range plan.Truncations {
		to := tr.EffectiveTo
		if err := s.allotmentRepo.UpdateRange(ctx, tr.AllotmentID, byID[tr.AllotmentID].EffectiveFrom, &to); err != nil {
			return shift.Allotment{}, err
		}
	}
	for _, rs := range plan.Reschedules {
		if err := s.allotmentRepo.UpdateRange(ctx, rs.AllotmentID, rs.EffectiveFrom, byID[rs.AllotmentID].EffectiveTo); err != nil {
			return shift.Allotment{}, err
		}
	}

	return s.allotmentRepo.Create(ctx, plan.Insert)
}

// ListAllotments implements shift.ShiftService.
func (s *shiftServiceImpl) ListAllotments(ctx context.Context, employeeID string) ([]shift.AllotmentResponse, error) {
	if _, err := s.employeeRepo.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	allotments, err := s.allotmentRepo.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list allotments: %w", err)
	}

	names := make(map[string]string)
	resp := make([]shift.AllotmentResponse, 0, len(allotments))
	for _, a := range allotments {
		name, ok := names[a.ShiftID]
		if !ok {
			def, err := s.shiftRepo.GetByID(ctx, a.ShiftID)
			if err != nil {
				return nil, err
			}
			name = def.Name
			names[a.ShiftID] = name
		}
		resp = append(resp, shift.NewAllotmentResponse(a, name))
	}
	return resp, nil
}

func allotmentResponses(allotments []shift.Allotment) []shift.AllotmentResponse {
	out := make([]shift.AllotmentResponse, 0, len(allotments))
	for _, a := range allotments {
		out = append(out, shift.NewAllotmentResponse(a, ""))
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
