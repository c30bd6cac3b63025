package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/shift"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
)

type allotmentRepository struct {
	s *Store
}

func (r *allotmentRepository) Create(_ context.Context, a shift.Allotment) (shift.Allotment, error) {
	id, err := newID()
	if err != nil {
		return shift.Allotment{}, err
	}
	r.s.write(func(d *dataset) {
		a.ID = id
		a.EffectiveFrom = timeliteral.DateOf(a.EffectiveFrom)
		if a.EffectiveTo != nil {
			to := timeliteral.DateOf(*a.EffectiveTo)
			a.EffectiveTo = &to
		}
		a.CreatedAt = r.s.stamp()
		a.UpdatedAt = a.CreatedAt
		d.allotments[id] = a
	})
	return a, nil
}

func (r *allotmentRepository) collect(match func(shift.Allotment) bool) []shift.Allotment {
	var out []shift.Allotment
	r.s.read(func(d *dataset) {
		for _, a := range d.allotments {
			if match(a) {
				out = append(out, a)
			}
		}
	})
	// uuid v7 ids sort by creation time.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveFrom.Equal(out[j].EffectiveFrom) {
			return out[i].EffectiveFrom.Before(out[j].EffectiveFrom)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *allotmentRepository) GetByEmployeeID(_ context.Context, employeeID string) ([]shift.Allotment, error) {
	return r.collect(func(a shift.Allotment) bool { return a.EmployeeID == employeeID }), nil
}

func (r *allotmentRepository) CoveringDate(_ context.Context, employeeID string, date time.Time) ([]shift.Allotment, error) {
	out := r.collect(func(a shift.Allotment) bool { return a.EmployeeID == employeeID && a.Covers(date) })
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *allotmentRepository) UpdateRange(_ context.Context, id string, effectiveFrom time.Time, effectiveTo *time.Time) error {
	var ok bool
	r.s.write(func(d *dataset) {
		var a shift.Allotment
		if a, ok = d.allotments[id]; !ok {
			return
		}
		a.EffectiveFrom = timeliteral.DateOf(effectiveFrom)
		a.EffectiveTo = nil
		if effectiveTo != nil {
			to := timeliteral.DateOf(*effectiveTo)
			a.EffectiveTo = &to
		}
		a.UpdatedAt = r.s.stamp()
		d.allotments[id] = a
	})
	if !ok {
		return shift.ErrAllotmentNotFound
	}
	return nil
}

func (r *allotmentRepository) Delete(_ context.Context, id string) error {
	var ok bool
	r.s.write(func(d *dataset) {
		if _, ok = d.allotments[id]; ok {
			delete(d.allotments, id)
		}
	})
	if !ok {
		return shift.ErrAllotmentNotFound
	}
	return nil
}

func (r *allotmentRepository) DeleteByShiftID(_ context.Context, shiftID string) (int64, error) {
	var n int64
	r.s.write(func(d *dataset) {
		for id, a := range d.allotments {
			if a.ShiftID == shiftID {
				delete(d.allotments, id)
				n++
			}
		}
	})
	return n, nil
}

// LockEmployee is a no-op: the store already serialises transactions.
func (r *allotmentRepository) LockEmployee(context.Context, string) error {
	return nil
}
