package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
)

type attendanceRepository struct {
	s *Store
}

// LockDay is a no-op: the store already serialises transactions.
func (r *attendanceRepository) LockDay(context.Context, string, time.Time) error {
	return nil
}

func (r *attendanceRepository) GetByEmployeeAndDate(_ context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	var (
		rec attendance.Record
		ok  bool
	)
	r.s.read(func(d *dataset) {
		var id string
		if id, ok = d.recordIndex[dayKey{employeeID, timeliteral.DateOf(date)}]; ok {
			rec = d.records[id]
		}
	})
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *attendanceRepository) Create(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	id, err := newID()
	if err != nil {
		return attendance.Record{}, err
	}
	r.s.write(func(d *dataset) {
		key := dayKey{rec.EmployeeID, timeliteral.DateOf(rec.Date)}
		if existing, found := d.recordIndex[key]; found {
			rec = d.records[existing]
			return
		}
		rec.ID = id
		rec.Date = key.date
		rec.CreatedAt = r.s.stamp()
		rec.UpdatedAt = rec.CreatedAt
		d.records[id] = rec
		d.recordIndex[key] = id
	})
	return rec, nil
}

func (r *attendanceRepository) Update(_ context.Context, rec attendance.Record) error {
	var ok bool
	r.s.write(func(d *dataset) {
		var existing attendance.Record
		if existing, ok = d.records[rec.ID]; !ok {
			return
		}
		rec.EmployeeID = existing.EmployeeID
		rec.Date = existing.Date
		rec.CreatedAt = existing.CreatedAt
		rec.UpdatedAt = r.s.stamp()
		d.records[rec.ID] = rec
	})
	if !ok {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

func (r *attendanceRepository) ListByRange(_ context.Context, from, to time.Time, employeeID *string) ([]attendance.Record, error) {
	from, to = timeliteral.DateOf(from), timeliteral.DateOf(to)

	var out []attendance.Record
	r.s.read(func(d *dataset) {
		for _, rec := range d.records {
			if rec.Date.Before(from) || rec.Date.After(to) {
				continue
			}
			if employeeID != nil && rec.EmployeeID != *employeeID {
				continue
			}
			out = append(out, rec)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}
