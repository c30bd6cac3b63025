package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/employee"
)

type employeeRepository struct {
	s *Store
}

func (r *employeeRepository) Create(_ context.Context, e employee.Employee) (employee.Employee, error) {
	id, err := newID()
	if err != nil {
		return employee.Employee{}, err
	}

	var dup bool
	r.s.write(func(d *dataset) {
		for _, existing := range d.employees {
			if existing.Code == e.Code {
				dup = true
				return
			}
		}
		e.ID = id
		e.CreatedAt = r.s.stamp()
		e.UpdatedAt = e.CreatedAt
		d.employees[id] = e
	})
	if dup {
		return employee.Employee{}, employee.ErrEmployeeCodeExists
	}
	return e, nil
}

func (r *employeeRepository) GetByID(_ context.Context, id string) (employee.Employee, error) {
	var (
		e  employee.Employee
		ok bool
	)
	r.s.read(func(d *dataset) { e, ok = d.employees[id] })
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *employeeRepository) GetByEmployeeCode(_ context.Context, code string) (employee.Employee, error) {
	var (
		found employee.Employee
		ok    bool
	)
	r.s.read(func(d *dataset) {
		for _, e := range d.employees {
			if e.Code == code {
				found, ok = e, true
				return
			}
		}
	})
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return found, nil
}

func (r *employeeRepository) List(_ context.Context, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	var matched []employee.Employee
	r.s.read(func(d *dataset) {
		for _, e := range d.employees {
			if filter.EmploymentStatus != nil && *filter.EmploymentStatus != "" &&
				string(e.EmploymentStatus) != *filter.EmploymentStatus {
				continue
			}
			if filter.Search != nil && *filter.Search != "" {
				needle := strings.ToLower(*filter.Search)
				hay := strings.ToLower(e.Code + " " + e.FirstName + " " + e.LastName)
				if !strings.Contains(hay, needle) {
					continue
				}
			}
			matched = append(matched, e)
		}
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].Code < matched[j].Code })

	total := int64(len(matched))
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = len(matched)
	}
	start := (page - 1) * limit
	if start >= len(matched) {
		return []employee.Employee{}, total, nil
	}
	end := min(start+limit, len(matched))
	return matched[start:end], total, nil
}

func (r *employeeRepository) GetActiveIDs(_ context.Context) ([]string, error) {
	var active []employee.Employee
	r.s.read(func(d *dataset) {
		for _, e := range d.employees {
			if e.EmploymentStatus == employee.EmploymentStatusActive {
				active = append(active, e)
			}
		}
	})
	sort.Slice(active, func(i, j int) bool { return active[i].Code < active[j].Code })

	ids := make([]string, len(active))
	for i, e := range active {
		ids[i] = e.ID
	}
	return ids, nil
}
