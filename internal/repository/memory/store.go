// Package memory keeps every repository in process memory. Transactions are
// serialised store-wide and roll back by restoring a snapshot, which makes it
// suitable for tests and single-node demos.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/flexi-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/flexi-attendance/internal/domain/shift"
	"github.com/google/uuid"
)

type txKey struct{}

type dayKey struct {
	employeeID string
	date       time.Time
}

type dataset struct {
	employees   map[string]employee.Employee
	shifts      map[string]shift.ShiftDefinition
	shiftDays   map[string]map[shift.Weekday]bool
	overrides   map[string]map[shift.Weekday]shift.DayOverride
	allotments  map[string]shift.Allotment
	records     map[string]attendance.Record
	recordIndex map[dayKey]string
}

func newDataset() *dataset {
	return &dataset{
		employees:   make(map[string]employee.Employee),
		shifts:      make(map[string]shift.ShiftDefinition),
		shiftDays:   make(map[string]map[shift.Weekday]bool),
		overrides:   make(map[string]map[shift.Weekday]shift.DayOverride),
		allotments:  make(map[string]shift.Allotment),
		records:     make(map[string]attendance.Record),
		recordIndex: make(map[dayKey]string),
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		employees:   maps.Clone(d.employees),
		shifts:      maps.Clone(d.shifts),
		shiftDays:   make(map[string]map[shift.Weekday]bool, len(d.shiftDays)),
		overrides:   make(map[string]map[shift.Weekday]shift.DayOverride, len(d.overrides)),
		allotments:  maps.Clone(d.allotments),
		records:     maps.Clone(d.records),
		recordIndex: maps.Clone(d.recordIndex),
	}
	for id, days := range d.shiftDays {
		c.shiftDays[id] = maps.Clone(days)
	}
	for id, o := range d.overrides {
		c.overrides[id] = maps.Clone(o)
	}
	return c
}

type Store struct {
	// txMu is held for the whole of a transaction.
	txMu sync.Mutex
	mu   sync.RWMutex
	data *dataset
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{data: newDataset(), now: time.Now}
}

// WithinTransaction implements database.Transactor.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) read(fn func(d *dataset)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

func (s *Store) write(fn func(d *dataset)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

func (s *Store) stamp() time.Time {
	return s.now().UTC()
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Repositories bundles the repository set backed by one Store.
type Repositories struct {
	Store      *Store
	Employees  employee.EmployeeRepository
	Shifts     shift.ShiftRepository
	Allotments shift.AllotmentRepository
	Attendance attendance.AttendanceRepository
}

func NewRepositories() Repositories {
	s := NewStore()
	return Repositories{
		Store:      s,
		Employees:  &employeeRepository{s},
		Shifts:     &shiftRepository{s},
		Allotments: &allotmentRepository{s},
		Attendance: &attendanceRepository{s},
	}
}
