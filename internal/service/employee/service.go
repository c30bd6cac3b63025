package employee

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/audit"
)

type EmployeeServiceImpl struct {
	employeeRepo employee.EmployeeRepository
	auditor      audit.Emitter
}

func NewEmployeeService(employeeRepo employee.EmployeeRepository, auditor audit.Emitter) employee.EmployeeService {
	if auditor == nil {
		auditor = audit.Discard{}
	}
	return &EmployeeServiceImpl{
		employeeRepo: employeeRepo,
		auditor:      auditor,
	}
}

// GetEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetEmployee(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return employee.NewEmployeeResponse(emp), nil
}

// CreateEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) CreateEmployee(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	newEmployee := employee.Employee{
		Code:             strings.TrimSpace(req.Code),
		FirstName:        strings.TrimSpace(req.FirstName),
		MiddleName:       req.MiddleName,
		LastName:         strings.TrimSpace(req.LastName),
		EmploymentStatus: employee.EmploymentStatus(req.EmploymentStatus),
	}

	created, err := s.employeeRepo.Create(ctx, newEmployee)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to create employee: %w", err)
	}

	resp := employee.NewEmployeeResponse(created)
	s.auditor.Emit(ctx, audit.Event{
		Action:    audit.ActionCreate,
		TableName: "employees",
		RecordID:  created.ID,
		After:     resp,
	})

	return resp, nil
}

// ListEmployees implements employee.EmployeeService.
func (s *EmployeeServiceImpl) ListEmployees(ctx context.Context, filter employee.EmployeeFilter) (employee.ListEmployeeResponse, error) {
	if err := filter.Validate(); err != nil {
		return employee.ListEmployeeResponse{}, err
	}

	employees, total, err := s.employeeRepo.List(ctx, filter)
	if err != nil {
		return employee.ListEmployeeResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	responses := make([]employee.EmployeeResponse, 0, len(employees))
	for _, emp := range employees {
		responses = append(responses, employee.NewEmployeeResponse(emp))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return employee.ListEmployeeResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Employees:  responses,
	}, nil
}
