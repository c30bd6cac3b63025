package employee

import "github.com/cmlabs-hris/flexi-attendance/internal/pkg/apperr"

var (
	ErrEmployeeNotFound   = apperr.NotFound("EMPLOYEE_NOT_FOUND", "employee not found")
	ErrEmployeeCodeExists = apperr.Conflict("EMPLOYEE_CODE_EXISTS", "employee code already exists")
	ErrEmployeeInactive   = apperr.State("EMPLOYEE_INACTIVE", "employee is not active")
)
