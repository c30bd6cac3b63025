package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/flexi-attendance/internal/domain/shift"
	"github.com/cmlabs-hris/flexi-attendance/internal/handler/http/response"
)

type EmployeeHandler interface {
	ListEmployees(w http.ResponseWriter, r *http.Request)
	CreateEmployee(w http.ResponseWriter, r *http.Request)
	ResolveShift(w http.ResponseWriter, r *http.Request)
	ListAllotments(w http.ResponseWriter, r *http.Request)
}

type employeeHandlerImpl struct {
	employeeService employee.EmployeeService
	shiftService    shift.ShiftService
	now             func() time.Time
}

func NewEmployeeHandler(employeeService employee.EmployeeService, shiftService shift.ShiftService, now func() time.Time) EmployeeHandler {
	if now == nil {
		now = time.Now
	}
	return &employeeHandlerImpl{
		employeeService: employeeService,
		shiftService:    shiftService,
		now:             now,
	}
}

// CreateEmployee implements EmployeeHandler
func (h *employeeHandlerImpl) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employee.CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.employeeService.CreateEmployee(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Employee created successfully", result)
}

// ListEmployees implements EmployeeHandler
func (h *employeeHandlerImpl) ListEmployees(w http.ResponseWriter, r *http.Request) {
	filter := employee.EmployeeFilter{}

	if search := r.URL.Query().Get("search"); search != "" {
		filter.Search = &search
	}
	if employmentStatus := r.URL.Query().Get("employment_status"); employmentStatus != "" {
		filter.EmploymentStatus = &employmentStatus
	}

	// Pagination
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}
	filter.Page = page

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if limitNum, err := strconv.Atoi(l); err == nil && limitNum > 0 {
			limit = limitNum
		}
	}
	filter.Limit = limit

	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.employeeService.ListEmployees(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Employees, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
		Showing:    result.Showing,
	})
}

// ResolveShift implements EmployeeHandler. Without ?date= it resolves today.
func (h *employeeHandlerImpl) ResolveShift(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, employee.ErrEmployeeNotFound)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	date, ok := dateQueryParam(r, "date", h.now())
	if !ok {
		response.BadRequest(w, "Invalid date", map[string]string{"date": "date must be in YYYY-MM-DD format"})
		return
	}

	if _, err := h.employeeService.GetEmployee(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}

	resolved, err := h.shiftService.ResolveShift(r.Context(), id, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, shift.NewResolvedShiftResponse(date, resolved))
}

// ListAllotments implements EmployeeHandler
func (h *employeeHandlerImpl) ListAllotments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, employee.ErrEmployeeNotFound)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.shiftService.ListAllotments(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
