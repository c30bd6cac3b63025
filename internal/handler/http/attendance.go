package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/flexi-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/flexi-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/flexi-attendance/internal/handler/http/response"
	"github.com/cmlabs-hris/flexi-attendance/internal/pkg/timeliteral"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AttendanceHandler interface {
	Log(w http.ResponseWriter, r *http.Request)
	Scan(w http.ResponseWriter, r *http.Request)
	Today(w http.ResponseWriter, r *http.Request)
	Report(w http.ResponseWriter, r *http.Request)
	ExportReport(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	now               func() time.Time
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService, now func() time.Time) AttendanceHandler {
	if now == nil {
		now = time.Now
	}
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		now:               now,
	}
}

// Log implements AttendanceHandler. The punch time is the server clock at
// receipt; clients only name the slot.
func (h *attendanceHandlerImpl) Log(w http.ResponseWriter, r *http.Request) {
	var req attendance.LogPunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.LogAttendance(r.Context(), req, h.now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Attendance logged successfully", result)
}

// Scan implements AttendanceHandler
func (h *attendanceHandlerImpl) Scan(w http.ResponseWriter, r *http.Request) {
	var req attendance.AutoDetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.AutoDetectPunch(r.Context(), req, h.now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	slog.Debug("Punch detected", "employee_code", result.EmployeeCode, "log_type", result.LogType)
	response.Created(w, "Attendance logged successfully", result)
}

// Today implements AttendanceHandler
func (h *attendanceHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	date, ok := dateQueryParam(r, "date", h.now())
	if !ok {
		response.BadRequest(w, "Invalid date", map[string]string{"date": "date must be in YYYY-MM-DD format"})
		return
	}

	result, err := h.attendanceService.ListDailySummaries(r.Context(), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Report implements AttendanceHandler
func (h *attendanceHandlerImpl) Report(w http.ResponseWriter, r *http.Request) {
	filter, err := reportFilterFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.Report(r.Context(), filter, h.now())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ExportReport implements AttendanceHandler. The workbook is buffered so a
// failure can still be reported as JSON.
func (h *attendanceHandlerImpl) ExportReport(w http.ResponseWriter, r *http.Request) {
	filter, err := reportFilterFromQuery(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	now := h.now()

	var buf bytes.Buffer
	if err := h.attendanceService.ExportReport(r.Context(), filter, now, &buf); err != nil {
		response.HandleError(w, err)
		return
	}

	filename := "attendance-report.xlsx"
	if from, to, err := filter.Bounds(now); err == nil {
		filename = fmt.Sprintf("attendance-%s_%s.xlsx", timeliteral.FormatDate(from), timeliteral.FormatDate(to))
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("Failed to write report export", "error", err)
	}
}

func reportFilterFromQuery(r *http.Request) (attendance.ReportFilter, error) {
	filter := attendance.ReportFilter{
		Range:      r.URL.Query().Get("range"),
		Anchor:     optionalQueryParam(r, "anchor"),
		From:       optionalQueryParam(r, "from"),
		To:         optionalQueryParam(r, "to"),
		EmployeeID: optionalQueryParam(r, "employee_id"),
	}
	if filter.EmployeeID != nil {
		if err := checkID(*filter.EmployeeID, employee.ErrEmployeeNotFound); err != nil {
			return attendance.ReportFilter{}, err
		}
	}
	return filter, nil
}
