package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/presence-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/validator"
)

// maxBodyBytes bounds request bodies; a 1024-value descriptor fits easily.
const maxBodyBytes = 64 << 10

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	Today(w http.ResponseWriter, r *http.Request)
	OpenSession(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	loc               *time.Location
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService, loc *time.Location) AttendanceHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		loc:               loc,
	}
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := middleware.EmployeeID(r.Context())
	if !ok {
		response.HandleError(w, response.ErrInvalidToken)
		return
	}

	var req attendance.CheckInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.Debug("Failed to decode check-in request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.EmployeeID = employeeID

	session, err := h.attendanceService.CheckIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Checked in successfully", attendance.NewSessionResponse(session, h.loc))
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := middleware.EmployeeID(r.Context())
	if !ok {
		response.HandleError(w, response.ErrInvalidToken)
		return
	}

	var req attendance.CheckOutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		slog.Debug("Failed to decode check-out request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.EmployeeID = employeeID

	session, err := h.attendanceService.CheckOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, attendance.NewSessionResponse(session, h.loc))
}

// Today implements AttendanceHandler.
func (h *attendanceHandlerImpl) Today(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := middleware.EmployeeID(r.Context())
	if !ok {
		response.HandleError(w, response.ErrInvalidToken)
		return
	}

	status, err := h.attendanceService.GetTodayStatus(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, status)
}

// OpenSession implements AttendanceHandler. The optional "at" query
// parameter (RFC 3339) selects the attendance day; it defaults to the
// service's current day.
func (h *attendanceHandlerImpl) OpenSession(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := middleware.EmployeeID(r.Context())
	if !ok {
		response.HandleError(w, response.ErrInvalidToken)
		return
	}

	var instant time.Time
	if at := r.URL.Query().Get("at"); at != "" {
		parsed, ok := validator.IsValidDateTime(at)
		if !ok {
			response.HandleError(w, validator.ValidationErrors{{Field: "at", Message: "at must be an RFC 3339 timestamp"}})
			return
		}
		instant = parsed
	}

	session, err := h.attendanceService.GetOpenSession(r.Context(), employeeID, instant)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if session == nil {
		response.Success(w, nil)
		return
	}

	response.Success(w, attendance.NewSessionResponse(*session, h.loc))
}

// decodeJSON reads a bounded JSON body into dst. An empty body leaves dst
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
