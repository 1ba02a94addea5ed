package response

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/validator"
)

// ErrInvalidToken is returned for missing, malformed or revoked tokens.
var ErrInvalidToken = errors.New("invalid token")

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var verificationErr *attendance.VerificationError
	if errors.As(err, &verificationErr) {
		VerificationFailed(w, verificationMessage(verificationErr), verificationDetails(verificationErr))
		return
	}

	switch {
	case errors.Is(err, ErrInvalidToken):
		Unauthorized(w, "Invalid or missing token")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrDuplicateCheckIn):
		Conflict(w, "Already checked in today")
	case errors.Is(err, attendance.ErrNoOpenSession):
		NotFound(w, "No open attendance session for today")
	case errors.Is(err, attendance.ErrAlreadyClosed):
		Conflict(w, "Already checked out today")
	case errors.Is(err, attendance.ErrInvalidCheckOutTime):
		BadRequest(w, "Check-out time must be after check-in time", nil)
	case errors.Is(err, attendance.ErrStoreTimeout):
		slog.Warn("Attendance store timed out", "error", err)
		ServiceUnavailable(w, "Attendance service is busy, please retry", 1)
	case errors.Is(err, attendance.ErrStoreUnavailable):
		slog.Error("Attendance store unavailable", "error", err)
		ServiceUnavailable(w, "Attendance service is temporarily unavailable", 5)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

func verificationMessage(err *attendance.VerificationError) string {
	if errors.Is(err, attendance.ErrFaceRejected) {
		return "Face verification failed"
	}
	return "Location is outside the allowed radius"
}

func verificationDetails(err *attendance.VerificationError) map[string]string {
	details := map[string]string{
		"threshold": strconv.FormatFloat(err.Threshold, 'f', 2, 64),
	}
	if err.Measured != nil {
		details["measured"] = strconv.FormatFloat(*err.Measured, 'f', 2, 64)
	}
	if len(err.Reasons) > 0 {
		details["reasons"] = strings.Join(err.Reasons, ",")
	}
	return details
}
