package attendance

import (
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/validator"
)

// MaxDescriptorLength bounds the face descriptor accepted from clients.
const MaxDescriptorLength = 1024

// ========================================
// ATTENDANCE DTOs
// ========================================

type CheckInRequest struct {
	EmployeeID     string    `json:"-"`
	FaceDescriptor []float64 `json:"face_descriptor,omitempty"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
}

func (r *CheckInRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	errs = append(errs, validateCoordinates(r.Latitude, r.Longitude)...)

	if len(r.FaceDescriptor) > MaxDescriptorLength {
		errs = append(errs, validator.ValidationError{
			Field:   "face_descriptor",
			Message: "face_descriptor must not exceed 1024 values",
		})
	} else if !validator.AllFinite(r.FaceDescriptor) {
		errs = append(errs, validator.ValidationError{
			Field:   "face_descriptor",
			Message: "face_descriptor must contain only finite numbers",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Location returns the reported point, or nil when none was sent.
func (r *CheckInRequest) Location() *Location {
	return locationOf(r.Latitude, r.Longitude)
}

type CheckOutRequest struct {
	EmployeeID string   `json:"-"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

func (r *CheckOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	errs = append(errs, validateCoordinates(r.Latitude, r.Longitude)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func (r *CheckOutRequest) Location() *Location {
	return locationOf(r.Latitude, r.Longitude)
}

func validateCoordinates(lat, lng *float64) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if (lat == nil) != (lng == nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "location",
			Message: "latitude and longitude must be sent together",
		})
		return errs
	}

	if lat != nil && !validator.IsValidLatitude(*lat) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if lng != nil && !validator.IsValidLongitude(*lng) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	return errs
}

type SessionResponse struct {
	ID                string   `json:"id"`
	EmployeeID        string   `json:"employee_id"`
	AttendanceDate    string   `json:"attendance_date"`
	CheckInTime       string   `json:"check_in_time"`
	CheckInLatitude   *float64 `json:"check_in_latitude,omitempty"`
	CheckInLongitude  *float64 `json:"check_in_longitude,omitempty"`
	CheckOutTime      *string  `json:"check_out_time,omitempty"`
	CheckOutLatitude  *float64 `json:"check_out_latitude,omitempty"`
	CheckOutLongitude *float64 `json:"check_out_longitude,omitempty"`
	FaceMatchScore    *float64 `json:"face_match_score,omitempty"`
	OfficeLocationID  *string  `json:"office_location_id,omitempty"`
	Status            string   `json:"status"`
	LateMinutes       int      `json:"late_minutes"`
	WorkingMinutes    *int     `json:"working_minutes,omitempty"`
	NeedsReview       bool     `json:"needs_review"`
	ReviewReasons     []string `json:"review_reasons,omitempty"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
}

// NewSessionResponse renders s with instants in loc.
func NewSessionResponse(s Session, loc *time.Location) SessionResponse {
	resp := SessionResponse{
		ID:                s.ID,
		EmployeeID:        s.EmployeeID,
		AttendanceDate:    s.AttendanceDate.Format("2006-01-02"),
		CheckInTime:       s.CheckInTime.In(loc).Format(time.RFC3339),
		CheckInLatitude:   s.CheckInLatitude,
		CheckInLongitude:  s.CheckInLongitude,
		CheckOutLatitude:  s.CheckOutLatitude,
		CheckOutLongitude: s.CheckOutLongitude,
		FaceMatchScore:    s.FaceMatchScore,
		OfficeLocationID:  s.OfficeLocationID,
		Status:            string(s.Status),
		LateMinutes:       s.LateMinutes,
		NeedsReview:       s.NeedsReview,
		ReviewReasons:     s.ReviewReasons,
		CreatedAt:         s.CreatedAt.In(loc).Format(time.RFC3339),
		UpdatedAt:         s.UpdatedAt.In(loc).Format(time.RFC3339),
	}

	if s.CheckOutTime != nil {
		out := s.CheckOutTime.In(loc).Format(time.RFC3339)
		resp.CheckOutTime = &out
		minutes := int(s.CheckOutTime.Sub(s.CheckInTime).Minutes())
		resp.WorkingMinutes = &minutes
	}

	return resp
}

// ========================================
// ATTENDANCE STATUS DTOs
// ========================================

type TodayStatusResponse struct {
	Date           string           `json:"date"`
	HasCheckedIn   bool             `json:"has_checked_in"`
	HasOpenSession bool             `json:"has_open_session"`
	CanCheckIn     bool             `json:"can_check_in"`
	CanCheckOut    bool             `json:"can_check_out"`
	Session        *SessionResponse `json:"session,omitempty"`
	Message        string           `json:"message"`
}
