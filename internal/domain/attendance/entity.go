package attendance

import (
	"time"
)

// Session is one attendance day of one employee: opened by a check-in and
// closed, at most once, by a check-out.
type Session struct {
	ID                string
	EmployeeID        string
	AttendanceDate    time.Time // civil date of the day window, midnight UTC
	CheckInTime       time.Time
	CheckInLatitude   *float64
	CheckInLongitude  *float64
	CheckOutTime      *time.Time
	CheckOutLatitude  *float64
	CheckOutLongitude *float64
	FaceMatchScore    *float64
	OfficeLocationID  *string
	Status            Status
	LateMinutes       int
	NeedsReview       bool
	ReviewReasons     []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsOpen reports whether the session still waits for a check-out.
func (s Session) IsOpen() bool {
	return s.CheckOutTime == nil
}

// CheckInLocation returns the recorded check-in point, if any.
func (s Session) CheckInLocation() *Location {
	return locationOf(s.CheckInLatitude, s.CheckInLongitude)
}

// CheckOutLocation returns the recorded check-out point, if any.
func (s Session) CheckOutLocation() *Location {
	return locationOf(s.CheckOutLatitude, s.CheckOutLongitude)
}

func locationOf(lat, lng *float64) *Location {
	if lat == nil || lng == nil {
		return nil
	}
	return &Location{Latitude: *lat, Longitude: *lng}
}

// Status of an attendance day.
type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"

	// Set by other collaborators (leave approval, absence jobs), never by
	// check-in.
	StatusAbsent  Status = "absent"
	StatusOnLeave Status = "on_leave"
)

// CheckInStatusValues are the statuses a check-in may write.
var CheckInStatusValues = []string{
	string(StatusPresent),
	string(StatusLate),
}

// Location is a WGS84 coordinate reported by the client device.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Review reasons recorded on a session when something needs a human look.
const (
	ReasonFaceBelowThreshold      = "face_below_threshold"
	ReasonFaceMissing             = "face_missing"
	ReasonFaceNotRegistered       = "face_not_registered"
	ReasonFaceDescriptorMismatch  = "face_descriptor_mismatch"
	ReasonLocationMissing         = "location_missing"
	ReasonOutsideGeofence         = "outside_geofence"
	ReasonGeofenceNotConfigured   = "geofence_not_configured"
	ReasonNoSchedule              = "no_schedule"
	ReasonCheckedInAfterShiftEnd  = "checked_in_after_shift_end"
	ReasonCheckOutOutsideGeofence = "check_out_outside_geofence"
	ReasonCheckOutLocationMissing = "check_out_location_missing"
)
