package attendance

import (
	"context"
	"time"
)

// AttendanceService is the attendance session state machine.
type AttendanceService interface {
	// CheckIn opens today's session after identity and location checks.
	CheckIn(ctx context.Context, req CheckInRequest) (Session, error)

	// CheckOut closes today's open session.
	CheckOut(ctx context.Context, req CheckOutRequest) (Session, error)

	// GetOpenSession returns the open session of the attendance day that
	// contains instant, or nil when there is none. A zero instant means now.
	GetOpenSession(ctx context.Context, employeeID string, instant time.Time) (*Session, error)

	// GetTodayStatus summarises what the employee can do right now.
	GetTodayStatus(ctx context.Context, employeeID string) (TodayStatusResponse, error)
}
