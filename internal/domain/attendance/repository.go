package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/clock"
)

// SessionRepository is the persistence boundary of the attendance core.
// Uniqueness of a session per employee and attendance day is enforced by
// the implementation itself, so concurrent check-ins cannot both succeed.
type SessionRepository interface {
	// Create inserts a new open session. It returns ErrDuplicateCheckIn
	// when the employee already has a session for session.AttendanceDate.
	Create(ctx context.Context, session Session) (Session, error)

	// GetByEmployeeAndDay returns the session whose check-in lies inside
	// window, or ErrSessionNotFound.
	GetByEmployeeAndDay(ctx context.Context, employeeID string, window clock.Window) (Session, error)

	// Close records the check-out only if the session is still open. It
	// returns ErrAlreadyClosed when another request closed it first and
	// ErrSessionNotFound for unknown ids.
	Close(ctx context.Context, req CloseSession) (Session, error)

	// ListOpenBefore returns sessions still open whose check-in is before
	// the given instant, oldest first.
	ListOpenBefore(ctx context.Context, before time.Time) ([]Session, error)
}

// CloseSession describes a check-out write.
type CloseSession struct {
	ID           string
	CheckOutTime time.Time
	Location     *Location

	// ReviewReasons are appended to the session; a non-empty list also
	// sets NeedsReview.
	ReviewReasons []string
}
