package attendance

import (
	"errors"
	"fmt"
)

// Attendance domain errors
var (
	// Check-in errors
	ErrDuplicateCheckIn = errors.New("already checked in for this attendance day")
	ErrFaceRejected     = errors.New("face verification failed")
	ErrLocationRejected = errors.New("outside the allowed radius")

	// Check-out errors
	ErrNoOpenSession       = errors.New("no open attendance session for today")
	ErrAlreadyClosed       = errors.New("attendance session already checked out")
	ErrInvalidCheckOutTime = errors.New("check-out time must be after check-in time")

	// Store errors
	ErrSessionNotFound  = errors.New("attendance session not found")
	ErrStoreTimeout     = errors.New("attendance store timed out")
	ErrStoreUnavailable = errors.New("attendance store unavailable")
)

// VerificationError carries the measured value and the threshold that
// rejected a transition. It unwraps to ErrFaceRejected or
// ErrLocationRejected.
type VerificationError struct {
	Err error

	// Measured is the face score (percent) or the distance (meters). Nil
	// when nothing could be measured, e.g. no location was sent.
	Measured *float64

	// Threshold is the minimum score or the maximum distance that applied.
	Threshold float64

	Reasons []string
}

func (e *VerificationError) Error() string {
	if e.Measured == nil {
		return fmt.Sprintf("%s (threshold %.2f)", e.Err, e.Threshold)
	}
	return fmt.Sprintf("%s (measured %.2f, threshold %.2f)", e.Err, *e.Measured, e.Threshold)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is an infrastructure failure that may
// succeed when the request is repeated.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreTimeout) || errors.Is(err, ErrStoreUnavailable)
}
