package schedule

import "errors"

var (
	// Work Schedule Errors
	ErrWorkScheduleNotFound = errors.New("work schedule not found")

	// Time-of-day Errors
	ErrInvalidTimeOfDay = errors.New("invalid time of day, use HH:MM or HH:MM:SS")
)
