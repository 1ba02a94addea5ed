package schedule

import "context"

type WorkScheduleRepository interface {
	// GetByDayOfWeek returns the schedule row for an ISO day of week, or
	// ErrWorkScheduleNotFound when the day has no row.
	GetByDayOfWeek(ctx context.Context, dayOfWeek int) (WorkSchedule, error)
}
