package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/clock"
)

// Classification is the punctuality verdict for a check-in.
type Classification struct {
	Status      attendance.Status
	LateMinutes int
	Reasons     []string
}

// ScheduleEvaluator classifies check-ins against the weekly work schedule.
type ScheduleEvaluator struct {
	schedules    schedule.WorkScheduleRepository
	days         clock.DaySource
	dayOffStatus attendance.Status
}

func NewScheduleEvaluator(scheduleRepo schedule.WorkScheduleRepository, days clock.DaySource, dayOffStatus attendance.Status) *ScheduleEvaluator {
	if dayOffStatus == "" {
		dayOffStatus = attendance.StatusPresent
	}
	return &ScheduleEvaluator{
		schedules:    scheduleRepo,
		days:         days,
		dayOffStatus: dayOffStatus,
	}
}

// Evaluate loads the schedule for the local weekday of instant and
// classifies it.
func (e *ScheduleEvaluator) Evaluate(ctx context.Context, instant time.Time) (Classification, error) {
	local := e.days.Local(instant)

	row, err := e.schedules.GetByDayOfWeek(ctx, clock.ISOWeekday(local))
	if err != nil {
		if errors.Is(err, schedule.ErrWorkScheduleNotFound) {
			return Classify(local, nil, e.dayOffStatus), nil
		}
		return Classification{}, fmt.Errorf("failed to get work schedule: %w", err)
	}

	return Classify(local, &row, e.dayOffStatus), nil
}

// Classify is the pure punctuality rule. local must already be expressed in
// the attendance timezone. Comparison is at full precision, so 08:15:30 is
// after an on-time boundary of 08:15.
func Classify(local time.Time, row *schedule.WorkSchedule, dayOffStatus attendance.Status) Classification {
	if row == nil || !row.IsActive {
		return Classification{
			Status:  dayOffStatus,
			Reasons: []string{attendance.ReasonNoSchedule},
		}
	}

	tod := schedule.TimeOfDayOf(local)

	if tod <= row.OnTimeBoundary() {
		return Classification{Status: attendance.StatusPresent}
	}

	if row.HasToleranceWindow() && tod >= *row.ToleranceStartTime && tod <= *row.ToleranceEndTime {
		return Classification{Status: attendance.StatusPresent}
	}

	lateMinutes := int((tod - row.StartTime).Duration() / time.Minute)
	if lateMinutes < 0 {
		lateMinutes = 0
	}

	result := Classification{
		Status:      attendance.StatusLate,
		LateMinutes: lateMinutes,
	}

	// Overnight shifts end on the next day, so the same-day comparison
	// only applies when the shift ends after it starts.
	if row.EndTime > row.StartTime && tod >= row.EndTime {
		result.Reasons = append(result.Reasons, attendance.ReasonCheckedInAfterShiftEnd)
	}

	return result
}
