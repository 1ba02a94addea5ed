package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type workScheduleRepository struct {
	db *database.DB
}

func NewWorkScheduleRepository(db *database.DB) schedule.WorkScheduleRepository {
	return &workScheduleRepository{db: db}
}

// GetByDayOfWeek implements schedule.WorkScheduleRepository.
func (r *workScheduleRepository) GetByDayOfWeek(ctx context.Context, dayOfWeek int) (schedule.WorkSchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, day_of_week, start_time, end_time,
			   on_time_end_time, tolerance_start_time, tolerance_end_time,
			   late_tolerance_minutes, is_active, created_at, updated_at
		FROM work_schedules
		WHERE day_of_week = $1
	`

	var (
		ws                          schedule.WorkSchedule
		start, end                  pgtype.Time
		onTimeEnd, tolStart, tolEnd pgtype.Time
	)
	err := q.QueryRow(ctx, query, dayOfWeek).Scan(
		&ws.ID, &ws.DayOfWeek, &start, &end,
		&onTimeEnd, &tolStart, &tolEnd,
		&ws.LateToleranceMinutes, &ws.IsActive, &ws.CreatedAt, &ws.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.WorkSchedule{}, schedule.ErrWorkScheduleNotFound
		}
		return schedule.WorkSchedule{}, fmt.Errorf("failed to get work schedule: %w", classify(err))
	}

	ws.StartTime = timeOfDay(start)
	ws.EndTime = timeOfDay(end)
	ws.OnTimeEndTime = optionalTimeOfDay(onTimeEnd)
	ws.ToleranceStartTime = optionalTimeOfDay(tolStart)
	ws.ToleranceEndTime = optionalTimeOfDay(tolEnd)

	return ws, nil
}

// pgtype.Time holds microseconds since midnight.
func timeOfDay(t pgtype.Time) schedule.TimeOfDay {
	return schedule.TimeOfDay(time.Duration(t.Microseconds) * time.Microsecond)
}

func optionalTimeOfDay(t pgtype.Time) *schedule.TimeOfDay {
	if !t.Valid {
		return nil
	}
	tod := timeOfDay(t)
	return &tod
}
