package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/clock"
)

const JobReportStaleOpenSessions = "report_stale_open_sessions"

// AttendanceJobs holds background work over attendance sessions. Jobs only
// read; closing a session stays the job of a check-out.
type AttendanceJobs struct {
	sessions attendance.SessionRepository
	days     clock.DaySource
	clock    clock.Clock
	logger   *slog.Logger
}

func NewAttendanceJobs(sessions attendance.SessionRepository, days clock.DaySource, clk clock.Clock, logger *slog.Logger) *AttendanceJobs {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceJobs{
		sessions: sessions,
		days:     days,
		clock:    clk,
		logger:   logger,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, staleScanInterval time.Duration) {
	scheduler.AddJob(JobReportStaleOpenSessions, staleScanInterval, func(ctx context.Context) error {
		_, err := j.ReportStaleOpenSessions(ctx)
		return err
	})
}

// ReportStaleOpenSessions logs every session left open on an earlier
// attendance day and returns them. Such sessions can no longer be checked
// out and need HR follow-up.
func (j *AttendanceJobs) ReportStaleOpenSessions(ctx context.Context) ([]attendance.Session, error) {
	today := j.days.DayWindow(j.clock.Now())

	stale, err := j.sessions.ListOpenBefore(ctx, today.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale open sessions: %w", err)
	}

	if len(stale) == 0 {
		j.logger.Debug("Cron: No stale open sessions")
		return nil, nil
	}

	for _, s := range stale {
		j.logger.Warn("Cron: Attendance session never checked out",
			slog.String("session_id", s.ID),
			slog.String("employee_id", s.EmployeeID),
			slog.String("attendance_date", s.AttendanceDate.Format("2006-01-02")),
			slog.Time("check_in_time", s.CheckInTime.In(j.days.Location())),
		)
	}

	j.logger.Info("Cron: Stale open sessions reported", slog.Int("count", len(stale)))

	return stale, nil
}
