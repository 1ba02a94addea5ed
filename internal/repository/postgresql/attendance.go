package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation = "23505"

	sessionEmployeeDayConstraint = "attendance_sessions_employee_day_unique"
)

const sessionColumns = `
	id, employee_id, attendance_date,
	check_in_time, check_in_latitude, check_in_longitude,
	check_out_time, check_out_latitude, check_out_longitude,
	face_match_score, office_location_id,
	status, late_minutes, needs_review, review_reasons,
	created_at, updated_at`

type sessionRepository struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) attendance.SessionRepository {
	return &sessionRepository{db: db}
}

// Create implements attendance.SessionRepository.
func (r *sessionRepository) Create(ctx context.Context, session attendance.Session) (attendance.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_sessions (
			id, employee_id, attendance_date,
			check_in_time, check_in_latitude, check_in_longitude,
			face_match_score, office_location_id,
			status, late_minutes, needs_review, review_reasons
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING` + sessionColumns

	reasons := session.ReviewReasons
	if reasons == nil {
		reasons = []string{}
	}

	created, err := scanSession(q.QueryRow(ctx, query,
		session.ID,
		session.EmployeeID,
		session.AttendanceDate,
		session.CheckInTime,
		session.CheckInLatitude,
		session.CheckInLongitude,
		session.FaceMatchScore,
		session.OfficeLocationID,
		session.Status,
		session.LateMinutes,
		session.NeedsReview,
		reasons,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == sessionEmployeeDayConstraint {
			return attendance.Session{}, attendance.ErrDuplicateCheckIn
		}
		return attendance.Session{}, fmt.Errorf("failed to create attendance session: %w", classify(err))
	}

	return created, nil
}

// GetByEmployeeAndDay implements attendance.SessionRepository.
func (r *sessionRepository) GetByEmployeeAndDay(ctx context.Context, employeeID string, window clock.Window) (attendance.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT` + sessionColumns + `
		FROM attendance_sessions
		WHERE employee_id = $1
		  AND check_in_time >= $2
		  AND check_in_time < $3
		ORDER BY check_in_time
		LIMIT 1
	`

	session, err := scanSession(q.QueryRow(ctx, query, employeeID, window.Start, window.End))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Session{}, attendance.ErrSessionNotFound
		}
		return attendance.Session{}, fmt.Errorf("failed to get attendance session: %w", classify(err))
	}

	return session, nil
}

// Close implements attendance.SessionRepository. The update only matches an
// open row, so of two concurrent check-outs exactly one succeeds.
func (r *sessionRepository) Close(ctx context.Context, req attendance.CloseSession) (attendance.Session, error) {
	q := GetQuerier(ctx, r.db)

	var lat, lng *float64
	if req.Location != nil {
		lat, lng = &req.Location.Latitude, &req.Location.Longitude
	}

	reasons := req.ReviewReasons
	if reasons == nil {
		reasons = []string{}
	}

	query := `
		UPDATE attendance_sessions
		SET check_out_time = $2,
			check_out_latitude = $3,
			check_out_longitude = $4,
			review_reasons = review_reasons || $5::text[],
			needs_review = needs_review OR cardinality($5::text[]) > 0,
			updated_at = NOW()
		WHERE id = $1
		  AND check_out_time IS NULL
		RETURNING` + sessionColumns

	session, err := scanSession(q.QueryRow(ctx, query, req.ID, req.CheckOutTime, lat, lng, reasons))
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return attendance.Session{}, fmt.Errorf("failed to close attendance session: %w", classify(err))
	}

	// Nothing matched: either the row is gone or it is already closed.
	var closed bool
	err = q.QueryRow(ctx, `SELECT check_out_time IS NOT NULL FROM attendance_sessions WHERE id = $1`, req.ID).Scan(&closed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Session{}, attendance.ErrSessionNotFound
		}
		return attendance.Session{}, fmt.Errorf("failed to check attendance session state: %w", classify(err))
	}
	if closed {
		return attendance.Session{}, attendance.ErrAlreadyClosed
	}

	return attendance.Session{}, fmt.Errorf("attendance session %s was not closed", req.ID)
}

// ListOpenBefore implements attendance.SessionRepository.
func (r *sessionRepository) ListOpenBefore(ctx context.Context, before time.Time) ([]attendance.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT` + sessionColumns + `
		FROM attendance_sessions
		WHERE check_out_time IS NULL
		  AND check_in_time < $1
		ORDER BY check_in_time
	`

	rows, err := q.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list open attendance sessions: %w", classify(err))
	}
	defer rows.Close()

	var sessions []attendance.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance sessions: %w", classify(err))
	}

	return sessions, nil
}

func scanSession(row pgx.Row) (attendance.Session, error) {
	var s attendance.Session
	err := row.Scan(
		&s.ID, &s.EmployeeID, &s.AttendanceDate,
		&s.CheckInTime, &s.CheckInLatitude, &s.CheckInLongitude,
		&s.CheckOutTime, &s.CheckOutLatitude, &s.CheckOutLongitude,
		&s.FaceMatchScore, &s.OfficeLocationID,
		&s.Status, &s.LateMinutes, &s.NeedsReview, &s.ReviewReasons,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return attendance.Session{}, err
	}
	if len(s.ReviewReasons) == 0 {
		s.ReviewReasons = nil
	}
	return s, nil
}

// classify marks driver errors that mean the database could not be reached
// or did not answer in time.
func classify(err error) error {
	var connectErr *pgconn.ConnectError
	switch {
	case errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err):
		return fmt.Errorf("%w: %w", attendance.ErrStoreTimeout, err)
	case errors.As(err, &connectErr):
		return fmt.Errorf("%w: %w", attendance.ErrStoreUnavailable, err)
	}
	return err
}
