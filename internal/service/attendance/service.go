package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
)

// Policy holds the behaviour switches of the attendance engine.
type Policy struct {
	// StrictMode rejects failed verifications instead of recording them
	// for review.
	StrictMode  bool
	RequireFace bool

	// VerifyCheckOutLocation re-runs the geofence check on check-out.
	VerifyCheckOutLocation bool

	// DayOffStatus is assigned to check-ins on days without an active
	// schedule row.
	DayOffStatus attendance.Status

	// StoreTimeout bounds every store interaction. Zero disables it.
	StoreTimeout time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		RequireFace:  true,
		DayOffStatus: attendance.StatusPresent,
		StoreTimeout: 5 * time.Second,
	}
}

type AttendanceServiceImpl struct {
	attendance.SessionRepository
	employee.EmployeeRepository
	gate      *VerificationGate
	evaluator *ScheduleEvaluator
	days      clock.DaySource
	clock     clock.Clock
	policy    Policy
	logger    *slog.Logger
}

func NewAttendanceService(
	sessionRepo attendance.SessionRepository,
	employeeRepo employee.EmployeeRepository,
	gate *VerificationGate,
	evaluator *ScheduleEvaluator,
	days clock.DaySource,
	clk clock.Clock,
	policy Policy,
	logger *slog.Logger,
) attendance.AttendanceService {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceServiceImpl{
		SessionRepository:  sessionRepo,
		EmployeeRepository: employeeRepo,
		gate:               gate,
		evaluator:          evaluator,
		days:               days,
		clock:              clk,
		policy:             policy,
		logger:             logger,
	}
}

// CheckIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.Session, error) {
	if err := req.Validate(); err != nil {
		return attendance.Session{}, err
	}

	now := a.clock.Now()
	window := a.days.DayWindow(now)
	logger := a.logger.With(
		slog.String("employee_id", req.EmployeeID),
		slog.String("attendance_date", window.Date().Format("2006-01-02")),
	)

	emp, err := a.activeEmployee(ctx, req.EmployeeID)
	if err != nil {
		return attendance.Session{}, err
	}

	existing, err := a.daySession(ctx, emp.ID, window)
	if err != nil {
		return attendance.Session{}, err
	}
	if existing != nil {
		logger.Info("Check-in rejected: session already exists", slog.String("session_id", existing.ID))
		return attendance.Session{}, attendance.ErrDuplicateCheckIn
	}

	result, err := a.verify(ctx, emp, req)
	if err != nil {
		return attendance.Session{}, err
	}

	if a.policy.StrictMode {
		if err := rejection(result); err != nil {
			logger.Info("Check-in rejected by verification", slog.Any("reasons", result.Reasons))
			return attendance.Session{}, err
		}
	}

	class, err := a.classify(ctx, now)
	if err != nil {
		return attendance.Session{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.Session{}, fmt.Errorf("failed to generate session id: %w", err)
	}

	reasons := append(append([]string{}, result.Reasons...), class.Reasons...)
	location := req.Location()

	session := attendance.Session{
		ID:             id.String(),
		EmployeeID:     emp.ID,
		AttendanceDate: window.Date(),
		CheckInTime:    now,
		FaceMatchScore: result.FaceScore,
		Status:         class.Status,
		LateMinutes:    class.LateMinutes,
		NeedsReview:    len(reasons) > 0,
		ReviewReasons:  reasons,
	}
	if location != nil {
		session.CheckInLatitude = &location.Latitude
		session.CheckInLongitude = &location.Longitude
	}
	if result.LocationChecked {
		session.OfficeLocationID = emp.OfficeLocationID
	}

	sctx, cancel := a.storeContext(ctx)
	defer cancel()

	created, err := a.SessionRepository.Create(sctx, session)
	if err != nil {
		if errors.Is(err, attendance.ErrDuplicateCheckIn) {
			logger.Info("Check-in rejected: concurrent check-in won")
			return attendance.Session{}, attendance.ErrDuplicateCheckIn
		}
		return attendance.Session{}, storeError("failed to create attendance session", err)
	}

	logger.Info("Checked in",
		slog.String("session_id", created.ID),
		slog.String("status", string(created.Status)),
		slog.Int("late_minutes", created.LateMinutes),
		slog.Bool("needs_review", created.NeedsReview),
	)

	return created, nil
}

// CheckOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.Session, error) {
	if err := req.Validate(); err != nil {
		return attendance.Session{}, err
	}

	now := a.clock.Now()
	window := a.days.DayWindow(now)
	logger := a.logger.With(slog.String("employee_id", req.EmployeeID))

	session, err := a.daySession(ctx, req.EmployeeID, window)
	if err != nil {
		return attendance.Session{}, err
	}
	if session == nil {
		return attendance.Session{}, attendance.ErrNoOpenSession
	}
	if !session.IsOpen() {
		return attendance.Session{}, attendance.ErrAlreadyClosed
	}
	if !now.After(session.CheckInTime) {
		logger.Warn("Check-out rejected: clock is not after check-in",
			slog.String("session_id", session.ID),
			slog.Time("check_in_time", session.CheckInTime),
			slog.Time("now", now),
		)
		return attendance.Session{}, attendance.ErrInvalidCheckOutTime
	}

	location := req.Location()

	var reasons []string
	if a.policy.VerifyCheckOutLocation {
		reasons, err = a.verifyCheckOutLocation(ctx, *session, location)
		if err != nil {
			return attendance.Session{}, err
		}
	}

	sctx, cancel := a.storeContext(ctx)
	defer cancel()

	closed, err := a.SessionRepository.Close(sctx, attendance.CloseSession{
		ID:            session.ID,
		CheckOutTime:  now,
		Location:      location,
		ReviewReasons: reasons,
	})
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrAlreadyClosed):
			logger.Info("Check-out rejected: concurrent check-out won", slog.String("session_id", session.ID))
			return attendance.Session{}, attendance.ErrAlreadyClosed
		case errors.Is(err, attendance.ErrSessionNotFound):
			return attendance.Session{}, attendance.ErrNoOpenSession
		}
		return attendance.Session{}, storeError("failed to close attendance session", err)
	}

	logger.Info("Checked out",
		slog.String("session_id", closed.ID),
		slog.Duration("worked", closed.CheckOutTime.Sub(closed.CheckInTime)),
	)

	return closed, nil
}

// GetOpenSession implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetOpenSession(ctx context.Context, employeeID string, instant time.Time) (*attendance.Session, error) {
	if validator.IsEmpty(employeeID) {
		return nil, validator.ValidationErrors{{Field: "employee_id", Message: "employee_id is required"}}
	}

	if instant.IsZero() {
		instant = a.clock.Now()
	}

	session, err := a.daySession(ctx, employeeID, a.days.DayWindow(instant))
	if err != nil {
		return nil, err
	}
	if session == nil || !session.IsOpen() {
		return nil, nil
	}

	return session, nil
}

// GetTodayStatus implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetTodayStatus(ctx context.Context, employeeID string) (attendance.TodayStatusResponse, error) {
	if validator.IsEmpty(employeeID) {
		return attendance.TodayStatusResponse{}, validator.ValidationErrors{{Field: "employee_id", Message: "employee_id is required"}}
	}

	window := a.days.DayWindow(a.clock.Now())

	session, err := a.daySession(ctx, employeeID, window)
	if err != nil {
		return attendance.TodayStatusResponse{}, err
	}

	status := attendance.TodayStatusResponse{
		Date:       window.Date().Format("2006-01-02"),
		CanCheckIn: session == nil,
		Message:    "You have not checked in today",
	}

	if session != nil {
		resp := attendance.NewSessionResponse(*session, a.days.Location())
		status.Session = &resp
		status.HasCheckedIn = true
		status.HasOpenSession = session.IsOpen()
		status.CanCheckOut = session.IsOpen()
		if session.IsOpen() {
			status.Message = "Checked in, waiting for check-out"
		} else {
			status.Message = "Attendance for today is complete"
		}
	}

	return status, nil
}

func (a *AttendanceServiceImpl) activeEmployee(ctx context.Context, employeeID string) (employee.Employee, error) {
	sctx, cancel := a.storeContext(ctx)
	defer cancel()

	emp, err := a.EmployeeRepository.GetByID(sctx, employeeID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, storeError("failed to get employee", err)
	}

	if !emp.IsActive() {
		a.logger.Info("Attendance rejected: employee inactive",
			slog.String("employee_id", emp.ID),
			slog.String("employment_status", string(emp.EmploymentStatus)),
		)
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}

	return emp, nil
}

// daySession returns the employee's session in window, or nil.
func (a *AttendanceServiceImpl) daySession(ctx context.Context, employeeID string, window clock.Window) (*attendance.Session, error) {
	sctx, cancel := a.storeContext(ctx)
	defer cancel()

	session, err := a.SessionRepository.GetByEmployeeAndDay(sctx, employeeID, window)
	if err != nil {
		if errors.Is(err, attendance.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, storeError("failed to get attendance session", err)
	}

	return &session, nil
}

func (a *AttendanceServiceImpl) verify(ctx context.Context, emp employee.Employee, req attendance.CheckInRequest) (GateResult, error) {
	sctx, cancel := a.storeContext(ctx)
	defer cancel()

	result, err := a.gate.Evaluate(sctx, emp, req.FaceDescriptor, req.Location())
	if err != nil {
		return GateResult{}, storeError("failed to verify check-in", err)
	}

	return result, nil
}

func (a *AttendanceServiceImpl) classify(ctx context.Context, now time.Time) (Classification, error) {
	sctx, cancel := a.storeContext(ctx)
	defer cancel()

	class, err := a.evaluator.Evaluate(sctx, now)
	if err != nil {
		return Classification{}, storeError("failed to classify check-in", err)
	}

	return class, nil
}

// verifyCheckOutLocation checks the check-out point against the office the
// session was opened at. It returns review reasons in advisory mode.
func (a *AttendanceServiceImpl) verifyCheckOutLocation(ctx context.Context, session attendance.Session, location *attendance.Location) ([]string, error) {
	sctx, cancel := a.storeContext(ctx)
	defer cancel()

	result, err := a.gate.EvaluateLocation(sctx, session.OfficeLocationID, location)
	if err != nil {
		return nil, storeError("failed to verify check-out location", err)
	}
	if result.LocationOK {
		return nil, nil
	}

	if a.policy.StrictMode {
		return nil, rejection(result)
	}

	reasons := make([]string, 0, len(result.Reasons))
	for _, reason := range result.Reasons {
		switch reason {
		case attendance.ReasonLocationMissing:
			reasons = append(reasons, attendance.ReasonCheckOutLocationMissing)
		case attendance.ReasonOutsideGeofence:
			reasons = append(reasons, attendance.ReasonCheckOutOutsideGeofence)
		}
	}

	return reasons, nil
}

func (a *AttendanceServiceImpl) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.policy.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.policy.StoreTimeout)
}

// rejection turns a failed gate result into a VerificationError. Location is
// checked first.
func rejection(result GateResult) error {
	if !result.LocationOK {
		return &attendance.VerificationError{
			Err:       attendance.ErrLocationRejected,
			Measured:  result.DistanceMeters,
			Threshold: result.RadiusMeters,
			Reasons:   result.Reasons,
		}
	}
	if !result.FaceOK {
		return &attendance.VerificationError{
			Err:       attendance.ErrFaceRejected,
			Measured:  result.FaceScore,
			Threshold: float64(result.FaceThreshold),
			Reasons:   result.Reasons,
		}
	}
	return nil
}

// storeError classifies infrastructure failures so callers can tell a
// retryable outage from a rejected transition.
func storeError(op string, err error) error {
	if attendance.IsRetryable(err) {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Adapters classify driver errors; only the call deadline is ours.
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, attendance.ErrStoreTimeout, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
