package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/face"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/location"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/setting"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/presence-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const employeeID = "emp-1"

type engineFixture struct {
	clock     *clock.FakeClock
	sessions  *memory.SessionStore
	employees *memory.EmployeeStore
	settings  *memory.SettingStore
	locations *memory.OfficeLocationStore
	faces     *memory.FaceDescriptorStore
	schedules *memory.WorkScheduleStore
	score     float64
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		clock: clock.Fake(at(8, 5, 0)),
		employees: memory.NewEmployeeStore(employee.Employee{
			ID:               employeeID,
			FullName:         "Budi Santoso",
			EmploymentStatus: employee.EmploymentStatusActive,
			OfficeLocationID: ptr(officeID),
		}),
		settings: memory.NewSettingStore(setting.Thresholds{FaceThreshold: 70, GPSRadius: 100}),
		locations: memory.NewOfficeLocationStore(location.OfficeLocation{
			ID:           officeID,
			Name:         "Monas",
			Latitude:     officeLat,
			Longitude:    officeLng,
			RadiusMeters: 100,
			IsActive:     true,
		}),
		faces:     memory.NewFaceDescriptorStore(),
		schedules: memory.NewWorkScheduleStore(officeHours(1), officeHours(2), officeHours(3), officeHours(4), officeHours(5)),
		score:     92,
	}
	f.sessions = memory.NewSessionStore(f.clock)
	f.faces.Put(employeeID, descriptor(128, 0.1))
	return f
}

func (f *engineFixture) service(policy Policy) attendance.AttendanceService {
	return f.serviceWith(f.sessions, policy)
}

func (f *engineFixture) serviceWith(sessions attendance.SessionRepository, policy Policy) attendance.AttendanceService {
	days := clock.DaySourceIn(jakarta)
	logger := discardLogger()
	gate := NewVerificationGate(f.settings, f.locations, f.faces, fixedComparator{score: f.score}, policy.RequireFace, logger)
	evaluator := NewScheduleEvaluator(f.schedules, days, policy.DayOffStatus)
	return NewAttendanceService(sessions, f.employees, gate, evaluator, days, f.clock, policy, logger)
}

func checkIn(meters float64) attendance.CheckInRequest {
	point := pointNorthOf(meters)
	return attendance.CheckInRequest{
		EmployeeID:     employeeID,
		FaceDescriptor: descriptor(128, 0.1),
		Latitude:       &point.Latitude,
		Longitude:      &point.Longitude,
	}
}

func checkOut(meters float64) attendance.CheckOutRequest {
	point := pointNorthOf(meters)
	return attendance.CheckOutRequest{
		EmployeeID: employeeID,
		Latitude:   &point.Latitude,
		Longitude:  &point.Longitude,
	}
}

func strictPolicy() Policy {
	p := DefaultPolicy()
	p.StrictMode = true
	return p
}

func TestCheckIn_OpensSession(t *testing.T) {
	f := newEngineFixture()
	svc := f.service(DefaultPolicy())

	session, err := svc.CheckIn(context.Background(), checkIn(85))
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, employeeID, session.EmployeeID)
	assert.Equal(t, "2026-03-02", session.AttendanceDate.Format("2006-01-02"))
	assert.True(t, session.CheckInTime.Equal(at(8, 5, 0)))
	assert.True(t, session.IsOpen())
	assert.Equal(t, attendance.StatusPresent, session.Status)
	assert.Zero(t, session.LateMinutes)
	assert.False(t, session.NeedsReview)
	assert.Empty(t, session.ReviewReasons)
	require.NotNil(t, session.FaceMatchScore)
	assert.Equal(t, 92.0, *session.FaceMatchScore)
	require.NotNil(t, session.OfficeLocationID)
	assert.Equal(t, officeID, *session.OfficeLocationID)
	require.NotNil(t, session.CheckInLatitude)
	assert.Equal(t, pointNorthOf(85).Latitude, *session.CheckInLatitude)
}

func TestCheckIn_Late(t *testing.T) {
	f := newEngineFixture()
	f.clock.Set(at(8, 47, 30))

	session, err := f.service(DefaultPolicy()).CheckIn(context.Background(), checkIn(10))
	require.NoError(t, err)

	assert.Equal(t, attendance.StatusLate, session.Status)
	assert.Equal(t, 47, session.LateMinutes)
	assert.False(t, session.NeedsReview)
}

func TestCheckIn_DayWithoutScheduleIsFlagged(t *testing.T) {
	f := newEngineFixture()
	f.clock.Set(time.Date(2026, 3, 1, 9, 0, 0, 0, jakarta)) // Sunday

	session, err := f.service(DefaultPolicy()).CheckIn(context.Background(), checkIn(10))
	require.NoError(t, err)

	assert.Equal(t, attendance.StatusPresent, session.Status)
	assert.True(t, session.NeedsReview)
	assert.Equal(t, []string{attendance.ReasonNoSchedule}, session.ReviewReasons)
}

func TestCheckIn_GeofenceScenarios(t *testing.T) {
	cases := []struct {
		name      string
		gpsRadius int
		distance  float64
		wantErr   bool
	}{
		{"85m inside 100m office radius", 100, 85, false},
		{"150m inside 200m gps radius", 200, 150, false},
		{"250m outside both", 200, 250, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newEngineFixture()
			f.settings.Set(setting.Thresholds{FaceThreshold: 70, GPSRadius: c.gpsRadius})

			_, err := f.service(strictPolicy()).CheckIn(context.Background(), checkIn(c.distance))
			if !c.wantErr {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, attendance.ErrLocationRejected)
			var verr *attendance.VerificationError
			require.True(t, errors.As(err, &verr))
			require.NotNil(t, verr.Measured)
			assert.InDelta(t, 250, *verr.Measured, 0.01)
			assert.Equal(t, 200.0, verr.Threshold)
			assert.Zero(t, f.sessions.Len())
		})
	}
}

func TestCheckIn_FaceBelowThreshold(t *testing.T) {
	t.Run("strict mode rejects", func(t *testing.T) {
		f := newEngineFixture()
		f.score = 68

		_, err := f.service(strictPolicy()).CheckIn(context.Background(), checkIn(10))
		require.ErrorIs(t, err, attendance.ErrFaceRejected)

		var verr *attendance.VerificationError
		require.True(t, errors.As(err, &verr))
		require.NotNil(t, verr.Measured)
		assert.Equal(t, 68.0, *verr.Measured)
		assert.Equal(t, 70.0, verr.Threshold)
		assert.Zero(t, f.sessions.Len())
	})

	t.Run("advisory mode records for review", func(t *testing.T) {
		f := newEngineFixture()
		f.score = 68

		session, err := f.service(DefaultPolicy()).CheckIn(context.Background(), checkIn(10))
		require.NoError(t, err)

		require.NotNil(t, session.FaceMatchScore)
		assert.Equal(t, 68.0, *session.FaceMatchScore)
		assert.True(t, session.NeedsReview)
		assert.Contains(t, session.ReviewReasons, attendance.ReasonFaceBelowThreshold)
	})
}

func TestCheckIn_StrictChecksLocationBeforeFace(t *testing.T) {
	f := newEngineFixture()
	f.score = 10

	_, err := f.service(strictPolicy()).CheckIn(context.Background(), checkIn(5000))
	assert.ErrorIs(t, err, attendance.ErrLocationRejected)
	assert.NotErrorIs(t, err, attendance.ErrFaceRejected)
}

func TestCheckIn_AdvisoryModeRecordsOutsideGeofence(t *testing.T) {
	f := newEngineFixture()

	session, err := f.service(DefaultPolicy()).CheckIn(context.Background(), checkIn(5000))
	require.NoError(t, err)

	assert.True(t, session.NeedsReview)
	assert.Equal(t, []string{attendance.ReasonOutsideGeofence}, session.ReviewReasons)
}

func TestCheckIn_RetryIsDuplicate(t *testing.T) {
	f := newEngineFixture()
	svc := f.service(DefaultPolicy())

	first, err := svc.CheckIn(context.Background(), checkIn(10))
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = svc.CheckIn(context.Background(), checkIn(10))
	assert.ErrorIs(t, err, attendance.ErrDuplicateCheckIn)

	open, err := svc.GetOpenSession(context.Background(), employeeID, f.clock.Now())
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, first.ID, open.ID)
}

func TestCheckIn_ClosedDayIsDuplicate(t *testing.T) {
	f := newEngineFixture()
	svc := f.service(DefaultPolicy())

	_, err := svc.CheckIn(context.Background(), checkIn(10))
	require.NoError(t, err)
	f.clock.Advance(8 * time.Hour)
	_, err = svc.CheckOut(context.Background(), checkOut(10))
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = svc.CheckIn(context.Background(), checkIn(10))
	assert.ErrorIs(t, err, attendance.ErrDuplicateCheckIn)
}

func TestCheckIn_ConcurrentRequestsHaveOneWinner(t *testing.T) {
	f := newEngineFixture()
	svc := f.service(DefaultPolicy())

	const n = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dupes     int
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CheckIn(context.Background(), checkIn(10))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, attendance.ErrDuplicateCheckIn):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, dupes)
	assert.Equal(t, 1, f.sessions.Len())
}

func TestCheckIn_NextDayOpensNewSession(t *testing.T) {
	f := newEngineFixture()
	svc := f.service(DefaultPolicy())

	_, err := svc.CheckIn(context.Background(), checkIn(10))
	require.NoError(t, err)

	f.clock.Set(at(8, 5, 0).AddDate(0, 0, 1))
	next, err := svc.CheckIn(context.Background(), checkIn(10))
	require.NoError(t, err)
	assert.Equal(t, "2026-03-03", next.AttendanceDate.Format("2006-01-02"))
	assert.Equal(t, 2, f.sessions.Len())
}

func TestCheckIn_UnknownOrInactiveEmployee(t *testing.T) {
	f := newEngineFixture()
	svc := f.service(DefaultPolicy())

	req := checkIn(10)
	req.EmployeeID = "emp-unknown"
	_, err := svc.CheckIn(context.Background(), req)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	f.employees.Put(employee.Employee{ID: "emp-gone", EmploymentStatus: employee.EmploymentStatusResigned})
	req.EmployeeID = "emp-gone"
	_, err = svc.CheckIn(context.Background(), req)
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	assert.Zero(t, f.sessions.Len())
}

func TestCheckIn_InvalidRequest(t *testing.T) {
	f := newEngineFixture()

	req := checkIn(10)
	req.Latitude = ptr(95.0)
	_, err := f.service(DefaultPolicy()).CheckIn(context.Background(), req)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "latitude", verrs[0].Field)
}

func TestCheckOut_ClosesSession(t *testing.T) {
	f := newEngineFixture()
	svc := f.service(DefaultPolicy())

	opened, err := svc.CheckIn(context.Background(), checkIn(10))
	require.NoError(t, err)

	f.clock.Advance(9 * time.Hour)
	closed, err := svc.CheckOut(context.Background(), checkOut(20))
	require.NoError(t, err)

	assert.Equal(t, opened.ID, closed.ID)
	require.NotNil(t, closed.CheckOutTime)
	assert.True(t, closed.CheckOutTime.Equal(at(17, 5, 0)))
	assert.True(t, closed.CheckOutTime.After(closed.CheckInTime))
	require.NotNil(t, closed.CheckOutLatitude)
	assert.Equal(t, pointNorthOf(20).Latitude, *closed.CheckOutLatitude)

	open, err := svc.GetOpenSession(context.Background(), employeeID, f.clock.Now())
	require.NoError(t, err)
	assert.Nil(t, open)
}

func TestCheckOut_WithoutCheckIn(t *testing.T) {
	f := newEngineFixture()

	_, err := f.service(DefaultPolicy()).CheckOut(context.Background(), checkOut(10))
	assert.ErrorIs(t, err, attendance.ErrNoOpenSession)
}

func TestCheckOut_Twice(t *testing.T) {
	f := newEngineFixture()
	svc := f.service(DefaultPolicy())

	_, err := svc.CheckIn(context.Background(), checkIn(10))
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	_, err = svc.CheckOut(context.Background(), checkOut(10))
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	_, err = svc.CheckOut(context.Background(), checkOut(10))
	assert.ErrorIs(t, err, attendance.ErrAlreadyClosed)
}

func TestCheckOut_ClockNotAfterCheckIn(t *testing.T) {
	for _, offset := range []time.Duration{0, -time.Minute} {
		f := newEngineFixture()
		svc := f.service(DefaultPolicy())

		_, err := svc.CheckIn(context.Background(), checkIn(10))
		require.NoError(t, err)

		f.clock.Set(at(8, 5, 0).Add(offset))
		_, err = svc.CheckOut(context.Background(), checkOut(10))
		assert.ErrorIs(t, err, attendance.ErrInvalidCheckOutTime)

		open, err := svc.GetOpenSession(context.Background(), employeeID, at(8, 5, 0))
		require.NoError(t, err)
		assert.NotNil(t, open, "session must stay open")
	}
}

func TestCheckOut_AfterMidnightSeesNoSession(t *testing.T) {
	f := newEngineFixture()
	f.clock.Set(at(23, 50, 0))
	svc := f.service(DefaultPolicy())

	_, err := svc.CheckIn(context.Background(), checkIn(10))
	require.NoError(t, err)

	f.clock.Advance(20 * time.Minute)
	_, err = svc.CheckOut(context.Background(), checkOut(10))
	assert.ErrorIs(t, err, attendance.ErrNoOpenSession)
}

func TestCheckOut_LocationVerification(t *testing.T) {
	t.Run("advisory", func(t *testing.T) {
		f := newEngineFixture()
		policy := DefaultPolicy()
		policy.VerifyCheckOutLocation = true
		svc := f.service(policy)

		_, err := svc.CheckIn(context.Background(), checkIn(10))
		require.NoError(t, err)
		f.clock.Advance(8 * time.Hour)

		closed, err := svc.CheckOut(context.Background(), checkOut(900))
		require.NoError(t, err)
		assert.True(t, closed.NeedsReview)
		assert.Equal(t, []string{attendance.ReasonCheckOutOutsideGeofence}, closed.ReviewReasons)
	})

	t.Run("strict", func(t *testing.T) {
		f := newEngineFixture()
		policy := strictPolicy()
		policy.VerifyCheckOutLocation = true
		svc := f.service(policy)

		_, err := svc.CheckIn(context.Background(), checkIn(10))
		require.NoError(t, err)
		f.clock.Advance(8 * time.Hour)

		_, err = svc.CheckOut(context.Background(), attendance.CheckOutRequest{EmployeeID: employeeID})
		require.ErrorIs(t, err, attendance.ErrLocationRejected)

		open, err := svc.GetOpenSession(context.Background(), employeeID, f.clock.Now())
		require.NoError(t, err)
		assert.NotNil(t, open)
	})

	t.Run("disabled", func(t *testing.T) {
		f := newEngineFixture()
		svc := f.service(strictPolicy())

		_, err := svc.CheckIn(context.Background(), checkIn(10))
		require.NoError(t, err)
		f.clock.Advance(8 * time.Hour)

		closed, err := svc.CheckOut(context.Background(), checkOut(900))
		require.NoError(t, err)
		assert.False(t, closed.NeedsReview)
	})
}

func TestGetTodayStatus(t *testing.T) {
	f := newEngineFixture()
	svc := f.service(DefaultPolicy())
	ctx := context.Background()

	status, err := svc.GetTodayStatus(ctx, employeeID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", status.Date)
	assert.True(t, status.CanCheckIn)
	assert.False(t, status.CanCheckOut)
	assert.Nil(t, status.Session)

	_, err = svc.CheckIn(ctx, checkIn(10))
	require.NoError(t, err)

	status, err = svc.GetTodayStatus(ctx, employeeID)
	require.NoError(t, err)
	assert.False(t, status.CanCheckIn)
	assert.True(t, status.CanCheckOut)
	assert.True(t, status.HasOpenSession)
	require.NotNil(t, status.Session)
	assert.Equal(t, "2026-03-02T08:05:00+07:00", status.Session.CheckInTime)

	f.clock.Advance(9 * time.Hour)
	_, err = svc.CheckOut(ctx, checkOut(10))
	require.NoError(t, err)

	status, err = svc.GetTodayStatus(ctx, employeeID)
	require.NoError(t, err)
	assert.True(t, status.HasCheckedIn)
	assert.False(t, status.HasOpenSession)
	assert.False(t, status.CanCheckIn)
	assert.False(t, status.CanCheckOut)
	require.NotNil(t, status.Session.WorkingMinutes)
	assert.Equal(t, 540, *status.Session.WorkingMinutes)
}

// blockingSessions never answers reads until the caller gives up.
type blockingSessions struct {
	*memory.SessionStore
}

func (b blockingSessions) GetByEmployeeAndDay(ctx context.Context, employeeID string, window clock.Window) (attendance.Session, error) {
	<-ctx.Done()
	return attendance.Session{}, ctx.Err()
}

// failingSessions fails every read with a non-infrastructure error.
type failingSessions struct {
	*memory.SessionStore
}

func (failingSessions) GetByEmployeeAndDay(context.Context, string, clock.Window) (attendance.Session, error) {
	return attendance.Session{}, errors.New("boom")
}

func TestStoreTimeoutIsRetryable(t *testing.T) {
	f := newEngineFixture()
	policy := DefaultPolicy()
	policy.StoreTimeout = 20 * time.Millisecond
	svc := f.serviceWith(blockingSessions{f.sessions}, policy)

	_, err := svc.CheckIn(context.Background(), checkIn(10))
	require.ErrorIs(t, err, attendance.ErrStoreTimeout)
	assert.True(t, attendance.IsRetryable(err))
	assert.NotErrorIs(t, err, attendance.ErrDuplicateCheckIn)

	_, err = svc.CheckOut(context.Background(), checkOut(10))
	require.ErrorIs(t, err, attendance.ErrStoreTimeout)
	assert.NotErrorIs(t, err, attendance.ErrNoOpenSession)
}

// unavailableSessions fails reads the way the postgres adapter reports a
// refused connection.
type unavailableSessions struct {
	*memory.SessionStore
}

func (unavailableSessions) GetByEmployeeAndDay(context.Context, string, clock.Window) (attendance.Session, error) {
	return attendance.Session{}, fmt.Errorf("failed to get attendance session: %w: %w", attendance.ErrStoreUnavailable, errors.New("connection refused"))
}

func TestStoreUnavailablePassesThrough(t *testing.T) {
	f := newEngineFixture()
	svc := f.serviceWith(unavailableSessions{f.sessions}, DefaultPolicy())

	_, err := svc.CheckIn(context.Background(), checkIn(10))
	require.ErrorIs(t, err, attendance.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, attendance.ErrStoreTimeout)
	assert.True(t, attendance.IsRetryable(err))
}

func TestGetOpenSession_ZeroInstantUsesServiceClock(t *testing.T) {
	f := newEngineFixture()
	svc := f.service(DefaultPolicy())

	_, err := svc.CheckIn(context.Background(), checkIn(10))
	require.NoError(t, err)

	open, err := svc.GetOpenSession(context.Background(), employeeID, time.Time{})
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, f.clock.Now(), open.CheckInTime)
}

func TestCheckOut_DayWithSkippedMidnight(t *testing.T) {
	// America/Santiago jumped from 00:00 to 01:00 on 2022-09-11.
	santiago := mustLoad("America/Santiago")
	f := newEngineFixture()
	f.clock.Set(time.Date(2022, 9, 10, 23, 10, 0, 0, santiago))

	days := clock.DaySourceIn(santiago)
	logger := discardLogger()
	gate := NewVerificationGate(f.settings, f.locations, f.faces, fixedComparator{score: f.score}, true, logger)
	evaluator := NewScheduleEvaluator(f.schedules, days, attendance.StatusPresent)
	svc := NewAttendanceService(f.sessions, f.employees, gate, evaluator, days, f.clock, DefaultPolicy(), logger)

	opened, err := svc.CheckIn(context.Background(), checkIn(10))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 9, 10, 0, 0, 0, 0, time.UTC), opened.AttendanceDate)

	open, err := svc.GetOpenSession(context.Background(), employeeID, time.Time{})
	require.NoError(t, err)
	require.NotNil(t, open)

	f.clock.Advance(30 * time.Minute)
	closed, err := svc.CheckOut(context.Background(), checkOut(10))
	require.NoError(t, err)
	require.NotNil(t, closed.CheckOutTime)
	assert.Equal(t, opened.ID, closed.ID)
}

func TestStoreFailureIsNotRetryable(t *testing.T) {
	f := newEngineFixture()
	svc := f.serviceWith(failingSessions{f.sessions}, DefaultPolicy())

	_, err := svc.CheckIn(context.Background(), checkIn(10))
	require.Error(t, err)
	assert.False(t, attendance.IsRetryable(err))
}

var _ face.Comparator = fixedComparator{}
