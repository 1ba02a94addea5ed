package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/clock"
)

type dayKey struct {
	employeeID string
	date       string
}

// SessionStore is an in-process attendance.SessionRepository. The day key
// is claimed under the same lock as the insert, which gives the same
// guarantee as the unique index of the SQL store.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]attendance.Session
	byDay    map[dayKey]string
	clock    clock.Clock
}

func NewSessionStore(clk clock.Clock) *SessionStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &SessionStore{
		sessions: make(map[string]attendance.Session),
		byDay:    make(map[dayKey]string),
		clock:    clk,
	}
}

// Create implements attendance.SessionRepository.
func (s *SessionStore) Create(ctx context.Context, session attendance.Session) (attendance.Session, error) {
	if err := ctx.Err(); err != nil {
		return attendance.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := dayKey{employeeID: session.EmployeeID, date: session.AttendanceDate.Format("2006-01-02")}
	if _, taken := s.byDay[key]; taken {
		return attendance.Session{}, attendance.ErrDuplicateCheckIn
	}

	now := s.clock.Now()
	session.ReviewReasons = slices.Clone(session.ReviewReasons)
	session.CreatedAt = now
	session.UpdatedAt = now

	s.sessions[session.ID] = session
	s.byDay[key] = session.ID

	return copySession(session), nil
}

// GetByEmployeeAndDay implements attendance.SessionRepository.
func (s *SessionStore) GetByEmployeeAndDay(ctx context.Context, employeeID string, window clock.Window) (attendance.Session, error) {
	if err := ctx.Err(); err != nil {
		return attendance.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.sessions {
		if session.EmployeeID == employeeID && window.Contains(session.CheckInTime) {
			return copySession(session), nil
		}
	}

	return attendance.Session{}, attendance.ErrSessionNotFound
}

// Close implements attendance.SessionRepository.
func (s *SessionStore) Close(ctx context.Context, req attendance.CloseSession) (attendance.Session, error) {
	if err := ctx.Err(); err != nil {
		return attendance.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[req.ID]
	if !ok {
		return attendance.Session{}, attendance.ErrSessionNotFound
	}
	if !session.IsOpen() {
		return attendance.Session{}, attendance.ErrAlreadyClosed
	}

	checkOut := req.CheckOutTime
	session.CheckOutTime = &checkOut
	if req.Location != nil {
		lat, lng := req.Location.Latitude, req.Location.Longitude
		session.CheckOutLatitude = &lat
		session.CheckOutLongitude = &lng
	}
	if len(req.ReviewReasons) > 0 {
		session.ReviewReasons = append(slices.Clone(session.ReviewReasons), req.ReviewReasons...)
		session.NeedsReview = true
	}
	session.UpdatedAt = s.clock.Now()

	s.sessions[session.ID] = session

	return copySession(session), nil
}

// ListOpenBefore implements attendance.SessionRepository.
func (s *SessionStore) ListOpenBefore(ctx context.Context, before time.Time) ([]attendance.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var open []attendance.Session
	for _, session := range s.sessions {
		if session.IsOpen() && session.CheckInTime.Before(before) {
			open = append(open, copySession(session))
		}
	}

	sort.Slice(open, func(i, j int) bool {
		return open[i].CheckInTime.Before(open[j].CheckInTime)
	})

	return open, nil
}

// Len returns the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func copySession(session attendance.Session) attendance.Session {
	session.ReviewReasons = slices.Clone(session.ReviewReasons)
	return session
}
