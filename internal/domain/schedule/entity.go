package schedule

import (
	"fmt"
	"strings"
	"time"
)

// WorkSchedule is the working-hours rule for one day of the week.
type WorkSchedule struct {
	ID        string
	DayOfWeek int // 1=Monday, ..., 7=Sunday
	StartTime TimeOfDay
	EndTime   TimeOfDay

	// OnTimeEndTime is the last instant still counted as on time. When nil
	// the boundary is StartTime + LateToleranceMinutes.
	OnTimeEndTime *TimeOfDay

	// Optional secondary grace window.
	ToleranceStartTime *TimeOfDay
	ToleranceEndTime   *TimeOfDay

	LateToleranceMinutes int
	IsActive             bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// OnTimeBoundary returns the end of the on-time period.
func (w WorkSchedule) OnTimeBoundary() TimeOfDay {
	if w.OnTimeEndTime != nil {
		return *w.OnTimeEndTime
	}
	return w.StartTime + TimeOfDay(time.Duration(w.LateToleranceMinutes)*time.Minute)
}

// HasToleranceWindow reports whether both ends of the grace window are set.
func (w WorkSchedule) HasToleranceWindow() bool {
	return w.ToleranceStartTime != nil && w.ToleranceEndTime != nil
}

// TimeOfDay is a wall-clock offset from local midnight.
type TimeOfDay time.Duration

// NewTimeOfDay builds a TimeOfDay from hours and minutes.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// TimeOfDayOf returns the wall-clock time of t in t's own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay(time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond()))
}

// ParseTimeOfDay accepts "15:04" or "15:04:05".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDayOf(t), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
}

func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t)
}

func (t TimeOfDay) String() string {
	d := time.Duration(t)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	s := int((d % time.Minute) / time.Second)
	if s == 0 {
		return fmt.Sprintf("%02d:%02d", h, m)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
