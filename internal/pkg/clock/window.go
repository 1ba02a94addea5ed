package clock

import (
	"fmt"
	"time"

	// The service runs in one fixed civil timezone; embedding the zone
	// database keeps LoadLocation working in minimal container images.
	_ "time/tzdata"
)

// DefaultTimezone is the operating timezone when none is configured.
const DefaultTimezone = "Asia/Jakarta"

// Window is the half-open interval [Start, End) of one attendance day.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Date returns the civil date of the window as midnight UTC, which is the
// value stored in DATE columns.
func (w Window) Date() time.Time {
	y, m, d := w.Start.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Weekday returns the ISO day of week of the window: 1=Monday ... 7=Sunday.
func (w Window) Weekday() int {
	return ISOWeekday(w.Start)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// DayWindow returns the civil day in loc that contains instant. Boundaries
// are computed from calendar midnights, not by adding 24h, so DST days of
// 23 or 25 hours stay contiguous with their neighbours.
func DayWindow(instant time.Time, loc *time.Location) Window {
	local := instant.In(loc)
	y, m, d := local.Date()
	return Window{
		Start: startOfDay(y, m, d, loc),
		End:   startOfDay(y, m, d+1, loc),
	}
}

// startOfDay returns the first instant of the civil date in loc. Where a
// DST jump skips midnight the day starts at the transition.
func startOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	wy, wm, wd := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Date()

	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if ty, tm, td := t.Date(); ty != wy || tm != wm || td != wd {
		_, t = t.ZoneBounds()
	}
	return t
}

// ISOWeekday maps time.Weekday (Sunday=0) to ISO numbering (Sunday=7).
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// DaySource binds the operating timezone. It is the single authority for
// day boundaries: every component that needs "today" asks it.
type DaySource struct {
	loc *time.Location
}

// NewDaySource loads the named IANA timezone.
func NewDaySource(timezone string) (DaySource, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return DaySource{}, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return DaySource{loc: loc}, nil
}

// DaySourceIn wraps an already loaded location.
func DaySourceIn(loc *time.Location) DaySource {
	return DaySource{loc: loc}
}

// DayWindow returns the attendance day containing instant.
func (s DaySource) DayWindow(instant time.Time) Window {
	return DayWindow(instant, s.Location())
}

// Local converts instant into the operating timezone.
func (s DaySource) Local(instant time.Time) time.Time {
	return instant.In(s.Location())
}

func (s DaySource) Location() *time.Location {
	if s.loc == nil {
		return time.UTC
	}
	return s.loc
}
