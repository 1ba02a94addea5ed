package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestDayWindow_Jakarta(t *testing.T) {
	loc := mustLoad(t, "Asia/Jakarta")

	// 2026-10-14 23:30 UTC is 2026-10-15 06:30 in Jakarta (UTC+7).
	instant := time.Date(2026, 10, 14, 23, 30, 0, 0, time.UTC)
	w := DayWindow(instant, loc)

	assert.True(t, w.Start.Equal(time.Date(2026, 10, 14, 17, 0, 0, 0, time.UTC)))
	assert.True(t, w.End.Equal(time.Date(2026, 10, 15, 17, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(instant))
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), w.Date())
	assert.Equal(t, 4, w.Weekday()) // Thursday
}

func TestDayWindow_HalfOpen(t *testing.T) {
	loc := mustLoad(t, "Asia/Jakarta")
	w := DayWindow(time.Date(2026, 10, 15, 12, 0, 0, 0, loc), loc)

	assert.True(t, w.Contains(w.Start))
	assert.False(t, w.Contains(w.End))
	assert.True(t, w.Contains(w.End.Add(-time.Nanosecond)))

	next := DayWindow(w.End, loc)
	assert.True(t, next.Start.Equal(w.End))
}

func TestDayWindow_ContiguousAcrossWeek(t *testing.T) {
	for _, name := range []string{"Asia/Jakarta", "America/New_York", "Europe/Berlin", "UTC"} {
		t.Run(name, func(t *testing.T) {
			loc := mustLoad(t, name)
			// Week containing the US spring-forward transition (2026-03-08).
			w := DayWindow(time.Date(2026, 3, 5, 12, 0, 0, 0, loc), loc)
			for i := 0; i < 7; i++ {
				next := DayWindow(w.End, loc)
				require.True(t, next.Start.Equal(w.End), "gap or overlap after %s", w)
				require.True(t, w.End.After(w.Start))

				// Sample every 30 minutes: each instant belongs to exactly
				// this window and not its neighbours.
				prev := DayWindow(w.Start.Add(-time.Nanosecond), loc)
				for ts := w.Start; ts.Before(w.End); ts = ts.Add(30 * time.Minute) {
					got := DayWindow(ts, loc)
					require.True(t, got.Start.Equal(w.Start), "instant %s classified into %s", ts, got)
					require.False(t, prev.Contains(ts))
					require.False(t, next.Contains(ts))
				}
				w = next
			}
		})
	}
}

func TestDayWindow_DSTDayLength(t *testing.T) {
	loc := mustLoad(t, "America/New_York")
	w := DayWindow(time.Date(2026, 3, 8, 12, 0, 0, 0, loc), loc)
	assert.Equal(t, 23*time.Hour, w.End.Sub(w.Start))

	w = DayWindow(time.Date(2026, 11, 1, 12, 0, 0, 0, loc), loc)
	assert.Equal(t, 25*time.Hour, w.End.Sub(w.Start))
}

func TestDayWindow_SkippedMidnight(t *testing.T) {
	// Chile moved its clocks from 00:00 to 01:00 on 2022-09-11.
	loc := mustLoad(t, "America/Santiago")

	lateEvening := time.Date(2022, 9, 10, 23, 10, 0, 0, loc)
	w := DayWindow(lateEvening, loc)
	assert.True(t, w.Contains(lateEvening), "%s not in %s", lateEvening, w)
	assert.Equal(t, time.Date(2022, 9, 10, 0, 0, 0, 0, time.UTC), w.Date())
	assert.Equal(t, 23*time.Hour, w.End.Sub(w.Start))

	next := DayWindow(w.End, loc)
	assert.Equal(t, w.End, next.Start)
	assert.Equal(t, time.Date(2022, 9, 11, 0, 0, 0, 0, time.UTC), next.Date())

	for _, zone := range []string{"America/Santiago", "America/Sao_Paulo", "America/Havana", "America/Asuncion"} {
		loc := mustLoad(t, zone)
		start := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		for instant := start; instant.Before(end); instant = instant.Add(30 * time.Minute) {
			w := DayWindow(instant, loc)
			if !w.Contains(instant) {
				t.Fatalf("%s: %s not in %s", zone, instant.In(loc).Format(time.RFC3339), w)
			}
		}
	}
}

func TestISOWeekday(t *testing.T) {
	sunday := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, 7, ISOWeekday(sunday))
	assert.Equal(t, 1, ISOWeekday(monday))
}

func TestNewDaySource(t *testing.T) {
	src, err := NewDaySource("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimezone, src.Location().String())

	_, err = NewDaySource("Mars/Olympus_Mons")
	assert.Error(t, err)

	var zero DaySource
	assert.Equal(t, time.UTC, zero.Location())
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	c := Fake(start)
	assert.Equal(t, start, c.Now())

	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), c.Now())

	c.Set(start.Add(-time.Hour))
	assert.Equal(t, start.Add(-time.Hour), c.Now())
}
