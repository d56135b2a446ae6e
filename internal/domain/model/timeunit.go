package model

import (
	"fmt"
	"strings"
	"time"
)

// TimeUnit is the calendar unit used for the analysis window and period buckets.
type TimeUnit string

const (
	UnitDay   TimeUnit = "day"
	UnitWeek  TimeUnit = "week"
	UnitMonth TimeUnit = "month"
	UnitYear  TimeUnit = "year"
)

// ParseTimeUnit accepts singular or plural unit names ("month", "months"),
// case-insensitively.
func ParseTimeUnit(s string) (TimeUnit, error) {
	u := TimeUnit(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	if !u.Valid() {
		return "", fmt.Errorf("invalid time unit %q: expected day, week, month or year", s)
	}
	return u, nil
}

// Valid reports whether u is one of the supported units.
func (u TimeUnit) Valid() bool {
	switch u {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
		return true
	default:
		return false
	}
}

// Plural returns the plural name, e.g. "months".
func (u TimeUnit) Plural() string {
	return string(u) + "s"
}

// Floor returns the start of the unit containing t, in UTC. Weeks start on Sunday.
func (u TimeUnit) Floor(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	switch u {
	case UnitWeek:
		return day.AddDate(0, 0, -int(day.Weekday()))
	case UnitMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case UnitYear:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// Add moves t by n units. t should already be aligned with Floor so that month
// arithmetic never overflows into the following month.
func (u TimeUnit) Add(t time.Time, n int) time.Time {
	switch u {
	case UnitWeek:
		return t.AddDate(0, 0, 7*n)
	case UnitMonth:
		return t.AddDate(0, n, 0)
	case UnitYear:
		return t.AddDate(n, 0, 0)
	default:
		return t.AddDate(0, 0, n)
	}
}

// WindowStart returns now minus value units, floored to the start of that unit.
// Flooring first keeps month-end dates from spilling into the next month
// (March 31 minus one month is February, not March 3).
func (u TimeUnit) WindowStart(now time.Time, value int) time.Time {
	return u.Add(u.Floor(now), -value)
}

// PeriodKey identifies a period bucket by its unit and aligned start instant.
type PeriodKey struct {
	Unit  TimeUnit
	Start time.Time
}

// KeyFor returns the bucket identity for the period containing t.
func (u TimeUnit) KeyFor(t time.Time) PeriodKey {
	return PeriodKey{Unit: u, Start: u.Floor(t)}
}

// End returns the exclusive end of the period.
func (k PeriodKey) End() time.Time {
	return k.Unit.Add(k.Start, 1)
}

// Contains reports whether t falls in the half-open interval [Start, End).
func (k PeriodKey) Contains(t time.Time) bool {
	return !t.Before(k.Start) && t.Before(k.End())
}
