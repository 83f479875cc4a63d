// Package recurrence implements the weekly-recurrence arithmetic used for conflict
// detection: calendar dates are mapped to integer day offsets from the Unix epoch so
// that gcd/lcm/modulo stay exact and free of timezone artifacts.
package recurrence

import "time"

const secondsPerDay = 24 * 60 * 60

// Day is a civil date expressed as days since 1970-01-01.
type Day int64

// DayOf returns the civil date of t (in t's own location) as a Day.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

// Time returns the date at UTC midnight.
func (d Day) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// Weekday of the date. 1970-01-01 was a Thursday.
func (d Day) Weekday() time.Weekday {
	return time.Weekday(mod(int64(d)+int64(time.Thursday), 7))
}

// Monday returns the Monday of the ISO week containing d.
func (d Day) Monday() Day {
	return d - Day(mod(int64(d)+3, 7))
}

// Friday returns the Friday of the ISO week containing d.
func (d Day) Friday() Day {
	return d.Monday() + 4
}

// AddDays shifts the date.
func (d Day) AddDays(n int) Day {
	return d + Day(n)
}

func (d Day) String() string {
	return d.Time().Format("2006-01-02")
}

// OnOrAfter returns the first date >= d that falls on wd.
func OnOrAfter(d Day, wd time.Weekday) Day {
	return d + Day(mod(int64(wd)-int64(d.Weekday()), 7))
}

// IsWorkday reports Monday..Friday.
func IsWorkday(wd time.Weekday) bool {
	return wd >= time.Monday && wd <= time.Friday
}

// Workdays lists Monday..Friday in order.
var Workdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

// Span is an inclusive range of whole days, e.g. a teacher leave.
type Span struct {
	From Day
	To   Day
}

func (s Span) Contains(d Day) bool {
	return d >= s.From && d <= s.To
}

func (s Span) Overlaps(o Span) bool {
	return s.From <= o.To && o.From <= s.To
}

func mod(a, m int64) int64 {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
