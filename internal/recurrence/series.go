package recurrence

import "time"

// Series is a weekly-recurring time interval: it occurs on Anchor and then every
// 7*IntervalWeeks days up to and including Until (nil = open-ended).
// IntervalWeeks == 0 describes a single occurrence on Anchor.
type Series struct {
	ID            int64
	ParentID      int64 // 0 = no parent
	Anchor        Day
	Until         *Day
	IntervalWeeks int
	Start         int // minutes since midnight
	End           int
}

// Once builds a single-occurrence series, used for concrete lesson dates.
func Once(day Day, start, end int) Series {
	until := day
	return Series{Anchor: day, Until: &until, Start: start, End: end}
}

// Single reports a non-recurring series.
func (s Series) Single() bool {
	return s.IntervalWeeks <= 0
}

// Period in days.
func (s Series) Period() int64 {
	return 7 * int64(s.IntervalWeeks)
}

// Weekday of every occurrence.
func (s Series) Weekday() time.Weekday {
	return s.Anchor.Weekday()
}

// Occurs reports whether the series has an occurrence on day.
func Occurs(s Series, day Day) bool {
	if day < s.Anchor {
		return false
	}
	if s.Until != nil && day > *s.Until {
		return false
	}
	if s.Single() {
		return day == s.Anchor
	}
	return mod(int64(day-s.Anchor), s.Period()) == 0
}

// NextOnOrAfter returns the first occurrence >= day.
func NextOnOrAfter(s Series, day Day) (Day, bool) {
	var next Day
	switch {
	case day <= s.Anchor:
		next = s.Anchor
	case s.Single():
		return 0, false
	default:
		next = day + Day(mod(int64(s.Anchor-day), s.Period()))
	}
	if s.Until != nil && next > *s.Until {
		return 0, false
	}
	return next, true
}

// Between lists the occurrences inside [from, to].
func Between(s Series, from, to Day) []Day {
	var days []Day
	next, ok := NextOnOrAfter(s, from)
	for ok && next <= to {
		days = append(days, next)
		if s.Single() {
			break
		}
		next += Day(s.Period())
		if s.Until != nil && next > *s.Until {
			break
		}
	}
	return days
}

// TimesOverlap is the half-open interval test on the time-of-day ranges.
func TimesOverlap(a, b Series) bool {
	return a.Start < b.End && b.Start < a.End
}

// Related reports whether a and b are the same contract or a direct parent/child pair.
func Related(a, b Series) bool {
	if a.ID != 0 && a.ID == b.ID {
		return true
	}
	if a.ID != 0 && b.ParentID == a.ID {
		return true
	}
	return b.ID != 0 && a.ParentID == b.ID
}
