package recurrence

// DefaultHorizonDays bounds open-ended series during conflict search.
const DefaultHorizonDays = 365

// Detector decides whether two weekly-recurring intervals can ever collide.
type Detector struct {
	horizonDays int
}

// NewDetector creates a detector; non-positive horizon falls back to DefaultHorizonDays.
func NewDetector(horizonDays int) *Detector {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	return &Detector{horizonDays: horizonDays}
}

// HorizonDays returns the look-ahead used for open-ended series.
func (d *Detector) HorizonDays() int {
	return d.horizonDays
}

// Conflicts reports whether a and b occupy overlapping time on at least one shared date.
// Members of the same parent/child chain never conflict.
func (d *Detector) Conflicts(a, b Series) bool {
	if Related(a, b) {
		return false
	}
	if a.Weekday() != b.Weekday() {
		return false
	}
	if _, ok := d.SharedDay(a, b); !ok {
		return false
	}
	return TimesOverlap(a, b)
}

// Window returns the intersection of both active date ranges. Open-ended ranges are
// cut at the horizon counted from the later anchor.
func (d *Detector) Window(a, b Series) (Span, bool) {
	lo := a.Anchor
	if b.Anchor > lo {
		lo = b.Anchor
	}
	hi := d.until(a, lo)
	if other := d.until(b, lo); other < hi {
		hi = other
	}
	return Span{From: lo, To: hi}, lo <= hi
}

func (d *Detector) until(s Series, lo Day) Day {
	switch {
	case s.Single():
		return s.Anchor
	case s.Until != nil:
		return *s.Until
	default:
		return lo + Day(d.horizonDays)
	}
}

// SharedDay returns the first date on which both series occur inside their common
// window. Times of day are ignored.
func (d *Detector) SharedDay(a, b Series) (Day, bool) {
	if a.Weekday() != b.Weekday() {
		return 0, false
	}
	window, ok := d.Window(a, b)
	if !ok {
		return 0, false
	}

	switch {
	case a.Single() && b.Single():
		if a.Anchor == b.Anchor && window.Contains(a.Anchor) {
			return a.Anchor, true
		}
		return 0, false
	case a.Single():
		if window.Contains(a.Anchor) && Occurs(b, a.Anchor) {
			return a.Anchor, true
		}
		return 0, false
	case b.Single():
		if window.Contains(b.Anchor) && Occurs(a, b.Anchor) {
			return b.Anchor, true
		}
		return 0, false
	}

	x, period, ok := crt(int64(a.Anchor), a.Period(), int64(b.Anchor), b.Period())
	if !ok {
		return 0, false
	}
	first := window.From + Day(mod(x-int64(window.From), period))
	if first > window.To {
		return 0, false
	}
	return first, true
}

// Congruent is the plain gcd test: the two series land on a common date for some
// multiple of their periods, regardless of date ranges.
func Congruent(a, b Series) bool {
	if a.Single() || b.Single() {
		return true
	}
	return mod(int64(b.Anchor-a.Anchor), gcd(a.Period(), b.Period())) == 0
}

// crt solves x ≡ a (mod m), x ≡ b (mod n). Returns x in [0, lcm) and lcm.
func crt(a, m, b, n int64) (int64, int64, bool) {
	g, p, _ := extGCD(m, n)
	if mod(b-a, g) != 0 {
		return 0, 0, false
	}
	l := lcm(m, n)
	ng := n / g
	t := mod(mod((b-a)/g, ng)*mod(p, ng), ng)
	return mod(a+m*t, l), l, true
}

func extGCD(a, b int64) (g, x, y int64) {
	oldR, r := a, b
	oldS, s := int64(1), int64(0)
	oldT, t := int64(0), int64(1)
	for r != 0 {
		q := oldR / r
		oldR, r = r, oldR-q*r
		oldS, s = s, oldS-q*s
		oldT, t = t, oldT-q*t
	}
	return oldR, oldS, oldT
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

func lcm(a, b int64) int64 {
	return a / gcd(a, b) * b
}
