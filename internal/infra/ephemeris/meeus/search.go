package meeus

import (
	"time"
)

const (
	sampleStep      = 10 * time.Minute
	bisectTolerance = 15 * time.Second
)

// altitudeFunc returns the altitude above the body's standard horizon in degrees,
// so zero is the rise/set condition.
type altitudeFunc func(t time.Time) float64

type direction int

const (
	rising direction = iota
	setting
)

// sweep samples f on a regular grid over [start, end] once so several events can be
// bracketed from the same samples.
type sweep struct {
	f      altitudeFunc
	times  []time.Time
	values []float64
}

func newSweep(f altitudeFunc, start, end time.Time, step time.Duration) *sweep {
	n := int(end.Sub(start)/step) + 1
	s := &sweep{
		f:      f,
		times:  make([]time.Time, 0, n),
		values: make([]float64, 0, n),
	}
	for t := start; !t.After(end); t = t.Add(step) {
		s.times = append(s.times, t)
		s.values = append(s.values, f(t))
	}
	return s
}

func crosses(a, b float64, dir direction) bool {
	if dir == rising {
		return a < 0 && b >= 0
	}
	return a >= 0 && b < 0
}

// crossings returns every refined crossing in dir, in chronological order.
func (s *sweep) crossings(dir direction) []time.Time {
	var out []time.Time
	for i := 1; i < len(s.times); i++ {
		if crosses(s.values[i-1], s.values[i], dir) {
			out = append(out, bisect(s.f, s.times[i-1], s.times[i], s.values[i-1], dir))
		}
	}
	return out
}

// firstAfter is the first crossing at or after from and no later than until.
func (s *sweep) firstAfter(dir direction, from, until time.Time) *time.Time {
	for _, t := range s.crossings(dir) {
		if !t.Before(from) && !t.After(until) {
			found := t
			return &found
		}
	}
	return nil
}

// nearest is the crossing closest to anchor within window on either side.
func (s *sweep) nearest(dir direction, anchor time.Time, window time.Duration) *time.Time {
	var best *time.Time
	var bestGap time.Duration
	for _, t := range s.crossings(dir) {
		gap := absDuration(t.Sub(anchor))
		if gap > window {
			continue
		}
		if best == nil || gap < bestGap {
			found := t
			best, bestGap = &found, gap
		}
	}
	return best
}

func bisect(f altitudeFunc, a, b time.Time, fa float64, dir direction) time.Time {
	for b.Sub(a) > bisectTolerance {
		mid := a.Add(b.Sub(a) / 2)
		fm := f(mid)
		if crosses(fa, fm, dir) {
			b = mid
		} else {
			a, fa = mid, fm
		}
	}
	return a.Add(b.Sub(a) / 2)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
