package util

import "time"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// TodayIn returns midnight of the current civil day in loc according to now.
func TodayIn(now func() time.Time, loc *time.Location) time.Time {
	if now == nil {
		now = NowUTC
	}
	local := now().In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
