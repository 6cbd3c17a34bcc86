// Package astrotime holds the time and angle helpers shared by the ephemeris engines
// and the nighttime classifier.
package astrotime

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// DateLayout is the civil date format used on the wire.
const DateLayout = "2006-01-02"

// J2000 is the julian day of 2000-01-01T12:00:00 UTC.
const J2000 = 2451545.0

// JulianDay converts an instant to a julian day number.
func JulianDay(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// FromJulianDay converts a julian day number back to a UTC instant.
func FromJulianDay(jd float64) time.Time {
	return julian.JDToTime(jd).UTC()
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 { return deg * math.Pi / 180 }

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 { return rad * 180 / math.Pi }

// Normalize360 wraps an angle in degrees into [0, 360).
func Normalize360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Normalize180 wraps an angle in degrees into (-180, 180].
func Normalize180(deg float64) float64 {
	deg = Normalize360(deg)
	if deg > 180 {
		deg -= 360
	}
	return deg
}

// Finite reports whether every value is a real number.
func Finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// FormatClock renders the wall-clock HH:MM of t in loc.
// A nil instant, a zero instant or a nil location yields ok=false.
func FormatClock(t *time.Time, loc *time.Location) (string, bool) {
	if t == nil || t.IsZero() || loc == nil {
		return "", false
	}
	return CanonicalClock(t.In(loc).Format("15:04")), true
}

// CanonicalClock rewrites a 24:MM rollover to 00:MM. The implied civil day moves
// forward by one; callers that care track the instant separately.
func CanonicalClock(clock string) string {
	if strings.HasPrefix(clock, "24:") {
		return "00:" + strings.TrimPrefix(clock, "24:")
	}
	return clock
}

// ParseClock parses an HH:MM wall-clock string into hour and minute.
// 24:MM is accepted and returned as 00:MM.
func ParseClock(value string) (hour, minute int, err error) {
	clock := CanonicalClock(strings.TrimSpace(value))
	parts := strings.Split(clock, ":")
	if len(parts) != 2 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("clock %q must be formatted as HH:MM", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("clock %q has an invalid hour", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock %q has an invalid minute", value)
	}
	return hour, minute, nil
}

// MinutesOfDay returns the minutes since local midnight of t's own civil day in loc.
func MinutesOfDay(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}

// CivilDay truncates t to midnight of its civil day in loc.
func CivilDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// LocalNoon returns 12:00 wall-clock time on the civil date of day in loc.
func LocalNoon(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc)
}

// AddDays moves a civil date by n days without drifting across DST changes.
func AddDays(day time.Time, n int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day()+n, 0, 0, 0, 0, day.Location())
}

// DaysBetween counts civil days from "from" to "to". Both are expected to be
// civil-day values produced by CivilDay or ParseDate.
func DaysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD civil date at midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
}

// TruncateMinute drops seconds so instants compare the way their HH:MM strings read.
func TruncateMinute(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}
