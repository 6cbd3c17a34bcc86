package moonrise

import (
	"fmt"
	"strings"
	"time"

	"github.com/yanqian/moonwatch/pkg/astrotime"
)

// UntilSunrise is the bedtime sentinel that keeps the next sunrise as the upper bound.
const UntilSunrise = "until sunrise"

// Cutoff is the upper bound of the watchable window.
// The zero value means "until sunrise".
type Cutoff struct {
	clock  string
	hour   int
	minute int
	fixed  bool
}

// ParseCutoff accepts "", "until sunrise" (any case, also "sunrise" and
// "until_sunrise") or a wall-clock HH:MM bedtime.
func ParseCutoff(value string) (Cutoff, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "", UntilSunrise, "until_sunrise", "sunrise":
		return Cutoff{}, nil
	}
	hour, minute, err := astrotime.ParseClock(v)
	if err != nil {
		return Cutoff{}, fmt.Errorf("bedtime must be HH:MM or %q: %w", UntilSunrise, err)
	}
	return Cutoff{
		clock:  fmt.Sprintf("%02d:%02d", hour, minute),
		hour:   hour,
		minute: minute,
		fixed:  true,
	}, nil
}

// UsesSunrise reports whether the cutoff falls back to the next sunrise.
func (c Cutoff) UsesSunrise() bool { return !c.fixed }

// String renders the cutoff the way it is accepted.
func (c Cutoff) String() string {
	if !c.fixed {
		return UntilSunrise
	}
	return c.clock
}

// UpperBound resolves the cutoff into an instant for one night. A fixed bedtime is
// the first occurrence of that wall-clock time after sunset in loc, capped at the
// next sunrise when one is known.
func (c Cutoff) UpperBound(sunset, nextSunrise *time.Time, loc *time.Location) *time.Time {
	if !c.fixed {
		return nextSunrise
	}
	if sunset == nil || loc == nil {
		return nil
	}
	local := sunset.In(loc)
	bound := time.Date(local.Year(), local.Month(), local.Day(), c.hour, c.minute, 0, 0, loc)
	if !bound.After(*sunset) {
		bound = time.Date(local.Year(), local.Month(), local.Day()+1, c.hour, c.minute, 0, 0, loc)
	}
	if nextSunrise != nil && nextSunrise.Before(bound) {
		return nextSunrise
	}
	return &bound
}

// IsNighttimeMoonrise reports whether moonrise lies in the dark window running from
// sunset to upper. Comparisons happen at minute resolution, the same precision the
// rendered clock times carry. Any missing anchor makes the night unclassifiable.
func IsNighttimeMoonrise(sunset, moonrise, upper *time.Time) bool {
	if sunset == nil || moonrise == nil || upper == nil {
		return false
	}
	s := astrotime.TruncateMinute(*sunset)
	m := astrotime.TruncateMinute(*moonrise)
	u := astrotime.TruncateMinute(*upper)
	return !m.Before(s) && !m.After(u)
}

// IsNighttimeClock is the wall-clock form of the classifier: minutes since local
// midnight of each time's own civil day, wrapping across midnight. It matches
// IsNighttimeMoonrise whenever moonrise lies between local noon of the evening and
// local noon of the following day.
func IsNighttimeClock(sunsetMinutes, moonriseMinutes, upperMinutes int) bool {
	return moonriseMinutes >= sunsetMinutes || moonriseMinutes <= upperMinutes
}
