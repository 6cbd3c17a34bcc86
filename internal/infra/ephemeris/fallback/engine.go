package fallback

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"github.com/sixdouglas/suncalc"

	"github.com/yanqian/moonwatch/internal/domain/moonrise"
	"github.com/yanqian/moonwatch/pkg/astrotime"
)

// EngineName is reported in DayEphemeris.Engine.
const EngineName = "suncalc"

// sanityWindow bounds how far an event may sit from the anchor before it is
// treated as a library artefact.
const sanityWindow = 48 * time.Hour

// Engine is the low-precision fallback built on go-sunrise for the Sun and suncalc
// for the Moon.
type Engine struct{}

// NewEngine builds the fallback engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Name implements moonrise.Engine.
func (e *Engine) Name() string { return EngineName }

// ComputeDay implements moonrise.Engine with the same anchoring rules as the
// primary engine.
func (e *Engine) ComputeDay(ctx context.Context, date time.Time, loc moonrise.ObserverLocation) (moonrise.DayEphemeris, error) {
	if err := ctx.Err(); err != nil {
		return moonrise.DayEphemeris{}, err
	}
	if !astrotime.Finite(loc.Latitude, loc.Longitude) ||
		math.Abs(loc.Latitude) > 90 || math.Abs(loc.Longitude) > 180 {
		return moonrise.DayEphemeris{}, fmt.Errorf("suncalc: invalid coordinates %v,%v: %w", loc.Latitude, loc.Longitude, moonrise.ErrEngineFailure)
	}
	if date.IsZero() {
		return moonrise.DayEphemeris{}, fmt.Errorf("suncalc: zero date: %w", moonrise.ErrEngineFailure)
	}
	tz, err := time.LoadLocation(loc.Timezone)
	if err != nil {
		return moonrise.DayEphemeris{}, fmt.Errorf("suncalc: timezone %q: %w", loc.Timezone, moonrise.ErrEngineFailure)
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, tz)
	anchor := astrotime.LocalNoon(day, tz)
	end := anchor.Add(24 * time.Hour)
	lat, lng := loc.Latitude, loc.Longitude

	sunEvents := e.sun(day, anchor, lat, lng)
	moonEvents := e.moon(day, anchor, end, lat, lng)

	illum := suncalc.GetMoonIllumination(anchor)
	out := moonrise.MoonIllumination{
		PhaseFraction: moonrise.NormalizePhase(illum.Phase),
		Illuminated:   illum.Fraction,
		PhaseAngle:    phaseAngle(illum.Fraction),
	}
	if !astrotime.Finite(illum.Phase, illum.Fraction) {
		return moonrise.DayEphemeris{}, fmt.Errorf("suncalc: illumination on %s: %w", day.Format(astrotime.DateLayout), moonrise.ErrEngineFailure)
	}

	return moonrise.DayEphemeris{
		Date:         day,
		Anchor:       anchor,
		Sun:          sunEvents,
		Moon:         moonEvents,
		Illumination: out,
		Engine:       EngineName,
	}, nil
}

func (e *Engine) sun(day, anchor time.Time, lat, lng float64) moonrise.CelestialEvent {
	var rises, sets []time.Time
	for offset := -1; offset <= 1; offset++ {
		d := astrotime.AddDays(day, offset)
		rise, set := sunrise.SunriseSunset(lat, lng, d.Year(), d.Month(), d.Day())
		rises = appendSane(rises, rise, anchor)
		sets = appendSane(sets, set, anchor)
	}

	var transit *time.Time
	noon := suncalc.GetTimes(anchor, lat, lng)[suncalc.SolarNoon].Value
	if sane(noon, anchor) && absDuration(noon.Sub(anchor)) <= 12*time.Hour {
		transit = &noon
	}

	return moonrise.CelestialEvent{
		Rise:    nearest(rises, anchor, 24*time.Hour),
		Transit: transit,
		Set:     firstBetween(sets, anchor, anchor.Add(24*time.Hour)),
	}
}

func (e *Engine) moon(day, anchor, end time.Time, lat, lng float64) moonrise.CelestialEvent {
	var rises, sets []time.Time
	for offset := 0; offset <= 1; offset++ {
		d := astrotime.AddDays(day, offset)
		times := suncalc.GetMoonTimes(d, lat, lng, false)
		rises = appendSane(rises, times.Rise, anchor)
		sets = appendSane(sets, times.Set, anchor)
	}
	// suncalc has no lunar transit
	return moonrise.CelestialEvent{
		Rise: firstBetween(rises, anchor, end),
		Set:  firstBetween(sets, anchor, end),
	}
}

// phaseAngle inverts k = (1 + cos i) / 2.
func phaseAngle(fraction float64) float64 {
	return astrotime.RadToDeg(math.Acos(math.Max(-1, math.Min(1, 2*fraction-1))))
}

func sane(t, anchor time.Time) bool {
	if t.IsZero() {
		return false
	}
	return absDuration(t.Sub(anchor)) <= sanityWindow
}

func appendSane(list []time.Time, t, anchor time.Time) []time.Time {
	if !sane(t, anchor) {
		return list
	}
	return append(list, t)
}

func firstBetween(list []time.Time, from, until time.Time) *time.Time {
	sort.Slice(list, func(i, j int) bool { return list[i].Before(list[j]) })
	for _, t := range list {
		if !t.Before(from) && !t.After(until) {
			found := t
			return &found
		}
	}
	return nil
}

func nearest(list []time.Time, anchor time.Time, window time.Duration) *time.Time {
	var best *time.Time
	for _, t := range list {
		gap := absDuration(t.Sub(anchor))
		if gap > window {
			continue
		}
		if best == nil || gap < absDuration(best.Sub(anchor)) {
			found := t
			best = &found
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
