package meeus

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/unit"

	"github.com/yanqian/moonwatch/internal/domain/moonrise"
	"github.com/yanqian/moonwatch/pkg/astrotime"
)

const (
	// EngineName is reported in DayEphemeris.Engine.
	EngineName = "meeus"

	dayWindow     = 24 * time.Hour
	transitWindow = 12 * time.Hour
)

// Engine is the primary ephemeris: Meeus lunar and solar theory with a numeric
// horizon-crossing search around local noon.
type Engine struct {
	step time.Duration
}

// NewEngine builds the primary engine.
func NewEngine() *Engine {
	return &Engine{step: sampleStep}
}

// Name implements moonrise.Engine.
func (e *Engine) Name() string { return EngineName }

// ComputeDay implements moonrise.Engine. Searches are anchored at 12:00 local time:
// sunrise is the crossing nearest the anchor, sunset and every Moon event the first
// one at or after it, each within one day.
func (e *Engine) ComputeDay(ctx context.Context, date time.Time, loc moonrise.ObserverLocation) (moonrise.DayEphemeris, error) {
	if err := ctx.Err(); err != nil {
		return moonrise.DayEphemeris{}, err
	}
	if !astrotime.Finite(loc.Latitude, loc.Longitude, loc.Elevation) ||
		math.Abs(loc.Latitude) > 90 || math.Abs(loc.Longitude) > 180 {
		return moonrise.DayEphemeris{}, fmt.Errorf("meeus: invalid coordinates %v,%v: %w", loc.Latitude, loc.Longitude, moonrise.ErrEngineFailure)
	}
	if date.IsZero() {
		return moonrise.DayEphemeris{}, fmt.Errorf("meeus: zero date: %w", moonrise.ErrEngineFailure)
	}
	tz, err := time.LoadLocation(loc.Timezone)
	if err != nil {
		return moonrise.DayEphemeris{}, fmt.Errorf("meeus: timezone %q: %w", loc.Timezone, moonrise.ErrEngineFailure)
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, tz)
	anchor := astrotime.LocalNoon(day, tz)
	dip := horizonDip(loc.Elevation)
	lat, lon := loc.Latitude, loc.Longitude

	sunAlt := func(t time.Time) float64 {
		return altitude(sunPosition(t), t, lat, lon) - (sunHorizonDeg - dip)
	}
	moonAlt := func(t time.Time) float64 {
		pos, _ := moonPosition(t)
		return altitude(pos, t, lat, lon) - (moonStandardAltitude(pos.distance) - dip)
	}
	sunHA := func(t time.Time) float64 { return hourAngle(sunPosition(t), t, lon) }
	moonHA := func(t time.Time) float64 {
		pos, _ := moonPosition(t)
		return hourAngle(pos, t, lon)
	}

	sun := newSweep(sunAlt, anchor.Add(-dayWindow), anchor.Add(dayWindow), e.step)
	if err := ctx.Err(); err != nil {
		return moonrise.DayEphemeris{}, err
	}
	moon := newSweep(moonAlt, anchor.Add(-e.step), anchor.Add(dayWindow), e.step)
	sunMeridian := newSweep(sunHA, anchor.Add(-transitWindow), anchor.Add(transitWindow), e.step)
	moonMeridian := newSweep(moonHA, anchor.Add(-e.step), anchor.Add(dayWindow), e.step)

	illum, err := illumination(anchor)
	if err != nil {
		return moonrise.DayEphemeris{}, err
	}

	end := anchor.Add(dayWindow)
	return moonrise.DayEphemeris{
		Date:   day,
		Anchor: anchor,
		Sun: moonrise.CelestialEvent{
			Rise:    sun.nearest(rising, anchor, dayWindow),
			Transit: sunMeridian.nearest(rising, anchor, transitWindow),
			Set:     sun.firstAfter(setting, anchor, end),
		},
		Moon: moonrise.CelestialEvent{
			Rise:    moon.firstAfter(rising, anchor, end),
			Transit: moonMeridian.firstAfter(rising, anchor, end),
			Set:     moon.firstAfter(setting, anchor, end),
		},
		Illumination: illum,
		Engine:       EngineName,
	}, nil
}

// illumination follows Meeus chapter 48 at instant t.
func illumination(t time.Time) (moonrise.MoonIllumination, error) {
	sun := sunPosition(t)
	moon, moonLon := moonPosition(t)
	sunLon := equatorialToEclipticLongitude(sun.ra, sun.dec, trueObliquity(t))

	elongation := astrotime.Normalize360(astrotime.RadToDeg(moonLon - sunLon))

	cosψ := math.Sin(sun.dec)*math.Sin(moon.dec) +
		math.Cos(sun.dec)*math.Cos(moon.dec)*math.Cos(sun.ra-moon.ra)
	ψ := math.Acos(clamp(cosψ, -1, 1))
	i := unit.Angle(math.Atan2(sun.distance*math.Sin(ψ), moon.distance-sun.distance*math.Cos(ψ)))

	out := moonrise.MoonIllumination{
		PhaseFraction: elongation / 360,
		Illuminated:   (1 + math.Cos(float64(i))) / 2,
		PhaseAngle:    i.Deg(),
	}
	if !astrotime.Finite(out.PhaseFraction, out.Illuminated, out.PhaseAngle) {
		return moonrise.MoonIllumination{}, fmt.Errorf("meeus: illumination at %s: %w", t.Format(time.RFC3339), moonrise.ErrEngineFailure)
	}
	return out, nil
}
