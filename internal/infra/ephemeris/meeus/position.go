package meeus

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"

	"github.com/yanqian/moonwatch/pkg/astrotime"
)

const (
	auKm          = 149597870.7
	earthRadiusKm = 6378.14

	sunHorizonDeg        = -0.8333
	moonRefractionDeg    = 34.0 / 60
	moonParallaxScale    = 0.7275
	dipDegPerSqrtMetre   = 0.0347
	secondsPerDay        = 86400.0
	siderealRadPerSecond = 2 * math.Pi / secondsPerDay
)

// equatorial is an apparent geocentric position, angles in radians.
type equatorial struct {
	ra       float64
	dec      float64
	distance float64 // km
}

// deltaT approximates TT-UT in seconds with a quadratic fit good for 1986-2100.
func deltaT(t time.Time) float64 {
	y := float64(t.Year()) + (float64(t.YearDay())-0.5)/365.25
	u := y - 2000
	return 62.92 + 0.32217*u + 0.005589*u*u
}

// ephemerisDay converts a UT instant to Julian Ephemeris Day.
func ephemerisDay(t time.Time) float64 {
	return astrotime.JulianDay(t) + deltaT(t)/secondsPerDay
}

// sunPosition returns the Sun's apparent place at t.
func sunPosition(t time.Time) equatorial {
	jde := ephemerisDay(t)
	α, δ := solar.ApparentEquatorial(jde)
	r := solar.Radius(base.J2000Century(jde))
	return equatorial{ra: float64(α), dec: float64(δ), distance: r * auKm}
}

// moonPosition returns the Moon's apparent place at t together with its apparent
// ecliptic longitude, which the phase calculation needs.
func moonPosition(t time.Time) (equatorial, float64) {
	jde := ephemerisDay(t)
	λ, β, Δ := moonposition.Position(jde)
	Δψ, Δε := nutation.Nutation(jde)
	ε := float64(nutation.MeanObliquity(jde)) + float64(Δε)
	lon := float64(λ) + float64(Δψ)
	ra, dec := eclipticToEquatorial(lon, float64(β), ε)
	return equatorial{ra: ra, dec: dec, distance: Δ}, lon
}

// trueObliquity is ε0 + Δε at t, in radians.
func trueObliquity(t time.Time) float64 {
	jde := ephemerisDay(t)
	_, Δε := nutation.Nutation(jde)
	return float64(nutation.MeanObliquity(jde)) + float64(Δε)
}

func eclipticToEquatorial(λ, β, ε float64) (ra, dec float64) {
	sε, cε := math.Sincos(ε)
	sλ, cλ := math.Sincos(λ)
	ra = math.Atan2(sλ*cε-math.Tan(β)*sε, cλ)
	dec = math.Asin(math.Sin(β)*cε + math.Cos(β)*sε*sλ)
	return ra, dec
}

func equatorialToEclipticLongitude(ra, dec, ε float64) float64 {
	sε, cε := math.Sincos(ε)
	sα, cα := math.Sincos(ra)
	return math.Atan2(sα*cε+math.Tan(dec)*sε, cα)
}

// localSiderealAngle is the apparent sidereal time at the observer's meridian in radians.
func localSiderealAngle(t time.Time, lonDeg float64) float64 {
	gast := float64(sidereal.Apparent(astrotime.JulianDay(t))) * siderealRadPerSecond
	return gast + astrotime.DegToRad(lonDeg)
}

// hourAngle of pos at t in degrees, normalized to (-180, 180].
func hourAngle(pos equatorial, t time.Time, lonDeg float64) float64 {
	return astrotime.Normalize180(astrotime.RadToDeg(localSiderealAngle(t, lonDeg) - pos.ra))
}

// altitude of pos at t for an observer at latDeg/lonDeg, geocentric, in degrees.
func altitude(pos equatorial, t time.Time, latDeg, lonDeg float64) float64 {
	φ := astrotime.DegToRad(latDeg)
	H := localSiderealAngle(t, lonDeg) - pos.ra
	sinh := math.Sin(φ)*math.Sin(pos.dec) + math.Cos(φ)*math.Cos(pos.dec)*math.Cos(H)
	return astrotime.RadToDeg(math.Asin(clamp(sinh, -1, 1)))
}

// horizonDip lowers the standard altitude for an elevated observer.
func horizonDip(elevationM float64) float64 {
	if elevationM <= 0 {
		return 0
	}
	return dipDegPerSqrtMetre * math.Sqrt(elevationM)
}

// moonStandardAltitude is h0 for the Moon: parallax minus refraction and semidiameter.
func moonStandardAltitude(distanceKm float64) float64 {
	parallax := astrotime.RadToDeg(math.Asin(earthRadiusKm / distanceKm))
	return moonParallaxScale*parallax - moonRefractionDeg
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
