package meeus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/moonwatch/internal/domain/moonrise"
)

func losAngeles() moonrise.ObserverLocation {
	return moonrise.ObserverLocation{Latitude: 34.05, Longitude: -118.24, Timezone: "America/Los_Angeles"}
}

func abisko() moonrise.ObserverLocation {
	return moonrise.ObserverLocation{Latitude: 68.35, Longitude: 18.83, Timezone: "Europe/Stockholm"}
}

func TestComputeDayLosAngelesSolstice(t *testing.T) {
	tz := mustLoad(t, "America/Los_Angeles")
	eph, err := NewEngine().ComputeDay(context.Background(), time.Date(2024, 6, 21, 0, 0, 0, 0, tz), losAngeles())
	require.NoError(t, err)
	require.Equal(t, EngineName, eph.Engine)
	require.True(t, eph.Anchor.Equal(time.Date(2024, 6, 21, 12, 0, 0, 0, tz)))

	requireNear(t, time.Date(2024, 6, 21, 20, 8, 0, 0, tz), eph.Sun.Set, 2*time.Minute)
	requireNear(t, time.Date(2024, 6, 21, 20, 27, 0, 0, tz), eph.Moon.Rise, 2*time.Minute)
	requireNear(t, time.Date(2024, 6, 21, 5, 42, 0, 0, tz), eph.Sun.Rise, 2*time.Minute)
	requireNear(t, time.Date(2024, 6, 21, 12, 55, 0, 0, tz), eph.Sun.Transit, 2*time.Minute)

	require.NotNil(t, eph.Moon.Set)
	require.True(t, eph.Moon.Set.After(eph.Anchor))
	require.NotNil(t, eph.Moon.Transit)
	require.True(t, eph.Moon.Transit.After(*eph.Moon.Rise))

	require.Equal(t, moonrise.PhaseFull, moonrise.PhaseName(eph.Illumination.PhaseFraction))
	require.InDelta(t, 0.49, eph.Illumination.PhaseFraction, 0.01)
	require.Greater(t, eph.Illumination.Illuminated, 0.98)
	require.Less(t, eph.Illumination.PhaseAngle, 15.0)
}

func TestComputeDayNextMorning(t *testing.T) {
	tz := mustLoad(t, "America/Los_Angeles")
	eph, err := NewEngine().ComputeDay(context.Background(), time.Date(2024, 6, 22, 0, 0, 0, 0, tz), losAngeles())
	require.NoError(t, err)
	requireNear(t, time.Date(2024, 6, 22, 5, 42, 0, 0, tz), eph.Sun.Rise, 2*time.Minute)
}

func TestComputeDaySunriseSitsOnTheHorizon(t *testing.T) {
	tz := mustLoad(t, "America/Los_Angeles")
	loc := losAngeles()
	for _, day := range []time.Time{
		time.Date(2024, 1, 15, 0, 0, 0, 0, tz),
		time.Date(2024, 3, 10, 0, 0, 0, 0, tz),
		time.Date(2024, 9, 30, 0, 0, 0, 0, tz),
	} {
		eph, err := NewEngine().ComputeDay(context.Background(), day, loc)
		require.NoError(t, err)
		require.NotNil(t, eph.Sun.Rise)
		require.NotNil(t, eph.Sun.Set)
		require.True(t, eph.Sun.Rise.Before(eph.Anchor))
		require.True(t, eph.Sun.Set.After(eph.Anchor))

		for _, instant := range []time.Time{*eph.Sun.Rise, *eph.Sun.Set} {
			alt := altitude(sunPosition(instant), instant, loc.Latitude, loc.Longitude)
			require.InDelta(t, sunHorizonDeg, alt, 0.1)
		}
	}
}

func TestComputeDayCircumpolarSun(t *testing.T) {
	tz := mustLoad(t, "Europe/Stockholm")

	summer, err := NewEngine().ComputeDay(context.Background(), time.Date(2024, 6, 21, 0, 0, 0, 0, tz), abisko())
	require.NoError(t, err)
	require.Nil(t, summer.Sun.Set)
	require.Nil(t, summer.Sun.Rise)
	require.NotNil(t, summer.Sun.Transit)

	winter, err := NewEngine().ComputeDay(context.Background(), time.Date(2024, 12, 21, 0, 0, 0, 0, tz), abisko())
	require.NoError(t, err)
	require.Nil(t, winter.Sun.Rise)
	require.Nil(t, winter.Sun.Set)
}

func TestComputeDayRejectsInvalidInput(t *testing.T) {
	day := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)

	loc := losAngeles()
	loc.Latitude = 91
	_, err := NewEngine().ComputeDay(context.Background(), day, loc)
	require.True(t, errors.Is(err, moonrise.ErrEngineFailure))

	loc = losAngeles()
	loc.Timezone = "Nowhere/Special"
	_, err = NewEngine().ComputeDay(context.Background(), day, loc)
	require.True(t, errors.Is(err, moonrise.ErrEngineFailure))

	_, err = NewEngine().ComputeDay(context.Background(), time.Time{}, losAngeles())
	require.True(t, errors.Is(err, moonrise.ErrEngineFailure))
}

func TestComputeDayHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine().ComputeDay(ctx, time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC), losAngeles())
	require.ErrorIs(t, err, context.Canceled)
}

func TestIlluminationNewMoon(t *testing.T) {
	// new moon 2024-06-06 12:37 UTC
	illum, err := illumination(time.Date(2024, 6, 6, 12, 37, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Less(t, illum.Illuminated, 0.01)
	require.Equal(t, moonrise.PhaseNew, moonrise.PhaseName(illum.PhaseFraction))
}

func TestDeltaTIsPlausible(t *testing.T) {
	dt := deltaT(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Greater(t, dt, 60.0)
	require.Less(t, dt, 80.0)
}

func requireNear(t *testing.T, want time.Time, got *time.Time, tolerance time.Duration) {
	t.Helper()
	require.NotNil(t, got, "expected an event near %s", want.Format(time.RFC3339))
	require.WithinDuration(t, want, *got, tolerance)
}

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	tz, err := time.LoadLocation(name)
	require.NoError(t, err)
	return tz
}
