package fallback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/moonwatch/internal/domain/moonrise"
)

func TestComputeDayLosAngeles(t *testing.T) {
	tz, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	loc := moonrise.ObserverLocation{Latitude: 34.05, Longitude: -118.24, Timezone: "America/Los_Angeles"}

	eph, err := NewEngine().ComputeDay(context.Background(), time.Date(2024, 6, 21, 0, 0, 0, 0, tz), loc)
	require.NoError(t, err)
	require.Equal(t, EngineName, eph.Engine)

	require.NotNil(t, eph.Sun.Set)
	require.WithinDuration(t, time.Date(2024, 6, 21, 20, 8, 0, 0, tz), *eph.Sun.Set, 3*time.Minute)
	require.NotNil(t, eph.Sun.Rise)
	require.WithinDuration(t, time.Date(2024, 6, 21, 5, 42, 0, 0, tz), *eph.Sun.Rise, 3*time.Minute)
	require.NotNil(t, eph.Sun.Transit)
	require.NotNil(t, eph.Moon.Rise)
	require.WithinDuration(t, time.Date(2024, 6, 21, 20, 27, 0, 0, tz), *eph.Moon.Rise, 6*time.Minute)
	require.Nil(t, eph.Moon.Transit)

	require.Equal(t, moonrise.PhaseFull, moonrise.PhaseName(eph.Illumination.PhaseFraction))
	require.Greater(t, eph.Illumination.Illuminated, 0.98)
	require.Less(t, eph.Illumination.PhaseAngle, 20.0)
}

func TestComputeDayMidnightSun(t *testing.T) {
	tz, err := time.LoadLocation("Europe/Stockholm")
	require.NoError(t, err)
	loc := moonrise.ObserverLocation{Latitude: 68.35, Longitude: 18.83, Timezone: "Europe/Stockholm"}

	eph, err := NewEngine().ComputeDay(context.Background(), time.Date(2024, 6, 21, 0, 0, 0, 0, tz), loc)
	require.NoError(t, err)
	require.Nil(t, eph.Sun.Set)
	require.Nil(t, eph.Sun.Rise)
}

func TestComputeDayRejectsInvalidInput(t *testing.T) {
	day := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)

	_, err := NewEngine().ComputeDay(context.Background(), day, moonrise.ObserverLocation{Latitude: 0, Longitude: 200, Timezone: "UTC"})
	require.True(t, errors.Is(err, moonrise.ErrEngineFailure))

	_, err = NewEngine().ComputeDay(context.Background(), day, moonrise.ObserverLocation{Timezone: "Bogus/Zone"})
	require.True(t, errors.Is(err, moonrise.ErrEngineFailure))

	_, err = NewEngine().ComputeDay(context.Background(), time.Time{}, moonrise.ObserverLocation{Timezone: "UTC"})
	require.True(t, errors.Is(err, moonrise.ErrEngineFailure))
}

func TestFirstBetweenAndNearest(t *testing.T) {
	anchor := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)
	list := []time.Time{anchor.Add(5 * time.Hour), anchor.Add(-6 * time.Hour), anchor.Add(30 * time.Hour)}

	first := firstBetween(list, anchor, anchor.Add(24*time.Hour))
	require.NotNil(t, first)
	require.Equal(t, anchor.Add(5*time.Hour), *first)
	require.Nil(t, firstBetween(list, anchor.Add(6*time.Hour), anchor.Add(12*time.Hour)))

	near := nearest(list, anchor, 24*time.Hour)
	require.NotNil(t, near)
	require.Equal(t, anchor.Add(5*time.Hour), *near)
	require.False(t, sane(time.Time{}, anchor))
	require.False(t, sane(anchor.Add(72*time.Hour), anchor))
}
