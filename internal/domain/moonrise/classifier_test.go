package moonrise

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsNighttimeMoonrise(t *testing.T) {
	la := mustLoadLocation(t, "America/Los_Angeles")
	sunset := at(la, 2024, 6, 21, 20, 8)
	nextSunrise := at(la, 2024, 6, 22, 5, 42)

	cases := []struct {
		name     string
		moonrise time.Time
		want     bool
	}{
		{"evening after sunset", at(la, 2024, 6, 21, 20, 27), true},
		{"same minute as sunset", at(la, 2024, 6, 21, 20, 8).Add(30 * time.Second), true},
		{"after midnight before dawn", at(la, 2024, 6, 22, 2, 15), true},
		{"same minute as sunrise", at(la, 2024, 6, 22, 5, 42).Add(40 * time.Second), true},
		{"afternoon before sunset", at(la, 2024, 6, 21, 15, 0), false},
		{"after next sunrise", at(la, 2024, 6, 22, 9, 30), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rise := tc.moonrise
			require.Equal(t, tc.want, IsNighttimeMoonrise(&sunset, &rise, &nextSunrise))
		})
	}
}

func TestIsNighttimeMoonriseMissingAnchors(t *testing.T) {
	la := mustLoadLocation(t, "America/Los_Angeles")
	sunset := at(la, 2024, 6, 21, 20, 8)
	rise := at(la, 2024, 6, 21, 21, 0)
	dawn := at(la, 2024, 6, 22, 5, 42)

	require.False(t, IsNighttimeMoonrise(nil, &rise, &dawn))
	require.False(t, IsNighttimeMoonrise(&sunset, nil, &dawn))
	require.False(t, IsNighttimeMoonrise(&sunset, &rise, nil))
}

func TestIsNighttimeMoonriseEarlierSunsetOnlyWidens(t *testing.T) {
	la := mustLoadLocation(t, "America/Los_Angeles")
	dawn := at(la, 2024, 6, 22, 5, 42)
	base := at(la, 2024, 6, 21, 17, 0)

	for riseOffset := 0; riseOffset <= 14*60; riseOffset += 7 {
		rise := base.Add(time.Duration(riseOffset) * time.Minute)
		prev := false
		// sunset walks from late to early; once watchable it must stay watchable
		for sunsetOffset := 5 * 60; sunsetOffset >= 0; sunsetOffset -= 5 {
			sunset := base.Add(time.Duration(sunsetOffset) * time.Minute)
			got := IsNighttimeMoonrise(&sunset, &rise, &dawn)
			if prev {
				require.True(t, got, "rise=%s sunset=%s", rise, sunset)
			}
			prev = got
		}
	}
}

func TestIsNighttimeClockWrapsMidnight(t *testing.T) {
	sunset := 20*60 + 8
	dawn := 5*60 + 42
	require.True(t, IsNighttimeClock(sunset, 21*60, dawn))
	require.True(t, IsNighttimeClock(sunset, 1*60, dawn))
	require.False(t, IsNighttimeClock(sunset, 12*60, dawn))
}

func TestClockAndInstantFormsAgree(t *testing.T) {
	la := mustLoadLocation(t, "America/Los_Angeles")
	sunset := at(la, 2024, 6, 21, 20, 8)
	dawn := at(la, 2024, 6, 22, 5, 42)
	noon := at(la, 2024, 6, 21, 12, 0)

	for offset := 0; offset < 24*60; offset += 11 {
		rise := noon.Add(time.Duration(offset) * time.Minute)
		byInstant := IsNighttimeMoonrise(&sunset, &rise, &dawn)
		byClock := IsNighttimeClock(minutes(sunset), minutes(rise), minutes(dawn))
		require.Equal(t, byInstant, byClock, "rise=%s", rise)
	}
}

func TestParseCutoff(t *testing.T) {
	for _, input := range []string{"", "until sunrise", "Until Sunrise", "sunrise", "until_sunrise"} {
		c, err := ParseCutoff(input)
		require.NoError(t, err, input)
		require.True(t, c.UsesSunrise(), input)
		require.Equal(t, UntilSunrise, c.String())
	}

	c, err := ParseCutoff("23:30")
	require.NoError(t, err)
	require.False(t, c.UsesSunrise())
	require.Equal(t, "23:30", c.String())

	c, err = ParseCutoff("24:00")
	require.NoError(t, err)
	require.Equal(t, "00:00", c.String())

	_, err = ParseCutoff("late")
	require.Error(t, err)
}

func TestCutoffUpperBound(t *testing.T) {
	la := mustLoadLocation(t, "America/Los_Angeles")
	sunset := at(la, 2024, 6, 21, 20, 8)
	dawn := at(la, 2024, 6, 22, 5, 42)

	sunriseCutoff, err := ParseCutoff(UntilSunrise)
	require.NoError(t, err)
	require.Equal(t, &dawn, sunriseCutoff.UpperBound(&sunset, &dawn, la))

	evening, err := ParseCutoff("23:00")
	require.NoError(t, err)
	bound := evening.UpperBound(&sunset, &dawn, la)
	require.NotNil(t, bound)
	require.Equal(t, at(la, 2024, 6, 21, 23, 0), *bound)

	late, err := ParseCutoff("01:30")
	require.NoError(t, err)
	bound = late.UpperBound(&sunset, &dawn, la)
	require.NotNil(t, bound)
	require.Equal(t, at(la, 2024, 6, 22, 1, 30), *bound)

	require.Nil(t, evening.UpperBound(nil, &dawn, la))

	// polar nights have no sunrise to cap against
	bound = late.UpperBound(&sunset, nil, la)
	require.NotNil(t, bound)
	require.Equal(t, at(la, 2024, 6, 22, 1, 30), *bound)
}

func TestBedtimeAfterDawnStopsAtSunrise(t *testing.T) {
	la := mustLoadLocation(t, "America/Los_Angeles")
	sunset := at(la, 2024, 6, 21, 20, 8)
	dawn := at(la, 2024, 6, 22, 5, 42)
	cutoff, err := ParseCutoff("08:00")
	require.NoError(t, err)

	upper := cutoff.UpperBound(&sunset, &dawn, la)
	require.NotNil(t, upper)
	require.Equal(t, dawn, *upper)

	beforeDawn := at(la, 2024, 6, 22, 4, 50)
	afterDawn := at(la, 2024, 6, 22, 6, 30)
	require.True(t, IsNighttimeMoonrise(&sunset, &beforeDawn, upper))
	require.False(t, IsNighttimeMoonrise(&sunset, &afterDawn, upper))
}

func TestBedtimeExcludesLateMoonrise(t *testing.T) {
	la := mustLoadLocation(t, "America/Los_Angeles")
	sunset := at(la, 2024, 6, 21, 20, 8)
	dawn := at(la, 2024, 6, 22, 5, 42)
	cutoff, err := ParseCutoff("23:00")
	require.NoError(t, err)
	upper := cutoff.UpperBound(&sunset, &dawn, la)

	early := at(la, 2024, 6, 21, 22, 10)
	afterMidnight := at(la, 2024, 6, 22, 1, 0)
	require.True(t, IsNighttimeMoonrise(&sunset, &early, upper))
	require.False(t, IsNighttimeMoonrise(&sunset, &afterMidnight, upper))
	require.True(t, IsNighttimeMoonrise(&sunset, &afterMidnight, &dawn))
}

func at(loc *time.Location, year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

func minutes(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func mustLoadLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}
