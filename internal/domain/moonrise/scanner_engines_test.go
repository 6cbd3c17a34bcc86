package moonrise_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/moonwatch/internal/domain/moonrise"
	"github.com/yanqian/moonwatch/internal/infra/ephemeris/fallback"
	"github.com/yanqian/moonwatch/internal/infra/ephemeris/meeus"
)

func TestScanMidnightSunWithRealEngines(t *testing.T) {
	tz, err := time.LoadLocation("Europe/Stockholm")
	require.NoError(t, err)

	scanner := moonrise.NewScanner(
		moonrise.Config{MaxDays: moonrise.DefaultMaxDays, Workers: 2},
		moonrise.Engines{Primary: meeus.NewEngine(), Fallback: fallback.NewEngine()},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	result, err := scanner.Scan(context.Background(), moonrise.ScanInput{
		Location: moonrise.ObserverLocation{
			Latitude:  68.35,
			Longitude: 18.83,
			Timezone:  "Europe/Stockholm",
			Name:      "Abisko",
		},
		From: time.Date(2024, 6, 10, 0, 0, 0, 0, tz),
		To:   time.Date(2024, 6, 20, 0, 0, 0, 0, tz),
	})
	require.NoError(t, err)

	require.Equal(t, 11, result.DaysSearched)
	require.Equal(t, "2024-06-10", result.DateRange.From)
	require.Equal(t, "2024-06-20", result.DateRange.To)
	require.Zero(t, result.TotalEvents)
	require.Empty(t, result.Events)
	require.Equal(t, result.DaysSearched, result.Usage.Total())
	require.Equal(t, 11, result.Usage.Unavailable)
}
