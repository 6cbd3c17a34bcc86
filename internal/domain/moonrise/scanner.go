package moonrise

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/moonwatch/pkg/astrotime"
	apperrors "github.com/yanqian/moonwatch/pkg/errors"
	"github.com/yanqian/moonwatch/pkg/metrics"
)

const (
	DefaultMaxDays     = 1095
	DefaultDays        = 30
	defaultScanWorkers = 4
)

// RangeScanner is the entry point used by the request service.
type RangeScanner interface {
	Scan(ctx context.Context, in ScanInput) (ScanResult, error)
}

// Scanner walks a civil date range and keeps the nights with a watchable moonrise.
type Scanner struct {
	cfg      Config
	primary  Engine
	fallback Engine
	logger   *slog.Logger
}

// NewScanner wires the range scanner with its engines.
func NewScanner(cfg Config, engines Engines, logger *slog.Logger) *Scanner {
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = DefaultMaxDays
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultScanWorkers
	}
	return &Scanner{
		cfg:      cfg,
		primary:  engines.Primary,
		fallback: engines.Fallback,
		logger:   logger.With("component", "moonrise.scanner"),
	}
}

type dayOutcome struct {
	method    Method
	available bool
	event     *NightEvent
}

// Scan evaluates every civil day in [in.From, in.To]. Input problems are rejected
// before any engine runs. Per-day engine failures fall back or drop the day; any
// other error, including cancellation, aborts the whole scan.
func (s *Scanner) Scan(ctx context.Context, in ScanInput) (ScanResult, error) {
	tz, err := s.validate(in)
	if err != nil {
		return ScanResult{}, err
	}
	from := civilDate(in.From, tz)
	to := civilDate(in.To, tz)
	span := astrotime.DaysBetween(from, to)
	days := span + 1

	start := time.Now()
	run := &scanRun{
		scanner:  s,
		location: in.Location,
		tz:       tz,
		cutoff:   in.Cutoff,
		cache:    newDayCache(),
	}

	outcomes := make([]dayOutcome, days)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := 0; i < days; i++ {
		if gctx.Err() != nil {
			break
		}
		day := astrotime.AddDays(from, i)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcome, err := run.evaluate(gctx, day)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}
	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("moonrise scan cancelled", "from", from.Format(astrotime.DateLayout), "days", days)
			return ScanResult{}, apperrors.Wrap(CodeScanCancelled, "scan cancelled", err)
		}
		return ScanResult{}, apperrors.Wrap(CodeScanFailed, "failed to scan date range", err)
	}

	var usage metrics.MethodUsage
	events := make([]NightEvent, 0, days)
	for _, outcome := range outcomes {
		switch {
		case !outcome.available:
			usage.Unavailable++
		case outcome.method == MethodFallback:
			usage.Fallback++
		default:
			usage.Primary++
		}
		if outcome.event != nil {
			events = append(events, *outcome.event)
		}
	}

	s.logger.Info("moonrise scan completed",
		"from", from.Format(astrotime.DateLayout),
		"to", to.Format(astrotime.DateLayout),
		"days", usage.Total(),
		"events", len(events),
		"primary", usage.Primary,
		"fallback", usage.Fallback,
		"unavailable", usage.Unavailable,
		"cached_days", run.cache.size(),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return ScanResult{
		Location: in.Location,
		DateRange: DateRange{
			From: from.Format(astrotime.DateLayout),
			To:   to.Format(astrotime.DateLayout),
		},
		DaysSearched: days,
		TotalEvents:  len(events),
		Usage:        usage,
		Events:       events,
	}, nil
}

func (s *Scanner) validate(in ScanInput) (*time.Location, error) {
	if err := ValidateLocation(in.Location); err != nil {
		return nil, err
	}
	tz, err := time.LoadLocation(in.Location.Timezone)
	if err != nil {
		return nil, apperrors.Wrap(CodeInvalidInput, fmt.Sprintf("unknown timezone %q", in.Location.Timezone), err)
	}
	if in.From.IsZero() || in.To.IsZero() {
		return nil, apperrors.Wrap(CodeInvalidInput, "fromDate and toDate are required", nil)
	}
	if err := s.ValidateSpan(astrotime.DaysBetween(civilDate(in.From, tz), civilDate(in.To, tz))); err != nil {
		return nil, err
	}
	if s.primary == nil {
		return nil, apperrors.Wrap(CodeScanFailed, "no ephemeris engine configured", nil)
	}
	return tz, nil
}

// ValidateSpan checks a to-minus-from day count against the configured cap.
func (s *Scanner) ValidateSpan(span int) error {
	return validateSpan(span, s.cfg.MaxDays)
}

func validateSpan(span, maxDays int) error {
	if span < 0 {
		return apperrors.Wrap(CodeInvalidInput, "toDate must not be before fromDate", nil)
	}
	if span > maxDays {
		return apperrors.WithDetails(CodeInvalidInput,
			fmt.Sprintf("Date range too large. Maximum %d days allowed.", maxDays),
			map[string]any{"requestedDays": span, "maxDays": maxDays})
	}
	return nil
}

// ValidateLocation rejects coordinates the engines cannot work with.
func ValidateLocation(loc ObserverLocation) error {
	if !astrotime.Finite(loc.Latitude, loc.Longitude, loc.Elevation) {
		return apperrors.Wrap(CodeInvalidInput, "location coordinates must be finite numbers", nil)
	}
	if math.Abs(loc.Latitude) > 90 {
		return apperrors.Wrap(CodeInvalidInput, fmt.Sprintf("latitude %.4f out of range", loc.Latitude), nil)
	}
	if math.Abs(loc.Longitude) > 180 {
		return apperrors.Wrap(CodeInvalidInput, fmt.Sprintf("longitude %.4f out of range", loc.Longitude), nil)
	}
	if loc.Timezone == "" {
		return apperrors.Wrap(CodeInvalidInput, "location timezone is required", nil)
	}
	return nil
}

func civilDate(t time.Time, tz *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, tz)
}

// scanRun carries the state of a single Scan call.
type scanRun struct {
	scanner  *Scanner
	location ObserverLocation
	tz       *time.Location
	cutoff   Cutoff
	cache    *dayCache
}

func (r *scanRun) evaluate(ctx context.Context, day time.Time) (dayOutcome, error) {
	eph, method, ok, err := r.resolveDay(ctx, day)
	if err != nil {
		return dayOutcome{}, err
	}
	if !ok {
		return dayOutcome{}, nil
	}
	outcome := dayOutcome{method: method, available: true}
	if astrotime.TruncateMinute(*eph.Moon.Rise).Before(astrotime.TruncateMinute(*eph.Sun.Set)) {
		// rose before sunset, no upper bound can make it watchable
		return outcome, nil
	}

	next, err := r.nextSunrise(ctx, astrotime.AddDays(day, 1))
	if err != nil {
		return dayOutcome{}, err
	}
	upper := r.cutoff.UpperBound(eph.Sun.Set, next, r.tz)
	if !IsNighttimeMoonrise(eph.Sun.Set, eph.Moon.Rise, upper) {
		return outcome, nil
	}
	outcome.event = r.buildEvent(day, eph, next, method)
	return outcome, nil
}

// resolveDay returns the ephemeris used for day: the primary's when it has sunset
// and moonrise, the fallback's otherwise. ok is false when neither engine helps.
func (r *scanRun) resolveDay(ctx context.Context, day time.Time) (DayEphemeris, Method, bool, error) {
	eph, err := r.primaryDay(ctx, day)
	switch {
	case err == nil && usableForNight(eph):
		return eph, MethodPrimary, true, nil
	case err != nil && !errors.Is(err, ErrEngineFailure):
		return DayEphemeris{}, "", false, err
	}
	r.scanner.logger.Debug("primary ephemeris incomplete, trying fallback",
		"date", day.Format(astrotime.DateLayout), "error", err)

	if r.scanner.fallback == nil {
		return DayEphemeris{}, "", false, nil
	}
	fb, err := r.scanner.fallback.ComputeDay(ctx, day, r.location)
	if err != nil {
		if errors.Is(err, ErrEngineFailure) {
			return DayEphemeris{}, "", false, nil
		}
		return DayEphemeris{}, "", false, err
	}
	if !usableForNight(fb) {
		return DayEphemeris{}, "", false, nil
	}
	return fb, MethodFallback, true, nil
}

// nextSunrise looks up the morning that closes the night before day.
func (r *scanRun) nextSunrise(ctx context.Context, day time.Time) (*time.Time, error) {
	eph, err := r.primaryDay(ctx, day)
	if err == nil && eph.Sun.Rise != nil {
		return eph.Sun.Rise, nil
	}
	if err != nil && !errors.Is(err, ErrEngineFailure) {
		return nil, err
	}
	if r.scanner.fallback == nil {
		return nil, nil
	}
	fb, err := r.scanner.fallback.ComputeDay(ctx, day, r.location)
	if err != nil {
		if errors.Is(err, ErrEngineFailure) {
			return nil, nil
		}
		return nil, err
	}
	return fb.Sun.Rise, nil
}

func (r *scanRun) primaryDay(ctx context.Context, day time.Time) (DayEphemeris, error) {
	key := day.Format(astrotime.DateLayout)
	return r.cache.get(key, func() (DayEphemeris, error) {
		return r.scanner.primary.ComputeDay(ctx, day, r.location)
	})
}

func (r *scanRun) buildEvent(day time.Time, eph DayEphemeris, nextSunrise *time.Time, method Method) *NightEvent {
	phase := roundTo(NormalizePhase(eph.Illumination.PhaseFraction), 4)
	if phase >= 1 {
		phase = 0
	}
	event := &NightEvent{
		Date:             day.Format(astrotime.DateLayout),
		Sunset:           r.clock(eph.Sun.Set),
		Moonrise:         r.clock(eph.Moon.Rise),
		Moonset:          r.clock(eph.Moon.Set),
		Sunrise:          r.clock(nextSunrise),
		MoonPhase:        phase,
		MoonIllumination: eph.Illumination.IlluminatedPercent(),
		MoonPhaseName:    PhaseName(phase),
		Method:           method,
		SunsetAt:         eph.Sun.Set.UTC(),
		MoonriseAt:       eph.Moon.Rise.UTC(),
		MoonsetAt:        utcPtr(eph.Moon.Set),
	}
	if nextSunrise != nil {
		event.SunriseAt = nextSunrise.UTC()
	}
	return event
}

func (r *scanRun) clock(t *time.Time) string {
	s, _ := astrotime.FormatClock(t, r.tz)
	return s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
