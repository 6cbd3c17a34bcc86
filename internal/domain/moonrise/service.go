package moonrise

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/moonwatch/pkg/astrotime"
	apperrors "github.com/yanqian/moonwatch/pkg/errors"
	"github.com/yanqian/moonwatch/pkg/util"
)

// Service exposes the watchable-moonrise search.
type Service interface {
	Search(ctx context.Context, req Request) (Response, error)
}

// LocationResolver geocodes free text into coordinates and display metadata.
type LocationResolver interface {
	Resolve(ctx context.Context, query string) (ObserverLocation, error)
}

// ZoneFinder maps coordinates to an IANA timezone name.
type ZoneFinder interface {
	Zone(lat, lng float64) (string, error)
}

type service struct {
	cfg      Config
	resolver LocationResolver
	zones    ZoneFinder
	store    LocationStore
	scanner  RangeScanner
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires up the moonrise domain.
func NewService(cfg Config, resolver LocationResolver, zones ZoneFinder, store LocationStore, scanner RangeScanner, logger *slog.Logger) Service {
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = DefaultMaxDays
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = DefaultDays
	}
	return &service{
		cfg:      cfg,
		resolver: resolver,
		zones:    zones,
		store:    store,
		scanner:  scanner,
		logger:   logger.With("component", "moonrise.service"),
		now:      util.NowUTC,
	}
}

// rangeRequest is the date part of a request once the text has been checked.
type rangeRequest struct {
	from, to string
	days     int
}

func (s *service) Search(ctx context.Context, req Request) (Response, error) {
	query := strings.TrimSpace(req.Location)
	if query == "" {
		return Response{}, apperrors.WithDetails(CodeInvalidInput, "Location is required",
			map[string]any{"examples": `Try: "90210", "Los Angeles", "Austin, TX", or "1600 Pennsylvania Ave, Washington DC"`})
	}
	cutoff, err := ParseCutoff(req.Bedtime)
	if err != nil {
		return Response{}, apperrors.Wrap(CodeInvalidInput, "invalid bedtime", err)
	}
	rng, err := s.checkRange(req)
	if err != nil {
		return Response{}, err
	}

	loc, err := s.resolveLocation(ctx, query)
	if err != nil {
		return Response{}, err
	}
	tz, err := time.LoadLocation(loc.Timezone)
	if err != nil {
		return Response{}, apperrors.Wrap(CodeScanFailed, "resolved timezone is not loadable", err)
	}

	from, to, err := s.dates(rng, tz)
	if err != nil {
		return Response{}, err
	}
	s.logger.Info("moonrise search",
		"location", query,
		"lat", loc.Latitude,
		"lng", loc.Longitude,
		"timezone", loc.Timezone,
		"from", from.Format(astrotime.DateLayout),
		"to", to.Format(astrotime.DateLayout),
		"bedtime", cutoff.String(),
	)

	result, err := s.scanner.Scan(ctx, ScanInput{Location: loc, From: from, To: to, Cutoff: cutoff})
	if err != nil {
		return Response{}, err
	}

	return Response{
		Location:          firstNonEmpty(loc.Name, query),
		Latitude:          loc.Latitude,
		Longitude:         loc.Longitude,
		State:             loc.State,
		Country:           loc.Country,
		Timezone:          loc.Timezone,
		LocationInput:     req.Location,
		FormattedLocation: firstNonEmpty(loc.FormattedLocation, query),
		DateRange:         result.DateRange,
		DaysSearched:      result.DaysSearched,
		TotalEvents:       result.TotalEvents,
		Bedtime:           cutoff.String(),
		CalculationStats:  result.Usage,
		SuccessRate:       result.Usage.PrimaryRate(),
		Events:            result.Events,
	}, nil
}

// checkRange validates the date inputs without needing the observer timezone, so
// oversized ranges are refused before the resolver or any engine is contacted.
func (s *service) checkRange(req Request) (rangeRequest, error) {
	rng := rangeRequest{
		from: strings.TrimSpace(req.FromDate),
		to:   strings.TrimSpace(req.ToDate),
		days: req.Days,
	}
	if rng.days < 0 {
		return rangeRequest{}, apperrors.Wrap(CodeInvalidInput, "days must be positive", nil)
	}
	if rng.days == 0 {
		rng.days = s.cfg.DefaultDays
	}
	if rng.to != "" && rng.from == "" {
		return rangeRequest{}, apperrors.Wrap(CodeInvalidInput, "fromDate is required when toDate is set", nil)
	}

	var from, to time.Time
	var err error
	if rng.from != "" {
		if from, err = astrotime.ParseDate(rng.from, time.UTC); err != nil {
			return rangeRequest{}, apperrors.Wrap(CodeInvalidInput, "fromDate must be formatted as YYYY-MM-DD", err)
		}
	}
	if rng.to != "" {
		if to, err = astrotime.ParseDate(rng.to, time.UTC); err != nil {
			return rangeRequest{}, apperrors.Wrap(CodeInvalidInput, "toDate must be formatted as YYYY-MM-DD", err)
		}
		if err := validateSpan(astrotime.DaysBetween(from, to), s.cfg.MaxDays); err != nil {
			return rangeRequest{}, err
		}
		return rng, nil
	}
	if err := validateSpan(rng.days, s.cfg.MaxDays); err != nil {
		return rangeRequest{}, err
	}
	return rng, nil
}

func (s *service) dates(rng rangeRequest, tz *time.Location) (time.Time, time.Time, error) {
	var from time.Time
	if rng.from != "" {
		parsed, err := astrotime.ParseDate(rng.from, tz)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.Wrap(CodeInvalidInput, "fromDate must be formatted as YYYY-MM-DD", err)
		}
		from = parsed
	} else {
		from = util.TodayIn(s.now, tz)
	}
	if rng.to != "" {
		to, err := astrotime.ParseDate(rng.to, tz)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.Wrap(CodeInvalidInput, "toDate must be formatted as YYYY-MM-DD", err)
		}
		return from, to, nil
	}
	return from, astrotime.AddDays(from, rng.days), nil
}

func (s *service) resolveLocation(ctx context.Context, query string) (ObserverLocation, error) {
	key := cacheKey(query)
	if s.store != nil {
		cached, ok, err := s.store.GetLocation(ctx, key)
		if err != nil {
			s.logger.Warn("location cache lookup failed", "error", err)
		} else if ok {
			s.logger.Debug("location cache hit", "key", key)
			return cached, nil
		}
	}

	loc, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		if errors.Is(err, ErrLocationNotFound) {
			return ObserverLocation{}, apperrors.Wrap(CodeLocationNotFound, LocationGuidance, err)
		}
		if errors.Is(err, ErrResolverMisconfigured) {
			s.logger.Error("location resolver misconfigured", "error", err)
			return ObserverLocation{}, apperrors.Wrap(CodeResolverMisconfig, "location service is not configured", err)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ObserverLocation{}, apperrors.Wrap(CodeScanCancelled, "location lookup cancelled", err)
		}
		return ObserverLocation{}, apperrors.Wrap(CodeResolverUnavailable, "location service unavailable", err)
	}
	if loc.Timezone == "" {
		zone, err := s.zones.Zone(loc.Latitude, loc.Longitude)
		if err != nil {
			return ObserverLocation{}, apperrors.Wrap(CodeLocationNotFound, "could not determine a timezone for the location", err)
		}
		loc.Timezone = zone
	}
	if err := ValidateLocation(loc); err != nil {
		return ObserverLocation{}, apperrors.Wrap(CodeLocationNotFound, LocationGuidance, err)
	}

	if s.store != nil {
		if err := s.store.SaveLocation(ctx, key, loc, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("location cache write failed", "error", err)
		}
	}
	return loc, nil
}

func cacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
