package timezone

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/ringsaturn/tzf"

	"github.com/yanqian/moonwatch/pkg/astrotime"
)

// maxCachedZones caps the coordinate cache; the whole map is dropped when it fills.
const maxCachedZones = 1024

// ErrNoZone is returned when no IANA zone encloses the coordinates.
var ErrNoZone = errors.New("no timezone for coordinates")

// finder is the subset of tzf.F the resolver uses.
type finder interface {
	GetTimezoneName(lng float64, lat float64) string
}

type coordKey struct {
	lat, lng float64
}

// Resolver maps coordinates to IANA zones using the polygon data bundled with tzf.
// Lookups are cached per coordinate pair, up to limit entries.
type Resolver struct {
	finder finder
	limit  int

	mu    sync.RWMutex
	zones map[coordKey]*time.Location
}

// NewResolver loads the default tzf finder.
func NewResolver() (*Resolver, error) {
	f, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("load timezone finder: %w", err)
	}
	return newResolver(f), nil
}

func newResolver(f finder) *Resolver {
	return &Resolver{finder: f, limit: maxCachedZones, zones: make(map[coordKey]*time.Location)}
}

// Zone implements moonrise.ZoneFinder.
func (r *Resolver) Zone(lat, lng float64) (string, error) {
	loc, err := r.Location(lat, lng)
	if err != nil {
		return "", err
	}
	return loc.String(), nil
}

// Location returns the loaded zone for the coordinates.
func (r *Resolver) Location(lat, lng float64) (*time.Location, error) {
	if !astrotime.Finite(lat, lng) || math.Abs(lat) > 90 || math.Abs(lng) > 180 {
		return nil, fmt.Errorf("coordinates %v,%v out of range: %w", lat, lng, ErrNoZone)
	}
	key := coordKey{lat: lat, lng: lng}
	r.mu.RLock()
	cached, ok := r.zones[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	name := r.finder.GetTimezoneName(lng, lat)
	if name == "" {
		return nil, fmt.Errorf("coordinates %v,%v: %w", lat, lng, ErrNoZone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", name, err)
	}

	r.mu.Lock()
	if len(r.zones) >= r.limit {
		r.zones = make(map[coordKey]*time.Location)
	}
	r.zones[key] = loc
	r.mu.Unlock()
	return loc, nil
}

// LocalTimeOfDay renders instant as HH:MM wall-clock time in the zone enclosing the
// coordinates. Nil instants and unresolvable coordinates give ("", false).
func (r *Resolver) LocalTimeOfDay(instant *time.Time, lat, lng float64) (string, bool) {
	if instant == nil {
		return "", false
	}
	loc, err := r.Location(lat, lng)
	if err != nil {
		return "", false
	}
	return astrotime.FormatClock(instant, loc)
}
