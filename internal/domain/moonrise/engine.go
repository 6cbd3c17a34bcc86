package moonrise

import (
	"context"
	"time"
)

// Engine computes one civil day of Sun and Moon ephemeris for an observer.
// A body that does not cross the horizon in the search window comes back as a nil
// field; ErrEngineFailure is reserved for inputs the model cannot handle.
type Engine interface {
	Name() string
	ComputeDay(ctx context.Context, date time.Time, loc ObserverLocation) (DayEphemeris, error)
}

// Engines pairs the primary model with the one consulted when it comes up short.
type Engines struct {
	Primary  Engine
	Fallback Engine
}

// usableForNight reports whether a day carries the anchors the classifier needs
// from that day's own computation.
func usableForNight(eph DayEphemeris) bool {
	return eph.Sun.Set != nil && eph.Moon.Rise != nil
}
